package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/growshop/internal/adapters/carrier"
	"github.com/phenrril/growshop/internal/adapters/notify"
	"github.com/phenrril/growshop/internal/auth"
	"github.com/phenrril/growshop/internal/domain"
	"github.com/phenrril/growshop/internal/usecase"
)

const maxJSONBody = 1 << 20

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp string         `json:"timestamp"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func respondWithError(w http.ResponseWriter, code int, message string, details map[string]any) {
	writeJSON(w, code, ErrorResponse{Error: ErrorDetail{
		Code:      http.StatusText(code),
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}})
}

// respondErr traduce errores de dominio a códigos HTTP. Lo no reconocido es 500
// y el detalle queda sólo en el log.
func respondErr(w http.ResponseWriter, r *http.Request, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		fields := make(map[string]any, len(ve.Fields))
		for k, v := range ve.Fields {
			fields[k] = v
		}
		respondWithError(w, http.StatusUnprocessableEntity, "datos inválidos", map[string]any{"fields": fields})
	case errors.Is(err, domain.ErrNotFound):
		respondWithError(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, domain.ErrConflict), errors.Is(err, usecase.ErrAlreadyPaid):
		respondWithError(w, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, domain.ErrForbidden):
		respondWithError(w, http.StatusForbidden, err.Error(), nil)
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, auth.ErrBadCredentials), errors.Is(err, auth.ErrNoSession):
		respondWithError(w, http.StatusUnauthorized, err.Error(), nil)
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrCouponInvalid),
		errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, usecase.ErrNoCoverage),
		errors.Is(err, usecase.ErrNoStatusEmail),
		errors.Is(err, carrier.ErrMissingColumns):
		respondWithError(w, http.StatusUnprocessableEntity, err.Error(), nil)
	case errors.Is(err, notify.ErrMailDisabled):
		respondWithError(w, http.StatusServiceUnavailable, err.Error(), nil)
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Str("method", r.Method).Msg("error interno")
		respondWithError(w, http.StatusInternalServerError, "error interno", nil)
	}
}

// denyJSON es la respuesta de los guards de la API.
func denyJSON(w http.ResponseWriter, r *http.Request, err error) {
	respondErr(w, r, err)
}

// decodeAndValidate lee el cuerpo JSON y aplica las reglas `validate` del DTO.
func decodeAndValidate(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		ve := domain.NewValidationError()
		ve.Add("body", "JSON inválido")
		return ve
	}
	if err := validate.Struct(v); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	ve := domain.NewValidationError()
	for _, fe := range verrs {
		ve.Add(fieldPath(fe), fieldMessage(fe))
	}
	return ve
}

// fieldPath quita el nombre del struct raíz: "CheckoutRequest.customer.email" -> "customer.email".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "campo obligatorio"
	case "email":
		return "email inválido"
	case "min":
		return "debe tener al menos " + fe.Param()
	case "max":
		return "debe tener como máximo " + fe.Param()
	case "gt", "gte":
		return "debe ser mayor a " + fe.Param()
	case "lt", "lte":
		return "debe ser menor a " + fe.Param()
	case "oneof":
		return "debe ser uno de: " + fe.Param()
	default:
		return "valor inválido"
	}
}
