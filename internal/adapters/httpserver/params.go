package httpserver

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/phenrril/growshop/internal/domain"
)

const maxPageSize = 100

func urlID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		ve := domain.NewValidationError()
		ve.Add(name, "identificador inválido")
		return uuid.Nil, ve
	}
	return id, nil
}

func queryInt(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func pageSize(r *http.Request) int {
	n := queryInt(r, "page_size", 0)
	if n > maxPageSize {
		return maxPageSize
	}
	return n
}

func queryUUID(r *http.Request, name string, ve *domain.ValidationError) *uuid.UUID {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		ve.Add(name, "identificador inválido")
		return nil
	}
	return &id
}

func queryBool(r *http.Request, name string) *bool {
	switch strings.ToLower(r.URL.Query().Get(name)) {
	case "true", "1", "si", "sí":
		b := true
		return &b
	case "false", "0", "no":
		b := false
		return &b
	}
	return nil
}

// queryDate acepta "2006-01-02" o RFC3339. Con endOfDay una fecha sin hora
// cubre el día completo.
func queryDate(r *http.Request, name string, endOfDay bool, ve *domain.ValidationError) *time.Time {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t
	}
	t, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		ve.Add(name, "fecha inválida, usar AAAA-MM-DD")
		return nil
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1)
	}
	return &t
}

type idsRequest struct {
	IDs []uuid.UUID `json:"ids" validate:"required,min=1"`
}

type bulkRequest struct {
	IDs    []uuid.UUID `json:"ids" validate:"required,min=1"`
	Action string      `json:"action" validate:"required,oneof=activate deactivate delete"`
}

type listResponse[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size,omitempty"`
}

func newList[T any](items []T, total int64, page, size int) listResponse[T] {
	if items == nil {
		items = []T{}
	}
	if page <= 0 {
		page = 1
	}
	return listResponse[T]{Items: items, Total: total, Page: page, PageSize: size}
}

func writePDF(w http.ResponseWriter, ref string, pdf []byte) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="comprobante-`+ref+`.pdf"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
