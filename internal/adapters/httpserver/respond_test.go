package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/growshop/internal/adapters/carrier"
	"github.com/phenrril/growshop/internal/adapters/notify"
	"github.com/phenrril/growshop/internal/auth"
	"github.com/phenrril/growshop/internal/domain"
	"github.com/phenrril/growshop/internal/usecase"
)

func TestRespondErrStatusCodes(t *testing.T) {
	ve := domain.NewValidationError()
	ve.Add("name", "obligatorio")

	cases := []struct {
		name string
		err  error
		code int
	}{
		{"validation", ve, http.StatusUnprocessableEntity},
		{"not found wrapped", fmt.Errorf("producto: %w", domain.ErrNotFound), http.StatusNotFound},
		{"conflict", domain.ErrConflict, http.StatusConflict},
		{"already paid", usecase.ErrAlreadyPaid, http.StatusConflict},
		{"forbidden", domain.ErrForbidden, http.StatusForbidden},
		{"bad credentials", auth.ErrBadCredentials, http.StatusUnauthorized},
		{"unauthorized", domain.ErrUnauthorized, http.StatusUnauthorized},
		{"invalid transition", fmt.Errorf("x: %w", domain.ErrInvalidTransition), http.StatusUnprocessableEntity},
		{"coupon", domain.ErrCouponInvalid, http.StatusUnprocessableEntity},
		{"no coverage", usecase.ErrNoCoverage, http.StatusUnprocessableEntity},
		{"empty cart", domain.ErrEmptyCart, http.StatusUnprocessableEntity},
		{"missing columns", carrier.ErrMissingColumns, http.StatusUnprocessableEntity},
		{"mail disabled", notify.ErrMailDisabled, http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondErr(rec, httptest.NewRequest(http.MethodGet, "/x", nil), tc.err)
			assert.Equal(t, tc.code, rec.Code)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, http.StatusText(tc.code), body.Error.Code)
			assert.NotEmpty(t, body.Error.Timestamp)
		})
	}
}

func TestInternalErrorsDoNotLeak(t *testing.T) {
	rec := httptest.NewRecorder()
	respondErr(rec, httptest.NewRequest(http.MethodGet, "/x", nil), errors.New("pq: password authentication failed"))
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestDecodeAndValidateNestedFields(t *testing.T) {
	body := `{"items":[{"product_id":"` + uuid.NewString() + `","quantity":0}],"customer":{"name":"Ana","email":"no"},"shipping_option":"drone"}`
	req := httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(body))

	var in usecase.CheckoutRequest
	err := decodeAndValidate(req, &in)
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.True(t, ve.Has("items[0].quantity"))
	assert.True(t, ve.Has("customer.email"))
	assert.True(t, ve.Has("shipping_option"))
	assert.False(t, ve.Has("customer.name"))
}

func TestDecodeAndValidateBadJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{"))
	var in loginRequest
	err := decodeAndValidate(req, &in)
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.True(t, ve.Has("body"))
}
