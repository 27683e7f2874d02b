package mercadopago

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/growshop/internal/domain"
)

func newTestGateway(t *testing.T, h http.HandlerFunc) *Gateway {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewGateway(Config{AccessToken: "TEST-123456789", APIURL: srv.URL, BaseURL: "https://growshop.cl", SignatureKey: "k"})
}

func TestExternalRefRoundTrip(t *testing.T) {
	g := NewGateway(Config{SignatureKey: "k"})
	id := uuid.New()

	got, ok := g.VerifyExternalRef(g.ExternalRef(id))
	require.True(t, ok)
	assert.Equal(t, id, got)

	_, ok = g.VerifyExternalRef(id.String() + "|deadbeef")
	assert.False(t, ok)
	_, ok = NewGateway(Config{SignatureKey: "otra"}).VerifyExternalRef(g.ExternalRef(id))
	assert.False(t, ok)
	_, ok = g.VerifyExternalRef("sin-separador")
	assert.False(t, ok)
}

func TestCreatePreference(t *testing.T) {
	var got mpPreferenceRequest
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/checkout/preferences", r.URL.Path)
		assert.Equal(t, "Bearer TEST-123456789", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(mpPrefResp{ID: "pref-1", InitPoint: "https://mp/init", SandboxInitPoint: "https://mp/sandbox"})
	})
	o := &domain.Order{
		ID:             uuid.New(),
		CustomerEmail:  "ana@example.com",
		ShippingCost:   3500,
		DiscountAmount: 1000,
		CouponCode:     "PROMO",
		Items: []domain.OrderItem{{
			Quantity: 2, UnitPrice: 5000,
			ProductSnapshot: domain.ProductSnapshot{Name: "Maceta textil", Slug: "maceta-textil"},
		}},
	}

	initPoint, err := g.CreatePreference(context.Background(), o)
	require.NoError(t, err)
	assert.Equal(t, "https://mp/sandbox", initPoint)
	assert.Equal(t, "pref-1", o.MPPreferenceID)
	require.Len(t, got.Items, 3)
	assert.Equal(t, "Maceta textil", got.Items[0].Title)
	assert.Equal(t, -1000.0, got.Items[2].UnitPrice)
	assert.Equal(t, "https://growshop.cl/webhooks/mp", got.NotificationURL)
	assert.Equal(t, "approved", got.AutoReturn)

	id, ok := g.VerifyExternalRef(got.ExternalReference)
	assert.True(t, ok)
	assert.Equal(t, o.ID, id)
}

func TestProcessCard(t *testing.T) {
	var got mpPaymentRequest
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payments", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("X-Idempotency-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(mpPaymentResp{ID: 987, Status: "approved", StatusDetail: "accredited", PaymentMethodID: "visa"})
	})
	orderID := uuid.New()

	res, err := g.ProcessCard(context.Background(), domain.CardPayment{
		OrderID: orderID, Token: "tok", PaymentMethodID: "visa", PayerEmail: "ana@example.com", Amount: 12990,
	})
	require.NoError(t, err)
	assert.Equal(t, "987", res.PaymentID)
	assert.Equal(t, domain.PaymentApproved, res.PaymentStatus())
	assert.Equal(t, 1, got.Installments)
	assert.Equal(t, 12990.0, got.TransactionAmount)
}

func TestProcessCardProviderError(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"invalid card token","status":400}`))
	})
	_, err := g.ProcessCard(context.Background(), domain.CardPayment{OrderID: uuid.New(), Token: "x", PaymentMethodID: "visa"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid card token")
}

func TestPaymentInfo(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payments/55", r.URL.Path)
		_ = json.NewEncoder(w).Encode(mpPaymentResp{ID: 55, Status: "in_process", ExternalReference: "abc|def"})
	})
	res, err := g.PaymentInfo(context.Background(), "55")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPending, res.PaymentStatus())
	assert.Equal(t, "abc|def", res.ExternalReference)
}

func TestMissingToken(t *testing.T) {
	g := NewGateway(Config{})
	_, err := g.CreatePreference(context.Background(), &domain.Order{})
	assert.Error(t, err)
	_, err = g.PaymentInfo(context.Background(), "1")
	assert.Error(t, err)
}
