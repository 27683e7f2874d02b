package mercadopago

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/phenrril/growshop/internal/domain"
)

const (
	DefaultAPIURL = "https://api.mercadopago.com"
	currency      = "CLP"
)

type Config struct {
	AccessToken  string
	APIURL       string
	BaseURL      string
	SignatureKey string
	Production   bool
}

type Gateway struct {
	token      string
	apiURL     string
	baseURL    string
	signKey    []byte
	production bool
	httpClient *http.Client
}

func NewGateway(cfg Config) *Gateway {
	api := strings.TrimRight(cfg.APIURL, "/")
	if api == "" {
		api = DefaultAPIURL
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "http://localhost:8080"
	}
	key := cfg.SignatureKey
	if key == "" {
		key = "dev"
	}
	return &Gateway{
		token:      cfg.AccessToken,
		apiURL:     api,
		baseURL:    base,
		signKey:    []byte(key),
		production: cfg.Production,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type mpItem struct {
	ID         string  `json:"id,omitempty"`
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	CurrencyID string  `json:"currency_id"`
	PictureURL string  `json:"picture_url,omitempty"`
}

type mpPreferenceRequest struct {
	Items               []mpItem          `json:"items"`
	Payer               map[string]string `json:"payer,omitempty"`
	BackURLs            map[string]string `json:"back_urls,omitempty"`
	AutoReturn          string            `json:"auto_return,omitempty"`
	NotificationURL     string            `json:"notification_url,omitempty"`
	StatementDescriptor string            `json:"statement_descriptor,omitempty"`
	ExternalReference   string            `json:"external_reference,omitempty"`
}

type mpPrefResp struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

type mpPayer struct {
	Email string `json:"email"`
}

type mpPaymentRequest struct {
	TransactionAmount float64 `json:"transaction_amount"`
	Token             string  `json:"token"`
	Description       string  `json:"description,omitempty"`
	Installments      int     `json:"installments"`
	PaymentMethodID   string  `json:"payment_method_id"`
	IssuerID          string  `json:"issuer_id,omitempty"`
	Payer             mpPayer `json:"payer"`
	ExternalReference string  `json:"external_reference"`
	NotificationURL   string  `json:"notification_url,omitempty"`
}

type mpPaymentResp struct {
	ID                int64  `json:"id"`
	Status            string `json:"status"`
	StatusDetail      string `json:"status_detail"`
	ExternalReference string `json:"external_reference"`
	PaymentMethodID   string `json:"payment_method_id"`
}

type mpError struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
	Error   string `json:"error"`
}

func (g *Gateway) signExternal(orderID string) string {
	h := hmac.New(sha256.New, g.signKey)
	h.Write([]byte(orderID))
	return hex.EncodeToString(h.Sum(nil))[:24]
}

// ExternalRef arma la referencia firmada "<order id>|<firma>" que viaja al proveedor.
func (g *Gateway) ExternalRef(orderID uuid.UUID) string {
	return orderID.String() + "|" + g.signExternal(orderID.String())
}

func (g *Gateway) VerifyExternalRef(ext string) (uuid.UUID, bool) {
	parts := strings.Split(ext, "|")
	if len(parts) != 2 {
		return uuid.Nil, false
	}
	if !hmac.Equal([]byte(g.signExternal(parts[0])), []byte(parts[1])) {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(parts[0])
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func (g *Gateway) sandbox() bool {
	return strings.HasPrefix(g.token, "TEST-") && !g.production
}

func (g *Gateway) CreatePreference(ctx context.Context, o *domain.Order) (string, error) {
	if g.token == "" {
		return "", errors.New("MP token faltante (MP_ACCESS_TOKEN)")
	}
	if o == nil {
		return "", errors.New("orden nil")
	}
	items := make([]mpItem, 0, len(o.Items)+2)
	for _, it := range o.Items {
		items = append(items, mpItem{
			ID:         it.ProductSnapshot.Slug,
			Title:      it.ProductSnapshot.Name,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			CurrencyID: currency,
			PictureURL: it.ProductSnapshot.ImageURL,
		})
	}
	if o.ShippingCost > 0 {
		items = append(items, mpItem{Title: "Envío", Quantity: 1, UnitPrice: o.ShippingCost, CurrencyID: currency})
	}
	if o.DiscountAmount > 0 {
		items = append(items, mpItem{Title: "Descuento " + o.CouponCode, Quantity: 1, UnitPrice: -o.DiscountAmount, CurrencyID: currency})
	}

	back := g.baseURL + "/checkout/result?order=" + o.ID.String()
	payload := mpPreferenceRequest{
		Items:               items,
		Payer:               map[string]string{"email": o.CustomerEmail, "name": o.CustomerName},
		BackURLs:            map[string]string{"success": back, "pending": back, "failure": back},
		NotificationURL:     g.baseURL + "/webhooks/mp",
		StatementDescriptor: "GROWSHOP",
		ExternalReference:   g.ExternalRef(o.ID),
	}
	// MercadoPago con credenciales de producción rechaza auto_return hacia localhost
	if g.sandbox() || !strings.Contains(g.baseURL, "localhost") {
		payload.AutoReturn = "approved"
	}

	var pref mpPrefResp
	if err := g.do(ctx, http.MethodPost, "/checkout/preferences", "", payload, &pref); err != nil {
		return "", err
	}
	if pref.ID == "" {
		return "", errors.New("respuesta MP incompleta")
	}
	o.MPPreferenceID = pref.ID
	if g.sandbox() && pref.SandboxInitPoint != "" {
		return pref.SandboxInitPoint, nil
	}
	return pref.InitPoint, nil
}

// ProcessCard cobra el token de tarjeta. La clave de idempotencia es orden+token.
func (g *Gateway) ProcessCard(ctx context.Context, p domain.CardPayment) (*domain.PaymentResult, error) {
	if g.token == "" {
		return nil, errors.New("MP token faltante (MP_ACCESS_TOKEN)")
	}
	if p.Token == "" || p.PaymentMethodID == "" {
		return nil, errors.New("token o medio de pago faltante")
	}
	if p.Installments <= 0 {
		p.Installments = 1
	}
	req := mpPaymentRequest{
		TransactionAmount: p.Amount,
		Token:             p.Token,
		Description:       p.Description,
		Installments:      p.Installments,
		PaymentMethodID:   p.PaymentMethodID,
		IssuerID:          p.IssuerID,
		Payer:             mpPayer{Email: p.PayerEmail},
		ExternalReference: g.ExternalRef(p.OrderID),
		NotificationURL:   g.baseURL + "/webhooks/mp",
	}
	var pr mpPaymentResp
	if err := g.do(ctx, http.MethodPost, "/v1/payments", p.OrderID.String()+"-"+p.Token, req, &pr); err != nil {
		return nil, err
	}
	return pr.result(), nil
}

func (g *Gateway) PaymentInfo(ctx context.Context, paymentID string) (*domain.PaymentResult, error) {
	if g.token == "" || paymentID == "" {
		return nil, errors.New("params")
	}
	var pr mpPaymentResp
	if err := g.do(ctx, http.MethodGet, "/v1/payments/"+paymentID, "", nil, &pr); err != nil {
		return nil, err
	}
	return pr.result(), nil
}

func (pr mpPaymentResp) result() *domain.PaymentResult {
	id := ""
	if pr.ID != 0 {
		id = fmt.Sprint(pr.ID)
	}
	return &domain.PaymentResult{
		PaymentID:         id,
		Status:            pr.Status,
		StatusDetail:      pr.StatusDetail,
		ExternalReference: pr.ExternalReference,
		PaymentMethod:     pr.PaymentMethodID,
	}
}

func (g *Gateway) do(ctx context.Context, method, path, idempotencyKey string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("error serializando payload MP: %w", err)
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, g.apiURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+g.token)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idempotencyKey != "" {
		req.Header.Set("X-Idempotency-Key", idempotencyKey)
	}
	res, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error de conexión con MercadoPago: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		var mpErr mpError
		if json.Unmarshal(b, &mpErr) == nil && mpErr.Message != "" {
			if res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden {
				return fmt.Errorf("credenciales de MercadoPago inválidas o sin permisos (status %d): %s", res.StatusCode, mpErr.Message)
			}
			return fmt.Errorf("error de MercadoPago (status %d): %s", res.StatusCode, mpErr.Message)
		}
		return fmt.Errorf("mp %s status %d: %s", path, res.StatusCode, string(b))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}
