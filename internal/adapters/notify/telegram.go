package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/phenrril/growshop/internal/domain"
)

const telegramAPI = "https://api.telegram.org"

// Telegram avisa al comercio por los chats configurados.
type Telegram struct {
	token   string
	chatIDs []string
	apiURL  string
	client  *http.Client
}

func NewTelegram(token string, chatIDs []string) *Telegram {
	return &Telegram{token: token, chatIDs: chatIDs, apiURL: telegramAPI, client: &http.Client{Timeout: 8 * time.Second}}
}

func (t *Telegram) Enabled() bool { return t != nil && t.token != "" && len(t.chatIDs) > 0 }

func (t *Telegram) NotifyPaid(ctx context.Context, o *domain.Order) error {
	if !t.Enabled() {
		return fmt.Errorf("telegram vars faltantes")
	}
	text := paidMessage(o)
	endpoint := t.apiURL + "/bot" + t.token + "/sendMessage"
	var lastErr error
	for _, id := range t.chatIDs {
		form := url.Values{}
		form.Set("chat_id", id)
		form.Set("text", text)
		form.Set("disable_web_page_preview", "1")
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
		if err != nil {
			lastErr = err
			continue
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		resp, err := t.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode >= 300 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			lastErr = fmt.Errorf("telegram status %d: %s", resp.StatusCode, string(body))
		}
		resp.Body.Close()
	}
	return lastErr
}

func paidMessage(o *domain.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Pedido #%s - PAGO APROBADO\n", o.Reference())
	fmt.Fprintf(&b, "Nombre: %s\nEmail: %s\nTel: %s\n", o.CustomerName, o.CustomerEmail, o.CustomerPhone)
	if o.ShippingOption == domain.ShippingPickup {
		b.WriteString("Retiro en tienda\n")
	} else {
		fmt.Fprintf(&b, "Envío (%s) a: %s, %s, %s\n", o.ShippingOption, o.ShippingAddress.Line(), o.ShippingAddress.Comuna, o.ShippingAddress.Region)
	}
	b.WriteString("Items:\n")
	for _, it := range o.Items {
		fmt.Fprintf(&b, "- %s x%d $%s\n", it.ProductSnapshot.Name, it.Quantity, FormatCLP(it.UnitPrice))
	}
	if o.CouponCode != "" {
		fmt.Fprintf(&b, "Cupón: %s (-$%s)\n", o.CouponCode, FormatCLP(o.DiscountAmount))
	}
	fmt.Fprintf(&b, "Total: $%s (Envío: $%s)\n", FormatCLP(o.TotalAmount), FormatCLP(o.ShippingCost))
	return b.String()
}
