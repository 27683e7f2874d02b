package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/phenrril/growshop/internal/domain"
)

var ErrMailDisabled = errors.New("SMTP no configurado, se omite envío de email")

// ErrNoTemplate indica que el estado no tiene correo asociado (pending).
var ErrNoTemplate = errors.New("el estado no tiene correo asociado")

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Pass     string
	From     string
	Business string
	BaseURL  string
}

type Mailer struct {
	cfg  SMTPConfig
	send func(m ...*gomail.Message) error
}

func NewMailer(cfg SMTPConfig) *Mailer {
	if cfg.From == "" {
		cfg.From = cfg.User
	}
	if cfg.Business == "" {
		cfg.Business = "Growshop"
	}
	m := &Mailer{cfg: cfg}
	if cfg.Host != "" && cfg.User != "" && cfg.Pass != "" {
		d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass)
		m.send = d.DialAndSend
	}
	return m
}

func (m *Mailer) Enabled() bool { return m.send != nil }

func (m *Mailer) SendStatusEmail(ctx context.Context, o *domain.Order, st domain.OrderStatus, voucher []byte) error {
	if !m.Enabled() {
		return ErrMailDisabled
	}
	if o == nil || strings.TrimSpace(o.CustomerEmail) == "" {
		return errors.New("orden sin email de cliente")
	}
	subject, body, ok := m.content(o, st)
	if !ok {
		return ErrNoTemplate
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.cfg.From, m.cfg.Business)
	msg.SetAddressHeader("To", o.CustomerEmail, o.CustomerName)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	if len(voucher) > 0 {
		msg.Attach("voucher-"+o.Reference()+".pdf", gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(voucher)
			return err
		}), gomail.SetHeader(map[string][]string{"Content-Type": {"application/pdf"}}))
	}
	if err := m.send(msg); err != nil {
		return fmt.Errorf("email %s orden %s: %w", st, o.Reference(), err)
	}
	return nil
}

func (m *Mailer) content(o *domain.Order, st domain.OrderStatus) (string, string, bool) {
	ref := o.Reference()
	var b strings.Builder
	fmt.Fprintf(&b, "Hola %s,\n\n", firstName(o.CustomerName))
	var subject string
	switch st {
	case domain.OrderStatusPaid, domain.OrderStatusConfirmed:
		subject = fmt.Sprintf("Recibimos tu pago - pedido #%s", ref)
		b.WriteString("Confirmamos el pago de tu pedido. Adjuntamos tu comprobante.\n")
	case domain.OrderStatusPreparing:
		subject = fmt.Sprintf("Estamos preparando tu pedido #%s", ref)
		b.WriteString("Tu pedido está en preparación. Te avisaremos cuando sea despachado.\n")
	case domain.OrderStatusShipped:
		subject = fmt.Sprintf("Tu pedido #%s fue despachado", ref)
		if o.ShippingOption == domain.ShippingPickup {
			b.WriteString("Tu pedido está listo para retiro.\n")
		} else {
			b.WriteString("Tu pedido va en camino.\n")
		}
		if o.TrackingNumber != "" {
			fmt.Fprintf(&b, "Número de seguimiento: %s\n", o.TrackingNumber)
		}
	case domain.OrderStatusDelivered:
		subject = fmt.Sprintf("Tu pedido #%s fue entregado", ref)
		b.WriteString("Tu pedido figura como entregado. ¡Gracias por comprar con nosotros!\n")
	case domain.OrderStatusCancelled:
		subject = fmt.Sprintf("Tu pedido #%s fue cancelado", ref)
		b.WriteString("Tu pedido fue cancelado. Si tienes dudas responde este correo.\n")
	default:
		return "", "", false
	}
	b.WriteString("\nDetalle:\n")
	for _, it := range o.Items {
		fmt.Fprintf(&b, "- %s x%d $%s\n", it.ProductSnapshot.Name, it.Quantity, FormatCLP(it.UnitPrice*float64(it.Quantity)))
	}
	if o.DiscountAmount > 0 {
		fmt.Fprintf(&b, "Descuento: -$%s\n", FormatCLP(o.DiscountAmount))
	}
	fmt.Fprintf(&b, "Envío: $%s\n", FormatCLP(o.ShippingCost))
	fmt.Fprintf(&b, "Total: $%s\n", FormatCLP(o.TotalAmount))
	if m.cfg.BaseURL != "" {
		fmt.Fprintf(&b, "\nPuedes ver tu pedido en %s/account/orders/%s\n", m.cfg.BaseURL, o.ID)
	}
	fmt.Fprintf(&b, "\n%s\n", m.cfg.Business)
	return subject, b.String(), true
}

func firstName(full string) string {
	if f := strings.Fields(full); len(f) > 0 {
		return f[0]
	}
	return "cliente"
}

// FormatCLP formatea pesos sin decimales con separador de miles ".".
func FormatCLP(v float64) string {
	s := fmt.Sprintf("%.0f", v)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	n := len(s)
	if n > 3 {
		rem := n % 3
		if rem == 0 {
			rem = 3
		}
		out := s[:rem]
		for i := rem; i < n; i += 3 {
			out += "." + s[i:i+3]
		}
		s = out
	}
	if neg {
		return "-" + s
	}
	return s
}
