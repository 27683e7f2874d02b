package voucher

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/phenrril/growshop/internal/adapters/notify"
	"github.com/phenrril/growshop/internal/domain"
)

// IVARate es la tasa incluida en todos los precios.
var IVARate = decimal.RequireFromString("0.19")

var statusLabels = map[domain.OrderStatus]string{
	domain.OrderStatusPending:   "Pendiente de pago",
	domain.OrderStatusPaid:      "Pagado",
	domain.OrderStatusConfirmed: "Pagado",
	domain.OrderStatusPreparing: "En preparación",
	domain.OrderStatusShipped:   "Despachado",
	domain.OrderStatusDelivered: "Entregado",
	domain.OrderStatusCancelled: "Cancelado",
}

var shippingLabels = map[domain.ShippingOption]string{
	domain.ShippingPickup:   "Retiro en tienda",
	domain.ShippingStandard: "Envío estándar",
	domain.ShippingExpress:  "Envío express",
}

// TaxBreakdown separa el neto y el IVA de un total con IVA incluido.
func TaxBreakdown(total float64) (net, iva float64) {
	t := domain.Dec(total)
	n := t.Div(decimal.NewFromInt(1).Add(IVARate)).Round(0)
	return domain.Money(n), domain.Money(t.Sub(n))
}

type Renderer struct{}

func NewRenderer() *Renderer { return &Renderer{} }

// Render arma el comprobante. Con las mismas entradas produce los mismos bytes.
func (Renderer) Render(o *domain.Order, s domain.Settings, logo []byte) ([]byte, error) {
	if o == nil {
		return nil, fmt.Errorf("orden nil")
	}
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(o.CreatedAt)
	pdf.SetModificationDate(o.CreatedAt)
	pdf.SetCatalogSort(true)
	pdf.SetTitle("Comprobante "+o.Reference(), true)
	pdf.SetAuthor(s.BusinessName, true)
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	header(pdf, tr, s, logo)
	orderMeta(pdf, tr, o)
	customerBlock(pdf, tr, o)
	itemsTable(pdf, tr, o)
	totals(pdf, tr, o)
	footer(pdf, tr, o, s)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("generar pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func header(pdf *fpdf.Fpdf, tr func(string) string, s domain.Settings, logo []byte) {
	textX := 15.0
	if len(logo) > 0 {
		imgType := ""
		switch http.DetectContentType(logo) {
		case "image/png":
			imgType = "PNG"
		case "image/jpeg":
			imgType = "JPG"
		case "image/gif":
			imgType = "GIF"
		}
		if imgType != "" {
			opts := fpdf.ImageOptions{ImageType: imgType}
			pdf.RegisterImageOptionsReader("logo", opts, bytes.NewReader(logo))
			if pdf.Ok() {
				pdf.ImageOptions("logo", 15, 12, 0, 22, false, opts, 0, "")
				textX = 55
			}
		}
		if !pdf.Ok() {
			log.Warn().Err(pdf.Error()).Msg("logo inválido en voucher, se omite")
			pdf.ClearError()
		}
	}
	pdf.SetXY(textX, 12)
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 8, tr(s.BusinessName), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	for _, line := range []string{
		joinNonEmpty(" · ", labeled("RUT", s.RUT), s.Address),
		joinNonEmpty(" · ", s.Phone, s.Email, s.Website),
	} {
		if line == "" {
			continue
		}
		pdf.SetX(textX)
		pdf.CellFormat(0, 5, tr(line), "", 1, "L", false, 0, "")
	}
	pdf.SetY(38)
	pdf.SetDrawColor(46, 125, 50)
	pdf.SetLineWidth(0.6)
	pdf.Line(15, pdf.GetY(), 195, pdf.GetY())
	pdf.Ln(4)
}

func orderMeta(pdf *fpdf.Fpdf, tr func(string) string, o *domain.Order) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 7, tr("Comprobante de compra #"+o.Reference()), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	rows := [][2]string{
		{"Fecha", o.CreatedAt.Format("02-01-2006 15:04")},
		{"Estado", statusLabel(o.Status)},
		{"Medio de pago", paymentLabel(o)},
	}
	for _, r := range rows {
		kv(pdf, tr, r[0], r[1])
	}
	pdf.Ln(3)
}

func customerBlock(pdf *fpdf.Fpdf, tr func(string) string, o *domain.Order) {
	section(pdf, tr, "Cliente")
	kv(pdf, tr, "Nombre", o.CustomerName)
	kv(pdf, tr, "Email", o.CustomerEmail)
	if o.CustomerPhone != "" {
		kv(pdf, tr, "Teléfono", o.CustomerPhone)
	}
	if o.CustomerRUT != "" {
		kv(pdf, tr, "RUT", o.CustomerRUT)
	}
	pdf.Ln(2)
	section(pdf, tr, "Despacho")
	kv(pdf, tr, "Modalidad", shippingLabels[o.ShippingOption])
	if o.ShippingOption != domain.ShippingPickup {
		a := o.ShippingAddress
		kv(pdf, tr, "Dirección", a.Line())
		kv(pdf, tr, "Comuna", joinNonEmpty(", ", a.Comuna, a.Region))
		if a.Notes != "" {
			kv(pdf, tr, "Notas", a.Notes)
		}
	}
	pdf.Ln(3)
}

func itemsTable(pdf *fpdf.Fpdf, tr func(string) string, o *domain.Order) {
	widths := []float64{95, 20, 32, 33}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(232, 245, 233)
	for i, h := range []string{"Producto", "Cant.", "Precio unit.", "Subtotal"} {
		align := "R"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(widths[i], 7, tr(h), "B", 0, align, true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 10)
	for _, it := range o.Items {
		name := it.ProductSnapshot.Name
		if len([]rune(name)) > 55 {
			name = string([]rune(name)[:52]) + "..."
		}
		pdf.CellFormat(widths[0], 6, tr(name), "", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, fmt.Sprint(it.Quantity), "", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 6, "$"+notify.FormatCLP(it.UnitPrice), "", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, "$"+notify.FormatCLP(domain.Money(domain.LineTotal(it.UnitPrice, it.Quantity))), "", 1, "R", false, 0, "")
	}
	pdf.Ln(2)
}

func totals(pdf *fpdf.Fpdf, tr func(string) string, o *domain.Order) {
	net, iva := TaxBreakdown(o.TotalAmount)
	rows := [][2]string{{"Subtotal", "$" + notify.FormatCLP(o.Subtotal)}}
	if o.DiscountAmount > 0 {
		label := "Descuento"
		if o.CouponCode != "" {
			label += " (" + o.CouponCode + ")"
		}
		rows = append(rows, [2]string{label, "-$" + notify.FormatCLP(o.DiscountAmount)})
	}
	rows = append(rows,
		[2]string{"Envío", "$" + notify.FormatCLP(o.ShippingCost)},
		[2]string{"Neto", "$" + notify.FormatCLP(net)},
		[2]string{"IVA (19% incluido)", "$" + notify.FormatCLP(iva)},
	)
	pdf.SetFont("Helvetica", "", 10)
	for _, r := range rows {
		pdf.CellFormat(147, 6, tr(r[0]), "", 0, "R", false, 0, "")
		pdf.CellFormat(33, 6, tr(r[1]), "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(147, 8, "Total", "T", 0, "R", false, 0, "")
	pdf.CellFormat(33, 8, "$"+notify.FormatCLP(o.TotalAmount), "T", 1, "R", false, 0, "")
	pdf.Ln(4)
}

func footer(pdf *fpdf.Fpdf, tr func(string) string, o *domain.Order, s domain.Settings) {
	pdf.SetFont("Helvetica", "", 10)
	if o.PaymentStatus == domain.PaymentApproved {
		msg := "Pago confirmado"
		if o.PaymentID != "" {
			msg += " (operación " + o.PaymentID + ")"
		}
		pdf.CellFormat(0, 6, tr(msg), "", 1, "L", false, 0, "")
	} else if s.BankDetails != "" && o.Status == domain.OrderStatusPending {
		section(pdf, tr, "Datos para transferencia")
		pdf.MultiCell(0, 5, tr(s.BankDetails), "", "L", false)
	}
	if o.TrackingNumber != "" {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(0, 6, tr("N° de seguimiento: "+o.TrackingNumber), "", 1, "L", false, 0, "")
	}
	if s.VoucherFooter != "" {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "I", 9)
		pdf.SetTextColor(90, 90, 90)
		pdf.MultiCell(0, 5, tr(s.VoucherFooter), "", "C", false)
		pdf.SetTextColor(0, 0, 0)
	}
}

func section(pdf *fpdf.Fpdf, tr func(string) string, title string) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 6, tr(title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
}

func kv(pdf *fpdf.Fpdf, tr func(string) string, k, v string) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(35, 5, tr(k+":"), "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 5, tr(v), "", 1, "L", false, 0, "")
}

func statusLabel(st domain.OrderStatus) string {
	if l, ok := statusLabels[st]; ok {
		return l
	}
	return string(st)
}

func paymentLabel(o *domain.Order) string {
	switch {
	case o.PaymentMethod != "":
		return o.PaymentMethod
	case o.MPPreferenceID != "" || o.PaymentID != "":
		return "MercadoPago"
	}
	return "Por confirmar"
}

func labeled(label, v string) string {
	if strings.TrimSpace(v) == "" {
		return ""
	}
	return label + " " + v
}

func joinNonEmpty(sep string, parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, strings.TrimSpace(p))
		}
	}
	return strings.Join(out, sep)
}
