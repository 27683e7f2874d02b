package carrier

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/phenrril/growshop/internal/domain"
)

var ExportColumns = []string{
	"REFERENCIA", "DESTINATARIO", "DIRECCION", "COMUNA", "REGION", "TELEFONO",
	"EMAIL", "CONTENIDO", "PESO_KG", "VALOR_DECLARADO", "TIPO_SERVICIO",
}

const (
	defaultWeightKg = 1.0
	maxContentLen   = 120
)

// Exportable filtra las órdenes que viajan por courier: estados pagados en
// adelante (sin cancelled ni pending) y con despacho a domicilio.
func Exportable(orders []domain.Order) []domain.Order {
	out := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		if o.Status.Exportable() && o.ShippingOption != domain.ShippingPickup {
			out = append(out, o)
		}
	}
	return out
}

func Row(o *domain.Order) []string {
	a := o.ShippingAddress
	dir := a.Line()
	if a.Notes != "" {
		dir += " (" + a.Notes + ")"
	}
	return []string{
		o.Reference(),
		o.CustomerName,
		dir,
		a.Comuna,
		a.Region,
		o.CustomerPhone,
		o.CustomerEmail,
		content(o),
		fmt.Sprintf("%.2f", weight(o)),
		fmt.Sprintf("%.0f", declaredValue(o)),
		serviceType(o.ShippingOption),
	}
}

func content(o *domain.Order) string {
	parts := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		parts = append(parts, fmt.Sprintf("%dx %s", it.Quantity, it.ProductSnapshot.Name))
	}
	s := strings.Join(parts, ", ")
	if r := []rune(s); len(r) > maxContentLen {
		s = string(r[:maxContentLen-3]) + "..."
	}
	return s
}

func weight(o *domain.Order) float64 {
	w := 0.0
	for _, it := range o.Items {
		w += it.ProductSnapshot.WeightKg * float64(it.Quantity)
	}
	if w <= 0 {
		return defaultWeightKg
	}
	return w
}

func declaredValue(o *domain.Order) float64 {
	v := o.Subtotal - o.DiscountAmount
	if v < 0 {
		return 0
	}
	return v
}

func serviceType(opt domain.ShippingOption) string {
	if opt == domain.ShippingExpress {
		return "EXPRESS"
	}
	return "NORMAL"
}

// ExportCSV escribe la planilla del courier y devuelve cuántas órdenes incluyó.
func ExportCSV(w io.Writer, orders []domain.Order) (int, error) {
	list := Exportable(orders)
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if err := cw.Write(ExportColumns); err != nil {
		return 0, err
	}
	for i := range list {
		if err := cw.Write(Row(&list[i])); err != nil {
			return i, err
		}
	}
	cw.Flush()
	return len(list), cw.Error()
}

func ExportXLSX(w io.Writer, orders []domain.Order) (int, error) {
	list := Exportable(orders)
	f := excelize.NewFile()
	defer f.Close()
	sheet := "Envios"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return 0, err
	}
	if err := f.SetSheetRow(sheet, "A1", &ExportColumns); err != nil {
		return 0, err
	}
	for i := range list {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return i, err
		}
		row := Row(&list[i])
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return i, err
		}
	}
	if _, err := f.WriteTo(w); err != nil {
		return 0, err
	}
	return len(list), nil
}
