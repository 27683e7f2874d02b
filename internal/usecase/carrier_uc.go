package usecase

import (
	"context"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/phenrril/growshop/internal/adapters/carrier"
	"github.com/phenrril/growshop/internal/domain"
)

type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportXLSX ExportFormat = "xlsx"
)

type ImportResult struct {
	Updated int `json:"updated"`
	Errors  int `json:"errors"`
	Total   int `json:"total"`
}

type CarrierUC struct {
	Orders  domain.OrderRepo
	OrderUC *OrderUC
}

// Export escribe la planilla de despacho con las órdenes pagadas que no se retiran en tienda.
func (uc *CarrierUC) Export(ctx context.Context, w io.Writer, format ExportFormat) (int, error) {
	orders, err := uc.Orders.ListForExport(ctx)
	if err != nil {
		return 0, err
	}
	if format == ExportXLSX {
		return carrier.ExportXLSX(w, orders)
	}
	return carrier.ExportCSV(w, orders)
}

// ImportTracking procesa la planilla devuelta por el courier fila por fila.
// Las filas sin orden o mal formadas cuentan como error y se saltan; una falla
// del backend corta el proceso y devuelve el resultado parcial. Las órdenes
// entregadas sólo reciben el tracking, sin volver a enviado.
func (uc *CarrierUC) ImportTracking(ctx context.Context, name string, r io.Reader) (*ImportResult, error) {
	parsed, err := carrier.ParseTrackingFile(name, r)
	if err != nil {
		return nil, err
	}
	res := &ImportResult{Errors: parsed.Malformed, Total: parsed.Total()}
	orders, err := uc.Orders.ListForTracking(ctx)
	if err != nil {
		return res, err
	}
	for _, row := range parsed.Rows {
		o := matchReference(orders, row.Reference)
		if o == nil {
			log.Info().Int("line", row.Line).Str("reference", row.Reference).Msg("referencia sin orden, se omite")
			res.Errors++
			continue
		}
		if o.Status == domain.OrderStatusDelivered {
			err = uc.OrderUC.UpdateTracking(ctx, o.ID, row.Tracking)
		} else {
			_, err = uc.OrderUC.UpdateStatus(ctx, o.ID, domain.OrderStatusShipped, row.Tracking, true)
		}
		if err != nil {
			return res, err
		}
		res.Updated++
	}
	return res, nil
}

// matchReference busca la orden cuyo id empieza con la referencia. Una
// referencia ambigua no coincide con ninguna.
func matchReference(orders []domain.Order, ref string) *domain.Order {
	ref = strings.ToLower(ref)
	if ref == "" {
		return nil
	}
	var found *domain.Order
	for i := range orders {
		if strings.HasPrefix(orders[i].ID.String(), ref) {
			if found != nil {
				return nil
			}
			found = &orders[i]
		}
	}
	return found
}
