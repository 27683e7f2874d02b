package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/phenrril/growshop/internal/domain"
)

var ErrNoStatusEmail = errors.New("el estado actual no tiene correo asociado")

type OrderUC struct {
	Orders   domain.OrderRepo
	Mailer   StatusMailer
	Vouchers *VoucherUC
	// Strict aplica la tabla de transiciones; en false cualquier cambio se fuerza.
	Strict bool
	Now    func() time.Time
}

// List muestra por defecto sólo órdenes no archivadas.
func (uc *OrderUC) List(ctx context.Context, f domain.OrderFilter) ([]domain.Order, int64, error) {
	if f.Archived == nil {
		archived := false
		f.Archived = &archived
	}
	if f.PageSize == 0 {
		f.PageSize = defaultPageSize
	}
	return uc.Orders.List(ctx, f)
}

func (uc *OrderUC) Get(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return uc.Orders.FindByID(ctx, id)
}

// UpdateStatus cambia el estado de la orden. Sin force el cambio debe estar en la
// tabla de transiciones; force es la anulación manual del panel.
func (uc *OrderUC) UpdateStatus(ctx context.Context, id uuid.UUID, st domain.OrderStatus, tracking string, force bool) (*domain.Order, error) {
	if _, ok := domain.ParseOrderStatus(string(st)); !ok {
		ve := domain.NewValidationError()
		ve.Add("status", "estado inválido")
		return nil, ve
	}
	o, err := uc.Orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	tracking = strings.TrimSpace(tracking)
	if o.Status == st && (tracking == "" || tracking == o.TrackingNumber) {
		return o, nil
	}
	if !force && uc.Strict && !domain.CanTransition(o.Status, st) {
		return nil, fmt.Errorf("%s -> %s: %w", o.Status, st, domain.ErrInvalidTransition)
	}
	fields := map[string]any{"status": st}
	if tracking != "" {
		fields["tracking_number"] = tracking
	}
	if err := uc.Orders.UpdateFields(ctx, id, fields); err != nil {
		return nil, err
	}
	o.Status = st
	if tracking != "" {
		o.TrackingNumber = tracking
	}
	return o, nil
}

func (uc *OrderUC) UpdateTracking(ctx context.Context, id uuid.UUID, number string) error {
	return uc.Orders.UpdateFields(ctx, id, map[string]any{"tracking_number": strings.TrimSpace(number)})
}

// SendStatusEmail envía el correo del estado actual y marca la fecha de envío.
// Llamarlo de nuevo reenvía el correo.
func (uc *OrderUC) SendStatusEmail(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	o, err := uc.Orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := uc.sendStatusEmail(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (uc *OrderUC) sendStatusEmail(ctx context.Context, o *domain.Order) error {
	col := domain.EmailSentColumn(o.Status)
	if col == "" {
		return fmt.Errorf("estado %s: %w", o.Status, ErrNoStatusEmail)
	}
	if uc.Mailer == nil {
		return errors.New("mailer no configurado")
	}
	var attachment []byte
	if (o.Status == domain.OrderStatusPaid || o.Status == domain.OrderStatusConfirmed) && uc.Vouchers != nil {
		pdf, err := uc.Vouchers.ForOrder(ctx, o)
		if err != nil {
			log.Warn().Err(err).Str("order_id", o.ID.String()).Msg("no se pudo generar voucher, se envía sin adjunto")
		} else {
			attachment = pdf
		}
	}
	if err := uc.Mailer.SendStatusEmail(ctx, o, o.Status, attachment); err != nil {
		return err
	}
	at := clock(uc.Now)
	if err := uc.Orders.UpdateFields(ctx, o.ID, map[string]any{col: at}); err != nil {
		return err
	}
	o.MarkEmailSent(o.Status, at)
	return nil
}

type EmailState struct {
	Status  domain.OrderStatus `json:"status"`
	SentAt  *time.Time         `json:"sent_at"`
	Current bool               `json:"current"`
}

// EmailStates informa, por cada estado con correo, si ya se envió.
func EmailStates(o *domain.Order) []EmailState {
	out := []EmailState{}
	for _, st := range domain.OrderStatuses {
		if domain.EmailSentColumn(st) == "" {
			continue
		}
		out = append(out, EmailState{
			Status:  st,
			SentAt:  o.EmailSentAt(st),
			Current: o.Status == st || (st == domain.OrderStatusPaid && o.Status == domain.OrderStatusConfirmed),
		})
	}
	return out
}

func (uc *OrderUC) SetArchived(ctx context.Context, ids []uuid.UUID, archived bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return uc.Orders.SetArchived(ctx, ids, archived)
}

func (uc *OrderUC) Delete(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return uc.Orders.Delete(ctx, ids)
}

type TopProduct struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Revenue  float64 `json:"revenue"`
}

type SalesSummary struct {
	From          time.Time    `json:"from"`
	To            time.Time    `json:"to"`
	Orders        int          `json:"orders"`
	Revenue       float64      `json:"revenue"`
	AverageTicket float64      `json:"average_ticket"`
	ShippingTotal float64      `json:"shipping_total"`
	DiscountTotal float64      `json:"discount_total"`
	TopProducts   []TopProduct `json:"top_products"`
}

const topProductsLimit = 5

func countsAsSale(st domain.OrderStatus) bool {
	return st == domain.OrderStatusPreparing || st.Exportable()
}

// Sales resume las ventas pagadas (o posteriores) del rango [from, to).
func (uc *OrderUC) Sales(ctx context.Context, from, to time.Time) (*SalesSummary, error) {
	if !to.After(from) {
		ve := domain.NewValidationError()
		ve.Add("to", "el rango de fechas es inválido")
		return nil, ve
	}
	orders, err := uc.Orders.ListInRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	sum := &SalesSummary{From: from, To: to, TopProducts: []TopProduct{}}
	revenue, shipping, discount := decimal.Zero, decimal.Zero, decimal.Zero
	type agg struct {
		qty int
		rev decimal.Decimal
	}
	byProduct := map[string]*agg{}
	for _, o := range orders {
		if !countsAsSale(o.Status) {
			continue
		}
		sum.Orders++
		revenue = revenue.Add(domain.Dec(o.TotalAmount))
		shipping = shipping.Add(domain.Dec(o.ShippingCost))
		discount = discount.Add(domain.Dec(o.DiscountAmount))
		for _, it := range o.Items {
			a := byProduct[it.ProductSnapshot.Name]
			if a == nil {
				a = &agg{}
				byProduct[it.ProductSnapshot.Name] = a
			}
			a.qty += it.Quantity
			a.rev = a.rev.Add(domain.LineTotal(it.UnitPrice, it.Quantity))
		}
	}
	sum.Revenue = domain.Money(revenue)
	sum.ShippingTotal = domain.Money(shipping)
	sum.DiscountTotal = domain.Money(discount)
	if sum.Orders > 0 {
		sum.AverageTicket = domain.Money(revenue.Div(decimal.NewFromInt(int64(sum.Orders))).Round(0))
	}
	for name, a := range byProduct {
		sum.TopProducts = append(sum.TopProducts, TopProduct{Name: name, Quantity: a.qty, Revenue: domain.Money(a.rev)})
	}
	sort.Slice(sum.TopProducts, func(i, j int) bool {
		if sum.TopProducts[i].Quantity != sum.TopProducts[j].Quantity {
			return sum.TopProducts[i].Quantity > sum.TopProducts[j].Quantity
		}
		return sum.TopProducts[i].Name < sum.TopProducts[j].Name
	})
	if len(sum.TopProducts) > topProductsLimit {
		sum.TopProducts = sum.TopProducts[:topProductsLimit]
	}
	return sum, nil
}
