package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/growshop/internal/domain"
)

func newOrder(st domain.OrderStatus, opt domain.ShippingOption) domain.Order {
	return domain.Order{
		ID:             uuid.New(),
		Status:         st,
		CustomerName:   "Ana Pérez",
		CustomerEmail:  "ana@example.com",
		ShippingOption: opt,
		Subtotal:       20000,
		TotalAmount:    23500,
		ShippingCost:   3500,
		CreatedAt:      fixedNow.Add(-time.Hour),
		Items: []domain.OrderItem{{
			ID:              uuid.New(),
			Quantity:        2,
			UnitPrice:       10000,
			ProductSnapshot: domain.ProductSnapshot{Name: "Fertilizante"},
		}},
	}
}

func newOrderUC(repo *memOrders, mailer *fakeMailer, renderer *fakeRenderer) *OrderUC {
	vouchers := &VoucherUC{Orders: repo, Settings: &SettingsUC{Settings: &memSettings{}}, Renderer: renderer}
	return &OrderUC{Orders: repo, Mailer: mailer, Vouchers: vouchers, Strict: true, Now: nowFn}
}

func TestOrderListDefaultsToNotArchived(t *testing.T) {
	a := newOrder(domain.OrderStatusPaid, domain.ShippingStandard)
	b := newOrder(domain.OrderStatusCancelled, domain.ShippingStandard)
	b.Archived = true
	uc := newOrderUC(newMemOrders(a, b), &fakeMailer{}, &fakeRenderer{})

	list, _, err := uc.List(context.Background(), domain.OrderFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a.ID, list[0].ID)

	archived := true
	list, _, err = uc.List(context.Background(), domain.OrderFilter{Archived: &archived})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, b.ID, list[0].ID)
}

func TestOrderUpdateStatus(t *testing.T) {
	tests := []struct {
		name    string
		from    domain.OrderStatus
		to      domain.OrderStatus
		force   bool
		strict  bool
		wantErr error
	}{
		{"pendiente a pagada", domain.OrderStatusPending, domain.OrderStatusPaid, false, true, nil},
		{"pagada a enviada", domain.OrderStatusPaid, domain.OrderStatusShipped, false, true, nil},
		{"entregada es terminal", domain.OrderStatusDelivered, domain.OrderStatusShipped, false, true, domain.ErrInvalidTransition},
		{"pendiente a enviada", domain.OrderStatusPending, domain.OrderStatusShipped, false, true, domain.ErrInvalidTransition},
		{"forzado desde el panel", domain.OrderStatusDelivered, domain.OrderStatusShipped, true, true, nil},
		{"modo libre", domain.OrderStatusCancelled, domain.OrderStatusPaid, false, false, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newOrder(tt.from, domain.ShippingStandard)
			repo := newMemOrders(o)
			uc := newOrderUC(repo, &fakeMailer{}, &fakeRenderer{})
			uc.Strict = tt.strict

			got, err := uc.UpdateStatus(context.Background(), o.ID, tt.to, "", tt.force)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.from, repo.get(o.ID).Status)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, got.Status)
			assert.Equal(t, tt.to, repo.get(o.ID).Status)
		})
	}
}

func TestOrderUpdateStatusWithTracking(t *testing.T) {
	o := newOrder(domain.OrderStatusPaid, domain.ShippingStandard)
	repo := newMemOrders(o)
	uc := newOrderUC(repo, &fakeMailer{}, &fakeRenderer{})

	_, err := uc.UpdateStatus(context.Background(), o.ID, domain.OrderStatusShipped, " CHX123 ", false)
	require.NoError(t, err)
	assert.Equal(t, "CHX123", repo.get(o.ID).TrackingNumber)

	_, err = uc.UpdateStatus(context.Background(), o.ID, domain.OrderStatus("perdida"), "", true)
	assert.True(t, domain.IsValidation(err))
}

func TestOrderSendStatusEmail(t *testing.T) {
	o := newOrder(domain.OrderStatusPaid, domain.ShippingStandard)
	repo := newMemOrders(o)
	mailer := &fakeMailer{}
	renderer := &fakeRenderer{}
	uc := newOrderUC(repo, mailer, renderer)
	ctx := context.Background()

	got, err := uc.SendStatusEmail(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, domain.OrderStatusPaid, mailer.sent[0].status)
	assert.Equal(t, "%PDF-"+o.Reference(), string(mailer.sent[0].voucher))
	require.NotNil(t, got.PaidEmailSentAt)
	assert.Equal(t, fixedNow, *repo.get(o.ID).PaidEmailSentAt)

	_, err = uc.SendStatusEmail(ctx, o.ID)
	require.NoError(t, err)
	assert.Len(t, mailer.sent, 2)

	states := EmailStates(got)
	require.Len(t, states, 5)
	assert.Equal(t, domain.OrderStatusPaid, states[0].Status)
	assert.True(t, states[0].Current)
	assert.NotNil(t, states[0].SentAt)
	assert.Nil(t, states[1].SentAt)
}

func TestOrderSendStatusEmailNoAttachmentForShipped(t *testing.T) {
	o := newOrder(domain.OrderStatusShipped, domain.ShippingStandard)
	repo := newMemOrders(o)
	mailer := &fakeMailer{}
	uc := newOrderUC(repo, mailer, &fakeRenderer{})

	_, err := uc.SendStatusEmail(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Nil(t, mailer.sent[0].voucher)
	assert.NotNil(t, repo.get(o.ID).ShippedEmailSentAt)
}

func TestOrderSendStatusEmailFailures(t *testing.T) {
	pending := newOrder(domain.OrderStatusPending, domain.ShippingStandard)
	paid := newOrder(domain.OrderStatusPaid, domain.ShippingStandard)
	repo := newMemOrders(pending, paid)
	mailer := &fakeMailer{}
	uc := newOrderUC(repo, mailer, &fakeRenderer{})
	ctx := context.Background()

	_, err := uc.SendStatusEmail(ctx, pending.ID)
	assert.ErrorIs(t, err, ErrNoStatusEmail)

	mailer.err = errBackend
	_, err = uc.SendStatusEmail(ctx, paid.ID)
	assert.ErrorIs(t, err, errBackend)
	assert.Nil(t, repo.get(paid.ID).PaidEmailSentAt)
}

func TestOrderArchiveAndDelete(t *testing.T) {
	a := newOrder(domain.OrderStatusCancelled, domain.ShippingStandard)
	b := newOrder(domain.OrderStatusDelivered, domain.ShippingStandard)
	repo := newMemOrders(a, b)
	uc := newOrderUC(repo, &fakeMailer{}, &fakeRenderer{})
	ctx := context.Background()

	n, err := uc.SetArchived(ctx, []uuid.UUID{a.ID}, true)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.True(t, repo.get(a.ID).Archived)
	assert.Equal(t, domain.OrderStatusCancelled, repo.get(a.ID).Status)

	n, err = uc.Delete(ctx, []uuid.UUID{a.ID, b.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.Empty(t, repo.items)
}

func TestOrderSales(t *testing.T) {
	a := newOrder(domain.OrderStatusPaid, domain.ShippingStandard)
	b := newOrder(domain.OrderStatusDelivered, domain.ShippingStandard)
	b.TotalAmount = 10000
	b.ShippingCost = 0
	b.Items = []domain.OrderItem{{Quantity: 1, UnitPrice: 10000, ProductSnapshot: domain.ProductSnapshot{Name: "Maceta"}}}
	c := newOrder(domain.OrderStatusPending, domain.ShippingStandard)
	old := newOrder(domain.OrderStatusPaid, domain.ShippingStandard)
	old.CreatedAt = fixedNow.AddDate(0, -2, 0)
	uc := newOrderUC(newMemOrders(a, b, c, old), &fakeMailer{}, &fakeRenderer{})

	sum, err := uc.Sales(context.Background(), fixedNow.AddDate(0, 0, -7), fixedNow)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Orders)
	assert.Equal(t, 33500.0, sum.Revenue)
	assert.Equal(t, 16750.0, sum.AverageTicket)
	assert.Equal(t, 3500.0, sum.ShippingTotal)
	require.Len(t, sum.TopProducts, 2)
	assert.Equal(t, TopProduct{Name: "Fertilizante", Quantity: 2, Revenue: 20000}, sum.TopProducts[0])

	_, err = uc.Sales(context.Background(), fixedNow, fixedNow)
	assert.True(t, domain.IsValidation(err))
}
