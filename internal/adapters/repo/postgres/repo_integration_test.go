//go:build integration

package postgres

import (
	"context"
	"log"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"github.com/phenrril/growshop/internal/domain"
)

var testDB *gorm.DB

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:15",
		tcpostgres.WithDatabase("growshop"),
		tcpostgres.WithUsername("user"),
		tcpostgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		log.Fatalf("no se pudo iniciar postgres: %v", err)
	}
	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Fatalf("connection string: %v", err)
	}
	testDB, err = Open(dsn)
	if err != nil {
		log.Fatalf("open: %v", err)
	}
	if err := Migrate(testDB); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func newOrder(status domain.OrderStatus, opt domain.ShippingOption) *domain.Order {
	pid := uuid.New()
	return &domain.Order{
		Status:         status,
		CustomerName:   "Ana Pérez",
		CustomerEmail:  "ana@example.com",
		ShippingOption: opt,
		ShippingAddress: domain.ShippingAddress{
			Street: "Av. Siempre Viva", Number: "742", Comuna: "Providencia", Region: "Metropolitana",
		},
		Subtotal:    10000,
		TotalAmount: 13000,
		Items: []domain.OrderItem{{
			ProductID: &pid, Quantity: 2, UnitPrice: 5000,
			ProductSnapshot: domain.ProductSnapshot{ID: pid, Name: "Maceta", Price: 5000},
		}},
	}
}

func TestCouponRepoUniqueCode(t *testing.T) {
	ctx := context.Background()
	repo := NewCouponRepo(testDB)

	c := &domain.Coupon{Code: "verano10", DiscountType: domain.DiscountPercentage, DiscountValue: 10, IsActive: true}
	require.NoError(t, repo.Save(ctx, c))

	got, err := repo.FindByCode(ctx, " Verano10 ")
	require.NoError(t, err)
	assert.Equal(t, "VERANO10", got.Code)

	dup := &domain.Coupon{Code: "VERANO10", DiscountType: domain.DiscountFixed, DiscountValue: 1000, IsActive: true}
	assert.ErrorIs(t, repo.Save(ctx, dup), domain.ErrConflict)
}

func TestOrderRepoCreateIncrementsCoupon(t *testing.T) {
	ctx := context.Background()
	coupons := NewCouponRepo(testDB)
	orders := NewOrderRepo(testDB)

	c := &domain.Coupon{Code: "UNICO", DiscountType: domain.DiscountFixed, DiscountValue: 500, MaxUses: 1, IsActive: true}
	require.NoError(t, coupons.Save(ctx, c))

	o := newOrder(domain.OrderStatusPending, domain.ShippingStandard)
	require.NoError(t, orders.Create(ctx, o, &c.ID))

	got, err := coupons.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.UsesCount)

	// el segundo uso excede el máximo y revierte la orden
	o2 := newOrder(domain.OrderStatusPending, domain.ShippingStandard)
	assert.ErrorIs(t, orders.Create(ctx, o2, &c.ID), domain.ErrCouponInvalid)
	_, err = orders.FindByID(ctx, o2.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOrderRepoExportAndDelete(t *testing.T) {
	ctx := context.Background()
	orders := NewOrderRepo(testDB)

	paid := newOrder(domain.OrderStatusPaid, domain.ShippingStandard)
	pickup := newOrder(domain.OrderStatusPaid, domain.ShippingPickup)
	pending := newOrder(domain.OrderStatusPending, domain.ShippingExpress)
	for _, o := range []*domain.Order{paid, pickup, pending} {
		require.NoError(t, orders.Create(ctx, o, nil))
	}

	list, err := orders.ListForExport(ctx)
	require.NoError(t, err)
	ids := map[uuid.UUID]bool{}
	for _, o := range list {
		ids[o.ID] = true
	}
	assert.True(t, ids[paid.ID])
	assert.False(t, ids[pickup.ID])
	assert.False(t, ids[pending.ID])

	got, err := orders.FindByID(ctx, paid.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Maceta", got.Items[0].ProductSnapshot.Name)
	assert.Equal(t, "Providencia", got.ShippingAddress.Comuna)

	n, err := orders.Delete(ctx, []uuid.UUID{paid.ID, pickup.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	var items int64
	require.NoError(t, testDB.Model(&domain.OrderItem{}).Where("order_id IN ?", []uuid.UUID{paid.ID, pickup.ID}).Count(&items).Error)
	assert.Zero(t, items)
}

func TestCatalogRepoSoftDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewCatalogRepo(testDB)

	e := &domain.CatalogEntry{Name: "Sustratos", Slug: "sustratos", IsActive: true}
	require.NoError(t, repo.Save(ctx, domain.KindCategory, e))
	n, err := repo.BulkSetActive(ctx, domain.KindCategory, []uuid.UUID{e.ID}, false)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	active, err := repo.List(ctx, domain.KindCategory, false)
	require.NoError(t, err)
	for _, c := range active {
		assert.NotEqual(t, e.ID, c.ID)
	}
	all, err := repo.List(ctx, domain.KindCategory, true)
	require.NoError(t, err)
	found := false
	for _, c := range all {
		found = found || c.ID == e.ID
	}
	assert.True(t, found)
}

func TestProductRepoSlugAndList(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepo(testDB)

	p := &domain.Product{Name: "Indoor LED 600W", Slug: "indoor-led-600w", Price: 150000, StockQuantity: 3, IsActive: true}
	require.NoError(t, repo.Save(ctx, p))

	exists, err := repo.SlugExists(ctx, "indoor-led-600w", uuid.Nil)
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = repo.SlugExists(ctx, "indoor-led-600w", p.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	active := true
	list, total, err := repo.List(ctx, domain.ProductFilter{Query: "led", Active: &active})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, total, int64(1))
	assert.NotEmpty(t, list)
}

func TestOrderRepoTrackingAndOwnerFilters(t *testing.T) {
	ctx := context.Background()
	orders := NewOrderRepo(testDB)
	email := uuid.NewString()[:8] + "@example.com"
	profileID := uuid.New()

	preparing := newOrder(domain.OrderStatusPreparing, domain.ShippingStandard)
	preparing.CustomerEmail = email
	cancelled := newOrder(domain.OrderStatusCancelled, domain.ShippingStandard)
	cancelled.CustomerEmail = email
	archived := newOrder(domain.OrderStatusPaid, domain.ShippingStandard)
	archived.Archived = true
	archived.CustomerEmail = email
	linked := newOrder(domain.OrderStatusPaid, domain.ShippingStandard)
	linked.CustomerEmail = "contacto-" + email
	linked.ProfileID = &profileID
	for _, o := range []*domain.Order{preparing, cancelled, archived, linked} {
		require.NoError(t, orders.Create(ctx, o, nil))
	}

	tracking, err := orders.ListForTracking(ctx)
	require.NoError(t, err)
	ids := map[uuid.UUID]bool{}
	for _, o := range tracking {
		ids[o.ID] = true
	}
	assert.True(t, ids[preparing.ID])
	assert.True(t, ids[linked.ID])
	assert.False(t, ids[cancelled.ID])
	assert.False(t, ids[archived.ID])

	export, err := orders.ListForExport(ctx)
	require.NoError(t, err)
	for _, o := range export {
		assert.NotEqual(t, archived.ID, o.ID)
	}

	_, total, err := orders.List(ctx, domain.OrderFilter{ProfileID: &profileID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	_, total, err = orders.List(ctx, domain.OrderFilter{ProfileID: &profileID, Email: strings.ToUpper(email)})
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
}
