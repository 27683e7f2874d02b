package domain

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

type ProductRepo interface {
	Save(ctx context.Context, p *Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindBySlug(ctx context.Context, slug string) (*Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)
	List(ctx context.Context, f ProductFilter) ([]Product, int64, error)
	SlugExists(ctx context.Context, slug string, except uuid.UUID) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
	BulkSetActive(ctx context.Context, ids []uuid.UUID, active bool) (int64, error)
	BulkDelete(ctx context.Context, ids []uuid.UUID) (int64, error)
}

type CatalogRepo interface {
	List(ctx context.Context, kind CatalogKind, includeInactive bool) ([]CatalogEntry, error)
	FindByID(ctx context.Context, kind CatalogKind, id uuid.UUID) (*CatalogEntry, error)
	Save(ctx context.Context, kind CatalogKind, e *CatalogEntry) error
	BulkSetActive(ctx context.Context, kind CatalogKind, ids []uuid.UUID, active bool) (int64, error)
}

type CouponRepo interface {
	List(ctx context.Context) ([]Coupon, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Coupon, error)
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	Save(ctx context.Context, c *Coupon) error
	Delete(ctx context.Context, id uuid.UUID) error
	BulkSetActive(ctx context.Context, ids []uuid.UUID, active bool) (int64, error)
	BulkDelete(ctx context.Context, ids []uuid.UUID) (int64, error)
}

type ShippingZoneRepo interface {
	List(ctx context.Context) ([]ShippingZone, error)
	FindByID(ctx context.Context, id uuid.UUID) (*ShippingZone, error)
	FindByLocation(ctx context.Context, region, comuna string) (*ShippingZone, error)
	Save(ctx context.Context, z *ShippingZone) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type OrderRepo interface {
	// Create persiste la orden con sus líneas e incrementa los usos del cupón
	// (si hay) en una sola transacción.
	Create(ctx context.Context, o *Order, couponID *uuid.UUID) error
	Save(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	List(ctx context.Context, f OrderFilter) ([]Order, int64, error)
	ListForExport(ctx context.Context) ([]Order, error)
	// ListForTracking devuelve las órdenes que pueden recibir tracking del courier.
	ListForTracking(ctx context.Context) ([]Order, error)
	ListInRange(ctx context.Context, from, to time.Time) ([]Order, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error
	SetArchived(ctx context.Context, ids []uuid.UUID, archived bool) (int64, error)
	// Delete borra líneas y órdenes dentro de una transacción.
	Delete(ctx context.Context, ids []uuid.UUID) (int64, error)
}

type ProfileRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Profile, error)
	FindByEmail(ctx context.Context, email string) (*Profile, error)
	Save(ctx context.Context, p *Profile) error
}

type SettingsRepo interface {
	Get(ctx context.Context) (*Settings, error)
	Save(ctx context.Context, s *Settings) error
}

// FileStorage guarda archivos subidos y devuelve la URL pública relativa.
type FileStorage interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
	Delete(ctx context.Context, url string) error
}
