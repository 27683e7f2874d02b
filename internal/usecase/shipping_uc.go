package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/phenrril/growshop/internal/domain"
)

var ErrNoCoverage = errors.New("no hay despacho a esa comuna")

type ShippingUC struct {
	Zones domain.ShippingZoneRepo
}

func (uc *ShippingUC) List(ctx context.Context) ([]domain.ShippingZone, error) {
	return uc.Zones.List(ctx)
}

func (uc *ShippingUC) Create(ctx context.Context, z *domain.ShippingZone) error {
	normalizeZone(z)
	if err := z.Validate(); err != nil {
		return err
	}
	if z.ID == uuid.Nil {
		z.ID = uuid.New()
	}
	return uc.Zones.Save(ctx, z)
}

func (uc *ShippingUC) Update(ctx context.Context, z *domain.ShippingZone) error {
	normalizeZone(z)
	if err := z.Validate(); err != nil {
		return err
	}
	cur, err := uc.Zones.FindByID(ctx, z.ID)
	if err != nil {
		return err
	}
	z.CreatedAt = cur.CreatedAt
	return uc.Zones.Save(ctx, z)
}

func (uc *ShippingUC) Delete(ctx context.Context, id uuid.UUID) error {
	return uc.Zones.Delete(ctx, id)
}

// Quote cotiza el despacho. El retiro en tienda siempre cuesta 0.
func (uc *ShippingUC) Quote(ctx context.Context, region, comuna string, opt domain.ShippingOption, subtotal float64) (*domain.ShippingQuote, error) {
	if !opt.Valid() {
		ve := domain.NewValidationError()
		ve.Add("shipping_option", "opción de envío inválida")
		return nil, ve
	}
	if opt == domain.ShippingPickup {
		return &domain.ShippingQuote{Option: opt}, nil
	}
	if strings.TrimSpace(region) == "" {
		ve := domain.NewValidationError()
		ve.Add("region", "la región es obligatoria")
		return nil, ve
	}
	z, err := uc.Zones.FindByLocation(ctx, region, comuna)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%s, %s: %w", comuna, region, ErrNoCoverage)
	}
	if err != nil {
		return nil, err
	}
	q := z.Quote(opt, domain.Dec(subtotal))
	return &q, nil
}

func normalizeZone(z *domain.ShippingZone) {
	z.Region = strings.TrimSpace(z.Region)
	z.Comuna = strings.TrimSpace(z.Comuna)
}
