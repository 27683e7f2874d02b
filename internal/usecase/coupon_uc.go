package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/phenrril/growshop/internal/domain"
)

type CouponUC struct {
	Coupons domain.CouponRepo
	Now     func() time.Time
}

// CouponQuote es el resultado de aplicar un cupón a un subtotal.
type CouponQuote struct {
	CouponID uuid.UUID `json:"coupon_id"`
	Code     string    `json:"code"`
	Discount float64   `json:"discount"`
}

func (uc *CouponUC) List(ctx context.Context) ([]domain.Coupon, error) {
	return uc.Coupons.List(ctx)
}

func (uc *CouponUC) Get(ctx context.Context, id uuid.UUID) (*domain.Coupon, error) {
	return uc.Coupons.FindByID(ctx, id)
}

func (uc *CouponUC) Create(ctx context.Context, c *domain.Coupon) error {
	c.Code = domain.NormalizeCouponCode(c.Code)
	if err := c.Validate(); err != nil {
		return err
	}
	if err := uc.ensureCodeFree(ctx, c.Code, uuid.Nil); err != nil {
		return err
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.UsesCount = 0
	return uc.Coupons.Save(ctx, c)
}

// Update conserva el contador de usos; sólo se modifica al cerrar una compra.
func (uc *CouponUC) Update(ctx context.Context, c *domain.Coupon) error {
	c.Code = domain.NormalizeCouponCode(c.Code)
	if err := c.Validate(); err != nil {
		return err
	}
	cur, err := uc.Coupons.FindByID(ctx, c.ID)
	if err != nil {
		return err
	}
	if err := uc.ensureCodeFree(ctx, c.Code, c.ID); err != nil {
		return err
	}
	c.UsesCount = cur.UsesCount
	c.CreatedAt = cur.CreatedAt
	return uc.Coupons.Save(ctx, c)
}

func (uc *CouponUC) Delete(ctx context.Context, id uuid.UUID) error {
	return uc.Coupons.Delete(ctx, id)
}

func (uc *CouponUC) BulkSetActive(ctx context.Context, ids []uuid.UUID, active bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return uc.Coupons.BulkSetActive(ctx, ids, active)
}

func (uc *CouponUC) BulkDelete(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return uc.Coupons.BulkDelete(ctx, ids)
}

// Resolve busca el cupón por código y verifica que aplique al subtotal.
func (uc *CouponUC) Resolve(ctx context.Context, code string, subtotal float64) (*domain.Coupon, *CouponQuote, error) {
	code = domain.NormalizeCouponCode(code)
	if code == "" {
		return nil, nil, fmt.Errorf("%w: código vacío", domain.ErrCouponInvalid)
	}
	c, err := uc.Coupons.FindByCode(ctx, code)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil, fmt.Errorf("%w: no existe", domain.ErrCouponInvalid)
	}
	if err != nil {
		return nil, nil, err
	}
	sub := domain.Dec(subtotal)
	if err := c.Applicable(clock(uc.Now), sub); err != nil {
		return nil, nil, err
	}
	return c, &CouponQuote{CouponID: c.ID, Code: c.Code, Discount: domain.Money(c.Discount(sub))}, nil
}

func (uc *CouponUC) Validate(ctx context.Context, code string, subtotal float64) (*CouponQuote, error) {
	_, q, err := uc.Resolve(ctx, code, subtotal)
	return q, err
}

func (uc *CouponUC) ensureCodeFree(ctx context.Context, code string, self uuid.UUID) error {
	other, err := uc.Coupons.FindByCode(ctx, code)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil
	case err != nil:
		return err
	case other.ID != self:
		return fmt.Errorf("cupón %s: %w", code, domain.ErrConflict)
	}
	return nil
}
