package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/phenrril/growshop/internal/domain"
)

type CouponRepo struct{ db *gorm.DB }

func NewCouponRepo(db *gorm.DB) *CouponRepo { return &CouponRepo{db: db} }

func (r *CouponRepo) List(ctx context.Context) ([]domain.Coupon, error) {
	list := []domain.Coupon{}
	if err := r.db.WithContext(ctx).Order("created_at desc").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *CouponRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Coupon, error) {
	var c domain.Coupon
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *CouponRepo) FindByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	var c domain.Coupon
	if err := r.db.WithContext(ctx).First(&c, "code = ?", domain.NormalizeCouponCode(code)).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *CouponRepo) Save(ctx context.Context, c *domain.Coupon) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.Code = domain.NormalizeCouponCode(c.Code)
	return translate(r.db.WithContext(ctx).Save(c).Error)
}

func (r *CouponRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&domain.Coupon{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *CouponRepo) BulkSetActive(ctx context.Context, ids []uuid.UUID, active bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Model(&domain.Coupon{}).Where("id IN ?", ids).Update("is_active", active)
	return res.RowsAffected, translate(res.Error)
}

func (r *CouponRepo) BulkDelete(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&domain.Coupon{})
	return res.RowsAffected, translate(res.Error)
}
