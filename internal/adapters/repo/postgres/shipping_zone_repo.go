package postgres

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/phenrril/growshop/internal/domain"
)

type ShippingZoneRepo struct{ db *gorm.DB }

func NewShippingZoneRepo(db *gorm.DB) *ShippingZoneRepo { return &ShippingZoneRepo{db: db} }

func (r *ShippingZoneRepo) List(ctx context.Context) ([]domain.ShippingZone, error) {
	list := []domain.ShippingZone{}
	if err := r.db.WithContext(ctx).Order("region asc, comuna asc").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *ShippingZoneRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.ShippingZone, error) {
	var z domain.ShippingZone
	if err := r.db.WithContext(ctx).First(&z, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &z, nil
}

// FindByLocation busca la zona activa de la comuna; si no existe cae a la zona
// de la región completa (comuna vacía).
func (r *ShippingZoneRepo) FindByLocation(ctx context.Context, region, comuna string) (*domain.ShippingZone, error) {
	region = strings.ToLower(strings.TrimSpace(region))
	comuna = strings.ToLower(strings.TrimSpace(comuna))
	var z domain.ShippingZone
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND LOWER(region) = ? AND (LOWER(comuna) = ? OR comuna = '')", true, region, comuna).
		Order("comuna desc").
		First(&z).Error
	if err != nil {
		return nil, translate(err)
	}
	return &z, nil
}

func (r *ShippingZoneRepo) Save(ctx context.Context, z *domain.ShippingZone) error {
	if z.ID == uuid.Nil {
		z.ID = uuid.New()
	}
	return translate(r.db.WithContext(ctx).Save(z).Error)
}

func (r *ShippingZoneRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&domain.ShippingZone{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
