package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/phenrril/growshop/internal/domain"
)

// CatalogRepo guarda categorías y marcas; ambas tablas comparten columnas.
type CatalogRepo struct{ db *gorm.DB }

func NewCatalogRepo(db *gorm.DB) *CatalogRepo { return &CatalogRepo{db: db} }

func (r *CatalogRepo) table(ctx context.Context, kind domain.CatalogKind) *gorm.DB {
	return r.db.WithContext(ctx).Table(kind.Table())
}

func (r *CatalogRepo) List(ctx context.Context, kind domain.CatalogKind, includeInactive bool) ([]domain.CatalogEntry, error) {
	list := []domain.CatalogEntry{}
	q := r.table(ctx, kind)
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Order("name asc").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *CatalogRepo) FindByID(ctx context.Context, kind domain.CatalogKind, id uuid.UUID) (*domain.CatalogEntry, error) {
	var e domain.CatalogEntry
	if err := r.table(ctx, kind).Where("id = ?", id).Take(&e).Error; err != nil {
		return nil, translate(err)
	}
	return &e, nil
}

func (r *CatalogRepo) Save(ctx context.Context, kind domain.CatalogKind, e *domain.CatalogEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return translate(r.table(ctx, kind).Save(e).Error)
}

func (r *CatalogRepo) BulkSetActive(ctx context.Context, kind domain.CatalogKind, ids []uuid.UUID, active bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.table(ctx, kind).Where("id IN ?", ids).Update("is_active", active)
	return res.RowsAffected, translate(res.Error)
}
