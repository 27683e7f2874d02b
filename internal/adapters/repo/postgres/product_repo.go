package postgres

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/phenrril/growshop/internal/domain"
)

type ProductRepo struct{ db *gorm.DB }

func NewProductRepo(db *gorm.DB) *ProductRepo { return &ProductRepo{db: db} }

func (r *ProductRepo) Save(ctx context.Context, p *domain.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.GalleryImages == nil {
		p.GalleryImages = []string{}
	}
	return translate(r.db.WithContext(ctx).Omit("Brand", "Category").Save(p).Error)
}

func (r *ProductRepo) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Brand").Preload("Category")
}

func (r *ProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	var p domain.Product
	if err := r.preloaded(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *ProductRepo) FindBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	var p domain.Product
	if err := r.preloaded(ctx).First(&p, "slug = ?", slug).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *ProductRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Product, error) {
	list := []domain.Product{}
	if len(ids) == 0 {
		return list, nil
	}
	if err := r.preloaded(ctx).Where("id IN ?", ids).Find(&list).Error; err != nil {
		return nil, translate(err)
	}
	return list, nil
}

func (r *ProductRepo) List(ctx context.Context, f domain.ProductFilter) ([]domain.Product, int64, error) {
	list := []domain.Product{}
	q := r.db.WithContext(ctx).Model(&domain.Product{})
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.BrandID != nil {
		q = q.Where("brand_id = ?", *f.BrandID)
	}
	if f.Active != nil {
		q = q.Where("is_active = ?", *f.Active)
	}
	if query := strings.TrimSpace(f.Query); query != "" {
		like := "%" + strings.ToLower(query) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(slug) LIKE ? OR LOWER(description) LIKE ?", like, like, like)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	switch f.Sort {
	case "price_desc":
		q = q.Order("COALESCE(sale_price, price) desc")
	case "price_asc":
		q = q.Order("COALESCE(sale_price, price) asc")
	case "newest":
		q = q.Order("created_at desc")
	case "stock":
		q = q.Order("stock_quantity asc")
	default:
		q = q.Order("name asc")
	}
	offset, limit := pageBounds(f.Page, f.PageSize)
	if err := q.Offset(offset).Limit(limit).Preload("Brand").Preload("Category").Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *ProductRepo) SlugExists(ctx context.Context, slug string, except uuid.UUID) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&domain.Product{}).Where("slug = ?", slug)
	if except != uuid.Nil {
		q = q.Where("id <> ?", except)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *ProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&domain.Product{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ProductRepo) BulkSetActive(ctx context.Context, ids []uuid.UUID, active bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Model(&domain.Product{}).Where("id IN ?", ids).Update("is_active", active)
	return res.RowsAffected, translate(res.Error)
}

func (r *ProductRepo) BulkDelete(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&domain.Product{})
	return res.RowsAffected, translate(res.Error)
}
