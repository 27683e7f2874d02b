package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/phenrril/growshop/internal/domain"
)

type OrderRepo struct{ db *gorm.DB }

func NewOrderRepo(db *gorm.DB) *OrderRepo { return &OrderRepo{db: db} }

var exportableStatuses = []domain.OrderStatus{
	domain.OrderStatusPaid, domain.OrderStatusConfirmed, domain.OrderStatusShipped, domain.OrderStatusDelivered,
}

func (r *OrderRepo) Create(ctx context.Context, o *domain.Order, couponID *uuid.UUID) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	for i := range o.Items {
		if o.Items[i].ID == uuid.Nil {
			o.Items[i].ID = uuid.New()
		}
		o.Items[i].OrderID = o.ID
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(o).Error; err != nil {
			return translate(err)
		}
		if couponID == nil {
			return nil
		}
		res := tx.Model(&domain.Coupon{}).
			Where("id = ? AND is_active = ? AND (max_uses = 0 OR uses_count < max_uses)", *couponID, true).
			UpdateColumn("uses_count", gorm.Expr("uses_count + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: sin usos disponibles", domain.ErrCouponInvalid)
		}
		return nil
	})
}

func (r *OrderRepo) Save(ctx context.Context, o *domain.Order) error {
	return translate(r.db.WithContext(ctx).Omit("Items").Save(o).Error)
}

func (r *OrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	var o domain.Order
	if err := r.db.WithContext(ctx).Preload("Items").First(&o, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (r *OrderRepo) List(ctx context.Context, f domain.OrderFilter) ([]domain.Order, int64, error) {
	list := []domain.Order{}
	q := r.db.WithContext(ctx).Model(&domain.Order{})
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.Archived != nil {
		q = q.Where("archived = ?", *f.Archived)
	}
	email := strings.ToLower(strings.TrimSpace(f.Email))
	switch {
	case f.ProfileID != nil && email != "":
		q = q.Where("(profile_id = ? OR LOWER(customer_email) = ?)", *f.ProfileID, email)
	case f.ProfileID != nil:
		q = q.Where("profile_id = ?", *f.ProfileID)
	case email != "":
		q = q.Where("LOWER(customer_email) = ?", email)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}
	if query := strings.ToLower(strings.TrimSpace(f.Query)); query != "" {
		like := "%" + query + "%"
		q = q.Where("LOWER(customer_name) LIKE ? OR LOWER(customer_email) LIKE ? OR CAST(id AS TEXT) LIKE ?", like, like, query+"%")
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset, limit := pageBounds(f.Page, f.PageSize)
	if err := q.Order("created_at desc").Offset(offset).Limit(limit).Preload("Items").Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *OrderRepo) ListForExport(ctx context.Context) ([]domain.Order, error) {
	list := []domain.Order{}
	err := r.db.WithContext(ctx).
		Where("status IN ? AND shipping_option <> ? AND archived = ?", exportableStatuses, domain.ShippingPickup, false).
		Order("created_at asc").
		Preload("Items").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *OrderRepo) ListForTracking(ctx context.Context) ([]domain.Order, error) {
	list := []domain.Order{}
	err := r.db.WithContext(ctx).
		Where("status <> ? AND shipping_option <> ? AND archived = ?", domain.OrderStatusCancelled, domain.ShippingPickup, false).
		Order("created_at asc").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *OrderRepo) ListInRange(ctx context.Context, from, to time.Time) ([]domain.Order, error) {
	list := []domain.Order{}
	err := r.db.WithContext(ctx).
		Where("created_at >= ? AND created_at < ?", from, to).
		Order("created_at asc").
		Preload("Items").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *OrderRepo) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&domain.Order{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *OrderRepo) SetArchived(ctx context.Context, ids []uuid.UUID, archived bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Model(&domain.Order{}).Where("id IN ?", ids).Update("archived", archived)
	return res.RowsAffected, translate(res.Error)
}

func (r *OrderRepo) Delete(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id IN ?", ids).Delete(&domain.OrderItem{}).Error; err != nil {
			return err
		}
		res := tx.Where("id IN ?", ids).Delete(&domain.Order{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, translate(err)
	}
	return deleted, nil
}
