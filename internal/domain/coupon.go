package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

type Coupon struct {
	ID                uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Code              string       `gorm:"uniqueIndex;size:40;not null" json:"code"`
	DiscountType      DiscountType `gorm:"type:varchar(12);not null" json:"discount_type"`
	DiscountValue     float64      `gorm:"type:decimal(12,2)" json:"discount_value"`
	MinPurchaseAmount float64      `gorm:"type:decimal(12,2);default:0" json:"min_purchase_amount"`
	MaxUses           int          `gorm:"default:0" json:"max_uses"`
	UsesCount         int          `gorm:"default:0" json:"uses_count"`
	ValidUntil        *time.Time   `json:"valid_until"`
	IsActive          bool         `gorm:"not null;index" json:"is_active"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

func (c *Coupon) Validate() error {
	ve := NewValidationError()
	if c.Code == "" {
		ve.Add("code", "el código es obligatorio")
	}
	switch c.DiscountType {
	case DiscountPercentage:
		if c.DiscountValue <= 0 || c.DiscountValue > 100 {
			ve.Add("discount_value", "el porcentaje debe estar entre 0 y 100")
		}
	case DiscountFixed:
		if c.DiscountValue <= 0 {
			ve.Add("discount_value", "el descuento debe ser mayor a 0")
		}
	default:
		ve.Add("discount_type", "tipo de descuento inválido")
	}
	if c.MinPurchaseAmount < 0 {
		ve.Add("min_purchase_amount", "el mínimo no puede ser negativo")
	}
	if c.MaxUses < 0 {
		ve.Add("max_uses", "el máximo de usos no puede ser negativo")
	}
	return ve.OrNil()
}

// Applicable verifica vigencia, usos y monto mínimo para un subtotal dado.
func (c *Coupon) Applicable(now time.Time, subtotal decimal.Decimal) error {
	if !c.IsActive {
		return fmt.Errorf("%w: inactivo", ErrCouponInvalid)
	}
	if c.ValidUntil != nil && now.After(*c.ValidUntil) {
		return fmt.Errorf("%w: vencido", ErrCouponInvalid)
	}
	if c.MaxUses > 0 && c.UsesCount >= c.MaxUses {
		return fmt.Errorf("%w: sin usos disponibles", ErrCouponInvalid)
	}
	if subtotal.LessThan(Dec(c.MinPurchaseAmount)) {
		return fmt.Errorf("%w: compra mínima %.0f", ErrCouponInvalid, c.MinPurchaseAmount)
	}
	return nil
}

// Discount calcula el descuento sobre el subtotal; nunca supera el subtotal.
func (c *Coupon) Discount(subtotal decimal.Decimal) decimal.Decimal {
	var d decimal.Decimal
	switch c.DiscountType {
	case DiscountPercentage:
		d = subtotal.Mul(Dec(c.DiscountValue)).Div(decimal.NewFromInt(100)).Round(0)
	case DiscountFixed:
		d = Dec(c.DiscountValue)
	}
	if d.GreaterThan(subtotal) {
		d = subtotal
	}
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
