package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ShippingZone struct {
	ID                    uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Region                string    `gorm:"size:80;index:idx_zone_region_comuna,unique" json:"region"`
	Comuna                string    `gorm:"size:80;index:idx_zone_region_comuna,unique" json:"comuna"`
	BasePrice             float64   `gorm:"type:decimal(12,2)" json:"base_price"`
	ExpressPrice          float64   `gorm:"type:decimal(12,2)" json:"express_price"`
	EstimatedDays         int       `json:"estimated_days"`
	ExpressDays           int       `json:"express_days"`
	FreeShippingThreshold float64   `gorm:"type:decimal(12,2);default:0" json:"free_shipping_threshold"`
	IsActive              bool      `gorm:"not null" json:"is_active"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

func (z *ShippingZone) Validate() error {
	ve := NewValidationError()
	if strings.TrimSpace(z.Region) == "" {
		ve.Add("region", "la región es obligatoria")
	}
	if z.BasePrice < 0 {
		ve.Add("base_price", "el precio no puede ser negativo")
	}
	if z.ExpressPrice < 0 {
		ve.Add("express_price", "el precio express no puede ser negativo")
	}
	if z.EstimatedDays < 0 || z.ExpressDays < 0 {
		ve.Add("estimated_days", "los días no pueden ser negativos")
	}
	if z.FreeShippingThreshold < 0 {
		ve.Add("free_shipping_threshold", "el umbral no puede ser negativo")
	}
	return ve.OrNil()
}

type ShippingQuote struct {
	Option        ShippingOption `json:"option"`
	Cost          float64        `json:"cost"`
	EstimatedDays int            `json:"estimated_days"`
	FreeShipping  bool           `json:"free_shipping"`
	ZoneID        *uuid.UUID     `json:"zone_id,omitempty"`
}

// Quote calcula el costo de envío de la zona; el envío gratis aplica sólo al
// servicio estándar cuando el subtotal alcanza el umbral.
func (z *ShippingZone) Quote(opt ShippingOption, subtotal decimal.Decimal) ShippingQuote {
	id := z.ID
	q := ShippingQuote{Option: opt, ZoneID: &id}
	switch opt {
	case ShippingExpress:
		q.Cost = z.ExpressPrice
		q.EstimatedDays = z.ExpressDays
	default:
		q.Cost = z.BasePrice
		q.EstimatedDays = z.EstimatedDays
		if z.FreeShippingThreshold > 0 && subtotal.GreaterThanOrEqual(Dec(z.FreeShippingThreshold)) {
			q.Cost = 0
			q.FreeShipping = true
		}
	}
	return q
}
