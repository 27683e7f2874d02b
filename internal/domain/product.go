package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Product struct {
	ID                  uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Slug                string     `gorm:"uniqueIndex;size:160" json:"slug"`
	Name                string     `gorm:"size:180;not null" json:"name"`
	Description         string     `gorm:"type:text" json:"description"`
	Price               float64    `gorm:"type:decimal(12,2);not null" json:"price"`
	SalePrice           *float64   `gorm:"type:decimal(12,2)" json:"sale_price"`
	StockQuantity       int        `gorm:"not null;default:0" json:"stock_quantity"`
	BrandID             *uuid.UUID `gorm:"type:uuid;index" json:"brand_id"`
	CategoryID          *uuid.UUID `gorm:"type:uuid;index" json:"category_id"`
	Brand               *Brand     `gorm:"foreignKey:BrandID" json:"brand,omitempty"`
	Category            *Category  `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	IsActive            bool       `gorm:"not null;index" json:"is_active"`
	ImageURL            string     `gorm:"size:255" json:"image_url"`
	GalleryImages       []string   `gorm:"type:jsonb;serializer:json" json:"gallery_images"`
	FeaturedDetailImage string     `gorm:"size:255" json:"featured_detail_image"`
	WeightKg            float64    `gorm:"type:decimal(8,3);default:0" json:"weight_kg"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// EffectivePrice es el precio de oferta si existe, si no el precio de lista.
func (p *Product) EffectivePrice() float64 {
	if p.SalePrice != nil && *p.SalePrice > 0 {
		return *p.SalePrice
	}
	return p.Price
}

// Validate aplica las reglas de formulario de un producto antes de persistirlo.
func (p *Product) Validate() error {
	ve := NewValidationError()
	if strings.TrimSpace(p.Name) == "" {
		ve.Add("name", "el nombre es obligatorio")
	}
	if p.Price <= 0 {
		ve.Add("price", "el precio debe ser mayor a 0")
	}
	if p.StockQuantity < 0 {
		ve.Add("stock_quantity", "el stock no puede ser negativo")
	}
	if p.SalePrice != nil {
		switch {
		case *p.SalePrice <= 0:
			ve.Add("sale_price", "el precio de oferta debe ser mayor a 0")
		case *p.SalePrice >= p.Price:
			ve.Add("sale_price", "el precio de oferta debe ser menor al precio")
		}
	}
	if p.WeightKg < 0 {
		ve.Add("weight_kg", "el peso no puede ser negativo")
	}
	return ve.OrNil()
}

// ProductSnapshot es la copia desnormalizada que se guarda en cada línea de orden.
type ProductSnapshot struct {
	ID        uuid.UUID `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	SalePrice *float64  `json:"sale_price,omitempty"`
	ImageURL  string    `json:"image_url,omitempty"`
	Brand     string    `json:"brand,omitempty"`
	Category  string    `json:"category,omitempty"`
	WeightKg  float64   `json:"weight_kg,omitempty"`
}

func (p *Product) Snapshot() ProductSnapshot {
	s := ProductSnapshot{
		ID:        p.ID,
		Slug:      p.Slug,
		Name:      p.Name,
		Price:     p.Price,
		SalePrice: p.SalePrice,
		ImageURL:  p.ImageURL,
		WeightKg:  p.WeightKg,
	}
	if p.Brand != nil {
		s.Brand = p.Brand.Name
	}
	if p.Category != nil {
		s.Category = p.Category.Name
	}
	return s
}

type ProductFilter struct {
	Query      string
	CategoryID *uuid.UUID
	BrandID    *uuid.UUID
	Active     *bool
	Sort       string // name, price_asc, price_desc, newest, stock
	Page       int
	PageSize   int
}
