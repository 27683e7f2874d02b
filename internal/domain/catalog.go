package domain

import (
	"time"

	"github.com/google/uuid"
)

type CatalogKind string

const (
	KindCategory CatalogKind = "category"
	KindBrand    CatalogKind = "brand"
)

func (k CatalogKind) Table() string {
	if k == KindBrand {
		return "brands"
	}
	return "categories"
}

func (k CatalogKind) Valid() bool { return k == KindCategory || k == KindBrand }

// CatalogEntry es la forma común de categorías y marcas. Se dan de baja
// marcando IsActive=false para no romper productos ya vendidos.
type CatalogEntry struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"size:140;not null" json:"name"`
	Slug        string    `gorm:"uniqueIndex;size:160" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	IsActive    bool      `gorm:"not null;index" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Category CatalogEntry

type Brand CatalogEntry
