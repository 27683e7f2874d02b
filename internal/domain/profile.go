package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

type Profile struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string    `gorm:"size:140;uniqueIndex;not null" json:"email"`
	FullName     string    `gorm:"size:140" json:"full_name"`
	Phone        string    `gorm:"size:60" json:"phone"`
	RUT          string    `gorm:"size:20" json:"rut"`
	Role         Role      `gorm:"type:varchar(20);not null;default:'customer'" json:"role"`
	PasswordHash string    `gorm:"size:100" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// EmailVerified se marca cuando un proveedor externo (Google) confirmó el email.
	EmailVerified bool `gorm:"not null;default:false" json:"email_verified"`
}

func (p *Profile) IsAdmin() bool { return p != nil && p.Role == RoleAdmin }
