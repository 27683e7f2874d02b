package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/phenrril/growshop/internal/domain"
)

type ProfileRepo struct{ db *gorm.DB }

func NewProfileRepo(db *gorm.DB) *ProfileRepo { return &ProfileRepo{db: db} }

func (r *ProfileRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	var p domain.Profile
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *ProfileRepo) FindByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	var p domain.Profile
	e := strings.ToLower(strings.TrimSpace(email))
	if e == "" {
		return nil, errors.New("email vacío")
	}
	if err := r.db.WithContext(ctx).First(&p, "LOWER(email) = ?", e).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *ProfileRepo) Save(ctx context.Context, p *domain.Profile) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	if p.Role == "" {
		p.Role = domain.RoleCustomer
	}
	return translate(r.db.WithContext(ctx).Save(p).Error)
}
