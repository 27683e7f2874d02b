package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/phenrril/growshop/internal/domain"
)

type SettingsRepo struct{ db *gorm.DB }

func NewSettingsRepo(db *gorm.DB) *SettingsRepo { return &SettingsRepo{db: db} }

func (r *SettingsRepo) Get(ctx context.Context) (*domain.Settings, error) {
	var s domain.Settings
	err := r.db.WithContext(ctx).First(&s, "id = ?", domain.SettingsRowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SettingsRepo) Save(ctx context.Context, s *domain.Settings) error {
	s.ID = domain.SettingsRowID
	return translate(r.db.WithContext(ctx).Save(s).Error)
}
