package usecase

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/phenrril/growshop/internal/domain"
)

type SettingsUC struct {
	Settings domain.SettingsRepo
}

// Get devuelve la configuración del comercio o los valores por defecto si
// todavía no se guardó ninguna.
func (uc *SettingsUC) Get(ctx context.Context) (domain.Settings, error) {
	s, err := uc.Settings.Get(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.DefaultSettings(), nil
	}
	if err != nil {
		return domain.Settings{}, err
	}
	return *s, nil
}

func (uc *SettingsUC) Update(ctx context.Context, s *domain.Settings) error {
	ve := domain.NewValidationError()
	s.BusinessName = strings.TrimSpace(s.BusinessName)
	if s.BusinessName == "" {
		ve.Add("business_name", "el nombre del comercio es obligatorio")
	}
	if s.Email != "" {
		if _, err := mail.ParseAddress(s.Email); err != nil {
			ve.Add("email", "email inválido")
		}
	}
	if err := ve.OrNil(); err != nil {
		return err
	}
	s.ID = domain.SettingsRowID
	return uc.Settings.Save(ctx, s)
}
