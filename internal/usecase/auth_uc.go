package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/growshop/internal/auth"
	"github.com/phenrril/growshop/internal/domain"
)

const minPasswordLen = 8

type RegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	FullName string `json:"full_name" validate:"required,max=140"`
	Phone    string `json:"phone" validate:"max=60"`
}

type AuthUC struct {
	Profiles domain.ProfileRepo
}

func (uc *AuthUC) Login(ctx context.Context, email, password string) (*domain.Profile, error) {
	p, err := uc.Profiles.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, auth.ErrBadCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := auth.CheckPassword(p.PasswordHash, password); err != nil {
		return nil, err
	}
	return p, nil
}

// AdminLogin exige además que el perfil tenga rol admin.
func (uc *AuthUC) AdminLogin(ctx context.Context, email, password string) (*domain.Profile, error) {
	p, err := uc.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return p, nil
}

func (uc *AuthUC) Register(ctx context.Context, in RegisterInput) (*domain.Profile, error) {
	email := normalizeEmail(in.Email)
	ve := domain.NewValidationError()
	if _, err := mail.ParseAddress(email); err != nil {
		ve.Add("email", "email inválido")
	}
	if len(in.Password) < minPasswordLen {
		ve.Add("password", fmt.Sprintf("la contraseña debe tener al menos %d caracteres", minPasswordLen))
	}
	if strings.TrimSpace(in.FullName) == "" {
		ve.Add("full_name", "el nombre es obligatorio")
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}
	if _, err := uc.Profiles.FindByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("email %s: %w", email, domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	p := &domain.Profile{
		ID:           uuid.New(),
		Email:        email,
		FullName:     strings.TrimSpace(in.FullName),
		Phone:        strings.TrimSpace(in.Phone),
		Role:         domain.RoleCustomer,
		PasswordHash: hash,
	}
	if err := uc.Profiles.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GoogleLogin carga o crea el perfil de cliente del email verificado por Google.
func (uc *AuthUC) GoogleLogin(ctx context.Context, email, name string) (*domain.Profile, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, domain.ErrUnauthorized
	}
	p, err := uc.Profiles.FindByEmail(ctx, email)
	if err == nil {
		if !p.EmailVerified || (p.FullName == "" && name != "") {
			// Un cliente registrado con este email sin verificarlo pierde la clave.
			if !p.EmailVerified && !p.IsAdmin() {
				p.PasswordHash = ""
			}
			p.EmailVerified = true
			if p.FullName == "" {
				p.FullName = name
			}
			if err := uc.Profiles.Save(ctx, p); err != nil {
				log.Warn().Err(err).Str("email", email).Msg("no se pudo actualizar el perfil de Google")
			}
		}
		return p, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	p = &domain.Profile{ID: uuid.New(), Email: email, FullName: name, Role: domain.RoleCustomer, EmailVerified: true}
	if err := uc.Profiles.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// EnsureAdmin crea o promueve el perfil administrador inicial. Una contraseña
// vacía conserva la existente.
func (uc *AuthUC) EnsureAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" {
		return nil
	}
	p, err := uc.Profiles.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		p = &domain.Profile{ID: uuid.New(), Email: email, FullName: "Administrador"}
	case err != nil:
		return err
	}
	p.Role = domain.RoleAdmin
	if password != "" {
		hash, err := auth.HashPassword(password)
		if err != nil {
			return err
		}
		p.PasswordHash = hash
	}
	return uc.Profiles.Save(ctx, p)
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
