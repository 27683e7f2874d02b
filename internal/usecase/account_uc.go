package usecase

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/phenrril/growshop/internal/domain"
)

type AccountUC struct {
	Profiles  domain.ProfileRepo
	OrderRepo domain.OrderRepo
	Vouchers  *VoucherUC
}

type ProfileUpdate struct {
	FullName string `json:"full_name" validate:"required,max=140"`
	Phone    string `json:"phone" validate:"max=60"`
	RUT      string `json:"rut" validate:"max=20"`
}

func (uc *AccountUC) Profile(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	return uc.Profiles.FindByID(ctx, id)
}

func (uc *AccountUC) UpdateProfile(ctx context.Context, id uuid.UUID, in ProfileUpdate) (*domain.Profile, error) {
	name := strings.TrimSpace(in.FullName)
	if name == "" {
		ve := domain.NewValidationError()
		ve.Add("full_name", "el nombre es obligatorio")
		return nil, ve
	}
	p, err := uc.Profiles.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p.FullName = name
	p.Phone = strings.TrimSpace(in.Phone)
	p.RUT = strings.TrimSpace(in.RUT)
	if err := uc.Profiles.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Orders lista las compras del perfil, archivadas incluidas. Las compras como
// invitado con el mismo email sólo se suman si el email está verificado.
func (uc *AccountUC) Orders(ctx context.Context, p *domain.Profile, page int) ([]domain.Order, int64, error) {
	f := domain.OrderFilter{ProfileID: &p.ID, Page: page, PageSize: defaultPageSize}
	if p.EmailVerified {
		f.Email = p.Email
	}
	return uc.OrderRepo.List(ctx, f)
}

// Order devuelve la orden sólo si pertenece al perfil; si no, responde como
// si no existiera.
func (uc *AccountUC) Order(ctx context.Context, p *domain.Profile, id uuid.UUID) (*domain.Order, error) {
	o, err := uc.OrderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !owns(p, o) {
		return nil, domain.ErrNotFound
	}
	return o, nil
}

func (uc *AccountUC) Voucher(ctx context.Context, p *domain.Profile, id uuid.UUID) ([]byte, *domain.Order, error) {
	o, err := uc.Order(ctx, p, id)
	if err != nil {
		return nil, nil, err
	}
	pdf, err := uc.Vouchers.ForOrder(ctx, o)
	return pdf, o, err
}

func owns(p *domain.Profile, o *domain.Order) bool {
	if p == nil || o == nil {
		return false
	}
	if o.ProfileID != nil && *o.ProfileID == p.ID {
		return true
	}
	return p.EmailVerified && strings.EqualFold(o.CustomerEmail, p.Email)
}
