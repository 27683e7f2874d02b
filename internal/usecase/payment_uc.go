package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/growshop/internal/domain"
)

type CardPaymentRequest struct {
	OrderID         uuid.UUID `json:"order_id" validate:"required"`
	Token           string    `json:"token" validate:"required"`
	PaymentMethodID string    `json:"payment_method_id" validate:"required"`
	IssuerID        string    `json:"issuer_id"`
	Installments    int       `json:"installments" validate:"gte=0,lte=48"`
	PayerEmail      string    `json:"payer_email" validate:"omitempty,email"`
}

type CardPaymentResponse struct {
	Status       domain.PaymentStatus `json:"status"`
	StatusDetail string               `json:"status_detail"`
	PaymentID    string               `json:"payment_id"`
	OrderID      uuid.UUID            `json:"order_id"`
}

var ErrAlreadyPaid = errors.New("la orden ya está pagada")

type PaymentUC struct {
	Orders   domain.OrderRepo
	Gateway  domain.PaymentGateway
	OrderUC  *OrderUC
	Notifier PaidNotifier
}

// CreatePreference arma la preferencia de Checkout Pro y devuelve el init point.
func (uc *PaymentUC) CreatePreference(ctx context.Context, orderID uuid.UUID) (string, error) {
	o, err := uc.Orders.FindByID(ctx, orderID)
	if err != nil {
		return "", err
	}
	if o.Status != domain.OrderStatusPending {
		return "", fmt.Errorf("orden %s: %w", o.Reference(), ErrAlreadyPaid)
	}
	initPoint, err := uc.Gateway.CreatePreference(ctx, o)
	if err != nil {
		return "", err
	}
	if o.MPPreferenceID != "" {
		if err := uc.Orders.UpdateFields(ctx, o.ID, map[string]any{"mp_preference_id": o.MPPreferenceID}); err != nil {
			log.Warn().Err(err).Str("order_id", o.ID.String()).Msg("no se pudo guardar preference id")
		}
	}
	return initPoint, nil
}

// ProcessCardPayment es el único lugar donde se cobra un token de tarjeta. El
// monto sale de la orden guardada, nunca del cliente. No hay reintentos.
func (uc *PaymentUC) ProcessCardPayment(ctx context.Context, req CardPaymentRequest) (*CardPaymentResponse, error) {
	o, err := uc.Orders.FindByID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if o.Status != domain.OrderStatusPending || o.PaymentStatus == domain.PaymentApproved {
		return nil, fmt.Errorf("orden %s: %w", o.Reference(), ErrAlreadyPaid)
	}
	payer := req.PayerEmail
	if payer == "" {
		payer = o.CustomerEmail
	}
	res, err := uc.Gateway.ProcessCard(ctx, domain.CardPayment{
		OrderID:         o.ID,
		Token:           req.Token,
		PaymentMethodID: req.PaymentMethodID,
		IssuerID:        req.IssuerID,
		Installments:    req.Installments,
		PayerEmail:      payer,
		Amount:          o.TotalAmount,
		Description:     "Pedido " + o.Reference(),
	})
	if err != nil {
		return nil, err
	}
	if err := uc.apply(ctx, o, res); err != nil {
		return nil, err
	}
	return &CardPaymentResponse{
		Status:       res.PaymentStatus(),
		StatusDetail: res.StatusDetail,
		PaymentID:    res.PaymentID,
		OrderID:      o.ID,
	}, nil
}

// HandleWebhook consulta el pago notificado y aplica el resultado a la orden
// indicada por la referencia externa firmada.
func (uc *PaymentUC) HandleWebhook(ctx context.Context, paymentID string) error {
	res, err := uc.Gateway.PaymentInfo(ctx, paymentID)
	if err != nil {
		return err
	}
	orderID, ok := uc.Gateway.VerifyExternalRef(res.ExternalReference)
	if !ok {
		return fmt.Errorf("referencia externa %q: %w", res.ExternalReference, domain.ErrForbidden)
	}
	o, err := uc.Orders.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	if o.PaymentStatus == domain.PaymentApproved && o.PaymentID == res.PaymentID {
		return nil
	}
	return uc.apply(ctx, o, res)
}

func (uc *PaymentUC) apply(ctx context.Context, o *domain.Order, res *domain.PaymentResult) error {
	ps := res.PaymentStatus()
	fields := map[string]any{
		"payment_id":     res.PaymentID,
		"payment_status": ps,
	}
	if res.PaymentMethod != "" {
		fields["payment_method"] = res.PaymentMethod
	}
	becamePaid := ps == domain.PaymentApproved && o.Status == domain.OrderStatusPending
	if becamePaid {
		fields["status"] = domain.OrderStatusPaid
	}
	if err := uc.Orders.UpdateFields(ctx, o.ID, fields); err != nil {
		return err
	}
	o.PaymentID = res.PaymentID
	o.PaymentStatus = ps
	if res.PaymentMethod != "" {
		o.PaymentMethod = res.PaymentMethod
	}
	if !becamePaid {
		return nil
	}
	o.Status = domain.OrderStatusPaid
	uc.afterPaid(ctx, o)
	return nil
}

// afterPaid avisa al comercio y envía el correo de pago. Las fallas se registran
// y no afectan el resultado del cobro.
func (uc *PaymentUC) afterPaid(ctx context.Context, o *domain.Order) {
	if uc.Notifier != nil {
		if err := uc.Notifier.NotifyPaid(ctx, o); err != nil {
			log.Warn().Err(err).Str("order_id", o.ID.String()).Msg("no se pudo notificar el pago al comercio")
		}
	}
	if uc.OrderUC != nil {
		if err := uc.OrderUC.sendStatusEmail(ctx, o); err != nil {
			log.Warn().Err(err).Str("order_id", o.ID.String()).Msg("no se pudo enviar correo de pago")
		}
	}
}
