package domain

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// CardPayment es el cobro de un token de tarjeta generado por el formulario del proveedor.
type CardPayment struct {
	OrderID         uuid.UUID
	Token           string
	PaymentMethodID string
	IssuerID        string
	Installments    int
	PayerEmail      string
	Amount          float64
	Description     string
}

type PaymentResult struct {
	PaymentID         string `json:"payment_id"`
	Status            string `json:"status"`
	StatusDetail      string `json:"status_detail"`
	ExternalReference string `json:"-"`
	PaymentMethod     string `json:"payment_method,omitempty"`
}

// PaymentStatus traduce el estado del proveedor a approved/rejected/pending.
func (r *PaymentResult) PaymentStatus() PaymentStatus {
	return MapPaymentStatus(r.Status)
}

func MapPaymentStatus(providerStatus string) PaymentStatus {
	switch strings.ToLower(strings.TrimSpace(providerStatus)) {
	case "approved":
		return PaymentApproved
	case "rejected", "cancelled", "refunded", "charged_back":
		return PaymentRejected
	default:
		return PaymentPending
	}
}

type PaymentGateway interface {
	// CreatePreference devuelve el init point y deja el id de preferencia en la orden.
	CreatePreference(ctx context.Context, o *Order) (string, error)
	ProcessCard(ctx context.Context, p CardPayment) (*PaymentResult, error)
	PaymentInfo(ctx context.Context, paymentID string) (*PaymentResult, error)
	VerifyExternalRef(ext string) (uuid.UUID, bool)
}
