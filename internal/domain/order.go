package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
	// OrderStatusConfirmed sólo aparece en órdenes antiguas; se trata como pagada.
	OrderStatusConfirmed OrderStatus = "confirmed"
)

var OrderStatuses = []OrderStatus{
	OrderStatusPending, OrderStatusPaid, OrderStatusPreparing,
	OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled,
}

func ParseOrderStatus(s string) (OrderStatus, bool) {
	st := OrderStatus(strings.ToLower(strings.TrimSpace(s)))
	for _, v := range OrderStatuses {
		if v == st {
			return st, true
		}
	}
	if st == OrderStatusConfirmed {
		return st, true
	}
	return "", false
}

type ShippingOption string

const (
	ShippingPickup   ShippingOption = "pickup"
	ShippingStandard ShippingOption = "standard"
	ShippingExpress  ShippingOption = "express"
)

func (o ShippingOption) Valid() bool {
	return o == ShippingPickup || o == ShippingStandard || o == ShippingExpress
}

type PaymentStatus string

const (
	PaymentApproved PaymentStatus = "approved"
	PaymentRejected PaymentStatus = "rejected"
	PaymentPending  PaymentStatus = "pending"
)

type ShippingAddress struct {
	Street    string `json:"street"`
	Number    string `json:"number"`
	Apartment string `json:"apartment,omitempty"`
	Comuna    string `json:"comuna"`
	Region    string `json:"region"`
	Notes     string `json:"notes,omitempty"`
}

// Line arma la dirección en una sola línea para etiquetas y planillas.
func (a ShippingAddress) Line() string {
	parts := []string{}
	street := strings.TrimSpace(strings.TrimSpace(a.Street) + " " + strings.TrimSpace(a.Number))
	if street != "" {
		parts = append(parts, street)
	}
	if a.Apartment != "" {
		parts = append(parts, "Depto "+strings.TrimSpace(a.Apartment))
	}
	return strings.Join(parts, ", ")
}

type Order struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Status          OrderStatus     `gorm:"type:varchar(20);index;not null" json:"status"`
	CustomerName    string          `gorm:"size:140" json:"customer_name"`
	CustomerEmail   string          `gorm:"size:140;index" json:"customer_email"`
	CustomerPhone   string          `gorm:"size:50" json:"customer_phone"`
	CustomerRUT     string          `gorm:"size:20" json:"customer_rut"`
	ProfileID       *uuid.UUID      `gorm:"type:uuid;index" json:"profile_id,omitempty"`
	ShippingOption  ShippingOption  `gorm:"type:varchar(20)" json:"shipping_option"`
	ShippingAddress ShippingAddress `gorm:"type:jsonb;serializer:json" json:"shipping_address"`
	Subtotal        float64         `gorm:"type:decimal(12,2);default:0" json:"subtotal"`
	DiscountAmount  float64         `gorm:"type:decimal(12,2);default:0" json:"discount_amount"`
	CouponCode      string          `gorm:"size:40" json:"coupon_code,omitempty"`
	ShippingCost    float64         `gorm:"type:decimal(12,2);default:0" json:"shipping_cost"`
	TotalAmount     float64         `gorm:"type:decimal(12,2)" json:"total_amount"`
	TrackingNumber  string          `gorm:"size:80" json:"tracking_number"`
	Archived        bool            `gorm:"not null;default:false;index" json:"archived"`
	PaymentID       string          `gorm:"size:60" json:"payment_id,omitempty"`
	PaymentStatus   PaymentStatus   `gorm:"size:30" json:"payment_status,omitempty"`
	PaymentMethod   string          `gorm:"size:40" json:"payment_method,omitempty"`
	MPPreferenceID  string          `gorm:"size:140" json:"-"`

	PaidEmailSentAt      *time.Time `json:"paid_email_sent_at"`
	PreparingEmailSentAt *time.Time `json:"preparing_email_sent_at"`
	ShippedEmailSentAt   *time.Time `json:"shipped_email_sent_at"`
	DeliveredEmailSentAt *time.Time `json:"delivered_email_sent_at"`
	CancelledEmailSentAt *time.Time `json:"cancelled_email_sent_at"`

	Items []OrderItem `json:"items,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type OrderItem struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID         uuid.UUID       `gorm:"type:uuid;index;not null" json:"order_id"`
	ProductID       *uuid.UUID      `gorm:"type:uuid;index" json:"product_id"`
	Quantity        int             `gorm:"not null" json:"quantity"`
	UnitPrice       float64         `gorm:"type:decimal(12,2)" json:"unit_price"`
	ProductSnapshot ProductSnapshot `gorm:"type:jsonb;serializer:json" json:"product_snapshot"`
}

// Reference es la referencia corta que viaja en las planillas del courier:
// los primeros 8 caracteres del id en mayúsculas.
func (o *Order) Reference() string {
	return ShortReference(o.ID)
}

func ShortReference(id uuid.UUID) string {
	return strings.ToUpper(id.String()[:8])
}

// AcceptsTracking indica si la orden puede recibir un número de seguimiento
// del courier: despacho a domicilio, no anulada y no archivada.
func (o *Order) AcceptsTracking() bool {
	return !o.Archived && o.ShippingOption != ShippingPickup && o.Status != OrderStatusCancelled
}

// EmailSentAt devuelve cuándo se envió el correo del estado indicado.
func (o *Order) EmailSentAt(st OrderStatus) *time.Time {
	switch st {
	case OrderStatusPaid, OrderStatusConfirmed:
		return o.PaidEmailSentAt
	case OrderStatusPreparing:
		return o.PreparingEmailSentAt
	case OrderStatusShipped:
		return o.ShippedEmailSentAt
	case OrderStatusDelivered:
		return o.DeliveredEmailSentAt
	case OrderStatusCancelled:
		return o.CancelledEmailSentAt
	}
	return nil
}

// EmailSentColumn es la columna *_email_sent_at de un estado, o "" si el
// estado no tiene correo asociado.
func EmailSentColumn(st OrderStatus) string {
	switch st {
	case OrderStatusPaid, OrderStatusConfirmed:
		return "paid_email_sent_at"
	case OrderStatusPreparing:
		return "preparing_email_sent_at"
	case OrderStatusShipped:
		return "shipped_email_sent_at"
	case OrderStatusDelivered:
		return "delivered_email_sent_at"
	case OrderStatusCancelled:
		return "cancelled_email_sent_at"
	}
	return ""
}

func (o *Order) MarkEmailSent(st OrderStatus, at time.Time) {
	t := at
	switch st {
	case OrderStatusPaid, OrderStatusConfirmed:
		o.PaidEmailSentAt = &t
	case OrderStatusPreparing:
		o.PreparingEmailSentAt = &t
	case OrderStatusShipped:
		o.ShippedEmailSentAt = &t
	case OrderStatusDelivered:
		o.DeliveredEmailSentAt = &t
	case OrderStatusCancelled:
		o.CancelledEmailSentAt = &t
	}
}

// ItemsCount suma las cantidades de todas las líneas.
func (o *Order) ItemsCount() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

type OrderFilter struct {
	Status   *OrderStatus
	Archived *bool
	Query    string
	Email    string
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int

	// ProfileID y Email se combinan con OR: órdenes del perfil o del email.
	ProfileID *uuid.UUID
}
