package usecase

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/phenrril/growshop/internal/domain"
)

type CheckoutLine struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

type CheckoutCustomer struct {
	Name  string `json:"name" validate:"required,max=140"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"max=50"`
	RUT   string `json:"rut" validate:"max=20"`
}

type CheckoutRequest struct {
	Lines          []CheckoutLine         `json:"items" validate:"required,min=1,dive"`
	Customer       CheckoutCustomer       `json:"customer"`
	ShippingOption domain.ShippingOption  `json:"shipping_option" validate:"required,oneof=pickup standard express"`
	Address        domain.ShippingAddress `json:"shipping_address"`
	CouponCode     string                 `json:"coupon_code" validate:"max=40"`
	ProfileID      *uuid.UUID             `json:"-"`
}

type CheckoutUC struct {
	Products domain.ProductRepo
	Orders   domain.OrderRepo
	Coupons  *CouponUC
	Shipping *ShippingUC
	Now      func() time.Time
}

// PlaceOrder vuelve a leer los productos, congela sus datos en las líneas y
// persiste la orden pendiente junto con el uso del cupón en una transacción.
// Los precios del carrito del cliente no se usan.
func (uc *CheckoutUC) PlaceOrder(ctx context.Context, req CheckoutRequest) (*domain.Order, error) {
	lines := mergeLines(req.Lines)
	if len(lines) == 0 {
		return nil, domain.ErrEmptyCart
	}
	if err := validateCheckout(&req); err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	found, err := uc.Products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*domain.Product, len(found))
	for i := range found {
		byID[found[i].ID] = &found[i]
	}

	order := &domain.Order{
		ID:              uuid.New(),
		Status:          domain.OrderStatusPending,
		PaymentStatus:   domain.PaymentPending,
		CustomerName:    strings.TrimSpace(req.Customer.Name),
		CustomerEmail:   strings.ToLower(strings.TrimSpace(req.Customer.Email)),
		CustomerPhone:   strings.TrimSpace(req.Customer.Phone),
		CustomerRUT:     strings.TrimSpace(req.Customer.RUT),
		ProfileID:       req.ProfileID,
		ShippingOption:  req.ShippingOption,
		ShippingAddress: req.Address,
		CreatedAt:       clock(uc.Now),
	}
	ve := domain.NewValidationError()
	subtotal := decimal.Zero
	for _, l := range lines {
		p, ok := byID[l.ProductID]
		if !ok || !p.IsActive {
			ve.Add("items", fmt.Sprintf("el producto %s ya no está disponible", l.ProductID))
			continue
		}
		pid := p.ID
		unit := p.EffectivePrice()
		order.Items = append(order.Items, domain.OrderItem{
			ID:              uuid.New(),
			OrderID:         order.ID,
			ProductID:       &pid,
			Quantity:        l.Quantity,
			UnitPrice:       unit,
			ProductSnapshot: p.Snapshot(),
		})
		subtotal = subtotal.Add(domain.LineTotal(unit, l.Quantity))
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	discount := decimal.Zero
	var couponID *uuid.UUID
	if strings.TrimSpace(req.CouponCode) != "" {
		c, _, err := uc.Coupons.Resolve(ctx, req.CouponCode, domain.Money(subtotal))
		if err != nil {
			return nil, err
		}
		discount = c.Discount(subtotal)
		id := c.ID
		couponID = &id
		order.CouponCode = c.Code
	}

	// el envío gratis se evalúa contra el subtotal antes del descuento
	quote, err := uc.Shipping.Quote(ctx, req.Address.Region, req.Address.Comuna, req.ShippingOption, domain.Money(subtotal))
	if err != nil {
		return nil, err
	}
	shipping := domain.Dec(quote.Cost)

	order.Subtotal = domain.Money(subtotal)
	order.DiscountAmount = domain.Money(discount)
	order.ShippingCost = domain.Money(shipping)
	order.TotalAmount = domain.Money(subtotal.Sub(discount).Add(shipping))

	if err := uc.Orders.Create(ctx, order, couponID); err != nil {
		return nil, err
	}
	return order, nil
}

func (uc *CheckoutUC) QuoteCoupon(ctx context.Context, code string, subtotal float64) (*CouponQuote, error) {
	return uc.Coupons.Validate(ctx, code, subtotal)
}

func (uc *CheckoutUC) QuoteShipping(ctx context.Context, region, comuna string, opt domain.ShippingOption, subtotal float64) (*domain.ShippingQuote, error) {
	return uc.Shipping.Quote(ctx, region, comuna, opt, subtotal)
}

// mergeLines junta líneas repetidas del mismo producto conservando el orden.
func mergeLines(in []CheckoutLine) []CheckoutLine {
	out := make([]CheckoutLine, 0, len(in))
	idx := map[uuid.UUID]int{}
	for _, l := range in {
		if l.ProductID == uuid.Nil || l.Quantity <= 0 {
			continue
		}
		if i, ok := idx[l.ProductID]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		idx[l.ProductID] = len(out)
		out = append(out, l)
	}
	return out
}

func validateCheckout(req *CheckoutRequest) error {
	ve := domain.NewValidationError()
	if strings.TrimSpace(req.Customer.Name) == "" {
		ve.Add("customer.name", "el nombre es obligatorio")
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(req.Customer.Email)); err != nil {
		ve.Add("customer.email", "email inválido")
	}
	if !req.ShippingOption.Valid() {
		ve.Add("shipping_option", "opción de envío inválida")
	}
	if req.ShippingOption != domain.ShippingPickup {
		a := req.Address
		if strings.TrimSpace(a.Street) == "" {
			ve.Add("shipping_address.street", "la calle es obligatoria")
		}
		if strings.TrimSpace(a.Comuna) == "" {
			ve.Add("shipping_address.comuna", "la comuna es obligatoria")
		}
		if strings.TrimSpace(a.Region) == "" {
			ve.Add("shipping_address.region", "la región es obligatoria")
		}
	}
	return ve.OrNil()
}
