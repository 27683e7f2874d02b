package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/growshop/internal/adapters/htmltext"
	"github.com/phenrril/growshop/internal/cart"
	"github.com/phenrril/growshop/internal/domain"
	"github.com/phenrril/growshop/internal/usecase"
)

const summaryLength = 180

type catalogRoute struct {
	kind domain.CatalogKind
	path string
}

var (
	kindCategory = catalogRoute{kind: domain.KindCategory, path: "categories"}
	kindBrand    = catalogRoute{kind: domain.KindBrand, path: "brands"}
)

func productFilter(r *http.Request) (domain.ProductFilter, error) {
	ve := domain.NewValidationError()
	q := r.URL.Query()
	f := domain.ProductFilter{
		Query:      strings.TrimSpace(q.Get("q")),
		CategoryID: queryUUID(r, "category", ve),
		BrandID:    queryUUID(r, "brand", ve),
		Sort:       q.Get("sort"),
		Page:       queryInt(r, "page", 1),
		PageSize:   pageSize(r),
	}
	return f, ve.OrNil()
}

func (s *Server) apiProducts(w http.ResponseWriter, r *http.Request) {
	f, err := productFilter(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	items, total, err := s.Products.ListPublic(r.Context(), f)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(items, total, f.Page, f.PageSize))
}

type productDetail struct {
	*domain.Product
	Summary           string   `json:"summary"`
	DescriptionImages []string `json:"description_images"`
}

func (s *Server) apiProductBySlug(w http.ResponseWriter, r *http.Request) {
	p, err := s.Products.GetPublicBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	imgs := htmltext.Images(p.Description)
	if imgs == nil {
		imgs = []string{}
	}
	writeJSON(w, http.StatusOK, productDetail{
		Product:           p,
		Summary:           htmltext.Summary(p.Description, summaryLength),
		DescriptionImages: imgs,
	})
}

func (s *Server) apiCatalog(k catalogRoute) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := s.Catalog.List(r.Context(), k.kind, false)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		if items == nil {
			items = []domain.CatalogEntry{}
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func (s *Server) apiPublicSettings(w http.ResponseWriter, r *http.Request) {
	st, err := s.Settings.Get(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) apiShippingQuote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opt := domain.ShippingOption(strings.ToLower(q.Get("option")))
	if opt == "" {
		opt = domain.ShippingStandard
	}
	subtotal := 0.0
	if raw := q.Get("subtotal"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			ve := domain.NewValidationError()
			ve.Add("subtotal", "monto inválido")
			respondErr(w, r, ve)
			return
		}
		subtotal = v
	}
	quote, err := s.Checkout.QuoteShipping(r.Context(), q.Get("region"), q.Get("comuna"), opt, subtotal)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

type couponValidateRequest struct {
	Code     string  `json:"code" validate:"required,max=40"`
	Subtotal float64 `json:"subtotal" validate:"gte=0"`
}

func (s *Server) apiCouponValidate(w http.ResponseWriter, r *http.Request) {
	var req couponValidateRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondErr(w, r, err)
		return
	}
	quote, err := s.Checkout.QuoteCoupon(r.Context(), req.Code, req.Subtotal)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

// Carrito

type cartLineView struct {
	cart.Line
	UnitPrice float64 `json:"unit_price"`
	Subtotal  float64 `json:"subtotal"`
}

type cartView struct {
	Items []cartLineView `json:"items"`
	Total float64        `json:"total"`
	Count int            `json:"count"`
}

func viewCart(c *cart.Cart) cartView {
	lines := c.Items()
	v := cartView{Items: make([]cartLineView, 0, len(lines)), Total: c.Total(), Count: c.Count()}
	for _, l := range lines {
		v.Items = append(v.Items, cartLineView{Line: l, UnitPrice: l.UnitPrice(), Subtotal: domain.Money(l.Subtotal())})
	}
	return v
}

func (s *Server) openCart(w http.ResponseWriter, r *http.Request) (*cart.Cart, *cookieCartStore) {
	store := newCookieCartStore(w, r, s.cartSecret)
	return cart.New(store), store
}

func (s *Server) writeCart(w http.ResponseWriter, c *cart.Cart, store *cookieCartStore) {
	if store.saveErr != nil {
		respondWithError(w, http.StatusRequestEntityTooLarge, store.saveErr.Error(), nil)
		return
	}
	writeJSON(w, http.StatusOK, viewCart(c))
}

func (s *Server) apiCartGet(w http.ResponseWriter, r *http.Request) {
	c, _ := s.openCart(w, r)
	writeJSON(w, http.StatusOK, viewCart(c))
}

type cartAddRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"gte=0,lte=999"`
}

func (s *Server) apiCartAdd(w http.ResponseWriter, r *http.Request) {
	var req cartAddRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondErr(w, r, err)
		return
	}
	p, err := s.Products.Get(r.Context(), req.ProductID)
	if err == nil && !p.IsActive {
		err = domain.ErrNotFound
	}
	if err != nil {
		respondErr(w, r, err)
		return
	}
	c, store := s.openCart(w, r)
	c.Add(p, req.Quantity)
	s.writeCart(w, c, store)
}

type cartQuantityRequest struct {
	Quantity int `json:"quantity" validate:"gte=0,lte=999"`
}

func (s *Server) apiCartSetQuantity(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		respondErr(w, r, err)
		return
	}
	var req cartQuantityRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondErr(w, r, err)
		return
	}
	c, store := s.openCart(w, r)
	c.SetQuantity(id, req.Quantity)
	s.writeCart(w, c, store)
}

func (s *Server) apiCartRemove(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		respondErr(w, r, err)
		return
	}
	c, store := s.openCart(w, r)
	c.Remove(id)
	s.writeCart(w, c, store)
}

func (s *Server) apiCartClear(w http.ResponseWriter, r *http.Request) {
	c, store := s.openCart(w, r)
	c.Clear()
	s.writeCart(w, c, store)
}

// Checkout y pagos

type checkoutResponse struct {
	Order     *domain.Order `json:"order"`
	Reference string        `json:"reference"`
}

// apiCheckout usa las líneas del cuerpo o, si vienen vacías, las del carrito.
func (s *Server) apiCheckout(w http.ResponseWriter, r *http.Request) {
	var req usecase.CheckoutRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(&req); err != nil {
		ve := domain.NewValidationError()
		ve.Add("body", "JSON inválido")
		respondErr(w, r, ve)
		return
	}
	c, store := s.openCart(w, r)
	if len(req.Lines) == 0 {
		for _, l := range c.Items() {
			req.Lines = append(req.Lines, usecase.CheckoutLine{ProductID: l.ID, Quantity: l.Quantity})
		}
	}
	if len(req.Lines) == 0 {
		respondErr(w, r, domain.ErrEmptyCart)
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondErr(w, r, validationError(err))
		return
	}
	if sess, ok := sessionFrom(r); ok {
		id := sess.ProfileID
		req.ProfileID = &id
	}
	o, err := s.Checkout.PlaceOrder(r.Context(), req)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	c.Clear()
	if store.saveErr != nil {
		log.Warn().Err(store.saveErr).Msg("no se pudo vaciar el carrito tras el checkout")
	}
	log.Info().Str("order_id", o.ID.String()).Float64("total", o.TotalAmount).Msg("orden creada")
	writeJSON(w, http.StatusCreated, checkoutResponse{Order: o, Reference: o.Reference()})
}

func (s *Server) apiPaymentsConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"public_key": s.opts.MPPublicKey})
}

type preferenceRequest struct {
	OrderID uuid.UUID `json:"order_id" validate:"required"`
}

func (s *Server) apiPaymentPreference(w http.ResponseWriter, r *http.Request) {
	var req preferenceRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondErr(w, r, err)
		return
	}
	initPoint, err := s.Payments.CreatePreference(r.Context(), req.OrderID)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"init_point": initPoint, "order_id": req.OrderID.String()})
}

func (s *Server) apiPaymentCard(w http.ResponseWriter, r *http.Request) {
	var req usecase.CardPaymentRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondErr(w, r, err)
		return
	}
	res, err := s.Payments.ProcessCardPayment(r.Context(), req)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// webhookMP siempre responde 200 para que el proveedor no reintente en loop;
// los fallos quedan en el log.
func (s *Server) webhookMP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(io.LimitReader(r.Body, 64<<10))
	var evt struct {
		Type string `json:"type"`
		Data struct {
			ID json.RawMessage `json:"id"`
		} `json:"data"`
	}
	_ = json.Unmarshal(body, &evt)
	payID := strings.Trim(string(evt.Data.ID), `"`)
	if payID == "" || payID == "null" {
		payID = r.URL.Query().Get("data.id")
	}
	if payID == "" {
		payID = r.URL.Query().Get("id")
	}
	if payID == "" || (evt.Type != "" && evt.Type != "payment") {
		log.Debug().Str("type", evt.Type).Msg("webhook MP ignorado")
		w.WriteHeader(http.StatusOK)
		return
	}
	if err := s.Payments.HandleWebhook(r.Context(), payID); err != nil {
		ev := log.Error()
		if errors.Is(err, domain.ErrForbidden) || errors.Is(err, domain.ErrNotFound) {
			ev = log.Warn()
		}
		ev.Err(err).Str("payment_id", payID).Msg("webhook MP")
	}
	w.WriteHeader(http.StatusOK)
}
