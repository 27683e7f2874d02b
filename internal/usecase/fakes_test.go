package usecase

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/phenrril/growshop/internal/domain"
)

var errBackend = errors.New("backend caído")

type memProducts struct {
	mu    sync.Mutex
	items map[uuid.UUID]domain.Product
	calls int
}

func newMemProducts(ps ...domain.Product) *memProducts {
	m := &memProducts{items: map[uuid.UUID]domain.Product{}}
	for _, p := range ps {
		m.items[p.ID] = p
	}
	return m
}

func (m *memProducts) Save(_ context.Context, p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.items[p.ID] = *p
	return nil
}

func (m *memProducts) FindByID(_ context.Context, id uuid.UUID) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	p, ok := m.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (m *memProducts) FindBySlug(_ context.Context, slug string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	for _, p := range m.items {
		if p.Slug == slug {
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memProducts) FindByIDs(_ context.Context, ids []uuid.UUID) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	out := []domain.Product{}
	for _, id := range ids {
		if p, ok := m.items[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memProducts) List(_ context.Context, f domain.ProductFilter) ([]domain.Product, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	out := []domain.Product{}
	for _, p := range m.items {
		if f.Active != nil && p.IsActive != *f.Active {
			continue
		}
		if f.Query != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Query)) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, int64(len(out)), nil
}

func (m *memProducts) SlugExists(_ context.Context, slug string, except uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	for _, p := range m.items {
		if p.Slug == slug && p.ID != except {
			return true, nil
		}
	}
	return false, nil
}

func (m *memProducts) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if _, ok := m.items[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memProducts) BulkSetActive(_ context.Context, ids []uuid.UUID, active bool) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	var n int64
	for _, id := range ids {
		if p, ok := m.items[id]; ok {
			p.IsActive = active
			m.items[id] = p
			n++
		}
	}
	return n, nil
}

func (m *memProducts) BulkDelete(_ context.Context, ids []uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	var n int64
	for _, id := range ids {
		if _, ok := m.items[id]; ok {
			delete(m.items, id)
			n++
		}
	}
	return n, nil
}

type memCatalog struct {
	items map[domain.CatalogKind]map[uuid.UUID]domain.CatalogEntry
}

func newMemCatalog() *memCatalog {
	return &memCatalog{items: map[domain.CatalogKind]map[uuid.UUID]domain.CatalogEntry{
		domain.KindCategory: {},
		domain.KindBrand:    {},
	}}
}

func (m *memCatalog) List(_ context.Context, kind domain.CatalogKind, includeInactive bool) ([]domain.CatalogEntry, error) {
	out := []domain.CatalogEntry{}
	for _, e := range m.items[kind] {
		if includeInactive || e.IsActive {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memCatalog) FindByID(_ context.Context, kind domain.CatalogKind, id uuid.UUID) (*domain.CatalogEntry, error) {
	e, ok := m.items[kind][id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &e, nil
}

func (m *memCatalog) Save(_ context.Context, kind domain.CatalogKind, e *domain.CatalogEntry) error {
	for _, other := range m.items[kind] {
		if other.Slug == e.Slug && other.ID != e.ID {
			return domain.ErrConflict
		}
	}
	m.items[kind][e.ID] = *e
	return nil
}

func (m *memCatalog) BulkSetActive(_ context.Context, kind domain.CatalogKind, ids []uuid.UUID, active bool) (int64, error) {
	var n int64
	for _, id := range ids {
		if e, ok := m.items[kind][id]; ok {
			e.IsActive = active
			m.items[kind][id] = e
			n++
		}
	}
	return n, nil
}

type memCoupons struct {
	mu    sync.Mutex
	items map[uuid.UUID]domain.Coupon
}

func newMemCoupons(cs ...domain.Coupon) *memCoupons {
	m := &memCoupons{items: map[uuid.UUID]domain.Coupon{}}
	for _, c := range cs {
		m.items[c.ID] = c
	}
	return m
}

func (m *memCoupons) List(_ context.Context) ([]domain.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Coupon{}
	for _, c := range m.items {
		out = append(out, c)
	}
	return out, nil
}

func (m *memCoupons) FindByID(_ context.Context, id uuid.UUID) (*domain.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (m *memCoupons) FindByCode(_ context.Context, code string) (*domain.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.items {
		if c.Code == domain.NormalizeCouponCode(code) {
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memCoupons) Save(_ context.Context, c *domain.Coupon) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[c.ID] = *c
	return nil
}

func (m *memCoupons) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}

func (m *memCoupons) BulkSetActive(_ context.Context, ids []uuid.UUID, active bool) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, id := range ids {
		if c, ok := m.items[id]; ok {
			c.IsActive = active
			m.items[id] = c
			n++
		}
	}
	return n, nil
}

func (m *memCoupons) BulkDelete(_ context.Context, ids []uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := m.items[id]; ok {
			delete(m.items, id)
			n++
		}
	}
	return n, nil
}

// increment replica el UPDATE condicional del repositorio real.
func (m *memCoupons) increment(id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.items[id]
	if !ok || !c.IsActive || (c.MaxUses > 0 && c.UsesCount >= c.MaxUses) {
		return domain.ErrCouponInvalid
	}
	c.UsesCount++
	m.items[id] = c
	return nil
}

type memZones struct {
	items map[uuid.UUID]domain.ShippingZone
}

func newMemZones(zs ...domain.ShippingZone) *memZones {
	m := &memZones{items: map[uuid.UUID]domain.ShippingZone{}}
	for _, z := range zs {
		m.items[z.ID] = z
	}
	return m
}

func (m *memZones) List(_ context.Context) ([]domain.ShippingZone, error) {
	out := []domain.ShippingZone{}
	for _, z := range m.items {
		out = append(out, z)
	}
	return out, nil
}

func (m *memZones) FindByID(_ context.Context, id uuid.UUID) (*domain.ShippingZone, error) {
	z, ok := m.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &z, nil
}

func (m *memZones) FindByLocation(_ context.Context, region, comuna string) (*domain.ShippingZone, error) {
	var regionWide *domain.ShippingZone
	for _, z := range m.items {
		if !z.IsActive || !strings.EqualFold(z.Region, region) {
			continue
		}
		z := z
		if strings.EqualFold(z.Comuna, comuna) && z.Comuna != "" {
			return &z, nil
		}
		if z.Comuna == "" {
			regionWide = &z
		}
	}
	if regionWide != nil {
		return regionWide, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memZones) Save(_ context.Context, z *domain.ShippingZone) error {
	m.items[z.ID] = *z
	return nil
}

func (m *memZones) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.items, id)
	return nil
}

type memOrders struct {
	mu      sync.Mutex
	items   map[uuid.UUID]*domain.Order
	coupons *memCoupons
	// failAfter hace fallar UpdateFields después de n llamadas exitosas (-1 nunca).
	failAfter int
	updates   int
}

func newMemOrders(orders ...domain.Order) *memOrders {
	m := &memOrders{items: map[uuid.UUID]*domain.Order{}, failAfter: -1}
	for i := range orders {
		o := orders[i]
		m.items[o.ID] = &o
	}
	return m
}

func (m *memOrders) Create(_ context.Context, o *domain.Order, couponID *uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if couponID != nil {
		if err := m.coupons.increment(*couponID); err != nil {
			return err
		}
	}
	cp := *o
	m.items[o.ID] = &cp
	return nil
}

func (m *memOrders) Save(_ context.Context, o *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *o
	m.items[o.ID] = &cp
	return nil
}

func (m *memOrders) FindByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memOrders) get(id uuid.UUID) domain.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.items[id]
}

func (m *memOrders) List(_ context.Context, f domain.OrderFilter) ([]domain.Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Order{}
	for _, o := range m.items {
		if f.Archived != nil && o.Archived != *f.Archived {
			continue
		}
		if f.Status != nil && o.Status != *f.Status {
			continue
		}
		if !matchesOwner(o, f) {
			continue
		}
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, int64(len(out)), nil
}

func (m *memOrders) ListForExport(_ context.Context) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Order{}
	for _, o := range m.items {
		if o.Status.Exportable() && o.ShippingOption != domain.ShippingPickup && !o.Archived {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memOrders) ListForTracking(_ context.Context) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Order{}
	for _, o := range m.items {
		if o.AcceptsTracking() {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func matchesOwner(o *domain.Order, f domain.OrderFilter) bool {
	if f.ProfileID == nil && f.Email == "" {
		return true
	}
	if f.ProfileID != nil && o.ProfileID != nil && *o.ProfileID == *f.ProfileID {
		return true
	}
	return f.Email != "" && strings.EqualFold(o.CustomerEmail, f.Email)
}

func (m *memOrders) ListInRange(_ context.Context, from, to time.Time) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Order{}
	for _, o := range m.items {
		if !o.CreatedAt.Before(from) && o.CreatedAt.Before(to) {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *memOrders) UpdateFields(_ context.Context, id uuid.UUID, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAfter >= 0 && m.updates >= m.failAfter {
		return errBackend
	}
	o, ok := m.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	m.updates++
	for k, v := range fields {
		switch k {
		case "status":
			o.Status = v.(domain.OrderStatus)
		case "tracking_number":
			o.TrackingNumber = v.(string)
		case "payment_id":
			o.PaymentID = v.(string)
		case "payment_status":
			o.PaymentStatus = v.(domain.PaymentStatus)
		case "payment_method":
			o.PaymentMethod = v.(string)
		case "mp_preference_id":
			o.MPPreferenceID = v.(string)
		default:
			if at, ok := v.(time.Time); ok && strings.HasSuffix(k, "_email_sent_at") {
				st := domain.OrderStatus(strings.TrimSuffix(k, "_email_sent_at"))
				o.MarkEmailSent(st, at)
			}
		}
	}
	return nil
}

func (m *memOrders) SetArchived(_ context.Context, ids []uuid.UUID, archived bool) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, id := range ids {
		if o, ok := m.items[id]; ok {
			o.Archived = archived
			n++
		}
	}
	return n, nil
}

func (m *memOrders) Delete(_ context.Context, ids []uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := m.items[id]; ok {
			delete(m.items, id)
			n++
		}
	}
	return n, nil
}

type memProfiles struct {
	items map[uuid.UUID]domain.Profile
}

func newMemProfiles(ps ...domain.Profile) *memProfiles {
	m := &memProfiles{items: map[uuid.UUID]domain.Profile{}}
	for _, p := range ps {
		m.items[p.ID] = p
	}
	return m
}

func (m *memProfiles) FindByID(_ context.Context, id uuid.UUID) (*domain.Profile, error) {
	p, ok := m.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (m *memProfiles) FindByEmail(_ context.Context, email string) (*domain.Profile, error) {
	for _, p := range m.items {
		if strings.EqualFold(p.Email, email) {
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memProfiles) Save(_ context.Context, p *domain.Profile) error {
	if p.Role == "" {
		p.Role = domain.RoleCustomer
	}
	m.items[p.ID] = *p
	return nil
}

type memSettings struct {
	s *domain.Settings
}

func (m *memSettings) Get(_ context.Context) (*domain.Settings, error) {
	if m.s == nil {
		return nil, domain.ErrNotFound
	}
	cp := *m.s
	return &cp, nil
}

func (m *memSettings) Save(_ context.Context, s *domain.Settings) error {
	cp := *s
	m.s = &cp
	return nil
}

type memStorage struct {
	saved   map[string]string
	deleted []string
	n       int
}

func newMemStorage() *memStorage { return &memStorage{saved: map[string]string{}} }

func (m *memStorage) Save(_ context.Context, name string, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.n++
	url := "/uploads/" + strings.Repeat("x", m.n) + "-" + name
	m.saved[url] = string(b)
	return url, nil
}

func (m *memStorage) Delete(_ context.Context, url string) error {
	m.deleted = append(m.deleted, url)
	delete(m.saved, url)
	return nil
}

type sentMail struct {
	order   uuid.UUID
	status  domain.OrderStatus
	voucher []byte
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (f *fakeMailer) SendStatusEmail(_ context.Context, o *domain.Order, st domain.OrderStatus, voucher []byte) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{order: o.ID, status: st, voucher: voucher})
	return nil
}

type fakeNotifier struct {
	paid []uuid.UUID
	err  error
}

func (f *fakeNotifier) NotifyPaid(_ context.Context, o *domain.Order) error {
	f.paid = append(f.paid, o.ID)
	return f.err
}

type fakeRenderer struct {
	logos    [][]byte
	settings []domain.Settings
}

func (f *fakeRenderer) Render(o *domain.Order, s domain.Settings, logo []byte) ([]byte, error) {
	f.logos = append(f.logos, logo)
	f.settings = append(f.settings, s)
	return []byte("%PDF-" + o.Reference()), nil
}

type fakeGateway struct {
	result   *domain.PaymentResult
	err      error
	charged  []domain.CardPayment
	prefID   string
	validRef map[string]uuid.UUID
}

func (f *fakeGateway) CreatePreference(_ context.Context, o *domain.Order) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	o.MPPreferenceID = f.prefID
	return "https://mp.example/init/" + f.prefID, nil
}

func (f *fakeGateway) ProcessCard(_ context.Context, p domain.CardPayment) (*domain.PaymentResult, error) {
	f.charged = append(f.charged, p)
	if f.err != nil {
		return nil, f.err
	}
	r := *f.result
	return &r, nil
}

func (f *fakeGateway) PaymentInfo(_ context.Context, _ string) (*domain.PaymentResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	r := *f.result
	return &r, nil
}

func (f *fakeGateway) VerifyExternalRef(ext string) (uuid.UUID, bool) {
	id, ok := f.validRef[ext]
	return id, ok
}

func stringsReader(s string) io.Reader { return strings.NewReader(s) }
