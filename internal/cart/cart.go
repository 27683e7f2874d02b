// Package cart mantiene el carrito del cliente. El carrito vive del lado del
// cliente: cada mutación se persiste completa en un Store (el equivalente al
// localStorage del navegador) y al arrancar se vuelve a leer de ahí.
package cart

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/phenrril/growshop/internal/domain"
)

// StorageKey es la única clave bajo la que se guarda el carrito serializado.
const StorageKey = "growshop_cart"

type Store interface {
	Load(key string) ([]byte, error)
	Save(key string, data []byte) error
}

// Line guarda los campos del producto al momento de agregarlo más la cantidad.
// Los totales usan estos precios aunque el producto cambie después.
type Line struct {
	ID            uuid.UUID `json:"id"`
	Slug          string    `json:"slug"`
	Name          string    `json:"name"`
	Price         float64   `json:"price"`
	SalePrice     *float64  `json:"sale_price,omitempty"`
	ImageURL      string    `json:"image_url,omitempty"`
	StockQuantity int       `json:"stock_quantity"`
	Quantity      int       `json:"quantity"`
}

func (l Line) UnitPrice() float64 {
	if l.SalePrice != nil && *l.SalePrice > 0 {
		return *l.SalePrice
	}
	return l.Price
}

func (l Line) Subtotal() decimal.Decimal {
	return domain.LineTotal(l.UnitPrice(), l.Quantity)
}

func LineFromProduct(p *domain.Product, qty int) Line {
	return Line{
		ID:            p.ID,
		Slug:          p.Slug,
		Name:          p.Name,
		Price:         p.Price,
		SalePrice:     p.SalePrice,
		ImageURL:      p.ImageURL,
		StockQuantity: p.StockQuantity,
		Quantity:      qty,
	}
}

type Cart struct {
	mu    sync.Mutex
	store Store
	lines []Line
}

// New carga el carrito desde el store. Si no hay nada guardado o el contenido
// no se puede decodificar, arranca vacío.
func New(store Store) *Cart {
	c := &Cart{store: store}
	if store == nil {
		return c
	}
	raw, err := store.Load(StorageKey)
	if err != nil || len(raw) == 0 {
		return c
	}
	var lines []Line
	if err := json.Unmarshal(raw, &lines); err != nil {
		log.Warn().Err(err).Msg("carrito ilegible, se descarta")
		return c
	}
	for _, l := range lines {
		if l.ID == uuid.Nil || l.Quantity <= 0 {
			continue
		}
		c.lines = append(c.lines, l)
	}
	return c
}

// Add suma qty a la línea del producto o agrega una nueva al final.
func (c *Cart) Add(p *domain.Product, qty int) {
	if p == nil {
		return
	}
	c.AddLine(LineFromProduct(p, qty))
}

func (c *Cart) AddLine(l Line) {
	if l.Quantity <= 0 {
		l.Quantity = 1
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.lines {
		if c.lines[i].ID == l.ID {
			c.lines[i].Quantity += l.Quantity
			c.persist()
			return
		}
	}
	c.lines = append(c.lines, l)
	c.persist()
}

func (c *Cart) Remove(productID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.lines {
		if c.lines[i].ID == productID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			c.persist()
			return
		}
	}
}

// SetQuantity fija la cantidad de una línea; qty <= 0 la elimina.
func (c *Cart) SetQuantity(productID uuid.UUID, qty int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.lines {
		if c.lines[i].ID != productID {
			continue
		}
		if qty <= 0 {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
		} else {
			c.lines[i].Quantity = qty
		}
		c.persist()
		return
	}
}

func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
	c.persist()
}

func (c *Cart) Items() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Total suma (precio de oferta o precio) × cantidad de cada línea.
func (c *Cart) Total() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.Money(sum(c.lines))
}

func (c *Cart) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

func sum(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

func (c *Cart) persist() {
	if c.store == nil {
		return
	}
	lines := c.lines
	if lines == nil {
		lines = []Line{}
	}
	b, err := json.Marshal(lines)
	if err != nil {
		log.Error().Err(err).Msg("serializar carrito")
		return
	}
	if err := c.store.Save(StorageKey, b); err != nil {
		log.Warn().Err(err).Msg("no se pudo guardar el carrito")
	}
}
