package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/growshop/internal/domain"
)

const defaultPageSize = 20

type ProductUC struct {
	Products domain.ProductRepo
	Storage  domain.FileStorage
}

func (uc *ProductUC) List(ctx context.Context, f domain.ProductFilter) ([]domain.Product, int64, error) {
	if f.PageSize == 0 {
		f.PageSize = defaultPageSize
	}
	return uc.Products.List(ctx, f)
}

// ListPublic es el listado de la tienda: sólo productos activos.
func (uc *ProductUC) ListPublic(ctx context.Context, f domain.ProductFilter) ([]domain.Product, int64, error) {
	active := true
	f.Active = &active
	return uc.List(ctx, f)
}

func (uc *ProductUC) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return uc.Products.FindByID(ctx, id)
}

func (uc *ProductUC) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	if slug == "" {
		return nil, errors.New("slug vacío")
	}
	return uc.Products.FindBySlug(ctx, slug)
}

// GetPublicBySlug oculta los productos inactivos como si no existieran.
func (uc *ProductUC) GetPublicBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	p, err := uc.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (uc *ProductUC) Create(ctx context.Context, p *domain.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	slug, err := uc.uniqueSlug(ctx, p.Name, p.ID)
	if err != nil {
		return err
	}
	p.Slug = slug
	if p.ImageURL == "" && len(p.GalleryImages) > 0 {
		p.ImageURL = p.GalleryImages[0]
	}
	return uc.Products.Save(ctx, p)
}

// Update reemplaza los campos editables. El slug se recalcula sólo si cambia el nombre.
func (uc *ProductUC) Update(ctx context.Context, p *domain.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	cur, err := uc.Products.FindByID(ctx, p.ID)
	if err != nil {
		return err
	}
	p.Slug = cur.Slug
	if p.Name != cur.Name {
		if p.Slug, err = uc.uniqueSlug(ctx, p.Name, p.ID); err != nil {
			return err
		}
	}
	p.CreatedAt = cur.CreatedAt
	if p.GalleryImages == nil {
		p.GalleryImages = cur.GalleryImages
	}
	if p.ImageURL == "" {
		p.ImageURL = cur.ImageURL
	}
	return uc.Products.Save(ctx, p)
}

func (uc *ProductUC) Delete(ctx context.Context, id uuid.UUID) error {
	return uc.Products.Delete(ctx, id)
}

func (uc *ProductUC) BulkSetActive(ctx context.Context, ids []uuid.UUID, active bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return uc.Products.BulkSetActive(ctx, ids, active)
}

func (uc *ProductUC) BulkDelete(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return uc.Products.BulkDelete(ctx, ids)
}

// AddImages sube los archivos, los agrega a la galería y usa el primero como
// imagen principal si el producto no tenía una.
func (uc *ProductUC) AddImages(ctx context.Context, id uuid.UUID, files []Upload) (*domain.Product, error) {
	if uc.Storage == nil {
		return nil, errors.New("storage no configurado")
	}
	p, err := uc.Products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		url, err := uc.Storage.Save(ctx, f.Name, f.Body)
		if err != nil {
			return nil, fmt.Errorf("subir %s: %w", f.Name, err)
		}
		p.GalleryImages = append(p.GalleryImages, url)
		if p.ImageURL == "" {
			p.ImageURL = url
		}
	}
	if err := uc.Products.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (uc *ProductUC) RemoveImage(ctx context.Context, id uuid.UUID, url string) (*domain.Product, error) {
	p, err := uc.Products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	kept := make([]string, 0, len(p.GalleryImages))
	for _, g := range p.GalleryImages {
		if g != url {
			kept = append(kept, g)
		}
	}
	p.GalleryImages = kept
	if p.ImageURL == url {
		p.ImageURL = ""
		if len(kept) > 0 {
			p.ImageURL = kept[0]
		}
	}
	if p.FeaturedDetailImage == url {
		p.FeaturedDetailImage = ""
	}
	if err := uc.Products.Save(ctx, p); err != nil {
		return nil, err
	}
	if uc.Storage != nil {
		if err := uc.Storage.Delete(ctx, url); err != nil {
			log.Warn().Err(err).Str("url", url).Msg("no se pudo borrar archivo de imagen")
		}
	}
	return p, nil
}

func (uc *ProductUC) uniqueSlug(ctx context.Context, name string, except uuid.UUID) (string, error) {
	base := domain.Slugify(name)
	if base == "" {
		base = "producto"
	}
	slug := base
	for i := 2; ; i++ {
		exists, err := uc.Products.SlugExists(ctx, slug, except)
		if err != nil {
			return "", err
		}
		if !exists {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

type CatalogUC struct {
	Catalog domain.CatalogRepo
}

func (uc *CatalogUC) List(ctx context.Context, kind domain.CatalogKind, includeInactive bool) ([]domain.CatalogEntry, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("tipo de catálogo %q: %w", kind, domain.ErrNotFound)
	}
	return uc.Catalog.List(ctx, kind, includeInactive)
}

func (uc *CatalogUC) Create(ctx context.Context, kind domain.CatalogKind, e *domain.CatalogEntry) error {
	if err := validateEntry(kind, e); err != nil {
		return err
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.Slug = domain.Slugify(e.Name)
	return uc.Catalog.Save(ctx, kind, e)
}

func (uc *CatalogUC) Update(ctx context.Context, kind domain.CatalogKind, e *domain.CatalogEntry) error {
	if err := validateEntry(kind, e); err != nil {
		return err
	}
	cur, err := uc.Catalog.FindByID(ctx, kind, e.ID)
	if err != nil {
		return err
	}
	e.Slug = domain.Slugify(e.Name)
	e.CreatedAt = cur.CreatedAt
	return uc.Catalog.Save(ctx, kind, e)
}

// SetActive es la baja lógica: las categorías y marcas nunca se borran.
func (uc *CatalogUC) SetActive(ctx context.Context, kind domain.CatalogKind, id uuid.UUID, active bool) error {
	e, err := uc.Catalog.FindByID(ctx, kind, id)
	if err != nil {
		return err
	}
	e.IsActive = active
	return uc.Catalog.Save(ctx, kind, e)
}

func (uc *CatalogUC) BulkSetActive(ctx context.Context, kind domain.CatalogKind, ids []uuid.UUID, active bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return uc.Catalog.BulkSetActive(ctx, kind, ids, active)
}

func validateEntry(kind domain.CatalogKind, e *domain.CatalogEntry) error {
	ve := domain.NewValidationError()
	if !kind.Valid() {
		ve.Add("kind", "tipo de catálogo inválido")
	}
	e.Name = strings.TrimSpace(e.Name)
	if e.Name == "" {
		ve.Add("name", "el nombre es obligatorio")
	} else if domain.Slugify(e.Name) == "" {
		ve.Add("name", "el nombre debe tener letras o números")
	}
	return ve.OrNil()
}
