package usecase

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/growshop/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func TestProductCreateRejectsInvalidBeforeAnyRepoCall(t *testing.T) {
	tests := []struct {
		name  string
		p     domain.Product
		field string
	}{
		{"oferta igual al precio", domain.Product{Name: "Maceta", Price: 1000, SalePrice: ptr(1000.0)}, "sale_price"},
		{"oferta mayor al precio", domain.Product{Name: "Maceta", Price: 1000, SalePrice: ptr(1500.0)}, "sale_price"},
		{"sin nombre", domain.Product{Price: 1000}, "name"},
		{"precio cero", domain.Product{Name: "Maceta"}, "price"},
		{"stock negativo", domain.Product{Name: "Maceta", Price: 10, StockQuantity: -1}, "stock_quantity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemProducts()
			uc := &ProductUC{Products: repo}
			p := tt.p
			err := uc.Create(context.Background(), &p)
			require.Error(t, err)
			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.True(t, ve.Has(tt.field))
			assert.Zero(t, repo.calls)
		})
	}
}

func TestProductCreateUniqueSlug(t *testing.T) {
	repo := newMemProducts()
	uc := &ProductUC{Products: repo}
	ctx := context.Background()

	var slugs []string
	for i := 0; i < 3; i++ {
		p := &domain.Product{Name: "Árbol Verde", Price: 9990, IsActive: true}
		require.NoError(t, uc.Create(ctx, p))
		slugs = append(slugs, p.Slug)
	}
	assert.Equal(t, []string{"arbol-verde", "arbol-verde-2", "arbol-verde-3"}, slugs)
}

func TestProductUpdateKeepsSlugUnlessRenamed(t *testing.T) {
	repo := newMemProducts()
	uc := &ProductUC{Products: repo}
	ctx := context.Background()
	p := &domain.Product{Name: "Sustrato", Price: 5000, IsActive: true, GalleryImages: []string{"/uploads/a.png"}}
	require.NoError(t, uc.Create(ctx, p))
	assert.Equal(t, "/uploads/a.png", p.ImageURL)

	upd := &domain.Product{ID: p.ID, Name: "Sustrato", Price: 4500}
	require.NoError(t, uc.Update(ctx, upd))
	assert.Equal(t, "sustrato", upd.Slug)
	assert.Equal(t, []string{"/uploads/a.png"}, upd.GalleryImages)

	upd = &domain.Product{ID: p.ID, Name: "Sustrato Premium", Price: 4500}
	require.NoError(t, uc.Update(ctx, upd))
	assert.Equal(t, "sustrato-premium", upd.Slug)

	err := uc.Update(ctx, &domain.Product{ID: uuid.New(), Name: "X", Price: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProductImages(t *testing.T) {
	repo := newMemProducts()
	storage := newMemStorage()
	uc := &ProductUC{Products: repo, Storage: storage}
	ctx := context.Background()
	p := &domain.Product{Name: "Tijera", Price: 3990}
	require.NoError(t, uc.Create(ctx, p))

	got, err := uc.AddImages(ctx, p.ID, []Upload{
		{Name: "a.png", Body: stringsReader("A")},
		{Name: "b.png", Body: stringsReader("B")},
	})
	require.NoError(t, err)
	require.Len(t, got.GalleryImages, 2)
	assert.Equal(t, got.GalleryImages[0], got.ImageURL)

	first := got.GalleryImages[0]
	got, err = uc.RemoveImage(ctx, p.ID, first)
	require.NoError(t, err)
	assert.Equal(t, got.GalleryImages[0], got.ImageURL)
	assert.Len(t, got.GalleryImages, 1)
	assert.Equal(t, []string{first}, storage.deleted)
}

func TestProductPublicReadsHideInactive(t *testing.T) {
	on := domain.Product{ID: uuid.New(), Name: "Activo", Slug: "activo", Price: 10, IsActive: true}
	off := domain.Product{ID: uuid.New(), Name: "Inactivo", Slug: "inactivo", Price: 10}
	uc := &ProductUC{Products: newMemProducts(on, off)}
	ctx := context.Background()

	list, total, err := uc.ListPublic(ctx, domain.ProductFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "Activo", list[0].Name)

	_, err = uc.GetPublicBySlug(ctx, "inactivo")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = uc.GetBySlug(ctx, "inactivo")
	assert.NoError(t, err)
}

func TestProductBulk(t *testing.T) {
	a := domain.Product{ID: uuid.New(), Name: "A", Price: 1, IsActive: true}
	b := domain.Product{ID: uuid.New(), Name: "B", Price: 1, IsActive: true}
	repo := newMemProducts(a, b)
	uc := &ProductUC{Products: repo}
	ctx := context.Background()

	n, err := uc.BulkSetActive(ctx, nil, false)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, repo.calls)

	n, err = uc.BulkSetActive(ctx, []uuid.UUID{a.ID, b.ID}, false)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = uc.BulkDelete(ctx, []uuid.UUID{a.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Len(t, repo.items, 1)
}

func TestCatalogSoftDelete(t *testing.T) {
	repo := newMemCatalog()
	uc := &CatalogUC{Catalog: repo}
	ctx := context.Background()

	e := &domain.CatalogEntry{Name: " Árbol Verde ", IsActive: true}
	require.NoError(t, uc.Create(ctx, domain.KindBrand, e))
	assert.Equal(t, "arbol-verde", e.Slug)
	assert.Equal(t, "Árbol Verde", e.Name)

	require.NoError(t, uc.SetActive(ctx, domain.KindBrand, e.ID, false))
	active, err := uc.List(ctx, domain.KindBrand, false)
	require.NoError(t, err)
	assert.Empty(t, active)
	all, err := uc.List(ctx, domain.KindBrand, true)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = uc.List(ctx, domain.CatalogKind("color"), true)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	err = uc.Create(ctx, domain.KindCategory, &domain.CatalogEntry{Name: "!!"})
	assert.True(t, domain.IsValidation(err))
}
