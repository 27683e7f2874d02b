package httpserver

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/phenrril/growshop/internal/domain"
)

type fakeProducts struct {
	mu   sync.Mutex
	byID map[uuid.UUID]domain.Product
}

func newFakeProducts(ps ...domain.Product) *fakeProducts {
	f := &fakeProducts{byID: map[uuid.UUID]domain.Product{}}
	for _, p := range ps {
		f.byID[p.ID] = p
	}
	return f
}

func (f *fakeProducts) Save(_ context.Context, p *domain.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[p.ID] = *p
	return nil
}

func (f *fakeProducts) FindByID(_ context.Context, id uuid.UUID) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (f *fakeProducts) FindBySlug(_ context.Context, slug string) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.byID {
		if p.Slug == slug {
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeProducts) FindByIDs(_ context.Context, ids []uuid.UUID) ([]domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Product{}
	for _, id := range ids {
		if p, ok := f.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProducts) List(_ context.Context, flt domain.ProductFilter) ([]domain.Product, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Product{}
	for _, p := range f.byID {
		if flt.Active != nil && p.IsActive != *flt.Active {
			continue
		}
		if flt.Query != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(flt.Query)) {
			continue
		}
		out = append(out, p)
	}
	return out, int64(len(out)), nil
}

func (f *fakeProducts) SlugExists(_ context.Context, slug string, except uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.byID {
		if p.Slug == slug && p.ID != except {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeProducts) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byID, id)
	return nil
}

func (f *fakeProducts) BulkSetActive(_ context.Context, ids []uuid.UUID, active bool) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, id := range ids {
		if p, ok := f.byID[id]; ok {
			p.IsActive = active
			f.byID[id] = p
			n++
		}
	}
	return n, nil
}

func (f *fakeProducts) BulkDelete(_ context.Context, ids []uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := f.byID[id]; ok {
			delete(f.byID, id)
			n++
		}
	}
	return n, nil
}

type fakeProfiles struct {
	mu   sync.Mutex
	byID map[uuid.UUID]domain.Profile
}

func newFakeProfiles(ps ...domain.Profile) *fakeProfiles {
	f := &fakeProfiles{byID: map[uuid.UUID]domain.Profile{}}
	for _, p := range ps {
		f.byID[p.ID] = p
	}
	return f
}

func (f *fakeProfiles) FindByID(_ context.Context, id uuid.UUID) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (f *fakeProfiles) FindByEmail(_ context.Context, email string) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.byID {
		if strings.EqualFold(p.Email, email) {
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeProfiles) Save(_ context.Context, p *domain.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[p.ID] = *p
	return nil
}
