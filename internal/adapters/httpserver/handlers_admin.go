package httpserver

import (
	"mime/multipart"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/phenrril/growshop/internal/domain"
	"github.com/phenrril/growshop/internal/usecase"
)

const maxUploadBytes = 32 << 20

type affectedResponse struct {
	Affected int64 `json:"affected"`
}

// Productos

func (s *Server) adminProducts(w http.ResponseWriter, r *http.Request) {
	f, err := productFilter(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	f.Active = queryBool(r, "active")
	items, total, err := s.Products.List(r.Context(), f)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(items, total, f.Page, f.PageSize))
}

func (s *Server) adminProductGet(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		respondErr(w, r, err)
		return
	}
	p, err := s.Products.Get(r.Context(), id)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) adminProductCreate(w http.ResponseWriter, r *http.Request) {
	var p domain.Product
	if err := decodeAndValidate(r, &p); err != nil {
		respondErr(w, r, err)
		return
	}
	if err := s.Products.Create(r.Context(), &p); err != nil {
		respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) adminProductUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		respondErr(w, r, err)
		return
	}
	var p domain.Product
	if err := decodeAndValidate(r, &p); err != nil {
		respondErr(w, r, err)
		return
	}
	p.ID = id
	if err := s.Products.Update(r.Context(), &p); err != nil {
		respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) adminProductDelete(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		respondErr(w, r, err)
		return
	}
	if err := s.Products.Delete(r.Context(), id); err != nil {
		respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) adminProductBulk(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondErr(w, r, err)
		return
	}
	var n int64
	var err error
	switch req.Action {
	case "delete":
		n, err = s.Products.BulkDelete(r.Context(), req.IDs)
	default:
		n, err = s.Products.BulkSetActive(r.Context(), req.IDs, req.Action == "activate")
	}
	if err != nil {
		respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, affectedResponse{Affected: n})
}

func (s *Server) adminProductAddImages(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		respondErr(w, r, err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondWithError(w, http.StatusBadRequest, "formulario multipart inválido", nil)
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["images"]
	if len(headers) == 0 {
		ve := domain.NewValidationError()
		ve.Add("images", "no se recibieron imágenes")
		respondErr(w, r, ve)
		return
	}
	uploads := make([]usecase.Upload, 0, len(headers))
	files := make([]multipart.File, 0, len(headers))
	defer func() {
		for _, f := range files {
			_ = f.Close()
		}
	}()
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "no se pudo leer "+fh.Filename, nil)
			return
		}
		files = append(files, f)
		uploads = append(uploads, usecase.Upload{Name: fh.Filename, Body: f})
	}
	p, err := s.Products.AddImages(r.Context(), id, uploads)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) adminProductRemoveImage(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		respondErr(w, r, err)
		return
	}
	url := r.URL.Query().Get("url")
	if url == "" {
		ve := domain.NewValidationError()
		ve.Add("url", "campo obligatorio")
		respondErr(w, r, ve)
		return
	}
	p, err := s.Products.RemoveImage(r.Context(), id, url)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Categorías y marcas

type catalogInput struct {
	Name        string `json:"name" validate:"required,max=140"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

func (in catalogInput) entry() domain.CatalogEntry {
	e := domain.CatalogEntry{Name: in.Name, Description: in.Description, IsActive: true}
	if in.IsActive != nil {
		e.IsActive = *in.IsActive
	}
	return e
}

func (s *Server) adminCatalogList(k catalogRoute) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := s.Catalog.List(r.Context(), k.kind, true)
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

func (s *Server) adminCatalogCreate(k catalogRoute) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in catalogInput
		if err := decodeAndValidate(r, &in); err != nil {
			respondErr(w, r, err)
			return
		}
		e := in.entry()
		if err := s.Catalog.Create(r.Context(), k.kind, &e); err != nil {
			respondErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, e)
	}
}

func (s *Server) adminCatalogUpdate(k catalogRoute) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "id")
		if err != nil {
			respondErr(w, r, err)
			return
		}
		var in catalogInput
		if err := decodeAndValidate(r, &in); err != nil {
			respondErr(w, r, err)
			return
		}
		e := in.entry()
		e.ID = id
		if err := s.Catalog.Update(r.Context(), k.kind, &e); err != nil {
			respondErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}

// adminCatalogDeactivate es el DELETE del panel: baja lógica.
func (s *Server) adminCatalogDeactivate(k catalogRoute) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "id")
		if err != nil {
			respondErr(w, r, err)
			return
		}
		if err := s.Catalog.SetActive(r.Context(), k.kind, id, false); err != nil {
			respondErr(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) adminCatalogBulk(k catalogRoute) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req bulkRequest
		if err := decodeAndValidate(r, &req); err != nil {
			respondErr(w, r, err)
			return
		}
		// delete también es baja lógica
		n, err := s.Catalog.BulkSetActive(r.Context(), k.kind, req.IDs, req.Action == "activate")
		if err != nil {
			respondErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, affectedResponse{Affected: n})
	}
}

// Cupones

func (s *Server) adminCoupons(w http.ResponseWriter, r *http.Request) {
	items, err := s.Coupons.List(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	if items == nil {
		items = []domain.Coupon{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) adminCouponGet(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		respondErr(w, r, err)
		return
	}
	c, err := s.Coupons.Get(r.Context(), id)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) adminCouponCreate(w http.ResponseWriter, r *http.Request) {
	var c domain.Coupon
	if err := decodeAndValidate(r, &c); err != nil {
		respondErr(w, r, err)
		return
	}
	if err := s.Coupons.Create(r.Context(), &c); err != nil {
		respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) adminCouponUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		respondErr(w, r, err)
		return
	}
	var c domain.Coupon
	if err := decodeAndValidate(r, &c); err != nil {
		respondErr(w, r, err)
		return
	}
	c.ID = id
	if err := s.Coupons.Update(r.Context(), &c); err != nil {
		respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) adminCouponDelete(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		respondErr(w, r, err)
		return
	}
	if err := s.Coupons.Delete(r.Context(), id); err != nil {
		respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) adminCouponBulk(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondErr(w, r, err)
		return
	}
	var n int64
	var err error
	if req.Action == "delete" {
		n, err = s.Coupons.BulkDelete(r.Context(), req.IDs)
	} else {
		n, err = s.Coupons.BulkSetActive(r.Context(), req.IDs, req.Action == "activate")
	}
	if err != nil {
		respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, affectedResponse{Affected: n})
}

// Zonas de despacho

func (s *Server) adminZones(w http.ResponseWriter, r *http.Request) {
	items, err := s.Shipping.List(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	if items == nil {
		items = []domain.ShippingZone{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) adminZoneCreate(w http.ResponseWriter, r *http.Request) {
	var z domain.ShippingZone
	if err := decodeAndValidate(r, &z); err != nil {
		respondErr(w, r, err)
		return
	}
	if err := s.Shipping.Create(r.Context(), &z); err != nil {
		respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, z)
}

func (s *Server) adminZoneUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		respondErr(w, r, err)
		return
	}
	var z domain.ShippingZone
	if err := decodeAndValidate(r, &z); err != nil {
		respondErr(w, r, err)
		return
	}
	z.ID = id
	if err := s.Shipping.Update(r.Context(), &z); err != nil {
		respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, z)
}

func (s *Server) adminZoneDelete(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		respondErr(w, r, err)
		return
	}
	if err := s.Shipping.Delete(r.Context(), id); err != nil {
		respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Configuración

func (s *Server) adminSettings(w http.ResponseWriter, r *http.Request) {
	st, err := s.Settings.Get(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) adminSettingsUpdate(w http.ResponseWriter, r *http.Request) {
	var st domain.Settings
	if err := decodeAndValidate(r, &st); err != nil {
		respondErr(w, r, err)
		return
	}
	if err := s.Settings.Update(r.Context(), &st); err != nil {
		respondErr(w, r, err)
		return
	}
	log.Info().Str("business_name", st.BusinessName).Msg("configuración actualizada")
	writeJSON(w, http.StatusOK, st)
}
