package httpserver

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/growshop/internal/domain"
	"github.com/phenrril/growshop/internal/usecase"
)

const salesDefaultDays = 30

type orderDetail struct {
	Order        *domain.Order        `json:"order"`
	Reference    string               `json:"reference"`
	EmailStates  []usecase.EmailState `json:"email_states"`
	NextStatuses []domain.OrderStatus `json:"next_statuses"`
}

func newOrderDetail(o *domain.Order) orderDetail {
	next := domain.NextStatuses(o.Status)
	if next == nil {
		next = []domain.OrderStatus{}
	}
	return orderDetail{Order: o, Reference: o.Reference(), EmailStates: usecase.EmailStates(o), NextStatuses: next}
}

func (s *Server) adminOrders(w http.ResponseWriter, r *http.Request) {
	ve := domain.NewValidationError()
	q := r.URL.Query()
	f := domain.OrderFilter{
		Archived: queryBool(r, "archived"),
		Query:    strings.TrimSpace(q.Get("q")),
		Email:    strings.TrimSpace(q.Get("email")),
		From:     queryDate(r, "from", false, ve),
		To:       queryDate(r, "to", true, ve),
		Page:     queryInt(r, "page", 1),
		PageSize: pageSize(r),
	}
	if raw := q.Get("status"); raw != "" {
		st, ok := domain.ParseOrderStatus(raw)
		if !ok {
			ve.Add("status", "estado inválido")
		} else {
			f.Status = &st
		}
	}
	if err := ve.OrNil(); err != nil {
		respondErr(w, r, err)
		return
	}
	items, total, err := s.Orders.List(r.Context(), f)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(items, total, f.Page, f.PageSize))
}

func (s *Server) adminOrderGet(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		respondErr(w, r, err)
		return
	}
	o, err := s.Orders.Get(r.Context(), id)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderDetail(o))
}

type statusRequest struct {
	Status         string `json:"status" validate:"required"`
	TrackingNumber string `json:"tracking_number" validate:"max=80"`
	Force          bool   `json:"force"`
}

func (s *Server) adminOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		respondErr(w, r, err)
		return
	}
	var req statusRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondErr(w, r, err)
		return
	}
	st := domain.OrderStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	o, err := s.Orders.UpdateStatus(r.Context(), id, st, req.TrackingNumber, req.Force)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	log.Info().Str("order_id", id.String()).Str("status", string(st)).Bool("force", req.Force).Msg("estado de orden actualizado")
	writeJSON(w, http.StatusOK, newOrderDetail(o))
}

type trackingRequest struct {
	TrackingNumber string `json:"tracking_number" validate:"max=80"`
}

func (s *Server) adminOrderTracking(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		respondErr(w, r, err)
		return
	}
	var req trackingRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondErr(w, r, err)
		return
	}
	if err := s.Orders.UpdateTracking(r.Context(), id, req.TrackingNumber); err != nil {
		respondErr(w, r, err)
		return
	}
	o, err := s.Orders.Get(r.Context(), id)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderDetail(o))
}

func (s *Server) adminOrderSendEmail(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		respondErr(w, r, err)
		return
	}
	o, err := s.Orders.SendStatusEmail(r.Context(), id)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderDetail(o))
}

func (s *Server) adminOrderVoucher(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		respondErr(w, r, err)
		return
	}
	pdf, o, err := s.Vouchers.Generate(r.Context(), id)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	writePDF(w, o.Reference(), pdf)
}

type archiveRequest struct {
	IDs      []uuid.UUID `json:"ids" validate:"required,min=1"`
	Archived bool        `json:"archived"`
}

func (s *Server) adminOrdersArchive(w http.ResponseWriter, r *http.Request) {
	var req archiveRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondErr(w, r, err)
		return
	}
	n, err := s.Orders.SetArchived(r.Context(), req.IDs, req.Archived)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, affectedResponse{Affected: n})
}

func (s *Server) adminOrdersDelete(w http.ResponseWriter, r *http.Request) {
	var req idsRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondErr(w, r, err)
		return
	}
	n, err := s.Orders.Delete(r.Context(), req.IDs)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	log.Warn().Int64("affected", n).Msg("órdenes eliminadas")
	writeJSON(w, http.StatusOK, affectedResponse{Affected: n})
}

// adminOrdersExport arma la planilla en memoria para poder responder JSON si falla.
func (s *Server) adminOrdersExport(format usecase.ExportFormat) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		n, err := s.Carrier.Export(r.Context(), &buf, format)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		name := "envios-" + time.Now().Format("20060102") + "." + string(format)
		ctype := "text/csv; charset=utf-8"
		if format == usecase.ExportXLSX {
			ctype = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		}
		w.Header().Set("Content-Type", ctype)
		w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
		w.Header().Set("X-Export-Count", strconv.Itoa(n))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
	}
}

func (s *Server) adminImportTracking(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondWithError(w, http.StatusBadRequest, "formulario multipart inválido", nil)
		return
	}
	defer r.MultipartForm.RemoveAll()
	f, fh, err := r.FormFile("file")
	if err != nil {
		ve := domain.NewValidationError()
		ve.Add("file", "no se recibió la planilla")
		respondErr(w, r, ve)
		return
	}
	defer f.Close()

	res, err := s.Carrier.ImportTracking(r.Context(), fh.Filename, f)
	if err != nil && res != nil {
		log.Error().Err(err).Int("updated", res.Updated).Int("total", res.Total).Msg("importación de tracking interrumpida")
		respondWithError(w, http.StatusInternalServerError, "importación interrumpida", map[string]any{
			"updated": res.Updated,
			"errors":  res.Errors,
			"total":   res.Total,
		})
		return
	}
	if err != nil {
		respondErr(w, r, err)
		return
	}
	log.Info().Int("updated", res.Updated).Int("errors", res.Errors).Int("total", res.Total).Str("file", fh.Filename).Msg("tracking importado")
	writeJSON(w, http.StatusOK, res)
}

// adminSales usa por defecto los últimos 30 días incluyendo hoy.
func (s *Server) adminSales(w http.ResponseWriter, r *http.Request) {
	ve := domain.NewValidationError()
	from := queryDate(r, "from", false, ve)
	to := queryDate(r, "to", true, ve)
	if err := ve.OrNil(); err != nil {
		respondErr(w, r, err)
		return
	}
	now := time.Now()
	if to == nil {
		end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
		to = &end
	}
	if from == nil {
		start := to.AddDate(0, 0, -salesDefaultDays)
		from = &start
	}
	sum, err := s.Orders.Sales(r.Context(), *from, *to)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
