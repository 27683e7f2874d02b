package httpserver

import (
	"net/http"

	"github.com/phenrril/growshop/internal/domain"
	"github.com/phenrril/growshop/internal/usecase"
)

func (s *Server) currentProfile(r *http.Request) (*domain.Profile, error) {
	sess, ok := sessionFrom(r)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	return s.Account.Profile(r.Context(), sess.ProfileID)
}

func (s *Server) apiAccountProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.currentProfile(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) apiAccountUpdateProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.currentProfile(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	var in usecase.ProfileUpdate
	if err := decodeAndValidate(r, &in); err != nil {
		respondErr(w, r, err)
		return
	}
	updated, err := s.Account.UpdateProfile(r.Context(), p.ID, in)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) apiAccountOrders(w http.ResponseWriter, r *http.Request) {
	p, err := s.currentProfile(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	page := queryInt(r, "page", 1)
	items, total, err := s.Account.Orders(r.Context(), p, page)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(items, total, page, 0))
}

func (s *Server) apiAccountOrder(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		respondErr(w, r, err)
		return
	}
	p, err := s.currentProfile(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	o, err := s.Account.Order(r.Context(), p, id)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, checkoutResponse{Order: o, Reference: o.Reference()})
}

func (s *Server) apiAccountVoucher(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		respondErr(w, r, err)
		return
	}
	p, err := s.currentProfile(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	pdf, o, err := s.Account.Voucher(r.Context(), p, id)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	writePDF(w, o.Reference(), pdf)
}
