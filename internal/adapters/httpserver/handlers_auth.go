package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/phenrril/growshop/internal/auth"
	"github.com/phenrril/growshop/internal/domain"
	"github.com/phenrril/growshop/internal/usecase"
)

const (
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
	oauthStateCookie  = "oauth_state"
	oauthNextCookie   = "oauth_next"
)

func sessionFrom(r *http.Request) (*auth.Session, bool) {
	return auth.FromContext(r.Context())
}

type sessionResponse struct {
	Authenticated bool        `json:"authenticated"`
	ProfileID     *uuid.UUID  `json:"profile_id,omitempty"`
	Email         string      `json:"email,omitempty"`
	Name          string      `json:"name,omitempty"`
	Role          domain.Role `json:"role,omitempty"`
	ExpiresAt     *time.Time  `json:"expires_at,omitempty"`
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request, p *domain.Profile) (sessionResponse, error) {
	tok, exp, err := s.Sessions.Issue(p)
	if err != nil {
		return sessionResponse{}, err
	}
	s.Sessions.SetCookie(w, r, tok, exp)
	id := p.ID
	return sessionResponse{Authenticated: true, ProfileID: &id, Email: p.Email, Name: p.FullName, Role: p.Role, ExpiresAt: &exp}, nil
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (s *Server) apiLogin(w http.ResponseWriter, r *http.Request) {
	s.login(w, r, s.Auth.Login)
}

func (s *Server) apiAdminLogin(w http.ResponseWriter, r *http.Request) {
	s.login(w, r, s.Auth.AdminLogin)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, email, password string) (*domain.Profile, error)) {
	var req loginRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondErr(w, r, err)
		return
	}
	p, err := fn(r.Context(), req.Email, req.Password)
	if err != nil {
		log.Info().Str("email", req.Email).Str("path", r.URL.Path).Msg("login rechazado")
		respondErr(w, r, err)
		return
	}
	resp, err := s.startSession(w, r, p)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) apiRegister(w http.ResponseWriter, r *http.Request) {
	var in usecase.RegisterInput
	if err := decodeAndValidate(r, &in); err != nil {
		respondErr(w, r, err)
		return
	}
	p, err := s.Auth.Register(r.Context(), in)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	resp, err := s.startSession(w, r, p)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) apiLogout(w http.ResponseWriter, r *http.Request) {
	s.Sessions.ClearCookie(w, r)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) apiSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(r)
	if !ok {
		writeJSON(w, http.StatusOK, sessionResponse{})
		return
	}
	id, exp := sess.ProfileID, sess.ExpiresAt
	writeJSON(w, http.StatusOK, sessionResponse{
		Authenticated: true,
		ProfileID:     &id,
		Email:         sess.Email,
		Name:          sess.Name,
		Role:          sess.Role,
		ExpiresAt:     &exp,
	})
}

// safeRedirect sólo acepta rutas locales.
func safeRedirect(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return fallback
	}
	return next
}

func (s *Server) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if s.OAuth == nil {
		respondWithError(w, http.StatusServiceUnavailable, "login con Google no configurado", nil)
		return
	}
	state := uuid.New().String()
	secure := r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Value: state, Path: "/", MaxAge: 300, HttpOnly: true, Secure: secure, SameSite: http.SameSiteLaxMode})
	if next := safeRedirect(r.URL.Query().Get("redirect"), ""); next != "" {
		http.SetCookie(w, &http.Cookie{Name: oauthNextCookie, Value: next, Path: "/", MaxAge: 300, HttpOnly: true, Secure: secure, SameSite: http.SameSiteLaxMode})
	}
	http.Redirect(w, r, s.OAuth.AuthCodeURL(state, oauth2.AccessTypeOnline), http.StatusFound)
}

func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if s.OAuth == nil {
		respondWithError(w, http.StatusServiceUnavailable, "login con Google no configurado", nil)
		return
	}
	q := r.URL.Query()
	c, _ := r.Cookie(oauthStateCookie)
	if c == nil || c.Value == "" || c.Value != q.Get("state") {
		respondWithError(w, http.StatusBadRequest, "estado OAuth inválido", nil)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Value: "", Path: "/", MaxAge: -1})

	tok, err := s.OAuth.Exchange(r.Context(), q.Get("code"))
	if err != nil {
		log.Error().Err(err).Msg("exchange oauth")
		respondWithError(w, http.StatusBadRequest, "no se pudo validar el login con Google", nil)
		return
	}
	email, name, err := s.googleUserInfo(r, tok)
	if err != nil {
		log.Error().Err(err).Msg("userinfo google")
		respondWithError(w, http.StatusBadRequest, "no se pudo leer el perfil de Google", nil)
		return
	}
	p, err := s.Auth.GoogleLogin(r.Context(), email, name)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	if _, err := s.startSession(w, r, p); err != nil {
		respondErr(w, r, err)
		return
	}
	next := "/account"
	if nc, err := r.Cookie(oauthNextCookie); err == nil {
		next = safeRedirect(nc.Value, next)
		http.SetCookie(w, &http.Cookie{Name: oauthNextCookie, Value: "", Path: "/", MaxAge: -1})
	}
	if p.IsAdmin() && next == "/account" {
		next = "/admin"
	}
	http.Redirect(w, r, next, http.StatusFound)
}

func (s *Server) googleUserInfo(r *http.Request, tok *oauth2.Token) (string, string, error) {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, googleUserInfoURL, nil)
	if err != nil {
		return "", "", err
	}
	resp, err := s.OAuth.Client(r.Context(), tok).Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("userinfo status %d", resp.StatusCode)
	}
	var info struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&info); err != nil {
		return "", "", err
	}
	if info.Email == "" || !info.EmailVerified {
		return "", "", fmt.Errorf("email de Google ausente o sin verificar")
	}
	return info.Email, info.Name, nil
}
