package auth

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/growshop/internal/domain"
)

type RouteKind int

const (
	RouteCustomer RouteKind = iota
	RouteAdmin
)

const (
	CustomerLoginPath = "/login"
	AdminLoginPath    = "/admin/login"
	StorefrontPath    = "/"
)

type Decision struct {
	Allow    bool
	Redirect string
}

// Evaluate decide si una ruta protegida se sirve o a dónde se redirige.
// Sólo las rutas de cliente conservan la ruta pedida para volver tras el login.
func Evaluate(kind RouteKind, s *Session, requested string) Decision {
	switch kind {
	case RouteAdmin:
		if s == nil {
			return Decision{Redirect: AdminLoginPath}
		}
		if !s.IsAdmin() {
			return Decision{Redirect: StorefrontPath}
		}
	default:
		if s == nil {
			if requested == "" {
				requested = StorefrontPath
			}
			return Decision{Redirect: CustomerLoginPath + "?redirect=" + url.QueryEscape(requested)}
		}
	}
	return Decision{Allow: true}
}

type profileFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
}

type ctxKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok && s != nil
}

// Guard resuelve la sesión de cada petición y protege rutas de páginas y de API.
type Guard struct {
	sessions *Sessions
	profiles profileFinder
	// Deny escribe la respuesta de las rutas de API rechazadas.
	Deny func(w http.ResponseWriter, r *http.Request, err error)
}

func NewGuard(sessions *Sessions, profiles profileFinder) *Guard {
	return &Guard{sessions: sessions, profiles: profiles, Deny: defaultDeny}
}

func defaultDeny(w http.ResponseWriter, _ *http.Request, err error) {
	code := http.StatusUnauthorized
	if errors.Is(err, domain.ErrForbidden) {
		code = http.StatusForbidden
	}
	http.Error(w, err.Error(), code)
}

// Resolve valida el token y vuelve a leer el rol desde el perfil; nil si no hay sesión válida.
func (g *Guard) Resolve(r *http.Request) *Session {
	if s, ok := FromContext(r.Context()); ok {
		return s
	}
	s, err := g.sessions.Parse(TokenFromRequest(r))
	if err != nil {
		return nil
	}
	if g.profiles == nil {
		return s
	}
	p, err := g.profiles.FindByID(r.Context(), s.ProfileID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			log.Warn().Err(err).Str("profile_id", s.ProfileID.String()).Msg("no se pudo leer el perfil de la sesión")
		}
		return nil
	}
	s.Role = p.Role
	s.Email = p.Email
	if p.FullName != "" {
		s.Name = p.FullName
	}
	return s
}

// Attach deja la sesión (si existe) en el contexto sin exigirla.
func (g *Guard) Attach(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s := g.Resolve(r); s != nil {
			r = r.WithContext(WithSession(r.Context(), s))
		}
		next.ServeHTTP(w, r)
	})
}

func (g *Guard) page(kind RouteKind, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := g.Resolve(r)
		d := Evaluate(kind, s, r.URL.RequestURI())
		if !d.Allow {
			http.Redirect(w, r, d.Redirect, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
	})
}

func (g *Guard) api(kind RouteKind, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := g.Resolve(r)
		if s == nil {
			g.Deny(w, r, domain.ErrUnauthorized)
			return
		}
		if kind == RouteAdmin && !s.IsAdmin() {
			g.Deny(w, r, domain.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
	})
}

func (g *Guard) RequireCustomer(next http.Handler) http.Handler { return g.page(RouteCustomer, next) }

func (g *Guard) RequireAdmin(next http.Handler) http.Handler { return g.page(RouteAdmin, next) }

func (g *Guard) RequireCustomerAPI(next http.Handler) http.Handler {
	return g.api(RouteCustomer, next)
}

func (g *Guard) RequireAdminAPI(next http.Handler) http.Handler { return g.api(RouteAdmin, next) }
