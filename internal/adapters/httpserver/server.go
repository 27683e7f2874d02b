package httpserver

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"

	"github.com/phenrril/growshop/internal/adapters/storage/localfs"
	"github.com/phenrril/growshop/internal/auth"
	"github.com/phenrril/growshop/internal/usecase"
)

// Deps son los casos de uso y adaptadores que el servidor expone por HTTP.
type Deps struct {
	Products *usecase.ProductUC
	Catalog  *usecase.CatalogUC
	Coupons  *usecase.CouponUC
	Shipping *usecase.ShippingUC
	Orders   *usecase.OrderUC
	Checkout *usecase.CheckoutUC
	Payments *usecase.PaymentUC
	Vouchers *usecase.VoucherUC
	Carrier  *usecase.CarrierUC
	Settings *usecase.SettingsUC
	Account  *usecase.AccountUC
	Auth     *usecase.AuthUC

	Sessions *auth.Sessions
	Guard    *auth.Guard
	OAuth    *oauth2.Config
	Redis    *redis.Client
}

type Options struct {
	PublicDir     string
	StorageDir    string
	CORSOrigins   []string
	CartSecret    string
	MPPublicKey   string
	RatePerMinute int
}

type Server struct {
	Deps
	opts       Options
	cartSecret []byte
	router     chi.Router
}

func New(deps Deps, opts Options) *Server {
	s := &Server{Deps: deps, opts: opts, cartSecret: []byte(opts.CartSecret)}
	if s.Guard != nil {
		s.Guard.Deny = denyJSON
	}
	s.router = s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.router.ServeHTTP(w, r) }

func (s *Server) limiter(prefix string) func(http.Handler) http.Handler {
	return RateLimit(s.Redis, RateLimitConfig{
		RequestsPerWindow: s.opts.RatePerMinute,
		Window:            time.Minute,
		KeyPrefix:         "rl:" + prefix,
	})
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(Logging)
	r.Use(middleware.Recoverer)
	r.Use(CORS(s.opts.CORSOrigins))
	r.Use(middleware.Compress(5))
	r.Use(SecurityAndStaticCache)
	r.Use(s.Guard.Attach)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/webhooks/mp", s.webhookMP)

	r.Get("/auth/google/login", s.handleGoogleLogin)
	r.Get("/auth/google/callback", s.handleGoogleCallback)

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", s.apiProducts)
		r.Get("/products/{slug}", s.apiProductBySlug)
		r.Get("/categories", s.apiCatalog(kindCategory))
		r.Get("/brands", s.apiCatalog(kindBrand))
		r.Get("/settings", s.apiPublicSettings)
		r.Get("/shipping/quote", s.apiShippingQuote)
		r.Post("/coupons/validate", s.apiCouponValidate)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", s.apiCartGet)
			r.Post("/", s.apiCartAdd)
			r.Delete("/", s.apiCartClear)
			r.Put("/items/{id}", s.apiCartSetQuantity)
			r.Delete("/items/{id}", s.apiCartRemove)
		})

		r.With(s.limiter("checkout")).Post("/checkout", s.apiCheckout)

		r.Route("/payments", func(r chi.Router) {
			r.Get("/config", s.apiPaymentsConfig)
			r.With(s.limiter("payments")).Post("/preference", s.apiPaymentPreference)
			r.With(s.limiter("payments")).Post("/card", s.apiPaymentCard)
		})

		r.Route("/auth", func(r chi.Router) {
			r.With(s.limiter("login")).Post("/login", s.apiLogin)
			r.With(s.limiter("login")).Post("/register", s.apiRegister)
			r.Post("/logout", s.apiLogout)
			r.Get("/session", s.apiSession)
		})

		r.Route("/account", func(r chi.Router) {
			r.Use(s.Guard.RequireCustomerAPI)
			r.Get("/profile", s.apiAccountProfile)
			r.Put("/profile", s.apiAccountUpdateProfile)
			r.Get("/orders", s.apiAccountOrders)
			r.Get("/orders/{id}", s.apiAccountOrder)
			r.Get("/orders/{id}/voucher.pdf", s.apiAccountVoucher)
		})

		r.Route("/admin", func(r chi.Router) {
			r.With(s.limiter("login")).Post("/login", s.apiAdminLogin)
			r.Group(func(r chi.Router) {
				r.Use(s.Guard.RequireAdminAPI)
				s.adminRoutes(r)
			})
		})
	})

	if s.opts.StorageDir != "" {
		r.Handle(localfs.PublicPrefix+"*", http.StripPrefix(localfs.PublicPrefix, http.FileServer(http.Dir(s.opts.StorageDir))))
	}

	shell := http.HandlerFunc(s.spaShell)
	r.Get("/login", shell)
	r.Get("/admin/login", shell)
	r.With(s.Guard.RequireAdmin).Get("/admin", shell)
	r.With(s.Guard.RequireAdmin).Get("/admin/*", shell)
	r.With(s.Guard.RequireCustomer).Get("/account", shell)
	r.With(s.Guard.RequireCustomer).Get("/account/*", shell)
	r.NotFound(s.static)
	return r
}

func (s *Server) adminRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", s.adminProducts)
		r.Post("/", s.adminProductCreate)
		r.Post("/bulk", s.adminProductBulk)
		r.Get("/{id}", s.adminProductGet)
		r.Put("/{id}", s.adminProductUpdate)
		r.Delete("/{id}", s.adminProductDelete)
		r.Post("/{id}/images", s.adminProductAddImages)
		r.Delete("/{id}/images", s.adminProductRemoveImage)
	})
	for _, k := range []catalogRoute{kindCategory, kindBrand} {
		r.Route("/"+k.path, func(r chi.Router) {
			r.Get("/", s.adminCatalogList(k))
			r.Post("/", s.adminCatalogCreate(k))
			r.Post("/bulk", s.adminCatalogBulk(k))
			r.Put("/{id}", s.adminCatalogUpdate(k))
			r.Delete("/{id}", s.adminCatalogDeactivate(k))
		})
	}
	r.Route("/coupons", func(r chi.Router) {
		r.Get("/", s.adminCoupons)
		r.Post("/", s.adminCouponCreate)
		r.Post("/bulk", s.adminCouponBulk)
		r.Get("/{id}", s.adminCouponGet)
		r.Put("/{id}", s.adminCouponUpdate)
		r.Delete("/{id}", s.adminCouponDelete)
	})
	r.Route("/shipping-zones", func(r chi.Router) {
		r.Get("/", s.adminZones)
		r.Post("/", s.adminZoneCreate)
		r.Put("/{id}", s.adminZoneUpdate)
		r.Delete("/{id}", s.adminZoneDelete)
	})
	r.Route("/orders", func(r chi.Router) {
		r.Get("/", s.adminOrders)
		r.Get("/export.csv", s.adminOrdersExport(usecase.ExportCSV))
		r.Get("/export.xlsx", s.adminOrdersExport(usecase.ExportXLSX))
		r.Post("/import-tracking", s.adminImportTracking)
		r.Post("/archive", s.adminOrdersArchive)
		r.Post("/delete", s.adminOrdersDelete)
		r.Get("/{id}", s.adminOrderGet)
		r.Put("/{id}/status", s.adminOrderStatus)
		r.Put("/{id}/tracking", s.adminOrderTracking)
		r.Post("/{id}/send-email", s.adminOrderSendEmail)
		r.Get("/{id}/voucher.pdf", s.adminOrderVoucher)
	})
	r.Get("/sales", s.adminSales)
	r.Get("/settings", s.adminSettings)
	r.Put("/settings", s.adminSettingsUpdate)
}

// spaShell sirve index.html; el enrutado del lado del cliente decide qué vista mostrar.
func (s *Server) spaShell(w http.ResponseWriter, r *http.Request) {
	index := filepath.Join(s.opts.PublicDir, "index.html")
	if _, err := os.Stat(index); err != nil {
		respondWithError(w, http.StatusNotFound, "sitio no disponible", nil)
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, index)
}

// static sirve archivos del directorio público y cae al shell del SPA para rutas sin extensión.
func (s *Server) static(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		respondWithError(w, http.StatusNotFound, "ruta no encontrada", nil)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		respondWithError(w, http.StatusMethodNotAllowed, "método no permitido", nil)
		return
	}
	if s.opts.PublicDir != "" {
		clean := filepath.Clean("/" + r.URL.Path)
		p := filepath.Join(s.opts.PublicDir, filepath.FromSlash(clean))
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			http.ServeFile(w, r, p)
			return
		}
		if filepath.Ext(clean) != "" {
			http.NotFound(w, r)
			return
		}
	}
	s.spaShell(w, r)
}
