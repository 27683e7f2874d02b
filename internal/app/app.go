package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"

	"github.com/phenrril/growshop/internal/adapters/httpserver"
	"github.com/phenrril/growshop/internal/adapters/notify"
	"github.com/phenrril/growshop/internal/adapters/payments/mercadopago"
	"github.com/phenrril/growshop/internal/adapters/repo/postgres"
	"github.com/phenrril/growshop/internal/adapters/storage/localfs"
	"github.com/phenrril/growshop/internal/adapters/voucher"
	"github.com/phenrril/growshop/internal/auth"
	"github.com/phenrril/growshop/internal/config"
	"github.com/phenrril/growshop/internal/domain"
	"github.com/phenrril/growshop/internal/usecase"
)

type App struct {
	DB    *gorm.DB
	Cfg   *config.Config
	Redis *redis.Client

	ProductUC  *usecase.ProductUC
	CatalogUC  *usecase.CatalogUC
	CouponUC   *usecase.CouponUC
	ShippingUC *usecase.ShippingUC
	OrderUC    *usecase.OrderUC
	CheckoutUC *usecase.CheckoutUC
	PaymentUC  *usecase.PaymentUC
	VoucherUC  *usecase.VoucherUC
	CarrierUC  *usecase.CarrierUC
	SettingsUC *usecase.SettingsUC
	AccountUC  *usecase.AccountUC
	AuthUC     *usecase.AuthUC

	Sessions    *auth.Sessions
	Guard       *auth.Guard
	OAuthConfig *oauth2.Config

	settingsRepo domain.SettingsRepo
}

func NewApp(db *gorm.DB, cfg *config.Config) (*App, error) {
	if err := os.MkdirAll(cfg.Storage.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("directorio de uploads %q: %w", cfg.Storage.Dir, err)
	}

	prodRepo := postgres.NewProductRepo(db)
	catalogRepo := postgres.NewCatalogRepo(db)
	couponRepo := postgres.NewCouponRepo(db)
	zoneRepo := postgres.NewShippingZoneRepo(db)
	orderRepo := postgres.NewOrderRepo(db)
	profileRepo := postgres.NewProfileRepo(db)
	settingsRepo := postgres.NewSettingsRepo(db)

	mailer := notify.NewMailer(notify.SMTPConfig{
		Host:    cfg.SMTP.Host,
		Port:    cfg.SMTP.Port,
		User:    cfg.SMTP.User,
		Pass:    cfg.SMTP.Pass,
		From:    cfg.SMTP.From,
		BaseURL: cfg.Server.BaseURL,
	})
	if !mailer.Enabled() {
		log.Warn().Msg("SMTP no configurado, los correos de estado quedan deshabilitados")
	}
	telegram := notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatIDs)

	gateway := mercadopago.NewGateway(mercadopago.Config{
		AccessToken:  cfg.MercadoPago.AccessToken,
		APIURL:       cfg.MercadoPago.APIURL,
		BaseURL:      cfg.Server.BaseURL,
		SignatureKey: cfg.MercadoPago.SignatureKey,
		Production:   cfg.Server.IsProduction(),
	})
	if cfg.MercadoPago.AccessToken == "" {
		log.Warn().Msg("MP_ACCESS_TOKEN vacío, los pagos fallarán")
	}

	a := &App{DB: db, Cfg: cfg, settingsRepo: settingsRepo}
	a.SettingsUC = &usecase.SettingsUC{Settings: settingsRepo}
	a.VoucherUC = &usecase.VoucherUC{
		Orders:   orderRepo,
		Settings: a.SettingsUC,
		Renderer: voucher.NewRenderer(),
		BaseURL:  cfg.Server.BaseURL,
	}
	a.ProductUC = &usecase.ProductUC{Products: prodRepo, Storage: localfs.New(cfg.Storage.Dir)}
	a.CatalogUC = &usecase.CatalogUC{Catalog: catalogRepo}
	a.CouponUC = &usecase.CouponUC{Coupons: couponRepo}
	a.ShippingUC = &usecase.ShippingUC{Zones: zoneRepo}
	a.OrderUC = &usecase.OrderUC{
		Orders:   orderRepo,
		Mailer:   mailer,
		Vouchers: a.VoucherUC,
		Strict:   cfg.Orders.StrictTransitions,
	}
	a.CheckoutUC = &usecase.CheckoutUC{
		Products: prodRepo,
		Orders:   orderRepo,
		Coupons:  a.CouponUC,
		Shipping: a.ShippingUC,
	}
	a.PaymentUC = &usecase.PaymentUC{Orders: orderRepo, Gateway: gateway, OrderUC: a.OrderUC}
	if telegram.Enabled() {
		a.PaymentUC.Notifier = telegram
	}
	a.CarrierUC = &usecase.CarrierUC{Orders: orderRepo, OrderUC: a.OrderUC}
	a.AccountUC = &usecase.AccountUC{Profiles: profileRepo, OrderRepo: orderRepo, Vouchers: a.VoucherUC}
	a.AuthUC = &usecase.AuthUC{Profiles: profileRepo}

	a.Sessions = auth.NewSessions(cfg.Auth.SessionSecret, time.Duration(cfg.Auth.SessionTTLHours)*time.Hour)
	a.Guard = auth.NewGuard(a.Sessions, profileRepo)

	if cfg.Auth.GoogleClientID != "" && cfg.Auth.GoogleClientSecret != "" {
		a.OAuthConfig = &oauth2.Config{
			ClientID:     cfg.Auth.GoogleClientID,
			ClientSecret: cfg.Auth.GoogleClientSecret,
			RedirectURL:  cfg.Server.BaseURL + "/auth/google/callback",
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		}
	}

	if cfg.Redis.Enabled() {
		a.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := a.Redis.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis no responde, el rate limit dejará pasar todo")
		}
	}
	return a, nil
}

func (a *App) HTTPHandler() http.Handler {
	return httpserver.New(httpserver.Deps{
		Products: a.ProductUC,
		Catalog:  a.CatalogUC,
		Coupons:  a.CouponUC,
		Shipping: a.ShippingUC,
		Orders:   a.OrderUC,
		Checkout: a.CheckoutUC,
		Payments: a.PaymentUC,
		Vouchers: a.VoucherUC,
		Carrier:  a.CarrierUC,
		Settings: a.SettingsUC,
		Account:  a.AccountUC,
		Auth:     a.AuthUC,
		Sessions: a.Sessions,
		Guard:    a.Guard,
		OAuth:    a.OAuthConfig,
		Redis:    a.Redis,
	}, httpserver.Options{
		PublicDir:     a.Cfg.Server.PublicDir,
		StorageDir:    a.Cfg.Storage.Dir,
		CORSOrigins:   a.Cfg.Server.CORSOrigins,
		CartSecret:    a.Cfg.Auth.SessionSecret,
		MPPublicKey:   a.Cfg.MercadoPago.PublicKey,
		RatePerMinute: a.Cfg.Redis.RatePerMinute,
	})
}

// MigrateAndSeed deja el esquema al día, crea la fila de configuración y el admin inicial.
func (a *App) MigrateAndSeed() error {
	if err := postgres.Migrate(a.DB); err != nil {
		return err
	}
	ctx := context.Background()
	if _, err := a.settingsRepo.Get(ctx); errors.Is(err, domain.ErrNotFound) {
		def := domain.DefaultSettings()
		if err := a.settingsRepo.Save(ctx, &def); err != nil {
			return fmt.Errorf("configuración inicial: %w", err)
		}
		log.Info().Msg("configuración por defecto creada")
	} else if err != nil {
		return err
	}
	if err := a.AuthUC.EnsureAdmin(ctx, a.Cfg.Auth.AdminEmail, a.Cfg.Auth.AdminPassword); err != nil {
		return fmt.Errorf("admin inicial: %w", err)
	}
	return nil
}

func (a *App) Close() {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
