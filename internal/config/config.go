package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Auth        AuthConfig
	MercadoPago MercadoPagoConfig
	SMTP        SMTPConfig
	Telegram    TelegramConfig
	Storage     StorageConfig
	Redis       RedisConfig
	Orders      OrdersConfig
}

type ServerConfig struct {
	Port        string
	Env         string
	BaseURL     string
	PublicDir   string
	LogLevel    string
	CORSOrigins []string
}

type DatabaseConfig struct {
	DSN      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type AuthConfig struct {
	SessionSecret      string
	SessionTTLHours    int
	AdminEmail         string
	AdminPassword      string
	GoogleClientID     string
	GoogleClientSecret string
}

type MercadoPagoConfig struct {
	AccessToken     string
	ProdAccessToken string
	PublicKey       string
	APIURL          string
	SignatureKey    string
}

type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

type TelegramConfig struct {
	BotToken string
	ChatIDs  []string
}

type StorageConfig struct {
	Dir string
}

type RedisConfig struct {
	Addr          string
	Password      string
	DB            int
	RatePerMinute int
}

type OrdersConfig struct {
	StrictTransitions bool
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("sin archivo .env, se usan variables de entorno")
	}
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("BASE_URL", "http://localhost:8080")
	v.SetDefault("PUBLIC_DIR", "public")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "growshop")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("SESSION_TTL_HOURS", 72)
	v.SetDefault("MP_API_URL", "https://api.mercadopago.com")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("STORAGE_DIR", "uploads")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 30)
	v.SetDefault("STRICT_ORDER_TRANSITIONS", true)

	return fromViper(v)
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{
		Server: ServerConfig{
			Port:        v.GetString("PORT"),
			Env:         strings.ToLower(v.GetString("APP_ENV")),
			BaseURL:     strings.TrimRight(v.GetString("BASE_URL"), "/"),
			PublicDir:   v.GetString("PUBLIC_DIR"),
			LogLevel:    v.GetString("LOG_LEVEL"),
			CORSOrigins: splitList(v.GetString("CORS_ORIGINS")),
		},
		Database: DatabaseConfig{
			DSN:      v.GetString("DB_DSN"),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Auth: AuthConfig{
			SessionSecret:      v.GetString("SESSION_SECRET"),
			SessionTTLHours:    v.GetInt("SESSION_TTL_HOURS"),
			AdminEmail:         strings.ToLower(strings.TrimSpace(v.GetString("ADMIN_EMAIL"))),
			AdminPassword:      v.GetString("ADMIN_PASSWORD"),
			GoogleClientID:     v.GetString("GOOGLE_CLIENT_ID"),
			GoogleClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
		},
		MercadoPago: MercadoPagoConfig{
			AccessToken:     v.GetString("MP_ACCESS_TOKEN"),
			ProdAccessToken: v.GetString("PROD_ACCESS_TOKEN"),
			PublicKey:       v.GetString("MP_PUBLIC_KEY"),
			APIURL:          strings.TrimRight(v.GetString("MP_API_URL"), "/"),
			SignatureKey:    v.GetString("SECRET_KEY"),
		},
		SMTP: SMTPConfig{
			Host: v.GetString("SMTP_HOST"),
			Port: v.GetInt("SMTP_PORT"),
			User: v.GetString("SMTP_USER"),
			Pass: v.GetString("SMTP_PASS"),
			From: v.GetString("SMTP_FROM"),
		},
		Telegram: TelegramConfig{
			BotToken: v.GetString("TELEGRAM_BOT_TOKEN"),
			ChatIDs:  splitList(v.GetString("TELEGRAM_CHAT_IDS")),
		},
		Storage: StorageConfig{Dir: v.GetString("STORAGE_DIR")},
		Redis: RedisConfig{
			Addr:          v.GetString("REDIS_ADDR"),
			Password:      v.GetString("REDIS_PASSWORD"),
			DB:            v.GetInt("REDIS_DB"),
			RatePerMinute: v.GetInt("RATE_LIMIT_PER_MINUTE"),
		},
		Orders: OrdersConfig{StrictTransitions: v.GetBool("STRICT_ORDER_TRANSITIONS")},
	}
	if cfg.SMTP.From == "" {
		cfg.SMTP.From = cfg.SMTP.User
	}
	if cfg.Server.IsProduction() && cfg.MercadoPago.ProdAccessToken != "" {
		cfg.MercadoPago.AccessToken = cfg.MercadoPago.ProdAccessToken
	}
	if cfg.Auth.SessionSecret == "" {
		log.Warn().Msg("SESSION_SECRET vacío, se usa un secreto de desarrollo")
		cfg.Auth.SessionSecret = "dev-insecure-session-secret"
	}
	if cfg.MercadoPago.SignatureKey == "" {
		cfg.MercadoPago.SignatureKey = cfg.Auth.SessionSecret
	}
	return cfg
}

func (s ServerConfig) IsProduction() bool { return s.Env == "production" || s.Env == "prod" }

// ConnString arma la cadena de conexión cuando DB_DSN no viene explícito.
func (d DatabaseConfig) ConnString() string {
	if strings.TrimSpace(d.DSN) != "" {
		return d.DSN
	}
	return "host=" + d.Host + " user=" + d.User + " password=" + d.Password + " dbname=" + d.Name + " port=" + d.Port + " sslmode=" + d.SSLMode
}

func (s SMTPConfig) Enabled() bool { return s.Host != "" && s.User != "" && s.Pass != "" }

func (r RedisConfig) Enabled() bool { return r.Addr != "" }

func splitList(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
