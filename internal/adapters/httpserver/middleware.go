package httpserver

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/growshop/internal/auth"
)

// Logging registra cada petición con el id de chi, el estado y la duración.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		ev := log.Info()
		if ww.Status() >= http.StatusInternalServerError {
			ev = log.Error()
		} else if strings.HasPrefix(r.URL.Path, "/assets/") || strings.HasPrefix(r.URL.Path, "/uploads/") {
			ev = log.Debug()
		}
		ev.Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// SecurityAndStaticCache agrega cabeceras de seguridad y cache largo para assets y uploads.
func SecurityAndStaticCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "SAMEORIGIN")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		if strings.HasPrefix(r.URL.Path, "/assets/") || strings.HasPrefix(r.URL.Path, "/uploads/") {
			h.Set("Cache-Control", "public, max-age=604800, immutable")
		} else if strings.HasPrefix(r.URL.Path, "/api/") {
			h.Set("Cache-Control", "no-store")
		}
		next.ServeHTTP(w, r)
	})
}

// CORS sólo se activa si hay orígenes configurados; el SPA normalmente se sirve del mismo host.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

type RateLimitConfig struct {
	RequestsPerWindow int
	Window            time.Duration
	KeyPrefix         string
}

// RateLimit cuenta peticiones por cliente en redis. Si redis falla la petición pasa.
func RateLimit(client *redis.Client, cfg RateLimitConfig) func(http.Handler) http.Handler {
	if client == nil || cfg.RequestsPerWindow <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := fmt.Sprintf("%s:%s", cfg.KeyPrefix, clientID(r))
			ctx := r.Context()

			count, err := client.Incr(ctx, key).Result()
			if err != nil {
				log.Warn().Err(err).Str("key", key).Msg("rate limit sin redis, se deja pasar")
				next.ServeHTTP(w, r)
				return
			}
			if count == 1 {
				client.Expire(ctx, key, cfg.Window)
			}

			limit := strconv.Itoa(cfg.RequestsPerWindow)
			if count > int64(cfg.RequestsPerWindow) {
				ttl, err := client.TTL(ctx, key).Result()
				if err != nil || ttl <= 0 {
					ttl = cfg.Window
				}
				log.Warn().Str("client", clientID(r)).Int64("count", count).Str("prefix", cfg.KeyPrefix).Msg("rate limit excedido")
				w.Header().Set("X-RateLimit-Limit", limit)
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("Retry-After", strconv.Itoa(int(ttl.Seconds())))
				respondWithError(w, http.StatusTooManyRequests, "demasiadas solicitudes, intenta en un momento", nil)
				return
			}
			w.Header().Set("X-RateLimit-Limit", limit)
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(cfg.RequestsPerWindow-int(count)))
			next.ServeHTTP(w, r)
		})
	}
}

// clientID usa el perfil de la sesión si existe, si no la IP (RealIP ya la normalizó).
func clientID(r *http.Request) string {
	if s, ok := auth.FromContext(r.Context()); ok {
		return "p:" + s.ProfileID.String()
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
