package httpserver

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/phenrril/growshop/internal/cart"
)

// El navegador descarta cookies de más de 4 KB.
const maxCartCookie = 3800

const cartCookieTTL = 30 * 24 * time.Hour

var errCartTooLarge = errors.New("el carrito excede el tamaño permitido")

// cookieCartStore guarda el carrito serializado en una cookie firmada con HMAC.
// Se crea uno por petición.
type cookieCartStore struct {
	w      http.ResponseWriter
	r      *http.Request
	secret []byte
	// saveErr queda con el último error de Save; el carrito sólo lo registra en el log.
	saveErr error
}

func newCookieCartStore(w http.ResponseWriter, r *http.Request, secret []byte) *cookieCartStore {
	return &cookieCartStore{w: w, r: r, secret: secret}
}

func (s *cookieCartStore) Load(key string) ([]byte, error) {
	c, err := s.r.Cookie(key)
	if err != nil || c.Value == "" {
		return nil, cart.ErrNotStored
	}
	payload, ok := openCart(c.Value, s.secret)
	if !ok {
		return nil, cart.ErrNotStored
	}
	return payload, nil
}

func (s *cookieCartStore) Save(key string, data []byte) error {
	val := sealCart(data, s.secret)
	if len(val) > maxCartCookie {
		s.saveErr = errCartTooLarge
		return s.saveErr
	}
	http.SetCookie(s.w, &http.Cookie{
		Name:     key,
		Value:    val,
		Path:     "/",
		MaxAge:   int(cartCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.r.TLS != nil || strings.EqualFold(s.r.Header.Get("X-Forwarded-Proto"), "https"),
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// sealCart arma "firma.payload", ambos en base64url.
func sealCart(payload, secret []byte) string {
	h := hmac.New(sha256.New, secret)
	h.Write(payload)
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil)) + "." + base64.RawURLEncoding.EncodeToString(payload)
}

func openCart(value string, secret []byte) ([]byte, bool) {
	parts := strings.SplitN(value, ".", 2)
	if len(parts) != 2 {
		return nil, false
	}
	sig, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, false
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, false
	}
	h := hmac.New(sha256.New, secret)
	h.Write(payload)
	if !hmac.Equal(sig, h.Sum(nil)) {
		return nil, false
	}
	return payload, true
}
