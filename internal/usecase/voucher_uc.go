package usecase

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/growshop/internal/domain"
)

const maxLogoBytes = 2 << 20

type VoucherUC struct {
	Orders   domain.OrderRepo
	Settings *SettingsUC
	Renderer VoucherRenderer
	// BaseURL completa los logos guardados como ruta relativa (/uploads/...).
	BaseURL    string
	HTTPClient *http.Client
}

func (uc *VoucherUC) Generate(ctx context.Context, orderID uuid.UUID) ([]byte, *domain.Order, error) {
	o, err := uc.Orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	pdf, err := uc.ForOrder(ctx, o)
	return pdf, o, err
}

// ForOrder lee la configuración del comercio al momento de generar, así el
// voucher siempre refleja los datos vigentes.
func (uc *VoucherUC) ForOrder(ctx context.Context, o *domain.Order) ([]byte, error) {
	s, err := uc.Settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("leer configuración: %w", err)
	}
	logo := uc.fetchLogo(ctx, s.LogoURL)
	return uc.Renderer.Render(o, s, logo)
}

func (uc *VoucherUC) fetchLogo(ctx context.Context, url string) []byte {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil
	}
	if strings.HasPrefix(url, "/") {
		url = strings.TrimRight(uc.BaseURL, "/") + url
	}
	client := uc.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("logo del voucher inválido, se omite")
		return nil
	}
	res, err := client.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("no se pudo descargar el logo, se omite")
		return nil
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		log.Warn().Int("status", res.StatusCode).Str("url", url).Msg("logo no disponible, se omite")
		return nil
	}
	b, err := io.ReadAll(io.LimitReader(res.Body, maxLogoBytes))
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("error leyendo logo, se omite")
		return nil
	}
	return b
}
