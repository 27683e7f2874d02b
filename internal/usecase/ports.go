package usecase

import (
	"context"
	"io"
	"time"

	"github.com/phenrril/growshop/internal/domain"
)

type StatusMailer interface {
	SendStatusEmail(ctx context.Context, o *domain.Order, st domain.OrderStatus, voucher []byte) error
}

type PaidNotifier interface {
	NotifyPaid(ctx context.Context, o *domain.Order) error
}

type VoucherRenderer interface {
	Render(o *domain.Order, s domain.Settings, logo []byte) ([]byte, error)
}

// Upload es un archivo recibido de un formulario multipart.
type Upload struct {
	Name string
	Body io.Reader
}

func clock(now func() time.Time) time.Time {
	if now != nil {
		return now()
	}
	return time.Now()
}
