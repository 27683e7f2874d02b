package domain

import "time"

// Settings es la fila única con los datos del comercio que usan el voucher y los correos.
type Settings struct {
	ID            int       `gorm:"primaryKey" json:"-"`
	BusinessName  string    `gorm:"size:140" json:"business_name"`
	RUT           string    `gorm:"size:20" json:"rut"`
	Address       string    `gorm:"size:255" json:"address"`
	Phone         string    `gorm:"size:60" json:"phone"`
	Email         string    `gorm:"size:140" json:"email"`
	Website       string    `gorm:"size:140" json:"website"`
	LogoURL       string    `gorm:"size:255" json:"logo_url"`
	VoucherFooter string    `gorm:"type:text" json:"voucher_footer"`
	BankDetails   string    `gorm:"type:text" json:"bank_details"`
	UpdatedAt     time.Time `json:"updated_at"`
}

const SettingsRowID = 1

func DefaultSettings() Settings {
	return Settings{
		ID:            SettingsRowID,
		BusinessName:  "Growshop",
		VoucherFooter: "Gracias por tu compra.",
	}
}
