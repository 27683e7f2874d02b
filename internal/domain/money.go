package domain

import "github.com/shopspring/decimal"

// Los montos viajan como float64 (JSON y columnas decimal(12,2)); la aritmética
// se hace con decimal para no acumular error de coma flotante.

func Dec(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func Money(d decimal.Decimal) float64 { return d.Round(2).InexactFloat64() }

// LineTotal devuelve precio unitario × cantidad.
func LineTotal(unit float64, qty int) decimal.Decimal {
	return Dec(unit).Mul(decimal.NewFromInt(int64(qty)))
}
