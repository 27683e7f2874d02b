package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Árbol Verde", "arbol-verde"},
		{"  Pipas de Vidrio  ", "pipas-de-vidrio"},
		{"Moledor 4 partes", "moledor-4-partes"},
		{"Señor Cogollo", "senor-cogollo"},
		{"Papelillos / Filtros", "papelillos-filtros"},
		{"LED 600W!!", "led-600w"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Slugify(tt.input))
		})
	}
}

func TestNormalizeCouponCode(t *testing.T) {
	assert.Equal(t, "VERANO10", NormalizeCouponCode(" verano 10 "))
	assert.Equal(t, "", NormalizeCouponCode("   "))
}
