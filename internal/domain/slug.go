package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slugify quita diacríticos, pasa a minúsculas y une las palabras con guiones:
// "Árbol Verde" -> "arbol-verde".
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(t, s)
	if err != nil {
		plain = s
	}
	plain = strings.ToLower(strings.TrimSpace(plain))

	var b strings.Builder
	dash := false
	for _, r := range plain {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		default:
			if b.Len() > 0 && !dash {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// NormalizeCouponCode deja el código en mayúsculas y sin espacios.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.Join(strings.Fields(code), ""))
}
