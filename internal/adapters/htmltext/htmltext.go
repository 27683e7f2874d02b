// Package htmltext convierte las descripciones HTML de productos en texto plano
// para resúmenes, meta descripciones y la planilla del courier.
package htmltext

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

var (
	blockTags = map[string]bool{
		"p": true, "div": true, "br": true, "li": true, "ul": true, "ol": true,
		"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
		"tr": true, "td": true, "th": true, "table": true,
	}
	skipTags = map[string]bool{"script": true, "style": true, "noscript": true, "template": true}
)

// PlainText devuelve el texto visible del fragmento con los espacios colapsados.
// Si el HTML no se puede leer devuelve la entrada tal cual, colapsada.
func PlainText(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return collapse(html)
	}
	var b strings.Builder
	writeText(doc.Find("body"), &b)
	return collapse(b.String())
}

func writeText(sel *goquery.Selection, b *strings.Builder) {
	sel.Contents().Each(func(_ int, c *goquery.Selection) {
		name := goquery.NodeName(c)
		switch {
		case name == "#text":
			b.WriteString(c.Text())
		case skipTags[name]:
		default:
			if blockTags[name] {
				b.WriteByte(' ')
			}
			writeText(c, b)
			if blockTags[name] {
				b.WriteByte(' ')
			}
		}
	})
}

// Summary corta el texto plano en max runas sin partir palabras.
func Summary(html string, max int) string {
	text := PlainText(html)
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	cut := string(runes[:max])
	if i := strings.LastIndex(cut, " "); i > max/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}

// Images lista las URLs de imágenes embebidas en la descripción, sin repetir.
func Images(html string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	seen := map[string]bool{}
	out := []string{}
	doc.Find("img[data-src], img[src]").Each(func(_ int, sel *goquery.Selection) {
		src, ok := sel.Attr("data-src")
		if !ok || src == "" {
			src, _ = sel.Attr("src")
		}
		src = strings.TrimSpace(src)
		if src == "" || strings.HasPrefix(src, "data:") || seen[src] {
			return
		}
		seen[src] = true
		out = append(out, src)
	})
	return out
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
