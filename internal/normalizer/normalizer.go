// Package normalizer reduces noisy listing text and hierarchy names to the
// canonical lowercase accent-free form all matching runs on.
package normalizer

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var diacriticStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases, strips combining diacritical marks (a→a, é→e, ñ→n)
// and trims surrounding whitespace. Idempotent.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	out, _, err := transform.String(diacriticStripper, s)
	if err != nil {
		// Transform only fails on malformed UTF-8; fall back to the input.
		out = s
	}
	return strings.TrimSpace(strings.ToLower(out))
}

// localityPrefixes are stripped from names before the secondary (0.95) match.
// Order is fixed; at each pass the longest matching prefix is removed, and the
// loop restarts so compound prefixes ("Colonia La Cima" → "cima") unwind fully.
var localityPrefixes = []string{
	"residencial ", "colonia ", "urbanizacion ", "barrio ",
	"lotificacion ", "reparto ", "comunidad ", "canton ", "caserio ",
	"col. ", "res. ", "urb. ", "bo. ",
	"la ", "el ", "los ", "las ",
}

// StripPrefixes normalizes s and then repeatedly removes locality prefixes
// until none apply. It never strips a name down to the empty string.
func StripPrefixes(s string) string {
	text := Normalize(s)
	for {
		longest := ""
		for _, prefix := range localityPrefixes {
			if strings.HasPrefix(text, prefix) && len(prefix) > len(longest) {
				longest = prefix
			}
		}
		if longest == "" {
			break
		}
		stripped := strings.TrimSpace(text[len(longest):])
		if stripped == "" {
			break
		}
		text = stripped
	}
	return text
}
