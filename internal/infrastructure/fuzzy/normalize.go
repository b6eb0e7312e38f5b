package fuzzy

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// normalize case-folds s and collapses runs of whitespace. Casers and
// transformers are stateful, so each call builds its own.
func normalize(s string, foldDiacritics bool) string {
	folded := cases.Fold().String(s)
	if foldDiacritics {
		stripped, _, err := transform.String(
			transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
			folded,
		)
		if err == nil {
			folded = stripped
		}
	}
	return strings.Join(strings.Fields(folded), " ")
}
