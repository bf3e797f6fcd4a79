package geocoder

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldChain = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Stroked and ligature letters have no canonical decomposition, so the
// NFD-based pass leaves them alone.
var strokeReplacer = strings.NewReplacer(
	"ł", "l", "Ł", "L",
	"đ", "d", "Đ", "D",
	"ħ", "h", "Ħ", "H",
	"ø", "o", "Ø", "O",
	"æ", "ae", "Æ", "AE",
	"œ", "oe", "Œ", "OE",
	"ß", "ss",
)

// Fold lowercases the string and strips diacritics (NFD, remove combining
// marks, NFC). Both the address-book alt columns and the query side go
// through it so accent-insensitive matching stays symmetric.
func Fold(s string) string {
	folded, _, err := transform.String(foldChain, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strokeReplacer.Replace(folded))
}
