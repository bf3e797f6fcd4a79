package geocoder

import (
	"strings"
	"unicode"
)

// Sanitize replaces every character outside [letters, digits, space, '/',
// '-', '.'] with a space in each component. This defeats query-language
// injection in the full-text backend and is harmless to the in-memory one.
func Sanitize(c AddressComponents) AddressComponents {
	c.City = sanitizeComponent(c.City)
	c.Street = sanitizeComponent(c.Street)
	c.Building = sanitizeComponent(c.Building)
	c.Zipcode = sanitizeComponent(c.Zipcode)
	return c
}

func sanitizeComponent(s string) string {
	if s == "" {
		return s
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) ||
			r == '/' || r == '-' || r == ' ' || r == '.' {
			return r
		}
		return ' '
	}, s)
}
