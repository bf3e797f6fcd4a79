// Package ner defines the contract of the external character-level model
// that labels address text, and an HTTP client speaking it.
package ner

import "context"

// Label classifies one character of the input text.
type Label int32

const (
	Unknown Label = iota
	Street
	Building
	City
	Zipcode
	Suite
	Other
)

// Labeler assigns one label per character (rune) of the text. The returned
// slice has exactly one entry per rune.
type Labeler interface {
	Label(ctx context.Context, text string) ([]Label, error)
}

// LabelerFunc adapts a function to the Labeler interface.
type LabelerFunc func(ctx context.Context, text string) ([]Label, error)

// Label calls the wrapped function.
func (f LabelerFunc) Label(ctx context.Context, text string) ([]Label, error) {
	return f(ctx, text)
}
