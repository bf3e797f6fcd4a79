package geocoder

import (
	"context"
	"fmt"

	"wayfarer/pkg/geocoder/ner"
)

// Extract builds address components from per-character labels. The span for a
// label runs from its first to its last occurrence inclusive; characters
// labeled otherwise in between are kept, because separator characters inside
// a component are sometimes misclassified.
func Extract(text string, labels []ner.Label) AddressComponents {
	runes := []rune(text)
	if len(labels) > len(runes) {
		labels = labels[:len(runes)]
	}

	span := func(want ner.Label) string {
		first, last := -1, -1
		for i, l := range labels {
			if l == want {
				if first < 0 {
					first = i
				}
				last = i
			}
		}
		if first < 0 {
			return ""
		}
		return string(runes[first : last+1])
	}

	return AddressComponents{
		City:     span(ner.City),
		Street:   span(ner.Street),
		Building: span(ner.Building),
		Zipcode:  span(ner.Zipcode),
	}
}

// Decomposer splits address text into components using an external labeler.
type Decomposer struct {
	labeler ner.Labeler
}

// NewDecomposer wraps the labeler.
func NewDecomposer(l ner.Labeler) *Decomposer {
	return &Decomposer{labeler: l}
}

// Decompose labels the text and extracts the component spans. An empty
// decomposition is a valid result.
func (d *Decomposer) Decompose(ctx context.Context, text string) (AddressComponents, error) {
	if text == "" {
		return AddressComponents{}, nil
	}
	labels, err := d.labeler.Label(ctx, text)
	if err != nil {
		return AddressComponents{}, fmt.Errorf("labeling %q: %w", text, err)
	}
	return Extract(text, labels), nil
}
