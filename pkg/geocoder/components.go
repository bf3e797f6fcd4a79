// Package geocoder turns free-form address text into addressable buildings.
// It decomposes the text into labeled components with an external
// character-level model, locates the region of the caller and dispatches the
// lookup to the region's address-book backend.
package geocoder

import (
	"context"
	"errors"

	"wayfarer/pkg/model"
)

// AddressComponents is a partial decomposition of an address string. Empty
// strings mean the component is absent.
type AddressComponents struct {
	City     string `json:"city,omitempty"`
	Street   string `json:"street,omitempty"`
	Building string `json:"building,omitempty"`
	Zipcode  string `json:"zipcode,omitempty"`
}

// Empty reports whether no component is present.
func (c AddressComponents) Empty() bool {
	return c == AddressComponents{}
}

// Merge returns the components with every present override applied over the
// receiver's values.
func (c AddressComponents) Merge(overrides AddressComponents) AddressComponents {
	if overrides.City != "" {
		c.City = overrides.City
	}
	if overrides.Street != "" {
		c.Street = overrides.Street
	}
	if overrides.Building != "" {
		c.Building = overrides.Building
	}
	if overrides.Zipcode != "" {
		c.Zipcode = overrides.Zipcode
	}
	return c
}

// PracticalAdjust reassigns a lone city to the street slot. When a user types
// a single phrase the model tends to prefer city candidates, but street names
// are the more useful interpretation while typing is still in progress.
func PracticalAdjust(c AddressComponents) AddressComponents {
	if c.City != "" && c.Street == "" && c.Building == "" && c.Zipcode == "" {
		c.Street, c.City = c.City, ""
	}
	return c
}

// Result is the outcome of an address-book lookup: either addressable
// matches, or partial hints to narrow the search, or neither.
type Result struct {
	Matches []model.Building    `json:"matches"`
	Hints   []AddressComponents `json:"hints"`
}

// Backend is one of the two address-book variants. Lookup receives sanitized
// components and applies the match/hint policy for the named region.
type Backend interface {
	Lookup(ctx context.Context, region string, c AddressComponents) (Result, error)
}

// ErrRegionNotIndexed is returned by backends when the named region has no
// address book.
var ErrRegionNotIndexed = errors.New("region not indexed")

// ErrUnsupportedLocation is returned by the façade when no region contains
// the caller's location.
var ErrUnsupportedLocation = errors.New("location not supported")
