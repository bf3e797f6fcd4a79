// Package model defines the records shared between the geocoder, the routing
// services and the wire protocol.
package model

import (
	"wayfarer/pkg/spatial"
)

// Building is a single addressable entry of a region's address book.
// Country is carried internally but not part of the wire shape.
type Building struct {
	ID      int64               `json:"id"`
	Coords  spatial.Coordinates `json:"coords"`
	Country string              `json:"-"`
	City    string              `json:"city"`
	Zipcode string              `json:"zipcode"`
	Street  string              `json:"street"`
	Number  string              `json:"number"`
}

// Addressable reports whether the building carries everything needed to be
// returned as a geocoder match or used as a trip waypoint.
func (b Building) Addressable() bool {
	return !b.Coords.Empty() && b.City != "" && b.Street != "" && b.Number != ""
}
