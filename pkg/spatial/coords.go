// Package spatial holds the geographic primitives of the service: coordinates,
// named region polygons, and the world index that maps a point to the region
// containing it.
package spatial

import (
	"math"

	"github.com/paulmach/orb"
)

// Coordinates is a geographic point in double-precision degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Empty reports whether the point carries no usable position.
// Both components at or below zero is the empty convention; the service
// operates in the north-eastern hemisphere.
func (c Coordinates) Empty() bool {
	return c.Latitude <= 0 && c.Longitude <= 0
}

// Valid reports whether both components are finite numbers.
func (c Coordinates) Valid() bool {
	return !math.IsNaN(c.Latitude) && !math.IsNaN(c.Longitude) &&
		!math.IsInf(c.Latitude, 0) && !math.IsInf(c.Longitude, 0)
}

// Point converts to the geometry library representation (lon, lat order).
func (c Coordinates) Point() orb.Point {
	return orb.Point{c.Longitude, c.Latitude}
}

// Equal is bit-exact equality on both fields.
func (c Coordinates) Equal(o Coordinates) bool {
	return c.Latitude == o.Latitude && c.Longitude == o.Longitude
}
