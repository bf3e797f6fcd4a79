package routing

import (
	"context"
	"errors"

	"wayfarer/pkg/spatial"
)

// TripPlan is the engine's answer to a trip query: the visiting order as a
// permutation of the submitted coordinates, the per-leg costs in visiting
// order and the serialized route geometry.
type TripPlan struct {
	Permutation []int
	Legs        []Leg
	Geometry    string
}

// Engine is the routing-engine contract. Implementations compute shortest
// paths over one region's preprocessed road graph.
type Engine interface {
	// Trip solves the visiting-order problem over the coordinates. The first
	// coordinate is the fixed start; for roundtrips the route returns to it,
	// otherwise the last coordinate is the fixed destination.
	Trip(ctx context.Context, coords []spatial.Coordinates, roundtrip bool) (*TripPlan, error)

	// Route returns the travel cost from one point to another.
	Route(ctx context.Context, from, to spatial.Coordinates) (Cost, error)
}

// ErrInvalidRegion is returned by the pool when no engine serves the region.
var ErrInvalidRegion = errors.New("invalid region")
