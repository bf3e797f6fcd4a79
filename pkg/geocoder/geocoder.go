package geocoder

import (
	"context"
	"fmt"
	"log/slog"

	"wayfarer/pkg/spatial"
)

// Geocoder orchestrates decompose → locate → backend lookup.
type Geocoder struct {
	world      *spatial.World
	decomposer *Decomposer
	backend    Backend
}

// New wires the façade.
func New(world *spatial.World, decomposer *Decomposer, backend Backend) *Geocoder {
	return &Geocoder{world: world, decomposer: decomposer, backend: backend}
}

// Lookup resolves the query text to matches or hints within the region
// containing location. Caller-supplied overrides replace decomposed
// components before the practical adjust is applied.
func (g *Geocoder) Lookup(ctx context.Context, location spatial.Coordinates, text string, overrides AddressComponents) (Result, error) {
	region := g.world.Locate(location)
	if region == nil {
		return Result{}, ErrUnsupportedLocation
	}

	components, err := g.decomposer.Decompose(ctx, text)
	if err != nil {
		return Result{}, fmt.Errorf("decomposing query: %w", err)
	}

	components = PracticalAdjust(components.Merge(overrides))
	components = Sanitize(components)

	slog.Debug("geocoder lookup",
		"region", region.Name(),
		"street", components.Street,
		"building", components.Building,
		"city", components.City)

	result, err := g.backend.Lookup(ctx, region.Name(), components)
	if err != nil {
		return Result{}, fmt.Errorf("address book lookup in %s: %w", region.Name(), err)
	}
	return result, nil
}
