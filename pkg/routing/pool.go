package routing

import (
	"context"
	"fmt"
	"log/slog"

	"wayfarer/pkg/spatial"
)

// Pool owns one routing engine per region. The mapping is immutable after
// construction and safe to share between all callers.
type Pool struct {
	engines map[string]Engine
}

// NewPool returns an empty pool.
func NewPool() *Pool {
	return &Pool{engines: make(map[string]Engine)}
}

// AddEngine binds a region to its engine instance.
func (p *Pool) AddEngine(region string, e Engine) {
	p.engines[region] = e
}

// Engine returns the engine bound to the region.
func (p *Pool) Engine(region string) (Engine, error) {
	e, ok := p.engines[region]
	if !ok {
		return nil, fmt.Errorf("%s: %w", region, ErrInvalidRegion)
	}
	return e, nil
}

// OptimizeTrip reorders the trip into its optimal visiting order using the
// region's engine. For roundtrips the duplicate trailing coordinate is
// stripped before the engine call and the engine is left free to pick the
// closing leg.
func (p *Pool) OptimizeTrip(ctx context.Context, trip Trip, region string) (*OptimizedTrip, error) {
	engine, err := p.Engine(region)
	if err != nil {
		return nil, err
	}
	if err := trip.Validate(); err != nil {
		return nil, err
	}

	coords := make([]spatial.Coordinates, 0, len(trip.Waypoints))
	for _, wp := range trip.Waypoints {
		coords = append(coords, wp.Building.Coords)
	}
	roundtrip := trip.Roundtrip()
	if roundtrip {
		coords = coords[:len(coords)-1]
	}

	slog.Debug("optimizing trip",
		"region", region, "waypoints", len(trip.Waypoints), "roundtrip", roundtrip)

	plan, err := engine.Trip(ctx, coords, roundtrip)
	if err != nil {
		return nil, fmt.Errorf("optimizing trip in %s: %w", region, err)
	}
	optimized, err := NewOptimizedTrip(trip, plan.Permutation, plan.Legs, plan.Geometry)
	if err != nil {
		return nil, fmt.Errorf("optimizing trip in %s: %w", region, err)
	}
	return optimized, nil
}

// Distance returns the travel cost between two points within a region.
func (p *Pool) Distance(ctx context.Context, from, to spatial.Coordinates, region string) (Cost, error) {
	engine, err := p.Engine(region)
	if err != nil {
		return Cost{}, err
	}
	cost, err := engine.Route(ctx, from, to)
	if err != nil {
		return Cost{}, fmt.Errorf("routing distance in %s: %w", region, err)
	}
	return cost, nil
}
