package spatial

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Region is an immutable named area bounded by a simple closed ring.
type Region struct {
	name  string
	ring  orb.Ring
	bound orb.Bound
}

// NewRegion builds a region from its name and boundary ring.
func NewRegion(name string, ring orb.Ring) (*Region, error) {
	if name == "" {
		return nil, fmt.Errorf("region name must not be empty")
	}
	if len(ring) < 3 {
		return nil, fmt.Errorf("region %q: boundary ring needs at least 3 points, got %d", name, len(ring))
	}
	// Close the ring if the source omitted the closing point.
	if !ring[0].Equal(ring[len(ring)-1]) {
		ring = append(ring, ring[0])
	}
	return &Region{name: name, ring: ring, bound: ring.Bound()}, nil
}

// Name returns the unique region name.
func (r *Region) Name() string { return r.name }

// Bound returns the bounding envelope of the region polygon.
func (r *Region) Bound() orb.Bound { return r.bound }

// Contains reports whether the point lies within the region polygon.
func (r *Region) Contains(c Coordinates) bool {
	if !c.Valid() {
		return false
	}
	return planar.RingContains(r.ring, c.Point())
}
