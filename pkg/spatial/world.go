package spatial

import (
	"fmt"

	"github.com/tidwall/rtree"
)

// World is an immutable set of regions with a bounding-box index for point
// lookups. Build it with Insert calls at startup; Locate is safe for
// concurrent use once construction is done.
type World struct {
	tree    rtree.RTreeG[*Region]
	regions []*Region
	order   map[*Region]int
	names   map[string]struct{}
}

// NewWorld returns an empty world index.
func NewWorld() *World {
	return &World{
		order: make(map[*Region]int),
		names: make(map[string]struct{}),
	}
}

// Insert adds a region. Region names are unique across the set; inserting a
// duplicate name is a build error.
func (w *World) Insert(r *Region) error {
	if _, dup := w.names[r.name]; dup {
		return fmt.Errorf("duplicate region %q", r.name)
	}
	b := r.Bound()
	w.tree.Insert([2]float64{b.Min[0], b.Min[1]}, [2]float64{b.Max[0], b.Max[1]}, r)
	w.names[r.name] = struct{}{}
	w.order[r] = len(w.regions)
	w.regions = append(w.regions, r)
	return nil
}

// Len returns the number of regions in the set.
func (w *World) Len() int { return len(w.regions) }

// Regions returns the regions in insertion order.
func (w *World) Regions() []*Region { return w.regions }

// Locate maps a point to the region containing it, or nil when no region
// does. The envelope index narrows the candidates; the answer is the precise
// polygon containment test. Overlapping regions are not expected; if they
// occur the earliest inserted one wins.
func (w *World) Locate(c Coordinates) *Region {
	if !c.Valid() {
		return nil
	}
	p := c.Point()
	var found *Region
	foundAt := len(w.regions)
	w.tree.Search([2]float64{p[0], p[1]}, [2]float64{p[0], p[1]},
		func(_, _ [2]float64, r *Region) bool {
			if i := w.order[r]; i < foundAt && r.Contains(c) {
				found, foundAt = r, i
			}
			return true
		})
	return found
}
