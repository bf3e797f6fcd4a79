// Package routing owns the trip model and the per-region routing engines:
// parsing and validating trips, dispatching them to an engine and folding the
// engine's answer back into an optimized trip.
package routing

import (
	"encoding/json"
	"fmt"

	"wayfarer/pkg/model"
)

// Waypoint is one stop on a trip: a building plus contact metadata.
type Waypoint struct {
	Building    model.Building `json:"building"`
	Phone       string         `json:"phone,omitempty"`
	InputMethod string         `json:"input_method,omitempty"`
	Notes       string         `json:"notes,omitempty"`
}

// Cost is the travel effort between two waypoints.
type Cost struct {
	Distance int64 `json:"distance"` // meters
	Duration int64 `json:"duration"` // seconds
}

// Add returns the element-wise sum.
func (c Cost) Add(o Cost) Cost {
	return Cost{Distance: c.Distance + o.Distance, Duration: c.Duration + o.Duration}
}

// Leg is one segment of an optimized trip.
type Leg struct {
	FromBuilding int64 `json:"from_building"`
	ToBuilding   int64 `json:"to_building"`
	Cost         Cost  `json:"cost"`
}

// Trip is an ordered waypoint sequence: the starting point first, the final
// point last, intermediate stops in between. A trip is a roundtrip when the
// starting and final buildings are the same.
type Trip struct {
	Waypoints []Waypoint
}

type tripJSON struct {
	StartingPoint Waypoint   `json:"starting_point"`
	FinalPoint    Waypoint   `json:"final_point"`
	Waypoints     []Waypoint `json:"waypoints"`
}

// UnmarshalJSON reads the wire shape: starting_point and final_point are
// separate keys, waypoints carries only the intermediate stops.
func (t *Trip) UnmarshalJSON(data []byte) error {
	var w tripJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	t.Waypoints = make([]Waypoint, 0, len(w.Waypoints)+2)
	t.Waypoints = append(t.Waypoints, w.StartingPoint)
	t.Waypoints = append(t.Waypoints, w.Waypoints...)
	t.Waypoints = append(t.Waypoints, w.FinalPoint)
	return nil
}

// MarshalJSON writes the wire shape.
func (t Trip) MarshalJSON() ([]byte, error) {
	if len(t.Waypoints) < 2 {
		return nil, fmt.Errorf("trip needs at least a starting and a final point")
	}
	return json.Marshal(tripJSON{
		StartingPoint: t.Waypoints[0],
		FinalPoint:    t.Waypoints[len(t.Waypoints)-1],
		Waypoints:     t.Waypoints[1 : len(t.Waypoints)-1],
	})
}

// Starting returns the first waypoint.
func (t Trip) Starting() Waypoint { return t.Waypoints[0] }

// Final returns the last waypoint.
func (t Trip) Final() Waypoint { return t.Waypoints[len(t.Waypoints)-1] }

// Roundtrip reports whether the trip returns to its starting building.
func (t Trip) Roundtrip() bool {
	return t.Starting().Building.ID == t.Final().Building.ID
}

// Validate checks the structural trip invariants.
func (t Trip) Validate() error {
	if len(t.Waypoints) < 3 {
		return fmt.Errorf("trip needs at least 3 waypoints, got %d", len(t.Waypoints))
	}
	if t.Starting().Building.ID == 0 {
		return fmt.Errorf("starting point has no building id")
	}
	if t.Final().Building.ID == 0 {
		return fmt.Errorf("final point has no building id")
	}
	return nil
}

// OptimizedTrip is a trip reordered into its optimal visiting order together
// with the per-leg costs and the route geometry.
type OptimizedTrip struct {
	Trip
	Legs     []Leg
	Geometry string
}

// NewOptimizedTrip folds the engine's answer into the trip: validates the
// permutation and leg counts, reorders the waypoints in place by the
// permutation cycle walk and assigns building ids to the legs.
//
// For roundtrips the engine is given the deduplicated waypoint list, so its
// permutation is one shorter than the trip's sequence; the trailing duplicate
// stays in place.
func NewOptimizedTrip(trip Trip, order []int, legs []Leg, geometry string) (*OptimizedTrip, error) {
	expected := len(order)
	if trip.Roundtrip() {
		expected++
	}
	if expected != len(trip.Waypoints) {
		return nil, fmt.Errorf("engine permutation length %d does not match %d waypoints",
			len(order), len(trip.Waypoints))
	}
	if len(legs) != len(trip.Waypoints)-1 {
		return nil, fmt.Errorf("engine returned %d legs for %d waypoints",
			len(legs), len(trip.Waypoints))
	}

	order = append([]int(nil), order...)
	wps := trip.Waypoints
	for i := range order {
		for i != order[i] {
			alt := order[i]
			wps[i], wps[alt] = wps[alt], wps[i]
			order[i], order[alt] = order[alt], order[i]
		}
	}

	for i := range legs {
		to := i + 1
		if trip.Roundtrip() && i == len(legs)-1 {
			to = 0
		}
		legs[i].FromBuilding = wps[i].Building.ID
		legs[i].ToBuilding = wps[to].Building.ID
	}

	return &OptimizedTrip{Trip: trip, Legs: legs, Geometry: geometry}, nil
}

// TotalCost is the element-wise sum over the legs.
func (t *OptimizedTrip) TotalCost() Cost {
	var total Cost
	for _, leg := range t.Legs {
		total = total.Add(leg.Cost)
	}
	return total
}

type optimizedJSON struct {
	tripJSON
	Legs     []Leg  `json:"legs"`
	Geometry string `json:"geometry"`
}

// MarshalJSON extends the trip wire shape with legs and geometry.
func (t OptimizedTrip) MarshalJSON() ([]byte, error) {
	if len(t.Waypoints) < 2 {
		return nil, fmt.Errorf("trip needs at least a starting and a final point")
	}
	return json.Marshal(optimizedJSON{
		tripJSON: tripJSON{
			StartingPoint: t.Waypoints[0],
			FinalPoint:    t.Waypoints[len(t.Waypoints)-1],
			Waypoints:     t.Waypoints[1 : len(t.Waypoints)-1],
		},
		Legs:     t.Legs,
		Geometry: t.Geometry,
	})
}

// UnmarshalJSON reads the optimized wire shape back.
func (t *OptimizedTrip) UnmarshalJSON(data []byte) error {
	var w optimizedJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	t.Waypoints = make([]Waypoint, 0, len(w.Waypoints)+2)
	t.Waypoints = append(t.Waypoints, w.StartingPoint)
	t.Waypoints = append(t.Waypoints, w.Waypoints...)
	t.Waypoints = append(t.Waypoints, w.FinalPoint)
	t.Legs = w.Legs
	t.Geometry = w.Geometry
	return nil
}
