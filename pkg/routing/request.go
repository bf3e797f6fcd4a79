package routing

import (
	"encoding/json"
	"fmt"

	"wayfarer/pkg/spatial"
)

// TripRequest is a trip plus its admission metadata and the caller's
// location. On the wire the trip fields sit at the document root next to
// meta and location.
type TripRequest struct {
	Meta     Metadata
	Location spatial.Coordinates
	Trip     Trip
}

type tripRequestJSON struct {
	tripJSON
	Meta     Metadata            `json:"meta"`
	Location spatial.Coordinates `json:"location"`
}

func (r *TripRequest) UnmarshalJSON(data []byte) error {
	var w tripRequestJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	r.Meta = w.Meta
	r.Location = w.Location
	r.Trip.Waypoints = make([]Waypoint, 0, len(w.Waypoints)+2)
	r.Trip.Waypoints = append(r.Trip.Waypoints, w.StartingPoint)
	r.Trip.Waypoints = append(r.Trip.Waypoints, w.Waypoints...)
	r.Trip.Waypoints = append(r.Trip.Waypoints, w.FinalPoint)
	return nil
}

func (r TripRequest) MarshalJSON() ([]byte, error) {
	if len(r.Trip.Waypoints) < 2 {
		return nil, fmt.Errorf("trip needs at least a starting and a final point")
	}
	wps := r.Trip.Waypoints
	return json.Marshal(tripRequestJSON{
		tripJSON: tripJSON{
			StartingPoint: wps[0],
			FinalPoint:    wps[len(wps)-1],
			Waypoints:     wps[1 : len(wps)-1],
		},
		Meta:     r.Meta,
		Location: r.Location,
	})
}

// Validate checks the admission invariants.
func (r *TripRequest) Validate() error {
	if r.Meta.Region == "" {
		return fmt.Errorf("trip request has no region")
	}
	if r.Meta.AccountID == "" {
		return fmt.Errorf("trip request has no account id")
	}
	return r.Trip.Validate()
}

// ParseTripRequest decodes and validates a queued request body.
func ParseTripRequest(data []byte) (*TripRequest, error) {
	var req TripRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("parsing trip request: %w", err)
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid trip request: %w", err)
	}
	return &req, nil
}

// TripResponse pairs an optimized trip with its metadata for the result
// store and the client.
type TripResponse struct {
	Meta Metadata      `json:"meta"`
	Trip OptimizedTrip `json:"trip"`
}

// NewTripResponse validates the optimized trip before it is exposed.
func NewTripResponse(trip *OptimizedTrip, meta Metadata) (*TripResponse, error) {
	if len(trip.Waypoints) < 3 {
		return nil, fmt.Errorf("optimized trip has %d waypoints", len(trip.Waypoints))
	}
	if len(trip.Legs) != len(trip.Waypoints)-1 {
		return nil, fmt.Errorf("optimized trip has %d legs for %d waypoints",
			len(trip.Legs), len(trip.Waypoints))
	}
	if trip.Geometry == "" {
		return nil, fmt.Errorf("optimized trip has no geometry")
	}
	return &TripResponse{Meta: meta, Trip: *trip}, nil
}
