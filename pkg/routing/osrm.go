package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"wayfarer/pkg/spatial"
)

// OSRMEngine speaks the OSRM HTTP API of an engine instance serving one
// region's preprocessed index.
type OSRMEngine struct {
	baseURL    string
	profile    string
	httpClient *http.Client
}

// NewOSRMEngine creates an engine client for the instance at baseURL.
func NewOSRMEngine(baseURL string) *OSRMEngine {
	return &OSRMEngine{
		baseURL:    strings.TrimRight(baseURL, "/"),
		profile:    "driving",
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

type osrmWaypoint struct {
	WaypointIndex int `json:"waypoint_index"`
}

type osrmLeg struct {
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
}

type osrmRoute struct {
	Legs     []osrmLeg `json:"legs"`
	Geometry string    `json:"geometry"`
	Distance float64   `json:"distance"`
	Duration float64   `json:"duration"`
}

type osrmTripResponse struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Waypoints []osrmWaypoint `json:"waypoints"`
	Trips     []osrmRoute    `json:"trips"`
}

type osrmRouteResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Routes  []osrmRoute `json:"routes"`
}

// Trip asks the engine for the optimal visiting order. The start is always
// fixed to the first coordinate; roundtrips leave the destination free,
// open trips fix it to the last coordinate.
func (e *OSRMEngine) Trip(ctx context.Context, coords []spatial.Coordinates, roundtrip bool) (*TripPlan, error) {
	destination := "last"
	if roundtrip {
		destination = "any"
	}
	url := fmt.Sprintf("%s/trip/v1/%s/%s?roundtrip=%t&source=first&destination=%s&overview=full&steps=false",
		e.baseURL, e.profile, coordPath(coords), roundtrip, destination)

	var decoded osrmTripResponse
	if err := e.get(ctx, url, &decoded); err != nil {
		return nil, err
	}
	if !strings.EqualFold(decoded.Code, "ok") {
		return nil, fmt.Errorf("engine rejected trip: %s %s", decoded.Code, decoded.Message)
	}
	if len(decoded.Trips) == 0 {
		return nil, fmt.Errorf("engine found no trip through %d waypoints", len(coords))
	}
	if len(decoded.Waypoints) != len(coords) {
		return nil, fmt.Errorf("engine answered %d waypoints for %d submitted",
			len(decoded.Waypoints), len(coords))
	}

	plan := &TripPlan{
		Permutation: make([]int, len(decoded.Waypoints)),
		Legs:        make([]Leg, 0, len(decoded.Trips[0].Legs)),
		Geometry:    decoded.Trips[0].Geometry,
	}
	for i, wp := range decoded.Waypoints {
		plan.Permutation[i] = wp.WaypointIndex
	}
	for _, leg := range decoded.Trips[0].Legs {
		plan.Legs = append(plan.Legs, Leg{Cost: Cost{
			Distance: int64(leg.Distance),
			Duration: int64(leg.Duration),
		}})
	}
	return plan, nil
}

// Route returns the travel cost between two points.
func (e *OSRMEngine) Route(ctx context.Context, from, to spatial.Coordinates) (Cost, error) {
	url := fmt.Sprintf("%s/route/v1/%s/%s?overview=false",
		e.baseURL, e.profile, coordPath([]spatial.Coordinates{from, to}))

	var decoded osrmRouteResponse
	if err := e.get(ctx, url, &decoded); err != nil {
		return Cost{}, err
	}
	if !strings.EqualFold(decoded.Code, "ok") {
		return Cost{}, fmt.Errorf("engine rejected route: %s %s", decoded.Code, decoded.Message)
	}
	if len(decoded.Routes) == 0 {
		return Cost{}, fmt.Errorf("engine found no route")
	}
	return Cost{
		Distance: int64(decoded.Routes[0].Distance),
		Duration: int64(decoded.Routes[0].Duration),
	}, nil
}

func (e *OSRMEngine) get(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating engine request: %w", err)
	}
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("engine request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("engine request: unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding engine response: %w", err)
	}
	return nil
}

func coordPath(coords []spatial.Coordinates) string {
	var b strings.Builder
	for i, c := range coords {
		if i > 0 {
			b.WriteByte(';')
		}
		fmt.Fprintf(&b, "%f,%f", c.Longitude, c.Latitude)
	}
	return b.String()
}
