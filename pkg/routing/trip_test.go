package routing

import (
	"encoding/json"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wayfarer/pkg/model"
	"wayfarer/pkg/spatial"
)

func wp(id int64, lat, lng float64) Waypoint {
	return Waypoint{Building: model.Building{
		ID:     id,
		Coords: spatial.Coordinates{Latitude: lat, Longitude: lng},
		City:   "Białystok",
		Street: "Wiejska",
		Number: "1",
	}}
}

func openTrip() Trip {
	return Trip{Waypoints: []Waypoint{
		wp(10, 53.10, 23.10),
		wp(20, 53.20, 23.20),
		wp(30, 53.30, 23.30),
		wp(40, 53.40, 23.40),
	}}
}

func roundTrip() Trip {
	return Trip{Waypoints: []Waypoint{
		wp(10, 53.10, 23.10),
		wp(20, 53.20, 23.20),
		wp(30, 53.30, 23.30),
		wp(10, 53.10, 23.10),
	}}
}

func legs(costs ...Cost) []Leg {
	out := make([]Leg, len(costs))
	for i, c := range costs {
		out[i].Cost = c
	}
	return out
}

func TestRoundtripDetection(t *testing.T) {
	assert.False(t, openTrip().Roundtrip())
	assert.True(t, roundTrip().Roundtrip())
}

func TestTripValidate(t *testing.T) {
	assert.NoError(t, openTrip().Validate())

	short := Trip{Waypoints: []Waypoint{wp(1, 1, 1), wp(2, 2, 2)}}
	assert.Error(t, short.Validate())

	noStart := openTrip()
	noStart.Waypoints[0].Building.ID = 0
	assert.Error(t, noStart.Validate())

	noFinal := openTrip()
	noFinal.Waypoints[len(noFinal.Waypoints)-1].Building.ID = 0
	assert.Error(t, noFinal.Validate())
}

func TestNewOptimizedTripReordersOpenTrip(t *testing.T) {
	// engine visits the middle stops in reverse
	trip := openTrip()
	ot, err := NewOptimizedTrip(trip, []int{0, 2, 1, 3},
		legs(Cost{100, 10}, Cost{200, 20}, Cost{300, 30}), "geom")
	require.NoError(t, err)

	ids := func() []int64 {
		out := make([]int64, len(ot.Waypoints))
		for i, w := range ot.Waypoints {
			out[i] = w.Building.ID
		}
		return out
	}
	assert.Equal(t, []int64{10, 30, 20, 40}, ids())

	require.Len(t, ot.Legs, 3)
	assert.Equal(t, int64(10), ot.Legs[0].FromBuilding)
	assert.Equal(t, int64(30), ot.Legs[0].ToBuilding)
	assert.Equal(t, int64(30), ot.Legs[1].FromBuilding)
	assert.Equal(t, int64(20), ot.Legs[1].ToBuilding)
	assert.Equal(t, int64(20), ot.Legs[2].FromBuilding)
	assert.Equal(t, int64(40), ot.Legs[2].ToBuilding)

	assert.Equal(t, Cost{Distance: 600, Duration: 60}, ot.TotalCost())
	assert.Equal(t, "geom", ot.Geometry)
}

func TestNewOptimizedTripRoundtrip(t *testing.T) {
	// permutation covers the deduplicated list; the trailing duplicate stays
	trip := roundTrip()
	ot, err := NewOptimizedTrip(trip, []int{0, 2, 1},
		legs(Cost{1, 1}, Cost{2, 2}, Cost{3, 3}), "geom")
	require.NoError(t, err)

	require.Len(t, ot.Legs, 3)
	assert.Equal(t, int64(10), ot.Legs[0].FromBuilding)
	assert.Equal(t, int64(30), ot.Legs[0].ToBuilding)
	assert.Equal(t, int64(30), ot.Legs[1].FromBuilding)
	assert.Equal(t, int64(20), ot.Legs[1].ToBuilding)
	assert.Equal(t, int64(20), ot.Legs[2].FromBuilding)
	// the closing leg returns to the starting building
	assert.Equal(t, int64(10), ot.Legs[2].ToBuilding)
}

func TestNewOptimizedTripRejectsBadShapes(t *testing.T) {
	t.Run("permutation too short", func(t *testing.T) {
		_, err := NewOptimizedTrip(openTrip(), []int{0, 1, 2},
			legs(Cost{}, Cost{}, Cost{}), "geom")
		assert.Error(t, err)
	})

	t.Run("wrong leg count", func(t *testing.T) {
		_, err := NewOptimizedTrip(openTrip(), []int{0, 1, 2, 3},
			legs(Cost{}, Cost{}), "geom")
		assert.Error(t, err)
	})
}

func TestTripJSONRoundtrip(t *testing.T) {
	trip := openTrip()
	trip.Waypoints[1].Phone = "+48123456789"
	trip.Waypoints[1].Notes = "gate code 1234"

	data, err := json.Marshal(trip)
	require.NoError(t, err)

	var parsed Trip
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, trip, parsed)

	again, err := json.Marshal(parsed)
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(again))
}

func TestTripRequestJSONRoundtrip(t *testing.T) {
	req := TripRequest{
		Meta: Metadata{
			ID:        "s_abcdefghABCDEFGH",
			Region:    "podlaskie",
			AccountID: "+48111222333",
		},
		Location: spatial.Coordinates{Latitude: 53.13, Longitude: 23.14},
		Trip:     openTrip(),
	}
	require.NoError(t, req.Validate())

	data, err := json.Marshal(req)
	require.NoError(t, err)

	parsed, err := ParseTripRequest(data)
	require.NoError(t, err)
	assert.Equal(t, req.Meta.ID, parsed.Meta.ID)
	assert.Equal(t, req.Location, parsed.Location)
	assert.Equal(t, req.Trip, parsed.Trip)
}

func TestParseTripRequestRejectsInvalid(t *testing.T) {
	_, err := ParseTripRequest([]byte(`{"meta": {`))
	assert.Error(t, err)

	// structurally valid JSON, semantically invalid request
	_, err = ParseTripRequest([]byte(`{"meta": {"region": "", "accountid": "a"}}`))
	assert.Error(t, err)
}

func TestNewTripResponseValidation(t *testing.T) {
	ot, err := NewOptimizedTrip(openTrip(), []int{0, 1, 2, 3},
		legs(Cost{}, Cost{}, Cost{}), "geom")
	require.NoError(t, err)

	resp, err := NewTripResponse(ot, Metadata{Region: "podlaskie", AccountID: "a"})
	require.NoError(t, err)
	assert.Equal(t, "podlaskie", resp.Meta.Region)

	bare := *ot
	bare.Geometry = ""
	_, err = NewTripResponse(&bare, Metadata{})
	assert.Error(t, err)
}

func TestSyncTripID(t *testing.T) {
	pattern := regexp.MustCompile(`^s_[A-Za-z]{16}$`)
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := SyncTripID()
		assert.Regexp(t, pattern, id)
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, 100)
}
