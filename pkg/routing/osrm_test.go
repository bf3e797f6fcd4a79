package routing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wayfarer/pkg/spatial"
)

func TestOSRMEngineTrip(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{
			"code": "Ok",
			"waypoints": [{"waypoint_index": 0}, {"waypoint_index": 2}, {"waypoint_index": 1}],
			"trips": [{
				"geometry": "abc123",
				"legs": [
					{"distance": 1000.6, "duration": 60.2},
					{"distance": 2000.1, "duration": 120.9}
				]
			}]
		}`))
	}))
	defer srv.Close()

	engine := NewOSRMEngine(srv.URL)
	coords := []spatial.Coordinates{
		{Latitude: 53.10, Longitude: 23.10},
		{Latitude: 53.20, Longitude: 23.20},
		{Latitude: 53.30, Longitude: 23.30},
	}
	plan, err := engine.Trip(context.Background(), coords, false)
	require.NoError(t, err)

	assert.Equal(t, "/trip/v1/driving/23.100000,53.100000;23.200000,53.200000;23.300000,53.300000", gotPath)
	assert.Contains(t, gotQuery, "roundtrip=false")
	assert.Contains(t, gotQuery, "source=first")
	assert.Contains(t, gotQuery, "destination=last")
	assert.Contains(t, gotQuery, "overview=full")

	assert.Equal(t, []int{0, 2, 1}, plan.Permutation)
	require.Len(t, plan.Legs, 2)
	assert.Equal(t, Cost{Distance: 1000, Duration: 60}, plan.Legs[0].Cost)
	assert.Equal(t, Cost{Distance: 2000, Duration: 120}, plan.Legs[1].Cost)
	assert.Equal(t, "abc123", plan.Geometry)
}

func TestOSRMEngineTripRoundtripQuery(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{
			"code": "ok",
			"waypoints": [{"waypoint_index": 0}, {"waypoint_index": 1}],
			"trips": [{"geometry": "g", "legs": [{}, {}]}]
		}`))
	}))
	defer srv.Close()

	engine := NewOSRMEngine(srv.URL)
	coords := []spatial.Coordinates{
		{Latitude: 53.10, Longitude: 23.10},
		{Latitude: 53.20, Longitude: 23.20},
	}
	_, err := engine.Trip(context.Background(), coords, true)
	require.NoError(t, err)
	assert.Contains(t, gotQuery, "roundtrip=true")
	assert.Contains(t, gotQuery, "destination=any")
}

func TestOSRMEngineTripErrors(t *testing.T) {
	t.Run("rejected code", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"code": "NoTrips", "message": "no route found"}`))
		}))
		defer srv.Close()

		engine := NewOSRMEngine(srv.URL)
		_, err := engine.Trip(context.Background(),
			[]spatial.Coordinates{{Latitude: 1, Longitude: 1}, {Latitude: 2, Longitude: 2}}, false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "NoTrips")
	})

	t.Run("waypoint count mismatch", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{
				"code": "Ok",
				"waypoints": [{"waypoint_index": 0}],
				"trips": [{"geometry": "g", "legs": []}]
			}`))
		}))
		defer srv.Close()

		engine := NewOSRMEngine(srv.URL)
		_, err := engine.Trip(context.Background(),
			[]spatial.Coordinates{{Latitude: 1, Longitude: 1}, {Latitude: 2, Longitude: 2}}, false)
		assert.Error(t, err)
	})

	t.Run("http error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer srv.Close()

		engine := NewOSRMEngine(srv.URL)
		_, err := engine.Trip(context.Background(),
			[]spatial.Coordinates{{Latitude: 1, Longitude: 1}, {Latitude: 2, Longitude: 2}}, false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 500")
	})
}

func TestOSRMEngineRoute(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"code": "Ok", "routes": [{"distance": 1234.7, "duration": 98.4}]}`))
	}))
	defer srv.Close()

	engine := NewOSRMEngine(srv.URL)
	cost, err := engine.Route(context.Background(),
		spatial.Coordinates{Latitude: 53.13, Longitude: 23.14},
		spatial.Coordinates{Latitude: 53.10, Longitude: 23.10})
	require.NoError(t, err)
	assert.Equal(t, "/route/v1/driving/23.140000,53.130000;23.100000,53.100000", gotPath)
	assert.Equal(t, Cost{Distance: 1234, Duration: 98}, cost)
}
