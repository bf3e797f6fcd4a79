// Package services implements the JSON-RPC method handlers: synchronous and
// asynchronous trip optimization, result polling, geocoding, point-to-point
// distance and device check-in.
package services

import (
	"context"

	"wayfarer/pkg/config"
	"wayfarer/pkg/geocoder"
	"wayfarer/pkg/routing"
	"wayfarer/pkg/rpc"
	"wayfarer/pkg/spatial"
	"wayfarer/pkg/store"
)

// Optimizer is the routing-pool surface the services call.
type Optimizer interface {
	OptimizeTrip(ctx context.Context, trip routing.Trip, region string) (*routing.OptimizedTrip, error)
	Distance(ctx context.Context, from, to spatial.Coordinates, region string) (routing.Cost, error)
}

// Scheduler enqueues async trip requests.
type Scheduler interface {
	ScheduleTrip(ctx context.Context, req *routing.TripRequest) (*routing.Promise, error)
}

// TripStore reads optimization outcomes.
type TripStore interface {
	Get(ctx context.Context, id string) (*store.TripRecord, error)
}

// AccountStore manages caller accounts and their devices.
type AccountStore interface {
	Get(ctx context.Context, uid string) (*store.Account, error)
	Signup(ctx context.Context, uid string, device store.Device) (*store.Account, error)
	Save(ctx context.Context, account *store.Account) error
}

// LocationStore records audit events.
type LocationStore interface {
	Record(ctx context.Context, event store.LocationEvent) error
}

// AddressLookup is the geocoder façade surface.
type AddressLookup interface {
	Lookup(ctx context.Context, location spatial.Coordinates, text string, overrides geocoder.AddressComponents) (geocoder.Result, error)
}

// Deps carries the shared engines the services dispatch onto. Everything
// here is read-only after construction.
type Deps struct {
	World     *spatial.World
	Geocoder  AddressLookup
	Pool      Optimizer
	Scheduler Scheduler
	Trips     TripStore
	Accounts  AccountStore
	Locations LocationStore

	MaxWaypoints int
	Token        config.TokenConfig
}

// Register builds the method map served by the front end.
func Register(deps Deps) map[string]rpc.Service {
	return map[string]rpc.Service{
		"trip":       &tripService{deps: deps},
		"trip.async": &tripAsyncService{deps: deps},
		"trip.poll":  &tripPollService{deps: deps},
		"geocode":    &geocodeService{deps: deps},
		"distance":   &distanceService{deps: deps},
		"checkin":    &checkinService{deps: deps},
	}
}
