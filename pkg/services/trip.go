package services

import (
	"context"
	"encoding/json"
	"time"

	"wayfarer/pkg/routing"
	"wayfarer/pkg/rpc"
	"wayfarer/pkg/store"
)

// admitTrip parses and validates a trip request against the caller's region:
// the location must fall into a served region, the trip must be structurally
// sound, within the waypoint budget, and every waypoint must sit in the same
// region as the caller.
func admitTrip(deps Deps, params json.RawMessage, session *rpc.Session) (*routing.TripRequest, error) {
	var req routing.TripRequest
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, rpc.BadRequest("parsing trip request: %v", err)
	}

	region := deps.World.Locate(req.Location)
	if region == nil {
		return nil, rpc.InvalidArgument("location is not in a served region")
	}
	req.Meta.Region = region.Name()
	req.Meta.AccountID = session.UID
	req.Meta.CreatedAt = time.Now().UTC()

	if err := req.Trip.Validate(); err != nil {
		return nil, rpc.InvalidArgument("%v", err)
	}
	if len(req.Trip.Waypoints) > deps.MaxWaypoints {
		return nil, rpc.InvalidArgument("trip has %d waypoints, limit is %d",
			len(req.Trip.Waypoints), deps.MaxWaypoints)
	}
	for i, wp := range req.Trip.Waypoints {
		r := deps.World.Locate(wp.Building.Coords)
		if r == nil || r.Name() != region.Name() {
			return nil, rpc.InvalidArgument("waypoint %d is outside region %s", i, region.Name())
		}
	}
	return &req, nil
}

// tripService optimizes a trip synchronously, in-request.
type tripService struct {
	deps Deps
}

func (s *tripService) Authenticated() bool { return true }

func (s *tripService) Invoke(ctx context.Context, params json.RawMessage, session *rpc.Session) (any, error) {
	req, err := admitTrip(s.deps, params, session)
	if err != nil {
		return nil, err
	}
	req.Meta.ID = routing.SyncTripID()

	optimized, err := s.deps.Pool.OptimizeTrip(ctx, req.Trip, req.Meta.Region)
	if err != nil {
		return nil, rpc.ServerError(err)
	}
	resp, err := routing.NewTripResponse(optimized, req.Meta)
	if err != nil {
		return nil, rpc.ServerError(err)
	}
	return resp, nil
}

// tripAsyncService admits the same request shape but defers the work to the
// queue and answers with the scheduling promise.
type tripAsyncService struct {
	deps Deps
}

func (s *tripAsyncService) Authenticated() bool { return true }

func (s *tripAsyncService) Invoke(ctx context.Context, params json.RawMessage, session *rpc.Session) (any, error) {
	req, err := admitTrip(s.deps, params, session)
	if err != nil {
		return nil, err
	}

	promise, err := s.deps.Scheduler.ScheduleTrip(ctx, req)
	if err != nil {
		return nil, rpc.ServerError(err)
	}
	return map[string]any{"promise": promise}, nil
}

// tripPollService projects the stored outcome of an async trip.
type tripPollService struct {
	deps Deps
}

func (s *tripPollService) Authenticated() bool { return true }

type tripPollParams struct {
	TripID string `json:"tripid"`
}

func (s *tripPollService) Invoke(ctx context.Context, params json.RawMessage, session *rpc.Session) (any, error) {
	var p tripPollParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, rpc.BadRequest("parsing poll request: %v", err)
	}
	if p.TripID == "" {
		return nil, rpc.BadRequest("poll request has no tripid")
	}

	record, err := s.deps.Trips.Get(ctx, p.TripID)
	if err != nil {
		return nil, rpc.ServerError(err)
	}
	if record == nil {
		return map[string]any{"id": p.TripID, "status": "pending"}, nil
	}
	if record.AccountID != session.UID {
		return nil, rpc.NotAuthorized()
	}

	switch record.Status {
	case store.StatusReady:
		trip, err := record.OptimizedTrip()
		if err != nil {
			return nil, rpc.ServerError(err)
		}
		return map[string]any{
			"id":       record.ID,
			"status":   record.Status,
			"distance": record.Distance,
			"duration": record.Duration,
			"result":   trip,
		}, nil
	case store.StatusFailed:
		return map[string]any{
			"id":     record.ID,
			"status": record.Status,
			"error":  record.Error,
		}, nil
	default:
		return map[string]any{"id": record.ID, "status": record.Status}, nil
	}
}
