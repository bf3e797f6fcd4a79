package services

import (
	"context"
	"encoding/json"

	"wayfarer/pkg/rpc"
	"wayfarer/pkg/spatial"
)

// distanceService answers point-to-point travel cost within one region.
type distanceService struct {
	deps Deps
}

func (s *distanceService) Authenticated() bool { return true }

type distanceParams struct {
	From spatial.Coordinates `json:"from"`
	To   spatial.Coordinates `json:"to"`
}

func (s *distanceService) Invoke(ctx context.Context, params json.RawMessage, _ *rpc.Session) (any, error) {
	var p distanceParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, rpc.BadRequest("parsing distance request: %v", err)
	}

	fromRegion := s.deps.World.Locate(p.From)
	toRegion := s.deps.World.Locate(p.To)
	if fromRegion == nil || toRegion == nil {
		return nil, rpc.BadRequest("point is not in a served region")
	}
	if fromRegion.Name() != toRegion.Name() {
		return nil, rpc.BadRequest("points are in different regions")
	}

	cost, err := s.deps.Pool.Distance(ctx, p.From, p.To, fromRegion.Name())
	if err != nil {
		return nil, rpc.ServerError(err)
	}
	return map[string]int64{"meters": cost.Distance, "seconds": cost.Duration}, nil
}
