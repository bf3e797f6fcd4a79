package services

import (
	"context"
	"encoding/json"
	"errors"

	"wayfarer/pkg/geocoder"
	"wayfarer/pkg/rpc"
	"wayfarer/pkg/spatial"
)

// geocodeService resolves free-form query text to buildings near the caller.
type geocodeService struct {
	deps Deps
}

func (s *geocodeService) Authenticated() bool { return true }

type geocodeParams struct {
	Text       string                     `json:"text"`
	Location   spatial.Coordinates        `json:"location"`
	Mode       string                     `json:"mode"`
	Components geocoder.AddressComponents `json:"components"`
}

func (s *geocodeService) Invoke(ctx context.Context, params json.RawMessage, _ *rpc.Session) (any, error) {
	var p geocodeParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, rpc.BadRequest("parsing geocode request: %v", err)
	}
	switch p.Mode {
	case "", "text", "camera":
	default:
		return nil, rpc.BadRequest("unknown geocode mode %q", p.Mode)
	}
	if p.Text == "" && p.Components.Empty() {
		return nil, rpc.BadRequest("geocode request has no text")
	}

	result, err := s.deps.Geocoder.Lookup(ctx, p.Location, p.Text, p.Components)
	if err != nil {
		if errors.Is(err, geocoder.ErrUnsupportedLocation) {
			return nil, rpc.BadRequest("location is not in a served region")
		}
		return nil, rpc.ServerError(err)
	}
	return result, nil
}
