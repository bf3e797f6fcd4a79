package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"wayfarer/pkg/rpc"
	"wayfarer/pkg/spatial"
	"wayfarer/pkg/store"
)

// checkinService authenticates a device and records it on the caller's
// account. It is the only unauthenticated method: its output is the token
// the other methods require.
type checkinService struct {
	deps Deps
}

func (s *checkinService) Authenticated() bool { return false }

type checkinCredentials struct {
	Key string `json:"key"`
	NBF int64  `json:"nbf"`
}

type checkinParams struct {
	Credentials checkinCredentials  `json:"credentials"`
	Device      store.Device        `json:"device"`
	Location    spatial.Coordinates `json:"location"`
}

type checkinResponse struct {
	UID     string `json:"uid"`
	Expires int64  `json:"expires"`
	Token   string `json:"token"`
	New     bool   `json:"new,omitempty"`
}

func (p checkinParams) validate() error {
	if p.Credentials.Key == "" {
		return rpc.BadRequest("checkin has no credentials key")
	}
	if p.Credentials.NBF == 0 {
		return rpc.BadRequest("checkin has no nbf")
	}
	d := p.Device
	if d.UID == "" || d.Model == "" || d.Platform == "" || d.OSVersion == "" || d.AppVersion == "" {
		return rpc.BadRequest("checkin has an incomplete device description")
	}
	if p.Location.Empty() {
		return rpc.BadRequest("checkin has no location")
	}
	return nil
}

func (s *checkinService) Invoke(ctx context.Context, params json.RawMessage, _ *rpc.Session) (any, error) {
	var p checkinParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, rpc.BadRequest("parsing checkin request: %v", err)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	uid := p.Credentials.Key

	region := s.deps.World.Locate(p.Location)
	if region == nil {
		s.audit(ctx, uid, p.Location, "fail:region_not_supported")
		return nil, rpc.NotAuthorized()
	}

	account, err := s.deps.Accounts.Get(ctx, uid)
	if err != nil {
		return nil, rpc.ServerError(err)
	}
	signedUp := false
	switch {
	case account == nil:
		if account, err = s.deps.Accounts.Signup(ctx, uid, p.Device); err != nil {
			return nil, rpc.ServerError(err)
		}
		signedUp = true
		slog.Info("account signed up", "uid", uid, "region", region.Name())
	case !account.HasDevice(p.Device.Fingerprint()):
		account.Devices = append(account.Devices, p.Device)
		if err := s.deps.Accounts.Save(ctx, account); err != nil {
			return nil, rpc.ServerError(err)
		}
		slog.Info("device attached", "uid", uid, "devices", len(account.Devices))
	}

	expires := time.Now().UTC().Add(time.Duration(s.deps.Token.TokenTTLSeconds) * time.Second)
	token, err := s.mintToken(uid, expires)
	if err != nil {
		return nil, rpc.ServerError(err)
	}

	s.audit(ctx, uid, p.Location, "ok")
	return checkinResponse{
		UID:     uid,
		Expires: expires.Unix(),
		Token:   token,
		New:     signedUp,
	}, nil
}

// mintToken issues the HS256 session token the auth guard validates.
func (s *checkinService) mintToken(uid string, expires time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss":          "wayfarer",
		"aud":          "wayfarer-app",
		"exp":          expires.Unix(),
		"nbf":          time.Now().UTC().Unix(),
		"phone_number": uid,
	})
	token.Header["kid"] = "internal"
	return token.SignedString([]byte(s.deps.Token.Secret))
}

func (s *checkinService) audit(ctx context.Context, uid string, location spatial.Coordinates, outcome string) {
	err := s.deps.Locations.Record(ctx, store.LocationEvent{
		AccountID:   uid,
		Location:    location,
		EventType:   "authentication",
		EventParams: outcome,
	})
	if err != nil {
		slog.Error("recording location event", "uid", uid, "error", err)
	}
}
