// Package rpc is the JSON-RPC front end: a single HTTP listener serving
// one-shot POST calls and long-lived WebSocket sessions, an auth guard
// validating bearer tokens, and a method-to-service dispatch map.
package rpc

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Session is the authenticated caller identity attached to a connection.
// A nil *Session means the call carried no valid credentials.
type Session struct {
	UID            string
	IDP            string
	RemoteEndpoint string
}

// Service handles one JSON-RPC method.
type Service interface {
	// Authenticated reports whether the method requires a valid session.
	Authenticated() bool

	// Invoke runs the method. The session is nil for unauthenticated calls
	// to methods that allow them.
	Invoke(ctx context.Context, params json.RawMessage, session *Session) (any, error)
}

// request is the JSON-RPC envelope read off the wire.
type request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      json.RawMessage `json:"id,omitempty"`
}

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *errorBody      `json:"error,omitempty"`
}

// Dispatcher routes parsed requests to their services.
type Dispatcher struct {
	services map[string]Service
}

// NewDispatcher builds the method map. The map is immutable afterwards.
func NewDispatcher(services map[string]Service) *Dispatcher {
	return &Dispatcher{services: services}
}

// Dispatch parses one JSON-RPC document, enforces the method's auth
// requirement and invokes it. The returned error is always a taxonomy
// *Error; the caller maps it to the transport.
func (d *Dispatcher) Dispatch(ctx context.Context, data []byte, session *Session) (*response, *Error) {
	var req request
	if err := json.Unmarshal(data, &req); err != nil {
		return respondError(nil, BadRequest("parsing request: %v", err))
	}
	if req.Method == "" {
		return respondError(req.ID, BadRequest("request has no method"))
	}

	svc, ok := d.services[req.Method]
	if !ok {
		return respondError(req.ID, NotImplemented(req.Method))
	}
	if svc.Authenticated() && session == nil {
		return respondError(req.ID, NotAuthorized())
	}

	result, err := svc.Invoke(ctx, req.Params, session)
	if err != nil {
		rerr := AsError(err)
		slog.Warn("rpc call failed", "method", req.Method, "code", rerr.Code, "error", rerr.Message)
		return respondError(req.ID, rerr)
	}
	return &response{JSONRPC: "2.0", ID: req.ID, Result: result}, nil
}

func respondError(id json.RawMessage, err *Error) (*response, *Error) {
	return &response{
		JSONRPC: "2.0",
		ID:      id,
		Error: &errorBody{
			Code:    -HTTPStatus(err.Code),
			Message: err.Message,
			Data:    err.Code,
		},
	}, err
}
