package rpc

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Server is the front-end listener: healthcheck, CORS preflight, one-shot
// JSON-RPC over POST and long-lived JSON-RPC over WebSocket, all on "/".
type Server struct {
	guard      *Guard
	dispatcher *Dispatcher
	upgrader   websocket.Upgrader
}

// NewServer wires the guard and the dispatcher into an http.Server bound to
// addr.
func NewServer(addr string, guard *Guard, dispatcher *Dispatcher) *http.Server {
	s := &Server{
		guard:      guard,
		dispatcher: dispatcher,
		upgrader: websocket.Upgrader{
			ReadBufferSize:    wsReadBuffer,
			WriteBufferSize:   wsWriteBuffer,
			EnableCompression: true,
			CheckOrigin:       func(*http.Request) bool { return true },
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthcheck", s.handleHealthcheck)
	mux.HandleFunc("/", s.handleRoot)

	// No WriteTimeout: it would cut down long-lived WebSocket sessions.
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func (s *Server) handleHealthcheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	switch {
	case websocket.IsWebSocketUpgrade(r):
		s.handleUpgrade(w, r)
	case r.Method == http.MethodOptions:
		writeCORS(w.Header())
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPost:
		s.handlePost(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// maxBodySize bounds one-shot request bodies.
const maxBodySize = 64 << 10

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	session := s.guard.Authorize(r.Header.Get("Authorization"), r.RemoteAddr)

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeResponse(w, http.StatusBadRequest, &response{
			JSONRPC: "2.0",
			Error:   &errorBody{Code: -http.StatusBadRequest, Message: err.Error(), Data: CodeBadRequest},
		})
		return
	}

	resp, rerr := s.dispatcher.Dispatch(r.Context(), body, session)
	status := http.StatusOK
	if rerr != nil {
		status = HTTPStatus(rerr.Code)
	}
	writeResponse(w, status, resp)
}

func writeResponse(w http.ResponseWriter, status int, resp *response) {
	writeCORS(w.Header())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("writing rpc response", "error", err)
	}
}

func writeCORS(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Headers", "authorization, content-type")
	h.Set("Access-Control-Allow-Methods", "post")
	h.Set("Access-Control-Allow-Credentials", "true")
}
