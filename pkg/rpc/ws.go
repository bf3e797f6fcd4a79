package rpc

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
)

const (
	wsReadBuffer  = 4 << 10
	wsWriteBuffer = 4 << 10

	// wsMaxMessage bounds a single frame.
	wsMaxMessage = 64 << 10

	// wsCompressionLevel tunes permessage-deflate.
	wsCompressionLevel = 3
)

// handleUpgrade authorizes once, upgrades and runs the session loop. A
// connection without credentials is still upgraded: methods open to
// unauthenticated callers stay reachable, everything else fails per call.
func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	session := s.guard.Authorize(r.Header.Get("Authorization"), r.RemoteAddr)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(wsMaxMessage)
	if err := conn.SetCompressionLevel(wsCompressionLevel); err != nil {
		slog.Warn("setting websocket compression", "error", err)
	}

	s.serveSession(r, conn, session)
}

// serveSession processes one request at a time, in order: read a text
// frame, dispatch, write the response frame, loop.
func (s *Server) serveSession(r *http.Request, conn *websocket.Conn, session *Session) {
	log := slog.With("remote", r.RemoteAddr)
	log.Debug("websocket session opened", "authenticated", session != nil)

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("websocket session ended", "error", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		resp, rerr := s.dispatcher.Dispatch(r.Context(), data, session)
		if rerr != nil {
			// Streaming errors are deliberately opaque.
			resp.Error.Message = "unspecified error"
			resp.Error.Data = ""
		}
		payload, err := json.Marshal(resp)
		if err != nil {
			log.Error("encoding websocket response", "error", err)
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Debug("writing websocket response", "error", err)
			return
		}
	}
}
