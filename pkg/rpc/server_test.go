package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wayfarer/pkg/config"
)

// echoService answers with its params and the caller uid.
type echoService struct {
	authenticated bool
	err           error
}

func (s *echoService) Authenticated() bool { return s.authenticated }

func (s *echoService) Invoke(_ context.Context, params json.RawMessage, session *Session) (any, error) {
	if s.err != nil {
		return nil, s.err
	}
	uid := ""
	if session != nil {
		uid = session.UID
	}
	return map[string]any{"params": string(params), "uid": uid}, nil
}

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	guard, err := NewGuard(context.Background(), []config.AuthEntry{hs256Entry()})
	require.NoError(t, err)

	dispatcher := NewDispatcher(map[string]Service{
		"echo":         &echoService{authenticated: true},
		"echo.open":    &echoService{},
		"echo.failing": &echoService{authenticated: true, err: InvalidArgument("too many waypoints")},
		"echo.broken":  &echoService{err: assertError{}},
	})

	server := NewServer("127.0.0.1:0", guard, dispatcher)
	srv := httptest.NewServer(server.Handler)
	t.Cleanup(srv.Close)
	return srv
}

type assertError struct{}

func (assertError) Error() string { return "downstream exploded" }

func postRPC(t *testing.T, srv *httptest.Server, token, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/", strings.NewReader(body))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestServerHealthcheck(t *testing.T) {
	srv := testServer(t)

	resp, err := srv.Client().Get(srv.URL + "/healthcheck")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServerCORSPreflight(t *testing.T) {
	srv := testServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "authorization, content-type", resp.Header.Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "post", resp.Header.Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
}

func TestServerPostDispatch(t *testing.T) {
	srv := testServer(t)
	token := mintHS256(t, "k1", baseClaims())

	resp, decoded := postRPC(t, srv, token,
		`{"jsonrpc": "2.0", "method": "echo", "params": {"x": 1}, "id": 7}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, float64(7), decoded["id"])

	result := decoded["result"].(map[string]any)
	assert.Equal(t, "+48111222333", result["uid"])
	assert.JSONEq(t, `{"x": 1}`, result["params"].(string))
}

func TestServerPostErrors(t *testing.T) {
	srv := testServer(t)
	token := mintHS256(t, "k1", baseClaims())

	t.Run("unauthenticated call to protected method", func(t *testing.T) {
		resp, decoded := postRPC(t, srv, "",
			`{"jsonrpc": "2.0", "method": "echo", "id": 1}`)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.NotNil(t, decoded["error"])
	})

	t.Run("open method without credentials", func(t *testing.T) {
		resp, decoded := postRPC(t, srv, "",
			`{"jsonrpc": "2.0", "method": "echo.open", "id": 2}`)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		result := decoded["result"].(map[string]any)
		assert.Equal(t, "", result["uid"])
	})

	t.Run("unknown method", func(t *testing.T) {
		resp, _ := postRPC(t, srv, token,
			`{"jsonrpc": "2.0", "method": "nope", "id": 3}`)
		assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
	})

	t.Run("invalid argument", func(t *testing.T) {
		resp, decoded := postRPC(t, srv, token,
			`{"jsonrpc": "2.0", "method": "echo.failing", "id": 4}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		errBody := decoded["error"].(map[string]any)
		assert.Equal(t, "too many waypoints", errBody["message"])
		assert.Equal(t, CodeInvalidArgument, errBody["data"])
	})

	t.Run("downstream failure maps to 500", func(t *testing.T) {
		resp, _ := postRPC(t, srv, "",
			`{"jsonrpc": "2.0", "method": "echo.broken", "id": 5}`)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})

	t.Run("malformed body", func(t *testing.T) {
		resp, _ := postRPC(t, srv, token, `{"jsonrpc": `)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("other methods rejected", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodDelete, srv.URL+"/", nil)
		require.NoError(t, err)
		resp, err := srv.Client().Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}

func dialWS(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/"
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestServerWebSocketSession(t *testing.T) {
	srv := testServer(t)
	token := mintHS256(t, "k1", baseClaims())
	conn := dialWS(t, srv, token)

	// responses come back in request order over one session
	for i := 1; i <= 3; i++ {
		req := map[string]any{"jsonrpc": "2.0", "method": "echo", "params": map[string]int{"n": i}, "id": i}
		require.NoError(t, conn.WriteJSON(req))

		var decoded map[string]any
		require.NoError(t, conn.ReadJSON(&decoded))
		assert.Equal(t, float64(i), decoded["id"])
		result := decoded["result"].(map[string]any)
		assert.Equal(t, "+48111222333", result["uid"])
	}
}

func TestServerWebSocketOpaqueErrors(t *testing.T) {
	srv := testServer(t)
	conn := dialWS(t, srv, "")

	// unauthenticated session: the protected call fails, the reason is hidden
	require.NoError(t, conn.WriteJSON(map[string]any{
		"jsonrpc": "2.0", "method": "echo", "id": 1,
	}))
	var decoded map[string]any
	require.NoError(t, conn.ReadJSON(&decoded))
	errBody := decoded["error"].(map[string]any)
	assert.Equal(t, "unspecified error", errBody["message"])

	// open methods still work on the same session
	require.NoError(t, conn.WriteJSON(map[string]any{
		"jsonrpc": "2.0", "method": "echo.open", "id": 2,
	}))
	require.NoError(t, conn.ReadJSON(&decoded))
	assert.NotNil(t, decoded["result"])
}
