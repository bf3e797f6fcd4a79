package rpc

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"wayfarer/pkg/config"
)

// refreshInterval is how often remote key sets are re-fetched.
const refreshInterval = 3600 * time.Second

// uidClaim is the token claim carrying the caller identity.
const uidClaim = "phone_number"

// validator verifies tokens signed under one key id.
type validator struct {
	name     string
	alg      string
	key      any
	issuer   string
	audience string
}

// Guard validates bearer tokens against a refreshable kid-to-validator set.
// The set is swapped wholesale on refresh; readers always see a consistent
// snapshot.
type Guard struct {
	entries    []config.AuthEntry
	httpClient *http.Client

	mu         sync.RWMutex
	validators map[string]*validator
}

// NewGuard builds the guard and loads the initial key set. Remote key-set
// fetch failures are fatal here but only logged on later refreshes.
func NewGuard(ctx context.Context, entries []config.AuthEntry) (*Guard, error) {
	g := &Guard{
		entries:    entries,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		validators: make(map[string]*validator),
	}
	if err := g.Refresh(ctx); err != nil {
		return nil, err
	}
	return g, nil
}

// Run refreshes the key set on a fixed interval until the context ends.
func (g *Guard) Run(ctx context.Context) {
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := g.Refresh(ctx); err != nil {
				slog.Error("refreshing auth key set", "error", err)
			}
		}
	}
}

// Refresh rebuilds the full validator set and swaps it in.
func (g *Guard) Refresh(ctx context.Context) error {
	next := make(map[string]*validator)
	for _, entry := range g.entries {
		keys := entry.Keys.Inline
		if entry.Keys.URL != "" {
			fetched, err := g.fetchKeys(ctx, entry.Keys.URL)
			if err != nil {
				return fmt.Errorf("fetching key set %s: %w", entry.Name, err)
			}
			keys = fetched
		}
		for kid, material := range keys {
			v, err := buildValidator(entry, material)
			if err != nil {
				return fmt.Errorf("key set %s, kid %s: %w", entry.Name, kid, err)
			}
			next[kid] = v
		}
	}

	g.mu.Lock()
	g.validators = next
	g.mu.Unlock()
	slog.Debug("auth key set refreshed", "keys", len(next))
	return nil
}

// Authorize validates the Authorization header and returns the caller
// session, or nil when the credentials do not hold up. Callers surface the
// nil as not_authorized; the reason stays in the log.
func (g *Guard) Authorize(header, remote string) *Session {
	token, ok := bearerToken(header)
	if !ok {
		return nil
	}

	var matched *validator
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		v := g.lookup(kid)
		if v == nil {
			return nil, fmt.Errorf("unknown kid %q", kid)
		}
		if t.Method.Alg() != v.alg {
			return nil, fmt.Errorf("token alg %s, key expects %s", t.Method.Alg(), v.alg)
		}
		matched = v
		return v.key, nil
	})
	if err != nil || !parsed.Valid || matched == nil {
		slog.Debug("token rejected", "error", err)
		return nil
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}
	if matched.issuer != "" {
		if iss, _ := claims.GetIssuer(); iss != matched.issuer {
			slog.Debug("token rejected", "reason", "issuer mismatch", "issuer", iss)
			return nil
		}
	}
	if matched.audience != "" {
		aud, _ := claims.GetAudience()
		if !containsAudience(aud, matched.audience) {
			slog.Debug("token rejected", "reason", "audience mismatch")
			return nil
		}
	}
	uid, _ := claims[uidClaim].(string)
	if uid == "" {
		slog.Debug("token rejected", "reason", "no uid claim")
		return nil
	}
	return &Session{UID: uid, IDP: matched.name, RemoteEndpoint: remote}
}

func (g *Guard) lookup(kid string) *validator {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.validators[kid]
}

func (g *Guard) fetchKeys(ctx context.Context, url string) (map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, err
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	var keys map[string]string
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, fmt.Errorf("parsing key document: %w", err)
	}
	return keys, nil
}

func buildValidator(entry config.AuthEntry, material string) (*validator, error) {
	v := &validator{
		name:     entry.Name,
		issuer:   entry.Issuer,
		audience: entry.Audience,
	}
	switch entry.Type {
	case "jwt+rs256":
		key, err := parseRSAPublicKey([]byte(material))
		if err != nil {
			return nil, err
		}
		v.alg = jwt.SigningMethodRS256.Alg()
		v.key = key
	case "jwt+hs256":
		v.alg = jwt.SigningMethodHS256.Alg()
		v.key = []byte(material)
	default:
		return nil, fmt.Errorf("unknown validator type %q", entry.Type)
	}
	return v, nil
}

// parseRSAPublicKey accepts both bare public keys and x509 certificates,
// which is what identity providers publish at their key URLs.
func parseRSAPublicKey(material []byte) (*rsa.PublicKey, error) {
	if key, err := jwt.ParseRSAPublicKeyFromPEM(material); err == nil {
		return key, nil
	}
	block, _ := pem.Decode(material)
	if block == nil {
		return nil, fmt.Errorf("no PEM block in key material")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parsing key material: %w", err)
	}
	key, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("certificate does not carry an RSA key")
	}
	return key, nil
}

func bearerToken(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}

func containsAudience(aud jwt.ClaimStrings, want string) bool {
	for _, a := range aud {
		if a == want {
			return true
		}
	}
	return false
}
