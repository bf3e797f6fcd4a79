// Package config loads and validates the service configuration document.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Config is the root of the JSON configuration document.
type Config struct {
	Log      LogConfig      `json:"log"`
	RPC      RPCConfig      `json:"rpc"`
	Auth     TokenConfig    `json:"authentication"`
	AWS      AWSConfig      `json:"aws"`
	Geocoder GeocoderConfig `json:"geocoder"`
	Routing  RoutingConfig  `json:"routing"`
	Regions  []RegionConfig `json:"regions"`
}

// LogConfig controls the process-global logger.
type LogConfig struct {
	Level string `json:"level"`
	Path  string `json:"path"`
}

// RPCConfig describes the front-end listener and the token validators.
type RPCConfig struct {
	Address string      `json:"address"`
	Port    int         `json:"port"`
	Auth    []AuthEntry `json:"auth"`
}

// AuthEntry configures one token validator of the auth guard.
type AuthEntry struct {
	Type     string    `json:"type"` // "jwt+rs256" or "jwt+hs256"
	Name     string    `json:"name"`
	Issuer   string    `json:"issuer"`
	Audience string    `json:"audience"`
	Keys     KeySource `json:"keys"`
}

// KeySource is either an inline kid→key map or a URL the key set is fetched
// from. In the JSON document it is an object for the former and a string for
// the latter.
type KeySource struct {
	Inline map[string]string
	URL    string
}

func (k *KeySource) UnmarshalJSON(data []byte) error {
	var url string
	if err := json.Unmarshal(data, &url); err == nil {
		k.URL = url
		return nil
	}
	return json.Unmarshal(data, &k.Inline)
}

func (k KeySource) MarshalJSON() ([]byte, error) {
	if k.URL != "" {
		return json.Marshal(k.URL)
	}
	return json.Marshal(k.Inline)
}

// TokenConfig configures the tokens minted by the check-in service.
type TokenConfig struct {
	Secret          string `json:"secret"`
	TokenTTLSeconds int64  `json:"token_ttl"`
}

// AWSConfig names the external queue, table and object-store resources.
type AWSConfig struct {
	LogLevel  string `json:"log_level"`
	Region    string `json:"region"`
	Endpoint  string `json:"endpoint"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
	Tables    struct {
		Trips     string `json:"trips"`
		Accounts  string `json:"accounts"`
		Locations string `json:"locations"`
	} `json:"tables"`
	Queues struct {
		PendingRoutes string `json:"pending_routes"`
	} `json:"queues"`
}

// GeocoderConfig selects the address-book backend and the address
// decomposition endpoint.
type GeocoderConfig struct {
	Mode string `json:"mode"` // "sqlite_fts" or "memory"
	NER  string `json:"ner"`  // labeling model endpoint
}

// RoutingConfig tunes the routing pool and the worker pool.
type RoutingConfig struct {
	Algorithm         string `json:"algorithm"`
	MaxWaypoints      int    `json:"max_waypoints"`
	AsyncThreshold    int    `json:"async_threshold"`
	WorkerConcurrency int    `json:"worker_concurrency"`
}

// RegionConfig describes one region's data sources. Source entries are URLs
// (http, https, s3) or local paths.
type RegionConfig struct {
	Name        string            `json:"name"`
	Enabled     *bool             `json:"enabled"`
	AddressBook map[string]string `json:"addressbook"` // keyed by geocoder mode
	Poly        string            `json:"poly"`
	OSRM        OSRMConfig        `json:"osrm"`
}

// OSRMConfig holds the per-algorithm index archives and the engine endpoint
// that serves the extracted index.
type OSRMConfig struct {
	CH  string `json:"ch"`
	MLD string `json:"mld"`
	URL string `json:"url"`
}

// IsEnabled treats a missing enabled flag as enabled.
func (r RegionConfig) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// Archive returns the index archive source for the given algorithm.
func (r RegionConfig) Archive(algo Algorithm) string {
	if algo == AlgorithmMLD {
		return r.OSRM.MLD
	}
	return r.OSRM.CH
}

// Load reads, parses and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.RPC.Port < 0 || c.RPC.Port > 65535 {
		return fmt.Errorf("rpc.port %d out of range", c.RPC.Port)
	}
	for i, entry := range c.RPC.Auth {
		switch entry.Type {
		case "jwt+rs256", "jwt+hs256":
		default:
			return fmt.Errorf("rpc.auth[%d]: unknown validator type %q", i, entry.Type)
		}
		if entry.Name == "" {
			return fmt.Errorf("rpc.auth[%d]: name must not be empty", i)
		}
		if len(entry.Keys.Inline) == 0 && entry.Keys.URL == "" {
			return fmt.Errorf("rpc.auth[%d]: keys must be an inline map or a url", i)
		}
	}
	if c.Geocoder.Mode != "" {
		if _, err := ParseGeocoderMode(c.Geocoder.Mode); err != nil {
			return err
		}
	}
	if c.Routing.Algorithm != "" {
		if _, err := ParseAlgorithm(c.Routing.Algorithm); err != nil {
			return err
		}
	}
	seen := make(map[string]struct{}, len(c.Regions))
	for i, region := range c.Regions {
		if region.Name == "" {
			return fmt.Errorf("regions[%d]: name must not be empty", i)
		}
		if _, dup := seen[region.Name]; dup {
			return fmt.Errorf("regions[%d]: duplicate region %q", i, region.Name)
		}
		seen[region.Name] = struct{}{}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Geocoder.Mode == "" {
		c.Geocoder.Mode = "sqlite_fts"
	}
	if c.Routing.Algorithm == "" {
		c.Routing.Algorithm = "ch"
	}
	if c.Routing.MaxWaypoints <= 0 {
		c.Routing.MaxWaypoints = 500
	}
	if c.Routing.AsyncThreshold <= 0 {
		c.Routing.AsyncThreshold = 15
	}
}

// EnabledRegions filters the region list down to the active set.
func (c *Config) EnabledRegions() []RegionConfig {
	out := make([]RegionConfig, 0, len(c.Regions))
	for _, r := range c.Regions {
		if r.IsEnabled() {
			out = append(out, r)
		}
	}
	return out
}

// GeocoderMode is the closed set of address-book backends.
type GeocoderMode int

const (
	ModeSQLiteFTS GeocoderMode = iota
	ModeMemory
)

// ParseGeocoderMode maps the config string to a backend mode.
func ParseGeocoderMode(s string) (GeocoderMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sqlite_fts", "sqlite-fts", "sqlite":
		return ModeSQLiteFTS, nil
	case "memory", "prefix_tree", "prefix-tree":
		return ModeMemory, nil
	default:
		return 0, fmt.Errorf("unknown geocoder mode %q", s)
	}
}

func (m GeocoderMode) String() string {
	if m == ModeMemory {
		return "memory"
	}
	return "sqlite_fts"
}
