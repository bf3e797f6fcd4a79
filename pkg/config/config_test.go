package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `{
  "log": {"level": "debug"},
  "rpc": {
    "address": "0.0.0.0",
    "port": 8080,
    "auth": [
      {
        "type": "jwt+hs256",
        "name": "internal",
        "issuer": "wayfarer",
        "audience": "mobile",
        "keys": {"k1": "sekret"}
      },
      {
        "type": "jwt+rs256",
        "name": "firebase",
        "issuer": "https://securetoken.example.com/app",
        "audience": "app",
        "keys": "https://example.com/keys"
      }
    ]
  },
  "authentication": {"secret": "sekret", "token_ttl": 86400},
  "aws": {
    "log_level": "warn",
    "region": "eu-central-1",
    "tables": {"trips": "trips", "accounts": "accounts", "locations": "locations"},
    "queues": {"pending_routes": "pending-routes"}
  },
  "geocoder": {"mode": "sqlite_fts"},
  "routing": {"algorithm": "ch", "max_waypoints": 100, "worker_concurrency": 2},
  "regions": [
    {
      "name": "podlaskie",
      "addressbook": {"sqlite_fts": "s3://maps/podlaskie.db"},
      "poly": "s3://maps/podlaskie.poly",
      "osrm": {"ch": "s3://maps/podlaskie-ch.tar.bz2", "url": "http://127.0.0.1:5001"}
    },
    {
      "name": "pomorskie",
      "enabled": false,
      "addressbook": {"sqlite_fts": "s3://maps/pomorskie.db"},
      "poly": "s3://maps/pomorskie.poly",
      "osrm": {"ch": "s3://maps/pomorskie-ch.tar.bz2", "url": "http://127.0.0.1:5002"}
    }
  ]
}`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.RPC.Address)
	assert.Equal(t, 8080, cfg.RPC.Port)
	require.Len(t, cfg.RPC.Auth, 2)
	assert.Equal(t, map[string]string{"k1": "sekret"}, cfg.RPC.Auth[0].Keys.Inline)
	assert.Equal(t, "https://example.com/keys", cfg.RPC.Auth[1].Keys.URL)

	assert.Equal(t, "pending-routes", cfg.AWS.Queues.PendingRoutes)
	assert.Equal(t, "trips", cfg.AWS.Tables.Trips)

	assert.Equal(t, 100, cfg.Routing.MaxWaypoints)
	// defaulted
	assert.Equal(t, 15, cfg.Routing.AsyncThreshold)

	enabled := cfg.EnabledRegions()
	require.Len(t, enabled, 1)
	assert.Equal(t, "podlaskie", enabled[0].Name)
}

func TestLoadRejectsBadDocuments(t *testing.T) {
	cases := map[string]string{
		"bad json":       `{"rpc":`,
		"bad auth type":  `{"rpc": {"auth": [{"type": "jwt+none", "name": "x", "keys": {"a": "b"}}]}}`,
		"missing keys":   `{"rpc": {"auth": [{"type": "jwt+hs256", "name": "x"}]}}`,
		"bad mode":       `{"geocoder": {"mode": "elasticsearch"}}`,
		"bad algorithm":  `{"routing": {"algorithm": "a-star"}}`,
		"dup region":     `{"regions": [{"name": "a"}, {"name": "a"}]}`,
		"unnamed region": `{"regions": [{"poly": "x"}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestParseRole(t *testing.T) {
	for in, want := range map[string]Role{
		"rpc": RoleRPC, "WORKER": RoleWorker, "Both": RoleBoth, "none": RoleNone, "": RoleNone,
	} {
		got, err := ParseRole(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseRole("supervisor")
	assert.Error(t, err)

	assert.True(t, RoleBoth.Has(RoleRPC))
	assert.True(t, RoleBoth.Has(RoleWorker))
	assert.False(t, RoleRPC.Has(RoleWorker))
	assert.False(t, RoleNone.Has(RoleRPC))
}

func TestParseAlgorithm(t *testing.T) {
	for _, in := range []string{"ch", "Contraction Hierarchies", "contraction_hierarchies"} {
		got, err := ParseAlgorithm(in)
		require.NoError(t, err, in)
		assert.Equal(t, AlgorithmCH, got, in)
	}
	for _, in := range []string{"mld", "Multi-Level Dijkstra", "multi_level_dijkstra"} {
		got, err := ParseAlgorithm(in)
		require.NoError(t, err, in)
		assert.Equal(t, AlgorithmMLD, got, in)
	}
	_, err := ParseAlgorithm("dijkstra")
	assert.Error(t, err)
}
