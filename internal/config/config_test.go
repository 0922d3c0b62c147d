package config

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "http://localhost:8000", cfg.API.BaseURL)
	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.Equal(t, "meeting_history", cfg.Storage.Key)
	assert.Equal(t, 10, cfg.History.Capacity)
	assert.False(t, cfg.Session.DedupeCleanup)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Redaction)
	assert.NoError(t, cfg.Validate())
}

func TestConfigDurations(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, time.Duration(0), cfg.APITimeout())
	assert.Equal(t, 2*time.Second, cfg.DrainTimeout())

	cfg.API.TimeoutSeconds = 5
	assert.Equal(t, 5*time.Second, cfg.APITimeout())
}

func TestConfigString(t *testing.T) {
	cfg := DefaultConfig()

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(cfg.String()), &decoded))
	assert.Contains(t, decoded, "api")
	assert.Contains(t, decoded, "storage")
	assert.Contains(t, decoded, "history")
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid defaults", func(c *Config) {}, ""},
		{"empty base url", func(c *Config) { c.API.BaseURL = "" }, "api.base_url is required"},
		{"relative base url", func(c *Config) { c.API.BaseURL = "/api" }, "absolute http(s) URL"},
		{"ftp base url", func(c *Config) { c.API.BaseURL = "ftp://host" }, "absolute http(s) URL"},
		{"negative timeout", func(c *Config) { c.API.TimeoutSeconds = -1 }, "timeout_seconds"},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "indexeddb" }, "invalid storage backend"},
		{"sqlite backend", func(c *Config) { c.Storage.Backend = "sqlite" }, ""},
		{"pure sqlite backend", func(c *Config) { c.Storage.Backend = "sqlite-pure" }, ""},
		{"empty key", func(c *Config) { c.Storage.Key = "" }, "storage.key"},
		{"negative quota", func(c *Config) { c.Storage.QuotaBytes = -1 }, "quota_bytes"},
		{"zero capacity", func(c *Config) { c.History.Capacity = 0 }, "capacity must be positive"},
		{"negative drain", func(c *Config) { c.Session.DrainTimeoutMs = -5 }, "drain_timeout_ms"},
		{"bad hook event", func(c *Config) {
			c.Hooks = []HookConfig{{Event: "mount", Script: "true", Enabled: true}}
		}, "invalid event"},
		{"hook without script", func(c *Config) {
			c.Hooks = []HookConfig{{Event: "unload", Enabled: true}}
		}, "script is required"},
		{"disabled hook skipped", func(c *Config) {
			c.Hooks = []HookConfig{{Event: "mount", Enabled: false}}
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
