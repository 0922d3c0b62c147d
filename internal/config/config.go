package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config represents the main recap configuration
type Config struct {
	// Backend API
	API APIConfig `json:"api" mapstructure:"api"`

	// Durable backing store
	Storage StorageConfig `json:"storage" mapstructure:"storage"`

	// History
	History HistoryConfig `json:"history" mapstructure:"history"`

	// Session
	Session SessionConfig `json:"session" mapstructure:"session"`

	// Lifecycle hooks
	Hooks []HookConfig `json:"hooks" mapstructure:"hooks"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Metrics
	Metrics MetricsConfig `json:"metrics" mapstructure:"metrics"`

	// Data directory
	DataDir string `json:"data_dir" mapstructure:"data_dir"`
}

// APIConfig holds the backend endpoint settings
type APIConfig struct {
	BaseURL        string `json:"base_url" mapstructure:"base_url"`
	TimeoutSeconds int    `json:"timeout_seconds" mapstructure:"timeout_seconds"` // 0 = no timeout
}

// StorageConfig selects the durable backing store
type StorageConfig struct {
	Backend    string `json:"backend" mapstructure:"backend"` // memory, file, sqlite, sqlite-pure
	Path       string `json:"path" mapstructure:"path"`
	Key        string `json:"key" mapstructure:"key"`
	QuotaBytes int64  `json:"quota_bytes" mapstructure:"quota_bytes"` // 0 = unlimited
}

// HistoryConfig holds history store settings
type HistoryConfig struct {
	Capacity int `json:"capacity" mapstructure:"capacity"`
}

// SessionConfig holds session lifecycle settings
type SessionConfig struct {
	DedupeCleanup  bool `json:"dedupe_cleanup" mapstructure:"dedupe_cleanup"`
	DrainTimeoutMs int  `json:"drain_timeout_ms" mapstructure:"drain_timeout_ms"`
}

// HookConfig is a shell script run on a lifecycle event
type HookConfig struct {
	ID        string `json:"id" mapstructure:"id"`
	Event     string `json:"event" mapstructure:"event"` // unload, teardown
	Script    string `json:"script" mapstructure:"script"`
	TimeoutMs int    `json:"timeout_ms" mapstructure:"timeout_ms"`
	Enabled   bool   `json:"enabled" mapstructure:"enabled"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	File      string `json:"file" mapstructure:"file"`
	Console   bool   `json:"console" mapstructure:"console"`
	Pretty    bool   `json:"pretty" mapstructure:"pretty"`
	MaxSize   int    `json:"max_size" mapstructure:"max_size"` // MB
	MaxAge    int    `json:"max_age" mapstructure:"max_age"`   // days
	Compress  bool   `json:"compress" mapstructure:"compress"`
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
}

// MetricsConfig holds Prometheus exposure settings
type MetricsConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Addr    string `json:"addr" mapstructure:"addr"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:8000",
		},
		Storage: StorageConfig{
			Backend: "file",
			Key:     "meeting_history",
		},
		History: HistoryConfig{
			Capacity: 10,
		},
		Session: SessionConfig{
			DedupeCleanup:  false,
			DrainTimeoutMs: 2000,
		},
		Hooks: []HookConfig{},
		Logging: LoggingConfig{
			Level:     "info",
			Console:   true,
			Pretty:    true,
			MaxSize:   100,
			MaxAge:    7,
			Compress:  true,
			Redaction: true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9464",
		},
		DataDir: "",
	}
}

// String returns a JSON representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// APITimeout returns the HTTP client timeout; zero means none.
func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// DrainTimeout returns how long shutdown waits for in-flight cleanup.
func (c *Config) DrainTimeout() time.Duration {
	return time.Duration(c.Session.DrainTimeoutMs) * time.Millisecond
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute http(s) URL, got %q", c.API.BaseURL)
	}
	if c.API.TimeoutSeconds < 0 {
		return fmt.Errorf("api.timeout_seconds must be >= 0")
	}

	switch strings.ToLower(c.Storage.Backend) {
	case "memory", "file", "sqlite", "sqlite-pure":
	default:
		return fmt.Errorf("invalid storage backend %s (must be: memory, file, sqlite, sqlite-pure)", c.Storage.Backend)
	}
	if c.Storage.Key == "" {
		return fmt.Errorf("storage.key is required")
	}
	if c.Storage.QuotaBytes < 0 {
		return fmt.Errorf("storage.quota_bytes must be >= 0")
	}

	if c.History.Capacity <= 0 {
		return fmt.Errorf("history.capacity must be positive, got %d", c.History.Capacity)
	}

	if c.Session.DrainTimeoutMs < 0 {
		return fmt.Errorf("session.drain_timeout_ms must be >= 0")
	}

	for i, hook := range c.Hooks {
		if !hook.Enabled {
			continue
		}
		if hook.Event != "unload" && hook.Event != "teardown" {
			return fmt.Errorf("hook %d: invalid event %q (must be: unload, teardown)", i, hook.Event)
		}
		if strings.TrimSpace(hook.Script) == "" {
			return fmt.Errorf("hook %d: script is required", i)
		}
	}

	return nil
}
