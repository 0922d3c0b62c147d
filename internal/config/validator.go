package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validator validates configuration values
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateBaseURL validates the backend base URL
func (v *Validator) ValidateBaseURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid base URL scheme %q (must be http or https)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("base URL must not include a query or fragment")
	}
	return nil
}

// ValidateStorageBackend validates the backing store kind
func (v *Validator) ValidateStorageBackend(backend string) error {
	validBackends := []string{"memory", "file", "sqlite", "sqlite-pure"}
	for _, valid := range validBackends {
		if strings.ToLower(backend) == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid storage backend: %s (must be one of: %s)", backend, strings.Join(validBackends, ", "))
}

// ValidateStorageKey validates the backing store key
func (v *Validator) ValidateStorageKey(key string) error {
	if key == "" {
		return fmt.Errorf("storage key cannot be empty")
	}
	if strings.ContainsAny(key, "/\\\x00") || strings.Contains(key, "..") {
		return fmt.Errorf("storage key %q must be a plain name", key)
	}
	return nil
}

// ValidateCapacity validates the history capacity
func (v *Validator) ValidateCapacity(capacity int) error {
	if capacity <= 0 {
		return fmt.Errorf("history capacity must be positive, got %d", capacity)
	}
	if capacity > 1000 {
		return fmt.Errorf("history capacity too large (max 1000), got %d", capacity)
	}
	return nil
}

// ValidateLogLevel validates log level
func (v *Validator) ValidateLogLevel(level string) error {
	validLevels := []string{"debug", "info", "warn", "error"}
	for _, valid := range validLevels {
		if level == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid log level: %s (must be one of: %s)", level, strings.Join(validLevels, ", "))
}

// ValidateHookEvent validates a lifecycle hook event name
func (v *Validator) ValidateHookEvent(event string) error {
	validEvents := []string{"unload", "teardown"}
	for _, valid := range validEvents {
		if event == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid hook event: %s (must be one of: %s)", event, strings.Join(validEvents, ", "))
}

// ValidateConfig performs comprehensive validation
func (v *Validator) ValidateConfig(cfg *Config) []error {
	var errors []error

	if err := v.ValidateBaseURL(cfg.API.BaseURL); err != nil {
		errors = append(errors, fmt.Errorf("api: %w", err))
	}
	if cfg.API.TimeoutSeconds < 0 {
		errors = append(errors, fmt.Errorf("api.timeout_seconds must be >= 0"))
	}

	if err := v.ValidateStorageBackend(cfg.Storage.Backend); err != nil {
		errors = append(errors, err)
	}
	if err := v.ValidateStorageKey(cfg.Storage.Key); err != nil {
		errors = append(errors, err)
	}
	if cfg.Storage.QuotaBytes < 0 {
		errors = append(errors, fmt.Errorf("storage.quota_bytes must be >= 0"))
	}

	if err := v.ValidateCapacity(cfg.History.Capacity); err != nil {
		errors = append(errors, err)
	}

	if cfg.Session.DrainTimeoutMs < 0 {
		errors = append(errors, fmt.Errorf("session.drain_timeout_ms must be >= 0"))
	}

	for i, hook := range cfg.Hooks {
		if !hook.Enabled {
			continue
		}
		if err := v.ValidateHookEvent(hook.Event); err != nil {
			errors = append(errors, fmt.Errorf("hook %d: %w", i, err))
		}
		if strings.TrimSpace(hook.Script) == "" {
			errors = append(errors, fmt.Errorf("hook %d: script is required", i))
		}
		if hook.TimeoutMs < 0 {
			errors = append(errors, fmt.Errorf("hook %d: timeout_ms must be >= 0", i))
		}
	}

	if err := v.ValidateLogLevel(cfg.Logging.Level); err != nil {
		errors = append(errors, err)
	}

	return errors
}
