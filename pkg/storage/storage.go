package storage

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for backend operations.
var (
	ErrNotFound      = errors.New("key not found")
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	ErrClosed        = errors.New("storage backend closed")
)

// Backend is a synchronous string key/value store. Implementations must be
// safe for concurrent use.
type Backend interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(key string) (string, error)
	// Set stores value under key, replacing any previous value.
	Set(key, value string) error
	// Remove deletes key. Missing keys are ignored.
	Remove(key string) error
	// Close releases resources held by the backend.
	Close() error
}

// Backend kinds accepted by Open.
const (
	KindMemory     = "memory"
	KindFile       = "file"
	KindSQLite     = "sqlite"
	KindSQLitePure = "sqlite-pure" // sqlite on the cgo-free driver
)

// Options selects and configures a backend for Open.
type Options struct {
	Kind       string
	Path       string
	QuotaBytes int64
}

// Open creates the backend described by opts.
func Open(opts Options) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Kind)) {
	case KindMemory, "":
		return NewMemoryBackend(opts.QuotaBytes), nil
	case KindFile:
		return NewFileBackend(FileConfig{Dir: opts.Path, QuotaBytes: opts.QuotaBytes})
	case KindSQLite:
		return NewSQLiteBackend(SQLiteConfig{Path: opts.Path, QuotaBytes: opts.QuotaBytes})
	case KindSQLitePure:
		return NewSQLiteBackend(SQLiteConfig{Path: opts.Path, QuotaBytes: opts.QuotaBytes, Driver: DriverPure})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Kind)
	}
}

func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("storage key cannot be empty")
	}
	if strings.Contains(key, "..") {
		return fmt.Errorf("storage key cannot contain '..'")
	}
	if strings.ContainsAny(key, "/\\") {
		return fmt.Errorf("storage key cannot contain path separators")
	}
	if strings.Contains(key, "\x00") {
		return fmt.Errorf("storage key cannot contain null bytes")
	}
	return nil
}

// checkQuota reports ErrQuotaExceeded when replacing the entry for key would
// push the total stored size past quota. used is the current total, prev the
// size of the entry being replaced. A quota <= 0 disables the check.
func checkQuota(quota, used, prev int64, key, value string) error {
	if quota <= 0 {
		return nil
	}
	next := used - prev + entrySize(key, value)
	if next > quota {
		return fmt.Errorf("%w: %d bytes needed, quota is %d", ErrQuotaExceeded, next, quota)
	}
	return nil
}

func entrySize(key, value string) int64 {
	return int64(len(key) + len(value))
}
