package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const fileSuffix = ".json"

// FileConfig holds configuration for FileBackend
type FileConfig struct {
	Dir        string
	QuotaBytes int64
	MaxRetries int
	RetryDelay time.Duration
}

// FileBackend stores each key as a file under a directory. Writes go through a
// temp file and rename so readers never observe a partial value.
type FileBackend struct {
	dir    string
	config FileConfig
	mu     sync.RWMutex
}

// NewFileBackend creates a FileBackend, creating the directory if needed.
func NewFileBackend(cfg FileConfig) (*FileBackend, error) {
	if cfg.Dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		cfg.Dir = filepath.Join(home, ".recap", "storage")
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 1
	}

	if err := os.MkdirAll(cfg.Dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &FileBackend{
		dir:    cfg.Dir,
		config: cfg,
	}, nil
}

// Dir returns the directory holding the entries.
func (f *FileBackend) Dir() string {
	return f.dir
}

// PathFor returns the file path that holds key.
func (f *FileBackend) PathFor(key string) string {
	return filepath.Join(f.dir, key+fileSuffix)
}

func (f *FileBackend) Get(key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	data, err := os.ReadFile(f.PathFor(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return "", fmt.Errorf("failed to read entry %s: %w", key, err)
	}
	return string(data), nil
}

func (f *FileBackend) Set(key, value string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.config.QuotaBytes > 0 {
		used, prev, err := f.usage(key)
		if err != nil {
			return err
		}
		if err := checkQuota(f.config.QuotaBytes, used, prev, key, value); err != nil {
			return err
		}
	}

	return f.writeWithRetry(key, value)
}

// writeWithRetry attempts the atomic write up to MaxRetries times
func (f *FileBackend) writeWithRetry(key, value string) error {
	var lastErr error

	for attempt := 0; attempt < f.config.MaxRetries; attempt++ {
		if attempt > 0 {
			log.Warn().
				Str("key", key).
				Int("attempt", attempt+1).
				Int("maxRetries", f.config.MaxRetries).
				Err(lastErr).
				Msg("Retrying storage write")
			time.Sleep(f.config.RetryDelay)
		}

		if err := f.writeAtomic(key, value); err != nil {
			lastErr = err
			continue
		}
		return nil
	}

	return fmt.Errorf("failed to write entry %s after %d attempts: %w", key, f.config.MaxRetries, lastErr)
}

// writeAtomic performs atomic write using temp file + rename
func (f *FileBackend) writeAtomic(key, value string) error {
	path := f.PathFor(key)
	tempFile := path + ".tmp"

	if err := os.WriteFile(tempFile, []byte(value), 0600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	log.Debug().
		Str("path", path).
		Int("bytes", len(value)).
		Msg("Storage entry written")

	return nil
}

func (f *FileBackend) Remove(key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.PathFor(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove entry %s: %w", key, err)
	}
	return nil
}

func (f *FileBackend) Close() error {
	return nil
}

// usage sums the size of all entries and reports the size of key's current
// entry separately.
func (f *FileBackend) usage(key string) (used, prev int64, err error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, 0, nil
		}
		return 0, 0, fmt.Errorf("failed to read storage directory: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		entryKey := strings.TrimSuffix(name, fileSuffix)
		size := int64(len(entryKey)) + info.Size()
		used += size
		if entryKey == key {
			prev = size
		}
	}
	return used, prev, nil
}
