package cli

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCommand(t *testing.T) {
	t.Run("stopped with history", func(t *testing.T) {
		path := writeTestConfig(t, "http://localhost:8000", nil)
		_, err := execute(t, "--config", path, "history", "add", "--field", "title=Sync")
		require.NoError(t, err)

		out, err := execute(t, "--config", path, "status")
		require.NoError(t, err)

		assert.Contains(t, out, "stopped")
		assert.Contains(t, out, "1/10 (loaded-nonempty)")
		assert.Contains(t, out, "http://localhost:8000")
	})

	t.Run("running session", func(t *testing.T) {
		path := writeTestConfig(t, "http://localhost:8000", nil)
		pidPath := filepath.Join(filepath.Dir(path), "recap.pid")
		require.NoError(t, os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getpid())), 0644))

		out, err := execute(t, "--config", path, "status")
		require.NoError(t, err)

		assert.Contains(t, out, "running")
		assert.Contains(t, out, "PID:")
		assert.FileExists(t, pidPath)
	})
}

func TestStopCommandWithoutSession(t *testing.T) {
	path := writeTestConfig(t, "http://localhost:8000", nil)

	out, err := execute(t, "--config", path, "stop")
	require.NoError(t, err)
	assert.Contains(t, out, "No session running")
}

func TestSessionCommandHelp(t *testing.T) {
	out, err := execute(t, "session", "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "unload")
	assert.Contains(t, out, "--metrics-addr")
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{"seconds only", 45 * time.Second, "45s"},
		{"minutes and seconds", 2*time.Minute + 30*time.Second, "2m30s"},
		{"hours minutes seconds", 3*time.Hour + 15*time.Minute + 20*time.Second, "3h15m20s"},
		{"zero", 0, "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatDuration(tt.duration))
		})
	}
}
