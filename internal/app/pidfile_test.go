package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPIDFile(t *testing.T) {
	p := NewPIDFile(filepath.Join(t.TempDir(), "nested", "recap.pid"))

	assert.False(t, p.IsRunning())

	require.NoError(t, p.Write())
	pid, err := p.Read()
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)
	assert.True(t, p.IsRunning())

	uptime, err := p.Uptime()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, uptime.Nanoseconds(), int64(0))

	require.NoError(t, p.Remove())
	require.NoError(t, p.Remove())
	assert.False(t, p.IsRunning())
}

func TestPIDFileInvalidContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recap.pid")
	require.NoError(t, os.WriteFile(path, []byte("not-a-pid"), 0644))

	p := NewPIDFile(path)
	_, err := p.Read()
	assert.Error(t, err)
	assert.False(t, p.IsRunning())

	// A stale or invalid file does not block a new session
	assert.NoError(t, p.Write())
}
