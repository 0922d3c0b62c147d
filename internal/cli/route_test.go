package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteCommand(t *testing.T) {
	path := writeTestConfig(t, "http://localhost:8000", nil)

	_, err := execute(t, "--config", path, "history", "add", "--field", "title=Weekly sync", "--field", "filename=weekly sync.wav")
	require.NoError(t, err)
	_, err = execute(t, "--config", path, "history", "add", "--field", "title=Standup", "--field", "filename=standup.mp3")
	require.NoError(t, err)

	t.Run("upload view", func(t *testing.T) {
		out, err := execute(t, "--config", path, "route", "/")
		require.NoError(t, err)
		assert.Contains(t, out, "upload")
		assert.NotContains(t, out, "Weekly sync")
	})

	t.Run("results path printed by history list", func(t *testing.T) {
		out, err := execute(t, "--config", path, "route", "/results/weekly%20sync.wav")
		require.NoError(t, err)
		assert.Contains(t, out, "results")
		assert.Contains(t, out, "weekly sync.wav")
		assert.Contains(t, out, "Found 1 meeting(s)")
		assert.Contains(t, out, "Weekly sync")
		assert.NotContains(t, out, "Standup")
	})

	t.Run("results without history", func(t *testing.T) {
		out, err := execute(t, "--config", path, "route", "/results/missing.mp3")
		require.NoError(t, err)
		assert.Contains(t, out, "No meetings in history")
	})

	t.Run("unknown path", func(t *testing.T) {
		_, err := execute(t, "--config", path, "route", "/settings")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no view for path")
	})
}
