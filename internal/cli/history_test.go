package cli

import (
	"encoding/json"
	"strconv"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/harun/recap/internal/config"
	"github.com/harun/recap/pkg/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func listJSON(t *testing.T, path string) []map[string]any {
	t.Helper()
	out, err := execute(t, "--config", path, "history", "list", "--format", "json")
	require.NoError(t, err)

	var records []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	return records
}

func TestHistoryAddListRemoveClear(t *testing.T) {
	path := writeTestConfig(t, "http://localhost:8000", nil)

	out, err := execute(t, "--config", path, "history", "add", "--field", "title=Planning", "--field", "filename=plan.mp3")
	require.NoError(t, err)
	assert.Contains(t, out, "Added meeting")

	_, err = execute(t, "--config", path, "history", "add", "--json", `{"title":"Retro","attendees":4}`)
	require.NoError(t, err)

	records := listJSON(t, path)
	require.Len(t, records, 2)
	assert.Equal(t, "Retro", records[0]["title"])
	assert.Equal(t, float64(4), records[0]["attendees"])
	assert.Equal(t, "Planning", records[1]["title"])
	assert.NotEmpty(t, records[1]["timestamp"])

	table, err := execute(t, "--config", path, "history", "list")
	require.NoError(t, err)
	assert.Contains(t, table, "Found 2 meeting(s)")
	assert.Contains(t, table, "/results/plan.mp3")

	oldest := strconv.FormatInt(int64(records[1]["id"].(float64)), 10)
	out, err = execute(t, "--config", path, "history", "remove", oldest)
	require.NoError(t, err)
	assert.Contains(t, out, "Removed meeting")

	out, err = execute(t, "--config", path, "history", "remove", oldest)
	require.NoError(t, err)
	assert.Contains(t, out, "No meeting with id")

	require.Len(t, listJSON(t, path), 1)

	out, err = execute(t, "--config", path, "history", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "History cleared")
	assert.Empty(t, listJSON(t, path))

	table, err = execute(t, "--config", path, "history", "list")
	require.NoError(t, err)
	assert.Contains(t, table, "No meetings in history")
}

func TestHistoryCapacityFromConfig(t *testing.T) {
	path := writeTestConfig(t, "http://localhost:8000", func(cfg *config.Config) {
		cfg.History.Capacity = 2
		cfg.Storage.Backend = "sqlite"
	})

	for _, title := range []string{"one", "two", "three"} {
		_, err := execute(t, "--config", path, "history", "add", "--field", "title="+title)
		require.NoError(t, err)
	}

	records := listJSON(t, path)
	require.Len(t, records, 2)
	assert.Equal(t, "three", records[0]["title"])
	assert.Equal(t, "two", records[1]["title"])
}

func TestHistoryListYAML(t *testing.T) {
	path := writeTestConfig(t, "http://localhost:8000", nil)
	_, err := execute(t, "--config", path, "history", "add", "--field", "title=Standup")
	require.NoError(t, err)

	out, err := execute(t, "--config", path, "history", "list", "--format", "yaml")
	require.NoError(t, err)

	var records []map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "Standup", records[0]["title"])
}

func TestHistoryErrors(t *testing.T) {
	path := writeTestConfig(t, "http://localhost:8000", nil)

	_, err := execute(t, "--config", path, "history", "add", "--field", "no-equals")
	assert.Error(t, err)

	_, err = execute(t, "--config", path, "history", "add", "--json", "[1,2]")
	assert.Error(t, err)

	_, err = execute(t, "--config", path, "history", "remove", "abc")
	assert.Error(t, err)

	_, err = execute(t, "--config", path, "history", "list", "--format", "xml")
	assert.Error(t, err)
}

func TestHistoryWatchRequiresFileBackend(t *testing.T) {
	path := writeTestConfig(t, "http://localhost:8000", func(cfg *config.Config) {
		cfg.Storage.Backend = "memory"
	})

	_, err := execute(t, "--config", path, "history", "watch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file storage backend")
}

func TestParseFields(t *testing.T) {
	fields, err := parseFields([]string{"title=Sync", "note=a=b"}, `{"title":"Old","duration":30}`)
	require.NoError(t, err)
	assert.Equal(t, "Sync", fields["title"])
	assert.Equal(t, "a=b", fields["note"])
	assert.Equal(t, float64(30), fields["duration"])

	_, err = parseFields([]string{"=x"}, "")
	assert.Error(t, err)

	_, err = parseFields(nil, "null")
	assert.Error(t, err)
}

func TestWriteRecordsTable(t *testing.T) {
	multibyte := strings.Repeat("a", 36) + "日本語の会議タイトル"
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	records := []history.Record{
		{ID: 1, Timestamp: "2024-05-01T09:30:00.000Z", Fields: map[string]any{"title": strings.Repeat("x", 50)}},
		{ID: 2, Timestamp: "bad", Fields: map[string]any{}},
		{ID: 3, Timestamp: "2024-05-01T09:00:00.000Z", Fields: map[string]any{"title": multibyte}},
	}

	var sb strings.Builder
	require.NoError(t, writeRecords(&sb, FormatTable, records, now))

	out := sb.String()
	assert.Contains(t, out, strings.Repeat("x", 37)+"...")
	assert.Contains(t, out, "Untitled")
	assert.True(t, utf8.ValidString(out))
	assert.NotContains(t, out, multibyte)
	assert.Contains(t, out, strings.Repeat("a", 36))
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "Today 09:30", relativeTime(now.Add(-150*time.Minute), now))
	assert.Equal(t, "Wed 12:00", relativeTime(now.AddDate(0, 0, -2), now))
	assert.Equal(t, "Mar 01 12:00", relativeTime(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), now))
	assert.Equal(t, "2022-05-10", relativeTime(now.AddDate(-2, 0, 0), now))
}
