package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/harun/recap/pkg/history"
	"github.com/harun/recap/pkg/routes"
	"gopkg.in/yaml.v3"
)

// Output formats for history listings
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// writeRecords renders records in format
func writeRecords(w io.Writer, format string, records []history.Record, now time.Time) error {
	switch strings.ToLower(format) {
	case FormatTable, "":
		return writeTable(w, records, now)
	case FormatJSON:
		if records == nil {
			records = []history.Record{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		defer func() { _ = enc.Close() }()
		if records == nil {
			records = []history.Record{}
		}
		return enc.Encode(records)
	default:
		return fmt.Errorf("unknown format %q (must be: table, json, yaml)", format)
	}
}

func writeTable(w io.Writer, records []history.Record, now time.Time) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, headerStyle.Render("No meetings in history"))
		return err
	}

	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Found %d meeting(s)", len(records))))
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, titleStyle.Render("ID")+"\t"+titleStyle.Render("Title")+"\t"+titleStyle.Render("When")+"\t"+titleStyle.Render("Results")+"\t")

	for _, r := range records {
		title := r.Title()
		if title == "" {
			title = "Untitled"
		}
		title = ansi.Truncate(title, 40, "...")

		when := dateStyle.Render("-")
		if ts, err := r.Time(); err == nil {
			when = dateStyle.Render(relativeTime(ts.Local(), now.Local()))
		}

		results := dimStyle.Render("-")
		if filename, ok := r.Fields["filename"].(string); ok && filename != "" {
			results = routes.ResultsPath(filename)
		}

		fmt.Fprintln(tw, idStyle.Render(strconv.FormatInt(r.ID, 10))+"\t"+title+"\t"+when+"\t"+results+"\t")
	}
	return tw.Flush()
}

func relativeTime(t, now time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff < 24*time.Hour:
		return t.Format("Today 15:04")
	case diff < 7*24*time.Hour:
		return t.Format("Mon 15:04")
	case diff < 365*24*time.Hour:
		return t.Format("Jan 02 15:04")
	default:
		return t.Format("2006-01-02")
	}
}

// parseFields builds record fields from k=v pairs and an optional JSON
// object. Pairs override keys from the JSON object.
func parseFields(pairs []string, rawJSON string) (map[string]any, error) {
	fields := map[string]any{}

	if rawJSON != "" {
		if err := json.Unmarshal([]byte(rawJSON), &fields); err != nil {
			return nil, fmt.Errorf("invalid --json object: %w", err)
		}
		if fields == nil {
			return nil, fmt.Errorf("invalid --json object: must be an object")
		}
	}

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid field %q (expected key=value)", pair)
		}
		fields[key] = value
	}

	return fields, nil
}
