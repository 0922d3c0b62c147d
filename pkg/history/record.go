package history

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"strconv"
	"time"
)

// TimestampFormat is the ISO-8601 layout used for Record.Timestamp.
const TimestampFormat = "2006-01-02T15:04:05.000Z"

// Record is one past interaction. Fields is owned by the caller; the store
// only assigns ID and Timestamp.
type Record struct {
	ID        int64
	Timestamp string
	Fields    map[string]any
}

// Title returns the "title" field when it is a string.
func (r Record) Title() string {
	title, _ := r.Fields["title"].(string)
	return title
}

// Time parses Timestamp.
func (r Record) Time() (time.Time, error) {
	return time.Parse(TimestampFormat, r.Timestamp)
}

// Flatten returns the flat form: caller fields plus id and timestamp, which
// take precedence over same-named caller fields.
func (r Record) Flatten() map[string]any {
	flat := make(map[string]any, len(r.Fields)+2)
	maps.Copy(flat, r.Fields)
	flat["id"] = r.ID
	flat["timestamp"] = r.Timestamp
	return flat
}

func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Flatten())
}

// MarshalYAML renders the flat form. Numbers decoded from storage are
// emitted as YAML numbers rather than strings.
func (r Record) MarshalYAML() (interface{}, error) {
	return plainValue(r.Flatten()), nil
}

func plainValue(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = plainValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plainValue(e)
		}
		return out
	default:
		return v
	}
}

func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var flat map[string]any
	if err := dec.Decode(&flat); err != nil {
		return err
	}
	if flat == nil {
		return fmt.Errorf("history record must be an object")
	}

	id, err := parseID(flat["id"])
	if err != nil {
		return err
	}
	ts, ok := flat["timestamp"].(string)
	if !ok {
		return fmt.Errorf("history record %d: timestamp must be a string", id)
	}

	delete(flat, "id")
	delete(flat, "timestamp")

	r.ID = id
	r.Timestamp = ts
	r.Fields = flat
	return nil
}

func parseID(v any) (int64, error) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, fmt.Errorf("history record id must be a number")
	}
	if id, err := n.Int64(); err == nil {
		return id, nil
	}
	// Accept integral floats such as 1.7e12.
	f, err := strconv.ParseFloat(n.String(), 64)
	if err != nil || f != float64(int64(f)) {
		return 0, fmt.Errorf("history record id %q is not an integer", n.String())
	}
	return int64(f), nil
}

func cloneRecords(records []Record) []Record {
	if records == nil {
		return nil
	}
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r
		out[i].Fields = cloneFields(r.Fields)
	}
	return out
}

// cloneFields copies nested maps and slices so callers cannot reach the
// store's state through a returned record.
func cloneFields(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneFields(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
