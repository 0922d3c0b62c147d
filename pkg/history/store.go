package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"sync"
	"time"

	"github.com/harun/recap/internal/observability"
	"github.com/harun/recap/pkg/storage"
	"github.com/rs/zerolog"
)

const (
	// DefaultKey is the backing store key holding the serialized history.
	DefaultKey = "meeting_history"
	// DefaultCapacity is the maximum number of records kept.
	DefaultCapacity = 10
)

// State is the load state of a Store.
type State int

const (
	StateUninitialized State = iota
	StateLoadedEmpty
	StateLoadedNonEmpty
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoadedEmpty:
		return "loaded-empty"
	case StateLoadedNonEmpty:
		return "loaded-nonempty"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Config configures a Store.
type Config struct {
	Backend  storage.Backend
	Key      string
	Capacity int
	Logger   zerolog.Logger
	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// Store is a newest-first, capacity-bounded sequence of records mirrored to a
// storage.Backend after every change.
type Store struct {
	backend  storage.Backend
	key      string
	capacity int
	logger   zerolog.Logger
	now      func() time.Time

	mu      sync.Mutex
	records []Record
	state   State
	lastID  int64
}

// NewStore creates a Store. The store starts uninitialized; call Load to read
// the backing entry.
func NewStore(cfg Config) (*Store, error) {
	observability.EnsureRegistered()

	if cfg.Backend == nil {
		return nil, errors.New("history backend is required")
	}
	if cfg.Capacity < 0 {
		return nil, fmt.Errorf("history capacity must be positive, got %d", cfg.Capacity)
	}
	if cfg.Capacity == 0 {
		cfg.Capacity = DefaultCapacity
	}
	if cfg.Key == "" {
		cfg.Key = DefaultKey
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	return &Store{
		backend:  cfg.Backend,
		key:      cfg.Key,
		capacity: cfg.Capacity,
		logger:   cfg.Logger.With().Str("component", "history").Str("key", cfg.Key).Logger(),
		now:      cfg.Clock,
		state:    StateUninitialized,
	}, nil
}

// Load replaces the in-memory sequence with the backing entry. Missing or
// malformed data leaves the sequence empty; failures are logged, never
// returned.
func (s *Store) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	defer func() {
		observability.RecordHistoryLoad(time.Since(start))
		observability.SetHistoryRecords(len(s.records))
	}()

	s.records = nil
	s.lastID = 0
	defer s.updateState()

	raw, err := s.backend.Get(s.key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Debug().Msg("No stored history")
			return
		}
		observability.RecordHistoryPersistError("load")
		s.logger.Error().Err(err).Msg("Failed to load history")
		return
	}

	records, err := decode(raw)
	if err != nil {
		observability.RecordHistoryPersistError("load")
		s.logger.Error().Err(err).Msg("Failed to load history")
		return
	}

	if len(records) > s.capacity {
		s.logger.Warn().
			Int("stored", len(records)).
			Int("capacity", s.capacity).
			Msg("Stored history exceeds capacity, keeping newest records")
		records = records[:s.capacity]
	}

	s.records = records
	for _, r := range records {
		s.lastID = max(s.lastID, r.ID)
	}

	s.logger.Debug().Int("records", len(records)).Msg("History loaded")
}

// Save writes the in-memory sequence to the backing entry, overwriting it.
// Failures are logged and the in-memory sequence is kept.
func (s *Store) Save() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.save()
}

func (s *Store) save() {
	start := time.Now()
	defer func() {
		observability.RecordHistorySave(time.Since(start))
	}()

	data, err := encode(s.records)
	if err != nil {
		observability.RecordHistoryPersistError("save")
		s.logger.Error().Err(err).Msg("Failed to save history")
		return
	}

	if err := s.backend.Set(s.key, data); err != nil {
		observability.RecordHistoryPersistError("save")
		s.logger.Error().
			Err(err).
			Bool("quota_exceeded", errors.Is(err, storage.ErrQuotaExceeded)).
			Msg("Failed to save history")
		return
	}

	s.logger.Debug().Int("records", len(s.records)).Msg("History saved")
}

// Add records a new entry built from fields, inserts it at the front and
// evicts the oldest entries beyond capacity. The stored record is returned.
func (s *Store) Add(fields map[string]any) Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	id := now.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id

	record := Record{
		ID:        id,
		Timestamp: time.UnixMilli(id).UTC().Format(TimestampFormat),
		Fields:    cloneFields(fields),
	}
	if record.Fields == nil {
		record.Fields = map[string]any{}
	}
	delete(record.Fields, "id")
	delete(record.Fields, "timestamp")

	s.records = slices.Insert(s.records, 0, record)
	s.truncate()
	s.commit()

	return cloneRecords([]Record{record})[0]
}

// Remove deletes the record with the given id. It reports whether a record
// was removed; the sequence is saved either way.
func (s *Store) Remove(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.records)
	if i := slices.IndexFunc(s.records, func(r Record) bool { return r.ID == id }); i >= 0 {
		s.records = slices.Delete(s.records, i, i+1)
	}
	s.commit()

	return len(s.records) < before
}

// Clear empties the sequence and deletes the backing entry.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
	s.state = StateLoadedEmpty
	observability.SetHistoryRecords(0)

	if err := s.backend.Remove(s.key); err != nil {
		observability.RecordHistoryPersistError("clear")
		s.logger.Error().Err(err).Msg("Failed to clear stored history")
		return
	}

	s.logger.Debug().Msg("History cleared")
}

// Edit hands fn a working copy of the sequence for direct mutation. If the
// result differs structurally from the current sequence it is adopted,
// truncated to capacity and saved. Reserved id and timestamp keys are
// dropped from Fields; an edit leaving two records with one id is rejected.
func (s *Store) Edit(fn func(records *[]Record)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	working := cloneRecords(s.records)
	fn(&working)

	seen := make(map[int64]struct{}, len(working))
	for i := range working {
		if _, dup := seen[working[i].ID]; dup {
			s.logger.Warn().Int64("id", working[i].ID).Msg("Rejected history edit with duplicate record id")
			return
		}
		seen[working[i].ID] = struct{}{}

		delete(working[i].Fields, "id")
		delete(working[i].Fields, "timestamp")
	}

	if reflect.DeepEqual(normalize(working), normalize(s.records)) {
		return
	}

	s.records = cloneRecords(working)
	for _, r := range s.records {
		s.lastID = max(s.lastID, r.ID)
	}
	s.truncate()
	s.commit()
}

// Records returns a copy of the sequence, newest first.
func (s *Store) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneRecords(s.records)
}

// Get returns the record with the given id.
func (s *Store) Get(id int64) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.records {
		if r.ID == id {
			return cloneRecords([]Record{r})[0], true
		}
	}
	return Record{}, false
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Capacity returns the maximum number of records kept.
func (s *Store) Capacity() int {
	return s.capacity
}

// State returns the current load state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// commit persists the sequence after a mutation. Caller holds mu.
func (s *Store) commit() {
	s.updateState()
	observability.SetHistoryRecords(len(s.records))
	s.save()
}

func (s *Store) truncate() {
	if len(s.records) > s.capacity {
		s.records = slices.Clip(s.records[:s.capacity])
	}
}

func (s *Store) updateState() {
	if len(s.records) == 0 {
		s.state = StateLoadedEmpty
		return
	}
	s.state = StateLoadedNonEmpty
}

// normalize maps nil and empty to the same value for comparison.
func normalize(records []Record) []Record {
	if len(records) == 0 {
		return []Record{}
	}
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r
		if r.Fields == nil {
			out[i].Fields = map[string]any{}
		} else {
			out[i].Fields = maps.Clone(r.Fields)
		}
	}
	return out
}

func encode(records []Record) (string, error) {
	if records == nil {
		records = []Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("failed to marshal history: %w", err)
	}
	return string(data), nil
}

func decode(raw string) ([]Record, error) {
	if !json.Valid([]byte(raw)) {
		return nil, fmt.Errorf("failed to parse history: invalid JSON")
	}
	if err := validateBacking(raw); err != nil {
		return nil, fmt.Errorf("failed to parse history: %w", err)
	}

	var records []Record
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, fmt.Errorf("failed to parse history: %w", err)
	}
	return records, nil
}
