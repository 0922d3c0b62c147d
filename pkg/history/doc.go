// Package history keeps a short, durable log of past interactions.
//
// Invariants:
// - Records are ordered newest first.
// - The store never holds more than its capacity after a mutation; the oldest
//   records are evicted first.
// - Every change, including direct edits through Edit, is written to the
//   backing store. Persistence failures are logged and absorbed.
//
// Usage:
//
//	store, _ := history.NewStore(history.Config{Backend: storage.NewMemoryBackend(0)})
//	store.Load()
//	rec := store.Add(map[string]any{"title": "Weekly sync", "filename": "sync.mp3"})
//	store.Remove(rec.ID)
package history
