// Package storage provides the durable key/value backing store used for
// client-side state that must survive restarts.
//
// Invariants:
// - A Backend holds at most one value per key; Set overwrites.
// - Remove on a missing key is not an error.
// - Writes that would exceed the configured quota fail with ErrQuotaExceeded
//   and leave the previous value in place.
//
// Usage:
//
//	backend, _ := storage.NewFileBackend(storage.FileConfig{Dir: "/tmp/recap"})
//	_ = backend.Set("meeting_history", "[]")
//	value, err := backend.Get("meeting_history")
//	_, _ = value, err
package storage
