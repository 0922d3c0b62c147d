// Package lifecycle dispatches application lifecycle events (unload,
// teardown) to registered callbacks and configured hook scripts.
//
// The manager does not deduplicate: an event fired twice runs its callbacks
// twice. Wrap a callback with Once when a single run is wanted.
package lifecycle
