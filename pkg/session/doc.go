// Package session owns the client session identifier and its end-of-life
// cleanup notification.
//
// Invariants:
// - A Context yields exactly one identifier for its lifetime; it is created on
//   first use and never replaced.
// - Cleanup never blocks its caller and never reports failure to it. Each call
//   sends at most one notification, and only when an identifier exists.
// - Cleanup is not deduplicated: it may be triggered more than once per
//   lifetime, or not at all if the process dies abruptly.
//
// Usage:
//
//	sess := session.NewContext()
//	id := sess.GetOrCreateID()
//	cleaner, _ := session.NewCleaner(session.CleanerConfig{
//		Session:  sess,
//		Notifier: session.NewHTTPNotifier("http://localhost:8000", nil),
//	})
//	cleaner.Cleanup(context.Background())
//	_ = id
package session
