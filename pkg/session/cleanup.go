package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/harun/recap/internal/observability"
	"github.com/rs/zerolog"
)

// CleanerConfig configures a Cleaner.
type CleanerConfig struct {
	Session  *Context
	Notifier Notifier
	Logger   zerolog.Logger
}

// Cleaner sends the best-effort end-of-session notification.
type Cleaner struct {
	session  *Context
	notifier Notifier
	logger   zerolog.Logger
	inflight sync.WaitGroup
}

// NewCleaner creates a Cleaner for cfg.Session.
func NewCleaner(cfg CleanerConfig) (*Cleaner, error) {
	observability.EnsureRegistered()

	if cfg.Session == nil {
		return nil, errors.New("session context is required")
	}
	if cfg.Notifier == nil {
		return nil, errors.New("cleanup notifier is required")
	}

	return &Cleaner{
		session:  cfg.Session,
		notifier: cfg.Notifier,
		logger:   cfg.Logger.With().Str("component", "session-cleanup").Logger(),
	}, nil
}

// Cleanup starts one cleanup notification for the current session id and
// returns immediately. Without an id nothing is sent. Cancelling ctx does not
// abort a notification already started. Failures are logged, not retried.
func (c *Cleaner) Cleanup(ctx context.Context) {
	id, ok := c.session.ID()
	if !ok {
		observability.RecordSessionCleanupSkipped()
		c.logger.Debug().Msg("No session to clean up")
		return
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithoutCancel(ctx)

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		c.notify(ctx, id)
	}()
}

func (c *Cleaner) notify(ctx context.Context, id string) {
	logger := c.logger.With().Str("session_id", id).Logger()
	start := time.Now()

	err := c.notifier.NotifyCleanup(ctx, id)
	observability.RecordSessionCleanup(time.Since(start), err == nil)
	if err != nil {
		logger.Warn().Err(err).Msg("Session cleanup failed")
		return
	}

	logger.Info().Msg("Session cleaned up")
}

// Wait blocks until notifications started so far have finished or ctx is
// done. It lets a process about to exit give them a bounded chance to land.
func (c *Cleaner) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Callback adapts Cleanup to a lifecycle callback.
func (c *Cleaner) Callback() func(ctx context.Context) error {
	return func(ctx context.Context) error {
		c.Cleanup(ctx)
		return nil
	}
}
