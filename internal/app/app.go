package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/harun/recap/internal/config"
	"github.com/harun/recap/internal/logger"
	"github.com/harun/recap/internal/observability"
	"github.com/harun/recap/pkg/history"
	"github.com/harun/recap/pkg/lifecycle"
	"github.com/harun/recap/pkg/session"
	"github.com/harun/recap/pkg/storage"
	"github.com/rs/zerolog"
)

// App wires the session context, cleanup notifier, history store and
// lifecycle events for one running process.
type App struct {
	config *config.Config
	logger *logger.Logger

	session   *session.Context
	cleaner   *session.Cleaner
	history   *history.Store
	lifecycle *lifecycle.Manager
	backend   storage.Backend

	pidFile       *PIDFile
	ownsPID       bool
	metricsServer *metricsServer

	startTime time.Time
	running   bool
	closed    bool
	mu        sync.Mutex
}

// Status is a point-in-time summary of the application
type Status struct {
	Running        bool
	SessionID      string
	HistoryRecords int
	HistoryState   string
	Uptime         time.Duration
}

// New creates an application from cfg. The history store is loaded before
// New returns.
func New(cfg *config.Config, log *logger.Logger) (*App, error) {
	observability.EnsureRegistered()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	a := &App{
		config: cfg,
		logger: log,
	}

	if cfg.DataDir != "" {
		auditPath := filepath.Join(cfg.DataDir, "audit.log")
		if err := observability.InitAuditLogger(auditPath); err != nil {
			log.Warn().Err(err).Msg("Failed to initialize audit logger, audit events are discarded")
		} else {
			log.Debug().Str("path", auditPath).Msg("Audit logger initialized")
		}
		a.pidFile = PIDFileFor(cfg)
	}

	backend, err := storage.Open(storage.Options{
		Kind:       cfg.Storage.Backend,
		Path:       cfg.Storage.Path,
		QuotaBytes: cfg.Storage.QuotaBytes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	a.backend = backend
	log.Debug().Str("backend", cfg.Storage.Backend).Str("path", cfg.Storage.Path).Msg("Storage opened")

	store, err := history.NewStore(history.Config{
		Backend:  backend,
		Key:      cfg.Storage.Key,
		Capacity: cfg.History.Capacity,
		Logger:   log.GetZerolog(),
	})
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("failed to create history store: %w", err)
	}
	store.Load()
	a.history = store

	a.session = session.NewContext()
	notifier := session.NewHTTPNotifier(cfg.API.BaseURL, &http.Client{Timeout: cfg.APITimeout()})
	cleaner, err := session.NewCleaner(session.CleanerConfig{
		Session:  a.session,
		Notifier: notifier,
		Logger:   log.GetZerolog(),
	})
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("failed to create session cleaner: %w", err)
	}
	a.cleaner = cleaner

	manager, err := lifecycle.NewManager(lifecycle.Config{
		Hooks:  hooksFromConfig(cfg.Hooks),
		Logger: log.GetZerolog(),
	})
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("failed to create lifecycle manager: %w", err)
	}
	a.lifecycle = manager

	if err := a.bindCleanup(); err != nil {
		backend.Close()
		return nil, err
	}

	if cfg.Metrics.Enabled {
		a.metricsServer = newMetricsServer(cfg.Metrics.Addr, log.GetZerolog())
	}

	return a, nil
}

// bindCleanup registers the cleanup notification for both unload and
// teardown. With dedupe enabled the two events share one Once-wrapped
// callback, so a process that sees both sends a single notification.
func (a *App) bindCleanup() error {
	cleanup := lifecycle.Callback(a.cleanupCallback())
	if a.config.Session.DedupeCleanup {
		cleanup = lifecycle.Once(cleanup)
	}

	if _, err := a.lifecycle.Register(lifecycle.EventUnload, cleanup); err != nil {
		return fmt.Errorf("failed to register unload cleanup: %w", err)
	}
	if _, err := a.lifecycle.Register(lifecycle.EventTeardown, cleanup); err != nil {
		return fmt.Errorf("failed to register teardown cleanup: %w", err)
	}
	return nil
}

func (a *App) cleanupCallback() func(ctx context.Context) error {
	cleanup := a.cleaner.Callback()
	return func(ctx context.Context) error {
		id, ok := a.session.ID()
		if !ok {
			observability.RecordSessionAudit("cleanup", "", "skipped", nil)
		} else {
			observability.RecordSessionAudit("cleanup", id, "started", nil)
		}
		return cleanup(ctx)
	}
}

func hooksFromConfig(hooks []config.HookConfig) []lifecycle.Hook {
	result := make([]lifecycle.Hook, 0, len(hooks))
	for _, h := range hooks {
		result = append(result, lifecycle.Hook{
			ID:      h.ID,
			Event:   h.Event,
			Script:  h.Script,
			Timeout: time.Duration(h.TimeoutMs) * time.Millisecond,
			Enabled: h.Enabled,
		})
	}
	return result
}

// Start creates the session id, writes the PID file and starts the metrics
// endpoint when enabled.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return fmt.Errorf("app is closed")
	}
	if a.running {
		return fmt.Errorf("app is already running")
	}

	id := a.session.GetOrCreateID()
	logger := a.component("app").With().Str("session_id", id).Logger()

	if a.pidFile != nil {
		if err := a.pidFile.Write(); err != nil {
			return fmt.Errorf("failed to write PID file: %w", err)
		}
		a.ownsPID = true
	}

	if a.metricsServer != nil {
		if err := a.metricsServer.Start(); err != nil {
			if a.ownsPID {
				_ = a.pidFile.Remove()
				a.ownsPID = false
			}
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		logger.Info().Str("addr", a.metricsServer.Addr()).Msg("Metrics endpoint started")
	}

	a.running = true
	a.startTime = time.Now()
	observability.RecordSessionAudit("session_started", id, "success", nil)
	logger.Info().Int("history_records", a.history.Len()).Msg("Session started")
	return nil
}

// Unload fires the unload event. Cleanup is started without waiting for the
// backend to answer.
func (a *App) Unload(ctx context.Context) error {
	return a.lifecycle.Trigger(ctx, lifecycle.EventUnload, a.eventData())
}

// Close fires the teardown event if the app was started, gives in-flight
// cleanup notifications up to the configured drain timeout, then releases
// the backing store. Calling Close again is a no-op.
func (a *App) Close(ctx context.Context) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	started := a.running
	a.running = false
	ownsPID := a.ownsPID
	a.mu.Unlock()

	logger := a.component("app")
	var errs []error

	if started {
		if err := a.lifecycle.Trigger(ctx, lifecycle.EventTeardown, a.eventData()); err != nil {
			logger.Warn().Err(err).Msg("Teardown hooks failed")
			errs = append(errs, err)
		}
	}

	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.config.DrainTimeout())
	defer cancel()
	if err := a.cleaner.Wait(drainCtx); err != nil {
		logger.Warn().Err(err).Msg("Cleanup notifications still in flight at shutdown")
	}

	if a.metricsServer != nil {
		stopCtx, stopCancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		err := a.metricsServer.Stop(stopCtx)
		stopCancel()
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to stop metrics server")
		}
	}

	if err := a.backend.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close storage: %w", err))
	}

	if ownsPID {
		if err := a.pidFile.Remove(); err != nil {
			logger.Warn().Err(err).Msg("Failed to remove PID file")
		}
	}

	logger.Info().Msg("Session closed")
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// Wait blocks until SIGINT or SIGTERM arrives or ctx is done. A signal fires
// the unload event before the application is closed.
func (a *App) Wait(ctx context.Context) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	logger := a.component("app")
	select {
	case sig := <-sigChan:
		logger.Info().Str("signal", sig.String()).Msg("Received signal")
		if err := a.Unload(ctx); err != nil {
			logger.Warn().Err(err).Msg("Unload hooks failed")
		}
	case <-ctx.Done():
	}

	if err := a.Close(context.WithoutCancel(ctx)); err != nil {
		logger.Error().Err(err).Msg("Failed to close session")
	}
}

// AddRecord stores a new history record and returns it.
func (a *App) AddRecord(fields map[string]any) history.Record {
	record := a.history.Add(fields)
	observability.RecordHistoryAudit("history_add", a.actor(), "success", map[string]interface{}{
		"id": record.ID,
	})
	return record
}

// RemoveRecord deletes the history record with id and reports whether it
// existed.
func (a *App) RemoveRecord(id int64) bool {
	removed := a.history.Remove(id)
	status := "success"
	if !removed {
		status = "not_found"
	}
	observability.RecordHistoryAudit("history_remove", a.actor(), status, map[string]interface{}{
		"id": id,
	})
	return removed
}

// ClearHistory empties the history and its backing entry.
func (a *App) ClearHistory() {
	a.history.Clear()
	observability.RecordHistoryAudit("history_clear", a.actor(), "success", nil)
}

// Status reports the current state
func (a *App) Status() Status {
	a.mu.Lock()
	running := a.running
	start := a.startTime
	a.mu.Unlock()

	id, _ := a.session.ID()
	status := Status{
		Running:        running,
		SessionID:      id,
		HistoryRecords: a.history.Len(),
		HistoryState:   a.history.State().String(),
	}
	if running {
		status.Uptime = time.Since(start)
	}
	return status
}

// GetConfig returns the application configuration
func (a *App) GetConfig() *config.Config {
	return a.config
}

// GetLogger returns the application logger
func (a *App) GetLogger() *logger.Logger {
	return a.logger
}

// GetSession returns the session context
func (a *App) GetSession() *session.Context {
	return a.session
}

// GetCleaner returns the cleanup notifier
func (a *App) GetCleaner() *session.Cleaner {
	return a.cleaner
}

// GetHistory returns the history store
func (a *App) GetHistory() *history.Store {
	return a.history
}

// GetLifecycle returns the lifecycle manager
func (a *App) GetLifecycle() *lifecycle.Manager {
	return a.lifecycle
}

// MetricsAddr returns the metrics endpoint address, or "" when disabled
func (a *App) MetricsAddr() string {
	if a.metricsServer == nil {
		return ""
	}
	return a.metricsServer.Addr()
}

// GetBackend returns the backing store
func (a *App) GetBackend() storage.Backend {
	return a.backend
}

func (a *App) eventData() map[string]interface{} {
	data := map[string]interface{}{}
	if id, ok := a.session.ID(); ok {
		data["session_id"] = id
	}
	return data
}

func (a *App) actor() string {
	id, _ := a.session.ID()
	return id
}

func (a *App) component(name string) zerolog.Logger {
	return a.logger.Component(name)
}
