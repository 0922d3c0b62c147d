package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/harun/recap/internal/observability"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

// Lifecycle events fired by the application owner.
const (
	// EventUnload fires when the process is going away (signal, exit).
	EventUnload = "unload"
	// EventTeardown fires when the owning context is closed in an orderly way.
	EventTeardown = "teardown"
)

// Callback is an in-process reaction to a lifecycle event.
type Callback func(ctx context.Context) error

// Hook is a shell script run for a lifecycle event.
type Hook struct {
	ID      string
	Event   string
	Script  string
	Timeout time.Duration
	Enabled bool
}

// Config configures a Manager.
type Config struct {
	Hooks  []Hook
	Logger zerolog.Logger
}

type registration struct {
	id       string
	event    string
	callback Callback
}

// Manager dispatches lifecycle events to registered callbacks and configured
// hook scripts.
type Manager struct {
	logger zerolog.Logger

	mu           sync.RWMutex
	callbacks    []registration
	hooksByEvent map[string][]Hook
}

// NewManager creates a lifecycle manager.
func NewManager(cfg Config) (*Manager, error) {
	observability.EnsureRegistered()

	manager := &Manager{
		logger:       cfg.Logger.With().Str("component", "lifecycle").Logger(),
		hooksByEvent: make(map[string][]Hook),
	}

	for _, hook := range cfg.Hooks {
		if !hook.Enabled {
			continue
		}
		event := strings.TrimSpace(hook.Event)
		if event == "" {
			return nil, fmt.Errorf("hook event is required")
		}
		if strings.TrimSpace(hook.Script) == "" {
			return nil, fmt.Errorf("hook script is required for event %q", event)
		}
		manager.hooksByEvent[event] = append(manager.hooksByEvent[event], hook)
	}

	return manager, nil
}

// Register adds cb for event and returns a registration id.
func (m *Manager) Register(event string, cb Callback) (string, error) {
	event = strings.TrimSpace(event)
	if event == "" {
		return "", fmt.Errorf("event is required")
	}
	if cb == nil {
		return "", fmt.Errorf("callback is required for event %q", event)
	}

	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("failed to generate registration id: %w", err)
	}

	m.mu.Lock()
	m.callbacks = append(m.callbacks, registration{id: id, event: event, callback: cb})
	m.mu.Unlock()

	m.logger.Debug().Str("event", event).Str("registration_id", id).Msg("Lifecycle callback registered")
	return id, nil
}

// Unregister removes a callback. It reports whether id was registered.
func (m *Manager) Unregister(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, reg := range m.callbacks {
		if reg.id == id {
			m.callbacks = append(m.callbacks[:i], m.callbacks[i+1:]...)
			return true
		}
	}
	return false
}

// Trigger runs every callback registered for event in registration order,
// then the event's hook scripts. All of them run even if some fail; the
// failures are joined.
func (m *Manager) Trigger(ctx context.Context, event string, data map[string]interface{}) error {
	if m == nil {
		return nil
	}
	event = strings.TrimSpace(event)
	if event == "" {
		return fmt.Errorf("event is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	m.mu.RLock()
	var callbacks []registration
	for _, reg := range m.callbacks {
		if reg.event == event {
			callbacks = append(callbacks, reg)
		}
	}
	hooks := append([]Hook(nil), m.hooksByEvent[event]...)
	m.mu.RUnlock()

	observability.RecordLifecycleTrigger(event)
	m.logger.Debug().
		Str("event", event).
		Int("callbacks", len(callbacks)).
		Int("hooks", len(hooks)).
		Msg("Lifecycle event triggered")

	var errs []error
	for _, reg := range callbacks {
		if err := reg.callback(ctx); err != nil {
			errs = append(errs, fmt.Errorf("callback %s failed: %w", reg.id, err))
		}
	}
	for _, hook := range hooks {
		if err := m.executeHook(ctx, event, hook, data); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Once wraps cb so that only its first invocation runs. Later calls return nil.
func Once(cb Callback) Callback {
	var once sync.Once
	return func(ctx context.Context) error {
		var err error
		once.Do(func() {
			err = cb(ctx)
		})
		return err
	}
}

func (m *Manager) executeHook(ctx context.Context, event string, hook Hook, data map[string]interface{}) error {
	hookID := hook.ID
	if strings.TrimSpace(hookID) == "" {
		hookID = event
	}

	runCtx := ctx
	cancel := func() {}
	if hook.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, hook.Timeout)
	}
	defer cancel()

	cmd := exec.CommandContext(runCtx, "/bin/sh", "-c", hook.Script)
	cmd.Env = buildHookEnvironment(event, data)

	output, err := cmd.CombinedOutput()
	outputText := strings.TrimSpace(string(output))
	if err != nil {
		if outputText != "" {
			return fmt.Errorf("hook %s failed: %w: %s", hookID, err, outputText)
		}
		return fmt.Errorf("hook %s failed: %w", hookID, err)
	}

	if outputText != "" {
		m.logger.Debug().
			Str("event", event).
			Str("hook_id", hookID).
			Str("output", outputText).
			Msg("Hook executed")
	}

	return nil
}

func buildHookEnvironment(event string, data map[string]interface{}) []string {
	env := append([]string{}, os.Environ()...)
	env = append(env, "RECAP_HOOK_EVENT="+event)

	if len(data) == 0 {
		return env
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		envKey := "RECAP_HOOK_DATA_" + normalizeEnvKey(key)
		env = append(env, envKey+"="+fmt.Sprintf("%v", data[key]))
	}
	return env
}

func normalizeEnvKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return "UNKNOWN"
	}

	upper := strings.ToUpper(key)
	builder := strings.Builder{}
	builder.Grow(len(upper))
	for _, r := range upper {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			builder.WriteRune(r)
			continue
		}
		builder.WriteRune('_')
	}
	return builder.String()
}
