package observability

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// AuditEvent represents a structured event for the audit log
type AuditEvent struct {
	Type      string                 `json:"event_type"`
	Timestamp time.Time              `json:"timestamp"`
	Actor     string                 `json:"actor,omitempty"` // session id
	Action    string                 `json:"action"`          // e.g. "history_add", "cleanup_sent"
	Status    string                 `json:"status"`          // "success", "failure", "skipped"
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// AuditLogger appends audit events as JSON lines
type AuditLogger struct {
	logger zerolog.Logger
	mu     sync.Mutex
	file   *os.File
}

var (
	auditMu   sync.Mutex
	auditInst *AuditLogger
)

// GetAuditLogger returns the global audit logger. Until InitAuditLogger is
// called events are discarded.
func GetAuditLogger() *AuditLogger {
	auditMu.Lock()
	defer auditMu.Unlock()
	if auditInst == nil {
		auditInst = NewAuditLogger(io.Discard)
	}
	return auditInst
}

// NewAuditLogger creates an audit logger writing to w
func NewAuditLogger(w io.Writer) *AuditLogger {
	return &AuditLogger{
		logger: zerolog.New(w),
	}
}

// InitAuditLogger points the global audit logger at path, closing any
// previously opened file.
func InitAuditLogger(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create audit directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}

	next := NewAuditLogger(file)
	next.file = file

	auditMu.Lock()
	prev := auditInst
	auditInst = next
	auditMu.Unlock()

	if prev != nil {
		_ = prev.Close()
	}
	return nil
}

// Record emits an audit event
func (a *AuditLogger) Record(event AuditEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	entry := a.logger.Log().
		Str("event_type", event.Type).
		Time("timestamp", event.Timestamp.UTC()).
		Str("action", event.Action).
		Str("status", event.Status)

	if event.Actor != "" {
		entry.Str("actor", event.Actor)
	}
	if event.Metadata != nil {
		entry.Interface("metadata", event.Metadata)
	}

	entry.Send()
}

// Close closes the audit logger's file handle
func (a *AuditLogger) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file != nil {
		err := a.file.Close()
		a.file = nil
		a.logger = zerolog.New(io.Discard)
		return err
	}
	return nil
}

// Helper methods for common events

func RecordHistoryAudit(action, actor, status string, metadata map[string]interface{}) {
	GetAuditLogger().Record(AuditEvent{
		Type:     "history",
		Actor:    actor,
		Action:   action,
		Status:   status,
		Metadata: metadata,
	})
}

func RecordSessionAudit(action, actor, status string, metadata map[string]interface{}) {
	GetAuditLogger().Record(AuditEvent{
		Type:     "session",
		Actor:    actor,
		Action:   action,
		Status:   status,
		Metadata: metadata,
	})
}

func RecordConfigAudit(action string, metadata map[string]interface{}) {
	GetAuditLogger().Record(AuditEvent{
		Type:     "config",
		Action:   action,
		Status:   "success",
		Metadata: metadata,
	})
}
