package core

// activity.go records what the pipeline did: validation runs, export runs,
// and bulk status resets. Entries go to a LogSink. Writing is best-effort;
// a failing sink is logged and never fails the operation that produced the entry.

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ActivityAction is the kind of operation an entry describes.
type ActivityAction string

const (
	ActionValidate    ActivityAction = "validate"
	ActionExport      ActivityAction = "export"
	ActionExportBlock ActivityAction = "export_blocked"
	ActionStatusReset ActivityAction = "status_reset"
)

// LogLevel is the level of an activity entry.
type LogLevel string

const (
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// LogEntry is one structured activity record.
type LogEntry struct {
	ID        string         `json:"id"`
	Level     LogLevel       `json:"level"`
	Action    ActivityAction `json:"action"`
	Domain    Domain         `json:"domain,omitempty"`
	RunID     string         `json:"runId,omitempty"`
	Message   string         `json:"message"`
	Counts    map[string]int `json:"counts,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// LogSink persists activity entries.
type LogSink interface {
	Write(ctx context.Context, entry LogEntry) error
}

// ActivityFilter selects entries for listing. Zero values match everything.
type ActivityFilter struct {
	Domain Domain
	Action ActivityAction
	Limit  int
}

// DefaultActivityLimit caps a listing when no limit is given.
const DefaultActivityLimit = 100

// ActivityReader lists recent entries, newest first.
type ActivityReader interface {
	List(ctx context.Context, filter ActivityFilter) ([]LogEntry, error)
}

// levelFor returns the level an action is logged at.
func levelFor(action ActivityAction) LogLevel {
	switch action {
	case ActionExportBlock, ActionStatusReset:
		return LevelWarn
	default:
		return LevelInfo
	}
}

// ActivityLog stamps and forwards entries to its sinks.
type ActivityLog struct {
	sinks []LogSink
	now   Clock
}

// NewActivityLog creates a log writing to every sink in order.
func NewActivityLog(now Clock, sinks ...LogSink) *ActivityLog {
	if now == nil {
		now = time.Now
	}
	return &ActivityLog{sinks: sinks, now: now}
}

// Record fills ID, level and timestamp when unset and writes the entry.
func (a *ActivityLog) Record(ctx context.Context, entry LogEntry) LogEntry {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Level == "" {
		entry.Level = levelFor(entry.Action)
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = a.now().UTC()
	}

	for _, s := range a.sinks {
		if err := s.Write(ctx, entry); err != nil {
			slog.Warn("activity sink write failed",
				"action", entry.Action,
				"domain", entry.Domain,
				"error", err,
			)
		}
	}
	return entry
}

// LogValidation records a validation run.
func (a *ActivityLog) LogValidation(ctx context.Context, domain Domain, runID string, s Summary) LogEntry {
	return a.Record(ctx, LogEntry{
		Action:  ActionValidate,
		Domain:  domain,
		RunID:   runID,
		Message: fmt.Sprintf("Validated %d records: %d valid, %d errors, %d warnings", s.Evaluated, s.Valid, s.Errors, s.Warnings),
		Counts: map[string]int{
			"evaluated": s.Evaluated,
			"valid":     s.Valid,
			"errors":    s.Errors,
			"warnings":  s.Warnings,
		},
	})
}

// LogExport records an export run, blocked or not.
func (a *ActivityLog) LogExport(ctx context.Context, r *ExportReport) LogEntry {
	if r.Blocked {
		return a.Record(ctx, LogEntry{
			Action:  ActionExportBlock,
			Domain:  r.Domain,
			RunID:   r.RunID,
			Message: fmt.Sprintf("Export blocked: %d invalid records need an override", r.InvalidCount),
			Counts:  map[string]int{"invalid": r.InvalidCount, "eligible": r.Eligible},
		})
	}

	entry := LogEntry{
		Action:  ActionExport,
		Domain:  r.Domain,
		RunID:   r.RunID,
		Message: fmt.Sprintf("Exported %d records: %d done, %d failed", r.Sent, r.Succeeded, r.Failed),
		Counts: map[string]int{
			"sent":      r.Sent,
			"succeeded": r.Succeeded,
			"failed":    r.Failed,
			"skipped":   r.Skipped,
		},
	}
	if r.BatchError != "" {
		entry.Level = LevelError
		entry.Message = fmt.Sprintf("Export of %d records failed: %s", r.Sent, r.BatchError)
	}
	return a.Record(ctx, entry)
}

// LogReset records a bulk status reset.
func (a *ActivityLog) LogReset(ctx context.Context, domain Domain, cleared int) LogEntry {
	return a.Record(ctx, LogEntry{
		Action:  ActionStatusReset,
		Domain:  domain,
		Message: fmt.Sprintf("Reset export status of %d records", cleared),
		Counts:  map[string]int{"cleared": cleared},
	})
}

// SlogSink writes entries to a slog logger.
type SlogSink struct {
	Logger *slog.Logger
}

func (s SlogSink) Write(ctx context.Context, e LogEntry) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	level := slog.LevelInfo
	switch e.Level {
	case LevelWarn:
		level = slog.LevelWarn
	case LevelError:
		level = slog.LevelError
	}

	attrs := []any{"activity_id", e.ID, "action", e.Action, "domain", e.Domain}
	if e.RunID != "" {
		attrs = append(attrs, "run_id", e.RunID)
	}
	for k, v := range e.Counts {
		attrs = append(attrs, k, v)
	}
	logger.Log(ctx, level, e.Message, attrs...)
	return nil
}

// MemoryActivity keeps the most recent entries in a ring buffer.
type MemoryActivity struct {
	mu      sync.RWMutex
	entries []LogEntry
	next    int
	full    bool
}

// NewMemoryActivity creates a buffer holding up to size entries.
func NewMemoryActivity(size int) *MemoryActivity {
	if size <= 0 {
		size = 1000
	}
	return &MemoryActivity{entries: make([]LogEntry, size)}
}

func (m *MemoryActivity) Write(_ context.Context, e LogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[m.next] = e
	m.next = (m.next + 1) % len(m.entries)
	if m.next == 0 {
		m.full = true
	}
	return nil
}

func (m *MemoryActivity) List(_ context.Context, f ActivityFilter) ([]LogEntry, error) {
	if f.Limit <= 0 {
		f.Limit = DefaultActivityLimit
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	n := m.next
	if m.full {
		n = len(m.entries)
	}

	var out []LogEntry
	for i := 0; i < n && len(out) < f.Limit; i++ {
		e := m.entries[(m.next-1-i+len(m.entries))%len(m.entries)]
		if f.Domain != "" && e.Domain != f.Domain {
			continue
		}
		if f.Action != "" && e.Action != f.Action {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
