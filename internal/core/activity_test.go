package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingSink struct{ calls int }

func (s *failingSink) Write(context.Context, LogEntry) error {
	s.calls++
	return errors.New("disk full")
}

func TestActivityLog_Record(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mem := NewMemoryActivity(10)
	failing := &failingSink{}
	log := NewActivityLog(fixedClock(now), failing, mem)

	entry := log.LogValidation(ctx, DomainMedia, "run-1", Summary{Evaluated: 3, Valid: 2, Errors: 1})

	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, LevelInfo, entry.Level)
	assert.Equal(t, now, entry.Timestamp)
	assert.Equal(t, "Validated 3 records: 2 valid, 1 errors, 0 warnings", entry.Message)
	assert.Equal(t, 1, failing.calls)

	listed, err := mem.List(ctx, ActivityFilter{})
	require.NoError(t, err)
	require.Len(t, listed, 1, "a failing sink does not stop later sinks")
	assert.Equal(t, entry, listed[0])
}

func TestActivityLog_LogExportLevels(t *testing.T) {
	ctx := context.Background()
	log := NewActivityLog(nil)

	tests := []struct {
		name       string
		report     ExportReport
		wantAction ActivityAction
		wantLevel  LogLevel
		wantMsg    string
	}{
		{
			name:       "blocked",
			report:     ExportReport{Domain: DomainMedia, Blocked: true, InvalidCount: 2, Eligible: 5},
			wantAction: ActionExportBlock,
			wantLevel:  LevelWarn,
			wantMsg:    "Export blocked: 2 invalid records need an override",
		},
		{
			name:       "finished",
			report:     ExportReport{Domain: DomainMedia, Sent: 3, Succeeded: 2, Failed: 1},
			wantAction: ActionExport,
			wantLevel:  LevelInfo,
			wantMsg:    "Exported 3 records: 2 done, 1 failed",
		},
		{
			name:       "batch failure",
			report:     ExportReport{Domain: DomainMedia, Sent: 3, Failed: 3, BatchError: "timeout"},
			wantAction: ActionExport,
			wantLevel:  LevelError,
			wantMsg:    "Export of 3 records failed: timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := log.LogExport(ctx, &tt.report)
			assert.Equal(t, tt.wantAction, e.Action)
			assert.Equal(t, tt.wantLevel, e.Level)
			assert.Equal(t, tt.wantMsg, e.Message)
		})
	}

	reset := log.LogReset(ctx, DomainCompliance, 4)
	assert.Equal(t, LevelWarn, reset.Level)
	assert.Equal(t, map[string]int{"cleared": 4}, reset.Counts)
}

func TestMemoryActivity_RingAndFilters(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryActivity(3)

	for i := 0; i < 5; i++ {
		d := DomainMedia
		if i%2 == 1 {
			d = DomainCompliance
		}
		require.NoError(t, mem.Write(ctx, LogEntry{ID: fmt.Sprint(i), Domain: d, Action: ActionValidate}))
	}

	all, err := mem.List(ctx, ActivityFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"4", "3", "2"}, ids(all), "oldest entries are overwritten, newest first")

	media, _ := mem.List(ctx, ActivityFilter{Domain: DomainMedia})
	assert.Equal(t, []string{"4", "2"}, ids(media))

	limited, _ := mem.List(ctx, ActivityFilter{Limit: 1})
	assert.Equal(t, []string{"4"}, ids(limited))

	exports, _ := mem.List(ctx, ActivityFilter{Action: ActionExport})
	assert.Empty(t, exports)
}

func TestSlogSink(t *testing.T) {
	var buf bytes.Buffer
	sink := SlogSink{Logger: slog.New(slog.NewTextHandler(&buf, nil))}

	err := sink.Write(context.Background(), LogEntry{
		ID:      "a1",
		Level:   LevelWarn,
		Action:  ActionStatusReset,
		Domain:  DomainMedia,
		Message: "Reset export status of 2 records",
		Counts:  map[string]int{"cleared": 2},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, `msg="Reset export status of 2 records"`)
	assert.Contains(t, out, "domain=media")
	assert.Contains(t, out, "cleared=2")
	assert.NotContains(t, out, "run_id")
}

func ids(entries []LogEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}
