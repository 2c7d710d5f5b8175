package core

// export.go drives one export batch from evaluated records to final statuses.
//
// Steps:
//  1. Keep eligible records (export requested, usable identity).
//  2. Refuse the whole batch if any of them is invalid and no override was given.
//  3. Mark every proceeding record PENDING.
//  4. Call the transport once with the domain tag.
//  5. Map results by position; a batch failure or transport error fails every record.
//
// There is no automatic retry. Re-exporting the FAILED subset is the caller's decision.

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/lo"
)

// MsgNoResult is stored when the service returned fewer results than records.
const MsgNoResult = "no result returned"

// OverrideMode is the caller's decision about invalid records.
type OverrideMode int

const (
	// OverrideNone blocks the batch while any eligible record is invalid.
	OverrideNone OverrideMode = iota
	// OverrideValidOnly exports the valid subset and skips the invalid records.
	OverrideValidOnly
	// OverrideAll exports every eligible record regardless of findings.
	OverrideAll
)

func (m OverrideMode) String() string {
	switch m {
	case OverrideValidOnly:
		return "valid"
	case OverrideAll:
		return "all"
	default:
		return "none"
	}
}

// ParseOverride converts a query value. "true" and "valid" export the valid
// subset; "all" and "force" export everything eligible.
func ParseOverride(s string) OverrideMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "valid", "valid-only":
		return OverrideValidOnly
	case "all", "force":
		return OverrideAll
	default:
		return OverrideNone
	}
}

// ExportOptions controls record selection for a batch.
type ExportOptions struct {
	Override           OverrideMode
	IncludeUnrequested bool // Also export rows whose export flag is unset
}

// ItemOutcome is the final state of one exported record.
type ItemOutcome struct {
	Key    RecordKey `json:"key"`
	Row    int       `json:"row"`
	SKU    string    `json:"sku"`
	Status Status    `json:"status"`
	Error  string    `json:"error,omitempty"`
}

// ExportReport describes what a batch did.
type ExportReport struct {
	Domain       Domain        `json:"domain"`
	RunID        string        `json:"runId,omitempty"`
	Blocked      bool          `json:"blocked"`
	InvalidCount int           `json:"invalidCount"`
	InvalidRows  []int         `json:"invalidRows,omitempty"`
	Eligible     int           `json:"eligible"`
	Skipped      int           `json:"skipped"`
	Sent         int           `json:"sent"`
	Succeeded    int           `json:"succeeded"`
	Failed       int           `json:"failed"`
	BatchError   string        `json:"batchError,omitempty"`
	Items        []ItemOutcome `json:"items,omitempty"`
	Duration     time.Duration `json:"-"`
}

// Coordinator exports batches through a transport and records statuses.
type Coordinator struct {
	transport Transport
	tracker   *Tracker
}

// NewCoordinator creates a coordinator. Nil collaborators are reported by
// ExportBatch as configuration errors.
func NewCoordinator(transport Transport, tracker *Tracker) *Coordinator {
	return &Coordinator{transport: transport, tracker: tracker}
}

// ExportBatch exports the eligible records of one domain.
// The only errors returned are configuration and status-store failures;
// transport problems end up as FAILED statuses in the report.
func (c *Coordinator) ExportBatch(ctx context.Context, domain Domain, evals []Evaluation, opts ExportOptions) (*ExportReport, error) {
	if !domain.IsKnown() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDomain, domain)
	}
	if c.transport == nil {
		return nil, ErrNoTransport
	}
	if c.tracker == nil {
		return nil, ErrNoStatusStore
	}
	for _, e := range evals {
		if e.Record.Domain != domain {
			return nil, fmt.Errorf("%w: record row %d belongs to %q, not %q", ErrUnknownDomain, e.Record.RowIndex, e.Record.Domain, domain)
		}
	}

	start := time.Now()
	report := &ExportReport{Domain: domain}

	candidates := lo.Filter(evals, func(e Evaluation, _ int) bool {
		return e.Record.IdentityValid && (e.Record.ExportRequested || opts.IncludeUnrequested)
	})
	invalid := lo.Filter(candidates, func(e Evaluation, _ int) bool { return !e.Valid() })

	report.Eligible = len(candidates)
	report.InvalidCount = len(invalid)
	report.InvalidRows = lo.Map(invalid, func(e Evaluation, _ int) int { return e.Record.RowIndex })

	if len(invalid) > 0 && opts.Override == OverrideNone {
		report.Blocked = true
		report.Skipped = len(evals)
		return report, nil
	}

	proceeding := candidates
	if opts.Override == OverrideValidOnly {
		proceeding = lo.Filter(candidates, func(e Evaluation, _ int) bool { return e.Valid() })
	}
	report.Skipped = len(evals) - len(proceeding)
	report.Sent = len(proceeding)

	if len(proceeding) == 0 {
		return report, nil
	}

	records := lo.Map(proceeding, func(e Evaluation, _ int) *Record { return e.Record })

	// From here on the batch runs to completion so nothing stays PENDING.
	ctx = context.WithoutCancel(ctx)

	err := c.tracker.ApplyMany(ctx, lo.Map(records, func(r *Record, _ int) StatusUpdate {
		return StatusUpdate{Key: r.Key(), Status: StatusPending}
	}))
	if err != nil {
		return nil, fmt.Errorf("mark pending: %w", err)
	}

	resp, err := c.transport.Sync(ctx, domain, records)
	updates := interpret(records, resp, err)

	if err != nil {
		report.BatchError = err.Error()
	} else if resp == nil || !resp.Success {
		report.BatchError = updates[0].Message
	}

	if err := c.tracker.ApplyMany(ctx, updates); err != nil {
		return nil, fmt.Errorf("record results: %w", err)
	}

	for i, u := range updates {
		report.Items = append(report.Items, ItemOutcome{
			Key:    u.Key,
			Row:    records[i].RowIndex,
			SKU:    records[i].Identity.SKU,
			Status: u.Status,
			Error:  u.Message,
		})
		if u.Status == StatusDone {
			report.Succeeded++
		} else {
			report.Failed++
		}
	}
	report.Duration = time.Since(start)

	slog.Info("export batch finished",
		"domain", domain,
		"sent", report.Sent,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"batch_error", report.BatchError,
		"duration_ms", report.Duration.Milliseconds(),
	)

	return report, nil
}

// interpret maps a transport outcome onto one status update per record.
func interpret(records []*Record, resp *SyncResponse, err error) []StatusUpdate {
	failAll := func(msg string) []StatusUpdate {
		return lo.Map(records, func(r *Record, _ int) StatusUpdate {
			return StatusUpdate{Key: r.Key(), Status: StatusFailed, Message: msg}
		})
	}

	switch {
	case err != nil:
		return failAll(err.Error())
	case resp == nil:
		return failAll("empty response from sync service")
	case !resp.Success:
		msg := resp.Error
		if msg == "" {
			msg = "sync service reported a batch failure"
		}
		return failAll(msg)
	}

	return lo.Map(records, func(r *Record, i int) StatusUpdate {
		if i >= len(resp.Results) {
			return StatusUpdate{Key: r.Key(), Status: StatusFailed, Message: MsgNoResult}
		}
		res := resp.Results[i]
		if res.Success {
			return StatusUpdate{Key: r.Key(), Status: StatusDone}
		}
		msg := res.Error
		if msg == "" {
			msg = "item rejected by sync service"
		}
		return StatusUpdate{Key: r.Key(), Status: StatusFailed, Message: msg}
	})
}
