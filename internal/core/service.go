package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// Observer receives pipeline outcomes for metrics.
type Observer interface {
	ObserveValidation(domain Domain, findings []Finding, s Summary)
	ObserveExport(domain Domain, r *ExportReport)
}

// ServiceConfig wires the collaborators of a Service.
type ServiceConfig struct {
	Registry  *Registry
	Transport Transport
	Store     StatusStore
	Activity  *ActivityLog   // Optional; entries are dropped when nil
	Reader    ActivityReader // Optional; backs Service.Activity
	Limiter   *ExportLimiter // Optional; defaults to NewExportLimiter(0, 0)
	Observer  Observer       // Optional
	Clock     Clock          // Optional; defaults to time.Now
}

// Service is the host-facing entry point: validate a sheet, export the
// latest run, inspect statuses and reports.
type Service struct {
	registry    *Registry
	tracker     *Tracker
	coordinator *Coordinator
	activity    *ActivityLog
	reader      ActivityReader
	limiter     *ExportLimiter
	observer    Observer
	now         Clock

	mu     sync.RWMutex
	latest map[Domain]*Run

	exportMu  sync.Mutex
	exporting map[Domain]bool
}

// NewService creates a Service. A missing registry or store is a configuration error.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("service: registry is required")
	}
	if cfg.Store == nil {
		return nil, ErrNoStatusStore
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Activity == nil {
		cfg.Activity = NewActivityLog(cfg.Clock)
	}
	if cfg.Limiter == nil {
		cfg.Limiter = NewExportLimiter(0, 0)
	}

	tracker := NewTracker(cfg.Store, cfg.Clock)
	return &Service{
		registry:    cfg.Registry,
		tracker:     tracker,
		coordinator: NewCoordinator(cfg.Transport, tracker),
		activity:    cfg.Activity,
		reader:      cfg.Reader,
		limiter:     cfg.Limiter,
		observer:    cfg.Observer,
		now:         cfg.Clock,
		latest:      make(map[Domain]*Run),
		exporting:   make(map[Domain]bool),
	}, nil
}

// ValidateRequest is one sheet to validate.
type ValidateRequest struct {
	Domain              Domain
	Header              []string
	Rows                [][]string
	FirstRow            int // Sheet row number of Rows[0]; defaults to 2 (after the header)
	Mode                UpdateMode
	Groups              []string // nil selects every group
	OverrideNonCritical bool
}

// Run is the result of one validation run. A new run replaces the previous
// run of its domain; findings are never merged across runs.
type Run struct {
	ID                  string       `json:"id"`
	Domain              Domain       `json:"domain"`
	Mode                UpdateMode   `json:"mode"`
	Groups              []string     `json:"groups,omitempty"`
	OverrideNonCritical bool         `json:"overrideNonCritical"`
	Summary             Summary      `json:"summary"`
	Evaluations         []Evaluation `json:"-"`
	CreatedAt           time.Time    `json:"createdAt"`
}

// Findings flattens every finding of the run in row order.
func (r *Run) Findings() []Finding {
	return lo.FlatMap(r.Evaluations, func(e Evaluation, _ int) []Finding { return e.Findings })
}

// Evaluate validates every record against the catalog.
func Evaluate(records []*Record, cat *Catalog, overrideNonCritical bool) []Evaluation {
	return lo.Map(records, func(r *Record, _ int) Evaluation {
		return Evaluation{Record: r, Findings: Validate(r, cat, overrideNonCritical)}
	})
}

// Validate extracts and validates a sheet and stores it as the domain's latest run.
func (s *Service) Validate(ctx context.Context, req ValidateRequest) (*Run, error) {
	def, err := s.registry.Get(req.Domain)
	if err != nil {
		return nil, err
	}
	schema := def.Schema()

	for _, g := range req.Groups {
		if !schema.HasGroup(g) {
			return nil, fmt.Errorf("domain %s: unknown field group %q", req.Domain, g)
		}
	}

	idx, err := ValidateHeaders(req.Header, schema)
	if err != nil {
		return nil, err
	}

	firstRow := req.FirstRow
	if firstRow <= 0 {
		firstRow = 2
	}
	mode := req.Mode
	if mode == "" {
		mode = ModePartial
	}

	records := ExtractRows(req.Domain, schema, req.Rows, idx, firstRow, ExtractOptions{Mode: mode, Groups: req.Groups})
	evals := Evaluate(records, def.Catalog, req.OverrideNonCritical)

	run := &Run{
		ID:                  uuid.NewString(),
		Domain:              req.Domain,
		Mode:                mode,
		Groups:              req.Groups,
		OverrideNonCritical: req.OverrideNonCritical,
		Summary:             Summarize(evals),
		Evaluations:         evals,
		CreatedAt:           s.now().UTC(),
	}

	s.mu.Lock()
	s.latest[req.Domain] = run
	s.mu.Unlock()

	slog.InfoContext(ctx, "validation run finished",
		"run_id", run.ID,
		"domain", run.Domain,
		"mode", run.Mode,
		"evaluated", run.Summary.Evaluated,
		"valid", run.Summary.Valid,
		"errors", run.Summary.Errors,
		"warnings", run.Summary.Warnings,
	)

	s.activity.LogValidation(ctx, run.Domain, run.ID, run.Summary)
	if s.observer != nil {
		s.observer.ObserveValidation(run.Domain, run.Findings(), run.Summary)
	}

	return run, nil
}

// ValidateAll runs independent domain validations concurrently.
// Each request must target a different domain.
func (s *Service) ValidateAll(ctx context.Context, reqs []ValidateRequest) ([]*Run, error) {
	seen := make(map[Domain]bool, len(reqs))
	for _, r := range reqs {
		if seen[r.Domain] {
			return nil, fmt.Errorf("validate all: domain %s requested more than once", r.Domain)
		}
		seen[r.Domain] = true
	}

	runs := make([]*Run, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	for i, req := range reqs {
		g.Go(func() error {
			run, err := s.Validate(gctx, req)
			if err != nil {
				return fmt.Errorf("%s: %w", req.Domain, err)
			}
			runs[i] = run
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return runs, nil
}

func (s *Service) claimExport(domain Domain) bool {
	s.exportMu.Lock()
	defer s.exportMu.Unlock()
	if s.exporting[domain] {
		return false
	}
	s.exporting[domain] = true
	return true
}

func (s *Service) releaseExport(domain Domain) {
	s.exportMu.Lock()
	delete(s.exporting, domain)
	s.exportMu.Unlock()
}

// LatestRun returns the domain's most recent validation run.
func (s *Service) LatestRun(domain Domain) (*Run, error) {
	if _, err := s.registry.Get(domain); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.latest[domain]
	if !ok {
		return nil, fmt.Errorf("%w %s", ErrNoEvaluation, domain)
	}
	return run, nil
}

// Export sends the latest run of a domain. Only one export per domain runs at
// a time; a second call fails with ErrExportInProgress instead of sending the
// same records again.
func (s *Service) Export(ctx context.Context, domain Domain, opts ExportOptions) (*ExportReport, error) {
	run, err := s.LatestRun(domain)
	if err != nil {
		return nil, err
	}

	if !s.claimExport(domain) {
		return nil, fmt.Errorf("%w %s", ErrExportInProgress, domain)
	}
	defer s.releaseExport(domain)

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	report, err := s.coordinator.ExportBatch(ctx, domain, run.Evaluations, opts)
	if err != nil {
		return nil, err
	}
	report.RunID = run.ID

	s.activity.LogExport(ctx, report)
	if s.observer != nil {
		s.observer.ObserveExport(domain, report)
	}

	return report, nil
}

// Statuses lists the export statuses of a domain.
func (s *Service) Statuses(ctx context.Context, domain Domain) ([]StatusEntry, error) {
	if _, err := s.registry.Get(domain); err != nil {
		return nil, err
	}
	return s.tracker.List(ctx, domain)
}

// ResetStatuses returns every record of a domain to NONE.
func (s *Service) ResetStatuses(ctx context.Context, domain Domain) (int, error) {
	if _, err := s.registry.Get(domain); err != nil {
		return 0, err
	}

	n, err := s.tracker.Reset(ctx, domain)
	if err != nil {
		return 0, fmt.Errorf("reset %s: %w", domain, err)
	}

	s.activity.LogReset(ctx, domain, n)
	return n, nil
}

// Report builds the cross-domain summary. It never mutates status.
func (s *Service) Report(ctx context.Context) (Report, error) {
	defs := s.registry.All()
	domains := lo.Map(defs, func(d Definition, _ int) Domain { return d.Domain })

	evals := make(map[Domain][]Evaluation, len(domains))
	s.mu.RLock()
	for d, run := range s.latest {
		evals[d] = run.Evaluations
	}
	s.mu.RUnlock()

	statuses := make(map[Domain][]StatusEntry, len(domains))
	for _, d := range domains {
		entries, err := s.tracker.List(ctx, d)
		if err != nil {
			return Report{}, fmt.Errorf("list %s statuses: %w", d, err)
		}
		statuses[d] = entries
	}

	return BuildReport(s.now().UTC(), domains, evals, statuses), nil
}

// Activity lists recent activity entries.
func (s *Service) Activity(ctx context.Context, filter ActivityFilter) ([]LogEntry, error) {
	if s.reader == nil {
		return nil, nil
	}
	return s.reader.List(ctx, filter)
}

// Domains returns every registered domain definition.
func (s *Service) Domains() []Definition {
	return s.registry.All()
}

// Definition returns the definition of one domain.
func (s *Service) Definition(domain Domain) (Definition, error) {
	return s.registry.Get(domain)
}

// Template returns the header row of a domain's sheet.
func (s *Service) Template(domain Domain) ([]string, error) {
	def, err := s.registry.Get(domain)
	if err != nil {
		return nil, err
	}
	return def.Schema().Headers(), nil
}

// LimiterStatus reports export slot usage.
func (s *Service) LimiterStatus() ExportLimiterStatus {
	return s.limiter.Status()
}

// WaitForDrain blocks until running export batches finish.
func (s *Service) WaitForDrain(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
