package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/catalogsync/internal/core"
	"github.com/JonMunkholm/catalogsync/internal/logging"
	"github.com/JonMunkholm/catalogsync/internal/sheet"
)

// multipartOverhead is the slack allowed above the file size for form framing.
const multipartOverhead = 1 << 20

// ValidateResponse is the result of a validation upload.
type ValidateResponse struct {
	Run      *core.Run      `json:"run"`
	Findings []core.Finding `json:"findings"`
}

// StatusResponse lists the export statuses of a domain.
type StatusResponse struct {
	Domain  core.Domain        `json:"domain"`
	Counts  core.StatusCounts  `json:"counts"`
	Entries []core.StatusEntry `json:"entries"`
}

// DomainInfo describes one configured domain.
type DomainInfo struct {
	Domain      core.Domain `json:"domain"`
	Label       string      `json:"label"`
	Description string      `json:"description,omitempty"`
	Groups      []string    `json:"groups"`
	Columns     int         `json:"columns"`
}

// HealthResponse is the body of /healthz.
type HealthResponse struct {
	Status  string                   `json:"status"`
	Exports core.ExportLimiterStatus `json:"exports"`
}

func domainParam(r *http.Request) core.Domain {
	return core.Domain(strings.TrimSpace(chi.URLParam(r, "domain")))
}

// handleValidate reads an uploaded sheet and validates it.
//
// The sheet is either the "file" field of a multipart form or the raw
// request body. Query parameters: mode (FULL|PARTIAL), groups
// (comma-separated), overrideNonCritical (bool).
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	domain := domainParam(r)
	ctx := r.Context()
	log := logging.WithDomain(ctx, string(domain))

	def, err := s.service.Definition(domain)
	if err != nil {
		respondError(w, r, err)
		return
	}

	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	body, closeBody, err := uploadBody(r, maxSize)
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer closeBody()

	table, err := sheet.Read(body, sheet.Options{
		MaxBytes: maxSize,
		Required: def.Schema().Identity.Columns(),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	q := r.URL.Query()
	mode := q.Get("mode")
	if mode == "" {
		mode = s.cfg.Export.DefaultMode
	}

	run, err := s.service.Validate(ctx, core.ValidateRequest{
		Domain:              domain,
		Header:              table.Header,
		Rows:                table.Rows,
		FirstRow:            table.FirstRow,
		Mode:                core.ParseUpdateMode(mode),
		Groups:              parseGroups(q.Get("groups")),
		OverrideNonCritical: parseBool(q.Get("overrideNonCritical")),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	log.Info("sheet validated", "run_id", run.ID, "rows", len(table.Rows))
	writeJSON(w, http.StatusOK, ValidateResponse{Run: run, Findings: nonNil(run.Findings())})
}

// uploadBody returns the sheet bytes of a multipart upload or the raw body.
func uploadBody(r *http.Request, maxSize int64) (io.Reader, func(), error) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return r.Body, func() {}, nil
	}

	if err := r.ParseMultipartForm(min(maxSize, 32<<20)); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, fmt.Errorf("file too large: exceeds %d MB limit", maxSize/(1024*1024))
		}
		return nil, nil, fmt.Errorf("invalid csv: %w", err)
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, nil, fmt.Errorf("empty file: no file provided")
	}
	return file, func() { file.Close() }, nil
}

// handleFindings returns the findings of the latest validation run.
func (s *Server) handleFindings(w http.ResponseWriter, r *http.Request) {
	run, err := s.service.LatestRun(domainParam(r))
	if err != nil {
		respondError(w, r, err)
		return
	}

	findings := run.Findings()
	if cat := r.URL.Query().Get("category"); cat != "" {
		filtered := findings[:0:0]
		for _, f := range findings {
			if string(f.Category) == strings.ToLower(cat) {
				filtered = append(filtered, f)
			}
		}
		findings = filtered
	}

	writeJSON(w, http.StatusOK, ValidateResponse{Run: run, Findings: nonNil(findings)})
}

// handleExport sends the latest run of a domain to the sync service.
//
// Query parameters: override (none|valid|all), includeUnrequested (bool).
// A batch blocked by invalid records answers 409 with the invalid count.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	domain := domainParam(r)
	q := r.URL.Query()

	opts := core.ExportOptions{
		Override:           core.ParseOverride(q.Get("override")),
		IncludeUnrequested: parseBool(q.Get("includeUnrequested")),
	}

	report, err := s.service.Export(r.Context(), domain, opts)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if report.Blocked {
		logging.WithDomain(r.Context(), string(domain)).Warn("export blocked",
			"invalid", report.InvalidCount,
			"override", opts.Override.String(),
		)
		respondBlocked(w, report)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// handleStatus lists the export statuses of a domain.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	domain := domainParam(r)

	entries, err := s.service.Statuses(r.Context(), domain)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if st := r.URL.Query().Get("status"); st != "" {
		want := core.Status(strings.ToUpper(st))
		filtered := entries[:0:0]
		for _, e := range entries {
			if e.Status == want {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	writeJSON(w, http.StatusOK, StatusResponse{
		Domain:  domain,
		Counts:  core.CountStatuses(entries),
		Entries: nonNil(entries),
	})
}

// handleResetStatus returns every record of a domain to NONE.
func (s *Server) handleResetStatus(w http.ResponseWriter, r *http.Request) {
	domain := domainParam(r)

	n, err := s.service.ResetStatuses(r.Context(), domain)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"domain": domain, "cleared": n})
}

// handleReport returns the cross-domain summary.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.service.Report(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleListDomains returns every configured domain.
func (s *Server) handleListDomains(w http.ResponseWriter, r *http.Request) {
	defs := s.service.Domains()
	out := make([]DomainInfo, len(defs))
	for i, d := range defs {
		schema := d.Schema()
		out[i] = DomainInfo{
			Domain:      d.Domain,
			Label:       d.Label,
			Description: d.Description,
			Groups:      schema.Groups(),
			Columns:     len(schema.Headers()),
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// handleDownloadTemplate serves a header-only CSV for a domain.
func (s *Server) handleDownloadTemplate(w http.ResponseWriter, r *http.Request) {
	domain := domainParam(r)

	header, err := s.service.Template(domain)
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s_template.csv"`, domain))
	if err := sheet.WriteTemplate(w, header); err != nil {
		logging.FromContext(r.Context()).Error("template write failed", "domain", domain, "error", err)
	}
}

// handleActivity lists recent activity entries.
// Query parameters: domain, action, limit.
func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := core.ActivityFilter{
		Domain: core.Domain(q.Get("domain")),
		Action: core.ActivityAction(q.Get("action")),
		Limit:  parseIntParam(q.Get("limit"), core.DefaultActivityLimit),
	}

	entries, err := s.service.Activity(r.Context(), filter)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(entries))
}

// handleHealth reports liveness and export slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Exports: s.service.LimiterStatus(),
	})
}

// parseGroups splits a comma-separated group list. An absent or blank value
// selects every group.
func parseGroups(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	var groups []string
	for _, g := range strings.Split(v, ",") {
		if g = strings.TrimSpace(g); g != "" {
			groups = append(groups, g)
		}
	}
	return groups
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return strings.EqualFold(strings.TrimSpace(v), "yes")
	}
	return b
}

// parseIntParam parses a positive integer with a default value.
func parseIntParam(v string, defaultVal int) int {
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// nonNil keeps empty lists as [] in JSON.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
