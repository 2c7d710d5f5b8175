package core

import (
	"time"

	"github.com/samber/lo"
)

// StatusCounts counts records per export status.
type StatusCounts struct {
	None    int `json:"none"`
	Pending int `json:"pending"`
	Done    int `json:"done"`
	Failed  int `json:"failed"`
}

func (c StatusCounts) add(o StatusCounts) StatusCounts {
	return StatusCounts{
		None:    c.None + o.None,
		Pending: c.Pending + o.Pending,
		Done:    c.Done + o.Done,
		Failed:  c.Failed + o.Failed,
	}
}

// DomainReport is the current picture of one domain.
type DomainReport struct {
	Domain     Domain       `json:"domain"`
	Validation Summary      `json:"validation"`
	Statuses   StatusCounts `json:"statuses"`
	Errors     []string     `json:"recentErrors,omitempty"`
}

// Report aggregates every domain.
type Report struct {
	GeneratedAt time.Time      `json:"generatedAt"`
	Domains     []DomainReport `json:"domains"`
	Totals      DomainReport   `json:"totals"`
}

// maxReportErrors limits the failure messages listed per domain.
const maxReportErrors = 5

// CountStatuses folds status entries into counts.
func CountStatuses(entries []StatusEntry) StatusCounts {
	return StatusCounts{
		None:    lo.CountBy(entries, func(e StatusEntry) bool { return e.Status == StatusNone }),
		Pending: lo.CountBy(entries, func(e StatusEntry) bool { return e.Status == StatusPending }),
		Done:    lo.CountBy(entries, func(e StatusEntry) bool { return e.Status == StatusDone }),
		Failed:  lo.CountBy(entries, func(e StatusEntry) bool { return e.Status == StatusFailed }),
	}
}

// BuildReport is a read-only fold over the latest evaluations and current
// statuses. Domains with neither appear with zero counts.
func BuildReport(now time.Time, domains []Domain, evals map[Domain][]Evaluation, statuses map[Domain][]StatusEntry) Report {
	r := Report{GeneratedAt: now, Totals: DomainReport{Domain: "all"}}

	for _, d := range domains {
		dr := DomainReport{
			Domain:     d,
			Validation: Summarize(evals[d]),
			Statuses:   CountStatuses(statuses[d]),
		}

		failed := lo.Filter(statuses[d], func(e StatusEntry, _ int) bool {
			return e.Status == StatusFailed && e.LastError != ""
		})
		dr.Errors = lo.Uniq(lo.Map(failed, func(e StatusEntry, _ int) string { return e.LastError }))
		if len(dr.Errors) > maxReportErrors {
			dr.Errors = dr.Errors[:maxReportErrors]
		}

		r.Domains = append(r.Domains, dr)

		r.Totals.Validation.Evaluated += dr.Validation.Evaluated
		r.Totals.Validation.Valid += dr.Validation.Valid
		r.Totals.Validation.Errors += dr.Validation.Errors
		r.Totals.Validation.Warnings += dr.Validation.Warnings
		r.Totals.Statuses = r.Totals.Statuses.add(dr.Statuses)
	}

	return r
}
