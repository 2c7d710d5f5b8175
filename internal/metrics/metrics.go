// Package metrics exposes pipeline outcomes as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/JonMunkholm/catalogsync/internal/core"
)

// Metrics implements core.Observer.
type Metrics struct {
	RecordsValidated *prometheus.CounterVec
	Findings         *prometheus.CounterVec
	ExportItems      *prometheus.CounterVec
	ExportsBlocked   *prometheus.CounterVec
	ExportDuration   *prometheus.HistogramVec
}

// New registers every pipeline metric with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		RecordsValidated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "catalogsync_records_validated_total",
			Help: "Records validated, by domain and outcome (valid or invalid)",
		}, []string{"domain", "outcome"}),
		Findings: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "catalogsync_findings_total",
			Help: "Validation findings, by domain, category and code",
		}, []string{"domain", "category", "code"}),
		ExportItems: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "catalogsync_export_items_total",
			Help: "Exported records, by domain and final status",
		}, []string{"domain", "status"}),
		ExportsBlocked: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "catalogsync_exports_blocked_total",
			Help: "Export batches refused because of invalid records",
		}, []string{"domain"}),
		ExportDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "catalogsync_export_duration_seconds",
			Help:    "Duration of export batches including the transport call",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"domain"}),
	}
}

// ObserveValidation records one validation run.
func (m *Metrics) ObserveValidation(domain core.Domain, findings []core.Finding, s core.Summary) {
	d := string(domain)
	m.RecordsValidated.WithLabelValues(d, "valid").Add(float64(s.Valid))
	m.RecordsValidated.WithLabelValues(d, "invalid").Add(float64(s.Evaluated - s.Valid))
	for _, f := range findings {
		m.Findings.WithLabelValues(d, string(f.Category), f.Code).Inc()
	}
}

// ObserveExport records one export batch.
func (m *Metrics) ObserveExport(domain core.Domain, r *core.ExportReport) {
	d := string(domain)
	if r.Blocked {
		m.ExportsBlocked.WithLabelValues(d).Inc()
		return
	}
	m.ExportItems.WithLabelValues(d, string(core.StatusDone)).Add(float64(r.Succeeded))
	m.ExportItems.WithLabelValues(d, string(core.StatusFailed)).Add(float64(r.Failed))
	if r.Sent > 0 {
		m.ExportDuration.WithLabelValues(d).Observe(r.Duration.Seconds())
	}
}
