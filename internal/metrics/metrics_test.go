package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/JonMunkholm/catalogsync/internal/core"
)

func TestObserveValidation(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveValidation(core.DomainMedia, []core.Finding{
		{Code: core.CodeRequired, Category: core.CategoryError},
		{Code: core.CodeRequired, Category: core.CategoryError},
		{Code: core.CodeUnknownEnum, Category: core.CategoryWarning},
	}, core.Summary{Evaluated: 5, Valid: 3, Errors: 2, Warnings: 1})

	assert.Equal(t, 3.0, testutil.ToFloat64(m.RecordsValidated.WithLabelValues("media", "valid")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RecordsValidated.WithLabelValues("media", "invalid")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Findings.WithLabelValues("media", "error", core.CodeRequired)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Findings.WithLabelValues("media", "warning", core.CodeUnknownEnum)))
}

func TestObserveExport(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveExport(core.DomainCompliance, &core.ExportReport{Blocked: true, InvalidCount: 2})
	m.ObserveExport(core.DomainCompliance, &core.ExportReport{Sent: 3, Succeeded: 2, Failed: 1, Duration: 300 * time.Millisecond})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExportsBlocked.WithLabelValues("compliance")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ExportItems.WithLabelValues("compliance", "DONE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExportItems.WithLabelValues("compliance", "FAILED")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.ExportDuration))
}

func TestNew_RegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)

	assert.Panics(t, func() { New(reg) }, "registering twice on one registry fails")
}
