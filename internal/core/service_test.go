package core_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/JonMunkholm/catalogsync/internal/core"
	"github.com/JonMunkholm/catalogsync/internal/core/mocks"
)

type recordingObserver struct {
	validations int
	exports     []*core.ExportReport
}

func (o *recordingObserver) ObserveValidation(core.Domain, []core.Finding, core.Summary) {
	o.validations++
}

func (o *recordingObserver) ObserveExport(_ core.Domain, r *core.ExportReport) {
	o.exports = append(o.exports, r)
}

type ServiceSuite struct {
	suite.Suite

	ctx       context.Context
	transport *mocks.MockTransport
	activity  *core.MemoryActivity
	observer  *recordingObserver
	service   *core.Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.transport = mocks.NewMockTransport(gomock.NewController(s.T()))
	s.activity = core.NewMemoryActivity(50)
	s.observer = &recordingObserver{}

	registry := core.NewRegistry()
	registry.MustRegister(core.Definition{Domain: core.DomainCoreProduct, Label: "Core product", Catalog: exportCatalog})
	registry.MustRegister(core.Definition{
		Domain:  core.DomainMedia,
		Label:   "Media",
		Catalog: core.MustCatalog(core.DomainMedia, exportSchema, nil),
	})

	clock := func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	svc, err := core.NewService(core.ServiceConfig{
		Registry:  registry,
		Transport: s.transport,
		Store:     core.NewMemoryStatusStore(),
		Activity:  core.NewActivityLog(clock, s.activity),
		Reader:    s.activity,
		Observer:  s.observer,
		Clock:     clock,
	})
	s.Require().NoError(err)
	s.service = svc
}

func (s *ServiceSuite) request(domain core.Domain, rows ...[]string) core.ValidateRequest {
	return core.ValidateRequest{
		Domain: domain,
		Header: exportSchema.Headers(),
		Rows:   rows,
	}
}

func (s *ServiceSuite) TestValidateStoresLatestRun() {
	run, err := s.service.Validate(s.ctx, s.request(core.DomainCoreProduct,
		[]string{"TRUE", "B0ABCDE001", "SKU-1", "Steel bottle"},
		[]string{"TRUE", "B0ABCDE002", "SKU-2", ""},
	))
	s.Require().NoError(err)

	s.Equal(core.Summary{Evaluated: 2, Valid: 1, Errors: 1}, run.Summary)
	s.Equal(core.ModePartial, run.Mode)
	s.Equal(3, run.Evaluations[1].Record.RowIndex)
	s.Len(run.Findings(), 1)

	latest, err := s.service.LatestRun(core.DomainCoreProduct)
	s.Require().NoError(err)
	s.Same(run, latest)
	s.Equal(1, s.observer.validations)

	entries, err := s.service.Activity(s.ctx, core.ActivityFilter{Action: core.ActionValidate})
	s.Require().NoError(err)
	s.Len(entries, 1)
	s.Equal(run.ID, entries[0].RunID)
}

func (s *ServiceSuite) TestValidateRejectsBadInput() {
	_, err := s.service.Validate(s.ctx, core.ValidateRequest{Domain: "pricing"})
	s.ErrorIs(err, core.ErrUnknownDomain)

	req := s.request(core.DomainCoreProduct)
	req.Groups = []string{"images"}
	_, err = s.service.Validate(s.ctx, req)
	s.ErrorContains(err, `unknown field group "images"`)

	_, err = s.service.Validate(s.ctx, core.ValidateRequest{Domain: core.DomainCoreProduct, Header: []string{"ASIN"}})
	s.ErrorContains(err, "missing required columns")
}

func (s *ServiceSuite) TestLatestRunMissing() {
	_, err := s.service.LatestRun(core.DomainMedia)
	s.ErrorIs(err, core.ErrNoEvaluation)

	_, err = s.service.Export(s.ctx, core.DomainMedia, core.ExportOptions{})
	s.ErrorIs(err, core.ErrNoEvaluation)
}

func (s *ServiceSuite) TestExportLatestRun() {
	_, err := s.service.Validate(s.ctx, s.request(core.DomainCoreProduct,
		[]string{"TRUE", "B0ABCDE001", "SKU-1", "Steel bottle"},
		[]string{"TRUE", "B0ABCDE002", "SKU-2", "Glass bottle"},
	))
	s.Require().NoError(err)

	s.transport.EXPECT().
		Sync(gomock.Any(), core.DomainCoreProduct, gomock.Len(2)).
		Return(&core.SyncResponse{Success: true, Results: []core.ItemResult{
			{Success: true},
			{Success: false, Error: "SKU not found"},
		}}, nil)

	report, err := s.service.Export(s.ctx, core.DomainCoreProduct, core.ExportOptions{})
	s.Require().NoError(err)
	s.Equal(1, report.Succeeded)
	s.Equal(1, report.Failed)
	s.NotEmpty(report.RunID)
	s.Len(s.observer.exports, 1)

	statuses, err := s.service.Statuses(s.ctx, core.DomainCoreProduct)
	s.Require().NoError(err)
	s.Require().Len(statuses, 2)
	s.Equal(core.StatusDone, statuses[0].Status)
	s.Equal(core.StatusFailed, statuses[1].Status)
	s.Equal("SKU not found", statuses[1].LastError)

	report2, err := s.service.Report(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(report2.Domains, 2)
	s.Equal(core.StatusCounts{Done: 1, Failed: 1}, report2.Domains[0].Statuses)
	s.Equal([]string{"SKU not found"}, report2.Domains[0].Errors)
	s.Equal(core.StatusCounts{}, report2.Domains[1].Statuses)
}

func (s *ServiceSuite) TestExportOfSameDomainRunsOnce() {
	_, err := s.service.Validate(s.ctx, s.request(core.DomainCoreProduct,
		[]string{"TRUE", "B0ABCDE001", "SKU-1", "Steel bottle"},
	))
	s.Require().NoError(err)

	started := make(chan struct{})
	release := make(chan struct{})
	ok := &core.SyncResponse{Success: true, Results: []core.ItemResult{{Success: true}}}

	gomock.InOrder(
		s.transport.EXPECT().
			Sync(gomock.Any(), core.DomainCoreProduct, gomock.Len(1)).
			DoAndReturn(func(context.Context, core.Domain, []*core.Record) (*core.SyncResponse, error) {
				close(started)
				<-release
				return ok, nil
			}),
		s.transport.EXPECT().
			Sync(gomock.Any(), core.DomainCoreProduct, gomock.Len(1)).
			Return(ok, nil),
	)

	first := make(chan error, 1)
	go func() {
		_, err := s.service.Export(s.ctx, core.DomainCoreProduct, core.ExportOptions{})
		first <- err
	}()
	<-started

	_, err = s.service.Export(s.ctx, core.DomainCoreProduct, core.ExportOptions{})
	s.ErrorIs(err, core.ErrExportInProgress)
	s.Equal("EXP004", core.MapError(err).Code)

	close(release)
	s.Require().NoError(<-first)

	_, err = s.service.Export(s.ctx, core.DomainCoreProduct, core.ExportOptions{})
	s.NoError(err, "the domain is free again once the first export returns")
}

func (s *ServiceSuite) TestExportBlockedIsLogged() {
	_, err := s.service.Validate(s.ctx, s.request(core.DomainCoreProduct,
		[]string{"TRUE", "B0ABCDE001", "SKU-1", ""},
	))
	s.Require().NoError(err)

	report, err := s.service.Export(s.ctx, core.DomainCoreProduct, core.ExportOptions{})
	s.Require().NoError(err)
	s.True(report.Blocked)
	s.Equal([]int{2}, report.InvalidRows)

	entries, _ := s.service.Activity(s.ctx, core.ActivityFilter{Action: core.ActionExportBlock})
	s.Len(entries, 1)
}

func (s *ServiceSuite) TestResetStatuses() {
	_, err := s.service.Validate(s.ctx, s.request(core.DomainCoreProduct,
		[]string{"TRUE", "B0ABCDE001", "SKU-1", "Steel bottle"},
	))
	s.Require().NoError(err)
	s.transport.EXPECT().Sync(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("connection refused"))

	_, err = s.service.Export(s.ctx, core.DomainCoreProduct, core.ExportOptions{})
	s.Require().NoError(err)

	n, err := s.service.ResetStatuses(s.ctx, core.DomainCoreProduct)
	s.Require().NoError(err)
	s.Equal(1, n)

	statuses, _ := s.service.Statuses(s.ctx, core.DomainCoreProduct)
	s.Empty(statuses)

	entries, _ := s.service.Activity(s.ctx, core.ActivityFilter{Action: core.ActionStatusReset})
	s.Len(entries, 1)
}

func (s *ServiceSuite) TestValidateAll() {
	runs, err := s.service.ValidateAll(s.ctx, []core.ValidateRequest{
		s.request(core.DomainCoreProduct, []string{"TRUE", "B0ABCDE001", "SKU-1", "Steel bottle"}),
		s.request(core.DomainMedia, []string{"TRUE", "B0ABCDE001", "SKU-1", ""}),
	})
	s.Require().NoError(err)
	s.Require().Len(runs, 2)
	s.Equal(core.DomainCoreProduct, runs[0].Domain)
	s.Equal(core.DomainMedia, runs[1].Domain)

	_, err = s.service.ValidateAll(s.ctx, []core.ValidateRequest{
		s.request(core.DomainMedia), s.request(core.DomainMedia),
	})
	s.ErrorContains(err, "requested more than once")
}

func (s *ServiceSuite) TestTemplateAndDomains() {
	header, err := s.service.Template(core.DomainMedia)
	s.Require().NoError(err)
	s.Equal([]string{"Export", "ASIN", "SKU", "Title"}, header)

	s.Len(s.service.Domains(), 2)

	_, err = s.service.Template(core.DomainCompliance)
	s.ErrorIs(err, core.ErrUnknownDomain)
}

func (s *ServiceSuite) TestNewServiceRequiresCollaborators() {
	_, err := core.NewService(core.ServiceConfig{Store: core.NewMemoryStatusStore()})
	s.Error(err)

	_, err = core.NewService(core.ServiceConfig{Registry: core.NewRegistry()})
	s.ErrorIs(err, core.ErrNoStatusStore)
}
