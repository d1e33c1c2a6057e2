package services

import (
	"context"
	"errors"

	"github.com/vvka-141/perfdigest/internal/failure"
	"github.com/vvka-141/perfdigest/internal/load"
	"github.com/vvka-141/perfdigest/internal/mailer"
	"github.com/vvka-141/perfdigest/pkg/perfdigest"
)

// Fetcher downloads one object.
type Fetcher interface {
	Fetch(ctx context.Context, item perfdigest.TransferItem) error
}

// Loader bulk-loads one file.
type Loader interface {
	Load(ctx context.Context, spec perfdigest.LoadSpec) (*load.Result, error)
}

// Reporter runs the report queries.
type Reporter interface {
	RunLabeled(ctx context.Context, queries []perfdigest.LabeledQuery) ([]perfdigest.QueryResult, int, error)
	FetchRows(ctx context.Context, sql string) ([][]any, error)
	FetchComparisons(ctx context.Context, sql string) ([]perfdigest.ComparisonRow, error)
}

// ChartRenderer produces the trend chart and returns its path.
type ChartRenderer interface {
	Render(ctx context.Context) (string, error)
}

// Mailer delivers the composed report.
type Mailer interface {
	Send(ctx context.Context, report mailer.Report, chartPath string) error
}

// Queries are the SQL statements of one report.
type Queries struct {
	Summary      []perfdigest.LabeledQuery
	Detail       string
	AboveAverage string
	BelowAverage string
}

// RunService executes the pipeline once: fetch, load, report, chart, mail.
// Every step failure is logged and the run moves on.
// Thread-Safety: NOT safe for concurrent Run() calls on the same instance.
type RunService struct {
	fetcher  Fetcher
	loader   Loader
	reporter Reporter
	chart    ChartRenderer
	mailer   Mailer
	logger   perfdigest.Logger

	plan    Plan
	queries Queries
	subject string
}

// NewRunService wires the pipeline. Nil dependencies are programmer errors
// and panic.
func NewRunService(
	fetcher Fetcher,
	loader Loader,
	reporter Reporter,
	chart ChartRenderer,
	mail Mailer,
	logger perfdigest.Logger,
	plan Plan,
	queries Queries,
	subject string,
) *RunService {
	if fetcher == nil {
		panic("fetcher cannot be nil")
	}
	if loader == nil {
		panic("loader cannot be nil")
	}
	if reporter == nil {
		panic("reporter cannot be nil")
	}
	if chart == nil {
		panic("chart cannot be nil")
	}
	if mail == nil {
		panic("mailer cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	return &RunService{
		fetcher:  fetcher,
		loader:   loader,
		reporter: reporter,
		chart:    chart,
		mailer:   mail,
		logger:   logger,
		plan:     plan,
		queries:  queries,
		subject:  subject,
	}
}

// Run executes every step in order. It only returns an error when ctx is
// done; step failures are reported through the summary and the log.
func (s *RunService) Run(ctx context.Context) (perfdigest.RunSummary, error) {
	var summary perfdigest.RunSummary

	s.fetchAll(ctx, &summary)
	s.loadAll(ctx, &summary)

	results, failed, err := s.reporter.RunLabeled(ctx, s.queries.Summary)
	summary.QueriesFailed += failed
	if err != nil {
		s.logFailure("Report queries", err)
	}

	chartPath, err := s.chart.Render(ctx)
	if err != nil {
		if errors.Is(err, perfdigest.ErrEmptyResult) {
			s.logger.Info("No results found for the average time.")
		} else {
			s.logFailure("Chart", err)
		}
	}
	summary.ChartPath = chartPath

	if len(results) == 0 || chartPath == "" {
		s.logger.Info("Skipping email: report results=%d, chart=%q", len(results), chartPath)
		s.logSummary(summary)
		return summary, ctx.Err()
	}

	report := mailer.Report{
		Subject: s.subject,
		Summary: results,
	}
	report.AboveAverage = s.comparisons(ctx, "above-average samples", s.queries.AboveAverage, &summary)
	report.Detail = s.rows(ctx, "performance samples", s.queries.Detail, &summary)
	report.BelowAverage = s.comparisons(ctx, "below-average samples", s.queries.BelowAverage, &summary)

	if err := s.mailer.Send(ctx, report, chartPath); err != nil {
		s.logFailure("Sending email", err)
	} else {
		summary.MailSent = true
	}

	s.logSummary(summary)
	return summary, ctx.Err()
}

func (s *RunService) fetchAll(ctx context.Context, summary *perfdigest.RunSummary) {
	for _, item := range s.plan.Transfers {
		if err := s.fetcher.Fetch(ctx, item); err != nil {
			summary.FetchFailed++
			s.logFailure("Download of "+item.Key, err)
			continue
		}
		summary.Fetched++
	}
}

func (s *RunService) loadAll(ctx context.Context, summary *perfdigest.RunSummary) {
	for _, spec := range s.plan.Loads {
		res, err := s.loader.Load(ctx, spec)
		switch {
		case errors.Is(err, perfdigest.ErrFileNotFound):
			summary.LoadSkipped++
			s.logger.Info("File not found: %s", spec.FilePath)
		case err != nil:
			summary.LoadFailed++
			s.logFailure("Load into "+spec.Table, err)
		default:
			summary.Loaded++
			s.logger.Verbose("%s: %d copied, %d rejected", res.Table, res.Copied, res.Rejected)
		}
	}
}

func (s *RunService) comparisons(ctx context.Context, what, sql string, summary *perfdigest.RunSummary) []perfdigest.ComparisonRow {
	rows, err := s.reporter.FetchComparisons(ctx, sql)
	if err != nil {
		summary.QueriesFailed++
		s.logFailure("Fetching "+what, err)
		return nil
	}
	return rows
}

func (s *RunService) rows(ctx context.Context, what, sql string, summary *perfdigest.RunSummary) [][]any {
	rows, err := s.reporter.FetchRows(ctx, sql)
	if err != nil {
		summary.QueriesFailed++
		s.logFailure("Fetching "+what, err)
		return nil
	}
	return rows
}

func (s *RunService) logFailure(step string, err error) {
	s.logger.Error("%s failed [%s]: %v", step, failure.Classify(err), err)
}

func (s *RunService) logSummary(summary perfdigest.RunSummary) {
	s.logger.Info("Run finished: fetched=%d fetch_failed=%d loaded=%d load_skipped=%d load_failed=%d queries_failed=%d mail_sent=%t",
		summary.Fetched, summary.FetchFailed, summary.Loaded, summary.LoadSkipped, summary.LoadFailed,
		summary.QueriesFailed, summary.MailSent)
}
