package services

import (
	"context"
	"fmt"

	"github.com/vvka-141/perfdigest/internal/load"
	"github.com/vvka-141/perfdigest/internal/mailer"
	"github.com/vvka-141/perfdigest/pkg/perfdigest"
)

// trace records the order in which pipeline steps were invoked.
type trace struct {
	calls []string
}

func (t *trace) add(format string, args ...any) {
	t.calls = append(t.calls, fmt.Sprintf(format, args...))
}

type mockFetcher struct {
	trace *trace
	fail  map[string]error
}

func (m *mockFetcher) Fetch(_ context.Context, item perfdigest.TransferItem) error {
	m.trace.add("fetch %s", item.Key)
	return m.fail[item.Key]
}

type mockLoader struct {
	trace *trace
	fail  map[string]error
}

func (m *mockLoader) Load(_ context.Context, spec perfdigest.LoadSpec) (*load.Result, error) {
	m.trace.add("load %s", spec.Table)
	if err := m.fail[spec.Table]; err != nil {
		return nil, err
	}
	return &load.Result{Table: spec.Table, Copied: 1}, nil
}

type mockReporter struct {
	trace       *trace
	results     []perfdigest.QueryResult
	failed      int
	labeledErr  error
	rows        map[string][][]any
	comparisons map[string][]perfdigest.ComparisonRow
	fail        map[string]error
}

func (m *mockReporter) RunLabeled(_ context.Context, queries []perfdigest.LabeledQuery) ([]perfdigest.QueryResult, int, error) {
	m.trace.add("report %d", len(queries))
	return m.results, m.failed, m.labeledErr
}

func (m *mockReporter) FetchRows(_ context.Context, sql string) ([][]any, error) {
	m.trace.add("rows %s", sql)
	if err := m.fail[sql]; err != nil {
		return nil, err
	}
	return m.rows[sql], nil
}

func (m *mockReporter) FetchComparisons(_ context.Context, sql string) ([]perfdigest.ComparisonRow, error) {
	m.trace.add("compare %s", sql)
	if err := m.fail[sql]; err != nil {
		return nil, err
	}
	return m.comparisons[sql], nil
}

type mockChart struct {
	trace *trace
	path  string
	err   error
}

func (m *mockChart) Render(_ context.Context) (string, error) {
	m.trace.add("chart")
	return m.path, m.err
}

type mockMailer struct {
	trace  *trace
	err    error
	report *mailer.Report
	chart  string
}

func (m *mockMailer) Send(_ context.Context, report mailer.Report, chartPath string) error {
	m.trace.add("mail")
	m.report = &report
	m.chart = chartPath
	return m.err
}

type recordingLogger struct {
	infos  []string
	errors []string
}

func (l *recordingLogger) Verbose(string, ...interface{}) {}

func (l *recordingLogger) Info(format string, args ...interface{}) {
	l.infos = append(l.infos, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Error(format string, args ...interface{}) {
	l.errors = append(l.errors, fmt.Sprintf(format, args...))
}
