// Package report runs the report queries against the analytical database.
package report

import (
	"context"
	"fmt"

	"github.com/vvka-141/perfdigest/pkg/perfdigest"
)

// Reporter executes report queries on scoped sessions.
type Reporter struct {
	opener perfdigest.SessionOpener
	logger perfdigest.Logger
}

func New(opener perfdigest.SessionOpener, logger perfdigest.Logger) *Reporter {
	return &Reporter{opener: opener, logger: logger}
}

// RunLabeled executes queries in order on one connection. The first failing
// query is logged and ends the batch; results collected before it are kept and
// failed is 1. A connection failure returns no results and the error.
func (r *Reporter) RunLabeled(ctx context.Context, queries []perfdigest.LabeledQuery) (results []perfdigest.QueryResult, failed int, err error) {
	session, err := r.opener.Open(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer r.close(ctx, session)

	for _, q := range queries {
		rows, err := fetch(ctx, session, q.SQL)
		if err != nil {
			r.logger.Error("Query for %q failed: %v", q.Label, err)
			return results, 1, nil
		}
		r.logger.Verbose("%q returned %d row(s)", q.Label, len(rows))
		results = append(results, perfdigest.QueryResult{Label: q.Label, Rows: rows})
	}
	return results, failed, nil
}

// FetchRows runs one query on its own connection and returns every row.
func (r *Reporter) FetchRows(ctx context.Context, sql string) ([][]any, error) {
	session, err := r.opener.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer r.close(ctx, session)

	return fetch(ctx, session, sql)
}

// FetchComparisons runs an above/below-average query and decodes its rows.
func (r *Reporter) FetchComparisons(ctx context.Context, sql string) ([]perfdigest.ComparisonRow, error) {
	rows, err := r.FetchRows(ctx, sql)
	if err != nil {
		return nil, err
	}

	out := make([]perfdigest.ComparisonRow, 0, len(rows))
	for _, values := range rows {
		row, err := perfdigest.DecodeComparisonRow(values)
		if err != nil {
			return nil, fmt.Errorf("decode comparison: %w: %w", err, perfdigest.ErrQueryFailed)
		}
		out = append(out, row)
	}
	return out, nil
}

func fetch(ctx context.Context, session perfdigest.Session, sql string) ([][]any, error) {
	rows, err := session.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	values, err := perfdigest.CollectRows(rows)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", err, perfdigest.ErrQueryFailed)
	}
	return values, nil
}

func (r *Reporter) close(ctx context.Context, session perfdigest.Session) {
	if err := session.Close(ctx); err != nil {
		r.logger.Verbose("Closing report connection: %v", err)
	}
}
