package report

import (
	"context"
	"io"

	"github.com/vvka-141/perfdigest/pkg/perfdigest"
)

type mockOpener struct {
	session *mockSession
	err     error
	opened  int
}

func (o *mockOpener) Open(ctx context.Context) (perfdigest.Session, error) {
	o.opened++
	if o.err != nil {
		return nil, o.err
	}
	return o.session, nil
}

// mockSession answers queries from a table keyed by SQL text.
type mockSession struct {
	results  map[string][][]any
	failures map[string]error
	executed []string
	closed   int
}

func (s *mockSession) Query(ctx context.Context, sql string, args ...any) (perfdigest.Rows, error) {
	s.executed = append(s.executed, sql)
	if err, ok := s.failures[sql]; ok {
		return nil, err
	}
	return &sliceRows{rows: s.results[sql]}, nil
}

func (s *mockSession) Begin(ctx context.Context) (perfdigest.Transaction, error) {
	return nil, io.ErrUnexpectedEOF
}

func (s *mockSession) Close(ctx context.Context) error {
	s.closed++
	return nil
}

type sliceRows struct {
	rows [][]any
	pos  int
}

func (r *sliceRows) Next() bool {
	if r.pos >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}

func (r *sliceRows) Values() ([]any, error) { return r.rows[r.pos-1], nil }
func (r *sliceRows) Err() error             { return nil }
func (r *sliceRows) Close()                 {}
