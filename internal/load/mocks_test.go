package load

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

type mockSession struct {
	columns  int64
	queryErr error
	tx       *mockTx
	beginErr error
	closed   bool
}

func (s *mockSession) Query(ctx context.Context, sql string, args ...any) (perfdigest.Rows, error) {
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	return &sliceRows{rows: [][]any{{s.columns}}}, nil
}

func (s *mockSession) Begin(ctx context.Context) (perfdigest.Transaction, error) {
	if s.beginErr != nil {
		return nil, s.beginErr
	}
	return s.tx, nil
}

func (s *mockSession) Close(ctx context.Context) error {
	s.closed = true
	return nil
}

type mockTx struct {
	copyErr    error
	copied     string
	copySQL    string
	committed  bool
	rolledBack bool
}

func (t *mockTx) CopyFrom(ctx context.Context, r io.Reader, sql string) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	t.copied = string(data)
	t.copySQL = sql
	if t.copyErr != nil {
		return 0, t.copyErr
	}
	var n int64
	for _, b := range data {
		if b == '\n' {
			n++
		}
	}
	return n, nil
}

func (t *mockTx) Commit(ctx context.Context) error {
	t.committed = true
	return nil
}

func (t *mockTx) Rollback(ctx context.Context) error {
	t.rolledBack = true
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
