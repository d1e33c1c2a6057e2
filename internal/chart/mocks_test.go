package chart

import (
	"context"
	"errors"
	"math/big"

	"github.com/vvka-141/perfdigest/pkg/perfdigest"
)

func bigInt(v int64) *big.Int { return big.NewInt(v) }

type mockOpener struct {
	session *mockSession
	err     error
}

func (o *mockOpener) Open(ctx context.Context) (perfdigest.Session, error) {
	if o.err != nil {
		return nil, o.err
	}
	return o.session, nil
}

type mockSession struct {
	rows   [][]any
	query  string
	closed bool
}

func (s *mockSession) Query(ctx context.Context, sql string, args ...any) (perfdigest.Rows, error) {
	s.query = sql
	return &sliceRows{rows: s.rows}, nil
}

func (s *mockSession) Begin(ctx context.Context) (perfdigest.Transaction, error) {
	return nil, errors.New("not supported")
}

func (s *mockSession) Close(ctx context.Context) error {
	s.closed = true
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
