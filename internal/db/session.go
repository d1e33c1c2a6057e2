package db

import (
	"context"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5"

	"github.com/vvka-141/perfdigest/pkg/perfdigest"
)

// Opener implements perfdigest.SessionOpener on top of a Connector.
// Every Open dials a new connection; nothing is pooled between steps.
type Opener struct {
	connector perfdigest.Connector
}

// NewOpener wraps connector.
func NewOpener(connector perfdigest.Connector) *Opener {
	return &Opener{connector: connector}
}

// Open dials one connection and wraps it as a Session.
func (o *Opener) Open(ctx context.Context) (perfdigest.Session, error) {
	conn, err := o.connector.Connect(ctx)
	if err != nil {
		return nil, err
	}
	return &connSession{conn: conn}, nil
}

// Close releases connector resources (the Cloud SQL dialer), if any.
func (o *Opener) Close() error {
	if c, ok := o.connector.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// connSession adapts *pgx.Conn to perfdigest.Session.
type connSession struct {
	conn *pgx.Conn
}

func (s *connSession) Query(ctx context.Context, sql string, args ...any) (perfdigest.Rows, error) {
	rows, err := s.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", err, perfdigest.ErrQueryFailed)
	}
	return rows, nil
}

func (s *connSession) Begin(ctx context.Context) (perfdigest.Transaction, error) {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w: %w", err, perfdigest.ErrQueryFailed)
	}
	return &txAdapter{tx: tx}, nil
}

func (s *connSession) Close(ctx context.Context) error {
	return s.conn.Close(ctx)
}

// txAdapter adapts pgx.Tx to perfdigest.Transaction.
type txAdapter struct {
	tx pgx.Tx
}

// CopyFrom streams r over the transaction's connection with COPY ... FROM STDIN.
func (t *txAdapter) CopyFrom(ctx context.Context, r io.Reader, sql string) (int64, error) {
	tag, err := t.tx.Conn().PgConn().CopyFrom(ctx, r, sql)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (t *txAdapter) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *txAdapter) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

var (
	_ perfdigest.SessionOpener = (*Opener)(nil)
	_ perfdigest.Session       = (*connSession)(nil)
	_ perfdigest.Transaction   = (*txAdapter)(nil)
)
