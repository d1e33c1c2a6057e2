package perfdigest

import (
	"context"
	"io"
)

// Session is one scoped database connection. Every pipeline step that talks to
// the database opens its own Session and closes it before returning.
type Session interface {
	// Query runs a read-only statement and returns its rows.
	Query(ctx context.Context, sql string, args ...any) (Rows, error)

	// Begin starts a transaction on this connection.
	Begin(ctx context.Context) (Transaction, error)

	// Close releases the underlying connection.
	Close(ctx context.Context) error
}

// Transaction is the subset of transaction operations the loader needs.
type Transaction interface {
	// CopyFrom streams r into the server using the given COPY ... FROM STDIN statement.
	CopyFrom(ctx context.Context, r io.Reader, sql string) (int64, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Rows is a forward-only cursor over a result set. pgx.Rows satisfies it.
type Rows interface {
	Next() bool
	Values() ([]any, error)
	Err() error
	Close()
}

// SessionOpener opens a new Session for each call.
type SessionOpener interface {
	Open(ctx context.Context) (Session, error)
}

// CollectRows drains rows into a slice of value rows and closes the cursor.
func CollectRows(rows Rows) ([][]any, error) {
	defer rows.Close()

	var out [][]any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		out = append(out, values)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
