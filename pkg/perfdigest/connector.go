package perfdigest

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Connector is a unified interface for establishing database connections.
// Different implementations handle various authentication methods
// (standard credentials, cloud IAM tokens, Cloud SQL dialer).
type Connector interface {
	// Connect opens a single dedicated connection.
	// The caller closes it when the operation is done.
	Connect(ctx context.Context) (*pgx.Conn, error)
}
