package db

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vvka-141/perfdigest/pkg/perfdigest"
)

// ParseConnectionString turns a PostgreSQL URL or key/value DSN into a
// standard-auth ConnectionConfig. Missing sslmode defaults to "prefer".
func ParseConnectionString(connStr string) (*perfdigest.ConnectionConfig, error) {
	if strings.TrimSpace(connStr) == "" {
		return nil, fmt.Errorf("%w: empty connection string", perfdigest.ErrInvalidConfig)
	}

	pc, err := pgconn.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("invalid connection string: %w: %w", err, perfdigest.ErrInvalidConfig)
	}

	cfg := &perfdigest.ConnectionConfig{
		Host:           pc.Host,
		Port:           int(pc.Port),
		Database:       pc.Database,
		Username:       pc.User,
		Password:       pc.Password,
		SSLMode:        sslModeOf(connStr),
		AuthMethod:     perfdigest.AuthMethodStandard,
		AppName:        pc.RuntimeParams["application_name"],
		ConnectTimeout: pc.ConnectTimeout,
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = perfdigest.DefaultConnectTimeout
	}
	return cfg, nil
}

// sslModeOf extracts sslmode, which pgconn folds into its TLS settings.
func sslModeOf(connStr string) string {
	for _, sep := range []string{"sslmode=", "sslmode ="} {
		if i := strings.Index(connStr, sep); i >= 0 {
			rest := strings.TrimLeft(connStr[i+len(sep):], " ")
			end := strings.IndexAny(rest, " &")
			if end < 0 {
				end = len(rest)
			}
			if v := rest[:end]; v != "" {
				return v
			}
		}
	}
	return "prefer"
}
