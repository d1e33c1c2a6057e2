package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/vvka-141/perfdigest/pkg/perfdigest"
)

// StandardConnector implements the Connector interface for standard
// username/password authentication. Each Connect opens a fresh connection;
// there is no pool and no retry.
type StandardConnector struct {
	config *perfdigest.ConnectionConfig
}

// NewStandardConnector creates a new StandardConnector with the given configuration.
func NewStandardConnector(config *perfdigest.ConnectionConfig) *StandardConnector {
	return &StandardConnector{config: config}
}

// Connect opens one connection using standard authentication.
func (c *StandardConnector) Connect(ctx context.Context) (*pgx.Conn, error) {
	return connect(ctx, c.config)
}

// connect parses cfg, dials, and pings. Errors carry ErrConnectionFailed.
func connect(ctx context.Context, cfg *perfdigest.ConnectionConfig) (*pgx.Conn, error) {
	connConfig, err := pgx.ParseConfig(BuildConnectionString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %w: %w", err, perfdigest.ErrConnectionFailed)
	}
	return dial(ctx, connConfig, cfg)
}

func dial(ctx context.Context, connConfig *pgx.ConnConfig, cfg *perfdigest.ConnectionConfig) (*pgx.Conn, error) {
	conn, err := pgx.ConnectConfig(ctx, connConfig)
	if err != nil {
		return nil, wrapConnectionError(err, cfg.Host, cfg.Port, cfg.Database)
	}

	if err := conn.Ping(ctx); err != nil {
		conn.Close(ctx) //nolint:errcheck
		return nil, wrapConnectionError(err, cfg.Host, cfg.Port, cfg.Database)
	}
	return conn, nil
}

// NewConnector is a factory function that creates the appropriate Connector
// based on the ConnectionConfig's AuthMethod.
func NewConnector(config *perfdigest.ConnectionConfig) (perfdigest.Connector, error) {
	switch config.AuthMethod {
	case perfdigest.AuthMethodStandard:
		return NewStandardConnector(config), nil
	case perfdigest.AuthMethodAWSIAM:
		return newAWSConnector(config)
	case perfdigest.AuthMethodGoogleIAM:
		return newGoogleConnector(config)
	case perfdigest.AuthMethodAzureEntraID:
		return newAzureConnector(config)
	default:
		return nil, fmt.Errorf("unsupported auth method %v: %w", config.AuthMethod, perfdigest.ErrUnsupportedAuthMethod)
	}
}

// wrapConnectionError wraps raw pgx connection errors with actionable guidance.
// The result always matches errors.Is(err, perfdigest.ErrConnectionFailed).
func wrapConnectionError(err error, host string, port int, database string) error {
	errStr := strings.ToLower(err.Error())
	addr := fmt.Sprintf("%s:%d", host, port)

	switch {
	case strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "actively refused"):
		return fmt.Errorf(`connection refused to %s

Possible causes:
  - The database server is not running
  - Wrong host or port in the database section
  - Firewall blocking the connection

Original error: %w: %w`, addr, err, perfdigest.ErrConnectionFailed)

	case strings.Contains(errStr, "no such host") || strings.Contains(errStr, "no host"):
		return fmt.Errorf(`cannot resolve host "%s"

Possible causes:
  - Hostname is misspelled
  - DNS is not configured or reachable

Original error: %w: %w`, host, err, perfdigest.ErrConnectionFailed)

	case strings.Contains(errStr, "password authentication failed"):
		return fmt.Errorf(`password authentication failed for database "%s"

Possible causes:
  - Wrong database.password (or the ${VAR} it references is unset)
  - Wrong database.user

Original error: %w: %w`, database, err, perfdigest.ErrConnectionFailed)

	case strings.Contains(errStr, "does not exist"):
		return fmt.Errorf(`database "%s" does not exist

Original error: %w: %w`, database, err, perfdigest.ErrConnectionFailed)

	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "timed out"):
		return fmt.Errorf(`connection timed out to %s

Possible causes:
  - Server is overloaded or unresponsive
  - Firewall silently dropping packets
  - database.connect_timeout too small

Original error: %w: %w`, addr, err, perfdigest.ErrConnectionFailed)

	case strings.Contains(errStr, "ssl") || strings.Contains(errStr, "tls"):
		return fmt.Errorf(`SSL/TLS connection error

Possible causes:
  - Server requires SSL but database.sslmode is wrong
  - Certificate verification failed

Original error: %w: %w`, err, perfdigest.ErrConnectionFailed)

	default:
		return fmt.Errorf("failed to connect to database: %w: %w", err, perfdigest.ErrConnectionFailed)
	}
}

// newAWSConnector creates a token-based connector with the AWS IAM token provider.
func newAWSConnector(config *perfdigest.ConnectionConfig) (perfdigest.Connector, error) {
	endpoint := fmt.Sprintf("%s:%d", config.Host, config.Port)

	tokenProvider, err := NewAWSIAMTokenProvider(endpoint, config.AWSRegion, config.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS IAM token provider: %w", err)
	}

	return NewTokenBasedConnector(config, tokenProvider, "AWS IAM"), nil
}

// newGoogleConnector creates a GoogleCloudSQLConnector for Google Cloud SQL IAM authentication.
func newGoogleConnector(config *perfdigest.ConnectionConfig) (perfdigest.Connector, error) {
	if config.GoogleInstance == "" {
		return nil, fmt.Errorf("Google Cloud SQL IAM auth requires database.google_instance (project:region:instance)")
	}
	if config.Username == "" {
		return nil, fmt.Errorf("Google Cloud SQL IAM auth requires database.user")
	}

	return NewGoogleCloudSQLConnector(config, config.GoogleInstance), nil
}

// newAzureConnector creates a token-based connector with the Azure Entra ID token provider.
// If explicit credentials (tenant, client, secret) are provided, uses Service Principal auth.
// Otherwise, falls back to DefaultAzureCredential chain.
func newAzureConnector(config *perfdigest.ConnectionConfig) (perfdigest.Connector, error) {
	var tokenProvider TokenProvider
	var err error

	if config.AzureTenantID != "" && config.AzureClientID != "" && config.AzureClientSecret != "" {
		tokenProvider, err = NewAzureServicePrincipalProvider(
			config.AzureTenantID,
			config.AzureClientID,
			config.AzureClientSecret,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure Service Principal provider: %w", err)
		}
	} else {
		tokenProvider, err = NewAzureDefaultCredentialProvider()
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure Default Credential provider: %w", err)
		}
	}

	return NewTokenBasedConnector(config, tokenProvider, "Azure"), nil
}
