package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vvka-141/perfdigest/pkg/perfdigest"
)

// TokenBasedConnector implements the Connector interface for cloud providers
// that authenticate via short-lived tokens (AWS IAM, Azure Entra ID).
// The token is acquired from a TokenProvider and used as the database password.
type TokenBasedConnector struct {
	config        *perfdigest.ConnectionConfig
	tokenProvider TokenProvider
	providerName  string
	warn          func(format string, args ...interface{})
}

// NewTokenBasedConnector creates a connector that uses a TokenProvider for authentication.
// providerName is used in error/warning messages (e.g., "AWS IAM", "Azure").
func NewTokenBasedConnector(config *perfdigest.ConnectionConfig, tokenProvider TokenProvider, providerName string) *TokenBasedConnector {
	return &TokenBasedConnector{
		config:        config,
		tokenProvider: tokenProvider,
		providerName:  providerName,
		warn:          func(string, ...interface{}) {},
	}
}

// WithLogger routes token expiry warnings to logger.
func (c *TokenBasedConnector) WithLogger(logger perfdigest.Logger) *TokenBasedConnector {
	c.warn = logger.Info
	return c
}

// Connect acquires a fresh token and opens one connection with it.
func (c *TokenBasedConnector) Connect(ctx context.Context) (*pgx.Conn, error) {
	token, expiresOn, err := c.tokenProvider.GetToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire %s token: %w: %w", c.providerName, err, perfdigest.ErrConnectionFailed)
	}

	if time.Until(expiresOn) < 5*time.Minute {
		c.warn("Warning: %s token expires in %v", c.providerName, time.Until(expiresOn).Round(time.Second))
	}

	configWithToken := *c.config
	configWithToken.Password = token

	return connect(ctx, &configWithToken)
}
