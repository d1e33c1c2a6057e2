package failure

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vvka-141/perfdigest/pkg/perfdigest"
)

// Category is a failure class of the pipeline.
type Category string

const (
	CategoryNone        Category = ""
	CategoryCredentials Category = "credentials"
	CategoryTransport   Category = "transport"
	CategoryConnection  Category = "connection"
	CategoryQuery       Category = "query"
	CategoryMissingFile Category = "missing-file"
	CategoryEmptyResult Category = "empty-result"
	CategoryConfig      Category = "config"
	CategoryCanceled    Category = "canceled"
	CategoryUnknown     Category = "unknown"
)

// Classify determines the Category of err. Sentinels from pkg/perfdigest
// win; otherwise PostgreSQL SQLSTATE classes and net errors decide.
func Classify(err error) Category {
	if err == nil {
		return CategoryNone
	}

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return CategoryCanceled
	case errors.Is(err, perfdigest.ErrInvalidConfig), errors.Is(err, perfdigest.ErrUnsupportedAuthMethod):
		return CategoryConfig
	case errors.Is(err, perfdigest.ErrCredentials):
		return CategoryCredentials
	case errors.Is(err, perfdigest.ErrFileNotFound):
		return CategoryMissingFile
	case errors.Is(err, perfdigest.ErrEmptyResult):
		return CategoryEmptyResult
	case errors.Is(err, perfdigest.ErrConnectionFailed):
		return CategoryConnection
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return classifyPgError(pgErr)
	}

	if errors.Is(err, perfdigest.ErrQueryFailed) {
		return CategoryQuery
	}
	if errors.Is(err, perfdigest.ErrTransport) || isNetworkError(err) {
		return CategoryTransport
	}
	return CategoryUnknown
}

// classifyPgError maps SQLSTATE classes.
// See: https://www.postgresql.org/docs/current/errcodes-appendix.html
func classifyPgError(pgErr *pgconn.PgError) Category {
	code := pgErr.Code

	switch {
	// Class 08 - Connection Exception, Class 57 - Operator Intervention
	case strings.HasPrefix(code, "08"), strings.HasPrefix(code, "57"):
		return CategoryConnection
	// Class 28 - Invalid Authorization Specification
	case strings.HasPrefix(code, "28"):
		return CategoryCredentials
	default:
		return CategoryQuery
	}
}

// isNetworkError checks for network-level errors.
func isNetworkError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"connection refused",
		"connection reset",
		"no such host",
		"network is unreachable",
		"i/o timeout",
		"broken pipe",
		"unexpected eof",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
