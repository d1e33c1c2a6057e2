package perfdigest

import (
	"errors"
)

// Sentinel errors for the failure categories of a run.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	err := loader.Load(ctx, spec)
//	if errors.Is(err, perfdigest.ErrFileNotFound) {
//	    // the download for this file did not happen
//	}
var (
	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrCredentials indicates object store credentials are missing or rejected.
	ErrCredentials = errors.New("credentials not available")

	// ErrTransport indicates a download or mail transport failure.
	ErrTransport = errors.New("transport failed")

	// ErrConnectionFailed indicates database connection failed.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrQueryFailed indicates a SQL statement failed.
	ErrQueryFailed = errors.New("query failed")

	// ErrFileNotFound indicates a local input file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrEmptyResult indicates a query returned no rows where some were required.
	ErrEmptyResult = errors.New("empty result")

	// ErrUsage indicates invalid command-line arguments or flags.
	ErrUsage = errors.New("usage error")

	// ErrUnsupportedAuthMethod indicates the requested authentication method is not supported.
	ErrUnsupportedAuthMethod = errors.New("unsupported authentication method")
)

// ExitCodeForError returns the process exit code for a startup error.
// Pipeline step failures are logged by the run service and never reach here.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrInvalidConfig):
		return ExitConfigError
	case errors.Is(err, ErrUnsupportedAuthMethod):
		return ExitConfigError
	case errors.Is(err, ErrUsage):
		return ExitUsageError
	}

	return ExitGeneralError
}
