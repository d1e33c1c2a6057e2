// Package failure maps errors raised anywhere in a run onto the failure
// categories used in log lines: credentials, transport, connection, query,
// missing file and empty result.
package failure
