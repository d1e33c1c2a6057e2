// Package logging provides concrete implementations of the perfdigest.Logger interface.
//
// Available implementations:
//   - ConsoleLogger: zap console encoder writing to stdout, coloured levels on a terminal
//   - NullLogger: Discards all messages (useful for testing)
//
// All logger implementations are safe for concurrent use by multiple goroutines.
package logging
