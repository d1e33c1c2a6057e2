package perfdigest

import "time"

// Exit codes. A run whose steps failed still exits 0; only startup
// problems produce a non-zero code.
const (
	ExitSuccess      = 0  // Run completed (individual steps may have been skipped)
	ExitGeneralError = 1  // Unknown or unclassified error
	ExitUsageError   = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic        = 3  // Internal panic (unexpected crash)
	ExitConfigError  = 10 // Invalid configuration
)

const (
	// DefaultConfigFile is looked up in the working directory when --config is not given.
	DefaultConfigFile = "perfdigest.yaml"

	// DefaultTimeout bounds a whole run.
	DefaultTimeout = 30 * time.Minute

	// DefaultConnectTimeout bounds a single database connection attempt.
	DefaultConnectTimeout = 30 * time.Second

	// DefaultWorkDir holds downloads, the rejected-rows file and the chart.
	DefaultWorkDir = "/ebs/perfdigest/genral"

	// DefaultSubject is the report email subject.
	DefaultSubject = "Tabjolt Daily Run Summary"

	// DefaultS3Endpoint is used when the s3 section has no endpoint.
	DefaultS3Endpoint = "s3.amazonaws.com"

	// RejectedFileName receives rows the loader could not parse.
	RejectedFileName = "rejected.txt"

	// ChartFileName is the rendered trend chart.
	ChartFileName = "average_time_graph.png"

	// DryRunFileName receives the composed message when --dry-run is set.
	DryRunFileName = "report.eml"

	// ChartContentID links the inline image to the HTML body.
	ChartContentID = "graph_cid"

	// HighlightThreshold is the percentage difference above which a sample row
	// is rendered in the attention colour. The comparison is strict.
	HighlightThreshold = 20.0
)
