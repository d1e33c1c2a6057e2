package perfdigest

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// ConnectionConfig represents resolved database connection parameters.
type ConnectionConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	// AuthMethod indicates the authentication mechanism to use
	AuthMethod AuthMethod

	AppName        string
	ConnectTimeout time.Duration

	// AWSRegion is required when AuthMethod is AuthMethodAWSIAM.
	AWSRegion string

	// GoogleInstance is the Cloud SQL instance connection name (project:region:instance).
	GoogleInstance string

	// Azure Entra ID authentication parameters (used when AuthMethod is AuthMethodAzureEntraID)
	// If all three are provided, Service Principal authentication is used.
	// If none are provided, DefaultAzureCredential chain is used (env vars, managed identity, CLI, etc.)
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string
}

// AuthMethod represents the type of authentication to use.
type AuthMethod int

const (
	AuthMethodStandard     AuthMethod = iota // Username/Password
	AuthMethodAWSIAM                         // AWS IAM Database Authentication
	AuthMethodGoogleIAM                      // Google Cloud SQL IAM
	AuthMethodAzureEntraID                   // Azure Active Directory (Entra ID)
)

// String returns a human-readable string representation of the AuthMethod.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodStandard:
		return "Standard"
	case AuthMethodAWSIAM:
		return "AWS IAM"
	case AuthMethodGoogleIAM:
		return "Google IAM"
	case AuthMethodAzureEntraID:
		return "Azure Entra ID"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// ParseAuthMethod maps the configuration spelling of an auth method.
// An empty string selects AuthMethodStandard.
func ParseAuthMethod(s string) (AuthMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "standard", "password":
		return AuthMethodStandard, nil
	case "aws", "aws_iam":
		return AuthMethodAWSIAM, nil
	case "google", "google_iam":
		return AuthMethodGoogleIAM, nil
	case "azure", "azure_entra_id":
		return AuthMethodAzureEntraID, nil
	default:
		return 0, fmt.Errorf("auth method %q: %w", s, ErrUnsupportedAuthMethod)
	}
}

// TransferItem names one object to download and where to put it.
type TransferItem struct {
	Key       string
	LocalPath string
}

// LoadSpec describes one bulk load of a local delimited file.
type LoadSpec struct {
	FilePath   string
	Table      string
	Delimiter  rune
	SkipHeader bool
}

// LabeledQuery pairs a single-column query with the label shown in the report.
type LabeledQuery struct {
	SQL   string
	Label string
}

// QueryResult is the ordered rows of one labeled query.
type QueryResult struct {
	Label string
	Rows  [][]any
}

// Block renders the label followed by the first column of every row,
// one value per line, in result order.
func (r QueryResult) Block() string {
	var b strings.Builder
	b.WriteString(r.Label)
	b.WriteByte('\n')
	for _, row := range r.Rows {
		if len(row) == 0 {
			b.WriteByte('\n')
			continue
		}
		b.WriteString(FormatValue(row[0]))
		b.WriteByte('\n')
	}
	return b.String()
}

// FirstValue returns the first column of the first row, or "" when empty.
func (r QueryResult) FirstValue() string {
	if len(r.Rows) == 0 || len(r.Rows[0]) == 0 {
		return ""
	}
	return FormatValue(r.Rows[0][0])
}

// ComparisonRow is one line of the above-average or below-average queries.
type ComparisonRow struct {
	AvgElapsedMs     float64
	CurrentElapsedMs float64
	ResponseMessage  string

	// PercentageDifference is nil when the baseline average is zero.
	PercentageDifference *float64
}

// Highlighted reports whether the row exceeds HighlightThreshold.
// A missing percentage is never highlighted.
func (c ComparisonRow) Highlighted() bool {
	return c.PercentageDifference != nil && *c.PercentageDifference > HighlightThreshold
}

// DecodeComparisonRow reads (avg, current, message, percentage) positionally.
func DecodeComparisonRow(values []any) (ComparisonRow, error) {
	if len(values) != 4 {
		return ComparisonRow{}, fmt.Errorf("comparison row has %d columns, want 4", len(values))
	}

	var row ComparisonRow
	var ok bool
	if row.AvgElapsedMs, ok = ToFloat(values[0]); !ok && values[0] != nil {
		return ComparisonRow{}, fmt.Errorf("avg_elapsed_ms: unexpected value %v", values[0])
	}
	if row.CurrentElapsedMs, ok = ToFloat(values[1]); !ok && values[1] != nil {
		return ComparisonRow{}, fmt.Errorf("current_elapsed_ms: unexpected value %v", values[1])
	}
	row.ResponseMessage = FormatValue(values[2])
	if pct, ok := ToFloat(values[3]); ok {
		row.PercentageDifference = &pct
	}
	return row, nil
}

// RunSummary counts what happened during one run.
type RunSummary struct {
	Fetched       int
	FetchFailed   int
	Loaded        int
	LoadSkipped   int
	LoadFailed    int
	QueriesFailed int
	ChartPath     string
	MailSent      bool
}

// FormatValue renders a database scalar the way it appears in the report.
// NULL renders as an empty string.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case time.Time:
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
			return t.Format("2006-01-02")
		}
		return t.Format("2006-01-02 15:04:05")
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case pgtype.Numeric:
		f, err := t.Float64Value()
		if err != nil || !f.Valid {
			return ""
		}
		return strconv.FormatFloat(f.Float64, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// ToFloat converts numeric database values to float64.
func ToFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case pgtype.Numeric:
		f, err := t.Float64Value()
		if err != nil || !f.Valid {
			return 0, false
		}
		return f.Float64, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
