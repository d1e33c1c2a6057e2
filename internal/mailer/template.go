package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"github.com/vvka-141/perfdigest/pkg/perfdigest"
)

//go:embed templates/report.html.tmpl
var templateFS embed.FS

var reportTemplate = template.Must(
	template.New("report.html.tmpl").Funcs(template.FuncMap{
		"trim":    strings.TrimSpace,
		"value":   perfdigest.FormatValue,
		"ms":      formatMs,
		"percent": formatPercent,
	}).ParseFS(templateFS, "templates/report.html.tmpl"),
)

// Report is everything the HTML body shows. A section whose query failed is
// left nil and renders as an empty table.
type Report struct {
	Subject      string
	Summary      []perfdigest.QueryResult
	AboveAverage []perfdigest.ComparisonRow
	Detail       [][]any
	BelowAverage []perfdigest.ComparisonRow
}

// RenderHTML executes the report template.
func RenderHTML(r Report) ([]byte, error) {
	data := struct {
		Report
		ContentID string
	}{Report: r, ContentID: perfdigest.ChartContentID}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return buf.Bytes(), nil
}

// formatMs prints whole values without decimals and fractions with two.
func formatMs(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatPercent(p *float64) string {
	if p == nil {
		return ""
	}
	return fmt.Sprintf("%.2f%%", *p)
}
