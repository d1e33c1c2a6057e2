package report

import "github.com/vvka-141/perfdigest/pkg/perfdigest"

// Casts in the sample queries are guarded with CASE because PostgreSQL does
// not promise to evaluate the regex filter before the cast.
const (
	numericTimestamp = `CASE WHEN timestamp_ms ~ '^[0-9]+$' THEN to_timestamp(timestamp_ms::bigint / 1000) END`
	numericElapsed   = `CASE WHEN elapsed_time_ms ~ '^[0-9]+$' THEN elapsed_time_ms::int END`
	siteMessages     = `response_message ILIKE '%site%' AND response_message NOT ILIKE '%null%'`
)

// SummaryQueries are the labeled single-value queries of the metric table,
// in display order.
var SummaryQueries = []perfdigest.LabeledQuery{
	{
		SQL:   `SELECT summary_value FROM tabjolt.summary_line WHERE summary_timestamp = CURRENT_DATE AND summary_metrix = 'Avg'`,
		Label: "Average time taken for tabjolt run (values are in ms):",
	},
	{
		SQL:   `SELECT summary_value FROM tabjolt.summary_line WHERE summary_timestamp = CURRENT_DATE AND summary_metrix = 'Max'`,
		Label: "Maximum time taken for tabjolt run (values are in ms):",
	},
	{
		SQL:   `SELECT summary_value FROM tabjolt.summary_line WHERE summary_timestamp = CURRENT_DATE AND summary_metrix = 'Min'`,
		Label: "Minimum time taken for tabjolt run (values are in ms):",
	},
	{
		SQL:   `SELECT max(summary_timestamp) FROM tabjolt.wincounter`,
		Label: "Tabjolt test cases executed at ",
	},
	{
		SQL:   `SELECT CAST(AVG(summary_value) AS INTEGER) AS average_summary_value FROM tabjolt.summary_line WHERE summary_metrix = 'Avg'`,
		Label: "Average Historic time taken for tabjolt run (values are in ms):",
	},
}

// DetailQuery lists today's site samples, slowest first.
const DetailQuery = `SELECT ` + numericElapsed + ` AS elapsed_time,
       latency_time_ms, success_indicator, request_label, response_message
FROM tabjolt.performance_samples
WHERE timestamp_ms ~ '^[0-9]+$'
  AND ` + numericTimestamp + ` >= CURRENT_DATE
  AND ` + siteMessages + `
ORDER BY elapsed_time DESC`

// comparison joins each site's historic average with its samples since the
// given lower bound.
func comparison(since string) string {
	return `SELECT avg_elapsed_ms, current_elapsed_ms, response_message,
       CASE WHEN avg_elapsed_ms = 0 THEN NULL
            ELSE ((current_elapsed_ms - avg_elapsed_ms) / avg_elapsed_ms) * 100.0
       END AS percentage_difference
FROM (
    SELECT aa.avg_elapsed_ms, bb.current_elapsed_ms::float8 AS current_elapsed_ms, bb.response_message
    FROM (
        SELECT AVG(` + numericElapsed + `)::float8 AS avg_elapsed_ms, response_message AS response
        FROM tabjolt.performance_samples
        WHERE elapsed_time_ms ~ '^[0-9]+$' AND ` + siteMessages + `
        GROUP BY response_message
    ) aa
    LEFT OUTER JOIN (
        SELECT ` + numericElapsed + ` AS current_elapsed_ms, response_message
        FROM tabjolt.performance_samples
        WHERE timestamp_ms ~ '^[0-9]+$'
          AND elapsed_time_ms ~ '^[0-9]+$'
          AND ` + numericTimestamp + ` >= ` + since + `
          AND ` + siteMessages + `
    ) bb ON aa.response = bb.response_message
) ll`
}

// AboveAverageQuery compares today's samples with each site's average and
// keeps the slower ones.
var AboveAverageQuery = comparison("CURRENT_DATE") + `
WHERE avg_elapsed_ms < current_elapsed_ms
ORDER BY percentage_difference DESC`

// BelowAverageQuery compares the last three days with each site's average and
// keeps samples more than 40 percent faster.
var BelowAverageQuery = `SELECT avg_elapsed_ms, current_elapsed_ms, response_message, percentage_difference
FROM (` + comparison("CURRENT_DATE - interval '3 days'") + `
    WHERE avg_elapsed_ms > current_elapsed_ms
) fin
WHERE percentage_difference < -40.0
ORDER BY percentage_difference DESC`
