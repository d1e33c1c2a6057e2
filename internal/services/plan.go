package services

import (
	"path/filepath"

	"github.com/vvka-141/perfdigest/pkg/perfdigest"
)

// Plan is the fixed list of objects to download and files to load.
type Plan struct {
	Transfers []perfdigest.TransferItem
	Loads     []perfdigest.LoadSpec
}

type planEntry struct {
	key       string
	table     string
	delimiter rune
}

var tabjoltFiles = []planEntry{
	{key: "wincounter.tsv", table: "tabjolt.wincounter", delimiter: '\t'},
	{key: "summary_line.csv", table: "tabjolt.summary_line", delimiter: ','},
	{key: "thread_details.csv", table: "tabjolt.thread_details", delimiter: '\t'},
	{key: "modified_workbook.csv", table: "tabjolt.performance_samples", delimiter: ','},
}

// DefaultPlan places every Tabjolt output file under workDir. Files are
// loaded without skipping a header line.
func DefaultPlan(workDir string) Plan {
	var p Plan
	for _, e := range tabjoltFiles {
		local := filepath.Join(workDir, e.key)
		p.Transfers = append(p.Transfers, perfdigest.TransferItem{Key: e.key, LocalPath: local})
		p.Loads = append(p.Loads, perfdigest.LoadSpec{FilePath: local, Table: e.table, Delimiter: e.delimiter})
	}
	return p
}
