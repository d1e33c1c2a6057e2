package load

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/perfdigest/internal/logging"
	"github.com/vvka-141/perfdigest/pkg/perfdigest"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestLoader(opener perfdigest.SessionOpener, dir string) *Loader {
	return New(opener, filepath.Join(dir, perfdigest.RejectedFileName), logging.NewNullLogger())
}

func TestLoad_MissingFileOpensNothing(t *testing.T) {
	dir := t.TempDir()
	opener := &mockOpener{session: &mockSession{columns: 2, tx: &mockTx{}}}
	loader := newTestLoader(opener, dir)

	_, err := loader.Load(context.Background(), perfdigest.LoadSpec{
		FilePath: filepath.Join(dir, "absent.csv"), Table: "perf.summary", Delimiter: ',', SkipHeader: true,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, perfdigest.ErrFileNotFound)
	assert.Equal(t, 0, opener.opened)
}

func TestLoad_SkipsHeaderAndCommits(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "summary.csv", "label|value\nAvg|1500\nMax|2300\n")
	tx := &mockTx{}
	session := &mockSession{columns: 2, tx: tx}
	loader := newTestLoader(&mockOpener{session: session}, dir)

	res, err := loader.Load(context.Background(), perfdigest.LoadSpec{
		FilePath: path, Table: "perf.summary", Delimiter: '|', SkipHeader: true,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Copied)
	assert.Equal(t, 0, res.Rejected)
	assert.Equal(t, "Avg|1500\nMax|2300\n", tx.copied)
	assert.Equal(t, `COPY "perf"."summary" FROM STDIN (FORMAT csv, DELIMITER '|', QUOTE E'\x01')`, tx.copySQL)
	assert.True(t, tx.committed)
	assert.False(t, tx.rolledBack)
	assert.True(t, session.closed)
}

func TestLoad_KeepsFirstLineWithoutSkipHeader(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "detail.csv", "a,b\nc,d\n")
	tx := &mockTx{}
	loader := newTestLoader(&mockOpener{session: &mockSession{columns: 2, tx: tx}}, dir)

	_, err := loader.Load(context.Background(), perfdigest.LoadSpec{FilePath: path, Table: "detail", Delimiter: ','})

	require.NoError(t, err)
	assert.Equal(t, "a,b\nc,d\n", tx.copied)
}

func TestLoad_MalformedRowsGoToRejectedFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "summary.csv", "h1,h2,h3\n1,2,3\n4,5\n6,\"7,8\n9,10,11\n")
	tx := &mockTx{}
	loader := newTestLoader(&mockOpener{session: &mockSession{columns: 3, tx: tx}}, dir)

	res, err := loader.Load(context.Background(), perfdigest.LoadSpec{
		FilePath: path, Table: "summary", Delimiter: ',', SkipHeader: true,
	})

	require.NoError(t, err)
	assert.Equal(t, 2, res.Rejected)
	assert.Equal(t, "1,2,3\n9,10,11\n", tx.copied)

	rejected, err := os.ReadFile(filepath.Join(dir, perfdigest.RejectedFileName))
	require.NoError(t, err)
	assert.Equal(t, "4,5\n6,\"7,8\n", string(rejected))
}

func TestLoad_RejectedFileTruncatedOncePerLoader(t *testing.T) {
	dir := t.TempDir()
	rejectedPath := writeFile(t, dir, perfdigest.RejectedFileName, "stale\n")
	a := writeFile(t, dir, "a.csv", "1\n1,2\n")
	b := writeFile(t, dir, "b.csv", "3,4,5\n")

	loader := newTestLoader(&mockOpener{session: &mockSession{columns: 1, tx: &mockTx{}}}, dir)
	for _, p := range []string{a, b} {
		_, err := loader.Load(context.Background(), perfdigest.LoadSpec{FilePath: p, Table: "t", Delimiter: ','})
		require.NoError(t, err)
	}

	rejected, err := os.ReadFile(rejectedPath)
	require.NoError(t, err)
	assert.Equal(t, "1,2\n3,4,5\n", string(rejected))
}

func TestLoad_CopyFailureRollsBack(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "summary.csv", "h\nx\n")
	copyErr := errors.New(`invalid input syntax for type integer: "x"`)
	tx := &mockTx{copyErr: copyErr}
	session := &mockSession{columns: 1, tx: tx}
	loader := newTestLoader(&mockOpener{session: session}, dir)

	_, err := loader.Load(context.Background(), perfdigest.LoadSpec{
		FilePath: path, Table: "summary", Delimiter: ',', SkipHeader: true,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, perfdigest.ErrQueryFailed)
	assert.ErrorIs(t, err, copyErr)
	assert.True(t, tx.rolledBack)
	assert.False(t, tx.committed)
	assert.True(t, session.closed)
}

func TestLoad_ConnectionFailureAttemptsNoCommit(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "summary.csv", "h\n1\n")
	tx := &mockTx{}
	opener := &mockOpener{
		session: &mockSession{columns: 1, tx: tx},
		err:     perfdigest.ErrConnectionFailed,
	}
	loader := newTestLoader(opener, dir)

	_, err := loader.Load(context.Background(), perfdigest.LoadSpec{FilePath: path, Table: "summary", Delimiter: ','})

	require.Error(t, err)
	assert.ErrorIs(t, err, perfdigest.ErrConnectionFailed)
	assert.False(t, tx.committed)
	assert.False(t, tx.rolledBack)
}

func TestLoad_DescribeFailureClosesSession(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "summary.csv", "1\n")
	session := &mockSession{queryErr: perfdigest.ErrQueryFailed, tx: &mockTx{}}
	loader := newTestLoader(&mockOpener{session: session}, dir)

	_, err := loader.Load(context.Background(), perfdigest.LoadSpec{FilePath: path, Table: "missing", Delimiter: ','})

	assert.ErrorIs(t, err, perfdigest.ErrQueryFailed)
	assert.True(t, session.closed)
	assert.False(t, session.tx.committed)
}

func TestLoad_TabDelimitedQuotesAreData(t *testing.T) {
	dir := t.TempDir()
	body := "w1\t\"Sheet 1\"\t12\nw2\tsize 5\"\t7\n"
	path := writeFile(t, dir, "wincounter.tsv", body)
	tx := &mockTx{}
	session := &mockSession{columns: 3, tx: tx}
	loader := newTestLoader(&mockOpener{session: session}, dir)

	res, err := loader.Load(context.Background(), perfdigest.LoadSpec{
		FilePath: path, Table: "tabjolt.wincounter", Delimiter: '\t',
	})

	require.NoError(t, err)
	assert.Equal(t, 0, res.Rejected)
	assert.Equal(t, body, tx.copied)
	assert.Equal(t, "COPY \"tabjolt\".\"wincounter\" FROM STDIN (FORMAT csv, DELIMITER '\t', QUOTE E'\\x01')", tx.copySQL)
}

func TestLoad_InvalidDelimiter(t *testing.T) {
	loader := newTestLoader(&mockOpener{}, t.TempDir())
	_, err := loader.Load(context.Background(), perfdigest.LoadSpec{FilePath: "x", Table: "t", Delimiter: '"'})
	assert.ErrorIs(t, err, perfdigest.ErrInvalidConfig)
}

func TestWellFormed(t *testing.T) {
	tests := []struct {
		line    string
		columns int
		want    bool
	}{
		{"a|b|c", 3, true},
		{"a|b", 3, false},
		{`"a|b"|c`, 2, false},
		{`"a|b"|c`, 3, true},
		{`a|"b`, 2, true},
		{"a|b|c|d", 3, false},
		{"a||", 3, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, wellFormed(tt.line, '|', tt.columns), tt.line)
	}
}

func TestQuoteTable(t *testing.T) {
	assert.Equal(t, `"tabjolt_summary"`, quoteTable("tabjolt_summary"))
	assert.Equal(t, `"perf"."detail"`, quoteTable("perf.detail"))
}
