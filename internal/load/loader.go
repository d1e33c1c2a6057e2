// Package load bulk-copies delimited result files into database tables.
//
// Each file is loaded on its own connection inside one transaction. Rows whose
// field count does not match the table are written to a shared rejected-rows
// file and left out of the COPY. Quote characters are ordinary data.
package load

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"

	"github.com/vvka-141/perfdigest/pkg/perfdigest"
)

// Result describes one completed load.
type Result struct {
	Table    string
	Copied   int64
	Rejected int
}

// Loader loads files through sessions from opener.
type Loader struct {
	opener       perfdigest.SessionOpener
	rejectedPath string
	logger       perfdigest.Logger

	rejectedReset bool
}

// New creates a Loader writing rejected rows to rejectedPath.
func New(opener perfdigest.SessionOpener, rejectedPath string, logger perfdigest.Logger) *Loader {
	return &Loader{
		opener:       opener,
		rejectedPath: rejectedPath,
		logger:       logger,
	}
}

// Load copies spec.FilePath into spec.Table.
//
// A missing file returns perfdigest.ErrFileNotFound before any connection is
// opened. A COPY failure rolls the transaction back and returns
// perfdigest.ErrQueryFailed. The connection is closed in every case.
func (l *Loader) Load(ctx context.Context, spec perfdigest.LoadSpec) (*Result, error) {
	if !validDelimiter(spec.Delimiter) {
		return nil, fmt.Errorf("%w: delimiter %q for %s", perfdigest.ErrInvalidConfig, spec.Delimiter, spec.Table)
	}
	if _, err := os.Stat(spec.FilePath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", spec.FilePath, perfdigest.ErrFileNotFound)
		}
		return nil, fmt.Errorf("stat %s: %w", spec.FilePath, err)
	}

	session, err := l.opener.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := session.Close(ctx); cerr != nil {
			l.logger.Verbose("Closing connection after loading %s: %v", spec.Table, cerr)
		}
	}()

	columns, err := columnCount(ctx, session, spec.Table)
	if err != nil {
		return nil, err
	}

	data, rejected, err := l.prepare(spec, columns)
	if err != nil {
		return nil, err
	}
	if rejected > 0 {
		l.logger.Info("%d malformed row(s) from %s written to %s", rejected, spec.FilePath, l.rejectedPath)
	}

	tx, err := session.Begin(ctx)
	if err != nil {
		return nil, err
	}

	copied, err := tx.CopyFrom(ctx, data, copyStatement(spec))
	if err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			l.logger.Error("Rollback of %s failed: %v", spec.Table, rbErr)
		}
		return nil, fmt.Errorf("copy %s into %s: %w: %w", spec.FilePath, spec.Table, err, perfdigest.ErrQueryFailed)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit %s: %w: %w", spec.Table, err, perfdigest.ErrQueryFailed)
	}

	l.logger.Info("Loaded %d row(s) from %s into %s", copied, spec.FilePath, spec.Table)
	return &Result{Table: spec.Table, Copied: copied, Rejected: rejected}, nil
}

const columnCountSQL = `SELECT count(*) FROM pg_catalog.pg_attribute
WHERE attrelid = $1::regclass AND attnum > 0 AND NOT attisdropped`

func columnCount(ctx context.Context, session perfdigest.Session, table string) (int, error) {
	rows, err := session.Query(ctx, columnCountSQL, table)
	if err != nil {
		return 0, fmt.Errorf("describe %s: %w", table, err)
	}
	values, err := perfdigest.CollectRows(rows)
	if err != nil {
		return 0, fmt.Errorf("describe %s: %w: %w", table, err, perfdigest.ErrQueryFailed)
	}
	if len(values) == 0 || len(values[0]) == 0 {
		return 0, fmt.Errorf("describe %s: no column count: %w", table, perfdigest.ErrQueryFailed)
	}
	n, ok := perfdigest.ToFloat(values[0][0])
	if !ok || n < 1 {
		return 0, fmt.Errorf("describe %s: table has no columns: %w", table, perfdigest.ErrQueryFailed)
	}
	return int(n), nil
}

// prepare splits the file into COPY input and rejected lines.
func (l *Loader) prepare(spec perfdigest.LoadSpec, columns int) (io.Reader, int, error) {
	f, err := os.Open(spec.FilePath)
	if err != nil {
		return nil, 0, fmt.Errorf("open %s: %w", spec.FilePath, err)
	}
	defer f.Close()

	rejects, err := l.openRejected()
	if err != nil {
		return nil, 0, err
	}
	defer rejects.Close()

	var (
		valid    bytes.Buffer
		rejected int
		first    = true
	)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if first {
			first = false
			if spec.SkipHeader {
				continue
			}
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		if !wellFormed(line, spec.Delimiter, columns) {
			rejected++
			if _, err := fmt.Fprintln(rejects, line); err != nil {
				return nil, 0, fmt.Errorf("write %s: %w", l.rejectedPath, err)
			}
			continue
		}
		valid.WriteString(line)
		valid.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read %s: %w", spec.FilePath, err)
	}

	return &valid, rejected, nil
}

// openRejected truncates the rejected-rows file on the first load of the
// Loader and appends afterwards.
func (l *Loader) openRejected() (*os.File, error) {
	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if !l.rejectedReset {
		flags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	}
	f, err := os.OpenFile(l.rejectedPath, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open rejected rows file: %w", err)
	}
	l.rejectedReset = true
	return f, nil
}

// noQuote is the COPY quote character. It never appears in result files, so
// '"' loads verbatim.
const noQuote = '\x01'

func validDelimiter(r rune) bool {
	return r != 0 && r != noQuote && r != '"' && r != '\r' && r != '\n' && r != utf8.RuneError
}

func wellFormed(line string, delimiter rune, columns int) bool {
	return strings.Count(line, string(delimiter))+1 == columns
}

func copyStatement(spec perfdigest.LoadSpec) string {
	delim := strings.ReplaceAll(string(spec.Delimiter), "'", "''")
	return fmt.Sprintf(`COPY %s FROM STDIN (FORMAT csv, DELIMITER '%s', QUOTE E'\x01')`, quoteTable(spec.Table), delim)
}

func quoteTable(table string) string {
	return pgx.Identifier(strings.Split(table, ".")).Sanitize()
}
