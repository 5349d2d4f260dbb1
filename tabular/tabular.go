// SPDX-License-Identifier: MIT

// Package tabular streams CSV data through per-row hooks. Copy reads
// records from a source, passes each data row to a hook that may rewrite,
// skip or abort it, and writes the survivors to a destination. Records are
// processed one at a time, so memory use stays flat regardless of input
// size.
package tabular

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/oleg578/swiftcsv"
)

var (
	// ErrSkipRow tells Copy to drop the current row from the output.
	ErrSkipRow = errors.New("skip row")

	// ErrStop tells Copy to end the stream early without error. Rows
	// written so far stay written.
	ErrStop = errors.New("stop streaming")
)

// Row is one data record in flight between reader and writer.
type Row struct {
	// Line is the physical line the record started on, counting the header.
	// Quoted fields with embedded newlines advance subsequent lines.
	Line int
	// Index is the 0-based position among data records.
	Index int
	// Fields holds the record's values. Hooks may modify them in place or
	// replace the slice.
	Fields []string
}

// Hook inspects or rewrites a row between read and write. Returning
// ErrSkipRow drops the row, ErrStop ends the copy cleanly, any other error
// aborts it.
type Hook func(ctx context.Context, row *Row) error

// HeaderHook sees the header record before any data row and may rewrite it.
type HeaderHook func(header []string) error

// RowError ties a failure to the row that caused it.
type RowError struct {
	// Line is the physical line of the failing record.
	Line int
	// Row is the 0-based data row index, -1 for the header.
	Row int
	Err error
}

func (e *RowError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("header (line %d): %v", e.Line, e.Err)
	}
	return fmt.Sprintf("row %d (line %d): %v", e.Row, e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Options configure a Copy run.
type Options struct {
	// Comma and Quote override the field and quote characters for both
	// input and output. Zero values mean ',' and '"'.
	Comma byte
	Quote byte

	// UseCRLF terminates output records with \r\n.
	UseCRLF bool
	// AlwaysQuote forces quoting of every output field.
	AlwaysQuote bool

	// NoHeader treats the first record as data.
	NoHeader bool
	// Strict aborts when a record's width differs from the first record's.
	// Without it ragged records pass through and hooks decide.
	Strict bool

	// Header runs once on the header record, before Hook sees any row.
	Header HeaderHook
	// Hook runs on every data row.
	Hook Hook
}

// Stats summarizes a finished copy. The header is not counted.
type Stats struct {
	// Read is the number of data rows consumed from the source.
	Read int
	// Written is the number of rows emitted to the destination.
	Written int
	// Skipped is the number of rows dropped via ErrSkipRow.
	Skipped int
}

// Copy streams CSV records from src to dst. The header, when present, is
// written through before the first data row. Blank lines are dropped
// silently. Copy returns the stats accumulated up to the first error.
func Copy(ctx context.Context, dst io.Writer, src io.Reader, opts Options) (Stats, error) {
	var stats Stats

	r := swiftcsv.NewReader(src)
	w := swiftcsv.NewWriter(dst)
	if opts.Comma != 0 {
		r.Comma = opts.Comma
		w.Comma = opts.Comma
	}
	if opts.Quote != 0 {
		r.Quote = opts.Quote
		w.Quote = opts.Quote
	}
	w.UseCRLF = opts.UseCRLF
	w.AlwaysQuote = opts.AlwaysQuote

	headerDone := opts.NoHeader
	startLine := 1
	rowIndex := 0

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		recLine := startLine
		if rec != nil {
			startLine += 1 + embeddedNewlines(rec)
		}
		if err != nil {
			// The reader reports width drift but still returns the record;
			// without Strict the row passes through untouched.
			if errors.Is(err, swiftcsv.ErrorFieldCount) {
				if opts.Strict {
					return stats, &RowError{Line: recLine, Row: rowIndex, Err: err}
				}
			} else {
				var pe *swiftcsv.ParseError
				if errors.As(err, &pe) {
					return stats, &RowError{Line: pe.Line, Row: rowIndex, Err: err}
				}
				return stats, fmt.Errorf("read input: %w", err)
			}
		}

		if len(rec) == 1 && rec[0] == "" {
			continue
		}

		if !headerDone {
			headerDone = true
			if opts.Header != nil {
				if err := opts.Header(rec); err != nil {
					return stats, &RowError{Line: recLine, Row: -1, Err: err}
				}
			}
			if err := w.Write(rec); err != nil {
				return stats, fmt.Errorf("write header: %w", err)
			}
			continue
		}

		stats.Read++
		row := Row{Line: recLine, Index: rowIndex, Fields: rec}
		rowIndex++

		if opts.Hook != nil {
			if err := opts.Hook(ctx, &row); err != nil {
				switch {
				case errors.Is(err, ErrSkipRow):
					stats.Skipped++
					continue
				case errors.Is(err, ErrStop):
					if err := w.Flush(); err != nil {
						return stats, fmt.Errorf("flush output: %w", err)
					}
					return stats, nil
				default:
					return stats, &RowError{Line: row.Line, Row: row.Index, Err: err}
				}
			}
		}

		if err := w.Write(row.Fields); err != nil {
			return stats, fmt.Errorf("write row %d: %w", row.Index, err)
		}
		stats.Written++
	}

	if err := w.Flush(); err != nil {
		return stats, fmt.Errorf("flush output: %w", err)
	}
	return stats, nil
}

func embeddedNewlines(rec []string) int {
	n := 0
	for _, field := range rec {
		n += strings.Count(field, "\n")
	}
	return n
}
