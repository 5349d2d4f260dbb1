// SPDX-License-Identifier: MIT

// Package geoanonymizer anonymizes geographic coordinates in tabular data
// streams. It binds the masking strategies of spatial/mask to CSV columns:
// a Processor resolves the coordinate columns from the header, parses each
// row's coordinates, runs them through a strategy and writes the masked
// values back, all record by record via the tabular package.
//
//	p, err := geoanonymizer.New(geoanonymizer.Options{
//		Strategy: mask.Donut(0.001, 0.01),
//	})
//	...
//	stats, err := geoanonymizer.Anonymize(ctx, dst, src, opts)
//
// Rows whose coordinate cells cannot be parsed are handled per the OnError
// mode: abort the stream, drop the row, or pass it through untouched.
package geoanonymizer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ManuGH/geoanonymizer/spatial"
	"github.com/ManuGH/geoanonymizer/spatial/geofence"
	"github.com/ManuGH/geoanonymizer/spatial/mask"
	"github.com/ManuGH/geoanonymizer/tabular"
)

// ErrNoStrategy is returned by New when Options carry no strategy.
var ErrNoStrategy = errors.New("a masking strategy is required")

// ErrorMode selects what happens to rows whose coordinates cannot be
// parsed or validated.
type ErrorMode int

const (
	// FailFast aborts the stream on the first bad cell.
	FailFast ErrorMode = iota
	// SkipRows drops rows with bad cells and continues.
	SkipRows
	// KeepRows passes rows with bad cells through unmasked.
	KeepRows
)

func (m ErrorMode) String() string {
	switch m {
	case FailFast:
		return "fail"
	case SkipRows:
		return "skip"
	case KeepRows:
		return "keep"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseErrorMode converts the textual mode name; the empty string means
// FailFast.
func ParseErrorMode(s string) (ErrorMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fail":
		return FailFast, nil
	case "skip":
		return SkipRows, nil
	case "keep":
		return KeepRows, nil
	}
	return 0, fmt.Errorf("unknown error mode %q", s)
}

// CellError describes a coordinate cell that could not be used.
type CellError struct {
	Column string
	Value  string
	Err    error
}

func (e *CellError) Error() string {
	return fmt.Sprintf("column %q value %q: %v", e.Column, e.Value, e.Err)
}

func (e *CellError) Unwrap() error { return e.Err }

// Options configure a Processor.
type Options struct {
	// Strategy transforms each coordinate. Required.
	Strategy mask.Strategy

	// LatColumn, LonColumn and AltColumn select the coordinate columns by
	// header name or 0-based index. Empty latitude and longitude specs are
	// auto-detected from common header names; an empty altitude spec means
	// altitude only when a matching column exists.
	LatColumn string
	LonColumn string
	AltColumn string

	// Fence restricts masking to a region. Nil masks every row.
	Fence *geofence.Fence

	// OnError selects the handling of unparsable coordinate cells.
	OnError ErrorMode

	// Validate rejects coordinates outside WGS84 range before masking.
	Validate bool

	// Decimals fixes the number of decimals for masked values; zero or
	// negative keeps the shortest representation that round-trips.
	Decimals int

	// NoHeader treats the first record as data. Column specs must then be
	// numeric indices.
	NoHeader bool

	// CSV dialect, passed through to the tabular layer.
	Comma       byte
	Quote       byte
	UseCRLF     bool
	AlwaysQuote bool
	Strict      bool

	// Masked observes every row whose coordinate cells were rewritten,
	// after the rewrite, with the masked point. Callers use it to mirror
	// masked rows into a secondary sink. Nil disables it.
	Masked func(row *tabular.Row, point spatial.Point)

	// Logger receives per-row diagnostics for skipped and kept rows. Nil
	// disables them.
	Logger *zerolog.Logger
}

// Stats counts what happened to the data rows of one stream.
type Stats struct {
	// Rows is the number of data rows seen.
	Rows int `json:"rows"`
	// Masked rows had their coordinates rewritten.
	Masked int `json:"masked"`
	// Kept rows passed through unchanged, by fence policy or KeepRows.
	Kept int `json:"kept"`
	// Dropped rows were removed, by fence policy or SkipRows.
	Dropped int `json:"dropped"`
	// FenceKept and FenceDropped are the subsets of Kept and Dropped
	// decided by the fence rather than by error handling.
	FenceKept    int `json:"fence_kept"`
	FenceDropped int `json:"fence_dropped"`
	// Errors is the number of rows with unusable coordinate cells.
	Errors int `json:"errors"`
}

// Processor is a configured anonymization pipeline for one stream. It is
// not safe for concurrent use; give each stream its own instance.
type Processor struct {
	opts   Options
	log    zerolog.Logger
	latIdx int
	lonIdx int
	altIdx int
	bound  bool
	stats  Stats
}

// New validates opts and builds a Processor. With NoHeader set the column
// indices are bound immediately; otherwise Header must run first.
func New(opts Options) (*Processor, error) {
	if opts.Strategy == nil {
		return nil, ErrNoStrategy
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	p := &Processor{opts: opts, log: logger, latIdx: -1, lonIdx: -1, altIdx: -1}

	if opts.NoHeader {
		var err error
		if p.latIdx, err = numericColumn("latitude", opts.LatColumn); err != nil {
			return nil, err
		}
		if p.lonIdx, err = numericColumn("longitude", opts.LonColumn); err != nil {
			return nil, err
		}
		if opts.AltColumn != "" {
			if p.altIdx, err = numericColumn("altitude", opts.AltColumn); err != nil {
				return nil, err
			}
		}
		if p.latIdx == p.lonIdx {
			return nil, fmt.Errorf("latitude and longitude both map to column %d", p.latIdx)
		}
		p.bound = true
	}
	return p, nil
}

func numericColumn(axis, spec string) (int, error) {
	idx, err := strconv.Atoi(strings.TrimSpace(spec))
	if err != nil || idx < 0 {
		return -1, fmt.Errorf("%s column: headerless input needs a 0-based index, got %q", axis, spec)
	}
	return idx, nil
}

// Header binds the coordinate columns from the header record. It satisfies
// tabular.HeaderHook.
func (p *Processor) Header(header []string) error {
	var err error

	if spec := p.opts.LatColumn; spec != "" {
		if p.latIdx, err = resolveColumn(spec, header); err != nil {
			return fmt.Errorf("latitude: %w", err)
		}
	} else if p.latIdx = detectColumn(latNames, header); p.latIdx < 0 {
		return fmt.Errorf("no latitude column in header %v", header)
	}

	if spec := p.opts.LonColumn; spec != "" {
		if p.lonIdx, err = resolveColumn(spec, header); err != nil {
			return fmt.Errorf("longitude: %w", err)
		}
	} else if p.lonIdx = detectColumn(lonNames, header); p.lonIdx < 0 {
		return fmt.Errorf("no longitude column in header %v", header)
	}

	if spec := p.opts.AltColumn; spec != "" {
		if p.altIdx, err = resolveColumn(spec, header); err != nil {
			return fmt.Errorf("altitude: %w", err)
		}
	} else {
		p.altIdx = detectColumn(altNames, header)
	}

	if p.latIdx == p.lonIdx {
		return fmt.Errorf("latitude and longitude both map to column %d", p.latIdx)
	}
	p.bound = true

	p.log.Debug().
		Str("event", "columns.bound").
		Int("lat", p.latIdx).
		Int("lon", p.lonIdx).
		Int("alt", p.altIdx).
		Msg("coordinate columns resolved")
	return nil
}

// Hook masks one row in place. It satisfies tabular.Hook.
func (p *Processor) Hook(ctx context.Context, row *tabular.Row) error {
	if !p.bound {
		return errors.New("columns not bound, run Header first")
	}
	p.stats.Rows++

	point, cellErr := p.parsePoint(row.Fields)
	if cellErr != nil {
		return p.fail(row, cellErr)
	}
	if p.opts.Validate {
		if err := point.Validate(); err != nil {
			return p.fail(row, &CellError{Column: "coordinates", Value: point.String(), Err: err})
		}
	}

	switch p.opts.Fence.Decide(point) {
	case geofence.Keep:
		p.stats.Kept++
		p.stats.FenceKept++
		return nil
	case geofence.Drop:
		p.stats.Dropped++
		p.stats.FenceDropped++
		p.log.Debug().
			Str("event", "row.fenced").
			Int("row", row.Index).
			Msg("row dropped by fence policy")
		return tabular.ErrSkipRow
	}

	masked, err := p.opts.Strategy.Apply(ctx, point)
	if err != nil {
		return fmt.Errorf("apply strategy: %w", err)
	}

	row.Fields[p.latIdx] = p.format(masked.Lat)
	row.Fields[p.lonIdx] = p.format(masked.Lon)
	if masked.HasAlt && p.altIdx >= 0 {
		row.Fields[p.altIdx] = p.format(masked.Alt)
	}
	p.stats.Masked++
	if p.opts.Masked != nil {
		p.opts.Masked(row, masked)
	}
	return nil
}

// Stats returns the counters accumulated so far.
func (p *Processor) Stats() Stats { return p.stats }

func (p *Processor) parsePoint(fields []string) (spatial.Point, *CellError) {
	lat, cellErr := p.parseCell("latitude", p.latIdx, fields)
	if cellErr != nil {
		return spatial.Point{}, cellErr
	}
	lon, cellErr := p.parseCell("longitude", p.lonIdx, fields)
	if cellErr != nil {
		return spatial.Point{}, cellErr
	}
	point := spatial.New(lat, lon)

	if p.altIdx >= 0 && p.altIdx < len(fields) {
		if raw := strings.TrimSpace(fields[p.altIdx]); raw != "" {
			alt, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return spatial.Point{}, &CellError{Column: "altitude", Value: raw, Err: err}
			}
			point = spatial.NewWithAlt(lat, lon, alt)
		}
	}
	return point, nil
}

func (p *Processor) parseCell(axis string, idx int, fields []string) (float64, *CellError) {
	if idx >= len(fields) {
		return 0, &CellError{Column: axis, Value: "", Err: fmt.Errorf("row has %d fields, need index %d", len(fields), idx)}
	}
	raw := strings.TrimSpace(fields[idx])
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &CellError{Column: axis, Value: raw, Err: err}
	}
	return v, nil
}

func (p *Processor) fail(row *tabular.Row, cellErr *CellError) error {
	p.stats.Errors++
	switch p.opts.OnError {
	case SkipRows:
		p.stats.Dropped++
		p.log.Warn().
			Str("event", "row.skipped").
			Int("row", row.Index).
			Int("line", row.Line).
			Str("column", cellErr.Column).
			Str("value", cellErr.Value).
			Msg("row skipped, bad coordinate cell")
		return tabular.ErrSkipRow
	case KeepRows:
		p.stats.Kept++
		p.log.Warn().
			Str("event", "row.kept").
			Int("row", row.Index).
			Int("line", row.Line).
			Str("column", cellErr.Column).
			Str("value", cellErr.Value).
			Msg("row kept unmasked, bad coordinate cell")
		return nil
	}
	return cellErr
}

func (p *Processor) format(v float64) string {
	if p.opts.Decimals > 0 {
		return strconv.FormatFloat(v, 'f', p.opts.Decimals, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// NewHook builds the header and row hooks for a tabular.Copy, the plumbing
// behind Anonymize for callers that drive the stream themselves.
func NewHook(opts Options) (tabular.HeaderHook, tabular.Hook, *Processor, error) {
	p, err := New(opts)
	if err != nil {
		return nil, nil, nil, err
	}
	return p.Header, p.Hook, p, nil
}

// Anonymize streams CSV data from src to dst, masking the coordinate
// columns per opts. It returns the processor's stats alongside any error;
// on error the stats cover the rows processed up to it.
func Anonymize(ctx context.Context, dst io.Writer, src io.Reader, opts Options) (Stats, error) {
	p, err := New(opts)
	if err != nil {
		return Stats{}, err
	}
	topts := tabular.Options{
		Comma:       opts.Comma,
		Quote:       opts.Quote,
		UseCRLF:     opts.UseCRLF,
		AlwaysQuote: opts.AlwaysQuote,
		NoHeader:    opts.NoHeader,
		Strict:      opts.Strict,
		Hook:        p.Hook,
	}
	if !opts.NoHeader {
		topts.Header = p.Header
	}
	_, err = tabular.Copy(ctx, dst, src, topts)
	return p.stats, err
}
