// SPDX-License-Identifier: MIT

package sink

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/ManuGH/geoanonymizer/internal/log"
)

// DefaultTable is the target table when the config names none.
const DefaultTable = "anonymized_points"

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// PostGISConfig holds the connection settings for the PostGIS sink.
type PostGISConfig struct {
	DSN   string
	Table string
}

// PostGIS bulk-loads anonymized rows into a GEOGRAPHY(Point,4326) table.
// Each run collects its rows in its own Batch and lands them in a single
// COPY, so concurrent runs never interleave.
type PostGIS struct {
	pool   *pgxpool.Pool
	table  string
	logger zerolog.Logger
}

// OpenPostGIS connects to the database, verifies it answers, and makes sure
// the target table and its spatial index exist.
func OpenPostGIS(ctx context.Context, cfg PostGISConfig) (*PostGIS, error) {
	table := cfg.Table
	if table == "" {
		table = DefaultTable
	}
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid postgis table name: %q", table)
	}

	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect to postgis: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgis: %w", err)
	}

	p := &PostGIS{
		pool:   pool,
		table:  table,
		logger: log.WithComponent("sink-postgis"),
	}
	if err := p.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	p.logger.Info().Str("table", table).Msg("connected to postgis sink")
	return p, nil
}

func (p *PostGIS) ensureSchema(ctx context.Context) error {
	ident := pgx.Identifier{p.table}.Sanitize()
	idxGeom := pgx.Identifier{p.table + "_geom_idx"}.Sanitize()
	idxRun := pgx.Identifier{p.table + "_run_idx"}.Sanitize()

	ddl := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		id BIGSERIAL PRIMARY KEY,
		run_id TEXT NOT NULL,
		row_index BIGINT NOT NULL,
		attrs TEXT[],
		alt DOUBLE PRECISION,
		geom GEOGRAPHY(POINT, 4326)
	);
	CREATE INDEX IF NOT EXISTS %s ON %s USING GIST (geom);
	CREATE INDEX IF NOT EXISTS %s ON %s (run_id);
	`, ident, idxGeom, ident, idxRun, ident)

	if _, err := p.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensure postgis schema: %w", err)
	}
	return nil
}

// Begin starts a row batch for one run.
func (p *PostGIS) Begin(runID string) *Batch {
	return &Batch{sink: p, runID: runID}
}

// Batch collects one run's anonymized rows. A batch belongs to a single
// run and is not safe for concurrent use.
type Batch struct {
	sink  *PostGIS
	runID string
	rows  [][]any
}

// Add buffers one anonymized point. attrs are the row's fields in input
// order; alt may be nil for 2D points.
func (b *Batch) Add(rowIndex int64, lat, lon float64, alt *float64, attrs []string) {
	b.rows = append(b.rows, []any{b.runID, rowIndex, attrs, alt, ewkt(lat, lon)})
}

// Len reports the number of buffered rows.
func (b *Batch) Len() int { return len(b.rows) }

// Flush copies the buffered rows into the table in one COPY and resets
// the batch.
func (b *Batch) Flush(ctx context.Context) (int64, error) {
	rows := b.rows
	b.rows = nil
	if len(rows) == 0 {
		return 0, nil
	}

	copied, err := b.sink.pool.CopyFrom(
		ctx,
		pgx.Identifier{b.sink.table},
		[]string{"run_id", "row_index", "attrs", "alt", "geom"},
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			return rows[i], nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("copy rows to postgis: %w", err)
	}

	b.sink.logger.Info().
		Str("run_id", b.runID).
		Int64("rows", copied).
		Msg("copied anonymized rows to postgis")
	return copied, nil
}

// Ping reports whether the database answers, for the readiness probe.
func (p *PostGIS) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close releases the connection pool.
func (p *PostGIS) Close() {
	p.pool.Close()
}

// ewkt renders a point in extended well-known text. PostGIS point order is
// lon lat.
func ewkt(lat, lon float64) string {
	return "SRID=4326;POINT(" +
		strconv.FormatFloat(lon, 'f', -1, 64) + " " +
		strconv.FormatFloat(lat, 'f', -1, 64) + ")"
}
