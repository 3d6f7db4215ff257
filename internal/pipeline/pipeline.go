package pipeline

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"adherents/adapters/datareadiness/coercer"
	"adherents/domain/membership"
	"adherents/internal"
)

// Config tunes the pipeline
type Config struct {
	Workers   int `json:"workers"`    // parallel row builders
	ChunkSize int `json:"chunk_size"` // rows per build task
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{Workers: 4, ChunkSize: 512}
}

// Stats describes how many rows survived each stage
type Stats struct {
	Rows    int `json:"rows"`
	Built   int `json:"built"`
	Skipped int `json:"skipped"`
	Active  int `json:"active"`
	Unique  int `json:"unique"`
}

// Result is the ordered record set ready for export
type Result struct {
	Records []membership.Record
	Stats   Stats
}

// Pipeline turns raw rows into the deduplicated set of active memberships
type Pipeline struct {
	config  Config
	builder *RecordBuilder
	logger  *internal.Logger
}

// New creates a pipeline
func New(config Config, c *coercer.DateCoercer, logger *internal.Logger) *Pipeline {
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.ChunkSize <= 0 {
		config.ChunkSize = DefaultConfig().ChunkSize
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Pipeline{
		config:  config,
		builder: NewRecordBuilder(c),
		logger:  logger.With("Pipeline"),
	}
}

// Run builds records, sorts them by start date, keeps those active on asOf,
// deduplicates the survivors and sorts the result by start date. The same
// input always yields the same output. The only error is ctx's.
func (p *Pipeline) Run(ctx context.Context, rows []membership.RawRow, mapping membership.ColumnMapping, asOf time.Time) (Result, error) {
	records, err := p.buildAll(ctx, rows, mapping)
	if err != nil {
		return Result{}, err
	}
	stats := Stats{Rows: len(rows), Built: len(records), Skipped: len(rows) - len(records)}

	SortByStart(records)
	active := FilterActive(records, asOf)
	stats.Active = len(active)

	unique := Dedupe(active)
	SortByStart(unique)
	stats.Unique = len(unique)

	p.logger.Debug("rows=%d built=%d skipped=%d active=%d unique=%d",
		stats.Rows, stats.Built, stats.Skipped, stats.Active, stats.Unique)

	return Result{Records: unique, Stats: stats}, nil
}

// buildAll builds rows concurrently; output keeps input row order.
// Chunks stop early once ctx is done.
func (p *Pipeline) buildAll(ctx context.Context, rows []membership.RawRow, mapping membership.ColumnMapping) ([]membership.Record, error) {
	built := make([]membership.Record, len(rows))
	valid := make([]bool, len(rows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.config.Workers)
	for start := 0; start < len(rows); start += p.config.ChunkSize {
		start := start
		end := start + p.config.ChunkSize
		if end > len(rows) {
			end = len(rows)
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				built[i], valid[i] = p.builder.Build(rows[i], mapping)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	records := make([]membership.Record, 0, len(rows))
	for i, ok := range valid {
		if ok {
			records = append(records, built[i])
		}
	}
	return records, nil
}
