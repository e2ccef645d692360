package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/climate-warehouse-etl/internal/domain"
	"github.com/couchcryptid/climate-warehouse-etl/internal/observability"
)

// ChunkExtractor reads the next chunk of observations. It returns io.EOF when
// the source is exhausted.
type ChunkExtractor interface {
	NextChunk(ctx context.Context) (domain.Chunk, error)
}

// ChunkTransformer cleans and filters a chunk before it is loaded.
type ChunkTransformer interface {
	Transform(ctx context.Context, chunk domain.Chunk) (Transformed, error)
}

// ChunkLoader merges a chunk into the warehouse in a single transaction.
type ChunkLoader interface {
	LoadChunk(ctx context.Context, chunk domain.Chunk) (domain.ChunkSummary, error)
}

// ChunkNotifier is told about every committed chunk. It must not fail the run.
type ChunkNotifier interface {
	NotifyChunk(ctx context.Context, summary domain.ChunkSummary)
}

// Transformed is the output of a ChunkTransformer.
type Transformed struct {
	Chunk   domain.Chunk
	Dropped map[string]int // outlier drops by metric name
	Filled  int            // blank event types replaced
}

// Pipeline orchestrates the extract-transform-load loop over one CSV.
type Pipeline struct {
	extractor   ChunkExtractor
	transformer ChunkTransformer
	loader      ChunkLoader
	notifier    ChunkNotifier
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
}

// New creates a Pipeline with the given stages and observability. notifier may
// be nil.
func New(e ChunkExtractor, t ChunkTransformer, l ChunkLoader, n ChunkNotifier, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		notifier:    n,
		logger:      logger,
		metrics:     metrics,
	}
}

// CheckReadiness returns nil once at least one chunk has been committed.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not committed any chunks yet")
	}
	return nil
}

// Run loads chunks until the extractor is exhausted. The first failing chunk
// aborts the run; chunks committed before it stay committed. Cancellation is
// checked between chunks and returned as the context error.
func (p *Pipeline) Run(ctx context.Context) (domain.RunSummary, error) {
	run := domain.NewRunSummary(uuid.New())
	p.logger.Info("pipeline started", "run_id", run.RunID)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	for {
		if err := ctx.Err(); err != nil {
			run.Finish()
			p.logger.Info("pipeline stopping", "run_id", run.RunID, "reason", err, "chunks", run.Chunks)
			return run, err
		}

		done, err := p.processChunk(ctx, &run)
		if err != nil {
			run.Finish()
			return run, err
		}
		if done {
			break
		}
	}

	run.Finish()
	p.logger.Info("pipeline finished",
		"run_id", run.RunID,
		"chunks", run.Chunks,
		"rows_read", run.RowsRead,
		"rows_kept", run.RowsKept,
		"dimensions_created", run.DimensionsCreated,
		"duration", run.FinishedAt.Sub(run.StartedAt),
	)
	return run, nil
}

// processChunk runs one extract-transform-load-notify cycle. It reports true
// when the source is exhausted.
func (p *Pipeline) processChunk(ctx context.Context, run *domain.RunSummary) (bool, error) {
	chunk, err := p.extractor.NextChunk(ctx)
	if errors.Is(err, io.EOF) {
		return true, nil
	}
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		p.metrics.ChunkFailures.Inc()
		return false, fmt.Errorf("extract chunk %d: %w", run.Chunks, err)
	}

	start := time.Now()
	p.metrics.RowsRead.Add(float64(chunk.Len()))
	p.metrics.ChunkSize.Observe(float64(chunk.Len()))

	out, err := p.transformer.Transform(ctx, chunk)
	if err != nil {
		p.metrics.ChunkFailures.Inc()
		return false, fmt.Errorf("transform chunk %d: %w", chunk.Index, err)
	}
	for metric, n := range out.Dropped {
		p.metrics.OutliersDropped.WithLabelValues(metric).Add(float64(n))
	}

	summary, err := p.loader.LoadChunk(ctx, out.Chunk)
	if err != nil {
		p.metrics.ChunkFailures.Inc()
		p.logger.Error("chunk rolled back", "chunk", chunk.Index, "error", err)
		return false, err
	}

	summary.RunID = run.RunID
	summary.RowsRead = chunk.Len()
	summary.RowsKept = out.Chunk.Len()
	summary.OutliersDropped = out.Dropped
	p.record(summary)
	p.metrics.ChunkLoadDuration.Observe(time.Since(start).Seconds())
	p.ready.Store(true)
	run.Add(summary)

	p.logger.Info("chunk loaded",
		"run_id", run.RunID,
		"chunk", chunk.Index,
		"rows", summary.RowsRead,
		"kept", summary.RowsKept,
		"unknown_event_types", out.Filled,
	)

	if p.notifier != nil {
		p.notifier.NotifyChunk(ctx, summary)
	}
	return false, nil
}

func (p *Pipeline) record(s domain.ChunkSummary) {
	p.metrics.ChunksLoaded.Inc()
	p.metrics.RowsKept.Add(float64(s.RowsKept))
	for c, n := range map[domain.MergeCase]int{
		domain.CaseEventsMatched:     s.EventsMerged,
		domain.CaseIndicatorsMatched: s.IndicatorsMerged,
		domain.CaseNoMatch:           s.BothInserted,
		domain.CaseBothMatched:       s.BothMerged,
	} {
		if n > 0 {
			p.metrics.MergeOutcomes.WithLabelValues(c.String()).Add(float64(n))
		}
	}
	for table, n := range s.DimensionsByTable {
		p.metrics.DimensionsCreated.WithLabelValues(table).Add(float64(n))
	}
}
