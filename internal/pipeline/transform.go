package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/climate-warehouse-etl/internal/domain"
)

// ClimateTransformer implements ChunkTransformer using the domain cleaning and
// outlier rules.
type ClimateTransformer struct {
	unknown string
	metrics []domain.Metric
	logger  *slog.Logger
}

// NewTransformer creates a ClimateTransformer. Blank event types become
// unknown; outliers are filtered over metrics in the given order.
func NewTransformer(unknown string, metrics []domain.Metric, logger *slog.Logger) *ClimateTransformer {
	if unknown == "" {
		unknown = domain.DefaultUnknownEventType
	}
	return &ClimateTransformer{
		unknown: unknown,
		metrics: metrics,
		logger:  logger,
	}
}

func (t *ClimateTransformer) Transform(_ context.Context, chunk domain.Chunk) (Transformed, error) {
	res, err := domain.TransformChunk(chunk.Observations, t.unknown, t.metrics)
	if err != nil {
		return Transformed{}, err
	}

	t.logger.Debug("chunk filtered",
		"chunk", chunk.Index,
		"rows", chunk.Len(),
		"kept", len(res.Kept),
		"filled", res.Filled,
		"dropped", res.Dropped,
	)

	return Transformed{
		Chunk:   domain.Chunk{Index: chunk.Index, Observations: res.Kept},
		Dropped: res.Dropped,
		Filled:  res.Filled,
	}, nil
}
