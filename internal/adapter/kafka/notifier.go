// Package kafka publishes chunk load summaries to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/climate-warehouse-etl/internal/config"
	"github.com/couchcryptid/climate-warehouse-etl/internal/domain"
	"github.com/couchcryptid/climate-warehouse-etl/internal/observability"
)

// messageWriter is the subset of *kafkago.Writer the notifier uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Notifier produces one message per committed chunk.
// It implements pipeline.ChunkNotifier.
type Notifier struct {
	writer  messageWriter
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewNotifier creates a Kafka producer for the configured load-events topic.
func NewNotifier(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Notifier {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return newNotifier(w, metrics, logger)
}

func newNotifier(w messageWriter, metrics *observability.Metrics, logger *slog.Logger) *Notifier {
	return &Notifier{writer: w, metrics: metrics, logger: logger}
}

// NotifyChunk publishes the summary. A publish failure is logged and counted;
// the chunk is already committed so it is not returned to the caller.
func (n *Notifier) NotifyChunk(ctx context.Context, s domain.ChunkSummary) {
	msg, err := serializeToMessage(s)
	if err == nil {
		err = n.writer.WriteMessages(ctx, msg)
	}
	if err != nil {
		n.metrics.NotificationsProduced.WithLabelValues("error").Inc()
		n.logger.Warn("publish chunk summary failed",
			"error", err, "run_id", s.RunID, "chunk", s.ChunkIndex)
		return
	}
	n.metrics.NotificationsProduced.WithLabelValues("success").Inc()
}

func (n *Notifier) Close() error {
	return n.writer.Close()
}

// serializeToMessage marshals a ChunkSummary into a Kafka message keyed by run,
// so every chunk of one load lands on the same partition in order.
func serializeToMessage(s domain.ChunkSummary) (kafkago.Message, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize chunk summary: %w", err)
	}
	runID := s.RunID.String()
	return kafkago.Message{
		Key:   []byte(runID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "run_id", Value: []byte(runID)},
			{Key: "chunk_index", Value: []byte(strconv.Itoa(s.ChunkIndex))},
			{Key: "committed_at", Value: []byte(s.CommittedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}
