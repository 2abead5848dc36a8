package vectorstore

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/luminara-ai/answerd/internal/vectorstore"

// Metrics holds vector store metric instruments.
type Metrics struct {
	meter          metric.Meter
	logger         *zap.Logger
	searchDuration metric.Float64Histogram
	addDuration    metric.Float64Histogram
	chunksAdded    metric.Int64Counter
	errors         metric.Int64Counter
}

// NewMetrics creates a new Metrics instance for the vector store.
func NewMetrics(logger *zap.Logger) *Metrics {
	m := &Metrics{
		meter:  otel.Meter(instrumentationName),
		logger: logger,
	}
	m.init()
	return m
}

func (m *Metrics) init() {
	var err error

	m.searchDuration, err = m.meter.Float64Histogram(
		"answerd.vectorstore.search_duration_seconds",
		metric.WithDescription("Duration of similarity searches in seconds, including query embedding"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 2.5, 5.0),
	)
	if err != nil {
		m.logger.Warn("failed to create search duration histogram", zap.Error(err))
	}

	m.addDuration, err = m.meter.Float64Histogram(
		"answerd.vectorstore.add_duration_seconds",
		metric.WithDescription("Duration of chunk batch inserts in seconds, including embedding"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10.0, 30.0),
	)
	if err != nil {
		m.logger.Warn("failed to create add duration histogram", zap.Error(err))
	}

	m.chunksAdded, err = m.meter.Int64Counter(
		"answerd.vectorstore.chunks_added_total",
		metric.WithDescription("Total chunks persisted to the vector store"),
		metric.WithUnit("{chunk}"),
	)
	if err != nil {
		m.logger.Warn("failed to create chunks added counter", zap.Error(err))
	}

	m.errors, err = m.meter.Int64Counter(
		"answerd.vectorstore.errors_total",
		metric.WithDescription("Total vector store operation errors by operation"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		m.logger.Warn("failed to create errors counter", zap.Error(err))
	}
}

// RecordSearch records search metrics.
func (m *Metrics) RecordSearch(ctx context.Context, duration time.Duration, err error) {
	if m.searchDuration != nil {
		m.searchDuration.Record(ctx, duration.Seconds())
	}
	if err != nil && m.errors != nil {
		m.errors.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", "search")))
	}
}

// RecordAdd records batch insert metrics.
func (m *Metrics) RecordAdd(ctx context.Context, duration time.Duration, count int, err error) {
	if m.addDuration != nil {
		m.addDuration.Record(ctx, duration.Seconds())
	}
	if err == nil && m.chunksAdded != nil {
		m.chunksAdded.Add(ctx, int64(count))
	}
	if err != nil && m.errors != nil {
		m.errors.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", "add_chunks")))
	}
}
