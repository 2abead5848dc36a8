package answer

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/luminara-ai/answerd/internal/answer"

// Metrics provides OpenTelemetry instrumentation for the answer pipeline.
type Metrics struct {
	requestDuration   metric.Float64Histogram
	retrievalDuration metric.Float64Histogram
	llmDuration       metric.Float64Histogram
	tokensUsed        metric.Int64Counter
	estimatedCost     metric.Float64Counter
	blockedQueries    metric.Int64Counter
	errors            metric.Int64Counter
}

// NewMetrics creates answer pipeline metrics.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(instrumentationName)

	requestDuration, err := meter.Float64Histogram(
		"answerd.answer.request_duration_seconds",
		metric.WithDescription("End to end duration of answer requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request duration histogram: %w", err)
	}

	retrievalDuration, err := meter.Float64Histogram(
		"answerd.answer.retrieval_duration_seconds",
		metric.WithDescription("Duration of the context retrieval step"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating retrieval duration histogram: %w", err)
	}

	llmDuration, err := meter.Float64Histogram(
		"answerd.answer.llm_duration_seconds",
		metric.WithDescription("Duration of the completion step"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating llm duration histogram: %w", err)
	}

	tokensUsed, err := meter.Int64Counter(
		"answerd.answer.tokens_total",
		metric.WithDescription("Total tokens consumed by answer requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tokens counter: %w", err)
	}

	estimatedCost, err := meter.Float64Counter(
		"answerd.answer.estimated_cost_usd_total",
		metric.WithDescription("Estimated cumulative completion spend"),
		metric.WithUnit("USD"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating cost counter: %w", err)
	}

	blockedQueries, err := meter.Int64Counter(
		"answerd.answer.blocked_total",
		metric.WithDescription("Requests rejected by a guardrail policy"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating blocked counter: %w", err)
	}

	errors, err := meter.Int64Counter(
		"answerd.answer.errors_total",
		metric.WithDescription("Answer pipeline failures"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating errors counter: %w", err)
	}

	return &Metrics{
		requestDuration:   requestDuration,
		retrievalDuration: retrievalDuration,
		llmDuration:       llmDuration,
		tokensUsed:        tokensUsed,
		estimatedCost:     estimatedCost,
		blockedQueries:    blockedQueries,
		errors:            errors,
	}, nil
}

// RecordRequest records the accounting for a completed answer request.
func (m *Metrics) RecordRequest(ctx context.Context, usage Usage) {
	if m == nil {
		return
	}
	m.requestDuration.Record(ctx, float64(usage.TotalLatencyMs)/1000)
	m.retrievalDuration.Record(ctx, float64(usage.RetrievalLatencyMs)/1000)
	m.llmDuration.Record(ctx, float64(usage.LLMLatencyMs)/1000)
	m.tokensUsed.Add(ctx, int64(usage.PromptTokens),
		metric.WithAttributes(attribute.String("kind", "prompt")))
	m.tokensUsed.Add(ctx, int64(usage.CompletionTokens),
		metric.WithAttributes(attribute.String("kind", "completion")))
	m.estimatedCost.Add(ctx, usage.EstimatedCostUSD)
}

// RecordBlocked records a guardrail rejection.
func (m *Metrics) RecordBlocked(ctx context.Context, policy string) {
	if m == nil {
		return
	}
	m.blockedQueries.Add(ctx, 1,
		metric.WithAttributes(attribute.String("policy", policy)))
}

// RecordError records a pipeline failure.
func (m *Metrics) RecordError(ctx context.Context, stage string) {
	if m == nil {
		return
	}
	m.errors.Add(ctx, 1,
		metric.WithAttributes(attribute.String("stage", stage)))
}
