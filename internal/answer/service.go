package answer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/luminara-ai/answerd/internal/guardrails"
	"github.com/luminara-ai/answerd/internal/llm"
	"github.com/luminara-ai/answerd/internal/vectorstore"
)

// systemPrompt constrains the model to the retrieved context.
const systemPrompt = `Você é um assistente técnico que responde exclusivamente com base no contexto fornecido.

Regras:
- Responda apenas com informações presentes no contexto numerado abaixo.
- Se o contexto não contém a resposta, diga claramente que a informação não está disponível na base de conhecimento.
- Cite os trechos usados pelo número entre colchetes, por exemplo [1].
- Não invente informações nem use conhecimento externo ao contexto.`

// Retriever is the slice of the vector store the pipeline needs.
type Retriever interface {
	Search(ctx context.Context, query string, topK int) ([]vectorstore.Citation, error)
}

// Config holds configuration for the answer pipeline.
type Config struct {
	// TopK is the number of context chunks retrieved per question.
	TopK int `koanf:"top_k"`

	// Temperature is the sampling temperature for completions.
	Temperature float64 `koanf:"temperature"`

	// MaxTokens bounds the completion length.
	MaxTokens int `koanf:"max_tokens"`

	// PromptPricePer1K is the USD price per thousand prompt tokens.
	PromptPricePer1K float64 `koanf:"prompt_price_per_1k"`

	// CompletionPricePer1K is the USD price per thousand completion tokens.
	CompletionPricePer1K float64 `koanf:"completion_price_per_1k"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.TopK == 0 {
		c.TopK = 4
	}
	if c.Temperature == 0 {
		c.Temperature = 0.2
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 1024
	}
	if c.PromptPricePer1K == 0 {
		c.PromptPricePer1K = 0.00015
	}
	if c.CompletionPricePer1K == 0 {
		c.CompletionPricePer1K = 0.0006
	}
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.TopK < 1 {
		return fmt.Errorf("%w: top_k must be at least 1", ErrInvalidConfig)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("%w: temperature must be between 0 and 2", ErrInvalidConfig)
	}
	if c.MaxTokens < 1 {
		return fmt.Errorf("%w: max_tokens must be at least 1", ErrInvalidConfig)
	}
	if c.PromptPricePer1K < 0 || c.CompletionPricePer1K < 0 {
		return fmt.Errorf("%w: prices must be non-negative", ErrInvalidConfig)
	}
	return nil
}

// Service runs the answer pipeline for one question at a time. It is safe
// for concurrent use.
type Service struct {
	config    Config
	retriever Retriever
	completer llm.Completer
	guards    *guardrails.Engine
	counter   TokenCounter
	logger    *zap.Logger
	metrics   *Metrics
}

// NewService creates an answer pipeline service.
func NewService(config Config, retriever Retriever, completer llm.Completer, guards *guardrails.Engine, logger *zap.Logger) (*Service, error) {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	if retriever == nil {
		return nil, fmt.Errorf("%w: retriever required", ErrInvalidConfig)
	}
	if completer == nil {
		return nil, fmt.Errorf("%w: completer required", ErrInvalidConfig)
	}
	if guards == nil {
		return nil, fmt.Errorf("%w: guardrail engine required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	metrics, err := NewMetrics()
	if err != nil {
		return nil, fmt.Errorf("creating metrics: %w", err)
	}

	return &Service{
		config:    config,
		retriever: retriever,
		completer: completer,
		guards:    guards,
		counter:   NewTokenCounter(completer.Model()),
		logger:    logger,
		metrics:   metrics,
	}, nil
}

// Ask answers a question grounded on the ingested knowledge base. A
// guardrail rejection is a successful call with Blocked set, not an error.
func (s *Service) Ask(ctx context.Context, question string) (*Response, error) {
	start := time.Now()

	if result := s.guards.CheckQuery(question); result.Blocked {
		s.logger.Info("query blocked",
			zap.String("policy", string(result.Policy)),
			zap.String("reason", result.Reason),
		)
		s.metrics.RecordBlocked(ctx, string(result.Policy))
		return blockedResponse(result, Usage{TotalLatencyMs: time.Since(start).Milliseconds()}), nil
	}

	retrievalStart := time.Now()
	citations, err := s.retriever.Search(ctx, question, s.config.TopK)
	if err != nil {
		s.metrics.RecordError(ctx, "retrieval")
		return nil, fmt.Errorf("%w: %v", ErrRetrieval, err)
	}
	retrievalLatency := time.Since(retrievalStart)

	contextBlock := buildContext(citations)
	userPrompt := buildUserPrompt(question, contextBlock)
	promptTokens := s.counter.Count(systemPrompt) + s.counter.Count(userPrompt)
	contextChars := 0
	for _, c := range citations {
		contextChars += len(c.Excerpt)
	}

	llmStart := time.Now()
	text, err := s.completer.Complete(ctx, systemPrompt, userPrompt, s.config.Temperature, s.config.MaxTokens)
	if err != nil {
		s.metrics.RecordError(ctx, "completion")
		return nil, fmt.Errorf("%w: %v", ErrCompletion, err)
	}
	llmLatency := time.Since(llmStart)
	completionTokens := s.counter.Count(text)

	usage := Usage{
		TotalLatencyMs:     time.Since(start).Milliseconds(),
		RetrievalLatencyMs: retrievalLatency.Milliseconds(),
		LLMLatencyMs:       llmLatency.Milliseconds(),
		PromptTokens:       promptTokens,
		CompletionTokens:   completionTokens,
		TotalTokens:        promptTokens + completionTokens,
		EstimatedCostUSD:   s.estimateCost(promptTokens, completionTokens),
		TopKUsed:           s.config.TopK,
		ContextSizeChars:   contextChars,
	}

	if result := s.guards.CheckResponse(text); result.Blocked {
		s.logger.Warn("response blocked",
			zap.String("policy", string(result.Policy)),
			zap.String("reason", result.Reason),
		)
		s.metrics.RecordBlocked(ctx, string(result.Policy))
		usage.TotalLatencyMs = time.Since(start).Milliseconds()
		return blockedResponse(result, usage), nil
	}

	usage.TotalLatencyMs = time.Since(start).Milliseconds()
	s.metrics.RecordRequest(ctx, usage)
	s.logger.Info("question answered",
		zap.Int("citations", len(citations)),
		zap.Int("total_tokens", usage.TotalTokens),
		zap.Int64("latency_ms", usage.TotalLatencyMs),
	)

	return &Response{
		Answer:    text,
		Citations: citations,
		Usage:     usage,
	}, nil
}

// estimateCost converts token counts to USD at the configured rates.
func (s *Service) estimateCost(promptTokens, completionTokens int) float64 {
	return float64(promptTokens)/1000*s.config.PromptPricePer1K +
		float64(completionTokens)/1000*s.config.CompletionPricePer1K
}

// buildContext renders the retrieved chunks as numbered blocks.
func buildContext(citations []vectorstore.Citation) string {
	if len(citations) == 0 {
		return "(nenhum trecho relevante encontrado)"
	}
	var b strings.Builder
	for i, c := range citations {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%d] (fonte: %s)\n%s", i+1, c.Source, c.Excerpt)
	}
	return b.String()
}

// buildUserPrompt combines the context blocks and the question.
func buildUserPrompt(question, contextBlock string) string {
	return fmt.Sprintf("Contexto:\n%s\n\nPergunta: %s", contextBlock, question)
}
