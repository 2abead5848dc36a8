// Package embeddings provides embedding generation for chunks and queries.
package embeddings

import (
	"context"
	"errors"
)

var (
	// ErrEmptyInput indicates empty or nil input texts.
	ErrEmptyInput = errors.New("empty or nil input texts")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrProvider indicates an embedding provider failure (network, rate
	// limit, malformed response). Never retried by this package.
	ErrProvider = errors.New("embedding provider failure")
)

// Provider generates vector embeddings from text.
//
// Embeddings are dense numerical representations that capture semantic
// meaning, enabling similarity search. The production implementation calls
// an OpenAI-compatible HTTP endpoint; tests use deterministic fakes.
type Provider interface {
	// EmbedDocuments generates embeddings for multiple texts, one vector
	// per input, in input order.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a single query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the embedding dimension for the configured model.
	Dimension() int

	// Close releases resources held by the provider.
	Close() error
}
