// Package vectorstore owns embedding persistence and similarity retrieval.
package vectorstore

import (
	"context"
	"errors"

	"github.com/luminara-ai/answerd/internal/chunker"
)

// Sentinel errors for vector store operations.
var (
	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmptyChunks indicates an empty or nil chunk batch.
	ErrEmptyChunks = errors.New("empty or nil chunks")

	// ErrEmbeddingFailed indicates embedding generation failure during a
	// batch insert. No chunk from the batch is persisted.
	ErrEmbeddingFailed = errors.New("failed to generate embeddings")

	// ErrStorage indicates a storage read or write failure.
	ErrStorage = errors.New("vector storage failure")
)

// Citation is the projection of a retrieved chunk returned to the caller.
// Score is a similarity measure in [0, 1]: 1 minus the cosine distance
// between the query and chunk embeddings, so higher means more relevant.
type Citation struct {
	Source  string  `json:"source"`
	Excerpt string  `json:"excerpt"`
	Score   float32 `json:"score"`
}

// Store is the interface for chunk storage and similarity retrieval.
//
// Implementations are expected to support concurrent readers; writers
// (ingestion) run before steady-state query traffic begins.
type Store interface {
	// AddChunks embeds and persists a batch of chunks. All-or-nothing:
	// if any embedding fails, no chunk from the batch is persisted, so a
	// source document never ends up partially indexed.
	AddChunks(ctx context.Context, chunks []chunker.Chunk) error

	// Search embeds the query and returns up to topK citations ordered
	// by decreasing similarity.
	Search(ctx context.Context, query string, topK int) ([]Citation, error)

	// DeleteBySource removes all chunks of a source. Idempotent.
	DeleteBySource(ctx context.Context, source string) error

	// CountBySource returns the number of chunks stored for a source.
	CountBySource(ctx context.Context, source string) (int, error)

	// Clear removes all chunks from the store.
	Clear(ctx context.Context) error

	// HasData reports whether the store holds any chunks. Used once at
	// startup to decide whether the bulk ingestion path runs.
	HasData(ctx context.Context) (bool, error)

	// Close releases store resources.
	Close() error
}
