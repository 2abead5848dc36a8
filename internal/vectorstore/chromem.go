package vectorstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	chromem "github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"github.com/luminara-ai/answerd/internal/chunker"
	"github.com/luminara-ai/answerd/internal/embeddings"
)

// ChromemConfig holds configuration for the chromem-go embedded database.
type ChromemConfig struct {
	// Path is the directory for persistent storage.
	Path string `koanf:"path"`

	// Compress enables gzip compression for stored data.
	Compress bool `koanf:"compress"`
}

// Validate validates the configuration.
func (c ChromemConfig) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("%w: path required", ErrInvalidConfig)
	}
	return nil
}

// ChromemStore implements Store using chromem-go, an embeddable vector
// database with no external service dependency.
//
// Each source document gets its own collection, which makes delete-by-source
// and chunk counting direct operations. A search embeds the query once and
// runs the similarity query against every collection, merging the results.
type ChromemStore struct {
	db       *chromem.DB
	provider embeddings.Provider
	config   ChromemConfig
	logger   *zap.Logger
	metrics  *Metrics
}

// NewChromemStore creates a ChromemStore with the given configuration.
func NewChromemStore(config ChromemConfig, provider embeddings.Provider, logger *zap.Logger) (*ChromemStore, error) {
	if provider == nil {
		return nil, fmt.Errorf("%w: embedding provider is required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	if err := os.MkdirAll(config.Path, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating directory %s: %v", ErrStorage, config.Path, err)
	}

	db, err := chromem.NewPersistentDB(config.Path, config.Compress)
	if err != nil {
		return nil, fmt.Errorf("%w: creating chromem DB: %v", ErrStorage, err)
	}

	logger.Info("chromem store initialized",
		zap.String("path", config.Path),
		zap.Bool("compress", config.Compress),
		zap.Int("vector_size", provider.Dimension()),
	)

	return &ChromemStore{
		db:       db,
		provider: provider,
		config:   config,
		logger:   logger,
		metrics:  NewMetrics(logger),
	}, nil
}

// sourceCollection derives the collection name for a source filename.
// Filenames can contain characters chromem persistence dislikes, so the
// name is a digest prefix.
func sourceCollection(source string) string {
	sum := sha256.Sum256([]byte(source))
	return "src_" + hex.EncodeToString(sum[:])[:16]
}

// embeddingFunc adapts the provider for chromem collection construction.
func (s *ChromemStore) embeddingFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return s.provider.EmbedQuery(ctx, text)
	}
}

// AddChunks embeds and persists a batch of chunks. Embeddings for the whole
// batch are generated before anything is written, so an embedding failure
// leaves the store untouched.
func (s *ChromemStore) AddChunks(ctx context.Context, chunks []chunker.Chunk) error {
	start := time.Now()
	var opErr error
	defer func() {
		s.metrics.RecordAdd(ctx, time.Since(start), len(chunks), opErr)
	}()

	if len(chunks) == 0 {
		opErr = ErrEmptyChunks
		return opErr
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	vectors, err := s.provider.EmbedDocuments(ctx, texts)
	if err != nil {
		opErr = fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
		return opErr
	}

	createdAt := time.Now().UTC().Format(time.RFC3339)

	// Batches may span sources; group documents per source collection.
	bySource := make(map[string][]chromem.Document)
	for i, c := range chunks {
		bySource[c.Source] = append(bySource[c.Source], chromem.Document{
			ID:      c.ID,
			Content: c.Content,
			Metadata: map[string]string{
				"source":       c.Source,
				"chunk_index":  strconv.Itoa(c.Index),
				"total_chunks": strconv.Itoa(c.TotalChunks),
				"created_at":   createdAt,
			},
			Embedding: vectors[i],
		})
	}

	for source, docs := range bySource {
		collection, err := s.db.GetOrCreateCollection(sourceCollection(source), nil, s.embeddingFunc())
		if err != nil {
			opErr = fmt.Errorf("%w: getting collection for %s: %v", ErrStorage, source, err)
			return opErr
		}
		// Embeddings are already present, no concurrency needed here.
		if err := collection.AddDocuments(ctx, docs, 1); err != nil {
			opErr = fmt.Errorf("%w: adding documents for %s: %v", ErrStorage, source, err)
			return opErr
		}
	}

	s.logger.Debug("added chunks",
		zap.Int("count", len(chunks)),
		zap.Int("sources", len(bySource)),
	)
	return nil
}

// Search embeds the query once and runs the similarity query against every
// source collection, returning the best topK citations overall. Ties fall
// back to the underlying store's ordering.
func (s *ChromemStore) Search(ctx context.Context, query string, topK int) ([]Citation, error) {
	start := time.Now()
	var opErr error
	defer func() {
		s.metrics.RecordSearch(ctx, time.Since(start), opErr)
	}()

	if query == "" {
		opErr = fmt.Errorf("%w: query cannot be empty", ErrInvalidConfig)
		return nil, opErr
	}
	if topK <= 0 {
		opErr = fmt.Errorf("%w: topK must be positive, got %d", ErrInvalidConfig, topK)
		return nil, opErr
	}

	queryVector, err := s.provider.EmbedQuery(ctx, query)
	if err != nil {
		opErr = fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
		return nil, opErr
	}

	var citations []Citation
	for name := range s.db.ListCollections() {
		collection := s.db.GetCollection(name, s.embeddingFunc())
		if collection == nil {
			continue
		}
		count := collection.Count()
		if count == 0 {
			continue
		}
		n := topK
		if n > count {
			n = count
		}

		results, err := collection.QueryEmbedding(ctx, queryVector, n, nil, nil)
		if err != nil {
			opErr = fmt.Errorf("%w: querying collection %s: %v", ErrStorage, name, err)
			return nil, opErr
		}
		for _, r := range results {
			citations = append(citations, Citation{
				Source:  r.Metadata["source"],
				Excerpt: r.Content,
				Score:   r.Similarity,
			})
		}
	}

	sort.SliceStable(citations, func(i, j int) bool {
		return citations[i].Score > citations[j].Score
	})
	if len(citations) > topK {
		citations = citations[:topK]
	}

	s.logger.Debug("search completed",
		zap.Int("top_k", topK),
		zap.Int("results", len(citations)),
	)
	return citations, nil
}

// DeleteBySource removes all chunks of a source. Deleting a source that was
// never ingested is a no-op.
func (s *ChromemStore) DeleteBySource(ctx context.Context, source string) error {
	name := sourceCollection(source)
	if s.db.GetCollection(name, s.embeddingFunc()) == nil {
		return nil
	}
	if err := s.db.DeleteCollection(name); err != nil {
		return fmt.Errorf("%w: deleting chunks for %s: %v", ErrStorage, source, err)
	}
	s.logger.Debug("deleted chunks by source", zap.String("source", source))
	return nil
}

// CountBySource returns the number of chunks stored for a source.
func (s *ChromemStore) CountBySource(ctx context.Context, source string) (int, error) {
	collection := s.db.GetCollection(sourceCollection(source), s.embeddingFunc())
	if collection == nil {
		return 0, nil
	}
	return collection.Count(), nil
}

// Clear removes all chunks from the store.
func (s *ChromemStore) Clear(ctx context.Context) error {
	for name := range s.db.ListCollections() {
		if err := s.db.DeleteCollection(name); err != nil {
			return fmt.Errorf("%w: deleting collection %s: %v", ErrStorage, name, err)
		}
	}
	s.logger.Info("vector store cleared")
	return nil
}

// HasData reports whether any chunk is stored.
func (s *ChromemStore) HasData(ctx context.Context) (bool, error) {
	for name := range s.db.ListCollections() {
		collection := s.db.GetCollection(name, s.embeddingFunc())
		if collection != nil && collection.Count() > 0 {
			return true, nil
		}
	}
	return false, nil
}

// Close closes the store. chromem persists writes as they happen, so there
// is nothing to flush.
func (s *ChromemStore) Close() error {
	s.logger.Info("chromem store closed")
	return nil
}

// Compile-time check that ChromemStore implements Store.
var _ Store = (*ChromemStore)(nil)
