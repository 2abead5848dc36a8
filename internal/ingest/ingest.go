// Package ingest walks a document directory and synchronizes changed
// documents into the vector store, tracked through the ingestion ledger.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/luminara-ai/answerd/internal/chunker"
	"github.com/luminara-ai/answerd/internal/ledger"
	"github.com/luminara-ai/answerd/internal/vectorstore"
)

var (
	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrDirectory indicates the document directory cannot be read.
	ErrDirectory = errors.New("document directory unreadable")
)

// IngestionError records which document a run failed on. Documents
// ingested before the failure remain in the store and ledger.
type IngestionError struct {
	Document string
	Err      error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("ingesting %s: %v", e.Document, e.Err)
}

func (e *IngestionError) Unwrap() error {
	return e.Err
}

// Summary reports the outcome of a successful ingestion run.
type Summary struct {
	Scanned   int           `json:"scanned"`
	Ingested  int           `json:"ingested"`
	Skipped   int           `json:"skipped"`
	Chunks    int           `json:"chunks"`
	Elapsed   time.Duration `json:"-"`
	ElapsedMs int64         `json:"elapsed_ms"`
}

// Config holds configuration for document ingestion.
type Config struct {
	// DocsDir is the directory scanned for documents.
	DocsDir string `koanf:"docs_dir"`

	// ChunkSize is the maximum chunk length in characters.
	ChunkSize int `koanf:"chunk_size"`

	// ChunkOverlap is the approximate overlap between adjacent chunks.
	ChunkOverlap int `koanf:"chunk_overlap"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.DocsDir == "" {
		c.DocsDir = "docs"
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = 1000
	}
	if c.ChunkOverlap == 0 {
		c.ChunkOverlap = 150
	}
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.ChunkSize < 1 {
		return fmt.Errorf("%w: chunk_size must be at least 1", ErrInvalidConfig)
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("%w: chunk_overlap must be non-negative", ErrInvalidConfig)
	}
	return nil
}

// Controller drives ingestion runs. Documents are processed one at a
// time in filename order so runs are deterministic.
type Controller struct {
	config Config
	store  vectorstore.Store
	ledger *ledger.Ledger
	logger *zap.Logger
}

// NewController creates an ingestion controller.
func NewController(config Config, store vectorstore.Store, lgr *ledger.Ledger, logger *zap.Logger) (*Controller, error) {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	if store == nil {
		return nil, fmt.Errorf("%w: vector store required", ErrInvalidConfig)
	}
	if lgr == nil {
		return nil, fmt.Errorf("%w: ledger required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Controller{
		config: config,
		store:  store,
		ledger: lgr,
		logger: logger,
	}, nil
}

// IngestAll synchronizes the document directory into the vector store.
// Unchanged documents are skipped. The first document failure aborts the
// run and propagates as an IngestionError; documents ingested before it
// stay, and the failed document carries no ledger record so the next run
// retries it.
func (c *Controller) IngestAll(ctx context.Context) (*Summary, error) {
	start := time.Now()

	docs, err := c.listDocuments()
	if err != nil {
		return nil, err
	}

	summary := &Summary{Scanned: len(docs)}
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		added, err := c.ingestOne(ctx, doc)
		if err != nil {
			ingErr := &IngestionError{Document: filepath.Base(doc), Err: err}
			c.logger.Error("document ingestion failed",
				zap.String("document", ingErr.Document),
				zap.Error(err),
			)
			return nil, ingErr
		}
		if added < 0 {
			summary.Skipped++
			continue
		}
		summary.Ingested++
		summary.Chunks += added
	}

	summary.Elapsed = time.Since(start)
	summary.ElapsedMs = summary.Elapsed.Milliseconds()
	c.logger.Info("ingestion run finished",
		zap.Int("scanned", summary.Scanned),
		zap.Int("ingested", summary.Ingested),
		zap.Int("skipped", summary.Skipped),
		zap.Int("chunks", summary.Chunks),
		zap.Duration("elapsed", summary.Elapsed),
	)
	return summary, nil
}

// ReingestAll clears the vector store and ingests every document from
// scratch.
func (c *Controller) ReingestAll(ctx context.Context) (*Summary, error) {
	if err := c.store.Clear(ctx); err != nil {
		return nil, fmt.Errorf("clearing vector store: %w", err)
	}
	c.logger.Info("vector store cleared for full reingestion")
	return c.IngestAll(ctx)
}

// listDocuments returns the eligible documents in filename order.
func (c *Controller) listDocuments() ([]string, error) {
	entries, err := os.ReadDir(c.config.DocsDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDirectory, err)
	}

	var docs []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".txt" && ext != ".md" {
			continue
		}
		docs = append(docs, filepath.Join(c.config.DocsDir, entry.Name()))
	}
	sort.Strings(docs)
	return docs, nil
}

// ingestOne processes a single document. It returns the number of chunks
// added, or -1 when the document was skipped as unchanged. Stale chunks
// are removed before new ones are written so a document is never half
// replaced across runs.
func (c *Controller) ingestOne(ctx context.Context, path string) (int, error) {
	name := filepath.Base(path)

	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading document: %w", err)
	}

	needed, err := c.ledger.NeedsReingestion(ctx, name, raw, c.store)
	if err != nil {
		return 0, fmt.Errorf("checking ledger: %w", err)
	}
	if !needed {
		c.logger.Debug("document unchanged", zap.String("document", name))
		return -1, nil
	}

	if err := c.store.DeleteBySource(ctx, name); err != nil {
		return 0, fmt.Errorf("removing stale chunks: %w", err)
	}

	text := chunker.Clean(string(raw))
	chunks := chunker.Split(text, name, c.config.ChunkSize, c.config.ChunkOverlap)
	if len(chunks) == 0 {
		c.logger.Warn("document produced no chunks", zap.String("document", name))
		return -1, nil
	}

	if err := c.store.AddChunks(ctx, chunks); err != nil {
		return 0, fmt.Errorf("storing chunks: %w", err)
	}

	if err := c.ledger.Upsert(ctx, name, raw); err != nil {
		return 0, fmt.Errorf("recording ingestion: %w", err)
	}

	c.logger.Info("document ingested",
		zap.String("document", name),
		zap.Int("chunks", len(chunks)),
	)
	return len(chunks), nil
}
