package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/luminara-ai/answerd/internal/answer"
	"github.com/luminara-ai/answerd/internal/config"
	"github.com/luminara-ai/answerd/internal/embeddings"
	"github.com/luminara-ai/answerd/internal/guardrails"
	answerhttp "github.com/luminara-ai/answerd/internal/http"
	"github.com/luminara-ai/answerd/internal/ingest"
	"github.com/luminara-ai/answerd/internal/ledger"
	"github.com/luminara-ai/answerd/internal/llm"
	"github.com/luminara-ai/answerd/internal/logging"
	"github.com/luminara-ai/answerd/internal/vectorstore"
)

var ingestOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the question answering server",
	Long: `Start the HTTP server.

On startup the document directory is ingested when the vector store is
empty, or always with --ingest-on-start. The server then answers
POST /api/v1/ask requests until interrupted.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&ingestOnStart, "ingest-on-start", false, "run an ingestion pass on startup even if the store has data")
}

// deps bundles everything the serve and ingestion commands wire up.
type deps struct {
	cfg    *config.Config
	logger *zap.Logger
	ledger *ledger.Ledger
	store  vectorstore.Store
	ctrl   *ingest.Controller
}

// buildDeps wires configuration, logging, storage, and ingestion.
func buildDeps() (*deps, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}

	lgr, err := ledger.Open(cfg.Ledger.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}

	embedder, err := embeddings.NewService(cfg.Embeddings, logger)
	if err != nil {
		lgr.Close()
		return nil, fmt.Errorf("creating embedding service: %w", err)
	}

	store, err := vectorstore.NewChromemStore(cfg.VectorStore, embedder, logger)
	if err != nil {
		lgr.Close()
		return nil, fmt.Errorf("opening vector store: %w", err)
	}

	ctrl, err := ingest.NewController(cfg.Ingest, store, lgr, logger)
	if err != nil {
		store.Close()
		lgr.Close()
		return nil, fmt.Errorf("creating ingestion controller: %w", err)
	}

	return &deps{cfg: cfg, logger: logger, ledger: lgr, store: store, ctrl: ctrl}, nil
}

// close releases the storage layers.
func (d *deps) close() {
	if err := d.store.Close(); err != nil {
		d.logger.Warn("closing vector store", zap.Error(err))
	}
	if err := d.ledger.Close(); err != nil {
		d.logger.Warn("closing ledger", zap.Error(err))
	}
	_ = d.logger.Sync()
}

func runServe(cmd *cobra.Command, args []string) error {
	d, err := buildDeps()
	if err != nil {
		return err
	}
	defer d.close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := startupIngestion(ctx, d); err != nil {
		return err
	}

	completer, err := llm.NewClient(d.cfg.LLM, d.logger)
	if err != nil {
		return fmt.Errorf("creating completion client: %w", err)
	}
	defer completer.Close()

	guards, err := guardrails.New(&d.cfg.Guardrails)
	if err != nil {
		return fmt.Errorf("building guardrail engine: %w", err)
	}

	svc, err := answer.NewService(d.cfg.Answer, d.store, completer, guards, d.logger)
	if err != nil {
		return fmt.Errorf("creating answer service: %w", err)
	}

	srv, err := answerhttp.NewServer(d.cfg.Server.Addr, svc, d.ctrl, d.logger)
	if err != nil {
		return fmt.Errorf("creating http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	d.logger.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}

// startupIngestion ingests the document directory when the store is empty
// or when forced by flag. A missing directory is not fatal; the server can
// still answer from previously ingested data.
func startupIngestion(ctx context.Context, d *deps) error {
	hasData, err := d.store.HasData(ctx)
	if err != nil {
		return fmt.Errorf("checking vector store: %w", err)
	}
	if hasData && !ingestOnStart {
		d.logger.Info("vector store already populated, skipping startup ingestion")
		return nil
	}

	if _, err := d.ctrl.IngestAll(ctx); err != nil {
		if errors.Is(err, ingest.ErrDirectory) {
			d.logger.Warn("document directory unavailable, starting without ingestion",
				zap.String("docs_dir", d.cfg.Ingest.DocsDir),
				zap.Error(err),
			)
			return nil
		}
		return fmt.Errorf("startup ingestion: %w", err)
	}
	return nil
}

