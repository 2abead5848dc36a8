package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/luminara-ai/answerd/internal/ingest"
)

const summaryPrecision = time.Millisecond

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest new and changed documents",
	Long: `Synchronize the document directory into the vector store.

Unchanged documents are detected through the ingestion ledger and
skipped, so repeated runs are cheap.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIngestion(func(ctx context.Context, ctrl *ingest.Controller) (*ingest.Summary, error) {
			return ctrl.IngestAll(ctx)
		})
	},
}

var reingestCmd = &cobra.Command{
	Use:   "reingest",
	Short: "Rebuild the vector store from scratch",
	Long: `Clear the vector store and ingest every document again.

Use this after changing the chunking or embedding configuration, since
stored vectors are not migrated automatically.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIngestion(func(ctx context.Context, ctrl *ingest.Controller) (*ingest.Summary, error) {
			return ctrl.ReingestAll(ctx)
		})
	},
}

func runIngestion(run func(context.Context, *ingest.Controller) (*ingest.Summary, error)) error {
	d, err := buildDeps()
	if err != nil {
		return err
	}
	defer d.close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary, err := run(ctx, d.ctrl)
	if err != nil {
		return err
	}

	fmt.Printf("scanned %d, ingested %d, skipped %d, chunks %d (%s)\n",
		summary.Scanned, summary.Ingested, summary.Skipped, summary.Chunks,
		summary.Elapsed.Round(summaryPrecision))
	return nil
}
