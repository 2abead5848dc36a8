// Package main implements the answerd daemon and its maintenance commands.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// configPath is the optional YAML config file.
	configPath string
	// version information (set via ldflags during build)
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "answerd",
	Short: "Retrieval-grounded question answering daemon",
	Long: `answerd serves questions answered from a local knowledge base.

Documents are chunked, embedded, and stored in an embedded vector
database. Questions pass through guardrail policies, are grounded on the
most similar chunks, and answered by a completion model with citations.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(reingestCmd)
}
