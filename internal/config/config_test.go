package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testYAML = `
server:
  addr: ":9090"
logging:
  level: debug
  format: console
embeddings:
  base_url: http://localhost:11434
  model: nomic-embed-text
  dimension: 768
  timeout: 15s
llm:
  base_url: http://localhost:11434
  model: llama3
ingest:
  docs_dir: knowledge
  chunk_size: 800
  chunk_overlap: 100
answer:
  top_k: 6
guardrails:
  min_words: 2
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFromFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, testYAML))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, "http://localhost:11434", cfg.Embeddings.BaseURL)
	assert.Equal(t, "nomic-embed-text", cfg.Embeddings.Model)
	assert.Equal(t, 768, cfg.Embeddings.Dimension)
	assert.Equal(t, 15*time.Second, cfg.Embeddings.Timeout)
	assert.Equal(t, "llama3", cfg.LLM.Model)
	assert.Equal(t, "knowledge", cfg.Ingest.DocsDir)
	assert.Equal(t, 800, cfg.Ingest.ChunkSize)
	assert.Equal(t, 6, cfg.Answer.TopK)
	assert.Equal(t, 2, cfg.Guardrails.MinWords)
}

func TestLoadAppliesDefaults(t *testing.T) {
	minimal := `
embeddings:
  base_url: http://localhost:11434
llm:
  base_url: http://localhost:11434
`
	cfg, err := Load(writeConfig(t, minimal))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "data/vectors", cfg.VectorStore.Path)
	assert.Equal(t, "data/ledger.db", cfg.Ledger.Path)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 4, cfg.Answer.TopK)
	assert.Equal(t, 1000, cfg.Ingest.ChunkSize)
	assert.NotEmpty(t, cfg.Guardrails.DomainKeywords)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("ANSWERD_SERVER_ADDR", ":7070")
	t.Setenv("ANSWERD_EMBEDDINGS_BASE_URL", "http://env-host:1234")
	t.Setenv("ANSWERD_LLM_BASE_URL", "http://env-host:1234")
	t.Setenv("ANSWERD_LLM_API_KEY", "env-key")

	cfg, err := Load(writeConfig(t, testYAML))
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, "http://env-host:1234", cfg.Embeddings.BaseURL)
	assert.Equal(t, "env-key", cfg.LLM.APIKey)
	// File values without env overrides survive.
	assert.Equal(t, "knowledge", cfg.Ingest.DocsDir)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "embeddings: [whoops"))
	require.Error(t, err)
}

func TestLoadValidationFailure(t *testing.T) {
	bad := `
embeddings:
  base_url: http://localhost:11434
llm:
  base_url: http://localhost:11434
answer:
  temperature: 9
`
	_, err := Load(writeConfig(t, bad))
	require.Error(t, err)
	assert.ErrorContains(t, err, "answer")
}
