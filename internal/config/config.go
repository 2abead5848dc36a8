// Package config provides configuration loading for answerd.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/luminara-ai/answerd/internal/answer"
	"github.com/luminara-ai/answerd/internal/embeddings"
	"github.com/luminara-ai/answerd/internal/guardrails"
	"github.com/luminara-ai/answerd/internal/ingest"
	"github.com/luminara-ai/answerd/internal/llm"
	"github.com/luminara-ai/answerd/internal/logging"
	"github.com/luminara-ai/answerd/internal/vectorstore"
)

// ErrInvalidConfig indicates invalid configuration.
var ErrInvalidConfig = errors.New("invalid configuration")

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `koanf:"addr"`
}

// LedgerConfig holds the ingestion ledger configuration.
type LedgerConfig struct {
	// Path is the SQLite database file.
	Path string `koanf:"path"`
}

// Config is the root configuration for the daemon.
type Config struct {
	Server      ServerConfig              `koanf:"server"`
	Logging     logging.Config            `koanf:"logging"`
	VectorStore vectorstore.ChromemConfig `koanf:"vectorstore"`
	Ledger      LedgerConfig              `koanf:"ledger"`
	Embeddings  embeddings.Config         `koanf:"embeddings"`
	LLM         llm.Config                `koanf:"llm"`
	Ingest      ingest.Config             `koanf:"ingest"`
	Answer      answer.Config             `koanf:"answer"`
	Guardrails  guardrails.Config         `koanf:"guardrails"`
}

// ApplyDefaults sets default values across every section.
func (c *Config) ApplyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.VectorStore.Path == "" {
		c.VectorStore.Path = "data/vectors"
	}
	if c.Ledger.Path == "" {
		c.Ledger.Path = "data/ledger.db"
	}
	c.Logging.ApplyDefaults()
	c.Embeddings.ApplyDefaults()
	c.LLM.ApplyDefaults()
	c.Ingest.ApplyDefaults()
	c.Answer.ApplyDefaults()
	c.Guardrails.ApplyDefaults()
}

// Validate validates every section.
func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("%w: server addr required", ErrInvalidConfig)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Embeddings.Validate(); err != nil {
		return fmt.Errorf("embeddings: %w", err)
	}
	if err := c.LLM.Validate(); err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	if err := c.Ingest.Validate(); err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	if err := c.Answer.Validate(); err != nil {
		return fmt.Errorf("answer: %w", err)
	}
	return nil
}

// Load reads configuration from an optional YAML file, then overrides with
// environment variables.
//
// Precedence (highest to lowest):
//  1. Environment variables (SERVER_ADDR, EMBEDDINGS_BASE_URL, ...)
//  2. YAML config file
//  3. Defaults
//
// Environment variables map section and field through the first
// underscore: EMBEDDINGS_BASE_URL -> embeddings.base_url.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		content, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("ANSWERD_", ".", func(s string) string {
		// ANSWERD_EMBEDDINGS_BASE_URL -> embeddings.base_url
		trimmed := strings.ToLower(strings.TrimPrefix(s, "ANSWERD_"))
		parts := strings.SplitN(trimmed, "_", 2)
		if len(parts) == 1 {
			return trimmed
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}
