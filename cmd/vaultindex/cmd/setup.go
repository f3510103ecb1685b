package cmd

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vaultindex/vaultindex/internal/chunk"
	"github.com/vaultindex/vaultindex/internal/config"
	"github.com/vaultindex/vaultindex/internal/embed"
	verrors "github.com/vaultindex/vaultindex/internal/errors"
	"github.com/vaultindex/vaultindex/internal/markdown"
	"github.com/vaultindex/vaultindex/internal/output"
	"github.com/vaultindex/vaultindex/internal/pipeline"
	"github.com/vaultindex/vaultindex/internal/store"
	"github.com/vaultindex/vaultindex/internal/vault"
)

// errReported marks failures a command has already printed, so the
// top-level error printer stays quiet about them.
var errReported = stderrors.New("failure already reported")

// vaultArg returns the positional vault path, defaulting to the
// working directory.
func vaultArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

// resolveVault resolves the vault path and verifies it is a directory.
func resolveVault(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("vault not found at %s", path)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("vault not found at %s", abs)
	}
	return abs, nil
}

// loadConfig loads the vault's layered configuration and folds in any
// flags the user set on this command. Flags win over file and
// environment values, and the merged result is validated again.
func loadConfig(cmd *cobra.Command, vaultPath string) (*config.Config, error) {
	cfg, err := config.Load(vaultPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("chunk-size") {
		cfg.Chunking.ChunkSize, _ = flags.GetInt("chunk-size")
	}
	if flags.Changed("chunk-overlap") {
		cfg.Chunking.ChunkOverlap, _ = flags.GetInt("chunk-overlap")
	}
	if flags.Changed("collection") {
		cfg.Qdrant.Collection, _ = flags.GetString("collection")
	}
	if flags.Changed("batch-size") {
		cfg.Import.BatchSize, _ = flags.GetInt("batch-size")
	}
	if flags.Changed("workers") {
		cfg.Import.Workers, _ = flags.GetInt("workers")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newPipeline wires the document cache, scanner and assembler into a
// driver for the vault. The scanner is returned too; commands use it
// for their pre-run discovery.
func newPipeline(vaultPath string, cfg *config.Config, progress pipeline.Progress) (*pipeline.Driver, *vault.Scanner, error) {
	cache, err := vault.NewDocCache(0, markdown.YAMLFrontMatter{})
	if err != nil {
		return nil, nil, err
	}
	scanner := vault.NewScanner(vaultPath, cache)
	assembler := chunk.NewAssembler(chunk.Options{
		MaxSize:    cfg.Chunking.ChunkSize,
		Overlap:    cfg.Chunking.ChunkOverlap,
		MinSection: cfg.Chunking.MinSection,
	})

	driver, err := pipeline.New(pipeline.Dependencies{
		Scanner:   scanner,
		Cache:     cache,
		Assembler: assembler,
		Progress:  progress,
	})
	if err != nil {
		return nil, nil, err
	}
	return driver, scanner, nil
}

// newEmbedder builds the configured embedding provider.
func newEmbedder(cfg *config.Config) (embed.Embedder, error) {
	return embed.New(embed.Config{
		Provider:  cfg.Embeddings.Provider,
		CacheSize: cfg.Embeddings.CacheSize,
		Ollama: embed.OllamaConfig{
			Host:       cfg.Embeddings.OllamaHost,
			Model:      cfg.Embeddings.Model,
			BatchSize:  cfg.Embeddings.BatchSize,
			Dimensions: cfg.Embeddings.Dimensions,
		},
		OpenAI: embed.OpenAIConfig{
			APIKey:     cfg.Embeddings.APIKey,
			BaseURL:    cfg.Embeddings.OpenAIBaseURL,
			Model:      cfg.Embeddings.Model,
			BatchSize:  cfg.Embeddings.BatchSize,
			Dimensions: cfg.Embeddings.Dimensions,
		},
	})
}

// openStore builds the embedder and the Qdrant handle. The store owns
// the embedder from here on; Close releases both.
func openStore(cfg *config.Config) (*store.QdrantStore, error) {
	embedder, err := newEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	st, err := store.NewQdrantStore(store.Config{
		Host:      cfg.Qdrant.Host,
		Port:      cfg.Qdrant.Port,
		APIKey:    cfg.Qdrant.APIKey,
		UseTLS:    cfg.Qdrant.UseTLS,
		Metric:    cfg.Qdrant.Metric,
		BatchSize: cfg.Import.BatchSize,
	}, embedder)
	if err != nil {
		_ = embedder.Close()
		return nil, err
	}
	return st, nil
}

// openQueryStore builds a store handle that reads and deletes but
// never embeds. Stats and clear keep working while the embedding
// provider is down or unconfigured.
func openQueryStore(cfg *config.Config) (*store.QdrantStore, error) {
	return store.NewQdrantStore(store.Config{
		Host:   cfg.Qdrant.Host,
		Port:   cfg.Qdrant.Port,
		APIKey: cfg.Qdrant.APIKey,
		UseTLS: cfg.Qdrant.UseTLS,
		Metric: cfg.Qdrant.Metric,
	}, embed.NewStaticEmbedder())
}

// userMessage renders err for console display, preferring the
// underlying cause over the structured wrapper.
func userMessage(err error) string {
	var ve *verrors.Error
	if stderrors.As(err, &ve) {
		if ve.Cause != nil {
			return ve.Cause.Error()
		}
		return ve.Message
	}
	return err.Error()
}

// newConsole builds the styled console over the command's streams.
func newConsole(cmd *cobra.Command) *output.Console {
	return output.NewConsole(cmd.OutOrStdout(), cmd.ErrOrStderr())
}
