package factory

import (
	"context"
	"fmt"

	"github.com/secondbrain/vault-service/internal/config"
	"github.com/secondbrain/vault-service/internal/embeddings"
	"github.com/secondbrain/vault-service/internal/embeddings/ollama"
	"github.com/secondbrain/vault-service/internal/llm"
	"github.com/secondbrain/vault-service/internal/searchindex"
	"github.com/secondbrain/vault-service/internal/store"
	"github.com/secondbrain/vault-service/internal/store/postgres"
	"github.com/secondbrain/vault-service/internal/store/sqlite"
)

// NewStore builds the relational store selected by the configuration.
func NewStore(cfg *config.Config) (store.Store, error) {
	switch cfg.DBDriver {
	case "sqlite":
		return sqlite.New(cfg.SQLitePath)
	case "postgres":
		db, err := postgres.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return postgres.NewWithDB(db), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER: %s", cfg.DBDriver)
	}
}

// NewIndex builds the vector index. "none" disables indexing and search.
func NewIndex(ctx context.Context, cfg *config.Config) (searchindex.Index, error) {
	switch cfg.VectorStore {
	case "memory":
		return searchindex.NewMemoryIndex(), nil
	case "weaviate":
		if err := searchindex.BootstrapWeaviate(ctx, cfg.WeaviateURL); err != nil {
			return nil, err
		}
		return searchindex.NewWeaviateNativeIndex(cfg.WeaviateURL)
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported VECTOR_STORE: %s", cfg.VectorStore)
	}
}

// NewEmbedder builds the embeddings provider, nil when disabled.
func NewEmbedder(cfg *config.Config) (embeddings.Provider, error) {
	switch cfg.EmbedProvider {
	case "ollama":
		return ollama.New(cfg.EmbedModel), nil
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported EMBED_PROVIDER: %s", cfg.EmbedProvider)
	}
}

// NewLLM builds the optional text-generation provider, nil when disabled.
func NewLLM(cfg *config.Config) (llm.Provider, error) {
	return llm.New(cfg.LLMProvider, cfg.OllamaURL, cfg.LLMModel)
}
