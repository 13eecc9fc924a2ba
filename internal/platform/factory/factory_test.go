package factory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/secondbrain/vault-service/internal/config"
)

func TestNewStoreSQLite(t *testing.T) {
	cfg := config.NewForTesting()
	cfg.SQLitePath = filepath.Join(t.TempDir(), "vaults.db")
	st, err := NewStore(cfg)
	if err != nil || st == nil {
		t.Fatalf("NewStore sqlite: st=%v err=%v", st, err)
	}

	cfg.DBDriver = "oracle"
	if _, err := NewStore(cfg); err == nil {
		t.Fatalf("NewStore must reject unknown drivers")
	}
}

func TestNewIndexSelection(t *testing.T) {
	cfg := config.NewForTesting()
	idx, err := NewIndex(context.Background(), cfg)
	if err != nil || idx == nil {
		t.Fatalf("NewIndex memory: idx=%v err=%v", idx, err)
	}

	cfg.VectorStore = "none"
	idx, err = NewIndex(context.Background(), cfg)
	if err != nil || idx != nil {
		t.Fatalf("NewIndex none must disable indexing: idx=%v err=%v", idx, err)
	}
}

func TestNewLLMSelection(t *testing.T) {
	cfg := config.NewForTesting()
	gen, err := NewLLM(cfg)
	if err != nil || gen != nil {
		t.Fatalf("NewLLM none: gen=%v err=%v", gen, err)
	}

	cfg.LLMProvider = "ollama"
	cfg.OllamaURL = "http://localhost:11434"
	cfg.LLMModel = "llama3"
	gen, err = NewLLM(cfg)
	if err != nil || gen == nil {
		t.Fatalf("NewLLM ollama: gen=%v err=%v", gen, err)
	}

	cfg.LLMProvider = "openai"
	if _, err := NewLLM(cfg); err == nil {
		t.Fatalf("NewLLM must reject unknown providers")
	}
}
