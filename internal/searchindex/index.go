package searchindex

import (
	"context"

	"github.com/secondbrain/vault-service/internal/model"
)

// Embeddings produces vector representations for text.
type Embeddings interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Index provides vector search over vault notes and index maintenance.
type Index interface {
	Search(ctx context.Context, vaultID, query string, vec []float32, topK int, alpha float32) ([]model.SearchHit, error)

	// Upserts (best-effort; implementations may ignore or approximate)
	UpsertNote(ctx context.Context, noteID string, vec []float32, payload map[string]interface{}) error

	// Synchronous hard-deletes.
	DeleteNote(ctx context.Context, vaultID, noteID string) error
	DeleteVault(ctx context.Context, vaultID string) error
}

// HealthPinger is optionally implemented by an Index to expose specialized
// health check logic. Returns nil when healthy.
type HealthPinger interface {
	HealthPing(ctx context.Context) error
}
