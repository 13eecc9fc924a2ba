package searchindex

import (
	"context"
	"fmt"
	"time"

	weaviate "github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"
)

// BootstrapWeaviate ensures the VaultNote class exists. Vectors are supplied
// by the embeddings provider, so the class vectorizer is "none".
func BootstrapWeaviate(ctx context.Context, baseURL string) error {
	cfg := weaviate.Config{Scheme: "http", Host: baseURL}
	cl, err := weaviate.NewClient(cfg)
	if err != nil {
		return err
	}

	cctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	note := &models.Class{
		Class:      noteClass,
		Vectorizer: "none",
		Properties: []*models.Property{
			{Name: "noteId", DataType: []string{"uuid"}},
			{Name: "vaultId", DataType: []string{"uuid"}},
			{Name: "title", DataType: []string{"text"}},
			{Name: "path", DataType: []string{"text"}},
			{Name: "content", DataType: []string{"text"}},
			{Name: "creationTime", DataType: []string{"date"}},
		},
	}

	if err := ensureClass(cctx, cl, note); err != nil {
		return fmt.Errorf("bootstrap %s: %w", noteClass, err)
	}
	return nil
}

func ensureClass(ctx context.Context, cl *weaviate.Client, desired *models.Class) error {
	ex, err := cl.Schema().ClassGetter().WithClassName(desired.Class).Do(ctx)
	if err == nil && ex != nil {
		return nil
	}
	if err := cl.Schema().ClassCreator().WithClass(desired).Do(ctx); err != nil {
		return fmt.Errorf("create class %s: %w", desired.Class, err)
	}
	return nil
}
