package searchindex

import (
	"context"
	"testing"
)

func upsert(t *testing.T, idx Index, id, vaultID, title, content string, vec []float32) {
	t.Helper()
	err := idx.UpsertNote(context.Background(), id, vec, map[string]interface{}{
		"vaultId": vaultID,
		"title":   title,
		"path":    title + ".md",
		"content": content,
	})
	if err != nil {
		t.Fatalf("UpsertNote(%s): %v", id, err)
	}
}

func TestMemoryIndex_VectorSearchRanksByCosine(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()

	upsert(t, idx, "n1", "v1", "Go Concurrency", "goroutines and channels", []float32{1, 0, 0})
	upsert(t, idx, "n2", "v1", "Cooking", "pasta recipes", []float32{0, 1, 0})
	upsert(t, idx, "n3", "v2", "Go Basics", "types and slices", []float32{1, 0, 0})

	hits, err := idx.Search(ctx, "v1", "go", []float32{0.9, 0.1, 0}, 10, 0.6)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits scoped to v1, got %d", len(hits))
	}
	if hits[0].NoteID != "n1" {
		t.Fatalf("expected n1 ranked first, got %s", hits[0].NoteID)
	}
	if hits[0].Score <= hits[1].Score {
		t.Fatalf("scores not descending: %f, %f", hits[0].Score, hits[1].Score)
	}
}

func TestMemoryIndex_KeywordFallbackWithoutVector(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()

	upsert(t, idx, "n1", "v1", "Gardening", "tomatoes need sun and water", nil)
	upsert(t, idx, "n2", "v1", "Finance", "budget spreadsheets", nil)

	hits, err := idx.Search(ctx, "v1", "tomatoes water", nil, 10, 0.6)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].NoteID != "n1" {
		t.Fatalf("keyword fallback: got %+v", hits)
	}
}

func TestMemoryIndex_AlphaBlendsVectorAndKeyword(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()

	// n1 matches the query vector only; n2 matches the keyword only.
	upsert(t, idx, "n1", "v1", "Unrelated", "nothing relevant here", []float32{1, 0})
	upsert(t, idx, "n2", "v1", "Garden", "tomatoes in the garden", []float32{0, 1})

	hits, err := idx.Search(ctx, "v1", "tomatoes", []float32{1, 0}, 10, 1)
	if err != nil {
		t.Fatalf("Search alpha=1: %v", err)
	}
	if len(hits) == 0 || hits[0].NoteID != "n1" {
		t.Fatalf("alpha=1 must rank by vector similarity: %+v", hits)
	}

	hits, err = idx.Search(ctx, "v1", "tomatoes", []float32{1, 0}, 10, 0)
	if err != nil {
		t.Fatalf("Search alpha=0: %v", err)
	}
	if len(hits) != 1 || hits[0].NoteID != "n2" {
		t.Fatalf("alpha=0 must rank by keyword match alone: %+v", hits)
	}
}

func TestMemoryIndex_TopKLimit(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()

	upsert(t, idx, "a", "v1", "A", "x", []float32{1, 0})
	upsert(t, idx, "b", "v1", "B", "x", []float32{0.9, 0.1})
	upsert(t, idx, "c", "v1", "C", "x", []float32{0.8, 0.2})

	hits, err := idx.Search(ctx, "v1", "x", []float32{1, 0}, 2, 0.6)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("topK not applied: %d", len(hits))
	}
}

func TestMemoryIndex_DeleteVaultRemovesAllNotes(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()

	upsert(t, idx, "n1", "v1", "One", "alpha", []float32{1})
	upsert(t, idx, "n2", "v1", "Two", "alpha", []float32{1})
	upsert(t, idx, "n3", "v2", "Three", "alpha", []float32{1})

	if err := idx.DeleteVault(ctx, "v1"); err != nil {
		t.Fatalf("DeleteVault: %v", err)
	}
	hits, _ := idx.Search(ctx, "v1", "alpha", []float32{1}, 10, 0.6)
	if len(hits) != 0 {
		t.Fatalf("v1 notes survived delete: %+v", hits)
	}
	hits, _ = idx.Search(ctx, "v2", "alpha", []float32{1}, 10, 0.6)
	if len(hits) != 1 {
		t.Fatalf("v2 notes affected by v1 delete: %+v", hits)
	}
}

func TestMemoryIndex_DeleteNote(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()

	upsert(t, idx, "n1", "v1", "One", "alpha", []float32{1})
	if err := idx.DeleteNote(ctx, "v1", "n1"); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	hits, _ := idx.Search(ctx, "v1", "alpha", []float32{1}, 10, 0.6)
	if len(hits) != 0 {
		t.Fatalf("note survived delete: %+v", hits)
	}
}
