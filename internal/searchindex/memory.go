package searchindex

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/secondbrain/vault-service/internal/model"
)

// memoryIndex is an Index kept entirely in process memory. It exists for
// local development and tests, where running Weaviate is overkill.
type memoryIndex struct {
	mu   sync.RWMutex
	docs map[string]memoryDoc // noteID -> doc
}

type memoryDoc struct {
	vec     []float32
	vaultID string
	title   string
	path    string
	content string
}

// NewMemoryIndex returns an in-process Index using cosine similarity.
func NewMemoryIndex() Index {
	return &memoryIndex{docs: make(map[string]memoryDoc)}
}

func (m *memoryIndex) UpsertNote(ctx context.Context, noteID string, vec []float32, payload map[string]interface{}) error {
	str := func(k string) string {
		s, _ := payload[k].(string)
		return s
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[noteID] = memoryDoc{
		vec:     append([]float32(nil), vec...),
		vaultID: str("vaultId"),
		title:   str("title"),
		path:    str("path"),
		content: str("content"),
	}
	return nil
}

func (m *memoryIndex) Search(ctx context.Context, vaultID, query string, vec []float32, topK int, alpha float32) ([]model.SearchHit, error) {
	if topK <= 0 {
		topK = 10
	}
	a := float64(alpha)
	if a < 0 {
		a = 0
	}
	if a > 1 {
		a = 1
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	hits := make([]model.SearchHit, 0)
	for id, d := range m.docs {
		if vaultID != "" && d.vaultID != vaultID {
			continue
		}
		// Hybrid scoring per the weaviate convention: alpha weights the
		// vector similarity, 1-alpha the keyword match. With no vector on
		// either side the keyword score stands alone.
		kw := keywordScore(query, d.title+" "+d.content)
		var score float64
		if len(vec) > 0 && len(d.vec) > 0 {
			score = a*cosine(vec, d.vec) + (1-a)*kw
		} else {
			score = kw
		}
		if score <= 0 {
			continue
		}
		hits = append(hits, model.SearchHit{
			NoteID:  id,
			VaultID: d.vaultID,
			Title:   d.title,
			Path:    d.path,
			Content: d.content,
			Score:   score,
		})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

func (m *memoryIndex) DeleteNote(ctx context.Context, vaultID, noteID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, noteID)
	return nil
}

func (m *memoryIndex) DeleteVault(ctx context.Context, vaultID string) error {
	if vaultID == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, d := range m.docs {
		if d.vaultID == vaultID {
			delete(m.docs, id)
		}
	}
	return nil
}

// HealthPing always succeeds; the in-memory index has no external dependency.
func (m *memoryIndex) HealthPing(ctx context.Context) error { return nil }

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// keywordScore is the degraded path when no query vector is available:
// fraction of query terms present in the document text.
func keywordScore(query, text string) float64 {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	matched := 0
	for _, t := range terms {
		if strings.Contains(lower, t) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}
