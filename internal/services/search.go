package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/secondbrain/vault-service/internal/embeddings"
	"github.com/secondbrain/vault-service/internal/model"
	"github.com/secondbrain/vault-service/internal/searchindex"
)

// SearchService answers note queries by embedding the query text and running
// a hybrid (keyword + vector) search scoped to one vault.
type SearchService struct {
	idx      searchindex.Index
	embedder embeddings.Provider
	alpha    float32
	log      zerolog.Logger
}

func NewSearchService(idx searchindex.Index, emb embeddings.Provider, alpha float32, log zerolog.Logger) *SearchService {
	return &SearchService{idx: idx, embedder: emb, alpha: alpha, log: log}
}

// Search embeds query and delegates to the index. Empty arguments are
// rejected with model.ErrValidation before any backend is touched. Without an
// embedder the index falls back to keyword-only scoring.
func (s *SearchService) Search(ctx context.Context, vaultID, query string, topK int) ([]model.SearchHit, error) {
	if vaultID == "" {
		return nil, fmt.Errorf("%w: vaultId is required", model.ErrValidation)
	}
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", model.ErrValidation)
	}
	if topK <= 0 {
		topK = 10
	}
	var vec []float32
	if s.embedder != nil {
		var err error
		vec, err = s.embedder.Embed(ctx, query)
		if err != nil {
			s.log.Warn().Err(err).Str("query", query).Msg("embedding failed")
			return nil, err
		}
	}
	return s.idx.Search(ctx, vaultID, query, vec, topK, s.alpha)
}
