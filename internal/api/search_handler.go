package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	respond "github.com/secondbrain/vault-service/internal/api/respond"
	"github.com/secondbrain/vault-service/internal/model"
	"github.com/secondbrain/vault-service/internal/services"
)

// SearchHandler handles POST /api/search
type SearchHandler struct {
	svc *services.SearchService
}

// NewSearchHandler instantiates the handler with dependencies.
func NewSearchHandler(svc *services.SearchService) *SearchHandler {
	return &SearchHandler{svc: svc}
}

type searchRequest struct {
	VaultID string `json:"vaultId"`
	Query   string `json:"query"`
	TopK    int    `json:"topK"`
}

// HandleSearch processes incoming search requests.
func (h *SearchHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}

	hits, err := h.svc.Search(r.Context(), req.VaultID, req.Query, req.TopK)
	if err != nil {
		if errors.Is(err, model.ErrValidation) {
			respond.WriteBadRequest(w, err.Error())
			return
		}
		log.Warn().Err(err).Str("vaultId", req.VaultID).Msg("vector search failed")
		respond.WriteError(w, http.StatusInternalServerError, "search service unavailable")
		return
	}
	if hits == nil {
		hits = []model.SearchHit{}
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"hits":  hits,
		"count": len(hits),
	})
}
