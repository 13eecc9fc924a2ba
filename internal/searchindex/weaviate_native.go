package searchindex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	weaviate "github.com/weaviate/weaviate-go-client/v5/weaviate"
	filters "github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	gql "github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"

	"github.com/secondbrain/vault-service/internal/model"
)

const noteClass = "VaultNote"

// weavNative is a native implementation of Index using the Weaviate Go client.
type weavNative struct {
	client  *weaviate.Client
	baseURL string // host:port without scheme
}

// NewWeaviateNativeIndex constructs an Index backed by Weaviate at baseURL.
// baseURL should be host:port (without scheme), e.g., "localhost:8081".
func NewWeaviateNativeIndex(baseURL string) (Index, error) {
	cfg := weaviate.Config{Scheme: "http", Host: baseURL}
	cl, err := weaviate.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &weavNative{client: cl, baseURL: baseURL}, nil
}

func (w *weavNative) Search(ctx context.Context, vaultID, query string, vec []float32, topK int, alpha float32) ([]model.SearchHit, error) {
	log.Info().Str("vaultId", vaultID).Str("query", query).Int("topK", topK).Float32("alpha", alpha).Int("vectorLength", len(vec)).Msg("weaviate search starting")

	hy := (&gql.HybridArgumentBuilder{}).
		WithQuery(query).
		WithVector(vec).
		WithAlpha(alpha).
		WithProperties([]string{"title", "content"})

	where := filters.Where().WithPath([]string{"vaultId"}).WithOperator(filters.Equal).WithValueText(vaultID)

	req := w.client.GraphQL().Get().
		WithClassName(noteClass).
		WithWhere(where).
		WithHybrid(hy).
		WithLimit(topK).
		WithFields(
			gql.Field{Name: "noteId"},
			gql.Field{Name: "vaultId"},
			gql.Field{Name: "title"},
			gql.Field{Name: "path"},
			gql.Field{Name: "content"},
			gql.Field{Name: "_additional", Fields: []gql.Field{{Name: "score"}}},
		)

	resp, err := req.Do(ctx)
	if err != nil {
		log.Error().Err(err).Str("vaultId", vaultID).Msg("weaviate graphql query failed")
		return nil, err
	}
	if len(resp.Errors) > 0 {
		log.Error().Interface("errors", resp.Errors).Str("vaultId", vaultID).Msg("weaviate graphql errors")
		return nil, fmt.Errorf("weaviate graphql: %s", formatGraphQLErrors(resp.Errors))
	}

	getData, ok := resp.Data["Get"].(map[string]interface{})
	if !ok {
		log.Warn().Str("vaultId", vaultID).Msg("weaviate response has no Get data")
		return nil, nil
	}
	noteVal := getData[noteClass]
	if noteVal == nil {
		return []model.SearchHit{}, nil
	}
	raw, ok := noteVal.([]interface{})
	if !ok {
		log.Warn().Str("vaultId", vaultID).Interface("noteVal", noteVal).Msg("VaultNote is not an array")
		return nil, nil
	}

	out := hitsFromItems(raw)
	log.Info().Int("resultCount", len(out)).Str("vaultId", vaultID).Msg("weaviate search completed")
	return out, nil
}

// hitsFromItems converts raw GraphQL result objects into SearchHits. Items
// that are not objects are skipped rather than trusted; the score arrives as
// either a float or a string depending on the server version.
func hitsFromItems(raw []interface{}) []model.SearchHit {
	safeString := func(v interface{}) string {
		s, _ := v.(string)
		return s
	}

	out := make([]model.SearchHit, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			log.Warn().Interface("item", item).Msg("skipping malformed search result item")
			continue
		}
		var score float64
		if add, ok := m["_additional"].(map[string]interface{}); ok {
			switch v := add["score"].(type) {
			case float64:
				score = v
			case string:
				if f, err := strconv.ParseFloat(v, 64); err == nil {
					score = f
				}
			}
		}
		out = append(out, model.SearchHit{
			NoteID:  safeString(m["noteId"]),
			VaultID: safeString(m["vaultId"]),
			Title:   safeString(m["title"]),
			Path:    safeString(m["path"]),
			Content: safeString(m["content"]),
			Score:   score,
		})
	}
	return out
}

// UpsertNote implements a best-effort upsert using Weaviate Data Creator.
func (w *weavNative) UpsertNote(ctx context.Context, noteID string, vec []float32, payload map[string]interface{}) error {
	if w == nil || w.client == nil {
		return nil
	}
	_, err := w.client.Data().Creator().WithClassName(noteClass).WithID(noteID).WithProperties(payload).WithVector(vec).Do(ctx)
	return err
}

func (w *weavNative) DeleteNote(ctx context.Context, vaultID, noteID string) error {
	if w == nil || w.client == nil || noteID == "" {
		return nil
	}
	_ = w.client.Data().Deleter().WithClassName(noteClass).WithID(noteID).Do(ctx)
	return nil
}

// DeleteVault enumerates note ids for the vault and deletes each object.
func (w *weavNative) DeleteVault(ctx context.Context, vaultID string) error {
	if w == nil || w.client == nil || vaultID == "" {
		return nil
	}
	where := filters.Where().WithPath([]string{"vaultId"}).WithOperator(filters.Equal).WithValueText(vaultID)
	req := w.client.GraphQL().Get().
		WithClassName(noteClass).
		WithWhere(where).
		WithFields(gql.Field{Name: "noteId"})
	if resp, err := req.Do(ctx); err == nil && len(resp.Errors) == 0 {
		if getData, ok := resp.Data["Get"].(map[string]interface{}); ok {
			if arr, ok := getData[noteClass].([]interface{}); ok {
				for _, item := range arr {
					m, ok := item.(map[string]interface{})
					if !ok {
						continue
					}
					if id, _ := m["noteId"].(string); id != "" {
						_ = w.client.Data().Deleter().WithClassName(noteClass).WithID(id).Do(ctx)
					}
				}
			}
		}
	}
	return nil
}

// HealthPing calls GET http://<baseURL>/v1/meta and expects 200 OK.
func (w *weavNative) HealthPing(ctx context.Context) error {
	if w == nil || w.baseURL == "" {
		return fmt.Errorf("weaviate baseURL missing")
	}
	url := w.baseURL
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "http://" + url
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url+"/v1/meta", nil)
	if err != nil {
		return err
	}
	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("weaviate status %d", resp.StatusCode)
	}
	return nil
}

// formatGraphQLErrors returns compact string with messages extracted for logging.
func formatGraphQLErrors(errs interface{}) string {
	if b, err := json.Marshal(errs); err == nil {
		return string(b)
	}
	return fmt.Sprintf("%v", errs)
}
