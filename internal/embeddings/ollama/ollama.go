package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

type Provider struct{ model string }

func New(model string) *Provider { return &Provider{model: model} }

func baseURL() string {
	base := os.Getenv("OLLAMA_URL")
	if base == "" {
		base = "http://localhost:11434"
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return base
}

func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return []float32{0}, nil
	}

	type embReq struct {
		Model  string `json:"model"`
		Prompt string `json:"prompt"`
	}
	type embResp struct {
		Embedding []float64 `json:"embedding"`
		Error     string    `json:"error"`
	}

	body, _ := json.Marshal(embReq{Model: p.model, Prompt: text})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL()+"/api/embeddings", bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	httpClient := &http.Client{Timeout: 10 * time.Second}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("ollama embeddings status %d", resp.StatusCode)
	}
	var out embResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if out.Error != "" {
		return nil, fmt.Errorf("ollama embeddings error: %s", out.Error)
	}
	if len(out.Embedding) == 0 {
		return []float32{}, nil
	}
	vec := make([]float32, len(out.Embedding))
	for i, v := range out.Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}

// HealthPing checks /api/tags for the configured model's presence.
func (p *Provider) HealthPing(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL()+"/api/tags", nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama status %d", resp.StatusCode)
	}
	var data struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return err
	}
	want := baseModelName(p.model)
	for _, m := range data.Models {
		if baseModelName(m.Name) == want {
			return nil
		}
	}
	return fmt.Errorf("model %s not found", want)
}

// baseModelName strips the tag suffix, e.g. "mxbai-embed-large:latest" -> "mxbai-embed-large".
func baseModelName(name string) string {
	return strings.Split(name, ":")[0]
}
