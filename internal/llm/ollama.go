package llm

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
)

// Ollama generates text through a local Ollama server.
type Ollama struct {
	client *resty.Client
	model  string
}

// NewOllama returns a provider talking to the Ollama server at baseURL.
func NewOllama(baseURL, model string) *Ollama {
	return &Ollama{client: resty.New().SetBaseURL(baseURL), model: model}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

func (o *Ollama) GenerateText(ctx context.Context, prompt string) (string, error) {
	var out generateResponse
	resp, err := o.client.R().
		SetContext(ctx).
		SetBody(generateRequest{Model: o.model, Prompt: prompt, Stream: false}).
		SetResult(&out).
		Post("/api/generate")
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("ollama generate status %d", resp.StatusCode())
	}
	if out.Error != "" {
		return "", fmt.Errorf("ollama generate error: %s", out.Error)
	}
	return out.Response, nil
}

func (o *Ollama) Summarize(ctx context.Context, text string) (string, error) {
	prompt := "Summarize the following note in two sentences:\n\n" + text
	return o.GenerateText(ctx, prompt)
}

func (o *Ollama) ExtractKeywords(ctx context.Context, text string, max int) ([]string, error) {
	prompt := fmt.Sprintf("List up to %d keywords for the following note, one per line, no commentary:\n\n%s", max, text)
	raw, err := o.GenerateText(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return splitKeywords(raw, max), nil
}
