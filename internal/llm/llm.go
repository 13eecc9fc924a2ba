package llm

import (
	"context"
	"fmt"
	"strings"
)

// Provider is the text-generation capability surface. Implementations are
// optional plug-ins; the ingestion pipeline works without one.
type Provider interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	Summarize(ctx context.Context, text string) (string, error)
	ExtractKeywords(ctx context.Context, text string, max int) ([]string, error)
}

// New returns the configured provider, or nil for "none".
func New(provider, baseURL, model string) (Provider, error) {
	switch provider {
	case "none", "":
		return nil, nil
	case "ollama":
		return NewOllama(baseURL, model), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", provider)
	}
}

// splitKeywords normalizes a model's keyword response: one keyword per line
// or comma-separated, trimmed, capped at max.
func splitKeywords(raw string, max int) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == '\n' || r == ',' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(f), "-*0123456789. "))
		if f == "" {
			continue
		}
		out = append(out, f)
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}
