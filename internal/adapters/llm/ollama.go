package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/manthysbr/briefing/internal/core/domain"
	"github.com/manthysbr/briefing/internal/core/ports"
	ollama "github.com/ollama/ollama/api"
)

const DefaultOllamaModel = "llama3.2"

// OllamaEngine summarizes through a local Ollama instance.
type OllamaEngine struct {
	client *ollama.Client
	model  string
}

var _ ports.Generator = (*OllamaEngine)(nil)

func NewOllamaEngine(baseURL, model string, timeout time.Duration) (*OllamaEngine, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama url %q: %w", baseURL, err)
	}
	if model == "" {
		model = DefaultOllamaModel
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	return &OllamaEngine{
		client: ollama.NewClient(u, &http.Client{Timeout: timeout}),
		model:  model,
	}, nil
}

func (e *OllamaEngine) Generate(ctx context.Context, text string, bound domain.LengthBound) (string, error) {
	var out strings.Builder
	req := &ollama.GenerateRequest{
		Model:  e.model,
		Prompt: summaryPrompt(text, bound),
		Options: map[string]any{
			"num_predict": outputTokenLimit(bound),
		},
	}

	err := e.client.Generate(ctx, req, func(gr ollama.GenerateResponse) error {
		out.WriteString(gr.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	return strings.TrimSpace(out.String()), nil
}
