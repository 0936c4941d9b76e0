package providers

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/manthysbr/briefing/internal/adapters/llm"
	"github.com/manthysbr/briefing/internal/adapters/tokenizer"
	"github.com/manthysbr/briefing/internal/core/domain"
	"github.com/manthysbr/briefing/internal/core/ports"
)

// Build creates the generation engine and its matching tokenizer from app
// configuration. It hides engine selection from callers.
func Build(ctx context.Context, config *domain.AppConfig) (ports.Generator, ports.Tokenizer, error) {
	if config == nil {
		config = domain.DefaultConfig()
	}
	engine := config.Engine
	url := strings.TrimSpace(engine.URL)
	apiKey := strings.TrimSpace(engine.APIKey)
	model := strings.TrimSpace(engine.Model)

	mode := strings.ToLower(strings.TrimSpace(engine.Mode))
	switch mode {
	case "", "sidecar":
		// The sidecar owns the model's tokenizer, so one client serves both.
		sidecar := llm.NewSidecarEngine(url, engine.Timeout)
		return sidecar, sidecar, nil
	case "ollama":
		if host := strings.TrimSpace(os.Getenv("OLLAMA_HOST")); host != "" {
			url = host
		}
		gen, err := llm.NewOllamaEngine(normalizeOllamaBaseURL(url), model, engine.Timeout)
		if err != nil {
			return nil, nil, err
		}
		return gen, tokenizer.NewLexicalTokenizer(), nil
	case "openai":
		if apiKey == "" && url == "" {
			return nil, nil, fmt.Errorf("openai engine needs an api_key or a compatible url")
		}
		return llm.NewOpenAIEngine(url, apiKey, model), tokenizer.NewLexicalTokenizer(), nil
	case "anthropic":
		if apiKey == "" {
			return nil, nil, fmt.Errorf("api_key is required when mode=anthropic")
		}
		return llm.NewAnthropicEngine(url, apiKey, model), tokenizer.NewLexicalTokenizer(), nil
	case "gemini":
		gen, err := llm.NewGeminiEngine(ctx, apiKey, model)
		if err != nil {
			return nil, nil, err
		}
		return gen, tokenizer.NewLexicalTokenizer(), nil
	default:
		return nil, nil, fmt.Errorf("unsupported engine mode: %s", engine.Mode)
	}
}

func normalizeOllamaBaseURL(baseURL string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if strings.HasSuffix(trimmed, "/v1") {
		return strings.TrimSuffix(trimmed, "/v1")
	}
	return trimmed
}
