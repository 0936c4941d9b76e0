package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	genai "github.com/google/generative-ai-go/genai"
	"github.com/manthysbr/briefing/internal/core/domain"
	"github.com/manthysbr/briefing/internal/core/ports"
	"google.golang.org/api/option"
)

const DefaultGeminiModel = "gemini-1.5-flash"

type GeminiEngine struct {
	client *genai.Client
	model  string
}

var _ ports.Generator = (*GeminiEngine)(nil)

func NewGeminiEngine(ctx context.Context, apiKey, model string) (*GeminiEngine, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini init: %w", err)
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiEngine{client: client, model: model}, nil
}

func (e *GeminiEngine) Generate(ctx context.Context, text string, bound domain.LengthBound) (string, error) {
	model := e.client.GenerativeModel(e.model)
	model.SetMaxOutputTokens(int32(outputTokenLimit(bound)))

	resp, err := model.GenerateContent(ctx, genai.Text(summaryPrompt(text, bound)))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("gemini: empty response")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return strings.TrimSpace(b.String()), nil
}

// Close releases the underlying gRPC connection.
func (e *GeminiEngine) Close() error {
	return e.client.Close()
}
