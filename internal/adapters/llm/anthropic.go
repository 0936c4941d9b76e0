package llm

import (
	"context"
	"fmt"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/manthysbr/briefing/internal/core/domain"
	"github.com/manthysbr/briefing/internal/core/ports"
)

const DefaultAnthropicModel = "claude-3-5-haiku-latest"

type AnthropicEngine struct {
	client *anthropic.Client
	model  string
}

var _ ports.Generator = (*AnthropicEngine)(nil)

func NewAnthropicEngine(baseURL, apiKey, model string) *AnthropicEngine {
	opts := []anthropicopt.RequestOption{anthropicopt.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, anthropicopt.WithBaseURL(baseURL))
	}
	if model == "" {
		model = DefaultAnthropicModel
	}
	cl := anthropic.NewClient(opts...)
	return &AnthropicEngine{client: &cl, model: model}
}

func (e *AnthropicEngine) Generate(ctx context.Context, text string, bound domain.LengthBound) (string, error) {
	msg, err := e.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(e.model),
		MaxTokens: int64(outputTokenLimit(bound)),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(summaryPrompt(text, bound))),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}

	var b strings.Builder
	for _, cb := range msg.Content {
		if tb, ok := cb.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(tb.Text)
		}
	}
	return strings.TrimSpace(b.String()), nil
}
