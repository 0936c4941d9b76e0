package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/manthysbr/briefing/internal/core/domain"
	"github.com/manthysbr/briefing/internal/core/ports"
)

// SidecarEngine talks to a seq2seq summarization server that owns both the
// model and its tokenizer, so lengths measured here match the engine exactly.
type SidecarEngine struct {
	baseURL string
	client  *http.Client
}

var (
	_ ports.Generator = (*SidecarEngine)(nil)
	_ ports.Tokenizer = (*SidecarEngine)(nil)
)

func NewSidecarEngine(baseURL string, timeout time.Duration) *SidecarEngine {
	if baseURL == "" {
		baseURL = "http://localhost:7860"
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &SidecarEngine{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type sidecarGenerateRequest struct {
	Text      string `json:"text"`
	MinLength int    `json:"min_length"`
	MaxLength int    `json:"max_length"`
}

type sidecarGenerateResponse struct {
	Summary string `json:"summary"`
}

type sidecarTokenizeRequest struct {
	Text string `json:"text"`
}

type sidecarTokens struct {
	IDs []int `json:"ids"`
}

type sidecarText struct {
	Text string `json:"text"`
}

func (e *SidecarEngine) Generate(ctx context.Context, text string, bound domain.LengthBound) (string, error) {
	var out sidecarGenerateResponse
	err := e.post(ctx, "/generate", sidecarGenerateRequest{
		Text:      text,
		MinLength: bound.Min,
		MaxLength: bound.Max,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.Summary, nil
}

func (e *SidecarEngine) Encode(ctx context.Context, text string) ([]int, error) {
	var out sidecarTokens
	if err := e.post(ctx, "/tokenize", sidecarTokenizeRequest{Text: text}, &out); err != nil {
		return nil, err
	}
	return out.IDs, nil
}

func (e *SidecarEngine) Decode(ctx context.Context, ids []int) (string, error) {
	var out sidecarText
	if err := e.post(ctx, "/detokenize", sidecarTokens{IDs: ids}, &out); err != nil {
		return "", err
	}
	return out.Text, nil
}

func (e *SidecarEngine) post(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("sidecar connection failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sidecar %s returned status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
