package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Mode selects the retention policy of a summarization run.
type Mode string

const (
	ModeDetailed Mode = "detailed"
	ModeQuick    Mode = "quick"
)

var ErrInvalidMode = errors.New("invalid mode")

// ParseMode normalizes a caller supplied mode. The legacy names "half" and
// "short" are accepted; an empty value means detailed.
func ParseMode(raw string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "detailed", "half":
		return ModeDetailed, nil
	case "quick", "short":
		return ModeQuick, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, raw)
	}
}

// LengthBound is the (Min, Max) output token window of one generation call.
type LengthBound struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Valid reports whether 0 < Min < Max.
func (b LengthBound) Valid() bool {
	return b.Min > 0 && b.Min < b.Max
}

// Chunk is a contiguous span of the source text sized for one engine call.
type Chunk struct {
	Index  int
	Text   string
	Tokens int
}

// RunStats describes how a pipeline run consumed its input.
type RunStats struct {
	InputTokens   int  `json:"input_tokens"`
	Chunks        int  `json:"chunks"`
	DroppedChunks int  `json:"dropped_chunks"`
	Reduced       bool `json:"reduced"`
}

// Summary is the outcome of a successful pipeline run.
type Summary struct {
	Text  string
	Stats RunStats
}

// GenerationError wraps an engine failure with the pipeline stage it hit.
type GenerationError struct {
	Stage string
	Chunk int
	Err   error
}

func (e *GenerationError) Error() string {
	if e.Stage == "reduce" {
		return fmt.Sprintf("generation failed during reduce: %v", e.Err)
	}
	return fmt.Sprintf("generation failed on chunk %d: %v", e.Chunk+1, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

var (
	ErrTextTooShort        = errors.New("text too short to summarize")
	ErrEngineNotConfigured = errors.New("generation engine not configured")
)
