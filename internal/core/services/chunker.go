package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/manthysbr/briefing/internal/core/domain"
	"github.com/manthysbr/briefing/internal/core/ports"
)

// ChunkPlan is the outcome of a split.
type ChunkPlan struct {
	Chunks  []domain.Chunk
	Dropped int // chunks beyond the cap, never processed
}

// Chunker splits documents into paragraph-aligned chunks measured in the
// engine's token units.
type Chunker struct {
	logger    *slog.Logger
	tokenizer ports.Tokenizer
}

func NewChunker(logger *slog.Logger, tokenizer ports.Tokenizer) *Chunker {
	return &Chunker{logger: logger, tokenizer: tokenizer}
}

// Split groups paragraphs into buckets of at most target tokens.
// A paragraph larger than target is cut into consecutive target-sized pieces
// on its own. ceiling clamps target to the engine's input ceiling. At most
// maxChunks chunks are returned; the rest are counted in Dropped.
func (c *Chunker) Split(ctx context.Context, text string, target, ceiling, maxChunks int) (ChunkPlan, error) {
	if ceiling > 0 && (target <= 0 || target > ceiling) {
		target = ceiling
	}
	if target <= 0 {
		return ChunkPlan{}, fmt.Errorf("chunk target must be positive, got %d", target)
	}

	var (
		plan     ChunkPlan
		bucket   []string
		bucketSz int
	)

	emit := func(text string, tokens int) {
		if maxChunks > 0 && len(plan.Chunks) >= maxChunks {
			plan.Dropped++
			return
		}
		plan.Chunks = append(plan.Chunks, domain.Chunk{
			Index:  len(plan.Chunks),
			Text:   text,
			Tokens: tokens,
		})
	}
	seal := func() {
		if len(bucket) == 0 {
			return
		}
		emit(strings.Join(bucket, "\n"), bucketSz)
		bucket = nil
		bucketSz = 0
	}

	for _, para := range Paragraphs(text) {
		ids, err := c.tokenizer.Encode(ctx, para)
		if err != nil {
			return ChunkPlan{}, fmt.Errorf("measure paragraph: %w", err)
		}
		n := len(ids)

		if n > target {
			seal()
			for start := 0; start < n; start += target {
				end := min(start+target, n)
				piece, err := c.tokenizer.Decode(ctx, ids[start:end])
				if err != nil {
					return ChunkPlan{}, fmt.Errorf("split oversized paragraph: %w", err)
				}
				emit(piece, end-start)
			}
			continue
		}

		if bucketSz+n > target {
			seal()
		}
		bucket = append(bucket, para)
		bucketSz += n
	}
	seal()

	if plan.Dropped > 0 && c.logger != nil {
		c.logger.Warn("chunk cap reached, dropping tail of document",
			"max_chunks", maxChunks, "dropped", plan.Dropped)
	}
	return plan, nil
}

// Paragraphs splits text on line breaks and drops blank paragraphs.
func Paragraphs(text string) []string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
