package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/manthysbr/briefing/internal/core/domain"
	"github.com/manthysbr/briefing/internal/core/ports"
)

// ProgressFunc is notified after each generation call of a run.
type ProgressFunc func(done, total int)

// SummaryPipeline turns a document into a cleaned summary:
// chunk, plan a bound per chunk, generate per chunk, optionally reduce, clean.
type SummaryPipeline struct {
	logger    *slog.Logger
	tokenizer ports.Tokenizer
	generator ports.Generator
	chunker   *Chunker
	planner   LengthPlanner
	cleaner   Cleaner
	cfg       domain.PipelineConfig
}

func NewSummaryPipeline(
	logger *slog.Logger,
	tokenizer ports.Tokenizer,
	generator ports.Generator,
	cfg domain.PipelineConfig,
) *SummaryPipeline {
	return &SummaryPipeline{
		logger:    logger,
		tokenizer: tokenizer,
		generator: generator,
		chunker:   NewChunker(logger, tokenizer),
		planner:   DefaultLengthPlanner,
		cleaner:   DefaultCleaner,
		cfg:       cfg,
	}
}

// CountTokens measures text in the engine's token units.
func (p *SummaryPipeline) CountTokens(ctx context.Context, text string) (int, error) {
	ids, err := p.tokenizer.Encode(ctx, text)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// Run summarizes text under the retention policy of mode.
func (p *SummaryPipeline) Run(ctx context.Context, text string, mode domain.Mode) (domain.Summary, error) {
	return p.RunWithProgress(ctx, text, mode, nil)
}

// RunWithProgress is Run with a progress callback. Engine errors abort the run
// without retry.
func (p *SummaryPipeline) RunWithProgress(ctx context.Context, text string, mode domain.Mode, progress ProgressFunc) (domain.Summary, error) {
	if p.generator == nil || p.tokenizer == nil {
		return domain.Summary{}, domain.ErrEngineNotConfigured
	}

	total, err := p.CountTokens(ctx, text)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("measure input: %w", err)
	}

	plan, err := p.chunker.Split(ctx, text, p.cfg.ChunkTokens, p.cfg.ChunkCap, p.cfg.MaxChunks)
	if err != nil {
		return domain.Summary{}, err
	}

	ratio := p.cfg.DetailedRatio
	reduce := false
	if mode == domain.ModeQuick {
		ratio = p.cfg.QuickRatio
		reduce = true
	}

	calls := len(plan.Chunks)
	if reduce {
		calls++
	}

	p.logger.Info("summarizing",
		"mode", mode, "tokens", total, "chunks", len(plan.Chunks), "dropped", plan.Dropped)

	partials := make([]string, 0, len(plan.Chunks))
	for i, chunk := range plan.Chunks {
		if err := ctx.Err(); err != nil {
			return domain.Summary{}, err
		}

		n, err := p.CountTokens(ctx, chunk.Text)
		if err != nil {
			return domain.Summary{}, fmt.Errorf("measure chunk %d: %w", i+1, err)
		}
		bound := p.planner.Plan(n, ratio, p.cfg.MinSafe, p.cfg.MaxSafe)
		p.logger.Debug("chunk bound", "chunk", i+1, "tokens", n, "min", bound.Min, "max", bound.Max)

		out, err := p.generator.Generate(ctx, chunk.Text, bound)
		if err != nil {
			return domain.Summary{}, &domain.GenerationError{Stage: "map", Chunk: i, Err: err}
		}
		partials = append(partials, strings.TrimSpace(out))
		if progress != nil {
			progress(i+1, calls)
		}
	}

	final := strings.Join(partials, " ")
	if reduce && final != "" {
		bound := domain.LengthBound{Min: p.cfg.QuickReduceMin, Max: p.cfg.QuickReduceMax}
		p.logger.Debug("reduce bound", "min", bound.Min, "max", bound.Max)
		out, err := p.generator.Generate(ctx, final, bound)
		if err != nil {
			return domain.Summary{}, &domain.GenerationError{Stage: "reduce", Err: err}
		}
		final = out
		if progress != nil {
			progress(calls, calls)
		}
	}

	return domain.Summary{
		Text: p.cleaner.Clean(final),
		Stats: domain.RunStats{
			InputTokens:   total,
			Chunks:        len(plan.Chunks),
			DroppedChunks: plan.Dropped,
			Reduced:       reduce,
		},
	}, nil
}
