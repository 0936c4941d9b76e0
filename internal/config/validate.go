package config

import (
	"errors"
	"fmt"

	"github.com/manthysbr/briefing/internal/core/domain"
	"github.com/manthysbr/briefing/internal/schedule"
)

var engineModes = map[string]bool{
	"sidecar":   true,
	"ollama":    true,
	"openai":    true,
	"anthropic": true,
	"gemini":    true,
}

// Validate reports every setting that would leave the pipeline unusable.
func Validate(cfg *domain.AppConfig) error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	e := cfg.Engine
	if !engineModes[e.Mode] {
		add("unsupported engine mode: %q", e.Mode)
	}
	if (e.Mode == "anthropic" || e.Mode == "gemini") && e.APIKey == "" {
		add("api_key is required when mode=%s", e.Mode)
	}
	if e.Mode == "openai" && e.APIKey == "" && e.URL == "" {
		add("openai mode needs an api_key or a compatible url")
	}
	if e.Timeout < 0 {
		add("engine timeout must not be negative")
	}

	p := cfg.Pipeline
	if p.ChunkTokens <= 0 {
		add("chunk_tokens must be positive")
	}
	if p.ChunkCap > 0 && p.ChunkCap < p.ChunkTokens {
		add("chunk_cap (%d) must not be below chunk_tokens (%d)", p.ChunkCap, p.ChunkTokens)
	}
	if p.MaxChunks <= 0 {
		add("max_chunks must be positive")
	}
	if p.DetailedRatio <= 0 || p.DetailedRatio > 1 {
		add("detailed_ratio must be in (0, 1]")
	}
	if p.QuickRatio <= 0 || p.QuickRatio > 1 {
		add("quick_ratio must be in (0, 1]")
	}
	if p.MinSafe <= 0 || p.MinSafe >= p.MaxSafe {
		add("min_safe must be positive and below max_safe")
	}
	if p.QuickReduceMin <= 0 || p.QuickReduceMin >= p.QuickReduceMax {
		add("quick_reduce_min must be positive and below quick_reduce_max")
	}
	if p.MinInputChars < 0 {
		add("min_input_chars must not be negative")
	}

	j := cfg.Jobs
	if j.Workers <= 0 {
		add("workers must be positive")
	}
	if j.QueueSize <= 0 {
		add("queue_size must be positive")
	}
	if j.MaxRetained < 0 || j.RetainFor < 0 || j.JobTimeout < 0 {
		add("job retention and timeout settings must not be negative")
	}

	for i, sub := range cfg.Feeds.Subscriptions {
		if sub.URL == "" {
			add("feeds.subscriptions[%d]: url is required", i)
		}
		if _, err := domain.ParseMode(sub.Mode); err != nil {
			add("feeds.subscriptions[%d]: %w", i, err)
		}
		if sub.Limit < 0 || sub.Limit > 50 {
			add("feeds.subscriptions[%d]: limit must be between 0 and 50", i)
		}
		if _, err := schedule.Parse(sub.Schedule); err != nil {
			add("feeds.subscriptions[%d]: %w", i, err)
		}
	}

	return errors.Join(errs...)
}
