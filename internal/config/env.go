package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/manthysbr/briefing/internal/core/domain"
)

// LoadDotEnv reads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

// LoadFromEnv overlays BRIEFING_* environment variables on a copy of base.
func LoadFromEnv(base *domain.AppConfig) (*domain.AppConfig, error) {
	if base == nil {
		base = domain.DefaultConfig()
	}
	cfg := cloneConfig(base)
	var errs []error

	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(name); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(name string, dst *int) {
		if v, ok := os.LookupEnv(name); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
			*dst = n
		}
	}
	dur := func(name string, dst *time.Duration) {
		if v, ok := os.LookupEnv(name); ok {
			d, err := time.ParseDuration(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
			*dst = d
		}
	}

	str("BRIEFING_ENGINE_MODE", &cfg.Engine.Mode)
	str("BRIEFING_ENGINE_URL", &cfg.Engine.URL)
	str("BRIEFING_ENGINE_API_KEY", &cfg.Engine.APIKey)
	str("BRIEFING_ENGINE_MODEL", &cfg.Engine.Model)
	dur("BRIEFING_ENGINE_TIMEOUT", &cfg.Engine.Timeout)

	num("BRIEFING_CHUNK_TOKENS", &cfg.Pipeline.ChunkTokens)
	num("BRIEFING_CHUNK_CAP", &cfg.Pipeline.ChunkCap)
	num("BRIEFING_MAX_CHUNKS", &cfg.Pipeline.MaxChunks)
	num("BRIEFING_MIN_INPUT_CHARS", &cfg.Pipeline.MinInputChars)

	workers := int(cfg.Jobs.Workers)
	num("BRIEFING_WORKERS", &workers)
	cfg.Jobs.Workers = int64(workers)
	num("BRIEFING_QUEUE_SIZE", &cfg.Jobs.QueueSize)
	num("BRIEFING_MAX_RETAINED", &cfg.Jobs.MaxRetained)
	dur("BRIEFING_RETAIN_FOR", &cfg.Jobs.RetainFor)
	dur("BRIEFING_JOB_TIMEOUT", &cfg.Jobs.JobTimeout)

	str("BRIEFING_ADDR", &cfg.Server.Addr)
	if v, ok := os.LookupEnv("BRIEFING_ALLOW_PRIVATE_FEEDS"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("BRIEFING_ALLOW_PRIVATE_FEEDS: %w", err))
		} else {
			cfg.Server.AllowPrivateFeeds = b
		}
	}
	if v, ok := os.LookupEnv("BRIEFING_ALLOWED_ORIGINS"); ok {
		cfg.Server.AllowedOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.Server.AllowedOrigins = append(cfg.Server.AllowedOrigins, o)
			}
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}
