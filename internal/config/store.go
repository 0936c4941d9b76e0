package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/manthysbr/briefing/internal/core/domain"
)

const settingsKey = "app_config"

// ErrSettingNotFound is returned by repositories for unknown keys.
var ErrSettingNotFound = errors.New("setting not found")

// SettingsRepository is the minimal storage interface for settings persistence.
type SettingsRepository interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SaveSetting(ctx context.Context, key string, value string) error
}

// OnChangeFunc is called after settings are updated.
type OnChangeFunc func(cfg *domain.AppConfig)

// SettingsStore holds the live configuration. The engine API key is
// encrypted at rest and masked on read.
type SettingsStore struct {
	mu       sync.RWMutex
	logger   *slog.Logger
	secret   *SecretKey
	repo     SettingsRepository
	config   *domain.AppConfig
	onChange []OnChangeFunc
}

// NewSettingsStore loads saved settings, or persists base when none exist.
func NewSettingsStore(ctx context.Context, logger *slog.Logger, repo SettingsRepository, secret *SecretKey, base *domain.AppConfig) (*SettingsStore, error) {
	if base == nil {
		base = domain.DefaultConfig()
	}
	store := &SettingsStore{
		logger: logger,
		secret: secret,
		repo:   repo,
	}

	cfg, err := store.load(ctx)
	switch {
	case errors.Is(err, ErrSettingNotFound):
		logger.Info("no saved settings found, using defaults")
		cfg = cloneConfig(base)
		if err := store.save(ctx, cfg); err != nil {
			return nil, fmt.Errorf("failed to save default config: %w", err)
		}
	case err != nil:
		return nil, err
	}

	store.config = cfg
	return store, nil
}

// OnChange registers a callback for settings updates.
func (s *SettingsStore) OnChange(fn OnChangeFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

// GetConfig returns a copy of the current config with the API key in clear.
func (s *SettingsStore) GetConfig() *domain.AppConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneConfig(s.config)
}

// GetMaskedConfig returns a copy safe for API responses.
func (s *SettingsStore) GetMaskedConfig() *domain.AppConfig {
	cfg := s.GetConfig()
	cfg.Engine.APIKey = MaskSecret(cfg.Engine.APIKey)
	return cfg
}

// UpdateConfig validates, persists and applies update, then notifies
// listeners. An empty or masked API key keeps the stored one.
func (s *SettingsStore) UpdateConfig(ctx context.Context, update *domain.AppConfig) error {
	if update == nil {
		return errors.New("settings update is empty")
	}
	next := cloneConfig(update)

	s.mu.Lock()
	if next.Engine.APIKey == "" || isMasked(next.Engine.APIKey) {
		next.Engine.APIKey = s.config.Engine.APIKey
	}
	next.Engine.Mode = strings.ToLower(strings.TrimSpace(next.Engine.Mode))
	if next.Engine.Mode == "" {
		next.Engine.Mode = "sidecar"
	}

	if err := Validate(next); err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.save(ctx, next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.config = next
	listeners := slices.Clone(s.onChange)
	s.mu.Unlock()

	s.logger.Info("settings updated", "engine_mode", next.Engine.Mode, "model", next.Engine.Model)

	for _, fn := range listeners {
		fn(cloneConfig(next))
	}
	return nil
}

func (s *SettingsStore) load(ctx context.Context) (*domain.AppConfig, error) {
	raw, err := s.repo.GetSetting(ctx, settingsKey)
	if err != nil {
		return nil, err
	}

	cfg := &domain.AppConfig{}
	if err := json.Unmarshal([]byte(raw), cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	key, err := s.secret.Decrypt(cfg.Engine.APIKey)
	if err != nil {
		s.logger.Warn("failed to decrypt engine API key", "error", err)
		key = ""
	}
	cfg.Engine.APIKey = key
	return cfg, nil
}

func (s *SettingsStore) save(ctx context.Context, cfg *domain.AppConfig) error {
	stored := cloneConfig(cfg)
	enc, err := s.secret.Encrypt(cfg.Engine.APIKey)
	if err != nil {
		return fmt.Errorf("encrypt engine API key: %w", err)
	}
	stored.Engine.APIKey = enc

	raw, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	return s.repo.SaveSetting(ctx, settingsKey, string(raw))
}

func cloneConfig(cfg *domain.AppConfig) *domain.AppConfig {
	cp := *cfg
	cp.Server.AllowedOrigins = slices.Clone(cfg.Server.AllowedOrigins)
	cp.Feeds.Subscriptions = slices.Clone(cfg.Feeds.Subscriptions)
	return &cp
}
