package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"reflect"
	"sync"
	"syscall"
	"time"

	"github.com/manthysbr/briefing/internal/adapters/duckdb"
	"github.com/manthysbr/briefing/internal/adapters/feeds"
	"github.com/manthysbr/briefing/internal/adapters/providers"
	appconfig "github.com/manthysbr/briefing/internal/config"
	"github.com/manthysbr/briefing/internal/core/domain"
	"github.com/manthysbr/briefing/internal/core/ports"
	"github.com/manthysbr/briefing/internal/core/services"
	"github.com/manthysbr/briefing/pkg/kernel"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger.Info("starting briefing kernel")

	if err := run(logger); err != nil {
		logger.Error("kernel startup failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		logger.Info("shutting down")
		cancel()
	}()

	if err := appconfig.LoadDotEnv(".env"); err != nil {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	dataDir := appconfig.DefaultDataDir()
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	secretKey, err := appconfig.NewSecretKey(dataDir)
	if err != nil {
		return fmt.Errorf("failed to init secret key: %w", err)
	}

	// First run persists defaults with env applied; later runs overlay env on
	// what was saved.
	base, err := appconfig.LoadFromEnv(domain.DefaultConfig())
	if err != nil {
		return fmt.Errorf("invalid environment: %w", err)
	}
	repo, closeRepo, err := openSettingsRepo(ctx, dataDir)
	if err != nil {
		return err
	}
	defer closeRepo()
	settingsStore, err := appconfig.NewSettingsStore(ctx, logger, repo, secretKey, base)
	if err != nil {
		return fmt.Errorf("failed to init settings store: %w", err)
	}
	if err := applyEnv(ctx, settingsStore); err != nil {
		return err
	}

	config := settingsStore.GetConfig()

	engines := &engineSet{logger: logger}
	pipeline, err := engines.build(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to build engine from config: %w", err)
	}
	defer engines.close()

	eventBus := services.NewEventBus(logger)
	jobStore := services.NewMemoryJobStore(logger, config.Jobs.MaxRetained)
	jobScheduler := services.NewJobScheduler(logger, services.SchedulerConfig{
		MaxConcurrentJobs: config.Jobs.Workers,
		QueueSize:         config.Jobs.QueueSize,
	})
	manager := services.NewJobManager(logger, jobStore, jobScheduler, eventBus, pipeline, services.ManagerConfig{
		MinInputChars: config.Pipeline.MinInputChars,
		JobTimeout:    config.Jobs.JobTimeout,
		RetainFor:     config.Jobs.RetainFor,
	})

	// Engine and pipeline changes apply to jobs started afterwards. Job and
	// server limits need a restart.
	settingsStore.OnChange(func(cfg *domain.AppConfig) {
		next, err := engines.build(ctx, cfg)
		if err != nil {
			logger.Error("failed to rebuild engine on settings change", "error", err)
			return
		}
		manager.UpdatePipeline(next)
	})

	feedReader := feeds.NewReader(logger, 30*time.Second)
	if config.Server.AllowPrivateFeeds {
		feedReader.AllowPrivateHosts()
	}
	poller := feeds.NewPoller(logger, feedReader, manager, config.Feeds.Subscriptions)
	settingsStore.OnChange(func(cfg *domain.AppConfig) {
		poller.SetSubscriptions(cfg.Feeds.Subscriptions)
	})

	apiServer, err := kernel.NewServer(logger, manager, eventBus, settingsStore, feedReader)
	if err != nil {
		return fmt.Errorf("failed to init api server: %w", err)
	}

	c := cors.New(cors.Options{
		AllowedOrigins: config.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})

	httpServer := &http.Server{
		Addr:    config.Server.Addr,
		Handler: c.Handler(apiServer.Handler()),
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return manager.Run(gCtx)
	})

	g.Go(func() error {
		return poller.Run(gCtx)
	})

	g.Go(func() error {
		logger.Info("starting api server", "addr", config.Server.Addr, "engine", config.Engine.Mode)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("api server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// openSettingsRepo picks the settings backend: DuckDB by default, or a JSON
// file with BRIEFING_SETTINGS_BACKEND=file.
func openSettingsRepo(ctx context.Context, dataDir string) (appconfig.SettingsRepository, func() error, error) {
	switch backend := os.Getenv("BRIEFING_SETTINGS_BACKEND"); backend {
	case "", "duckdb":
		dbPath := os.Getenv("BRIEFING_DB_PATH")
		if dbPath == "" {
			dbPath = filepath.Join(dataDir, "briefing.db")
		}
		repo, err := duckdb.NewRepository(ctx, dbPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to init settings repository: %w", err)
		}
		return repo, repo.Close, nil
	case "file":
		repo := appconfig.NewFileRepository(filepath.Join(dataDir, "settings.json"))
		return repo, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown BRIEFING_SETTINGS_BACKEND %q", backend)
	}
}

// applyEnv pushes BRIEFING_* overrides into the stored settings.
func applyEnv(ctx context.Context, store *appconfig.SettingsStore) error {
	stored := store.GetConfig()
	merged, err := appconfig.LoadFromEnv(stored)
	if err != nil {
		return fmt.Errorf("invalid environment: %w", err)
	}
	if reflect.DeepEqual(stored, merged) {
		return nil
	}
	if err := store.UpdateConfig(ctx, merged); err != nil {
		return fmt.Errorf("failed to apply environment overrides: %w", err)
	}
	return nil
}

// engineSet builds summary pipelines and keeps every engine it created so
// they can be closed on shutdown. Replaced engines may still serve in-flight
// jobs, so nothing is closed early.
type engineSet struct {
	logger  *slog.Logger
	mu      sync.Mutex
	engines []ports.Generator
}

func (e *engineSet) build(ctx context.Context, cfg *domain.AppConfig) (*services.SummaryPipeline, error) {
	gen, tok, err := providers.Build(ctx, cfg)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.engines = append(e.engines, gen)
	e.mu.Unlock()

	e.logger.Info("engine ready", "mode", cfg.Engine.Mode, "model", cfg.Engine.Model)
	return services.NewSummaryPipeline(e.logger, tok, gen, cfg.Pipeline), nil
}

func (e *engineSet) close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, gen := range e.engines {
		c, ok := gen.(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			e.logger.Warn("failed to close engine", "error", err)
		}
	}
	e.engines = nil
}
