// Package cli provides the initialization shared by the bilancio commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"bilancio/internal/amqp"
	"bilancio/internal/backend"
	"bilancio/internal/cache"
	"bilancio/internal/config"
	"bilancio/internal/ledger"
	"bilancio/internal/log"
	"bilancio/internal/services"
)

// SetupLogger initializes structured logging at the given level and sets it
// as the default logger. An unknown level falls back to info.
func SetupLogger(level string) *log.Logger {
	cfg := log.DefaultConfig()
	if lvl, err := log.ParseLevel(level); err == nil {
		cfg.Level = lvl
	}
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg, err := config.Load()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// App bundles the live ledger service with the resources it owns.
type App struct {
	Service *services.LedgerService
	Views   *services.ViewCache
	Caches  *cache.Manager
	// Events is nil when AMQP is not configured or unreachable.
	Events *amqp.Client

	logger *log.Logger
}

// OpenApp opens storage, loads the ledger and wires persistence, the view
// cache and change events according to cfg.
func OpenApp(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	policy, err := ledger.ParseIDPolicy(cfg.ImportIDPolicy)
	if err != nil {
		return nil, err
	}

	fresh := ledger.Default
	if cfg.VocabularyFile != "" {
		vocab, err := ledger.LoadVocabulary(cfg.VocabularyFile)
		if err != nil {
			return nil, fmt.Errorf("load vocabulary: %w", err)
		}
		fresh = vocab.Ledger
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	repo, err := backend.NewFactory(logger).CreateRepository(ctx, bcfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Views:  services.NewViewCache(cfg.ViewCacheSize, cfg.ViewCacheTTL),
		Caches: cache.NewManager(logger),
		logger: logger,
	}
	app.Caches.Register(app.Views)

	opts := services.Options{
		IDPolicy: policy,
		Fresh:    fresh,
		Views:    app.Views,
	}
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without change events", log.FieldError, err)
		} else {
			app.Events = client
			opts.Publisher = client
			if !bcfg.Type.Shared() {
				logger.WarnContext(ctx, "Change events are enabled but the storage backend is process-local; a mirror worker cannot read it",
					log.FieldBackend, bcfg.Type.String())
			}
		}
	}

	persister := services.NewPersister(repo, cfg.PersistQueueSize, logger)
	app.Service = services.Open(ctx, repo, persister, opts, logger)
	return app, nil
}

// Close flushes pending snapshots and releases everything the app opened.
func (a *App) Close(ctx context.Context) error {
	a.Caches.Stop()
	var errs []error
	if err := a.Service.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	if a.Events != nil {
		if err := a.Events.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close amqp: %w", err))
		}
	}
	return errors.Join(errs...)
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}

		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
