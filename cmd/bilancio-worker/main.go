package main

import (
	"context"
	"os"
	"time"

	"bilancio/internal/amqp"
	"bilancio/internal/backend"
	"bilancio/internal/cli"
	"bilancio/internal/log"
	gsheet "bilancio/internal/sheets/google"
	"bilancio/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	boot := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(boot)
	logger := cli.SetupLogger(cfg.LogLevel)
	if err := cfg.ValidateMirror(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Starting bilancio-worker")
	ctx := context.Background()

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	repo, err := backend.NewFactory(logger).CreateRepository(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to open storage", log.FieldError, err)
		os.Exit(1)
	}
	defer repo.Close()

	sheetsClient, err := gsheet.NewClient(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetPrefix, logger)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	mirror := worker.NewMirrorWorker(repo, sheetsClient, cfg.MirrorRetryDelay, logger)

	runCtx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	logger.Info("Performing startup mirror...")
	if err := mirror.SyncAll(runCtx); err != nil {
		// Don't exit, events will bring the sheet up to date.
		logger.Error("Startup mirror failed", log.FieldError, err)
	}

	if cfg.MirrorSyncInterval > 0 {
		go func() {
			ticker := time.NewTicker(cfg.MirrorSyncInterval)
			defer ticker.Stop()
			for {
				select {
				case <-runCtx.Done():
					return
				case <-ticker.C:
					if err := mirror.SyncAll(runCtx); err != nil {
						logger.Error("Periodic mirror failed", log.FieldError, err)
					}
				}
			}
		}()
	}

	if err := mirror.Run(runCtx, amqpClient); err != nil {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}
	cli.WaitForShutdown(runCtx, done)
	logger.Info("Worker stopped")
}
