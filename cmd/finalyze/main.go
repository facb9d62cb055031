package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"finalyze/internal/amqp"
	"finalyze/internal/backend"
	"finalyze/internal/cli"
	apphttp "finalyze/internal/http"
	"finalyze/internal/log"
	"finalyze/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	// Report source (memory or sheets)
	source, err := backend.NewSource(context.Background(), cfg, logger.Logger.With(log.FieldComponent, log.ComponentBackend))
	if err != nil {
		logger.Error("Failed to initialize report source", log.FieldError, err, "source", cfg.ReportSource)
		os.Exit(1)
	}
	if source.Cleanup != nil {
		defer source.Cleanup()
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// Publishing is optional: without a broker the server still previews
	// and renders, and POST /outbox answers 503.
	var outbox *services.OutboxService
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger.WithComponent(log.ComponentAMQP))
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, outbox disabled", log.FieldError, err)
		} else {
			defer amqpClient.Close()
			outbox = services.NewOutboxService(amqpClient, logger.WithComponent(log.ComponentAMQP))
			logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP disabled - outbox endpoint unavailable")
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Options{
		Logger:    logger,
		Reports:   services.NewReportService(source.Source, cfg.BudgetAlertThreshold, logger.WithComponent(log.ComponentReport)),
		Outbox:    outbox,
		Store:     repo,
		CacheSize: cfg.RenderCacheSize,
		CacheTTL:  cfg.RenderCacheTTL,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	logger.Info("Starting finalyze server", log.FieldOperation, log.OpStartup, "port", cfg.Port, "source", cfg.ReportSource)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
