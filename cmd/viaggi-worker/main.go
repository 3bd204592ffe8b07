package main

import (
	"context"
	"errors"
	"os"

	"viaggi/internal/amqp"
	"viaggi/internal/backend"
	"viaggi/internal/cli"
	applog "viaggi/internal/log"
	"viaggi/internal/worker"
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig(applog.ComponentWorker)
	logger.Info("Starting viaggi-worker", applog.FieldOperation, applog.OpStartup)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err == nil {
		err = backendCfg.ValidateWorker()
	}
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	factory := backend.NewFactory(logger.Logger.With(applog.FieldComponent, applog.ComponentBackend))

	store, err := factory.CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer store.Cleanup()

	exporter, err := factory.CreateExporter(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize budget exporter", applog.FieldError, err)
		os.Exit(1)
	}

	trips, err := cli.NewTripService(cfg, store.Repository, nil)
	if err != nil {
		logger.Error("Failed to initialize trip service", applog.FieldError, err)
		os.Exit(1)
	}

	// Without a broker the worker still reconciles on ExportInterval.
	var consumer worker.Consumer
	if cfg.AMQPEnabled() {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		consumer = amqpClient
	} else {
		logger.Info("AMQP disabled, relying on periodic export", "interval", cfg.ExportInterval)
	}

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, nil)

	var opts []worker.Option
	if backendCfg.Type.ProcessLocal() {
		logger.Warn("Memory backend holds no API data, budget rows will not be reconciled", "backend", cfg.DataBackend)
		opts = append(opts, worker.WithProcessLocalStore())
	}
	w := worker.NewExportWorker(trips, exporter, cfg.ExportInterval, opts...)
	if err := w.Run(ctx, consumer); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped", applog.FieldError, err)
		os.Exit(1)
	}

	if cfg.ExportInterval <= 0 && consumer == nil {
		logger.Info("Startup export finished, nothing left to do")
		return
	}
	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete", applog.FieldOperation, applog.OpShutdown)
}
