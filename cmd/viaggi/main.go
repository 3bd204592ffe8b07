package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"viaggi/internal/amqp"
	"viaggi/internal/backend"
	"viaggi/internal/cli"
	apphttp "viaggi/internal/http"
	applog "viaggi/internal/log"
	"viaggi/internal/services"
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig(applog.ComponentApp)
	logger.Info("Starting viaggi server", applog.FieldOperation, applog.OpStartup)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	store, err := backend.NewFactory(logger.Logger.With(applog.FieldComponent, applog.ComponentBackend)).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := store.Cleanup(); err != nil {
			logger.Error("Failed to close backend", applog.FieldError, err)
		}
	}()

	// Events are best effort: the API keeps serving without a broker.
	var (
		events services.EventPublisher
		checks = map[string]apphttp.ReadinessCheck{}
	)
	if cfg.AMQPEnabled() {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, trip events disabled", applog.FieldError, err)
		} else {
			defer amqpClient.Close()
			events = amqpClient
			checks["amqp"] = amqpClient.Ping
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange)
		}
	}

	trips, err := cli.NewTripService(cfg, store.Repository, events)
	if err != nil {
		logger.Error("Failed to initialize trip service", applog.FieldError, err)
		os.Exit(1)
	}

	srv, err := apphttp.NewServer(trips, apphttp.Options{
		Addr:              ":" + cfg.Port,
		RequestsPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:    cfg.TrustedProxies,
		Logger:            logger.WithComponent(applog.ComponentHTTP),
		ReadinessChecks:   checks,
	})
	if err != nil {
		logger.Error("Failed to create server", applog.FieldError, err)
		os.Exit(1)
	}

	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
	})

	logger.Info("Listening", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully", applog.FieldOperation, applog.OpShutdown)
}
