package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"wisepenny/internal/cli"
	"wisepenny/internal/events"
	apphttp "wisepenny/internal/http"
	applog "wisepenny/internal/log"
	"wisepenny/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	st := cli.InitStore(logger, cfg)
	defer func() { _ = st.Close() }()

	sessions := cli.InitSessions(logger, cfg)
	defer func() { _ = sessions.Close() }()

	verifier := cli.InitVerifier(logger, cfg)

	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to connect to AMQP broker", applog.FieldError, err)
			os.Exit(1)
		}
		defer func() { _ = client.Close() }()
		publisher = client
		logger.Info("Connected to AMQP broker", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	}

	tracker := services.New(st, publisher, services.Options{
		RoundWrites:      cfg.RoundWrites,
		ValidateOnRemove: cfg.ValidateOnRemove,
	})

	srv := apphttp.NewServer(":"+cfg.Port, tracker, sessions, verifier, apphttp.Options{
		AllowedOrigin:     cfg.AllowedOrigin,
		RequestsPerMinute: cfg.RateLimitRPM,
		SecureCookies:     cfg.SecureCookies,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
	})

	logger.Info("Starting wisepenny server",
		"port", cfg.Port,
		applog.FieldBackend, cfg.DataBackend,
		"session_backend", cfg.SessionBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
