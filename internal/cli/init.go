// Package cli holds the initialization shared by the server and the
// local command line tool.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"wisepenny/internal/auth"
	"wisepenny/internal/backend"
	"wisepenny/internal/config"
	applog "wisepenny/internal/log"
	"wisepenny/internal/store"
)

// SetupLogger initializes structured logging and installs it as the
// process default.
func SetupLogger() *applog.Logger {
	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development. Missing files
// are fine in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration, exiting on validation
// failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// InitStore builds the configured store, exiting on failure.
func InitStore(logger *applog.Logger, cfg *config.Config) store.Store {
	st, err := backend.New(backend.Config{
		Kind:         backend.Kind(cfg.DataBackend),
		SQLiteDBPath: cfg.SQLiteDBPath,
	}, logger.Logger)
	if err != nil {
		logger.Error("Failed to initialize store", applog.FieldError, err, applog.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	return st
}

// InitSessions builds the configured session store, exiting on failure.
func InitSessions(logger *applog.Logger, cfg *config.Config) auth.Sessions {
	switch cfg.SessionBackend {
	case "filesystem":
		sessions, err := auth.NewFileSessions(cfg.SessionDir, cfg.SessionTTL)
		if err != nil {
			logger.Error("Failed to initialize session store", applog.FieldError, err, "dir", cfg.SessionDir)
			os.Exit(1)
		}
		return sessions
	default:
		return auth.NewMemorySessions(cfg.SessionTTL)
	}
}

// InitVerifier picks the token verifier. The insecure variant is for
// local development only and is logged loudly.
func InitVerifier(logger *applog.Logger, cfg *config.Config) auth.Verifier {
	if cfg.InsecureAuth {
		logger.Warn("Using insecure token verification, do not expose this instance")
		return auth.InsecureVerifier{}
	}
	return auth.NewGoogleVerifier(cfg.GoogleClientID)
}

// GracefulShutdown cancels the returned context on SIGINT/SIGTERM and
// runs cleanup with a bounded timeout.
func GracefulShutdown(logger *applog.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		cancel()
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until shutdown has completed.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
