// Copyright (c) 2026 AI Takashi. All rights reserved.
// Author: takashibox.dotcom@gmail.com

// Command api is the entry point for the AI Takashi account service.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Open the user registry file store.
//  4. Open the secret vault (derive the encryption key).
//  5. Warm up the upstream API key.
//  6. Start the session sweeper.
//  7. Wire HTTP handlers.
//  8. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/takashibox-dotcom/ai-takashi-web/internal/api"
	"github.com/takashibox-dotcom/ai-takashi-web/internal/auth"
	"github.com/takashibox-dotcom/ai-takashi-web/internal/platform/config"
	"github.com/takashibox-dotcom/ai-takashi-web/internal/platform/constants"
	"github.com/takashibox-dotcom/ai-takashi-web/internal/vault"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("data_dir", cfg.DataDir),
	)

	must(log, os.MkdirAll(cfg.DataDir, 0o700), "create data directory")

	// ── 3. User Registry ──────────────────────────────────────────────────
	store, err := auth.NewFileStore(cfg.RegistryFile, log)
	must(log, err, "open user registry")

	// ── 4. Secret Vault ───────────────────────────────────────────────────
	// Fails closed: a missing passphrase was already rejected by config.Load.
	vlt, err := vault.New(vault.Options{
		SaltPath:    cfg.VaultSaltFile,
		SecretsPath: cfg.VaultSecretsFile,
		Passphrase:  cfg.VaultPassphrase,
		Logger:      log,
	})
	must(log, err, "open secret vault")

	if vlt.Degraded() {
		log.Warn("vault_degraded_secrets_not_durable")
	}

	// ── 5. API Key Warm-Up ────────────────────────────────────────────────
	// The key is optional at startup; chat features surface the absence later.
	if _, err := vlt.APIKey(); err != nil {
		if errors.Is(err, vault.ErrNoAPIKey) {
			log.Warn("upstream_api_key_not_configured")
		} else {
			must(log, err, "resolve upstream api key")
		}
	} else {
		log.Info("upstream_api_key_available")
	}

	// ── 6. Session Manager ────────────────────────────────────────────────
	sessions := auth.NewSessionManager(store, log)

	sweeperCtx, sweeperCancel := context.WithCancel(context.Background())
	defer sweeperCancel()

	// Clear any sessions that expired while the service was down, then keep
	// sweeping periodically for the life of the process.
	if _, err := sessions.Sweep(sweeperCtx, time.Now().UTC()); err != nil {
		log.Error("initial_session_sweep_failed", slog.Any("error", err))
	}
	go sessions.Run(sweeperCtx)

	// ── 7. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckRegistry: store.Ping,
		CheckVault: func() error {
			if vlt.Degraded() {
				return errors.New("vault running on ephemeral key material")
			}
			return nil
		},
	}, log)

	// ── 8. Domain Wiring ──────────────────────────────────────────────────
	authService := auth.NewService(store, sessions, log)
	authHandler := auth.NewHandler(authService)

	// ── 9. HTTP Server ────────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      authHandler,
	}

	server := api.NewServer(cfg, log, authService, handlers)

	// ── 10. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
