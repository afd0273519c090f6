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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/ericfisherdev/invoice2erpnext/internal/adapter/driven/billing"
	sqliteadapter "github.com/ericfisherdev/invoice2erpnext/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/invoice2erpnext/internal/adapter/driving/http"
	"github.com/ericfisherdev/invoice2erpnext/internal/application"
	"github.com/ericfisherdev/invoice2erpnext/internal/auth"
	"github.com/ericfisherdev/invoice2erpnext/internal/config"
	"github.com/ericfisherdev/invoice2erpnext/internal/logging"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on invalid values).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.Setup(cfg.LogLevel)
	logger.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"base_url", cfg.BaseURL,
		"http_timeout", cfg.HTTPTimeout,
		"secret_storage", cfg.HasSecretKey(),
	)
	if !cfg.HasSecretKey() {
		logger.Warn("INVOICE2ERPNEXT_SECRET_KEY not set, api credentials cannot be stored or used")
	}

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database and run migrations on the writer connection.
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	logger.Info("migrations complete", "path", cfg.DBPath)

	// 4. Wire adapters.
	settingsStore := sqliteadapter.NewSettingsRepo(db)
	secretStore := sqliteadapter.NewSecretRepo(db, cfg.SecretKey)
	errorLog := sqliteadapter.NewErrorLogRepo(db)
	billingClient := billing.NewClient(cfg.BaseURL, cfg.CreditsMethod, cfg.HTTPTimeout)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// 5. Wire services.
	fetcher := application.NewBalanceFetcher(secretStore, billingClient, errorLog, application.NewMetrics(registry), logger)
	settingsSvc := application.NewSettingsService(settingsStore, secretStore, fetcher, logger)
	creditsSvc := application.NewCreditsService(settingsStore, fetcher, errorLog, logger)

	// 6. HTTP server.
	tokens := auth.NewJWTManager(cfg.JWTSecret, 0)
	h := httphandler.NewHandler(settingsSvc, creditsSvc, errorLog, logger)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httphandler.NewServeMux(h, tokens, registry, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// The credits call blocks the request for the billing round trip.
		WriteTimeout: cfg.HTTPTimeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	// 7. Wait for shutdown signal.
	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}
