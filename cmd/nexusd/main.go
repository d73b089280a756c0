// Entry point for the NexusTrade API service: chi router, shield stack,
// Firebase identity, Gemini analysis, SQLite ledger/history/events.
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

	_ "modernc.org/sqlite"

	"github.com/nexustrade/nexusd/analyzer"
	"github.com/nexustrade/nexusd/api"
	"github.com/nexustrade/nexusd/chartstore"
	"github.com/nexustrade/nexusd/config"
	"github.com/nexustrade/nexusd/dbopen"
	"github.com/nexustrade/nexusd/history"
	"github.com/nexustrade/nexusd/identity"
	"github.com/nexustrade/nexusd/license"
	"github.com/nexustrade/nexusd/observability"
	"github.com/nexustrade/nexusd/shield"
)

const eventRetentionDays = 90

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}

	// Logging.
	var lvl slog.Level
	switch cfg.LogLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Identity provider. Required: without it no request can authenticate.
	if cfg.FirebaseCredentials == "" {
		slog.Error("FIREBASE_CREDENTIALS is required")
		os.Exit(1)
	}
	app, err := identity.NewApp(ctx, cfg.FirebaseCredentials, cfg.ChartBucket)
	if err != nil {
		slog.Error("firebase app", "error", err)
		os.Exit(1)
	}
	resolver, err := identity.NewFirebaseResolver(ctx, app)
	if err != nil {
		slog.Error("firebase auth", "error", err)
		os.Exit(1)
	}

	// Model client. Optional at startup: handlers answer 500 until the key
	// is configured, health checks keep passing.
	var model analyzer.ModelClient
	if cfg.GeminiAPIKey != "" {
		gemini, err := analyzer.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.Model, cfg.ModelDeadline())
		if err != nil {
			slog.Error("gemini client", "error", err)
			os.Exit(1)
		}
		model = gemini
	} else {
		slog.Warn("GEMINI_API_KEY not set; /api/analyze will report misconfiguration")
	}

	// Chart bucket. Optional: without it analyses simply have no image URL.
	var charts chartstore.Uploader = chartstore.NopUploader{}
	if cfg.ChartBucket != "" {
		store, err := chartstore.NewBucketStore(ctx, app, cfg.ChartBucket)
		if err != nil {
			slog.Error("chart bucket", "error", err)
			os.Exit(1)
		}
		charts = store
	}

	// Ledger DB: license activations + analysis history.
	ledgerDB, err := dbopen.Open(cfg.LedgerDB,
		dbopen.WithMkdirAll(),
		dbopen.WithSchema(license.Schema),
		dbopen.WithSchema(history.Schema))
	if err != nil {
		slog.Error("ledger db", "error", err)
		os.Exit(1)
	}
	defer ledgerDB.Close()

	// Events DB, separate so event churn never contends with the ledger.
	eventsDB, err := dbopen.Open(cfg.EventsDB,
		dbopen.WithMkdirAll(),
		dbopen.WithSchema(observability.Schema))
	if err != nil {
		slog.Error("events db", "error", err)
		os.Exit(1)
	}
	defer eventsDB.Close()
	events := observability.NewEventLogger(eventsDB)
	observability.StartCleanup(eventsDB, eventRetentionDays, ctx.Done())

	activator := license.NewActivator(cfg.LicenseKey, resolver, license.NewLedger(ledgerDB))
	if cfg.LicenseKey == "" {
		slog.Warn("LICENSE_KEY not set; /api/activate will report misconfiguration")
	}

	limiter := shield.NewLimiter()
	limiter.StartGC(ctx.Done(), 5*time.Minute, time.Hour)

	server := api.New(cfg, limiter, resolver, model, activator,
		history.NewStore(ledgerDB), charts, events)

	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	go func() {
		slog.Info("nexusd listening", "addr", cfg.Listen, "model", cfg.Model)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
}
