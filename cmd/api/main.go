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

	"github.com/joho/godotenv"

	httpadapter "github.com/kirillkom/chat-order-intake/internal/adapters/http"
	"github.com/kirillkom/chat-order-intake/internal/bootstrap"
	"github.com/kirillkom/chat-order-intake/internal/config"
	"github.com/kirillkom/chat-order-intake/internal/observability/logging"
	"github.com/kirillkom/chat-order-intake/internal/observability/metrics"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	logger := logging.NewJSONLogger("order-api", cfg.LogLevel)
	slog.SetDefault(logger)
	if envErr != nil {
		logger.Debug("no .env file loaded", "error", envErr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpMetrics := metrics.NewHTTPServerMetrics("order-api")
	app, err := bootstrap.New(ctx, cfg, logger, httpMetrics)
	if err != nil {
		logger.Error("bootstrap error", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	stats, err := app.Catalog.Reload(ctx)
	httpMetrics.RecordCatalogReload(stats, err)
	if err != nil {
		// The API still serves summaries; order intake answers 503 until a reload succeeds.
		logger.Error("catalog_initial_load_failed", "error", err)
	} else {
		logger.Info("catalog_loaded", "clients", stats.Clients, "articles", stats.Articles)
	}

	router := httpadapter.NewRouter(cfg, app.Orders, app.Catalog, app.Summary, app.Exporter, httpMetrics).Handler()
	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("api listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api shutdown error", "error", err)
	}
}
