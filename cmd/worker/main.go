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

	"github.com/kirillkom/chat-order-intake/internal/bootstrap"
	"github.com/kirillkom/chat-order-intake/internal/config"
	"github.com/kirillkom/chat-order-intake/internal/core/domain"
	"github.com/kirillkom/chat-order-intake/internal/observability/logging"
	"github.com/kirillkom/chat-order-intake/internal/observability/metrics"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	logger := logging.NewJSONLogger("order-worker", cfg.LogLevel)
	slog.SetDefault(logger)
	if envErr != nil {
		logger.Debug("no .env file loaded", "error", envErr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerMetrics := metrics.NewWorkerMetrics("order-worker")
	app, err := bootstrap.New(ctx, cfg, logger, workerMetrics)
	if err != nil {
		logger.Error("bootstrap error", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	reload := func() error {
		stats, err := app.Catalog.Reload(ctx)
		workerMetrics.RecordCatalogReload(stats, err)
		if err != nil {
			return err
		}
		logger.Info("catalog_loaded", "clients", stats.Clients, "articles", stats.Articles)
		return nil
	}
	// Without a catalog every order would be rejected, so the worker refuses to start.
	if err := reload(); err != nil {
		logger.Error("catalog_initial_load_failed", "error", err)
		os.Exit(1)
	}
	go reloadOnHangup(ctx, logger, reload)

	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           workerMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("worker metrics listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker metrics server error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	queue, err := app.OpenQueue()
	if err != nil {
		logger.Error("worker queue error", "error", err)
		os.Exit(1)
	}

	logger.Info("worker subscribed", "subject", cfg.NATSOrderSubject, "queue_group", cfg.NATSQueueGroup)
	err = queue.SubscribeOrderMessages(ctx, func(handlerCtx context.Context, message domain.ChatMessage) string {
		if !message.ReceivedAt.IsZero() {
			workerMetrics.ObserveQueueLag(time.Since(message.ReceivedAt))
		}
		return app.Orders.HandleMessage(handlerCtx, message)
	})
	if err != nil {
		logger.Error("worker subscribe error", "error", err)
	}
}

// reloadOnHangup rebuilds the catalog on SIGHUP. A failed reload keeps the
// snapshot in use.
func reloadOnHangup(ctx context.Context, logger *slog.Logger, reload func() error) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := reload(); err != nil {
				logger.Error("catalog_reload_failed", "error", err)
			}
		}
	}
}
