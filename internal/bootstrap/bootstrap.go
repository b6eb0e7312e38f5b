package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/chat-order-intake/internal/adapters/chat"
	"github.com/kirillkom/chat-order-intake/internal/config"
	"github.com/kirillkom/chat-order-intake/internal/core/domain"
	"github.com/kirillkom/chat-order-intake/internal/core/ports"
	"github.com/kirillkom/chat-order-intake/internal/core/usecase"
	"github.com/kirillkom/chat-order-intake/internal/infrastructure/dedupe"
	"github.com/kirillkom/chat-order-intake/internal/infrastructure/export/xlsx"
	"github.com/kirillkom/chat-order-intake/internal/infrastructure/fuzzy"
	"github.com/kirillkom/chat-order-intake/internal/infrastructure/queue/nats"
	"github.com/kirillkom/chat-order-intake/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/chat-order-intake/internal/infrastructure/resilience"
)

// Instrumentation receives order outcomes and resilience transitions.
// Both the API and the worker metrics satisfy it.
type Instrumentation interface {
	chat.OutcomeRecorder
	resilience.Observer
}

type App struct {
	Config config.Config
	Logger *slog.Logger

	Catalog  *usecase.CatalogUseCase
	Orders   *chat.Handler
	Summary  ports.PendingSummaryReader
	Exporter ports.SummaryExporter

	executor *resilience.Executor
	closeFn  []func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger, instr Instrumentation) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	defaults, err := config.LoadOrderDefaults(cfg.OrderDefaultsFile)
	if err != nil {
		return nil, fmt.Errorf("load order defaults: %w", err)
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	app := &App{
		Config:  cfg,
		Logger:  logger,
		closeFn: []func(){func() { _ = db.Close() }},
	}

	if cfg.PostgresEnsureSchema {
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			app.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
	}

	app.executor = resilience.NewExecutor(resilience.OrderWritePolicy(
		cfg.PersistenceRetryMaxAttempts,
		time.Duration(cfg.PersistenceRetryInitialBackoffMS)*time.Millisecond,
		cfg.PersistenceBreakerEnabled,
	))
	if instr != nil {
		app.executor.WithObserver(instr)
	}

	app.Catalog = usecase.NewCatalogUseCase(
		postgres.NewCatalogLoader(db, cfg.CompanyCode, cfg.CatalogClientExcludePattern),
		fuzzy.Builder{
			Clients: fuzzy.Options{
				Threshold:      cfg.ClientMatchThreshold,
				MinQueryLength: cfg.MatchMinQueryLength,
				FoldDiacritics: cfg.CatalogFoldDiacritics,
			},
			Articles: fuzzy.Options{
				Threshold:      cfg.ArticleMatchThreshold,
				MinQueryLength: cfg.MatchMinQueryLength,
				FoldDiacritics: cfg.CatalogFoldDiacritics,
			},
		},
	)

	store := postgres.NewOrderStore(db, postgres.OrderStoreOptions{
		AttemptTimeout:     time.Duration(cfg.PersistenceAttemptTimeoutSeconds) * time.Second,
		ResilienceExecutor: app.executor,
	})
	writer := usecase.NewOrderWriter(store, cfg.CompanyCode, defaults)
	process := usecase.NewProcessOrderMessageUseCase(app.Catalog, writer, logger)

	app.Summary = usecase.NewPendingSummaryUseCase(postgres.NewSummaryRepository(db), domain.SummaryFilter{
		Partition:   cfg.CompanyCode,
		RouteCodes:  cfg.SummaryRouteCodes,
		Subfamilies: cfg.SummarySubfamilies,
	})
	app.Exporter = xlsx.NewExporter()

	options := chat.HandlerOptions{
		Summary: app.Summary,
		Logger:  logger,
	}
	if instr != nil {
		options.Recorder = instr
	}
	if guard := openDedupeGuard(ctx, cfg, logger); guard != nil {
		options.Deduplicator = guard
		app.closeFn = append(app.closeFn, func() { _ = guard.Close() })
	}
	app.Orders = chat.NewHandler(process, options)

	return app, nil
}

// openDedupeGuard returns nil when no Redis address is configured. An
// unreachable Redis at startup is logged; the guard still fails open later.
func openDedupeGuard(ctx context.Context, cfg config.Config, logger *slog.Logger) *dedupe.RedisGuard {
	if cfg.RedisAddr == "" {
		return nil
	}
	guard := dedupe.NewRedisGuard(cfg.RedisAddr, time.Duration(cfg.MessageDedupeTTLSeconds)*time.Second)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := guard.Ping(pingCtx); err != nil {
		logger.Warn("order_dedupe_ping_failed", "addr", cfg.RedisAddr, "error", err)
	}
	return guard
}

// OpenQueue connects the worker to NATS. Reply publishing runs through the
// shared executor under the "nats.reply" breaker.
func (a *App) OpenQueue() (*nats.Queue, error) {
	queue, err := nats.New(a.Config.NATSURL, a.Config.NATSOrderSubject, nats.Options{
		ReplySubject:       a.Config.NATSReplySubject,
		QueueGroup:         a.Config.NATSQueueGroup,
		Concurrency:        a.Config.WorkerConcurrency,
		MessageTimeout:     time.Duration(a.Config.WorkerMessageTimeoutSeconds) * time.Second,
		ResilienceExecutor: a.executor,
		Logger:             a.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}
	a.closeFn = append(a.closeFn, queue.Close)
	return queue, nil
}

func (a *App) Close() {
	for i := len(a.closeFn) - 1; i >= 0; i-- {
		a.closeFn[i]()
	}
	a.closeFn = nil
}
