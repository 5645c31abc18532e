package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/search-gateway/internal/config"
	"github.com/kirillkom/search-gateway/internal/core/ports"
	"github.com/kirillkom/search-gateway/internal/core/usecase"
	"github.com/kirillkom/search-gateway/internal/infrastructure/engine/onyx"
	"github.com/kirillkom/search-gateway/internal/infrastructure/index/vespa"
	"github.com/kirillkom/search-gateway/internal/infrastructure/queue/nats"
	"github.com/kirillkom/search-gateway/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/search-gateway/internal/infrastructure/resilience"
	"github.com/kirillkom/search-gateway/internal/observability/metrics"
)

type App struct {
	Config config.Config

	Engine   ports.RetrievalEngine
	Queue    *nats.Queue
	Sessions ports.SessionStore
	Metrics  *metrics.Metrics

	SearchUC ports.SearchService
	AnswerUC ports.AnswerService
	AdminUC  ports.AdminSearchService

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	sessions := postgres.NewSessionRepository(db)
	if err := sessions.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	executor := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    cfg.RetryMaxAttempts,
		RetryInitialBackoff: cfg.RetryInitialBackoff,
		RetryMaxBackoff:     cfg.RetryMaxBackoff,
		BreakerEnabled:      true,
		BreakerMinRequests:  uint32(cfg.BreakerMinRequests),
		BreakerFailureRatio: cfg.BreakerFailureRatio,
		BreakerOpenTimeout:  cfg.BreakerOpenTimeout,
	})

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	engine := onyx.New(cfg.EngineURL, cfg.EngineAPIKey, onyx.Options{
		Timeout:        cfg.EngineTimeout,
		RateLimitRPS:   cfg.EngineRateRPS,
		RateLimitBurst: cfg.EngineRateBurst,
		Executor:       executor,
	})
	index := vespa.New(cfg.VespaURL, cfg.VespaIndexName)

	assembler := usecase.NewAssembler(logger)
	searchUC := usecase.NewSearchUseCase(engine, cfg.SearchDefaultLimit, cfg.SearchDedupeDocs)
	answerUC := usecase.NewAnswerUseCase(engine, assembler, queue, logger)
	adminUC := usecase.NewAdminSearchUseCase(index)

	return &App{
		Config: cfg,

		Engine:   engine,
		Queue:    queue,
		Sessions: sessions,
		Metrics:  metrics.New("search-gateway"),

		SearchUC: searchUC,
		AnswerUC: answerUC,
		AdminUC:  adminUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
