package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/search-gateway/internal/bootstrap"
	"github.com/kirillkom/search-gateway/internal/config"
	"github.com/kirillkom/search-gateway/internal/core/domain"
	"github.com/kirillkom/search-gateway/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger(os.Stdout, "search-gateway-worker", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: app.Metrics.Handler(),
	}
	go func() {
		logger.Info("worker metrics listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("worker metrics server failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeAnswerCompleted(ctx, func(handlerCtx context.Context, event domain.AnswerCompletedEvent) error {
		storeCtx, cancel := context.WithTimeout(handlerCtx, 30*time.Second)
		defer cancel()
		return app.Sessions.CreateSession(storeCtx, &domain.AnswerSession{
			ID:               event.SessionID,
			Query:            event.Query,
			Answer:           event.Answer,
			Error:            event.Error,
			DocumentCount:    event.DocumentCount,
			CitationCount:    event.CitationCount,
			MalformedPackets: event.MalformedPackets,
			CreatedAt:        event.CompletedAt,
		})
	})
	if err != nil {
		logger.Error("worker subscribe failed", "error", err)
		os.Exit(1)
	}
}
