package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/search-gateway/internal/core/domain"
	"github.com/kirillkom/search-gateway/internal/core/ports"
)

type AnswerUseCase struct {
	engine    ports.RetrievalEngine
	assembler *Assembler
	events    ports.EventPublisher
	logger    *slog.Logger
}

// NewAnswerUseCase wires the streaming answer path. events may be nil when no
// publisher is configured.
func NewAnswerUseCase(engine ports.RetrievalEngine, assembler *Assembler, events ports.EventPublisher, logger *slog.Logger) *AnswerUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnswerUseCase{
		engine:    engine,
		assembler: assembler,
		events:    events,
		logger:    logger,
	}
}

func (uc *AnswerUseCase) Answer(ctx context.Context, query string, filters domain.SearchFilter) (*domain.AssembledAnswer, error) {
	return uc.AnswerStream(ctx, query, filters, nil)
}

// AnswerStream opens one answer feed, assembles it to completion and returns
// the terminal state. observe, when non-nil, sees every applied packet and is
// invoked from the single consuming goroutine.
func (uc *AnswerUseCase) AnswerStream(ctx context.Context, query string, filters domain.SearchFilter, observe func(domain.StreamPacket)) (*domain.AssembledAnswer, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "answer", fmt.Errorf("query is required"))
	}

	feed, err := uc.engine.OpenAnswerFeed(ctx, query, filters)
	if err != nil {
		return nil, fmt.Errorf("open answer feed: %w", err)
	}
	defer func() {
		if closeErr := feed.Close(); closeErr != nil {
			uc.logger.Warn("closing answer feed", "error", closeErr)
		}
	}()

	answer, err := uc.assembler.ConsumeFunc(ctx, feed, observe)
	if answer != nil {
		uc.publishCompleted(query, answer)
	}
	return answer, err
}

func (uc *AnswerUseCase) publishCompleted(query string, answer *domain.AssembledAnswer) {
	if uc.events == nil {
		return
	}

	event := domain.AnswerCompletedEvent{
		SessionID:        uuid.NewString(),
		Query:            query,
		Answer:           answer.Answer,
		Error:            answer.Err,
		DocumentCount:    len(answer.Documents),
		CitationCount:    len(answer.Citations),
		MalformedPackets: answer.MalformedPackets,
		CompletedAt:      time.Now().UTC(),
	}

	// Fire and forget: recording is best effort and must not delay or fail
	// the answer, so the publish leaves the request path entirely.
	go func() {
		publishCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := uc.events.PublishAnswerCompleted(publishCtx, event); err != nil {
			uc.logger.Warn("publish answer completed event", "session_id", event.SessionID, "error", err)
		}
	}()
}
