package ports

import (
	"context"

	"github.com/kirillkom/search-gateway/internal/core/domain"
)

// RetrievalEngine is the boundary to the external retrieval/answer engine.
type RetrievalEngine interface {
	DocumentSearch(ctx context.Context, req domain.SearchRequest) (*domain.SearchResult, error)
	OpenAnswerFeed(ctx context.Context, query string, filters domain.SearchFilter) (AnswerFeed, error)
	GetDocument(ctx context.Context, documentID string) (*domain.SearchDoc, error)
	Health(ctx context.Context) error
}

// AnswerFeed is a pull-based sequential source of classified packets. Next
// blocks until a packet is available, returns io.EOF at end of feed, and
// returns an error wrapping domain.ErrMalformedPacket for a unit that failed
// to parse (the feed stays readable after it).
type AnswerFeed interface {
	Next() (domain.StreamPacket, error)
	Close() error
}

// DocumentIndex identifies a configured index backend. Backends gain
// capabilities through extension interfaces like AdminRetriever.
type DocumentIndex interface {
	Name() string
}

// AdminRetriever is the capability required by admin search.
type AdminRetriever interface {
	DocumentIndex
	AdminRetrieval(ctx context.Context, query string, filters domain.SearchFilter) ([]domain.SearchDoc, error)
}

// SessionStore persists completed answer sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, session *domain.AnswerSession) error
	GetByID(ctx context.Context, id string) (*domain.AnswerSession, error)
	ListRecent(ctx context.Context, limit int) ([]domain.AnswerSession, error)
}

// EventPublisher publishes answer-completed events for asynchronous recording.
type EventPublisher interface {
	PublishAnswerCompleted(ctx context.Context, event domain.AnswerCompletedEvent) error
}
