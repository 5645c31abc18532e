package ports

import (
	"context"

	"github.com/kirillkom/search-gateway/internal/core/domain"
)

// SearchService is the inbound contract for non-streaming document search.
type SearchService interface {
	Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResult, error)
}

// AnswerService is the inbound contract for streaming answer assembly.
type AnswerService interface {
	Answer(ctx context.Context, query string, filters domain.SearchFilter) (*domain.AssembledAnswer, error)
	AnswerStream(ctx context.Context, query string, filters domain.SearchFilter, observe func(domain.StreamPacket)) (*domain.AssembledAnswer, error)
}

// AdminSearchService is the inbound contract for capability-gated admin search.
type AdminSearchService interface {
	AdminSearch(ctx context.Context, query string, filters domain.SearchFilter) ([]domain.SearchDoc, error)
}
