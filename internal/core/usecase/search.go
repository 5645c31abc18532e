package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/kirillkom/search-gateway/internal/core/domain"
	"github.com/kirillkom/search-gateway/internal/core/ports"
)

type SearchUseCase struct {
	engine        ports.RetrievalEngine
	defaultLimit  int
	dedupeDefault bool
}

func NewSearchUseCase(engine ports.RetrievalEngine, defaultLimit int, dedupeDefault bool) *SearchUseCase {
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	return &SearchUseCase{
		engine:        engine,
		defaultLimit:  defaultLimit,
		dedupeDefault: dedupeDefault,
	}
}

// Search runs a document search against the engine and reconciles the result:
// optional dedup by document id, then remapping of the engine's relevance
// indices so they stay valid against the list the caller actually receives.
func (uc *SearchUseCase) Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResult, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "search", fmt.Errorf("message is required"))
	}
	if req.SearchType == "" {
		req.SearchType = "keyword"
	}
	if req.RetrievalOptions.Limit <= 0 {
		req.RetrievalOptions.Limit = uc.defaultLimit
	}

	result, err := uc.engine.DocumentSearch(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("document search: %w", err)
	}

	dedupe := uc.dedupeDefault
	if req.RetrievalOptions.DedupeDocs != nil {
		dedupe = *req.RetrievalOptions.DedupeDocs
	}

	docs := result.TopDocuments
	originalLen := len(docs)
	var dropped []int
	if dedupe {
		docs, dropped = DedupeDocuments(docs)
	}

	// Always run the mapper: with nothing dropped it is the identity map and
	// still rejects out-of-range indices from the engine.
	indices, err := MapRelevanceIndices(result.LLMIndices, dropped, originalLen)
	if err != nil {
		return nil, err
	}

	return &domain.SearchResult{
		TopDocuments:     docs,
		LLMIndices:       indices,
		DroppedPositions: dropped,
	}, nil
}
