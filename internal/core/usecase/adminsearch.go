package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/kirillkom/search-gateway/internal/core/domain"
	"github.com/kirillkom/search-gateway/internal/core/ports"
)

type AdminSearchUseCase struct {
	index ports.DocumentIndex
}

func NewAdminSearchUseCase(index ports.DocumentIndex) *AdminSearchUseCase {
	return &AdminSearchUseCase{index: index}
}

// AdminSearch delegates raw retrieval to the configured index backend and
// deduplicates the hits by document id. Backends without admin retrieval are
// rejected up front, not attempted.
func (uc *AdminSearchUseCase) AdminSearch(ctx context.Context, query string, filters domain.SearchFilter) ([]domain.SearchDoc, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "admin search", fmt.Errorf("query is required"))
	}

	retriever, ok := uc.index.(ports.AdminRetriever)
	if !ok {
		return nil, domain.WrapError(domain.ErrUnsupportedBackend, "admin search",
			fmt.Errorf("index backend %q does not support admin retrieval", uc.index.Name()))
	}

	docs, err := retriever.AdminRetrieval(ctx, query, filters)
	if err != nil {
		return nil, fmt.Errorf("admin retrieval: %w", err)
	}

	deduped, _ := DedupeDocuments(docs)
	return deduped, nil
}
