package usecase

import (
	"fmt"
	"sort"

	"github.com/kirillkom/search-gateway/internal/core/domain"
)

// DedupeDocuments filters docs down to the first occurrence of each document
// id, preserving order, and reports the original positions that were dropped.
// Pure and idempotent: a deduplicated list comes back unchanged with no drops.
func DedupeDocuments(docs []domain.SearchDoc) ([]domain.SearchDoc, []int) {
	deduped := make([]domain.SearchDoc, 0, len(docs))
	dropped := make([]int, 0)
	seen := make(map[string]struct{}, len(docs))

	for pos, doc := range docs {
		if _, ok := seen[doc.DocumentID]; ok {
			dropped = append(dropped, pos)
			continue
		}
		seen[doc.DocumentID] = struct{}{}
		deduped = append(deduped, doc)
	}
	return deduped, dropped
}

// MapRelevanceIndices translates relevance positions computed against the
// pre-dedup list into positions in the deduplicated list. Positions that were
// dropped disappear; survivors shift left past every dropped slot before
// them. An original index outside [0, originalLen) is an upstream producer
// bug and fails the whole call.
func MapRelevanceIndices(original []int, dropped []int, originalLen int) ([]int, error) {
	droppedSet := make(map[int]struct{}, len(dropped))
	for _, d := range dropped {
		droppedSet[d] = struct{}{}
	}

	mapped := make([]int, 0, len(original))
	seen := make(map[int]struct{}, len(original))
	for _, idx := range original {
		if idx < 0 || idx >= originalLen {
			return nil, domain.WrapError(domain.ErrContractViolation, "map relevance indices",
				fmt.Errorf("index %d out of range for %d documents", idx, originalLen))
		}
		if _, ok := droppedSet[idx]; ok {
			continue
		}

		shift := 0
		for d := range droppedSet {
			if d < idx {
				shift++
			}
		}
		target := idx - shift
		if _, ok := seen[target]; ok {
			continue
		}
		seen[target] = struct{}{}
		mapped = append(mapped, target)
	}

	sort.Ints(mapped)
	return mapped, nil
}
