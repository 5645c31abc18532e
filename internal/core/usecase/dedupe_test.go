package usecase

import (
	"reflect"
	"testing"

	"github.com/kirillkom/search-gateway/internal/core/domain"
)

func docs(ids ...string) []domain.SearchDoc {
	out := make([]domain.SearchDoc, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.SearchDoc{DocumentID: id})
	}
	return out
}

func docIDs(in []domain.SearchDoc) []string {
	out := make([]string, 0, len(in))
	for _, d := range in {
		out = append(out, d.DocumentID)
	}
	return out
}

func TestDedupeDocumentsKeepsFirstSeenOrder(t *testing.T) {
	deduped, dropped := DedupeDocuments(docs("a", "b", "a", "c", "b"))

	if got := docIDs(deduped); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("deduped ids = %v", got)
	}
	if !reflect.DeepEqual(dropped, []int{2, 4}) {
		t.Fatalf("dropped = %v", dropped)
	}
}

func TestDedupeDocumentsIdempotent(t *testing.T) {
	once, _ := DedupeDocuments(docs("a", "b", "a"))
	twice, dropped := DedupeDocuments(once)

	if !reflect.DeepEqual(docIDs(once), docIDs(twice)) {
		t.Fatalf("second pass changed the list: %v vs %v", docIDs(once), docIDs(twice))
	}
	if len(dropped) != 0 {
		t.Fatalf("second pass dropped %v", dropped)
	}
}

func TestDedupeDocumentsEmptyInput(t *testing.T) {
	deduped, dropped := DedupeDocuments(nil)
	if len(deduped) != 0 || len(dropped) != 0 {
		t.Fatalf("expected empty outcome, got %v / %v", deduped, dropped)
	}
}

func TestMapRelevanceIndicesIdentityWhenNothingDropped(t *testing.T) {
	mapped, err := MapRelevanceIndices([]int{0, 2, 3}, nil, 4)
	if err != nil {
		t.Fatalf("MapRelevanceIndices() error = %v", err)
	}
	if !reflect.DeepEqual(mapped, []int{0, 2, 3}) {
		t.Fatalf("mapped = %v", mapped)
	}
}

func TestMapRelevanceIndicesCompactsPastDroppedSlots(t *testing.T) {
	// Documents [A, B, A, C]: position 2 dropped, relevance {0, 2, 3}.
	mapped, err := MapRelevanceIndices([]int{0, 2, 3}, []int{2}, 4)
	if err != nil {
		t.Fatalf("MapRelevanceIndices() error = %v", err)
	}
	if !reflect.DeepEqual(mapped, []int{0, 2}) {
		t.Fatalf("mapped = %v", mapped)
	}
}

func TestMapRelevanceIndicesEmptyOriginal(t *testing.T) {
	mapped, err := MapRelevanceIndices(nil, []int{1}, 3)
	if err != nil {
		t.Fatalf("MapRelevanceIndices() error = %v", err)
	}
	if len(mapped) != 0 {
		t.Fatalf("mapped = %v", mapped)
	}
}

func TestMapRelevanceIndicesRejectsOutOfRange(t *testing.T) {
	_, err := MapRelevanceIndices([]int{5}, nil, 4)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrContractViolation) {
		t.Fatalf("expected ErrContractViolation, got %v", err)
	}

	_, err = MapRelevanceIndices([]int{-1}, nil, 4)
	if !domain.IsKind(err, domain.ErrContractViolation) {
		t.Fatalf("expected ErrContractViolation for negative index, got %v", err)
	}
}

func TestMapRelevanceIndicesAllValuesWithinDedupedBounds(t *testing.T) {
	original := []int{0, 1, 2, 3, 4, 5}
	dropped := []int{1, 4}
	mapped, err := MapRelevanceIndices(original, dropped, 6)
	if err != nil {
		t.Fatalf("MapRelevanceIndices() error = %v", err)
	}
	bound := 6 - len(dropped)
	for _, idx := range mapped {
		if idx < 0 || idx >= bound {
			t.Fatalf("index %d outside deduped bounds %d", idx, bound)
		}
	}
}

func TestDedupeAndMapEndToEnd(t *testing.T) {
	deduped, dropped := DedupeDocuments(docs("A", "B", "A", "C"))
	if got := docIDs(deduped); !reflect.DeepEqual(got, []string{"A", "B", "C"}) {
		t.Fatalf("deduped = %v", got)
	}
	if !reflect.DeepEqual(dropped, []int{2}) {
		t.Fatalf("dropped = %v", dropped)
	}

	mapped, err := MapRelevanceIndices([]int{0, 2, 3}, dropped, 4)
	if err != nil {
		t.Fatalf("MapRelevanceIndices() error = %v", err)
	}
	if !reflect.DeepEqual(mapped, []int{0, 2}) {
		t.Fatalf("mapped = %v", mapped)
	}
}
