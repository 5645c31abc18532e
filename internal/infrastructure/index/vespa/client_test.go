package vespa

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kirillkom/search-gateway/internal/core/domain"
)

func TestAdminRetrievalMapsHits(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"root": {"children": [
			{"relevance": 0.8, "fields": {"document_id": "d1", "semantic_identifier": "One", "link": "http://d1"}},
			{"relevance": 0.5, "fields": {"semantic_identifier": "no id, skipped"}},
			{"relevance": 0.3, "fields": {"document_id": "d2"}}
		]}}`))
	}))
	defer server.Close()

	client := New(server.URL, "documents")
	docs, err := client.AdminRetrieval(context.Background(), "payroll", domain.SearchFilter{})
	if err != nil {
		t.Fatalf("AdminRetrieval() error = %v", err)
	}
	if len(docs) != 2 || docs[0].DocumentID != "d1" || docs[1].DocumentID != "d2" {
		t.Fatalf("docs = %v", docs)
	}
	if docs[0].Score != 0.8 {
		t.Fatalf("score = %v", docs[0].Score)
	}

	if captured["query"] != "payroll" {
		t.Fatalf("request = %v", captured)
	}
	if yql, _ := captured["yql"].(string); !strings.Contains(yql, "documents") {
		t.Fatalf("yql = %q", yql)
	}
}

func TestAdminRetrievalStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "syntax error", http.StatusBadRequest)
	}))
	defer server.Close()

	client := New(server.URL, "documents")
	_, err := client.AdminRetrieval(context.Background(), "q", domain.SearchFilter{})
	if err == nil || !strings.Contains(err.Error(), "syntax error") {
		t.Fatalf("expected status detail, got %v", err)
	}
}
