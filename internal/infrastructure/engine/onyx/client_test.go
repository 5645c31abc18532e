package onyx

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kirillkom/search-gateway/internal/core/domain"
)

func TestDocumentSearchBuildsEngineRequest(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/query/document-search" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"top_documents": [{"document_id": "d1", "semantic_identifier": "Doc"}], "llm_indices": [0]}`))
	}))
	defer server.Close()

	client := New(server.URL, "key", Options{})
	result, err := client.DocumentSearch(context.Background(), domain.SearchRequest{
		Message:    "homework",
		SearchType: "keyword",
		RetrievalOptions: domain.RetrievalOptions{
			Limit: 10,
		},
	})
	if err != nil {
		t.Fatalf("DocumentSearch() error = %v", err)
	}
	if len(result.TopDocuments) != 1 || result.TopDocuments[0].DocumentID != "d1" {
		t.Fatalf("result = %+v", result)
	}

	if captured["message"] != "homework" || captured["evaluation_type"] != "skip" {
		t.Fatalf("request = %v", captured)
	}
	options, _ := captured["retrieval_options"].(map[string]any)
	if options["run_search"] != "always" {
		t.Fatalf("retrieval options = %v", options)
	}
}

func TestDocumentSearchEmptyBodyIsDistinctFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New(server.URL, "", Options{})
	_, err := client.DocumentSearch(context.Background(), domain.SearchRequest{Message: "q"})
	if !domain.IsKind(err, domain.ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestDocumentSearchRetryableStatusWrappedTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := New(server.URL, "", Options{})
	_, err := client.DocumentSearch(context.Background(), domain.SearchRequest{Message: "q"})
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected ErrTemporary, got %v", err)
	}

	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected status detail in error chain, got %v", err)
	}
}

func TestDocumentSearchIncludesBodyInStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad filters", http.StatusBadRequest)
	}))
	defer server.Close()

	client := New(server.URL, "", Options{})
	_, err := client.DocumentSearch(context.Background(), domain.SearchRequest{Message: "q"})
	if err == nil || !errors.As(err, new(*HTTPStatusError)) {
		t.Fatalf("expected HTTPStatusError, got %v", err)
	}
	if got := err.Error(); !strings.Contains(got, "bad filters") {
		t.Fatalf("expected body in error, got %q", got)
	}
}

func TestOpenAnswerFeedCreatesSessionThenStreams(t *testing.T) {
	var sawSessionID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/chat/create-chat-session":
			_, _ = w.Write([]byte(`{"chat_session_id": "sess-1"}`))
		case "/chat/send-message":
			var payload map[string]any
			_ = json.NewDecoder(r.Body).Decode(&payload)
			sawSessionID, _ = payload["chat_session_id"].(string)
			flusher := w.(http.Flusher)
			_, _ = io.WriteString(w, `{"answer_piece": "streamed"}`+"\n")
			flusher.Flush()
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := New(server.URL, "key", Options{})
	feed, err := client.OpenAnswerFeed(context.Background(), "question", domain.SearchFilter{})
	if err != nil {
		t.Fatalf("OpenAnswerFeed() error = %v", err)
	}
	defer feed.Close()

	packet, err := feed.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if packet.AnswerPiece != "streamed" {
		t.Fatalf("packet = %+v", packet)
	}
	if sawSessionID != "sess-1" {
		t.Fatalf("session id = %q", sawSessionID)
	}
}

func TestOpenAnswerFeedRejectsMissingSessionID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := New(server.URL, "", Options{})
	_, err := client.OpenAnswerFeed(context.Background(), "q", domain.SearchFilter{})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestGetDocumentNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := New(server.URL, "", Options{})
	_, err := client.GetDocument(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestHealthReportsNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := New(server.URL, "", Options{})
	if err := client.Health(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}
