package onyx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/kirillkom/search-gateway/internal/core/domain"
	"github.com/kirillkom/search-gateway/internal/core/ports"
	"github.com/kirillkom/search-gateway/internal/infrastructure/resilience"
)

// Client talks to the retrieval/answer engine over HTTP. One instance is
// shared across requests; per-answer state lives in the Feed it hands out.
type Client struct {
	baseURL      string
	apiKey       string
	httpClient   *http.Client
	streamClient *http.Client
	limiter      *rate.Limiter
	executor     *resilience.Executor
}

type Options struct {
	Timeout        time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
	Executor       *resilience.Executor
}

func New(baseURL, apiKey string, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	var limiter *rate.Limiter
	if options.RateLimitRPS > 0 {
		burst := options.RateLimitBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(options.RateLimitRPS), burst)
	}

	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       apiKey,
		httpClient:   &http.Client{Timeout: timeout},
		streamClient: &http.Client{},
		limiter:      limiter,
		executor:     options.Executor,
	}
}

func (c *Client) DocumentSearch(ctx context.Context, req domain.SearchRequest) (*domain.SearchResult, error) {
	evaluationType := req.EvaluationType
	if evaluationType == "" {
		evaluationType = "skip"
	}

	payload := map[string]any{
		"message":     req.Message,
		"search_type": req.SearchType,
		"retrieval_options": map[string]any{
			"filters":                    req.RetrievalOptions.Filters,
			"run_search":                 "always",
			"real_time":                  true,
			"enable_auto_detect_filters": false,
			"offset":                     req.RetrievalOptions.Offset,
			"limit":                      req.RetrievalOptions.Limit,
		},
		"recency_bias_multiplier": 1.0,
		"evaluation_type":         evaluationType,
	}
	if req.RerankSettings != nil {
		payload["rerank_settings"] = req.RerankSettings
	} else {
		payload["rerank_settings"] = nil
	}

	var response struct {
		TopDocuments []wireDoc `json:"top_documents"`
		LLMIndices   []int     `json:"llm_indices"`
	}
	err := c.execute(ctx, "document_search", func(callCtx context.Context) error {
		return c.postJSON(callCtx, "/query/document-search", payload, &response, "document_search")
	})
	if err != nil {
		return nil, wrapTemporaryIfNeeded("document_search", err)
	}

	docs := make([]domain.SearchDoc, 0, len(response.TopDocuments))
	for _, doc := range response.TopDocuments {
		docs = append(docs, doc.SearchDoc)
	}
	return &domain.SearchResult{
		TopDocuments: docs,
		LLMIndices:   response.LLMIndices,
	}, nil
}

// OpenAnswerFeed creates a chat session and opens the streaming send-message
// call. Only the session creation goes through the retry executor; the
// streaming request itself is never retried once the body is open.
func (c *Client) OpenAnswerFeed(ctx context.Context, query string, filters domain.SearchFilter) (ports.AnswerFeed, error) {
	var session struct {
		ChatSessionID string `json:"chat_session_id"`
	}
	err := c.execute(ctx, "create_chat_session", func(callCtx context.Context) error {
		payload := map[string]any{"description": "search-gateway answer"}
		return c.postJSON(callCtx, "/chat/create-chat-session", payload, &session, "create_chat_session")
	})
	if err != nil {
		return nil, wrapTemporaryIfNeeded("create_chat_session", err)
	}
	if session.ChatSessionID == "" {
		return nil, fmt.Errorf("create_chat_session: response carries no session id")
	}

	payload := map[string]any{
		"message":           query,
		"chat_session_id":   session.ChatSessionID,
		"parent_message_id": nil,
		"prompt_id":         nil,
		"file_descriptors":  []any{},
		"search_doc_ids":    nil,
		"retrieval_options": map[string]any{
			"run_search": "always",
			"filters":    filters,
		},
	}

	resp, err := c.openStream(ctx, "/chat/send-message", payload, "send_message")
	if err != nil {
		return nil, wrapTemporaryIfNeeded("send_message", err)
	}
	return newFeed(resp.Body), nil
}

func (c *Client) GetDocument(ctx context.Context, documentID string) (*domain.SearchDoc, error) {
	if documentID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "get_document", fmt.Errorf("document id is required"))
	}

	var doc wireDoc
	err := c.execute(ctx, "get_document", func(callCtx context.Context) error {
		return c.getJSON(callCtx, "/query/document/"+url.PathEscape(documentID), &doc, "get_document")
	})
	if err != nil {
		var statusErr *HTTPStatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return nil, domain.WrapError(domain.ErrNotFound, "get_document", err)
		}
		return nil, wrapTemporaryIfNeeded("get_document", err)
	}
	return &doc.SearchDoc, nil
}

func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("create health request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("engine health request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("engine health status: %s", resp.Status)
	}
	return nil
}

func (c *Client) execute(ctx context.Context, operation string, fn func(context.Context) error) error {
	if c.executor == nil {
		return fn(ctx)
	}
	return c.executor.Execute(ctx, "engine."+operation, fn, classifyEngineError)
}
