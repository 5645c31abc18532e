package vespa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/search-gateway/internal/core/domain"
)

// Client is the admin-retrieval-capable index backend. It queries the index
// directly, bypassing the engine's ranking pipeline.
type Client struct {
	baseURL    string
	indexName  string
	httpClient *http.Client
}

func New(baseURL, indexName string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		indexName:  indexName,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) Name() string { return "vespa" }

// AdminRetrieval runs a raw match query against the index and maps hits to
// search documents. Ordering is whatever the index returns.
func (c *Client) AdminRetrieval(ctx context.Context, query string, filters domain.SearchFilter) ([]domain.SearchDoc, error) {
	payload := map[string]any{
		"yql":   fmt.Sprintf("select * from sources %s where userInput(@query)", c.indexName),
		"query": query,
		"hits":  100,
	}
	if len(filters.SourceTypes) > 0 {
		payload["filters.source_type"] = filters.SourceTypes
	}
	if len(filters.DocumentSets) > 0 {
		payload["filters.document_set"] = filters.DocumentSets
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal admin retrieval request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search/", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create admin retrieval request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "admin retrieval", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("index admin retrieval status: %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	var response struct {
		Root struct {
			Children []struct {
				Relevance float64        `json:"relevance"`
				Fields    map[string]any `json:"fields"`
			} `json:"children"`
		} `json:"root"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode admin retrieval response: %w", err)
	}

	docs := make([]domain.SearchDoc, 0, len(response.Root.Children))
	for _, hit := range response.Root.Children {
		doc := domain.SearchDoc{
			DocumentID:         stringField(hit.Fields, "document_id"),
			SemanticIdentifier: stringField(hit.Fields, "semantic_identifier"),
			Link:               stringField(hit.Fields, "link"),
			Blurb:              stringField(hit.Fields, "blurb"),
			SourceType:         stringField(hit.Fields, "source_type"),
			Score:              hit.Relevance,
		}
		if doc.DocumentID == "" {
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func stringField(fields map[string]any, key string) string {
	value, _ := fields[key].(string)
	return value
}
