package domain

import "time"

// SearchDoc is one retrieved document as returned by the retrieval engine.
// Identity is DocumentID; everything else is display material. Instances are
// owned by the result set that produced them and never mutated afterwards.
type SearchDoc struct {
	DocumentID         string         `json:"document_id"`
	ChunkInd           int            `json:"chunk_ind"`
	SemanticIdentifier string         `json:"semantic_identifier"`
	Link               string         `json:"link,omitempty"`
	Blurb              string         `json:"blurb,omitempty"`
	Content            string         `json:"content,omitempty"`
	SourceType         string         `json:"source_type,omitempty"`
	Score              float64        `json:"score"`
	MatchHighlights    []string       `json:"match_highlights,omitempty"`
	Metadata           map[string]any `json:"metadata,omitempty"`
	Boost              int            `json:"boost,omitempty"`
	Hidden             bool           `json:"hidden,omitempty"`
	UpdatedAt          *time.Time     `json:"updated_at,omitempty"`
}

type SearchFilter struct {
	SourceTypes  []string   `json:"source_type,omitempty"`
	DocumentSets []string   `json:"document_set,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
	TimeCutoff   *time.Time `json:"time_cutoff,omitempty"`
}

type RetrievalOptions struct {
	Filters SearchFilter `json:"filters"`
	Offset  int          `json:"offset,omitempty"`
	Limit   int          `json:"limit,omitempty"`
	// DedupeDocs left unset defers to the server-side default.
	DedupeDocs *bool `json:"dedupe_docs,omitempty"`
}

// RerankSettings is forwarded to the engine untouched.
type RerankSettings map[string]any

type SearchRequest struct {
	Message          string           `json:"message"`
	SearchType       string           `json:"search_type"`
	RetrievalOptions RetrievalOptions `json:"retrieval_options"`
	RerankSettings   RerankSettings   `json:"rerank_settings,omitempty"`
	EvaluationType   string           `json:"evaluation_type,omitempty"`
}

// SearchResult carries the engine's ranked documents plus the positions the
// relevance stage judged citable. LLMIndices always refer to the list they
// ship with: pre-dedup straight off the wire, post-dedup after reconciliation.
type SearchResult struct {
	TopDocuments []SearchDoc `json:"top_documents"`
	LLMIndices   []int       `json:"llm_indices"`
	// DroppedPositions are the original positions removed by dedup, in
	// ascending order. Empty when dedup is off or nothing repeated.
	DroppedPositions []int `json:"dropped_positions,omitempty"`
}
