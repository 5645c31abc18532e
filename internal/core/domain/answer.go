package domain

import "time"

type PacketKind string

const (
	PacketAnswerPiece PacketKind = "answer_piece"
	PacketDocuments   PacketKind = "top_documents"
	PacketCitations   PacketKind = "citations"
	PacketError       PacketKind = "error"
)

// StreamPacket is one classified unit from an answer feed. Exactly one
// payload field is meaningful, selected by Kind.
type StreamPacket struct {
	Kind        PacketKind    `json:"kind"`
	AnswerPiece string        `json:"answer_piece,omitempty"`
	Documents   []SearchDoc   `json:"documents,omitempty"`
	Citations   []CitationRef `json:"citations,omitempty"`
	Err         string        `json:"error,omitempty"`
}

// CitationRef is a raw citation marker from the feed: a document id plus the
// supporting excerpt the answer cites it with.
type CitationRef struct {
	DocumentID   string `json:"document_id"`
	CitationText string `json:"citation_text"`
}

type CitationEntry struct {
	DocumentID   string `json:"document_id"`
	Title        string `json:"title"`
	Link         string `json:"link,omitempty"`
	Source       string `json:"source,omitempty"`
	Blurb        string `json:"blurb,omitempty"`
	CitationText string `json:"citation_text,omitempty"`
}

// AssembledAnswer is the terminal state of one feed consumption. Err being
// set means the feed (or the caller's cancellation) terminated the stream;
// everything accumulated before that point is still present.
type AssembledAnswer struct {
	Answer           string          `json:"answer"`
	Documents        []SearchDoc     `json:"documents"`
	Citations        []CitationEntry `json:"citations"`
	ReferencedIDs    []string        `json:"referenced_document_ids,omitempty"`
	Err              string          `json:"error,omitempty"`
	Empty            bool            `json:"empty_feed,omitempty"`
	MalformedPackets int             `json:"malformed_packets,omitempty"`
}

type AnswerSession struct {
	ID               string    `json:"id"`
	Query            string    `json:"query"`
	Answer           string    `json:"answer"`
	Error            string    `json:"error,omitempty"`
	DocumentCount    int       `json:"document_count"`
	CitationCount    int       `json:"citation_count"`
	MalformedPackets int       `json:"malformed_packets"`
	CreatedAt        time.Time `json:"created_at"`
}

// AnswerCompletedEvent is published after one answer feed has been fully
// consumed, whatever the terminal state was.
type AnswerCompletedEvent struct {
	SessionID        string    `json:"session_id"`
	Query            string    `json:"query"`
	Answer           string    `json:"answer"`
	Error            string    `json:"error,omitempty"`
	DocumentCount    int       `json:"document_count"`
	CitationCount    int       `json:"citation_count"`
	MalformedPackets int       `json:"malformed_packets"`
	CompletedAt      time.Time `json:"completed_at"`
}
