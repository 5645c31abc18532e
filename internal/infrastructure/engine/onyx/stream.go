package onyx

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/kirillkom/search-gateway/internal/core/domain"
)

// Larger document batches can exceed the scanner default of 64K per line.
const maxFeedLineBytes = 4 * 1024 * 1024

// Feed reads the engine's newline-delimited answer stream and classifies
// each non-empty line into exactly one packet kind. It is a single-consumer
// sequential source with no read-ahead.
type Feed struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
}

func newFeed(body io.ReadCloser) *Feed {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxFeedLineBytes)
	return &Feed{
		body:    body,
		scanner: scanner,
	}
}

// Next returns the next packet, io.EOF at end of feed, or an error wrapping
// domain.ErrMalformedPacket for a line that is not a packet. After a
// malformed line the feed stays readable.
func (f *Feed) Next() (domain.StreamPacket, error) {
	for f.scanner.Scan() {
		line := bytes.TrimSpace(f.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		packet, err := classifyPacket(line)
		if err != nil {
			return domain.StreamPacket{}, domain.WrapError(domain.ErrMalformedPacket, "classify feed unit", err)
		}
		return packet, nil
	}

	if err := f.scanner.Err(); err != nil {
		return domain.StreamPacket{}, fmt.Errorf("read feed: %w", err)
	}
	return domain.StreamPacket{}, io.EOF
}

func (f *Feed) Close() error {
	return f.body.Close()
}

// packetEnvelope covers every recognized packet shape. Pointer fields
// distinguish an absent key from a present-but-empty payload.
type packetEnvelope struct {
	AnswerPiece  *string     `json:"answer_piece"`
	TopDocuments *[]wireDoc  `json:"top_documents"`
	Citations    *[][]string `json:"citations"`
	Error        *string     `json:"error"`
}

// classifyPacket is the single dispatch point from wire shape to tagged
// packet. First matching key wins, in the order the engine defines them.
func classifyPacket(line []byte) (domain.StreamPacket, error) {
	var envelope packetEnvelope
	if err := json.Unmarshal(line, &envelope); err != nil {
		return domain.StreamPacket{}, fmt.Errorf("parse feed unit: %w", err)
	}

	switch {
	case envelope.AnswerPiece != nil:
		return domain.StreamPacket{Kind: domain.PacketAnswerPiece, AnswerPiece: *envelope.AnswerPiece}, nil

	case envelope.TopDocuments != nil:
		docs := make([]domain.SearchDoc, 0, len(*envelope.TopDocuments))
		for _, doc := range *envelope.TopDocuments {
			docs = append(docs, doc.SearchDoc)
		}
		return domain.StreamPacket{Kind: domain.PacketDocuments, Documents: docs}, nil

	case envelope.Citations != nil:
		refs := make([]domain.CitationRef, 0, len(*envelope.Citations))
		for _, pair := range *envelope.Citations {
			// Pairs of a different arity are dropped, not a malformed packet.
			if len(pair) != 2 {
				continue
			}
			refs = append(refs, domain.CitationRef{DocumentID: pair[0], CitationText: pair[1]})
		}
		return domain.StreamPacket{Kind: domain.PacketCitations, Citations: refs}, nil

	case envelope.Error != nil:
		return domain.StreamPacket{Kind: domain.PacketError, Err: *envelope.Error}, nil
	}

	return domain.StreamPacket{}, fmt.Errorf("feed unit carries no recognized key")
}

// wireDoc decodes an engine document, accepting both "id" and "document_id"
// for the identity field.
type wireDoc struct {
	domain.SearchDoc
}

func (d *wireDoc) UnmarshalJSON(data []byte) error {
	type plain domain.SearchDoc
	aux := struct {
		*plain
		ID string `json:"id"`
	}{plain: (*plain)(&d.SearchDoc)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if d.SearchDoc.DocumentID == "" {
		d.SearchDoc.DocumentID = aux.ID
	}
	return nil
}
