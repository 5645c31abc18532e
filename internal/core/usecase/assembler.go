package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/kirillkom/search-gateway/internal/core/domain"
	"github.com/kirillkom/search-gateway/internal/core/ports"
)

// assemblyState is the mutable accumulator for one feed consumption. It is
// owned by exactly one Consume call and discarded when that call returns.
type assemblyState struct {
	answer          strings.Builder
	registry        map[string]*domain.CitationEntry
	documents       []domain.SearchDoc
	pending         map[string]string
	referenced      map[string]struct{}
	referencedOrder []string
	malformed       int
	sawPacket       bool
	errMsg          string
}

func newAssemblyState() *assemblyState {
	return &assemblyState{
		registry:   make(map[string]*domain.CitationEntry),
		pending:    make(map[string]string),
		referenced: make(map[string]struct{}),
	}
}

// Assembler consumes answer feeds strictly in order and builds the final
// answer plus citation table. One Assembler may serve many feeds; each
// Consume call carries its own state, so concurrent calls need no locking.
type Assembler struct {
	logger *slog.Logger
}

func NewAssembler(logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{logger: logger}
}

// Consume reads the feed until end of stream, an error packet, or caller
// cancellation. Cancellation and error packets both yield the partial result
// accumulated so far with the reason in AssembledAnswer.Err; only transport
// failures surface as Go errors, and even then alongside the partial result.
func (a *Assembler) Consume(ctx context.Context, feed ports.AnswerFeed) (*domain.AssembledAnswer, error) {
	return a.ConsumeFunc(ctx, feed, nil)
}

// ConsumeFunc is Consume with a per-packet observer, applied after the packet
// has been folded into the state. Used by streaming relays.
func (a *Assembler) ConsumeFunc(ctx context.Context, feed ports.AnswerFeed, observe func(domain.StreamPacket)) (*domain.AssembledAnswer, error) {
	state := newAssemblyState()

	for {
		if err := ctx.Err(); err != nil {
			state.errMsg = err.Error()
			return state.finalize(), nil
		}

		packet, err := feed.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return state.finalize(), nil
			}
			if errors.Is(err, domain.ErrMalformedPacket) {
				state.malformed++
				a.logger.Warn("skipping malformed feed packet", "error", err, "skipped_total", state.malformed)
				continue
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				state.errMsg = err.Error()
				return state.finalize(), nil
			}
			return state.finalize(), domain.WrapError(domain.ErrTemporary, "read answer feed", err)
		}

		state.apply(packet)
		if observe != nil {
			observe(packet)
		}
		if packet.Kind == domain.PacketError {
			return state.finalize(), nil
		}
	}
}

func (s *assemblyState) apply(packet domain.StreamPacket) {
	s.sawPacket = true

	switch packet.Kind {
	case domain.PacketAnswerPiece:
		s.answer.WriteString(packet.AnswerPiece)

	case domain.PacketDocuments:
		for _, doc := range packet.Documents {
			if doc.DocumentID == "" {
				continue
			}
			if _, ok := s.registry[doc.DocumentID]; ok {
				// First batch wins; repeated context does not overwrite.
				continue
			}
			entry := &domain.CitationEntry{
				DocumentID: doc.DocumentID,
				Title:      doc.SemanticIdentifier,
				Link:       doc.Link,
				Source:     doc.SourceType,
				Blurb:      doc.Blurb,
			}
			if text, ok := s.pending[doc.DocumentID]; ok {
				entry.CitationText = text
				delete(s.pending, doc.DocumentID)
			}
			s.registry[doc.DocumentID] = entry
			s.documents = append(s.documents, doc)
		}

	case domain.PacketCitations:
		for _, ref := range packet.Citations {
			if ref.DocumentID == "" {
				continue
			}
			if _, ok := s.referenced[ref.DocumentID]; !ok {
				s.referenced[ref.DocumentID] = struct{}{}
				s.referencedOrder = append(s.referencedOrder, ref.DocumentID)
			}
			if entry, ok := s.registry[ref.DocumentID]; ok {
				entry.CitationText = ref.CitationText
				continue
			}
			// Document metadata may still be on its way.
			s.pending[ref.DocumentID] = ref.CitationText
		}

	case domain.PacketError:
		s.errMsg = packet.Err
	}
}

func (s *assemblyState) finalize() *domain.AssembledAnswer {
	return &domain.AssembledAnswer{
		Answer:           s.answer.String(),
		Documents:        s.documents,
		Citations:        ResolveCitations(s.registry, s.referencedOrder),
		ReferencedIDs:    s.referencedOrder,
		Err:              s.errMsg,
		Empty:            !s.sawPacket,
		MalformedPackets: s.malformed,
	}
}

// ResolveCitations builds the display-ready citation list: registry entries
// for referenced ids, in first-reference order. Referenced ids that never
// showed up in a document batch stay unresolved and are omitted. Entries
// without citation text are kept; missing text is incomplete enrichment,
// not an error.
func ResolveCitations(registry map[string]*domain.CitationEntry, referencedOrder []string) []domain.CitationEntry {
	resolved := make([]domain.CitationEntry, 0, len(referencedOrder))
	for _, id := range referencedOrder {
		entry, ok := registry[id]
		if !ok {
			continue
		}
		resolved = append(resolved, *entry)
	}
	return resolved
}
