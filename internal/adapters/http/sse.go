package httpadapter

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kirillkom/search-gateway/internal/core/domain"
)

// answerSSE streams the answer feed to the client as server-sent events. Every
// applied packet goes out as its own data frame, followed by one "final" frame
// carrying the assembled answer and a [DONE] marker.
func (rt *Router) answerSSE(w http.ResponseWriter, r *http.Request, query string, filters domain.SearchFilter) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming is not supported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	writeFrame := func(payload any) {
		data, err := json.Marshal(payload)
		if err != nil {
			rt.logger.Error("marshal sse frame", "request_id", requestIDFromContext(r.Context()), "error", err)
			return
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return
		}
		flusher.Flush()
	}

	start := time.Now()
	answer, err := rt.answerUC.AnswerStream(r.Context(), query, filters, func(packet domain.StreamPacket) {
		rt.recordPacket(packet)
		writeFrame(packet)
	})
	rt.recordAnswer(answer, err, time.Since(start))
	if err != nil {
		// Headers are gone; the error travels inside the stream.
		writeFrame(map[string]string{"kind": "error", "error": err.Error()})
	}
	if answer != nil {
		writeFrame(map[string]any{"kind": "final", "answer": answer})
	}

	if _, err := io.WriteString(w, "data: [DONE]\n\n"); err != nil {
		return
	}
	flusher.Flush()
}
