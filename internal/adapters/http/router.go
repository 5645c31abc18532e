package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/search-gateway/internal/core/domain"
	"github.com/kirillkom/search-gateway/internal/core/ports"
	"github.com/kirillkom/search-gateway/internal/observability/metrics"
)

const serviceName = "search-gateway"

type Router struct {
	searchUC ports.SearchService
	answerUC ports.AnswerService
	adminUC  ports.AdminSearchService
	engine   ports.RetrievalEngine
	sessions ports.SessionStore
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewRouter(
	searchUC ports.SearchService,
	answerUC ports.AnswerService,
	adminUC ports.AdminSearchService,
	engine ports.RetrievalEngine,
	sessions ports.SessionStore,
	mx *metrics.Metrics,
	logger *slog.Logger,
) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		searchUC: searchUC,
		answerUC: answerUC,
		adminUC:  adminUC,
		engine:   engine,
		sessions: sessions,
		metrics:  mx,
		logger:   logger,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/query/document-search", rt.documentSearch)
	mux.HandleFunc("/v1/query/answer", rt.answer)
	mux.HandleFunc("/v1/query/document/", rt.getDocumentByID)
	mux.HandleFunc("/v1/query/answer-sessions", rt.listAnswerSessions)
	mux.HandleFunc("/v1/query/answer-sessions/", rt.getAnswerSessionByID)
	mux.HandleFunc("/v1/admin/search", rt.adminSearch)

	var handler http.Handler = mux
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	return rt.instrument(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, r *http.Request) {
	if err := rt.engine.Health(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) documentSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req domain.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	result, err := rt.searchUC.Search(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordSearch(serviceName, "document-search", len(result.TopDocuments), len(result.DroppedPositions))
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) answer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Query   string              `json:"query"`
		Filters domain.SearchFilter `json:"filters"`
		Stream  bool                `json:"stream"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}

	if req.Stream {
		rt.answerSSE(w, r, req.Query, req.Filters)
		return
	}

	start := time.Now()
	answer, err := rt.answerUC.AnswerStream(r.Context(), req.Query, req.Filters, rt.recordPacket)
	rt.recordAnswer(answer, err, time.Since(start))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

func (rt *Router) getDocumentByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/query/document/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}

	doc, err := rt.engine.GetDocument(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) listAnswerSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if rt.sessions == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "session store is not configured"})
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a non-negative integer"})
			return
		}
		limit = parsed
	}

	sessions, err := rt.sessions.ListRecent(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (rt *Router) getAnswerSessionByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if rt.sessions == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "session store is not configured"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/query/answer-sessions/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "session id is required"})
		return
	}

	session, err := rt.sessions.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (rt *Router) adminSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Query   string              `json:"query"`
		Filters domain.SearchFilter `json:"filters"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}

	docs, err := rt.adminUC.AdminSearch(r.Context(), req.Query, req.Filters)
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordSearch(serviceName, "admin-search", len(docs), 0)
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (rt *Router) recordPacket(packet domain.StreamPacket) {
	if rt.metrics != nil {
		rt.metrics.RecordFeedPacket(serviceName, string(packet.Kind))
	}
}

func (rt *Router) recordAnswer(answer *domain.AssembledAnswer, err error, duration time.Duration) {
	if rt.metrics == nil {
		return
	}
	status := "ok"
	switch {
	case err != nil:
		status = "transport_error"
	case answer != nil && answer.Err != "":
		status = "engine_error"
	case answer != nil && answer.Empty:
		status = "empty"
	}
	citations, malformed := 0, 0
	if answer != nil {
		citations = len(answer.Citations)
		malformed = answer.MalformedPackets
	}
	rt.metrics.RecordAnswer(serviceName, status, citations, malformed, duration)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}
