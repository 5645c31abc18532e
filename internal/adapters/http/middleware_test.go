package httpadapter

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kirillkom/search-gateway/internal/core/domain"
	"github.com/kirillkom/search-gateway/internal/observability/logging"
	"github.com/kirillkom/search-gateway/internal/observability/metrics"
)

func newLoggedRouter(answer *answerFake, buf *bytes.Buffer) http.Handler {
	logger := logging.NewJSONLogger(buf, "search-gateway-test", "info")
	return NewRouter(
		searchFake{},
		*answer,
		adminFake{},
		engineFake{},
		sessionStoreFake{},
		metrics.New("search-gateway-access-log-test"),
		logger,
	).Handler()
}

func TestAccessLogFlowsThroughInjectedLogger(t *testing.T) {
	var buf bytes.Buffer
	handler := newLoggedRouter(&answerFake{}, &buf)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "req-42")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("access log line is not json: %v: %q", err, buf.String())
	}
	if line["msg"] != "http_request" {
		t.Fatalf("msg = %v", line["msg"])
	}
	if line["service"] != "search-gateway-test" {
		t.Fatalf("service = %v", line["service"])
	}
	if line["request_id"] != "req-42" {
		t.Fatalf("request_id = %v", line["request_id"])
	}
	if line["path"] != "/healthz" {
		t.Fatalf("path = %v", line["path"])
	}
	if _, ok := line["streamed"]; ok {
		t.Fatalf("plain request logged as streamed: %v", line)
	}
	if res.Header().Get(requestIDHeader) != "req-42" {
		t.Fatalf("request id not echoed: %q", res.Header().Get(requestIDHeader))
	}
}

func TestAccessLogTagsStreamedRequests(t *testing.T) {
	var buf bytes.Buffer
	handler := newLoggedRouter(&answerFake{
		packets: []domain.StreamPacket{{Kind: domain.PacketAnswerPiece, AnswerPiece: "hi"}},
		answer:  &domain.AssembledAnswer{Answer: "hi"},
	}, &buf)

	payload := strings.NewReader(`{"query":"greeting","stream":true}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/query/answer", payload)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("access log line is not json: %v: %q", err, buf.String())
	}
	if line["streamed"] != true {
		t.Fatalf("streamed answer not tagged: %v", line)
	}
	if line["request_id"] == "" || line["request_id"] == nil {
		t.Fatalf("missing generated request id: %v", line)
	}
}
