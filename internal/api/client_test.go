package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	http "github.com/bogdanfinn/fhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	apierrors "github.com/bizcopilot/copilot/internal/errors"
	"github.com/bizcopilot/copilot/internal/metrics"
	"github.com/bizcopilot/copilot/internal/models"
)

// fakeDoer records requests and answers with a canned response
type fakeDoer struct {
	mu       sync.Mutex
	status   int
	body     string
	err      error
	block    bool
	requests []*http.Request
	bodies   []string
}

func (f *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	var body string
	if req.Body != nil {
		data, _ := io.ReadAll(req.Body)
		body = string(data)
	}

	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.bodies = append(f.bodies, body)
	f.mu.Unlock()

	if f.block {
		<-req.Context().Done()
		return nil, req.Context().Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return &http.Response{
		StatusCode: f.status,
		Body:       io.NopCloser(strings.NewReader(f.body)),
		Header:     http.Header{},
		Request:    req,
	}, nil
}

func newTestClient(t *testing.T, doer *fakeDoer, opts ...ClientOption) *Client {
	t.Helper()
	opts = append([]ClientOption{WithDoer(doer)}, opts...)
	c, err := NewClient("http://backend.test:8000/", opts...)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return c
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		want    string
		wantErr bool
	}{
		{"plain", "http://localhost:8000", "http://localhost:8000", false},
		{"trailing slashes", "https://api.example.com//", "https://api.example.com", false},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(tt.baseURL, WithDoer(&fakeDoer{}))
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewClient() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && c.BaseURL() != tt.want {
				t.Errorf("BaseURL() = %s, want %s", c.BaseURL(), tt.want)
			}
		})
	}
}

func TestNewClient_DefaultTransport(t *testing.T) {
	c, err := NewClient("http://localhost:8000", WithTimeout(30*time.Second))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if c.doer == nil {
		t.Fatal("expected default transport to be created")
	}
}

func TestChat_Success(t *testing.T) {
	doer := &fakeDoer{status: 200, body: `{"conversation_id":42,"answer":"Выберите УСН","messages":[]}`}
	c := newTestClient(t, doer)

	resp, err := c.Chat(context.Background(), models.ChatRequest{
		Message: "Как выбрать налоговый режим для ИП?",
		Mode:    models.ModeGeneral,
	})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if resp.ConversationID != 42 || resp.Answer != "Выберите УСН" {
		t.Errorf("unexpected response: %+v", resp)
	}

	if len(doer.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(doer.requests))
	}
	req := doer.requests[0]
	if req.Method != http.MethodPost {
		t.Errorf("Method = %s, want POST", req.Method)
	}
	if req.URL.String() != "http://backend.test:8000/api/chat" {
		t.Errorf("URL = %s", req.URL.String())
	}
	if req.Header.Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %s", req.Header.Get("Content-Type"))
	}
	if req.Header.Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}

	var sent map[string]any
	if err := json.Unmarshal([]byte(doer.bodies[0]), &sent); err != nil {
		t.Fatalf("request body is not JSON: %v", err)
	}
	if sent["message"] != "Как выбрать налоговый режим для ИП?" || sent["mode"] != "general" {
		t.Errorf("unexpected body: %v", sent)
	}
	if _, ok := sent["conversation_id"]; ok {
		t.Error("conversation_id must be absent on the first turn")
	}
}

func TestChat_SendsConversationID(t *testing.T) {
	doer := &fakeDoer{status: 200, body: `{"conversation_id":42,"answer":"ok"}`}
	c := newTestClient(t, doer)

	id := int64(42)
	if _, err := c.Chat(context.Background(), models.ChatRequest{Message: "next", ConversationID: &id}); err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if !strings.Contains(doer.bodies[0], `"conversation_id":42`) {
		t.Errorf("body = %s, want conversation_id 42", doer.bodies[0])
	}
	if !strings.Contains(doer.bodies[0], `"mode":"general"`) {
		t.Errorf("body = %s, want default mode", doer.bodies[0])
	}
}

func TestChat_EmptyMessage(t *testing.T) {
	doer := &fakeDoer{status: 200}
	c := newTestClient(t, doer)

	_, err := c.Chat(context.Background(), models.ChatRequest{Message: "   "})
	if !errors.Is(err, apierrors.ErrEmptyMessage) {
		t.Errorf("Chat() error = %v, want ErrEmptyMessage", err)
	}
	if len(doer.requests) != 0 {
		t.Error("no request should be sent for an empty message")
	}
}

func TestChat_APIErrorDetail(t *testing.T) {
	doer := &fakeDoer{status: 429, body: `{"detail":"rate limited"}`}
	c := newTestClient(t, doer)

	_, err := c.Chat(context.Background(), models.ChatRequest{Message: "hi"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !apierrors.IsAPIError(err) {
		t.Errorf("expected APIError, got %T", err)
	}
	if got := apierrors.DisplayMessage(err, "fallback"); got != "rate limited" {
		t.Errorf("DisplayMessage() = %q, want %q", got, "rate limited")
	}
	if apierrors.GetHTTPStatus(err) != 429 {
		t.Errorf("status = %d, want 429", apierrors.GetHTTPStatus(err))
	}
}

func TestChat_LongAPIErrorDetail(t *testing.T) {
	detail := strings.Repeat("x", 9000)
	doer := &fakeDoer{status: 503, body: `{"detail":"` + detail + `"}`}
	c := newTestClient(t, doer)

	_, err := c.Chat(context.Background(), models.ChatRequest{Message: "hi"})
	if got := apierrors.DisplayMessage(err, "fallback"); got != detail {
		t.Errorf("DisplayMessage() returned %d bytes, want the %d byte detail", len(got), len(detail))
	}

	var apiErr *apierrors.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T", err)
	}
	if len(apiErr.Body) > 4096 {
		t.Errorf("stored body = %d bytes, want at most 4096", len(apiErr.Body))
	}
}

func TestClient_WithHeader(t *testing.T) {
	doer := &fakeDoer{status: 200, body: `{"conversation_id":42,"answer":"ok"}`}
	c := newTestClient(t, doer, WithHeader("User-Agent", "copilot/1.2.3"))

	if _, err := c.Chat(context.Background(), models.ChatRequest{Message: "hi"}); err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if got := doer.requests[0].Header.Get("User-Agent"); got != "copilot/1.2.3" {
		t.Errorf("User-Agent = %q, want %q", got, "copilot/1.2.3")
	}
	if got := doer.requests[0].Header.Get("Accept"); got != "application/json" {
		t.Errorf("Accept = %q, default headers should be kept", got)
	}
}

func TestChat_NetworkError(t *testing.T) {
	doer := &fakeDoer{err: errors.New("dial tcp: connection refused")}
	c := newTestClient(t, doer)

	_, err := c.Chat(context.Background(), models.ChatRequest{Message: "hi"})
	if !apierrors.IsNetworkError(err) {
		t.Errorf("expected NetworkError, got %v", err)
	}
	if got := apierrors.DisplayMessage(err, "fallback"); got != "fallback" {
		t.Errorf("DisplayMessage() = %q, want fallback", got)
	}
}

func TestChat_ParseError(t *testing.T) {
	doer := &fakeDoer{status: 200, body: `<html>proxy</html>`}
	c := newTestClient(t, doer)

	_, err := c.Chat(context.Background(), models.ChatRequest{Message: "hi"})
	if !apierrors.IsParseError(err) {
		t.Errorf("expected ParseError, got %v", err)
	}
}

func TestChat_Timeout(t *testing.T) {
	doer := &fakeDoer{block: true}
	c := newTestClient(t, doer, WithTimeout(20*time.Millisecond))

	_, err := c.Chat(context.Background(), models.ChatRequest{Message: "hi"})
	if !apierrors.IsNetworkError(err) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestHealth(t *testing.T) {
	doer := &fakeDoer{status: 200, body: `{"status":"ok","llm_status":"unavailable"}`}
	c := newTestClient(t, doer)

	h, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health() error = %v", err)
	}
	if h.Status != "ok" || h.LLMStatus != "unavailable" {
		t.Errorf("unexpected health: %+v", h)
	}
	if doer.requests[0].Method != http.MethodGet {
		t.Errorf("Method = %s, want GET", doer.requests[0].Method)
	}
	if doer.requests[0].URL.Path != "/api/health" {
		t.Errorf("Path = %s", doer.requests[0].URL.Path)
	}
}

func TestPostJSON_UseCasePath(t *testing.T) {
	doer := &fakeDoer{status: 200, body: `{"summary":"s","tasks":["a"]}`}
	c := newTestClient(t, doer)

	var out models.SummaryResponse
	err := c.PostJSON(context.Background(), models.PathSummary, models.SummaryRequest{Text: "long text"}, &out)
	if err != nil {
		t.Fatalf("PostJSON() error = %v", err)
	}
	if doer.requests[0].URL.Path != "/api/usecases/summary" {
		t.Errorf("Path = %s", doer.requests[0].URL.Path)
	}
	if out.Summary != "s" || len(out.Tasks) != 1 {
		t.Errorf("unexpected decode: %+v", out)
	}
	if doer.bodies[0] != `{"text":"long text"}` {
		t.Errorf("body = %s", doer.bodies[0])
	}
}

func TestRoundTrip_RecordsMetrics(t *testing.T) {
	m := metrics.New()
	c := newTestClient(t, &fakeDoer{status: 500, body: `{"detail":"boom"}`}, WithMetrics(m))

	_ = c.PostJSON(context.Background(), models.PathChat, models.ChatRequest{Message: "x"}, nil)

	got := testutil.ToFloat64(m.RoundTrips.WithLabelValues(models.PathChat, metrics.OutcomeAPIError))
	if got != 1 {
		t.Errorf("api_error count = %v, want 1", got)
	}
}

func TestRoundTrip_Logs(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	c := newTestClient(t, &fakeDoer{status: 200, body: `{"status":"ok"}`}, WithLogger(zap.New(core)))

	if _, err := c.Health(context.Background()); err != nil {
		t.Fatalf("Health() error = %v", err)
	}

	entries := logs.FilterMessage("round trip").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["path"] != "/api/health" || fields["outcome"] != "ok" {
		t.Errorf("unexpected fields: %v", fields)
	}
	if id, _ := fields["request_id"].(string); id == "" {
		t.Error("expected request_id field")
	}
}
