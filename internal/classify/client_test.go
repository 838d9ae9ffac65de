package classify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"curator/internal/config"
	"curator/internal/logging"
	"curator/internal/services"
)

func testFiles() []FileInfo {
	return []FileInfo{
		{Path: "invoice.pdf", Name: "invoice.pdf", Extension: ".pdf", Size: 1024},
		{Path: "notes/todo.txt", Name: "todo.txt", Extension: ".txt", Size: 64},
	}
}

func chatBody(content string) string {
	resp := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
	encoded, _ := json.Marshal(resp)
	return string(encoded)
}

func suggestionsJSON() string {
	return `[
		{"source": "invoice.pdf", "destination": "Financial/Invoices/2024/invoice.pdf", "classification": "Financial/Invoice", "confidence_score": 0.92, "reasoning": "invoice"},
		{"source": "notes/todo.txt", "destination": "Personal/Notes/todo.txt", "classification": "Personal/Note", "confidence_score": 0.55, "reasoning": "note"}
	]`
}

func newTestClient(serverURL string, opts ...Option) *Client {
	cfg := config.Classifier{
		Name:    "test",
		APIKey:  "key",
		BaseURL: serverURL,
		Model:   "test-model",
	}
	opts = append([]Option{WithSleeper(func(time.Duration) {})}, opts...)
	return NewClient(cfg, opts...)
}

func TestClassifyBatchParsesSuggestions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("authorization header: %q", got)
		}
		_, _ = w.Write([]byte(chatBody(suggestionsJSON())))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	suggestions, err := client.ClassifyBatch(context.Background(), "/tree", testFiles())
	if err != nil {
		t.Fatalf("ClassifyBatch: %v", err)
	}
	if len(suggestions) != 2 {
		t.Fatalf("suggestions: got %d, want 2", len(suggestions))
	}
	if suggestions[0].Destination != "Financial/Invoices/2024/invoice.pdf" {
		t.Errorf("destination: %s", suggestions[0].Destination)
	}
	if suggestions[0].Confidence != 0.92 {
		t.Errorf("confidence: %v", suggestions[0].Confidence)
	}
}

func TestClassifyBatchStripsCodeFence(t *testing.T) {
	fenced := "```json\n" + suggestionsJSON() + "\n```"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(chatBody(fenced)))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	suggestions, err := client.ClassifyBatch(context.Background(), "/tree", testFiles())
	if err != nil {
		t.Fatalf("ClassifyBatch: %v", err)
	}
	if len(suggestions) != 2 {
		t.Errorf("suggestions: got %d, want 2", len(suggestions))
	}
}

func TestClassifyBatchRecoversMissingSourceByPosition(t *testing.T) {
	payload := `[{"destination": "Financial/invoice.pdf", "confidence_score": 0.8, "reasoning": "x"}]`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(chatBody(payload)))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	suggestions, err := client.ClassifyBatch(context.Background(), "/tree", testFiles())
	if err != nil {
		t.Fatalf("ClassifyBatch: %v", err)
	}
	if suggestions[0].Source != "invoice.pdf" {
		t.Errorf("source not recovered: %q", suggestions[0].Source)
	}
}

func TestClassifyBatchClampsConfidence(t *testing.T) {
	payload := `[{"source": "invoice.pdf", "destination": "X/invoice.pdf", "confidence_score": 1.7, "reasoning": "x"}]`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(chatBody(payload)))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	suggestions, err := client.ClassifyBatch(context.Background(), "/tree", testFiles())
	if err != nil {
		t.Fatalf("ClassifyBatch: %v", err)
	}
	if suggestions[0].Confidence != 1 {
		t.Errorf("confidence not clamped: %v", suggestions[0].Confidence)
	}
}

func TestClassifyBatchRetriesRateLimit(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(chatBody(suggestionsJSON())))
	}))
	defer server.Close()

	var slept time.Duration
	client := newTestClient(server.URL, WithSleeper(func(d time.Duration) { slept += d }))
	if _, err := client.ClassifyBatch(context.Background(), "/tree", testFiles()); err != nil {
		t.Fatalf("ClassifyBatch: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls: got %d, want 2", calls)
	}
	if slept != time.Second {
		t.Errorf("Retry-After not honored: slept %v", slept)
	}
}

func TestClassifyBatchDoesNotRetryClientError(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	if _, err := client.ClassifyBatch(context.Background(), "/tree", testFiles()); err == nil {
		t.Fatal("expected error for 401")
	}
	if calls != 1 {
		t.Errorf("401 should not retry, got %d calls", calls)
	}
}

func TestClassifyBatchRequiresAPIKey(t *testing.T) {
	client := NewClient(config.Classifier{Name: "test", Model: "m"})
	_, err := client.ClassifyBatch(context.Background(), "/tree", testFiles())
	if !errors.Is(err, services.ErrConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestClassifyBatchEmptyInput(t *testing.T) {
	client := NewClient(config.Classifier{Name: "test", APIKey: "k", Model: "m"})
	suggestions, err := client.ClassifyBatch(context.Background(), "/tree", nil)
	if err != nil || suggestions != nil {
		t.Errorf("empty batch: got %v, %v", suggestions, err)
	}
}

func TestHealthCheckParsesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(chatBody(`{"ok":true}`)))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
}

func TestHealthCheckFailsOnHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	if err := client.HealthCheck(context.Background()); !errors.Is(err, services.ErrClassifier) {
		t.Errorf("expected classifier error, got %v", err)
	}
}

func TestHealthCheckRequiresAPIKey(t *testing.T) {
	client := NewClient(config.Classifier{Name: "test", Model: "m"})
	if err := client.HealthCheck(context.Background()); !errors.Is(err, services.ErrConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

type stubProvider struct {
	name        string
	suggestions []Suggestion
	err         error
	calls       int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) ClassifyBatch(context.Context, string, []FileInfo) ([]Suggestion, error) {
	s.calls++
	return s.suggestions, s.err
}

func TestChainFallsBackToNextProvider(t *testing.T) {
	broken := &stubProvider{name: "primary", err: errors.New("boom")}
	working := &stubProvider{name: "fallback", suggestions: []Suggestion{{Source: "a", Destination: "b", Confidence: 0.9}}}

	chain := NewChainFrom(logging.NewNop(), broken, working)
	suggestions, err := chain.ClassifyBatch(context.Background(), "/tree", testFiles())
	if err != nil {
		t.Fatalf("ClassifyBatch: %v", err)
	}
	if len(suggestions) != 1 || suggestions[0].Source != "a" {
		t.Errorf("suggestions: %+v", suggestions)
	}
	if broken.calls != 1 || working.calls != 1 {
		t.Errorf("calls: primary=%d fallback=%d", broken.calls, working.calls)
	}
}

func TestChainFailsWhenAllProvidersFail(t *testing.T) {
	chain := NewChainFrom(logging.NewNop(),
		&stubProvider{name: "a", err: errors.New("a down")},
		&stubProvider{name: "b", err: errors.New("b down")},
	)
	_, err := chain.ClassifyBatch(context.Background(), "/tree", testFiles())
	if !errors.Is(err, services.ErrClassifier) {
		t.Errorf("expected classifier error, got %v", err)
	}
}

func TestChainRequiresProviders(t *testing.T) {
	chain := NewChainFrom(logging.NewNop())
	_, err := chain.ClassifyBatch(context.Background(), "/tree", testFiles())
	if !errors.Is(err, services.ErrConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
}
