package labeler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"imgvault/internal/metadata"
)

var _ metadata.Labeler = (*Client)(nil)

func reply(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()
	payload := map[string]any{
		"choices": []any{
			map[string]any{"message": map[string]any{"content": content}},
		},
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

func writeImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "a.png")
	if err := os.WriteFile(path, []byte("\x89PNG\r\n\x1a\nfake"), 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}
	return path
}

func TestLabelSendsImageAndNormalizes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("unexpected auth header %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), "data:image/png;base64,") {
			t.Errorf("request missing data url: %s", body)
		}
		if !strings.Contains(string(body), `"model":"vision"`) {
			t.Errorf("request missing model: %s", body)
		}
		reply(t, w, "```json\n{\"label\": \"  A   Tabby CAT \"}\n```")
	}))
	defer server.Close()

	client := New(Config{APIKey: "key", BaseURL: server.URL, Model: "vision"})
	label, err := client.Label(context.Background(), writeImage(t))
	if err != nil {
		t.Fatalf("Label: %v", err)
	}
	if label != "a tabby cat" {
		t.Fatalf("label = %q", label)
	}
}

func TestLabelRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		reply(t, w, `{"label":"dog"}`)
	}))
	defer server.Close()

	var slept []time.Duration
	client := New(Config{APIKey: "key", BaseURL: server.URL},
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }))
	label, err := client.Label(context.Background(), writeImage(t))
	if err != nil {
		t.Fatalf("Label: %v", err)
	}
	if label != "dog" || calls.Load() != 3 {
		t.Fatalf("label=%q calls=%d", label, calls.Load())
	}
	if len(slept) != 2 || slept[0] != 2*time.Second {
		t.Fatalf("unexpected sleeps %v", slept)
	}
}

func TestLabelDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := New(Config{APIKey: "bad", BaseURL: server.URL}, WithSleeper(func(time.Duration) {}))
	if _, err := client.Label(context.Background(), writeImage(t)); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one call, got %d", calls.Load())
	}
}

func TestLabelRequiresAPIKey(t *testing.T) {
	client := New(Config{BaseURL: "http://127.0.0.1:0"})
	if _, err := client.Label(context.Background(), writeImage(t)); err == nil || !strings.Contains(err.Error(), "api key") {
		t.Fatalf("expected api key error, got %v", err)
	}
}

func TestHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reply(t, w, `Sure: {"ok":true}`)
	}))
	defer server.Close()

	if err := New(Config{APIKey: "key", BaseURL: server.URL}).HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
}

func TestBackoffCaps(t *testing.T) {
	c := New(Config{}, WithRetry(5, time.Second, 5*time.Second))
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second}
	for i, w := range want {
		if got := c.backoff(i + 1); got != w {
			t.Fatalf("backoff(%d) = %s, want %s", i+1, got, w)
		}
	}
}

func TestNormalizeClipsLongLabels(t *testing.T) {
	long := strings.Repeat("word ", 40)
	if got := Normalize(long); len([]rune(got)) > maxLabelRunes {
		t.Fatalf("label not clipped: %d runes", len([]rune(got)))
	}
	if got := Normalize("Line\nBreak"); got != "line break" {
		t.Fatalf("Normalize = %q", got)
	}
}
