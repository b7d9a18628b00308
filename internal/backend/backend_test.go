package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestStatsSnapshotPercentiles(t *testing.T) {
	stats := NewStats(time.Hour)
	for _, ms := range []int64{100, 200, 300, 400, 500} {
		stats.Record(time.Duration(ms)*time.Millisecond, false)
	}

	snap := stats.Snapshot()
	if snap.Count != 5 {
		t.Fatalf("expected count=5, got %d", snap.Count)
	}
	if snap.MinMs != 100 || snap.MaxMs != 500 {
		t.Fatalf("expected min=100 max=500, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
	if snap.AvgMs != 300 {
		t.Fatalf("expected avg=300, got %f", snap.AvgMs)
	}
	if snap.P50Ms != 300 {
		t.Fatalf("expected p50=300, got %f", snap.P50Ms)
	}
	if snap.P95Ms != 480 {
		t.Fatalf("expected p95=480, got %f", snap.P95Ms)
	}
}

func TestStatsCountsFailures(t *testing.T) {
	stats := NewStats(time.Hour)
	stats.Record(100*time.Millisecond, false)
	stats.Record(5*time.Second, true)

	snap := stats.Snapshot()
	if snap.Count != 2 || snap.Failures != 1 {
		t.Fatalf("expected count=2 failures=1, got %+v", snap)
	}
}

func TestStatsPrunesExpiredSamples(t *testing.T) {
	stats := NewStats(10 * time.Millisecond)
	stats.Record(100*time.Millisecond, false)
	time.Sleep(25 * time.Millisecond)

	if snap := stats.Snapshot(); snap.Count != 0 {
		t.Fatalf("expected count=0 after prune, got %d", snap.Count)
	}
}

func TestClientQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/query" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"answer":"Population grew 1.1%.","sources":[{"title":"Census 2020","url":"https://example.org/c"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", 5*time.Second)
	ans, err := c.Query(context.Background(), "sess-1", "population growth")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ans.Text != "Population grew 1.1%." {
		t.Errorf("unexpected answer text %q", ans.Text)
	}
	if len(ans.Sources) != 1 || ans.Sources[0].Title != "Census 2020" {
		t.Errorf("unexpected sources: %+v", ans.Sources)
	}
}

func TestClientQueryErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend down", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	if _, err := c.Query(context.Background(), "s", "q"); err == nil {
		t.Fatal("expected error for 502 response")
	}
}

func TestParseAnswerVariants(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"answer field", `{"answer":"a"}`, "a"},
		{"output field", `{"output":"o"}`, "o"},
		{"response field", `{"response":"r"}`, "r"},
		{"text field", `{"text":"t"}`, "t"},
		{"array wrapped", `[{"output":"wrapped"}]`, "wrapped"},
		{"bare text", `plain answer`, "plain answer"},
	}
	for _, tt := range tests {
		if got := parseAnswer([]byte(tt.body)); got.Text != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, got.Text, tt.want)
		}
	}
}
