package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectorCounts(t *testing.T) {
	c := New(func() int { return 3 })
	c.ObserveUpdate("text", "ok", 20*time.Millisecond)
	c.ObserveUpdate("text", "ok", 30*time.Millisecond)
	c.ObserveTransition("chatting", "chatting")
	c.ObserveTransition("chatting", "dictionary")
	c.ObserveCompletion("reply", "m", "ok", time.Second, 120)
	c.ObserveCompletion("reply", "m", "fail", time.Second, -1)
	c.ObserveRejection("non_english")
	c.ObserveRateLimited()
	c.ObserveSend("send.text", "ok")

	if got := testutil.ToFloat64(c.updatesHandled.WithLabelValues("text", "ok")); got != 2 {
		t.Fatalf("updates handled = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.transitions.WithLabelValues("chatting", "chatting")); got != 0 {
		t.Fatalf("self transition counted: %v", got)
	}
	if got := testutil.ToFloat64(c.transitions.WithLabelValues("chatting", "dictionary")); got != 1 {
		t.Fatalf("transitions = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.promptTokens.WithLabelValues("reply", "m")); got != 120 {
		t.Fatalf("prompt tokens = %v, want 120", got)
	}
	if got := testutil.ToFloat64(c.sends.WithLabelValues("send.text", "ok")); got != 1 {
		t.Fatalf("sends = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.sessions); got != 3 {
		t.Fatalf("sessions gauge = %v, want 3", got)
	}
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	c.ObserveUpdate("x", "ok", time.Millisecond)
	c.ObserveCompletion("reply", "m", "ok", time.Millisecond, 1)
	c.ObserveRateLimited()
}

func TestRouterServesMetricsAndHealth(t *testing.T) {
	c := New(nil)
	c.ObserveRejection("non_text")
	srv := httptest.NewServer(c.Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `lunabot_rejections_total{reason="non_text"} 1`) {
		t.Fatalf("rejection counter missing from exposition:\n%s", body)
	}
}
