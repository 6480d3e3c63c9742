package netutil

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"syscall"
	"testing"
	"time"
)

type flakyTransport struct {
	failures int
	calls    int
	bodies   []string
}

func (f *flakyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	f.calls++
	if req.Body != nil {
		body, _ := io.ReadAll(req.Body)
		f.bodies = append(f.bodies, string(body))
	}
	if f.calls <= f.failures {
		return nil, syscall.ECONNRESET
	}
	return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody, Request: req}, nil
}

func TestRetryTransportReplaysBody(t *testing.T) {
	base := &flakyTransport{failures: 2}
	rt := &RetryTransport{Base: base, Name: "test", Retries: 3, Backoff: time.Millisecond}

	req, err := http.NewRequest(http.MethodPost, "https://api.telegram.org/botX/sendMessage", strings.NewReader("text=hi"))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	resp.Body.Close()
	if base.calls != 3 {
		t.Fatalf("calls = %d, want 3", base.calls)
	}
	for _, b := range base.bodies {
		if b != "text=hi" {
			t.Fatalf("body not replayed: %q", b)
		}
	}
}

func TestRetryTransportGivesUp(t *testing.T) {
	base := &flakyTransport{failures: 10}
	rt := &RetryTransport{Base: base, Retries: 2, Backoff: time.Millisecond}
	req, _ := http.NewRequest(http.MethodGet, "https://api.telegram.org/botX/getMe", nil)
	if _, err := rt.RoundTrip(req); !errors.Is(err, syscall.ECONNRESET) {
		t.Fatalf("err = %v", err)
	}
	if base.calls != 3 {
		t.Fatalf("calls = %d, want 3", base.calls)
	}
}

func TestRetryTransportStopsOnCancel(t *testing.T) {
	base := &flakyTransport{failures: 10}
	rt := &RetryTransport{Base: base, Retries: 5, Backoff: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, "https://example.invalid", nil)
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	if _, err := rt.RoundTrip(req); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if base.calls != 1 {
		t.Fatalf("calls = %d, want 1", base.calls)
	}
}

func TestNewClientDisablesNegativeRetries(t *testing.T) {
	base := &flakyTransport{failures: 10}
	client := NewClient(ClientOptions{Base: base, Retries: -1, Timeout: time.Second})
	if _, err := client.Get("http://example.invalid"); err == nil {
		t.Fatal("expected error")
	}
	if base.calls != 1 {
		t.Fatalf("calls = %d, want 1", base.calls)
	}
}
