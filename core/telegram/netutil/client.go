package netutil

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/m3rciful/lunabot/core/logger"
)

// ClientOptions tunes NewClient. Zero values fall back to the defaults below.
type ClientOptions struct {
	// Name tags retry logs, e.g. "telegram" or "llm".
	Name           string
	Timeout        time.Duration
	ResponseHeader time.Duration
	Retries        int
	Backoff        time.Duration
	// Base replaces the pooled transport, mostly for tests.
	Base http.RoundTripper
}

const (
	defaultDialTimeout     = 5 * time.Second
	defaultKeepAlive       = 30 * time.Second
	defaultTLSHandshake    = 5 * time.Second
	defaultIdleConnTimeout = 30 * time.Second
	defaultResponseHeader  = 5 * time.Second
	defaultClientTimeout   = 30 * time.Second
	defaultBackoff         = 2 * time.Second
)

// NewClient returns an HTTP client whose transport retries transient network failures
// with linear backoff. A negative Retries disables retrying.
func NewClient(opts ClientOptions) *http.Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultClientTimeout
	}
	if opts.ResponseHeader <= 0 {
		opts.ResponseHeader = defaultResponseHeader
	}
	if opts.Backoff <= 0 {
		opts.Backoff = defaultBackoff
	}
	base := opts.Base
	if base == nil {
		base = &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: defaultDialTimeout, KeepAlive: defaultKeepAlive}).DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       defaultIdleConnTimeout,
			TLSHandshakeTimeout:   defaultTLSHandshake,
			ResponseHeaderTimeout: opts.ResponseHeader,
			ExpectContinueTimeout: time.Second,
		}
	}
	return &http.Client{
		Timeout: opts.Timeout,
		Transport: &RetryTransport{
			Base:    base,
			Name:    opts.Name,
			Retries: max(opts.Retries, 0),
			Backoff: opts.Backoff,
		},
	}
}

// RetryTransport re-sends a request when the round trip fails with a transient error.
// HTTP responses, including 5xx, are returned as is.
type RetryTransport struct {
	Base    http.RoundTripper
	Name    string
	Retries int
	Backoff time.Duration
}

// RoundTrip implements http.RoundTripper.
func (t *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	ctx := req.Context()

	var lastErr error
	for attempt := 0; attempt <= t.Retries; attempt++ {
		if attempt > 0 {
			delay := t.Backoff * time.Duration(attempt)
			logger.LogEvent(ctx, logger.TG, slog.LevelWarn, "http.retry",
				slog.String("status", "retry"),
				slog.String("client", t.Name),
				slog.Int("attempt", attempt),
				slog.Duration("backoff", delay),
				slog.String("err", lastErr.Error()),
			)
			if err := sleep(req, delay); err != nil {
				return nil, err
			}
		}

		next, err := rewind(req, attempt)
		if err != nil {
			return nil, err
		}
		if next == nil {
			return nil, lastErr
		}
		resp, err := base.RoundTrip(next)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !ShouldRetry(err) {
			break
		}
	}
	return nil, lastErr
}

// rewind returns the request to send on the given attempt, or nil when its body cannot be replayed.
func rewind(req *http.Request, attempt int) (*http.Request, error) {
	if attempt == 0 {
		return req, nil
	}
	clone := req.Clone(req.Context())
	switch {
	case req.GetBody != nil:
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		clone.Body = body
	case req.Body != nil && req.Body != http.NoBody:
		return nil, nil
	}
	return clone, nil
}

func sleep(req *http.Request, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-req.Context().Done():
		return req.Context().Err()
	case <-timer.C:
		return nil
	}
}
