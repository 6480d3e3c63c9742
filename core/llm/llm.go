// Package llm talks to OpenAI-compatible chat completion APIs.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/lunabot/core/config"
	"github.com/m3rciful/lunabot/core/telegram/netutil"
)

// Role is the author of a prompt message.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message is one entry of the prompt.
type Message struct {
	Role    Role
	Content string
}

// Request describes a single completion call.
type Request struct {
	Model       string
	Messages    []Message
	Temperature float32
	MaxTokens   int
	// Purpose labels the call in logs and metrics, e.g. "reply" or "dictionary".
	Purpose string
}

// Gateway turns a prompt into generated text.
type Gateway interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// GatewayFunc adapts a function to Gateway.
type GatewayFunc func(ctx context.Context, req Request) (string, error)

// Complete calls f.
func (f GatewayFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// ErrEmptyResponse is returned when the provider answers without any choice text.
var ErrEmptyResponse = errors.New("llm: empty response")

// New builds the configured provider client wrapped with logging and metrics.
func New(cfg coreconfig.LLMConfig, obs Observer) (Gateway, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	// Completions are not idempotent; only failures before the request was sent are retried.
	client := netutil.NewClient(netutil.ClientOptions{
		Name:           "llm",
		Timeout:        timeout,
		ResponseHeader: timeout,
		Retries:        1,
		Backoff:        500 * time.Millisecond,
	})

	var gw Gateway
	switch cfg.Provider {
	case coreconfig.ProviderOpenAI, "":
		gw = NewOpenAI(cfg, client)
	case coreconfig.ProviderOpenRouter:
		gw = NewOpenRouter(cfg, client)
	default:
		return nil, fmt.Errorf("llm: unsupported provider %q", cfg.Provider)
	}
	return Instrument(gw, InstrumentOptions{
		Provider:     cfg.Provider,
		DefaultModel: cfg.Model,
		Encoding:     cfg.TokenEncoding,
		Observer:     obs,
	}), nil
}

func firstChoice(texts []string) (string, error) {
	if len(texts) == 0 {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(texts[0])
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
