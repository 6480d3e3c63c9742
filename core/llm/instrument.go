package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/m3rciful/lunabot/core/logger"
)

// Observer receives one record per completion call.
type Observer interface {
	ObserveCompletion(purpose, model, status string, took time.Duration, promptTokens int)
}

// InstrumentOptions configures Instrument.
type InstrumentOptions struct {
	Provider     string
	DefaultModel string
	// Encoding is the tiktoken encoding for prompt estimates; "off" disables them.
	Encoding string
	Observer Observer
}

type instrumented struct {
	next   Gateway
	opts   InstrumentOptions
	tokens *TokenCounter
}

// Instrument wraps next with structured logging, metrics and prompt token estimates.
func Instrument(next Gateway, opts InstrumentOptions) Gateway {
	return &instrumented{next: next, opts: opts, tokens: NewTokenCounter(opts.Encoding)}
}

func (g *instrumented) Complete(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = g.opts.DefaultModel
	}
	promptTokens := g.tokens.Count(req.Messages)

	start := time.Now()
	text, err := g.next.Complete(ctx, req)
	took := time.Since(start)

	status := "ok"
	level := slog.LevelInfo
	attrs := []slog.Attr{
		slog.String("provider", g.opts.Provider),
		slog.String("model", model),
		slog.String("kind", req.Purpose),
		slog.Duration("duration", took),
	}
	if promptTokens >= 0 {
		attrs = append(attrs, slog.Int("prompt_tokens", promptTokens))
	}
	if err != nil {
		status = "fail"
		level = slog.LevelWarn
		attrs = append(attrs, slog.String("err", logger.SanitizeLimit(err.Error(), 256)))
	} else {
		attrs = append(attrs, slog.Int("reply_chars", len([]rune(text))))
	}
	attrs = append([]slog.Attr{slog.String("status", status)}, attrs...)
	logger.LogEvent(ctx, logger.LLM, level, "completion", attrs...)

	if g.opts.Observer != nil {
		g.opts.Observer.ObserveCompletion(req.Purpose, model, status, took, promptTokens)
	}
	return text, err
}
