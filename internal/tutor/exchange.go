package tutor

import (
	"context"
	"log/slog"

	"github.com/m3rciful/lunabot/core/llm"
	"github.com/m3rciful/lunabot/core/locale"
	"github.com/m3rciful/lunabot/core/logger"
	"github.com/m3rciful/lunabot/internal/journal"
)

// Completion purposes, used as metric and log labels.
const (
	PurposeReply      = "reply"
	PurposeCorrection = "correction"
	PurposeDictionary = "dictionary"
)

// exchange answers in persona, then sends the bilingual correction of the same text.
// Completion failures are replaced by fixed fallback messages; the session is not touched.
func (r *Router) exchange(ctx context.Context, t *turn) error {
	r.typing(ctx, t.out)
	reply := r.complete(ctx, llm.Request{
		Purpose:     PurposeReply,
		Temperature: 0.7,
		MaxTokens:   400,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: BuildPersonaPrompt(t.session)},
			{Role: llm.RoleUser, Content: t.text},
		},
	}, locale.ReplyFallback)
	if err := t.out.Send(ctx, Outbound{Text: reply}); err != nil {
		return err
	}

	raw := r.complete(ctx, llm.Request{
		Purpose:     PurposeCorrection,
		Temperature: 0.2,
		MaxTokens:   350,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: correctionSystemPrompt},
			{Role: llm.RoleUser, Content: BuildCorrectionPrompt(t.session, t.text)},
		},
	}, locale.CorrectionFallback)
	correction := ParseCorrection(raw)

	r.typing(ctx, t.out)
	markdown, plain := RenderCorrection(r.catalog, correction)
	if err := t.out.Send(ctx, Outbound{Text: markdown, Plain: plain, Markdown: true}); err != nil {
		return err
	}

	r.record(ctx, journal.Entry{
		UserID:      t.in.UserID,
		Kind:        journal.KindChat,
		Level:       string(t.session.Level),
		Topic:       t.session.Topic,
		UserText:    t.text,
		Reply:       reply,
		Explanation: correction.Explanation,
		Corrected:   correction.Corrected,
	})
	return nil
}

// lookup translates the text to Persian and keeps the user in dictionary mode.
func (r *Router) lookup(ctx context.Context, t *turn) error {
	r.typing(ctx, t.out)
	meaning := r.complete(ctx, llm.Request{
		Purpose:     PurposeDictionary,
		Temperature: 0.2,
		MaxTokens:   200,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: dictionarySystemPrompt},
			{Role: llm.RoleUser, Content: t.text},
		},
	}, locale.DictionaryFallback)

	msg := r.catalog.Format(locale.DictionaryMeaning, map[string]any{"Meaning": meaning})
	if err := t.out.Send(ctx, Outbound{Text: msg, Keyboard: r.labels.backOnly()}); err != nil {
		return err
	}

	r.record(ctx, journal.Entry{
		UserID:   t.in.UserID,
		Kind:     journal.KindDictionary,
		Level:    string(t.session.Level),
		Topic:    t.session.Topic,
		UserText: t.text,
		Reply:    meaning,
	})
	return nil
}

// complete returns the completion text or the catalog message fallbackID on failure.
func (r *Router) complete(ctx context.Context, req llm.Request, fallbackID string) string {
	req.Model = r.model
	text, err := r.gateway.Complete(ctx, req)
	if err != nil {
		logger.LogEvent(ctx, logger.Tutor, slog.LevelWarn, "completion.fallback",
			slog.String("purpose", req.Purpose),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		return r.catalog.Text(fallbackID)
	}
	return text
}

func (r *Router) typing(ctx context.Context, out Responder) {
	if err := out.Typing(ctx); err != nil {
		logger.LogEvent(ctx, logger.Tutor, slog.LevelDebug, "typing",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
	}
}

// record journals e. Failures are logged and never reach the user.
func (r *Router) record(ctx context.Context, e journal.Entry) {
	if err := r.journal.Record(ctx, e); err != nil {
		logger.LogEvent(ctx, logger.Tutor, slog.LevelWarn, "journal.skip",
			slog.String("kind", string(e.Kind)),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
	}
}
