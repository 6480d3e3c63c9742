package logger

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"log/slog"
)

func newTestHandler(buf *bytes.Buffer, format logFormat) (*structuredHandler, *asyncWriter) {
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	return newStructuredHandler(handlerConfig{
		level:    slog.LevelInfo,
		writer:   aw,
		format:   format,
		keyOrder: append([]string(nil), defaultKeyOrder...),
	}), aw
}

func drain(t *testing.T, aw *asyncWriter, buf *bytes.Buffer) string {
	t.Helper()
	if err := aw.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if err := aw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return strings.TrimSpace(buf.String())
}

func TestStructuredHandlerKVOrder(t *testing.T) {
	buf := &bytes.Buffer{}
	handler, aw := newTestHandler(buf, formatKV)
	ctx := WithRID(context.Background(), "rid-123")
	ctx = WithUpdateMeta(ctx, 42, 7, 9)

	log := slog.New(handler).With("component", "tutor")
	LogEvent(ctx, log, slog.LevelInfo, "chat.exchange",
		slog.String("status", "ok"),
		slog.String("state", "chatting"),
	)

	line := drain(t, aw, buf)
	tokens := strings.Split(line, " ")
	expected := []string{"ts=", "level=INFO", "component=tutor", "event=chat.exchange", "status=ok", "rid=rid-123"}
	if len(tokens) < len(expected) {
		t.Fatalf("unexpected token count: %d (%s)", len(tokens), line)
	}
	for i, prefix := range expected {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, expected prefix %s", i, tokens[i], prefix)
		}
	}
	if !strings.Contains(line, "update_id=42") || !strings.Contains(line, "user_id=7") || !strings.Contains(line, "chat_id=9") {
		t.Fatalf("update metadata missing: %s", line)
	}
}

func TestStructuredHandlerJSONOrder(t *testing.T) {
	buf := &bytes.Buffer{}
	handler, aw := newTestHandler(buf, formatJSON)
	ctx := WithRID(context.Background(), "rid-json")

	log := slog.New(handler).With("component", "llm")
	LogEvent(ctx, log, slog.LevelError, "completion.fail",
		slog.String("status", "fail"),
		slog.String("err", "boom"),
	)

	line := drain(t, aw, buf)
	prefixes := []string{`{"ts":`, `"level":"ERROR"`, `"component":"llm"`, `"event":"completion.fail"`, `"status":"fail"`, `"rid":"rid-json"`}
	pos := -1
	for _, pref := range prefixes {
		idx := strings.Index(line, pref)
		if idx == -1 || idx < pos {
			t.Fatalf("prefix %s not found in order within %s", pref, line)
		}
		pos = idx
	}
}

func TestStructuredHandlerCompactRIDJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	handler, aw := newTestHandler(buf, formatJSON)
	rawRID := "12:34:56"
	LogEvent(WithRID(context.Background(), rawRID), slog.New(handler), slog.LevelInfo, "rid.test")

	line := drain(t, aw, buf)
	if !strings.Contains(line, `"rid":"`+CompactRID(rawRID)+`"`) {
		t.Fatalf("expected compact rid in JSON, got %s", line)
	}
	if !strings.Contains(line, `"rid_full":"`+rawRID+`"`) {
		t.Fatalf("expected rid_full in JSON output, got %s", line)
	}
	if !strings.Contains(line, `"component":"app"`) {
		t.Fatalf("expected default component, got %s", line)
	}
}

func TestStructuredHandlerDurationKeys(t *testing.T) {
	buf := &bytes.Buffer{}
	handler, aw := newTestHandler(buf, formatKV)
	LogEvent(context.Background(), slog.New(handler), slog.LevelInfo, "completion.ok",
		slog.Duration("duration", 1500*time.Microsecond),
		slog.Duration("startup_duration", 2*time.Second),
		slog.Duration("backoff", time.Second),
	)

	line := drain(t, aw, buf)
	for _, want := range []string{"duration_ms=2", "startup_duration_ms=2000", "backoff_ms=1000"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %s in %s", want, line)
		}
	}
}

func TestStructuredHandlerDropsBelowLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	handler, aw := newTestHandler(buf, formatKV)
	LogEvent(context.Background(), slog.New(handler), slog.LevelDebug, "noise")
	if line := drain(t, aw, buf); line != "" {
		t.Fatalf("debug line should be filtered, got %s", line)
	}
}

func TestSanitizeLimit(t *testing.T) {
	if got := SanitizeLimit("سلام\u200f دنیا\x07", 6); got != "سلام د" {
		t.Fatalf("SanitizeLimit = %q", got)
	}
}

func TestStructuredHandlerRedactsSecrets(t *testing.T) {
	buf := &bytes.Buffer{}
	handler, aw := newTestHandler(buf, formatKV)
	LogEvent(context.Background(), slog.New(handler), slog.LevelInfo, "config.loaded",
		slog.String("api_key", "sk-live-123"),
		slog.Group("telegram", slog.String("token", "42:abc")),
	)

	line := drain(t, aw, buf)
	if strings.Contains(line, "sk-live-123") || strings.Contains(line, "42:abc") {
		t.Fatalf("secret leaked: %s", line)
	}
	if !strings.Contains(line, "telegram.token="+redactedValue) {
		t.Fatalf("grouped secret not redacted: %s", line)
	}
}

func TestStructuredHandlerClampsLongValues(t *testing.T) {
	buf := &bytes.Buffer{}
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	handler := newStructuredHandler(handlerConfig{
		level:         slog.LevelInfo,
		writer:        aw,
		format:        formatJSON,
		maxValueRunes: 5,
	})
	LogEvent(context.Background(), slog.New(handler), slog.LevelInfo, "chat.exchange",
		slog.String("reply", "Hello there, learner"),
	)

	line := drain(t, aw, buf)
	if !strings.Contains(line, `"reply":"Hello…"`) {
		t.Fatalf("value not clamped: %s", line)
	}
}
