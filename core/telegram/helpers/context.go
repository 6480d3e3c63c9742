package helpers

import (
	"context"

	"github.com/m3rciful/lunabot/core/logger"

	tele "gopkg.in/telebot.v4"
)

const contextKey = "lunabot_ctx"

// StoreContext attaches reusable context to tele.Context for downstream helpers.
func StoreContext(c tele.Context, ctx context.Context) {
	if c == nil || ctx == nil {
		return
	}
	c.Set(contextKey, ctx)
}

// ContextFrom returns the context stored by middleware, if any.
func ContextFrom(c tele.Context) (context.Context, bool) {
	if c == nil {
		return nil, false
	}
	ctx, ok := c.Get(contextKey).(context.Context)
	return ctx, ok && ctx != nil
}

// SenderID returns the Telegram user id of the update author, or the chat id for anonymous posts.
func SenderID(c tele.Context) int64 {
	if user := c.Sender(); user != nil {
		return user.ID
	}
	if chat := c.Chat(); chat != nil {
		return chat.ID
	}
	return 0
}

// BuildContext derives a context.Context from the update carrying rid and
// update/user/chat metadata so service logs correlate with transport logs.
func BuildContext(c tele.Context) context.Context {
	if cached, ok := ContextFrom(c); ok {
		return cached
	}

	upd := c.Update()
	var chatID int64
	if chat := c.Chat(); chat != nil {
		chatID = chat.ID
	}
	userID := SenderID(c)

	rid, _ := c.Get("rid").(string)
	if rid == "" {
		rid = logger.BuildRID(upd.ID, chatID, userID)
	}

	ctx := logger.WithRID(context.Background(), rid)
	ctx = logger.WithUpdateMeta(ctx, upd.ID, userID, chatID)
	ctx = logger.WithLogger(ctx, logger.TG)
	StoreContext(c, ctx)
	return ctx
}

// WithHandler enriches stored context with handler metadata for downstream logs.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := BuildContext(c)
	if handler == "" {
		return ctx
	}
	ctx = logger.WithHandler(ctx, handler)
	StoreContext(c, ctx)
	return ctx
}
