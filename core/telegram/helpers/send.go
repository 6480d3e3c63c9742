package helpers

import (
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/m3rciful/lunabot/core/logger"
	"github.com/m3rciful/lunabot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the asynchronous sender used by helper functions.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

func currentDispatcher() *sender.Dispatcher {
	return globalDispatcher.Load()
}

func chatKey(c tele.Context) int64 {
	if chat := c.Chat(); chat != nil {
		return chat.ID
	}
	if user := c.Sender(); user != nil {
		return user.ID
	}
	return 0
}

// sendAsync queues run on the chat's shard so messages to one chat keep their order.
func sendAsync(c tele.Context, action, endpoint string, run func() error) error {
	disp := currentDispatcher()
	if disp == nil {
		return run()
	}

	ctx := BuildContext(c)
	if err := disp.Enqueue(ctx, chatKey(c), action, endpoint, run); err != nil {
		if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
			logger.Warn(ctx, "tg.sender", "queue.fallback",
				slog.String("action", action),
				slog.String("endpoint", endpoint),
				slog.String("err", err.Error()),
			)
			return run()
		}
		return err
	}
	return nil
}

// SendText sends raw text (no parse mode) to the current recipient.
func SendText(c tele.Context, text string, opts ...*tele.SendOptions) error {
	var sendOpts *tele.SendOptions
	if len(opts) > 0 {
		sendOpts = opts[0]
	}
	countOutbound(c, sendOpts != nil && sendOpts.ReplyMarkup != nil)
	return sendAsync(c, "send.text", "sendMessage", func() error {
		if sendOpts != nil {
			return c.Send(text, sendOpts)
		}
		return c.Send(text)
	})
}

// SendMDOrPlain sends Markdown and, when Telegram cannot parse the entities, resends plain instead.
func SendMDOrPlain(c tele.Context, text, plain string, markup *tele.ReplyMarkup) error {
	countOutbound(c, markup != nil)
	return sendAsync(c, "send.markdown", "sendMessage", func() error {
		err := c.Send(text, &tele.SendOptions{ParseMode: tele.ModeMarkdown, ReplyMarkup: markup})
		if err == nil || !IsEntityParseError(err) {
			return err
		}
		logger.Warn(BuildContext(c), "tg.sender", "send.markdown.fallback",
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		return c.Send(plain, &tele.SendOptions{ReplyMarkup: markup})
	})
}

// IsEntityParseError reports whether Telegram rejected the message formatting.
func IsEntityParseError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "can't parse entities") || strings.Contains(msg, "can't find end of the entity")
}

// Notify sends a chat action such as typing through the same ordered queue.
func Notify(c tele.Context, action tele.ChatAction) error {
	return sendAsync(c, "send.action", "sendChatAction", func() error {
		return c.Notify(action)
	})
}
