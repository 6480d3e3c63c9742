package tutor

import (
	"context"

	"github.com/m3rciful/lunabot/core/locale"
	tg "github.com/m3rciful/lunabot/core/telegram"
	"github.com/m3rciful/lunabot/core/telegram/commands"
	tghelpers "github.com/m3rciful/lunabot/core/telegram/helpers"
	"github.com/m3rciful/lunabot/core/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

// telegramResponder sends through the ordered helper queue of the update's chat.
type telegramResponder struct {
	c tele.Context
}

// NewTelegramResponder returns a Responder bound to the chat of c.
func NewTelegramResponder(c tele.Context) Responder {
	return telegramResponder{c: c}
}

func (r telegramResponder) Send(_ context.Context, out Outbound) error {
	markup := replyMarkup(out.Keyboard)
	if out.Markdown {
		plain := out.Plain
		if plain == "" {
			plain = out.Text
		}
		return tghelpers.SendMDOrPlain(r.c, out.Text, plain, markup)
	}
	return tghelpers.SendText(r.c, out.Text, &tele.SendOptions{ReplyMarkup: markup})
}

func (r telegramResponder) Typing(context.Context) error {
	return tghelpers.Notify(r.c, tele.Typing)
}

func replyMarkup(kb Keyboard) *tele.ReplyMarkup {
	switch {
	case kb.Remove:
		return keyboard.RemoveKeyboard()
	case len(kb.Rows) > 0:
		return keyboard.ReplyButtons(kb.Rows...)
	}
	return nil
}

// HandleMessage is the telebot entry point for text and media messages.
func (r *Router) HandleMessage(c tele.Context, kind string) error {
	in := Inbound{UserID: tghelpers.SenderID(c), Kind: kind}
	if kind == tghelpers.KindText {
		in.Text = c.Text()
	}
	return r.Handle(tghelpers.BuildContext(c), in, NewTelegramResponder(c))
}

// HandleStart is the telebot entry point for the start command.
func (r *Router) HandleStart(c tele.Context) error {
	return r.Start(tghelpers.BuildContext(c), tghelpers.SenderID(c), NewTelegramResponder(c))
}

// OnLimited tells a throttled user to slow down.
func (r *Router) OnLimited(c tele.Context) error {
	return tghelpers.SendText(c, r.catalog.Text(locale.RateLimited))
}

// RegisterCommands adds the bot's slash commands to reg.
func (r *Router) RegisterCommands(reg *tg.Registry) {
	reg.RegisterCommand(StartCommand, commands.Command{
		Handler:     r.HandleStart,
		Description: r.catalog.Text(locale.CommandStart),
	})
}
