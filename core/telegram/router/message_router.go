package router

import (
	"time"

	tg "github.com/m3rciful/lunabot/core/telegram"
	tghelpers "github.com/m3rciful/lunabot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// MessageHandler handles one inbound message of the given content kind.
type MessageHandler func(c tele.Context, kind string) error

var contentEndpoints = []string{
	tele.OnText,
	tele.OnSticker,
	tele.OnPhoto,
	tele.OnDocument,
	tele.OnAudio,
	tele.OnVideo,
	tele.OnVoice,
	tele.OnAnimation,
}

// MessageRoutes binds text and media endpoints to a single handler that receives the content kind.
func MessageRoutes(handle MessageHandler, obs Observer) []tg.Route {
	if handle == nil {
		return nil
	}
	h := func(c tele.Context) error {
		start := time.Now()
		kind := tghelpers.ContentKind(c)
		return handleWithSummary(c, obs, "message."+kind, start, "", func() error {
			return handle(c, kind)
		})
	}
	routes := make([]tg.Route, 0, len(contentEndpoints))
	for _, endpoint := range contentEndpoints {
		routes = append(routes, tg.Route{Endpoint: endpoint, Handler: h})
	}
	return routes
}
