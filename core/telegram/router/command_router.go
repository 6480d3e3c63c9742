package router

import (
	"context"
	"log/slog"
	"time"

	"github.com/m3rciful/lunabot/core/logger"
	tg "github.com/m3rciful/lunabot/core/telegram"

	tele "gopkg.in/telebot.v4"
)

// CommandRoutes binds every registered command and its aliases.
func CommandRoutes(reg *tg.Registry, obs Observer) []tg.Route {
	if reg == nil {
		return nil
	}

	cmds := reg.Commands()
	routes := make([]tg.Route, 0, len(cmds))
	for name, def := range cmds {
		handlerName := normalizeHandlerName(name)
		run := def.Handler
		h := func(c tele.Context) error {
			return handleWithSummary(c, obs, handlerName, time.Now(), "", func() error {
				return run(c)
			})
		}
		routes = append(routes, tg.Route{Endpoint: name, Handler: h})
		for _, alias := range def.Aliases {
			endpoint := alias
			if endpoint != "" && endpoint[0] != '/' {
				endpoint = "/" + endpoint
			}
			routes = append(routes, tg.Route{Endpoint: endpoint, Handler: h})
		}
	}

	logger.LogEvent(context.Background(), logger.TWire, slog.LevelInfo, "routes.commands",
		slog.String("status", "ok"),
		slog.Int("commands", len(cmds)),
		slog.Int("routes", len(routes)),
	)
	return routes
}
