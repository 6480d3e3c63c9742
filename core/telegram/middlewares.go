package telegram

import (
	"strings"

	coreconfig "github.com/m3rciful/lunabot/core/config"
	"github.com/m3rciful/lunabot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// MiddlewareOptions supplies the pieces DefaultMiddlewares cannot build from config alone.
type MiddlewareOptions struct {
	Limiter   middleware.Limiter
	OnLimited tele.HandlerFunc
	// OnDropped is called for every update the limiter drops.
	OnDropped func()
}

// DefaultMiddlewares builds the shared middleware chain for the bot.
func DefaultMiddlewares(cfg *coreconfig.Config, opts MiddlewareOptions) []Middleware {
	mws := []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
	}

	if cfg != nil && cfg.RateLimit.IntervalMS > 0 && opts.Limiter != nil {
		ex := make(map[string]struct{}, len(cfg.RateLimit.ExcludeUpdates))
		for _, t := range cfg.RateLimit.ExcludeUpdates {
			ex[strings.ToLower(t)] = struct{}{}
		}
		mws = append(mws, Middleware{
			Name: "rate_limit",
			Use: middleware.RateLimitMiddleware(middleware.RateLimitOptions{
				Limiter:   opts.Limiter,
				Exclude:   ex,
				OnLimited: opts.OnLimited,
				Observe:   opts.OnDropped,
			}),
		})
	}

	mws = append(mws,
		Middleware{Name: "logger", Use: middleware.LoggerMiddleware},
		Middleware{Name: "metrics", Use: middleware.MessageMetricsMiddleware},
	)

	return mws
}
