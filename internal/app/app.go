// Package app assembles the bot from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m3rciful/lunabot/core/bootstrap"
	coreconfig "github.com/m3rciful/lunabot/core/config"
	"github.com/m3rciful/lunabot/core/llm"
	"github.com/m3rciful/lunabot/core/locale"
	"github.com/m3rciful/lunabot/core/logger"
	"github.com/m3rciful/lunabot/core/metrics"
	tg "github.com/m3rciful/lunabot/core/telegram"
	"github.com/m3rciful/lunabot/core/telegram/middleware"
	tgrouter "github.com/m3rciful/lunabot/core/telegram/router"
	tgsender "github.com/m3rciful/lunabot/core/telegram/sender"
	"github.com/m3rciful/lunabot/core/telegram/state"
	"github.com/m3rciful/lunabot/internal/journal"
	"github.com/m3rciful/lunabot/internal/tutor"
)

// App owns every long-lived component of the bot.
type App struct {
	cfg      *coreconfig.Config
	infra    *bootstrap.Result
	metrics  *metrics.Collector
	server   *metrics.Server
	redis    *redis.Client
	limiter  middleware.Limiter
	tutor    *tutor.Router
	registry *tg.Registry
}

// Options lets tests replace the bootstrap pipeline.
type Options struct {
	Bootstrap func(context.Context, bootstrap.Options) (*bootstrap.Result, error)
}

// New initializes logging and storage, then builds the conversation router.
func New(ctx context.Context, cfg *coreconfig.Config, opts Options) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	boot := opts.Bootstrap
	if boot == nil {
		boot = bootstrap.Run
	}
	infra, err := boot(ctx, bootstrap.Options{
		Config:        cfg,
		Migrations:    journal.Migrations,
		MigrationsDir: journal.MigrationsDir,
	})
	if err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, infra: infra}
	if err := a.build(); err != nil {
		_ = a.close()
		return nil, err
	}
	return a, nil
}

func (a *App) build() error {
	cat, err := locale.New(a.cfg.Bot.Language)
	if err != nil {
		return fmt.Errorf("app: %w", err)
	}

	sessions := state.NewMemoryManager()
	a.metrics = metrics.New(sessions.Len)

	gateway, err := llm.New(a.cfg.LLM, a.metrics)
	if err != nil {
		return fmt.Errorf("app: %w", err)
	}

	var rec journal.Recorder = journal.Noop{}
	if a.infra != nil && a.infra.DB != nil {
		rec = journal.NewPostgres(a.infra.DB)
	}

	a.tutor, err = tutor.NewRouter(tutor.Options{
		Sessions: sessions,
		Gateway:  gateway,
		Catalog:  cat,
		Model:    a.cfg.LLM.Model,
		Journal:  rec,
		Observer: a.metrics,
	})
	if err != nil {
		return fmt.Errorf("app: %w", err)
	}

	a.limiter = a.buildLimiter()
	a.registry = tg.NewRegistry()
	a.tutor.RegisterCommands(a.registry)

	logger.LogEvent(context.Background(), logger.L, slog.LevelInfo, "app.build",
		slog.String("component", "app"),
		slog.String("status", "ok"),
		slog.String("lang", cat.Lang()),
		slog.String("provider", a.cfg.LLM.Provider),
		slog.String("rate_limit_backend", a.cfg.RateLimit.Backend),
		slog.Bool("journal", a.infra != nil && a.infra.DB != nil),
	)
	return nil
}

func (a *App) buildLimiter() middleware.Limiter {
	interval := time.Duration(a.cfg.RateLimit.IntervalMS) * time.Millisecond
	if interval <= 0 {
		return nil
	}
	if a.cfg.RateLimit.Backend == coreconfig.LimiterRedis {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     a.cfg.Redis.Addr,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
		})
		return middleware.NewRedisLimiter(a.redis, interval)
	}
	return middleware.NewMemoryLimiter(interval)
}

// TelegramRunOptions describes routes, middleware and lifecycle hooks for the Telegram runtime.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	routes := tgrouter.CommandRoutes(a.registry, a.metrics)
	routes = append(routes, tgrouter.MessageRoutes(a.tutor.HandleMessage, a.metrics)...)

	return tg.RunOptions{
		Config:   a.cfg,
		Registry: a.registry,
		DispatcherOptions: tgsender.Options{
			MaxRetries: 2,
			OnResult:   a.metrics.ObserveSend,
		},
		Middlewares: tg.DefaultMiddlewares(a.cfg, tg.MiddlewareOptions{
			Limiter:   a.limiter,
			OnLimited: a.tutor.OnLimited,
			OnDropped: a.metrics.ObserveRateLimited,
		}),
		Routes:  routes,
		OnStart: a.onStart,
		OnStop:  a.onStop,
	}, nil
}

func (a *App) onStart(ctx context.Context, _ tg.Runtime) error {
	if a.cfg.Metrics.Listen == "" {
		return nil
	}
	a.server = metrics.NewServer(a.cfg.Metrics.Listen, a.metrics)
	a.server.Start(ctx)
	return nil
}

func (a *App) onStop(ctx context.Context, _ tg.Runtime) error {
	var errs []error
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("app: metrics shutdown: %w", err))
		}
	}
	if err := a.close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (a *App) close() error {
	var errs []error
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("app: redis close: %w", err))
		}
	}
	if err := a.infra.Close(); err != nil {
		errs = append(errs, fmt.Errorf("app: database close: %w", err))
	}
	return errors.Join(errs...)
}
