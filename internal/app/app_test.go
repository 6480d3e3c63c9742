package app

import (
	"context"
	"testing"

	"github.com/m3rciful/lunabot/core/bootstrap"
	coreconfig "github.com/m3rciful/lunabot/core/config"
	tg "github.com/m3rciful/lunabot/core/telegram"
	"github.com/m3rciful/lunabot/core/telegram/middleware"
)

func testConfig(t *testing.T) *coreconfig.Config {
	t.Helper()
	cfg := &coreconfig.Config{
		Telegram: coreconfig.TelegramConfig{Token: "1:test"},
		LLM:      coreconfig.LLMConfig{APIKey: "sk-test", TokenEncoding: "off"},
	}
	if err := coreconfig.Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	return cfg
}

func noBootstrap(_ context.Context, opts bootstrap.Options) (*bootstrap.Result, error) {
	if opts.Migrations == nil || opts.MigrationsDir == "" {
		return nil, context.Canceled
	}
	return &bootstrap.Result{}, nil
}

func TestNewBuildsRoutes(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(context.Background(), cfg, Options{Bootstrap: noBootstrap})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	opts, err := a.TelegramRunOptions()
	if err != nil {
		t.Fatalf("run options: %v", err)
	}
	if len(opts.Routes) != 9 {
		t.Fatalf("routes = %d, want 9", len(opts.Routes))
	}
	if _, _, ok := opts.Registry.LookupCommand("/start"); !ok {
		t.Fatal("/start not registered")
	}
	if a.limiter != nil {
		t.Fatal("limiter built without an interval")
	}
	if err := opts.OnStop(context.Background(), tg.Runtime{}); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestLimiterBackends(t *testing.T) {
	cfg := testConfig(t)
	cfg.RateLimit.IntervalMS = 500
	a, err := New(context.Background(), cfg, Options{Bootstrap: noBootstrap})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, ok := a.limiter.(*middleware.MemoryLimiter); !ok {
		t.Fatalf("limiter = %T, want memory", a.limiter)
	}

	cfg = testConfig(t)
	cfg.RateLimit.IntervalMS = 500
	cfg.RateLimit.Backend = coreconfig.LimiterRedis
	cfg.Redis.Addr = "127.0.0.1:6379"
	a, err = New(context.Background(), cfg, Options{Bootstrap: noBootstrap})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, ok := a.limiter.(*middleware.RedisLimiter); !ok {
		t.Fatalf("limiter = %T, want redis", a.limiter)
	}
	if err := a.close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestNewRejectsUnknownLanguage(t *testing.T) {
	cfg := testConfig(t)
	cfg.Bot.Language = "de"
	if _, err := New(context.Background(), cfg, Options{Bootstrap: noBootstrap}); err == nil {
		t.Fatal("unsupported language accepted")
	}
}
