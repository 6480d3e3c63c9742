package bootstrap

import (
	"context"
	"errors"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/lunabot/core/config"
)

func TestRunSkipsDatabaseWhenDisabled(t *testing.T) {
	var loggerCalls int
	res, err := Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		LoggerInit: func(*coreconfig.Config) error { loggerCalls++; return nil },
		Connect: func(context.Context, coreconfig.DatabaseConfig) (*sqlx.DB, error) {
			t.Fatal("connect must not be called")
			return nil, nil
		},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if loggerCalls != 1 {
		t.Fatalf("logger init calls = %d, want 1", loggerCalls)
	}
	if res.DB != nil {
		t.Fatal("expected nil DB when database is disabled")
	}
	if err := res.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestRunMigratesBeforeConnect(t *testing.T) {
	var order []string
	cfg := &coreconfig.Config{Database: coreconfig.DatabaseConfig{Enabled: true, Host: "db", Name: "luna"}}
	boom := errors.New("no database here")
	_, err := Run(context.Background(), Options{
		Config:        cfg,
		Migrations:    fstest.MapFS{},
		MigrationsDir: "migrations",
		LoggerInit:    func(*coreconfig.Config) error { return nil },
		Migrate: func(_ context.Context, _ coreconfig.DatabaseConfig, _ fs.FS, dir string) error {
			order = append(order, "migrate:"+dir)
			return nil
		},
		Connect: func(context.Context, coreconfig.DatabaseConfig) (*sqlx.DB, error) {
			order = append(order, "connect")
			return nil, boom
		},
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped connect error, got %v", err)
	}
	if len(order) != 2 || order[0] != "migrate:migrations" || order[1] != "connect" {
		t.Fatalf("unexpected call order: %v", order)
	}
}

func TestRunRequiresConfig(t *testing.T) {
	if _, err := Run(context.Background(), Options{}); err == nil {
		t.Fatal("expected error for nil config")
	}
}
