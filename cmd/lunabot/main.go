// Command lunabot runs Luna, the English-practice Telegram bot.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/m3rciful/lunabot/core/buildinfo"
	corecmd "github.com/m3rciful/lunabot/core/cmd"
	coreconfig "github.com/m3rciful/lunabot/core/config"
	"github.com/m3rciful/lunabot/internal/app"
)

type cli struct {
	Config  string           `help:"Path to the YAML config file. Without it only the environment is used." env:"CONFIG_PATH" placeholder:"FILE"`
	Version kong.VersionFlag `help:"Print version information and exit."`
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env", "err", err)
	}

	var args cli
	kong.Parse(&args,
		kong.Name("lunabot"),
		kong.Description("Luna: a Telegram partner for practising English."),
		kong.Vars{"version": buildinfo.String()},
	)

	err := corecmd.Run(corecmd.Options{
		ConfigPath: args.Config,
		Bootstrap: func(ctx context.Context, cfg *coreconfig.Config) (corecmd.TelegramApp, error) {
			return app.New(ctx, cfg, app.Options{})
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "lunabot: %v\n", err)
		os.Exit(1)
	}
}
