package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"apnaghar/backend/config"
	"apnaghar/backend/global"
	"apnaghar/backend/initialize"
	"apnaghar/backend/server"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

func main() {
	flags := pflag.NewFlagSet("apnaghar", pflag.ExitOnError)
	configPath := flags.StringP("config", "c", "config.yaml", "path to the yaml config file")
	flags.String("host", "127.0.0.1", "listen host")
	flags.IntP("port", "p", 5000, "listen port")
	envFile := flags.String("env-file", ".env", "dotenv file loaded before the config")
	_ = flags.Parse(os.Args[1:])

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		global.Logger.Fatal().Err(err).Str("file", *envFile).Msg("load env file")
	}

	v := config.New(*configPath)
	_ = v.BindPFlag("backend.host", flags.Lookup("host"))
	_ = v.BindPFlag("backend.port", flags.Lookup("port"))
	cfg, err := config.FromViper(v)
	if err != nil {
		global.Logger.Fatal().Err(err).Msg("load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := initialize.Build(ctx, cfg)
	if err != nil {
		global.Logger.Fatal().Err(err).Msg("build app")
	}
	defer func() {
		if err := app.Close(); err != nil {
			global.Logger.Warn().Err(err).Msg("close")
		}
	}()

	if err := server.Run(ctx, cfg.Addr(), app.Router); err != nil {
		global.Logger.Error().Err(err).Msg("server stopped")
	}
}
