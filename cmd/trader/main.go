package main

import (
	"context"
	"flag"
	"os"
	ossignal "os/signal"
	"syscall"

	"agent3525/internal/app"
	"agent3525/internal/config"
	"agent3525/internal/metrics"
	"agent3525/internal/util"
)

func main() {
	log := util.NewLogger("info")

	flags, err := app.ParseTraderFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("parse flags")
	}
	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	flags.Apply(cfg)

	fileLog, logFile, err := util.NewFileLogger(cfg.App.LogLevel, cfg.App.LogFile)
	if err != nil {
		log.Fatal().Err(err).Msg("open log file")
	}
	defer logFile.Close()
	log = fileLog

	srv, err := metrics.Serve(cfg.App.MetricsAddr, log)
	if err != nil {
		log.Error().Err(err).Msg("metrics disabled")
	} else if cfg.App.MetricsAddr != "" {
		log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")
	}
	defer srv.Close()

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	trader, err := app.NewTrader(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("start trader")
	}
	defer trader.Close()

	if err := trader.Run(ctx, flags.Session); err != nil {
		log.Error().Err(err).Msg("trader stopped")
		return
	}
	log.Info().Msg("shutting down")
}
