package main

import (
	"context"
	"flag"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"agent3525/internal/app"
	"agent3525/internal/config"
	"agent3525/internal/metrics"
	"agent3525/internal/util"
)

func main() {
	log := util.NewLogger("info")

	flags, err := app.ParseMintFlags(flag.CommandLine, os.Args[1:])
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

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	agent, err := app.NewSlotAgent(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("start slot agent")
	}
	defer agent.Close()

	srv, err := metrics.Serve(cfg.App.MetricsAddr, log)
	if err != nil {
		log.Error().Err(err).Msg("metrics disabled")
	} else if cfg.App.MetricsAddr != "" {
		log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return agent.Run(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("slot agent stopped")
		return
	}
	log.Info().Uint64("cycles", agent.Loop.Cycles()).Msg("shutting down")
}
