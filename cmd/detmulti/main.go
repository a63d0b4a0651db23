package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"det-ensemble/internal/app"
	"det-ensemble/internal/cfg"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Logs go to stderr; stdout may carry estimates.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.WarnLevel)

	settings, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	cli, err := parseFlags(os.Args[1:], &settings)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("invalid arguments")
	}
	setupLogging(settings.LogLevel, cli.verbose)

	if err := settings.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid settings")
	}
	if len(settings.Models) == 0 {
		cli.usage()
		log.Fatal().Msg("at least one model is required (-m)")
	}

	// SIGINT/SIGTERM stop the run between records.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := app.Run(ctx, settings, os.Stdin, os.Stdout)
	if err != nil {
		stop()
		log.Fatal().Err(err).Msg("evaluation failed")
	}

	log.Info().
		Int("models", res.Load.Loaded).
		Int("records", res.Stream.Records).
		Dur("models_loading", res.Load.Elapsed).
		Dur("processing", res.Stream.Elapsed).
		Msg("done")
}

// setupLogging applies the configured level; verbose raises it to at least info.
func setupLogging(logLevel string, verbose bool) {
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.WarnLevel
	}
	if verbose && level > zerolog.InfoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}
