// Package app wires one evaluation run: load the ensemble, bind the input and
// output streams, then answer every test point in order.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"det-ensemble/internal/cfg"
	"det-ensemble/internal/ensemble"
	"det-ensemble/internal/iobind"
	"det-ensemble/internal/loader"
	"det-ensemble/internal/metrics"
	"det-ensemble/internal/server"
	"det-ensemble/internal/stream"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 5 * time.Second

// Result reports what a run did.
type Result struct {
	Load   loader.Report
	Stream stream.Stats
}

// Run executes one evaluation. Every failure is returned rather than ending the
// process, so handles opened here are always released.
func Run(ctx context.Context, settings cfg.Settings, stdin io.Reader, stdout io.Writer) (res Result, err error) {
	policy, err := stream.ParseZeroWeightPolicy(settings.ZeroWeightPolicy)
	if err != nil {
		return res, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	mw := metrics.NewWrapper(metrics.NewWithRegistry(registry))

	ld := loader.New(loader.Options{
		HTTPTimeout:   settings.HTTPTimeout,
		HTTPRetries:   settings.HTTPRetries,
		HTTPRetryWait: settings.HTTPRetryWait,
	}, mw)

	ens, report, err := ld.Load(ctx, settings.Models)
	res.Load = report
	if err != nil {
		return res, fmt.Errorf("load models: %w", err)
	}

	eval, err := ensemble.NewEvaluator(ens, ensemble.Config{
		Workers:           settings.Workers,
		MinParallelModels: settings.MinParallelModels,
	}, mw)
	if err != nil {
		return res, err
	}
	log.Info().
		Int("models", ens.Len()).
		Int("data_width", eval.DataWidth()).
		Int("workers", eval.Workers()).
		Msg("ensemble ready")

	if settings.MetricsPort > 0 {
		srv := startServer(ens, registry, settings.MetricsPort)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if serr := srv.Shutdown(shutdownCtx); serr != nil {
				log.Warn().Err(serr).Msg("metrics server shutdown failed")
			}
		}()
	}

	in, err := iobind.OpenInput(settings.TestFile, stdin)
	if err != nil {
		return res, err
	}
	defer in.Close()

	out, err := iobind.OpenOutput(settings.EstimatesFile, stdout)
	if err != nil {
		return res, err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	log.Info().Str("input", in.Name()).Str("output", out.Name()).Msg("processing test points")

	proc := stream.New(eval, stream.Config{
		Precision:  settings.Precision,
		ZeroWeight: policy,
	}, mw)

	res.Stream, err = proc.Run(ctx, in, out)
	if err != nil {
		return res, fmt.Errorf("process %s: %w", in.Name(), err)
	}
	return res, nil
}

// startServer serves health, metrics and ensemble details in the background.
func startServer(ens *ensemble.Ensemble, registry *prometheus.Registry, port int) *server.Server {
	srv := server.New(ens, registry, port)
	go func() {
		if err := srv.Start(); err != nil {
			log.Error().Err(err).Msg("metrics server stopped")
		}
	}()
	return srv
}
