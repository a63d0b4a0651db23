package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"det-ensemble/internal/cfg"
)

// stringSlice collects a repeatable flag.
type stringSlice []string

func (s *stringSlice) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSlice) Set(v string) error {
	*s = append(*s, v)
	return nil
}

type cliOptions struct {
	verbose bool
	usage   func()
}

// parseFlags applies command line overrides on top of settings. Models given
// with -m replace any configured list.
func parseFlags(args []string, settings *cfg.Settings) (cliOptions, error) {
	fs := flag.NewFlagSet("detmulti", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: detmulti -m <model> [-m <model>...] [-t <test file>] [-e <estimates file>] [-v]\n\n")
		fmt.Fprintf(fs.Output(), "Evaluates an ensemble of density estimation trees at every test point.\n")
		fmt.Fprintf(fs.Output(), "Test points are read one per line (stdin by default); one estimate is written per line (stdout by default).\n\n")
		fs.PrintDefaults()
	}

	var models stringSlice
	fs.Var(&models, "m", "Model resource: file path, http(s) URL or bolt:<db-path>#<name> (repeatable, required)")
	fs.Var(&models, "model_file", "Alias for -m")

	testFile := fs.String("t", settings.TestFile, "File of test points, - for stdin")
	fs.StringVar(testFile, "test_file", settings.TestFile, "Alias for -t")

	estimatesFile := fs.String("e", settings.EstimatesFile, "File to write density estimates to, - for stdout")
	fs.StringVar(estimatesFile, "estimates_file", settings.EstimatesFile, "Alias for -e")

	verbose := fs.Bool("v", false, "Verbose output (info level logs)")
	fs.BoolVar(verbose, "verbose", false, "Alias for -v")

	var (
		logLevel    = fs.String("log-level", settings.LogLevel, "Log level: debug, info, warn, error")
		precision   = fs.Int("precision", settings.Precision, "Significant digits per estimate, -1 for shortest exact form")
		workers     = fs.Int("workers", settings.Workers, "Goroutines per point, 0 for one per CPU")
		zeroWeight  = fs.String("zero-weight", settings.ZeroWeightPolicy, "Zero total weight policy: nan or fail")
		metricsPort = fs.Int("metrics-port", settings.MetricsPort, "Port for /health, /metrics and /ensemble, 0 to disable")
	)

	opts := cliOptions{usage: fs.Usage}
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		return opts, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	if len(models) > 0 {
		settings.Models = models
	}
	settings.TestFile = *testFile
	settings.EstimatesFile = *estimatesFile
	settings.LogLevel = *logLevel
	settings.Precision = *precision
	settings.Workers = *workers
	settings.ZeroWeightPolicy = *zeroWeight
	settings.MetricsPort = *metricsPort

	opts.verbose = *verbose
	return opts, nil
}
