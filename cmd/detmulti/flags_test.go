package main

import (
	"errors"
	"flag"
	"testing"

	"det-ensemble/internal/cfg"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags_Overrides(t *testing.T) {
	settings := cfg.Defaults()
	settings.Models = []string{"configured.json"}

	opts, err := parseFlags([]string{
		"-m", "a.json", "--model_file", "bolt:models.db#b", "-m", "https://example.com/c.yaml",
		"-t", "points.txt", "--estimates_file", "out.txt",
		"-v", "-precision", "6", "-workers", "2", "-zero-weight", "fail", "-metrics-port", "9100",
	}, &settings)
	require.NoError(t, err)

	assert.True(t, opts.verbose)
	assert.Equal(t, []string{"a.json", "bolt:models.db#b", "https://example.com/c.yaml"}, settings.Models)
	assert.Equal(t, "points.txt", settings.TestFile)
	assert.Equal(t, "out.txt", settings.EstimatesFile)
	assert.Equal(t, 6, settings.Precision)
	assert.Equal(t, 2, settings.Workers)
	assert.Equal(t, "fail", settings.ZeroWeightPolicy)
	assert.Equal(t, 9100, settings.MetricsPort)
}

func TestParseFlags_KeepsConfiguredValues(t *testing.T) {
	settings := cfg.Defaults()
	settings.Models = []string{"configured.json"}
	settings.TestFile = "configured.txt"
	settings.Precision = 9

	opts, err := parseFlags(nil, &settings)
	require.NoError(t, err)

	assert.False(t, opts.verbose)
	assert.Equal(t, []string{"configured.json"}, settings.Models)
	assert.Equal(t, "configured.txt", settings.TestFile)
	assert.Equal(t, 9, settings.Precision)
}

func TestParseFlags_Errors(t *testing.T) {
	settings := cfg.Defaults()

	_, err := parseFlags([]string{"-m", "a.json", "extra"}, &settings)
	assert.ErrorContains(t, err, "unexpected arguments")

	_, err = parseFlags([]string{"-workers", "many"}, &settings)
	assert.Error(t, err)

	_, err = parseFlags([]string{"-h"}, &settings)
	assert.True(t, errors.Is(err, flag.ErrHelp))
}

func TestSetupLogging(t *testing.T) {
	prev := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })

	tests := []struct {
		level   string
		verbose bool
		want    zerolog.Level
	}{
		{"warn", false, zerolog.WarnLevel},
		{"warn", true, zerolog.InfoLevel},
		{"debug", true, zerolog.DebugLevel},
		{"error", false, zerolog.ErrorLevel},
		{"", false, zerolog.WarnLevel},
		{"bogus", false, zerolog.WarnLevel},
	}

	for _, tt := range tests {
		setupLogging(tt.level, tt.verbose)
		assert.Equal(t, tt.want, zerolog.GlobalLevel(), "level=%q verbose=%v", tt.level, tt.verbose)
	}
}
