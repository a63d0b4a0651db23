package cfg

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"det-ensemble/internal/common"
	"det-ensemble/internal/stream"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Settings holds everything a detmulti run needs. Field tags name the YAML keys
// and the environment variables that override them.
type Settings struct {
	Models            []string      `yaml:"models" env:"DET_MODELS" envSeparator:","`
	TestFile          string        `yaml:"testFile" env:"DET_TEST_FILE"`
	EstimatesFile     string        `yaml:"estimatesFile" env:"DET_ESTIMATES_FILE"`
	Workers           int           `yaml:"workers" env:"DET_WORKERS"`
	MinParallelModels int           `yaml:"minParallelModels" env:"DET_MIN_PARALLEL_MODELS"`
	Precision         int           `yaml:"precision" env:"DET_PRECISION"`
	ZeroWeightPolicy  string        `yaml:"zeroWeightPolicy" env:"DET_ZERO_WEIGHT_POLICY"`
	LogLevel          string        `yaml:"logLevel" env:"DET_LOG_LEVEL"`
	MetricsPort       int           `yaml:"metricsPort" env:"DET_METRICS_PORT"`
	HTTPTimeout       time.Duration `yaml:"httpTimeout" env:"DET_HTTP_TIMEOUT"`
	HTTPRetries       int           `yaml:"httpRetries" env:"DET_HTTP_RETRIES"`
	HTTPRetryWait     time.Duration `yaml:"httpRetryWait" env:"DET_HTTP_RETRY_WAIT"`
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		Workers:           0, // runtime.NumCPU()
		MinParallelModels: common.DefaultMinParallelModels,
		Precision:         common.DefaultPrecision,
		ZeroWeightPolicy:  common.DefaultZeroWeightPolicy,
		LogLevel:          common.DefaultLogLevel,
		MetricsPort:       common.DefaultMetricsPort,
		HTTPTimeout:       30 * time.Second,
		HTTPRetries:       common.DefaultHTTPRetries,
		HTTPRetryWait:     500 * time.Millisecond,
	}
}

// Load builds settings from defaults, the YAML file named by CONFIG_FILE, a
// .env file and the process environment, in increasing order of precedence.
func Load() (Settings, error) {
	if err := loadEnvFile(); err != nil {
		return Settings{}, err
	}

	settings := Defaults()

	if configPath := os.Getenv(common.EnvConfigFile); configPath != "" {
		if err := loadFromYAML(configPath, &settings); err != nil {
			return Settings{}, err
		}
	}

	if err := loadFromEnv(&settings); err != nil {
		return Settings{}, err
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

// Validate re-checks settings after callers apply overrides such as flags.
func (s *Settings) Validate() error {
	if err := validateSettings(s); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// loadEnvFile reads ENV_FILE, or ./.env when it exists. Variables already set
// in the environment win over the file.
func loadEnvFile() error {
	path := os.Getenv(common.EnvEnvFile)
	explicit := path != ""
	if !explicit {
		path = common.DefaultEnvFile
	}

	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func loadFromYAML(path string, settings *Settings) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	// Keys absent from the file keep their current values.
	if err := yaml.Unmarshal(data, settings); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func loadFromEnv(settings *Settings) error {
	// Unset variables leave the field alone, so YAML values survive.
	if err := env.Parse(settings); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// validateSettings performs comprehensive validation of configuration values
func validateSettings(settings *Settings) error {
	for i, m := range settings.Models {
		if strings.TrimSpace(m) == "" {
			return fmt.Errorf("model resource %d is empty", i+1)
		}
	}

	if settings.Workers < 0 || settings.Workers > common.MaxWorkers {
		return fmt.Errorf("workers must be between 0 and %d, got %d", common.MaxWorkers, settings.Workers)
	}
	if settings.MinParallelModels < 1 {
		return fmt.Errorf("min parallel models must be at least 1, got %d", settings.MinParallelModels)
	}

	if settings.Precision < -1 || settings.Precision > common.MaxPrecision {
		return fmt.Errorf("precision must be between -1 and %d, got %d", common.MaxPrecision, settings.Precision)
	}
	if _, err := stream.ParseZeroWeightPolicy(settings.ZeroWeightPolicy); err != nil {
		return err
	}
	if _, err := zerolog.ParseLevel(settings.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", settings.LogLevel, err)
	}

	if settings.MetricsPort != 0 &&
		(settings.MetricsPort < common.MinMetricsPort || settings.MetricsPort > common.MaxMetricsPort) {
		return fmt.Errorf("metrics port must be 0 or between %d and %d, got %d",
			common.MinMetricsPort, common.MaxMetricsPort, settings.MetricsPort)
	}

	if settings.HTTPTimeout <= 0 || settings.HTTPTimeout > 10*time.Minute {
		return fmt.Errorf("HTTP timeout must be between 0 and 10m, got %v", settings.HTTPTimeout)
	}
	if settings.HTTPRetries < 0 || settings.HTTPRetries > common.MaxHTTPRetries {
		return fmt.Errorf("HTTP retries must be between 0 and %d, got %d", common.MaxHTTPRetries, settings.HTTPRetries)
	}
	if settings.HTTPRetryWait < 0 {
		return fmt.Errorf("HTTP retry wait cannot be negative, got %v", settings.HTTPRetryWait)
	}

	return nil
}
