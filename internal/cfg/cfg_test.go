package cfg

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	clearTestEnv(t)

	settings, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(settings, Defaults()) {
		t.Errorf("expected defaults %+v, got %+v", Defaults(), settings)
	}
	if settings.Precision != -1 {
		t.Errorf("expected default precision -1, got %d", settings.Precision)
	}
	if settings.MetricsPort != 0 {
		t.Errorf("expected metrics server disabled by default, got port %d", settings.MetricsPort)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	clearTestEnv(t)
	t.Setenv("DET_MODELS", "a.json,bolt:models.db#b")
	t.Setenv("DET_TEST_FILE", "points.txt")
	t.Setenv("DET_ESTIMATES_FILE", "estimates.txt")
	t.Setenv("DET_WORKERS", "4")
	t.Setenv("DET_PRECISION", "6")
	t.Setenv("DET_ZERO_WEIGHT_POLICY", "fail")
	t.Setenv("DET_METRICS_PORT", "9090")
	t.Setenv("DET_HTTP_TIMEOUT", "5s")

	settings, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expectedModels := []string{"a.json", "bolt:models.db#b"}
	if !reflect.DeepEqual(settings.Models, expectedModels) {
		t.Errorf("expected models %v, got %v", expectedModels, settings.Models)
	}
	if settings.TestFile != "points.txt" || settings.EstimatesFile != "estimates.txt" {
		t.Errorf("unexpected files: %q %q", settings.TestFile, settings.EstimatesFile)
	}
	if settings.Workers != 4 {
		t.Errorf("expected 4 workers, got %d", settings.Workers)
	}
	if settings.Precision != 6 {
		t.Errorf("expected precision 6, got %d", settings.Precision)
	}
	if settings.ZeroWeightPolicy != "fail" {
		t.Errorf("expected zero weight policy fail, got %s", settings.ZeroWeightPolicy)
	}
	if settings.MetricsPort != 9090 {
		t.Errorf("expected metrics port 9090, got %d", settings.MetricsPort)
	}
	if settings.HTTPTimeout != 5*time.Second {
		t.Errorf("expected HTTP timeout 5s, got %v", settings.HTTPTimeout)
	}
	// Untouched values keep their defaults.
	if settings.HTTPRetries != 3 {
		t.Errorf("expected default HTTP retries 3, got %d", settings.HTTPRetries)
	}
}

func TestLoad_FromYAML(t *testing.T) {
	clearTestEnv(t)

	path := writeConfig(t, `
models:
  - trees/a.json
  - https://models.example.com/b.yaml
testFile: points.txt
workers: 2
minParallelModels: 16
precision: 9
zeroWeightPolicy: fail
logLevel: debug
httpTimeout: 10s
httpRetryWait: 1s
`)
	t.Setenv("CONFIG_FILE", path)

	settings, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(settings.Models) != 2 || settings.Models[1] != "https://models.example.com/b.yaml" {
		t.Errorf("unexpected models %v", settings.Models)
	}
	if settings.TestFile != "points.txt" {
		t.Errorf("expected test file points.txt, got %s", settings.TestFile)
	}
	if settings.Workers != 2 || settings.MinParallelModels != 16 {
		t.Errorf("unexpected pool settings: workers=%d min=%d", settings.Workers, settings.MinParallelModels)
	}
	if settings.Precision != 9 {
		t.Errorf("expected precision 9, got %d", settings.Precision)
	}
	if settings.LogLevel != "debug" {
		t.Errorf("expected log level debug, got %s", settings.LogLevel)
	}
	if settings.HTTPTimeout != 10*time.Second || settings.HTTPRetryWait != time.Second {
		t.Errorf("unexpected HTTP durations: %v %v", settings.HTTPTimeout, settings.HTTPRetryWait)
	}
	// Keys missing from the file keep their defaults.
	if settings.HTTPRetries != 3 {
		t.Errorf("expected default HTTP retries 3, got %d", settings.HTTPRetries)
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	clearTestEnv(t)

	path := writeConfig(t, "workers: 2\nprecision: 9\n")
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("DET_WORKERS", "8")

	settings, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.Workers != 8 {
		t.Errorf("expected env to override YAML workers, got %d", settings.Workers)
	}
	if settings.Precision != 9 {
		t.Errorf("expected YAML precision 9, got %d", settings.Precision)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	clearTestEnv(t)

	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("DET_WORKERS=3\nDET_PRECISION=12\n"), 0o600); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}
	t.Setenv("ENV_FILE", path)
	t.Setenv("DET_PRECISION", "6")

	settings, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.Workers != 3 {
		t.Errorf("expected workers from env file, got %d", settings.Workers)
	}
	if settings.Precision != 6 {
		t.Errorf("expected process environment to win over env file, got %d", settings.Precision)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T)
	}{
		{
			name: "missing explicit env file",
			setup: func(t *testing.T) {
				t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
			},
		},
		{
			name: "missing config file",
			setup: func(t *testing.T) {
				t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
			},
		},
		{
			name: "malformed config file",
			setup: func(t *testing.T) {
				t.Setenv("CONFIG_FILE", writeConfig(t, "workers: [1, 2\n"))
			},
		},
		{
			name: "non-numeric env value",
			setup: func(t *testing.T) {
				t.Setenv("DET_WORKERS", "many")
			},
		},
		{
			name: "validation failure",
			setup: func(t *testing.T) {
				t.Setenv("DET_PRECISION", "40")
			},
		},
		{
			name: "unknown zero weight policy",
			setup: func(t *testing.T) {
				t.Setenv("DET_ZERO_WEIGHT_POLICY", "skip")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearTestEnv(t)
			tt.setup(t)

			if _, err := Load(); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

// clearTestEnv unsets every variable Load reads and restores them after the test.
func clearTestEnv(t *testing.T) {
	envVars := []string{
		"CONFIG_FILE", "ENV_FILE", "DET_MODELS", "DET_TEST_FILE", "DET_ESTIMATES_FILE",
		"DET_WORKERS", "DET_MIN_PARALLEL_MODELS", "DET_PRECISION", "DET_ZERO_WEIGHT_POLICY",
		"DET_LOG_LEVEL", "DET_METRICS_PORT", "DET_HTTP_TIMEOUT", "DET_HTTP_RETRIES",
		"DET_HTTP_RETRY_WAIT",
	}

	for _, env := range envVars {
		t.Setenv(env, "")
		os.Unsetenv(env)
	}
}
