package common

// Environment variable keys
const (
	EnvConfigFile        = "CONFIG_FILE"
	EnvEnvFile           = "ENV_FILE"
	EnvModels            = "DET_MODELS"
	EnvTestFile          = "DET_TEST_FILE"
	EnvEstimatesFile     = "DET_ESTIMATES_FILE"
	EnvWorkers           = "DET_WORKERS"
	EnvMinParallelModels = "DET_MIN_PARALLEL_MODELS"
	EnvPrecision         = "DET_PRECISION"
	EnvZeroWeightPolicy  = "DET_ZERO_WEIGHT_POLICY"
	EnvLogLevel          = "DET_LOG_LEVEL"
	EnvMetricsPort       = "DET_METRICS_PORT"
	EnvHTTPTimeout       = "DET_HTTP_TIMEOUT"
	EnvHTTPRetries       = "DET_HTTP_RETRIES"
	EnvHTTPRetryWait     = "DET_HTTP_RETRY_WAIT"
)

// Configuration defaults
const (
	DefaultEnvFile           = ".env"
	DefaultMinParallelModels = 8
	DefaultPrecision         = -1 // shortest round-trip
	DefaultZeroWeightPolicy  = "nan"
	DefaultLogLevel          = "warn"
	DefaultMetricsPort       = 0 // disabled
	DefaultHTTPRetries       = 3
)

// Validation constants
const (
	MaxWorkers     = 4096
	MaxPrecision   = 17
	MinMetricsPort = 1024
	MaxMetricsPort = 65535
	MaxHTTPRetries = 10
)
