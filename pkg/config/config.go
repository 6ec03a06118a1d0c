package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	// Log configuration
	Log LogConfig `mapstructure:"log"`

	// Corpus loading configuration
	Corpus CorpusConfig `mapstructure:"corpus"`

	// Split configuration
	Split SplitConfig `mapstructure:"split"`

	// Training configuration
	Training TrainingConfig `mapstructure:"training"`

	// Embedding configuration
	Embedding EmbeddingConfig `mapstructure:"embedding"`

	// Telemetry configuration
	Telemetry TelemetryConfig `mapstructure:"telemetry"`

	// CircuitBreaker configuration
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CorpusConfig controls how labeled pairs referencing unknown documents are handled
type CorpusConfig struct {
	UnknownPairs string `mapstructure:"unknown_pairs"` // reject, skip
}

// SplitConfig holds train/test split configuration
type SplitConfig struct {
	TrainRatio float64 `mapstructure:"train_ratio"`
}

// TrainingConfig holds training loop configuration
type TrainingConfig struct {
	Iterations       int    `mapstructure:"iterations"`
	OnDegenerate     string `mapstructure:"on_degenerate"` // keep, abort
	CalibrationSteps int    `mapstructure:"calibration_steps"`
	HistoryPath      string `mapstructure:"history_path"`
}

// EmbeddingConfig holds embedding provider configuration
type EmbeddingConfig struct {
	Provider string `mapstructure:"provider"` // dbow, openai

	// Remote provider settings
	Model      string `mapstructure:"model"`
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"`
	Dimensions int    `mapstructure:"dimensions"`
	BatchSize  int    `mapstructure:"batch_size"`

	RequestsPerSecond float64 `mapstructure:"requests_per_second"`

	// Native provider settings
	DBOW DBOWConfig `mapstructure:"dbow"`
}

// DBOWConfig holds hyperparameters for the native distributed bag-of-words model
type DBOWConfig struct {
	VectorSize  int     `mapstructure:"vector_size" json:"vector_size"`
	Negative    int     `mapstructure:"negative" json:"negative"`
	Alpha       float64 `mapstructure:"alpha" json:"alpha"`
	MinAlpha    float64 `mapstructure:"min_alpha" json:"min_alpha"`
	MinCount    int     `mapstructure:"min_count" json:"min_count"`
	InferEpochs int     `mapstructure:"infer_epochs" json:"infer_epochs"`
	Workers     int     `mapstructure:"workers" json:"-"`
	Seed        int64   `mapstructure:"seed" json:"seed"`
}

// TelemetryConfig holds telemetry configuration
type TelemetryConfig struct {
	ParquetPath string `mapstructure:"parquet_path"`
	SQLitePath  string `mapstructure:"sqlite_path"`
}

// CircuitBreakerConfig holds configuration for circuit breaking
type CircuitBreakerConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	MaxRequests      uint32  `mapstructure:"max_requests"`
	Interval         int     `mapstructure:"interval"` // in seconds
	Timeout          int     `mapstructure:"timeout"`  // in seconds
	ReadyToTripRatio float64 `mapstructure:"ready_to_trip_ratio"`
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	// Set defaults
	setDefaults()

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Override with environment variables if present
	overrideWithEnv(config)

	return config, nil
}

// DefaultDBOWConfig returns the native model defaults: 256 dimensions, 5
// negative samples, and a learning rate decaying from 0.025 to 0.0001.
func DefaultDBOWConfig() DBOWConfig {
	return DBOWConfig{
		VectorSize:  256,
		Negative:    5,
		Alpha:       0.025,
		MinAlpha:    0.0001,
		MinCount:    1,
		InferEpochs: 10,
		Seed:        1,
	}
}

// setDefaults sets default configuration values
func setDefaults() {
	// Log defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")

	viper.SetDefault("corpus.unknown_pairs", "reject")

	viper.SetDefault("split.train_ratio", 0.8)

	// Training defaults
	viper.SetDefault("training.iterations", 1)
	viper.SetDefault("training.on_degenerate", "keep")
	viper.SetDefault("training.calibration_steps", 100)

	// Embedding defaults
	dbow := DefaultDBOWConfig()
	viper.SetDefault("embedding.provider", "dbow")
	viper.SetDefault("embedding.model", "text-embedding-3-small")
	viper.SetDefault("embedding.batch_size", 100)
	viper.SetDefault("embedding.requests_per_second", 0)
	viper.SetDefault("embedding.dbow.vector_size", dbow.VectorSize)
	viper.SetDefault("embedding.dbow.negative", dbow.Negative)
	viper.SetDefault("embedding.dbow.alpha", dbow.Alpha)
	viper.SetDefault("embedding.dbow.min_alpha", dbow.MinAlpha)
	viper.SetDefault("embedding.dbow.min_count", dbow.MinCount)
	viper.SetDefault("embedding.dbow.infer_epochs", dbow.InferEpochs)
	viper.SetDefault("embedding.dbow.seed", dbow.Seed)

	// Circuit breaker defaults
	viper.SetDefault("circuit_breaker.enabled", true)
	viper.SetDefault("circuit_breaker.max_requests", 1)
	viper.SetDefault("circuit_breaker.interval", 60)
	viper.SetDefault("circuit_breaker.timeout", 30)
	viper.SetDefault("circuit_breaker.ready_to_trip_ratio", 0.6)
}

// overrideWithEnv overrides config with environment variables
func overrideWithEnv(config *Config) {
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" && config.Embedding.APIKey == "" {
		config.Embedding.APIKey = apiKey
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" && config.Embedding.BaseURL == "" {
		config.Embedding.BaseURL = baseURL
	}
	if provider := os.Getenv("DOCSIM_PROVIDER"); provider != "" {
		config.Embedding.Provider = provider
	}
	if workers := os.Getenv("DOCSIM_WORKERS"); workers != "" {
		if n, err := strconv.Atoi(workers); err == nil && n > 0 {
			config.Embedding.DBOW.Workers = n
		}
	}

	// Telemetry settings
	if path := os.Getenv("TELEMETRY_PARQUET_PATH"); path != "" {
		config.Telemetry.ParquetPath = path
	}
	if path := os.Getenv("TELEMETRY_SQLITE_PATH"); path != "" {
		config.Telemetry.SQLitePath = path
	}
}
