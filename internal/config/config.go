package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable read by Load
const EnvPrefix = "BANK"

// Config represents the complete application configuration
type Config struct {
	Segmentation SegmentationConfig `yaml:"segmentation" envconfig:"SEGMENTATION"`
	Generator    GeneratorConfig    `yaml:"generator" envconfig:"GENERATOR"`
	Logging      LoggingConfig      `yaml:"logging" envconfig:"LOGGING"`
	Paths        PathsConfig        `yaml:"paths" envconfig:"PATHS"`
	Server       ServerConfig       `yaml:"server" envconfig:"SERVER"`
	Telemetry    TelemetryConfig    `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// SegmentationConfig contains the clustering parameters consumed by the core
type SegmentationConfig struct {
	K            int    `yaml:"k" envconfig:"K" validate:"min=1"`
	NInit        int    `yaml:"n_init" envconfig:"N_INIT" validate:"min=1"`
	MaxIter      int    `yaml:"max_iter" envconfig:"MAX_ITER" validate:"min=1"`
	RandomSeed   int64  `yaml:"random_seed" envconfig:"RANDOM_SEED"`
	Workers      int    `yaml:"workers" envconfig:"WORKERS" validate:"min=0"`
	OrphanPolicy string `yaml:"orphan_policy" envconfig:"ORPHAN_POLICY" validate:"oneof=reject drop"`
}

// GeneratorConfig contains synthetic dataset parameters
type GeneratorConfig struct {
	NumCustomers    int    `yaml:"num_customers" envconfig:"NUM_CUSTOMERS" validate:"min=1"`
	NumTransactions int    `yaml:"num_transactions" envconfig:"NUM_TRANSACTIONS" validate:"min=0"`
	Seed            int64  `yaml:"seed" envconfig:"SEED"`
	StartDate       string `yaml:"start_date" envconfig:"START_DATE" validate:"datetime=2006-01-02"`
	DaySpan         int    `yaml:"day_span" envconfig:"DAY_SPAN" validate:"min=1"`
	FirstCustomerID int    `yaml:"first_customer_id" envconfig:"FIRST_CUSTOMER_ID" validate:"min=1"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
	RateLimit       float64       `yaml:"rate_limit" envconfig:"RATE_LIMIT" validate:"gte=0"`
	RateBurst       int           `yaml:"rate_burst" envconfig:"RATE_BURST" validate:"gte=0"`
}

// TelemetryConfig contains OpenTelemetry configuration
type TelemetryConfig struct {
	ServiceName     string `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	EnableTracing   bool   `yaml:"enable_tracing" envconfig:"ENABLE_TRACING"`
	TraceExporter   string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	EnableMetrics   bool   `yaml:"enable_metrics" envconfig:"ENABLE_METRICS"`
	MetricsTextfile string `yaml:"metrics_textfile" envconfig:"METRICS_TEXTFILE"`
}

// Load builds the configuration from defaults, an optional YAML file and
// environment variables, in increasing order of precedence.
func Load() (*Config, error) {
	return LoadFrom(getConfigFilePath())
}

// LoadFrom is Load with an explicit config file. An empty path skips the file.
func LoadFrom(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Fields carry no default tags, so unset variables leave file values alone
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays a YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks every section against its struct tags
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return err
	}
	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if explicit := os.Getenv(EnvPrefix + "_CONFIG_FILE"); explicit != "" {
		return explicit
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Segmentation: SegmentationConfig{
			K:            4,
			NInit:        10,
			MaxIter:      300,
			RandomSeed:   42,
			Workers:      0,
			OrphanPolicy: "reject",
		},
		Generator: GeneratorConfig{
			NumCustomers:    1000,
			NumTransactions: 5000,
			Seed:            42,
			StartDate:       "2023-01-01",
			DaySpan:         366,
			FirstCustomerID: 1001,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/app.log",
		},
		Paths: PathsConfig{
			DataDir:    "data",
			ReportsDir: "data/reports",
			LogsDir:    "logs",
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RateLimit:       50,
			RateBurst:       100,
		},
		Telemetry: TelemetryConfig{
			ServiceName:   "bank-segmentation",
			EnableTracing: false,
			TraceExporter: "none",
			EnableMetrics: true,
		},
	}
}
