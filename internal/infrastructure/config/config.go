package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// FileEnv names the environment variable pointing at an optional config file.
const FileEnv = "CONFIG_FILE"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Probe     ProbeConfig     `yaml:"probe" toml:"probe"`
	Client    ClientConfig    `yaml:"client" toml:"client"`
	Executor  ExecutorConfig  `yaml:"executor" toml:"executor"`
	Scheduler SchedulerConfig `yaml:"scheduler" toml:"scheduler"`
	Messaging MessagingConfig `yaml:"messaging" toml:"messaging"`
	Cache     CacheConfig     `yaml:"cache" toml:"cache"`
	Tracing   TracingConfig   `yaml:"tracing" toml:"tracing"`
	Logging   LogConfig       `yaml:"logging" toml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit" toml:"rate_limit"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string   `envconfig:"PORT" yaml:"port" toml:"port"`
	Host            string   `envconfig:"HOST" yaml:"host" toml:"host"`
	ShutdownTimeout Duration `envconfig:"SHUTDOWN_TIMEOUT" yaml:"shutdown_timeout" toml:"shutdown_timeout"`
}

// ProbeConfig holds the targets of the probe's self calls.
type ProbeConfig struct {
	SelfBaseURL    string `envconfig:"SELF_BASE_URL" yaml:"self_base_url" toml:"self_base_url"`
	TestServiceURL string `envconfig:"TEST_SERVICE_URL" yaml:"test_service_url" toml:"test_service_url"`
	Test0UseFeign  bool   `envconfig:"TEST0_USE_FEIGN" yaml:"test0_use_feign" toml:"test0_use_feign"`
}

// ClientConfig holds outbound HTTP client configuration.
type ClientConfig struct {
	Timeout    Duration `envconfig:"CLIENT_TIMEOUT" yaml:"timeout" toml:"timeout"`
	RetryCount int      `envconfig:"CLIENT_RETRY_COUNT" yaml:"retry_count" toml:"retry_count"`
	RateLimit  float64  `envconfig:"CLIENT_RATE_LIMIT" yaml:"rate_limit" toml:"rate_limit"`
	LogFull    bool     `envconfig:"CLIENT_LOG_FULL" yaml:"log_full" toml:"log_full"`
}

// ExecutorConfig holds task executor configuration.
type ExecutorConfig struct {
	PoolSize         int    `envconfig:"EXECUTOR_POOL_SIZE" yaml:"pool_size" toml:"pool_size"`
	QueueCapacity    int    `envconfig:"EXECUTOR_QUEUE_CAPACITY" yaml:"queue_capacity" toml:"queue_capacity"`
	NamePrefix       string `envconfig:"EXECUTOR_NAME_PREFIX" yaml:"name_prefix" toml:"name_prefix"`
	PropagateContext bool   `envconfig:"EXECUTOR_PROPAGATE_CONTEXT" yaml:"propagate_context" toml:"propagate_context"`
}

// SchedulerConfig holds scheduled job configuration.
type SchedulerConfig struct {
	Enabled           bool     `envconfig:"SCHEDULER_ENABLED" yaml:"enabled" toml:"enabled"`
	Test0FixedDelay   Duration `envconfig:"TEST0_FIXED_DELAY" yaml:"test0_fixed_delay" toml:"test0_fixed_delay"`
	Test0InitialDelay Duration `envconfig:"TEST0_INITIAL_DELAY" yaml:"test0_initial_delay" toml:"test0_initial_delay"`
}

// MessagingConfig holds in-process queue configuration.
type MessagingConfig struct {
	QueueBuffer         int    `envconfig:"QUEUE_BUFFER" yaml:"queue_buffer" toml:"queue_buffer"`
	ListenerConcurrency int    `envconfig:"LISTENER_CONCURRENCY" yaml:"listener_concurrency" toml:"listener_concurrency"`
	PrimaryQueue        string `envconfig:"QUEUE_PRIMARY" yaml:"primary_queue" toml:"primary_queue"`
	SecondaryQueue      string `envconfig:"QUEUE_SECONDARY" yaml:"secondary_queue" toml:"secondary_queue"`
}

// CacheConfig holds cache configuration.
type CacheConfig struct {
	Size int `envconfig:"CACHE_SIZE" yaml:"size" toml:"size"`
}

// TracingConfig holds tracer configuration.
type TracingConfig struct {
	ServiceName string `envconfig:"SERVICE_NAME" yaml:"service_name" toml:"service_name"`
	Buffer      int    `envconfig:"TRACE_BUFFER" yaml:"buffer" toml:"buffer"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" yaml:"level" toml:"level"`
	Development bool   `envconfig:"LOG_DEV" yaml:"development" toml:"development"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" yaml:"rps" toml:"rps"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" yaml:"burst" toml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" yaml:"enabled" toml:"enabled"`
	// Global shares one bucket across all callers instead of one per IP.
	Global bool `envconfig:"RATE_LIMIT_GLOBAL" yaml:"global" toml:"global"`
}

// Load layers configuration: defaults, then the optional CONFIG_FILE, then
// environment variables.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv(FileEnv); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault loads configuration or returns defaults on error.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// LoadFile decodes a YAML or TOML file over the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.mergeFile(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	case ".toml":
		err = toml.Unmarshal(data, c)
	default:
		return fmt.Errorf("unsupported config file extension %q", ext)
	}
	if err != nil {
		return fmt.Errorf("failed to decode config file %s: %w", path, err)
	}
	return nil
}

// Address returns host:port for the HTTP listener.
func (s ServerConfig) Address() string {
	return s.Host + ":" + s.Port
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8081",
			Host:            "0.0.0.0",
			ShutdownTimeout: Duration{10 * time.Second},
		},
		Probe: ProbeConfig{
			SelfBaseURL:    "http://localhost:8081",
			TestServiceURL: "http://localhost:8081",
			Test0UseFeign:  false,
		},
		Client: ClientConfig{
			Timeout:    Duration{10 * time.Second},
			RetryCount: 0,
			RateLimit:  0,
			LogFull:    false,
		},
		Executor: ExecutorConfig{
			PoolSize:         8,
			QueueCapacity:    100,
			NamePrefix:       "GTX-",
			PropagateContext: true,
		},
		Scheduler: SchedulerConfig{
			Enabled:         true,
			Test0FixedDelay: Duration{10 * time.Second},
		},
		Messaging: MessagingConfig{
			QueueBuffer:         100,
			ListenerConcurrency: 5,
			PrimaryQueue:        "test-queue1",
			SecondaryQueue:      "test-queue2",
		},
		Cache: CacheConfig{
			Size: 128,
		},
		Tracing: TracingConfig{
			ServiceName: "sleuth",
			Buffer:      1000,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           false,
		},
	}
}
