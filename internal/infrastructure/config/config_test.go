package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "8081", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout.Duration)

	assert.Equal(t, "http://localhost:8081", cfg.Probe.SelfBaseURL)
	assert.Equal(t, "http://localhost:8081", cfg.Probe.TestServiceURL)
	assert.False(t, cfg.Probe.Test0UseFeign)

	assert.Equal(t, 8, cfg.Executor.PoolSize)
	assert.Equal(t, "GTX-", cfg.Executor.NamePrefix)
	assert.True(t, cfg.Executor.PropagateContext)

	assert.Equal(t, 10*time.Second, cfg.Scheduler.Test0FixedDelay.Duration)
	assert.Zero(t, cfg.Scheduler.Test0InitialDelay.Duration)

	assert.Equal(t, 5, cfg.Messaging.ListenerConcurrency)
	assert.Equal(t, "test-queue1", cfg.Messaging.PrimaryQueue)
	assert.Equal(t, "test-queue2", cfg.Messaging.SecondaryQueue)

	assert.Equal(t, "sleuth", cfg.Tracing.ServiceName)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.RateLimit.Enabled)
}

func TestLoadOrDefault(t *testing.T) {
	cfg := LoadOrDefault()

	assert.NotNil(t, cfg)
	assert.Equal(t, "8081", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"PORT":                       "9000",
		"HOST":                       "127.0.0.1",
		"SHUTDOWN_TIMEOUT":           "3s",
		"SELF_BASE_URL":              "http://probe:9000",
		"TEST0_USE_FEIGN":            "true",
		"CLIENT_RETRY_COUNT":         "2",
		"CLIENT_RATE_LIMIT":          "2.5",
		"EXECUTOR_POOL_SIZE":         "3",
		"EXECUTOR_PROPAGATE_CONTEXT": "false",
		"TEST0_FIXED_DELAY":          "250ms",
		"LISTENER_CONCURRENCY":       "1",
		"QUEUE_PRIMARY":              "q1",
		"LOG_LEVEL":                  "debug",
		"RATE_LIMIT_ENABLED":         "true",
		"RATE_LIMIT_GLOBAL":          "true",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Address())
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout.Duration)
	assert.Equal(t, "http://probe:9000", cfg.Probe.SelfBaseURL)
	assert.True(t, cfg.Probe.Test0UseFeign)
	assert.Equal(t, 2, cfg.Client.RetryCount)
	assert.InDelta(t, 2.5, cfg.Client.RateLimit, 0.001)
	assert.Equal(t, 3, cfg.Executor.PoolSize)
	assert.False(t, cfg.Executor.PropagateContext)
	assert.Equal(t, 250*time.Millisecond, cfg.Scheduler.Test0FixedDelay.Duration)
	assert.Equal(t, 1, cfg.Messaging.ListenerConcurrency)
	assert.Equal(t, "q1", cfg.Messaging.PrimaryQueue)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.True(t, cfg.RateLimit.Global)

	// untouched values keep their defaults
	assert.Equal(t, "test-queue2", cfg.Messaging.SecondaryQueue)
	assert.Equal(t, 100, cfg.Executor.QueueCapacity)
}

func TestLoadWithInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad int", "EXECUTOR_POOL_SIZE", "many"},
		{"bad bool", "LOG_DEV", "maybe"},
		{"bad duration", "CLIENT_TIMEOUT", "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)

			cfg := LoadOrDefault()
			assert.Equal(t, Default(), cfg)
		})
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFileYAML(t *testing.T) {
	path := writeFile(t, "probe.yaml", `
server:
  port: "9100"
scheduler:
  test0_fixed_delay: 2s
messaging:
  listener_concurrency: 2
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 2*time.Second, cfg.Scheduler.Test0FixedDelay.Duration)
	assert.Equal(t, 2, cfg.Messaging.ListenerConcurrency)
	assert.Equal(t, "test-queue1", cfg.Messaging.PrimaryQueue)
}

func TestLoadFileTOML(t *testing.T) {
	path := writeFile(t, "probe.toml", `
[client]
timeout = "1500ms"
retry_count = 3

[tracing]
service_name = "probe"
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 1500*time.Millisecond, cfg.Client.Timeout.Duration)
	assert.Equal(t, 3, cfg.Client.RetryCount)
	assert.Equal(t, "probe", cfg.Tracing.ServiceName)
	assert.Equal(t, 1000, cfg.Tracing.Buffer)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeFile(t, "probe.yml", "server:\n  port: \"9100\"\n  host: \"10.0.0.1\"\n")
	t.Setenv(FileEnv, path)
	t.Setenv("PORT", "9200")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9200", cfg.Server.Port)
	assert.Equal(t, "10.0.0.1", cfg.Server.Host)
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile(writeFile(t, "probe.json", "{}"))
	assert.ErrorContains(t, err, "unsupported config file extension")

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadFile(writeFile(t, "broken.toml", "[client\ntimeout ="))
	assert.Error(t, err)
}
