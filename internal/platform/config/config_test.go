package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoad_DefaultValues only exercises defaults(); no YAML files exist in
// the package directory.
func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "quotesync", cfg.App.Name)
	assert.Equal(t, "dev", cfg.App.Version)
	assert.Equal(t, "local", cfg.App.Environment)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "https://jsonplaceholder.typicode.com", cfg.Services.Posts.BaseURL)
	assert.Equal(t, "posts", cfg.Services.Posts.Name)

	require.NoError(t, cfg.Validate())
}

func TestLoad_SyncDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.True(t, cfg.Sync.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Sync.Interval)
	assert.Equal(t, DefaultSyncBatchSize, cfg.Sync.BatchSize)
	assert.Equal(t, "Server", cfg.Sync.Category)
	assert.True(t, cfg.Sync.RunOnStart)
	assert.True(t, cfg.Sync.PublishOnAdd)
	assert.Equal(t, 10*time.Second, cfg.Sync.CycleTimeout)
}

func TestLoad_StorageAndImportDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultStoragePath, cfg.Storage.Path)
	assert.True(t, cfg.Storage.Seed)
	assert.Equal(t, 5*time.Second, cfg.Storage.BusyTimeout)
	assert.Equal(t, "append", cfg.Import.DuplicatePolicy)
}

func TestLoad_EnvVarOverrides(t *testing.T) {
	t.Setenv("APP_SERVER_PORT", "9090")
	t.Setenv("APP_LOG_LEVEL", "warn")
	t.Setenv("APP_SYNC__BATCH_SIZE", "3")
	t.Setenv("APP_SYNC__INTERVAL", "1m")
	t.Setenv("APP_IMPORT__DUPLICATE_POLICY", "skip")
	t.Setenv("APP_STORAGE_PATH", ":memory:")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 3, cfg.Sync.BatchSize)
	assert.Equal(t, time.Minute, cfg.Sync.Interval)
	assert.Equal(t, "skip", cfg.Import.DuplicatePolicy)
	assert.Equal(t, ":memory:", cfg.Storage.Path)
}

func TestLoad_BoolEnvVar(t *testing.T) {
	t.Setenv("APP_SYNC_ENABLED", "false")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.False(t, cfg.Sync.Enabled)
}

func TestLoad_NonExistentProfile(t *testing.T) {
	cfg, err := Load("nonexistent")
	require.NoError(t, err)

	assert.Equal(t, "quotesync", cfg.App.Name)
}

func TestLoad_ClientDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.Client.Timeout)
	assert.Equal(t, DefaultClientRetryMaxAttempts, cfg.Client.Retry.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.Client.Retry.InitialInterval)
	assert.Equal(t, DefaultClientCircuitMaxFailures, cfg.Client.CircuitBreaker.MaxFailures)
	assert.Equal(t, DefaultTransportIdleConnTimeout, cfg.Client.Transport.IdleConnTimeout)
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"APP_SERVER_PORT":              "server.port",
		"APP_SYNC__RUN_ON_START":       "sync.run_on_start",
		"APP_LOG__FILE__MAX_BACKUPS":   "log.file.max_backups",
		"APP_SERVICES__POSTS__BASE_URL": "services.posts.base_url",
	}

	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, envKey(in))
		})
	}
}
