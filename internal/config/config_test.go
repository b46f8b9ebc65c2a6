package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigToml = `
[development]
host = "localhost"
port = 9000
log_level = "trace"
redis_host = "localhost"
redis_port = "6379"
remote_sync_enabled = true
postgres_host = "localhost"
postgres_port = "5432"
postgres_db_name = "workout_tracker"
store_cache_size_bytes = 1048576
store_cache_ttl_sec = 30
prometheus_metrics_host = "localhost"
prometheus_metrics_port = "9001"
debounce_delay = "250ms"
backup_dir = "/tmp/workout-backups"
allowed_origins = ["http://localhost:5173"]

[production]
host = "0.0.0.0"
port = 8080
log_level = "info"
logs_path = "/var/log/workout-tracker/service"
log_to_stdout = true
sentry_enabled = true
redis_host = "redis"
redis_port = "6379"
login_rate_limit_allowed_per_min = 5
backup_schedule = "0 0 3 * * *"
program_seed_path = "/etc/workout-tracker/program.yaml"
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(testConfigToml), 0o600))

	cfg, err := Load("dev", path)
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.Environment)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "trace", cfg.LogLevel)
	assert.True(t, cfg.RemoteSyncEnabled)
	assert.Equal(t, "workout_tracker", cfg.PostgresDBName)
	assert.Equal(t, 1048576, cfg.StoreCacheSizeBytes)
	assert.Equal(t, 250*time.Millisecond, cfg.DebounceDuration())
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.AllowedOrigins)
	// defaults
	assert.Equal(t, defaultLoginRateLimitPerMin, cfg.LoginRateLimitAllowedPerMin)
	assert.Equal(t, defaultBackupSchedule, cfg.BackupSchedule)
	assert.Equal(t, defaultSessionsCleanupSpec, cfg.SessionsCleanupSchedule)
	assert.Equal(t, defaultRemoteSyncSpec, cfg.RemoteSyncSchedule)
	assert.Equal(t, int64(defaultMaxRequestBodyBytes), cfg.MaxRequestBodyBytes)
	assert.Equal(t, 0, cfg.PasswordHashCost)

	cfg, err = Load("production", path)
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, 8080, cfg.Port)
	assert.True(t, cfg.SentryEnabled)
	assert.False(t, cfg.RemoteSyncEnabled)
	assert.Equal(t, 5, cfg.LoginRateLimitAllowedPerMin)
	assert.Equal(t, "0 0 3 * * *", cfg.BackupSchedule)
	assert.Equal(t, defaultDebounceDelay, cfg.DebounceDuration())
	assert.Equal(t, "/etc/workout-tracker/program.yaml", cfg.ProgramSeedPath)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load("dev", filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)

	_, err = Parse("staging", testConfigToml)
	require.EqualError(t, err, "unknown env: staging")

	_, err = Parse("dev", "[production]\nport = 1\n")
	require.EqualError(t, err, "config for env [dev] missing")

	_, err = Parse("dev", "[development]\ndebounce_delay = \"soon\"\n")
	require.Error(t, err)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, defaultPort, cfg.Port)
	assert.Equal(t, defaultDebounceDelay, cfg.DebounceDuration())
	assert.Equal(t, "6379", cfg.RedisPort)
	assert.Equal(t, defaultStoreCacheSizeBytes, cfg.StoreCacheSizeBytes)
}
