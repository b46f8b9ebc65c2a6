package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	defaultPort                 = 9000
	defaultStoreCacheSizeBytes  = 64 * 1024 * 1024
	defaultLoginRateLimitPerMin = 15
	defaultDebounceDelay        = 800 * time.Millisecond
	defaultBackupSchedule       = "@daily"
	defaultSessionsCleanupSpec  = "@every 8h"
	defaultRemoteSyncSpec       = "@every 1m"
	defaultMaxRequestBodyBytes  = 16 * 1024 * 1024
)

type Config struct {
	Environment string `toml:"environment"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// redis holds sessions, rate limits and the local copy of all records
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`

	// postgres is the remote sync backend, used only when RemoteSyncEnabled
	RemoteSyncEnabled bool   `toml:"remote_sync_enabled"`
	PostgresHost      string `toml:"postgres_host"`
	PostgresPort      string `toml:"postgres_port"`
	PostgresDBName    string `toml:"postgres_db_name"`

	// store read cache, 0 disables it
	StoreCacheSizeBytes int `toml:"store_cache_size_bytes"`
	StoreCacheTTLSec    int `toml:"store_cache_ttl_sec"`

	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`

	LoginRateLimitAllowedPerMin int      `toml:"login_rate_limit_allowed_per_min"`
	AllowedOrigins              []string `toml:"allowed_origins"`
	// bcrypt cost of stored password hashes, 0 uses the default
	PasswordHashCost int `toml:"password_hash_cost"`
	// request bodies above this are rejected, the largest one is an import document
	MaxRequestBodyBytes int64 `toml:"max_request_body_bytes"`

	DebounceDelay duration `toml:"debounce_delay"`

	// jobs
	BackupDir               string `toml:"backup_dir"`
	BackupSchedule          string `toml:"backup_schedule"`
	BackupKeep              int    `toml:"backup_keep"` // 0 keeps all
	SessionsCleanupSchedule string `toml:"sessions_cleanup_schedule"`
	// pushes records written while postgres was unreachable
	RemoteSyncSchedule string `toml:"remote_sync_schedule"`

	// optional YAML file with the initial weekly program
	ProgramSeedPath string `toml:"program_seed_path"`
}

// duration lets TOML carry values like "800ms" or "2s".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parse duration [%s]: %w", text, err)
	}
	d.Duration = parsed
	return nil
}

func (c *Config) DebounceDuration() time.Duration {
	return c.DebounceDelay.Duration
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development", "ddev", "dockerdev":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}

	if cfg == nil {
		return nil, fmt.Errorf("config for env [%s] missing", env)
	}
	if cfg.Environment == "" {
		cfg.Environment = strings.ToLower(env)
	}
	cfg.applyDefaults()

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.LoginRateLimitAllowedPerMin == 0 {
		c.LoginRateLimitAllowedPerMin = defaultLoginRateLimitPerMin
	}
	if c.DebounceDelay.Duration == 0 {
		c.DebounceDelay.Duration = defaultDebounceDelay
	}
	if c.BackupSchedule == "" {
		c.BackupSchedule = defaultBackupSchedule
	}
	if c.SessionsCleanupSchedule == "" {
		c.SessionsCleanupSchedule = defaultSessionsCleanupSpec
	}
	if c.RemoteSyncSchedule == "" {
		c.RemoteSyncSchedule = defaultRemoteSyncSpec
	}
	if c.MaxRequestBodyBytes <= 0 {
		c.MaxRequestBodyBytes = defaultMaxRequestBodyBytes
	}
	if c.StoreCacheSizeBytes < 0 {
		c.StoreCacheSizeBytes = 0
	}
}

// Load reads the TOML file at path and returns the config for the given env.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file [%s]: %w", path, err)
	}
	return t.Get(env)
}

// Parse is like Load but reads the TOML document from a string.
func Parse(env, data string) (*Config, error) {
	var t Toml
	if _, err := toml.Decode(data, &t); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return t.Get(env)
}

// Default returns a development config with all defaults applied.
func Default() *Config {
	cfg := &Config{
		Environment:           "development",
		Host:                  "localhost",
		LogLevel:              "debug",
		RedisHost:             "localhost",
		RedisPort:             "6379",
		PrometheusMetricsHost: "localhost",
		PrometheusMetricsPort: "9001",
		StoreCacheSizeBytes:   defaultStoreCacheSizeBytes,
		StoreCacheTTLSec:      60,
	}
	cfg.applyDefaults()
	return cfg
}
