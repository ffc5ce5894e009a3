// Package config defines the top-level configuration for perpfeed and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/alanyoungcy/perpfeed/internal/wallet"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by PERPFEED_* environment variables.
type Config struct {
	Flash    FlashConfig    `toml:"flash"`
	Jupiter  JupiterConfig  `toml:"jupiter"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Sync     SyncConfig     `toml:"sync"`
	Server   ServerConfig   `toml:"server"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// UpstreamConfig tunes the HTTP transport towards one exchange.
type UpstreamConfig struct {
	Timeout           duration `toml:"timeout"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
	Burst             int      `toml:"burst"`
	BreakerFailures   uint32   `toml:"breaker_failures"`
	BreakerCooldown   duration `toml:"breaker_cooldown"`
}

// FlashConfig holds the Flash trade history endpoints. The wallet address is
// appended to both URLs.
type FlashConfig struct {
	BaseURL   string         `toml:"base_url"`
	V3BaseURL string         `toml:"v3_base_url"`
	Upstream  UpstreamConfig `toml:"upstream"`
}

// JupiterConfig holds the Jupiter perps API endpoint.
type JupiterConfig struct {
	BaseURL  string         `toml:"base_url"`
	Upstream UpstreamConfig `toml:"upstream"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
	KeyPrefix  string `toml:"key_prefix"`
	// CacheTTL is how long a computed trade page is served from cache.
	CacheTTL duration `toml:"cache_ttl"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// SyncConfig controls the background wallet sync.
type SyncConfig struct {
	Wallets              []string `toml:"wallets"`
	Interval             duration `toml:"interval"`
	Concurrency          int      `toml:"concurrency"`
	LockTTL              duration `toml:"lock_ttl"`
	ArchiveRetentionDays int      `toml:"archive_retention_days"`
	ArchiveCron          string   `toml:"archive_cron"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	upstream := UpstreamConfig{
		Timeout:           duration{15 * time.Second},
		RequestsPerSecond: 5,
		Burst:             10,
		BreakerFailures:   5,
		BreakerCooldown:   duration{30 * time.Second},
	}
	return Config{
		Flash: FlashConfig{Upstream: upstream},
		Jupiter: JupiterConfig{
			BaseURL:  "https://perps-api.jup.ag/v1",
			Upstream: upstream,
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "perpfeed",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			PoolSize:   20,
			MaxRetries: 3,
			KeyPrefix:  "perpfeed:",
			CacheTTL:   duration{5 * time.Minute},
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "perpfeed-archive",
			ForcePathStyle: true,
		},
		Sync: SyncConfig{
			Interval:             duration{5 * time.Minute},
			Concurrency:          4,
			LockTTL:              duration{2 * time.Minute},
			ArchiveRetentionDays: 90,
			ArchiveCron:          "0 3 * * *",
		},
		Server: ServerConfig{
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Notify: NotifyConfig{
			Events: []string{"liquidation", "sync_failed"},
		},
		Mode:     "server",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"server": true,
	"sync":   true,
	"full":   true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// SyncEnabled reports whether the mode runs the background wallet sync.
func (c *Config) SyncEnabled() bool {
	m := strings.ToLower(c.Mode)
	return m == "sync" || m == "full"
}

// ServerEnabled reports whether the mode serves the HTTP API.
func (c *Config) ServerEnabled() bool {
	m := strings.ToLower(c.Mode)
	return m == "server" || m == "full"
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: server, sync, full)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Upstreams
	if c.Flash.BaseURL == "" || c.Flash.V3BaseURL == "" {
		errs = append(errs, "flash: base_url and v3_base_url must both be set")
	}
	if c.Jupiter.BaseURL == "" {
		errs = append(errs, "jupiter: base_url must not be empty")
	}
	errs = append(errs, c.Flash.Upstream.validate("flash")...)
	errs = append(errs, c.Jupiter.Upstream.validate("jupiter")...)

	// Postgres
	if c.Postgres.Enabled {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 || c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must be between 0 and pool_max_conns")
		}
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// S3
	if c.S3.Enabled && c.S3.Bucket == "" {
		errs = append(errs, "s3: bucket must not be empty")
	}

	// Sync
	if c.SyncEnabled() {
		if !c.Postgres.Enabled {
			errs = append(errs, "sync: postgres must be enabled for mode "+c.Mode)
		}
		if len(c.Sync.Wallets) == 0 {
			errs = append(errs, "sync: at least one wallet is required for mode "+c.Mode)
		}
		if c.Sync.Interval.Duration <= 0 {
			errs = append(errs, "sync: interval must be > 0")
		}
		if c.Sync.Concurrency < 1 {
			errs = append(errs, "sync: concurrency must be >= 1")
		}
	}
	for _, w := range c.Sync.Wallets {
		if err := wallet.Validate(w); err != nil {
			errs = append(errs, fmt.Sprintf("sync: wallet %q: %v", w, err))
		}
	}

	// Server
	if c.ServerEnabled() && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func (u UpstreamConfig) validate(name string) []string {
	var errs []string
	if u.Timeout.Duration <= 0 {
		errs = append(errs, name+": upstream.timeout must be > 0")
	}
	if u.RequestsPerSecond > 0 && u.Burst < 1 {
		errs = append(errs, name+": upstream.burst must be >= 1 when requests_per_second is set")
	}
	return errs
}
