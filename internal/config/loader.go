package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies PERPFEED_* environment variable overrides, and
// returns the final Config. A missing file is not an error, so a deployment
// can be configured from the environment alone. The returned Config has NOT
// been validated; the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known PERPFEED_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Flash ──
	setStr(&cfg.Flash.BaseURL, "PERPFEED_FLASH_BASE_URL")
	setStr(&cfg.Flash.V3BaseURL, "PERPFEED_FLASH_V3_BASE_URL")
	setDuration(&cfg.Flash.Upstream.Timeout, "PERPFEED_FLASH_TIMEOUT")
	setFloat64(&cfg.Flash.Upstream.RequestsPerSecond, "PERPFEED_FLASH_REQUESTS_PER_SECOND")

	// ── Jupiter ──
	setStr(&cfg.Jupiter.BaseURL, "PERPFEED_JUPITER_BASE_URL")
	setDuration(&cfg.Jupiter.Upstream.Timeout, "PERPFEED_JUPITER_TIMEOUT")
	setFloat64(&cfg.Jupiter.Upstream.RequestsPerSecond, "PERPFEED_JUPITER_REQUESTS_PER_SECOND")

	// ── Postgres ──
	setBool(&cfg.Postgres.Enabled, "PERPFEED_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "PERPFEED_POSTGRES_DSN")
	setStr(&cfg.Postgres.DSN, "DATABASE_URL") // platform alias
	setStr(&cfg.Postgres.Host, "PERPFEED_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "PERPFEED_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "PERPFEED_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "PERPFEED_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "PERPFEED_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "PERPFEED_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "PERPFEED_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "PERPFEED_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "PERPFEED_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "PERPFEED_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "PERPFEED_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "PERPFEED_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "PERPFEED_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "PERPFEED_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "PERPFEED_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "PERPFEED_REDIS_TLS_ENABLED")
	setStr(&cfg.Redis.KeyPrefix, "PERPFEED_REDIS_KEY_PREFIX")
	setDuration(&cfg.Redis.CacheTTL, "PERPFEED_REDIS_CACHE_TTL")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "PERPFEED_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "PERPFEED_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "PERPFEED_S3_REGION")
	setStr(&cfg.S3.Bucket, "PERPFEED_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "PERPFEED_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "PERPFEED_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "PERPFEED_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "PERPFEED_S3_FORCE_PATH_STYLE")

	// ── Sync ──
	setStringSlice(&cfg.Sync.Wallets, "PERPFEED_SYNC_WALLETS")
	setDuration(&cfg.Sync.Interval, "PERPFEED_SYNC_INTERVAL")
	setInt(&cfg.Sync.Concurrency, "PERPFEED_SYNC_CONCURRENCY")
	setDuration(&cfg.Sync.LockTTL, "PERPFEED_SYNC_LOCK_TTL")
	setInt(&cfg.Sync.ArchiveRetentionDays, "PERPFEED_SYNC_ARCHIVE_RETENTION_DAYS")
	setStr(&cfg.Sync.ArchiveCron, "PERPFEED_SYNC_ARCHIVE_CRON")

	// ── Server ──
	setInt(&cfg.Server.Port, "PERPFEED_SERVER_PORT")
	setInt(&cfg.Server.Port, "PORT") // platform alias
	setStringSlice(&cfg.Server.CORSOrigins, "PERPFEED_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "PERPFEED_SERVER_API_KEY")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "PERPFEED_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "PERPFEED_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "PERPFEED_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "PERPFEED_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "PERPFEED_MODE")
	setStr(&cfg.LogLevel, "PERPFEED_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
