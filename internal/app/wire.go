package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/alanyoungcy/perpfeed/internal/adapter"
	"github.com/alanyoungcy/perpfeed/internal/aggregator"
	s3blob "github.com/alanyoungcy/perpfeed/internal/blob/s3"
	"github.com/alanyoungcy/perpfeed/internal/cache/memory"
	"github.com/alanyoungcy/perpfeed/internal/cache/redis"
	"github.com/alanyoungcy/perpfeed/internal/config"
	"github.com/alanyoungcy/perpfeed/internal/domain"
	"github.com/alanyoungcy/perpfeed/internal/market"
	"github.com/alanyoungcy/perpfeed/internal/notify"
	"github.com/alanyoungcy/perpfeed/internal/platform/flash"
	"github.com/alanyoungcy/perpfeed/internal/platform/httpx"
	"github.com/alanyoungcy/perpfeed/internal/platform/jupiter"
	"github.com/alanyoungcy/perpfeed/internal/server/handler"
	"github.com/alanyoungcy/perpfeed/internal/store/postgres"
)

// Dependencies bundles everything the modes need. It is constructed by Wire
// and torn down by the returned cleanup function.
type Dependencies struct {
	// Exchanges
	FlashClient    *flash.Client
	JupiterClient  *jupiter.Client
	FlashAdapter   *adapter.Flash
	JupiterAdapter *adapter.Jupiter
	Registry       *adapter.Registry
	Aggregator     *aggregator.Aggregator

	// Stores, nil without postgres
	TradeStore domain.TradeStore
	AuditStore domain.AuditStore

	// Caches. Without redis everything but TradeCache falls back to an
	// in-process implementation.
	TradeCache  domain.TradeCache
	RateLimiter domain.RateLimiter
	LockManager domain.LockManager
	SignalBus   domain.SignalBus

	// Availability probe results
	ProbeCache *cache.Cache

	// Blob storage, nil without s3
	BlobReader domain.BlobReader
	Archiver   domain.Archiver

	Notifier *notify.Notifier

	// HealthChecks are reported by GET /api/health.
	HealthChecks map[string]handler.Pinger
}

// marketTable supplies the market reference table resolved at startup.
var marketTable = market.Default

func upstream(ex domain.Exchange, u config.UpstreamConfig) httpx.Config {
	return httpx.Config{
		Exchange:          ex,
		Timeout:           u.Timeout.Duration,
		RequestsPerSecond: u.RequestsPerSecond,
		Burst:             u.Burst,
		BreakerFailures:   u.BreakerFailures,
		BreakerCooldown:   u.BreakerCooldown.Duration,
	}
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{HealthChecks: make(map[string]handler.Pinger)}

	// --- Exchanges ---
	markets := marketTable()
	if err := markets.Validate(); err != nil {
		return nil, nil, fmt.Errorf("wire: %w", err)
	}
	deps.FlashClient = flash.NewClient(cfg.Flash.BaseURL, cfg.Flash.V3BaseURL,
		httpx.New(upstream(domain.ExchangeFlash, cfg.Flash.Upstream)))
	deps.JupiterClient = jupiter.NewClient(cfg.Jupiter.BaseURL,
		httpx.New(upstream(domain.ExchangeJupiter, cfg.Jupiter.Upstream)))
	deps.FlashAdapter = adapter.NewFlash(deps.FlashClient, markets, logger)
	deps.JupiterAdapter = adapter.NewJupiter(deps.JupiterClient, markets, logger)
	deps.Registry = adapter.NewRegistry(deps.FlashAdapter, deps.JupiterAdapter)
	deps.Aggregator = aggregator.New(logger, deps.FlashAdapter, deps.JupiterAdapter)
	deps.ProbeCache = cache.New(time.Minute, 2*time.Minute)

	// --- PostgreSQL ---
	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		pool := pgClient.Pool()
		deps.TradeStore = postgres.NewTradeStore(pool)
		deps.AuditStore = postgres.NewAuditStore(pool)
		deps.HealthChecks["postgres"] = pool.Ping
	}

	// --- Redis ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
			KeyPrefix:  cfg.Redis.KeyPrefix,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.TradeCache = redis.NewTradeCache(redisClient)
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
		deps.LockManager = redis.NewLockManager(redisClient)
		deps.SignalBus = redis.NewSignalBus(redisClient)
		deps.HealthChecks["redis"] = redisClient.Ping
	} else {
		logger.InfoContext(ctx, "wire: redis disabled, using in-process limiter, locks and bus")
		deps.RateLimiter = memory.NewRateLimiter(10 * time.Minute)
		deps.LockManager = memory.NewLockManager()
		deps.SignalBus = memory.NewSignalBus()
	}

	// --- S3 blob storage ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}

		writer := s3blob.NewWriter(s3Client)
		reader := s3blob.NewReader(s3Client)
		deps.BlobReader = reader
		deps.HealthChecks["s3"] = s3Client.Health
		// Snapshots are cut from stored trades.
		if deps.TradeStore != nil && deps.AuditStore != nil {
			deps.Archiver = s3blob.NewArchiver(writer, reader, deps.TradeStore, deps.AuditStore)
		}
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
