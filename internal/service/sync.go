package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/perpfeed/internal/aggregator"
	"github.com/alanyoungcy/perpfeed/internal/domain"
	"github.com/alanyoungcy/perpfeed/internal/metrics"
)

// Notification event types.
const (
	EventLiquidation = "liquidation"
	EventSyncFailed  = "sync_failed"
)

// TradeStream is the durable stream every newly synced trade is appended to.
const TradeStream = "trades"

// TradeChannel is the Pub/Sub channel new trades of address are published on.
func TradeChannel(address string) string {
	return "trades:" + address
}

// Notifier delivers operator alerts.
type Notifier interface {
	Notify(ctx context.Context, event, title, message string) error
}

// TradeEvent is the payload published for each newly synced trade.
type TradeEvent struct {
	Wallet string                 `json:"wallet"`
	Trade  domain.NormalizedTrade `json:"trade"`
}

// SyncConfig tunes the wallet sync.
type SyncConfig struct {
	Wallets     []string
	Exchanges   aggregator.Exchanges
	LockTTL     time.Duration
	Concurrency int
}

// SyncResult summarizes one wallet sync.
type SyncResult struct {
	Wallet   string
	Fetched  int
	Inserted int
}

// SyncService copies wallet trade history from the exchanges into the trade
// store and announces trades it has not seen before.
type SyncService struct {
	agg      *aggregator.Aggregator
	store    domain.TradeStore
	locks    domain.LockManager
	bus      domain.SignalBus
	audit    domain.AuditStore
	notifier Notifier
	cfg      SyncConfig
	logger   *slog.Logger
}

// NewSyncService creates a SyncService. notifier may be nil.
func NewSyncService(
	agg *aggregator.Aggregator,
	store domain.TradeStore,
	locks domain.LockManager,
	bus domain.SignalBus,
	audit domain.AuditStore,
	notifier Notifier,
	cfg SyncConfig,
	logger *slog.Logger,
) *SyncService {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 5 * time.Minute
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &SyncService{
		agg:      agg,
		store:    store,
		locks:    locks,
		bus:      bus,
		audit:    audit,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "sync")),
	}
}

// Wallets returns the configured wallet addresses.
func (s *SyncService) Wallets() []string {
	return s.cfg.Wallets
}

// SyncAll syncs every configured wallet. Individual failures are logged and
// do not stop the others; only cancellation is returned.
func (s *SyncService) SyncAll(ctx context.Context) error {
	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for _, w := range s.cfg.Wallets {
		g.Go(func() error {
			res, err := s.SyncWallet(ctx, w)
			switch {
			case err == nil:
				if res.Inserted > 0 {
					s.logger.InfoContext(ctx, "wallet synced",
						slog.String("wallet", w),
						slog.Int("fetched", res.Fetched),
						slog.Int("inserted", res.Inserted),
					)
				}
			case errors.Is(err, domain.ErrLockHeld):
				s.logger.DebugContext(ctx, "wallet sync already running", slog.String("wallet", w))
			case domain.IsCancelled(err):
			default:
				s.logger.ErrorContext(ctx, "wallet sync failed",
					slog.String("wallet", w),
					slog.String("error", err.Error()),
				)
			}
			return nil
		})
	}
	_ = g.Wait()
	return ctx.Err()
}

// SyncWallet fetches the wallet's full history, stores it, and publishes the
// trades that were new. It returns domain.ErrLockHeld when another process is
// syncing the same wallet.
func (s *SyncService) SyncWallet(ctx context.Context, address string) (SyncResult, error) {
	res := SyncResult{Wallet: address}

	unlock, err := s.locks.Acquire(ctx, "sync:"+address, s.cfg.LockTTL)
	if err != nil {
		if errors.Is(err, domain.ErrLockHeld) {
			metrics.SyncRuns.WithLabelValues("skipped").Inc()
		}
		return res, fmt.Errorf("sync: lock %s: %w", address, err)
	}
	defer unlock()

	history, err := s.agg.FetchHistory(ctx, address, s.cfg.Exchanges)
	if err != nil {
		return res, s.fail(ctx, address, "fetch", err)
	}
	res.Fetched = len(history.Trades)

	inserted, err := s.store.UpsertBatch(ctx, address, history.Trades)
	if err != nil {
		return res, s.fail(ctx, address, "store", err)
	}
	res.Inserted = len(inserted)

	fresh := make(map[string]bool, len(inserted))
	for _, id := range inserted {
		fresh[id] = true
	}
	// history is newest first; announce oldest first.
	for i := len(history.Trades) - 1; i >= 0; i-- {
		t := history.Trades[i]
		if !fresh[t.ID] {
			continue
		}
		s.announce(ctx, address, t)
	}

	metrics.SyncRuns.WithLabelValues("ok").Inc()
	metrics.SyncedTrades.Add(float64(res.Inserted))
	if err := s.audit.Log(ctx, "sync", map[string]any{
		"wallet":   address,
		"fetched":  res.Fetched,
		"inserted": res.Inserted,
	}); err != nil {
		s.logger.WarnContext(ctx, "audit log failed", slog.String("error", err.Error()))
	}
	return res, nil
}

func (s *SyncService) announce(ctx context.Context, address string, t domain.NormalizedTrade) {
	payload, err := json.Marshal(TradeEvent{Wallet: address, Trade: t})
	if err != nil {
		s.logger.WarnContext(ctx, "encode trade event failed", slog.String("error", err.Error()))
		return
	}
	if err := s.bus.Publish(ctx, TradeChannel(address), payload); err != nil {
		s.logger.WarnContext(ctx, "publish trade failed",
			slog.String("trade_id", t.ID),
			slog.String("error", err.Error()),
		)
	}
	if err := s.bus.StreamAppend(ctx, TradeStream, payload); err != nil {
		s.logger.WarnContext(ctx, "stream append failed",
			slog.String("trade_id", t.ID),
			slog.String("error", err.Error()),
		)
	}

	if _, ok := t.Action.(domain.LiquidateAction); ok {
		s.notify(ctx, EventLiquidation, "Position liquidated",
			fmt.Sprintf("%s %s %s on %s at %s (size $%.2f)", address, t.Market, t.Side, t.Exchange, t.Price, t.SizeUSD))
	}
}

func (s *SyncService) fail(ctx context.Context, address, stage string, err error) error {
	if domain.IsCancelled(err) {
		return err
	}
	metrics.SyncRuns.WithLabelValues("failed").Inc()
	if auditErr := s.audit.Log(ctx, EventSyncFailed, map[string]any{
		"wallet": address,
		"stage":  stage,
		"error":  err.Error(),
	}); auditErr != nil {
		s.logger.WarnContext(ctx, "audit log failed", slog.String("error", auditErr.Error()))
	}
	s.notify(ctx, EventSyncFailed, "Wallet sync failed", fmt.Sprintf("%s (%s): %v", address, stage, err))
	return fmt.Errorf("sync: %s %s: %w", stage, address, err)
}

func (s *SyncService) notify(ctx context.Context, event, title, message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, event, title, message); err != nil {
		s.logger.WarnContext(ctx, "notify failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}
