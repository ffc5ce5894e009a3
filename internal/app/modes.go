package app

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/perpfeed/internal/aggregator"
	"github.com/alanyoungcy/perpfeed/internal/pipeline"
	"github.com/alanyoungcy/perpfeed/internal/server"
	"github.com/alanyoungcy/perpfeed/internal/server/handler"
	"github.com/alanyoungcy/perpfeed/internal/server/ws"
	"github.com/alanyoungcy/perpfeed/internal/service"
)

// ServerMode serves the HTTP API and the trade websocket.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startHTTPServer(ctx, g, deps, nil)
	return g.Wait()
}

// SyncMode runs the wallet sync and archiver without serving HTTP.
func (a *App) SyncMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting sync mode",
		slog.Int("wallets", len(a.cfg.Sync.Wallets)),
	)

	g, ctx := errgroup.WithContext(ctx)
	orch := a.newOrchestrator(deps)
	g.Go(func() error {
		return orch.Run(ctx)
	})
	return g.Wait()
}

// FullMode runs the server and the sync in one process. POST
// /api/sync/trigger starts an extra sync.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)
	trigger := make(chan struct{}, 1)

	orch := a.newOrchestrator(deps).WithTrigger(trigger)
	g.Go(func() error {
		return orch.Run(ctx)
	})
	a.startHTTPServer(ctx, g, deps, trigger)

	return g.Wait()
}

func (a *App) newOrchestrator(deps *Dependencies) *pipeline.Orchestrator {
	syncSvc := service.NewSyncService(
		deps.Aggregator,
		deps.TradeStore,
		deps.LockManager,
		deps.SignalBus,
		deps.AuditStore,
		deps.Notifier,
		service.SyncConfig{
			Wallets:     a.cfg.Sync.Wallets,
			Exchanges:   aggregator.All,
			LockTTL:     a.cfg.Sync.LockTTL.Duration,
			Concurrency: a.cfg.Sync.Concurrency,
		},
		a.logger,
	)

	var archiver *pipeline.Archiver
	if deps.Archiver != nil {
		archiver = pipeline.NewArchiver(deps.Archiver, a.cfg.Sync.Wallets, a.cfg.Sync.ArchiveRetentionDays, a.logger)
	} else {
		a.logger.Info("archiver disabled (requires s3 and postgres)")
	}

	return pipeline.NewOrchestrator(syncSvc, archiver, a.cfg.Sync.Interval.Duration, a.cfg.Sync.ArchiveCron, a.logger)
}

// startHTTPServer registers the API server and its websocket hub on g and
// shuts the server down when ctx ends. trigger is nil when no sync runs in
// this process.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies, trigger chan<- struct{}) {
	trades := service.NewTradeService(
		deps.Aggregator,
		deps.Registry,
		deps.TradeCache,
		a.cfg.Redis.CacheTTL.Duration,
		deps.TradeStore,
		a.logger,
	)
	raw := service.NewRawService(deps.FlashClient, deps.JupiterClient, deps.FlashAdapter, deps.JupiterAdapter)
	availability := service.NewAvailabilityService(deps.ProbeCache, a.logger, deps.FlashAdapter, deps.JupiterAdapter)

	handlers := server.Handlers{
		Health:   handler.NewHealthHandler(deps.HealthChecks, a.logger),
		Trader:   handler.NewTraderHandler(trades, a.logger),
		Exchange: handler.NewExchangeHandler(raw, a.logger),
		Wallet:   handler.NewWalletHandler(availability),
		Status:   handler.NewStatusHandler(a.cfg.Mode, a.cfg.Sync.Wallets, a.startedAt),
	}
	if deps.BlobReader != nil {
		handlers.Archives = handler.NewArchiveHandler(deps.BlobReader, a.logger)
	}
	if trigger != nil {
		handlers.Sync = handler.NewSyncHandler(trigger, a.logger)
	}

	hub := ws.NewHub(deps.SignalBus, a.logger, ws.Config{
		Mode:      a.cfg.Mode,
		StartedAt: a.startedAt,
	})
	g.Go(func() error {
		if err := hub.Run(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	})

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
	}, handlers, deps.RateLimiter, hub, a.logger)

	g.Go(srv.Start)

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		a.logger.InfoContext(ctx, "HTTP server shutting down")
		return srv.Shutdown(shutCtx)
	})
}
