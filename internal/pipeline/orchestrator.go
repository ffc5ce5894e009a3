// Package pipeline runs the background jobs: periodic wallet sync and the
// cold-storage archiver.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Syncer syncs every configured wallet once.
type Syncer interface {
	SyncAll(ctx context.Context) error
}

// Orchestrator runs the sync loop and, when configured, the archiver.
type Orchestrator struct {
	syncer      Syncer
	archiver    *Archiver
	interval    time.Duration
	archiveCron string
	trigger     <-chan struct{}
	logger      *slog.Logger
}

// NewOrchestrator creates an Orchestrator. archiver may be nil.
func NewOrchestrator(syncer Syncer, archiver *Archiver, interval time.Duration, archiveCron string, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		syncer:      syncer,
		archiver:    archiver,
		interval:    interval,
		archiveCron: archiveCron,
		logger:      logger.With(slog.String("component", "pipeline")),
	}
}

// WithTrigger makes every receive on ch run an extra sync outside the
// regular interval.
func (o *Orchestrator) WithTrigger(ch <-chan struct{}) *Orchestrator {
	o.trigger = ch
	return o
}

// Run blocks until ctx is cancelled or a job fails for a reason other than
// cancellation.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.logger.InfoContext(ctx, "pipeline starting",
		slog.Duration("sync_interval", o.interval),
		slog.String("archive_cron", o.archiveCron),
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := o.syncLoop(ctx)
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("sync loop: %w", err)
	})

	if o.archiver != nil && o.archiveCron != "" {
		g.Go(func() error {
			err := o.archiver.RunCron(ctx, o.archiveCron)
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("archiver: %w", err)
		})
	}

	if err := g.Wait(); err != nil {
		o.logger.Error("pipeline stopped with error", slog.String("error", err.Error()))
		return err
	}
	o.logger.Info("pipeline stopped")
	return nil
}

// syncLoop syncs immediately, then on every tick and every trigger.
func (o *Orchestrator) syncLoop(ctx context.Context) error {
	if err := o.syncer.SyncAll(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-o.trigger:
			o.logger.InfoContext(ctx, "manual sync triggered")
		}
		if err := o.syncer.SyncAll(ctx); err != nil {
			return err
		}
	}
}
