// Package aggregator merges normalized trade pages from several exchanges.
package aggregator

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/perpfeed/internal/adapter"
	"github.com/alanyoungcy/perpfeed/internal/domain"
	"github.com/alanyoungcy/perpfeed/internal/metrics"
)

// Exchanges selects which exchanges take part in a request.
type Exchanges struct {
	Flash   bool
	Jupiter bool
}

// All enables every exchange.
var All = Exchanges{Flash: true, Jupiter: true}

func (e Exchanges) enabled(ex domain.Exchange) bool {
	switch ex {
	case domain.ExchangeFlash:
		return e.Flash
	case domain.ExchangeJupiter:
		return e.Jupiter
	}
	return false
}

// historyFetcher is implemented by adapters that can walk a wallet's full
// history in one call.
type historyFetcher interface {
	FetchAll(ctx context.Context, address string) (domain.NormalizedTradesResponse, error)
}

// Aggregator fans requests out to adapters and merges their results.
type Aggregator struct {
	adapters []adapter.Adapter
	logger   *slog.Logger
}

// New creates an Aggregator. Adapter order decides the relative order of
// trades with equal timestamps.
func New(logger *slog.Logger, adapters ...adapter.Adapter) *Aggregator {
	return &Aggregator{
		adapters: adapters,
		logger:   logger.With(slog.String("component", "aggregator")),
	}
}

// Page is a merged page together with the exchanges that failed while
// building it.
type Page struct {
	domain.NormalizedTradesResponse
	// Failed lists enabled exchanges that contributed nothing because their
	// fetch failed.
	Failed []domain.Exchange
}

// Degraded reports whether some enabled exchange failed.
func (p Page) Degraded() bool { return len(p.Failed) > 0 }

// Fetch returns one merged page. Every enabled adapter is asked for the same
// window concurrently; a failing adapter contributes nothing. The merged
// trades are sorted newest first and truncated to limit from index 0, since
// each adapter has already applied the offset. Only when every enabled
// adapter fails is an error returned.
func (a *Aggregator) Fetch(ctx context.Context, address string, ex Exchanges, limit, offset int) (domain.NormalizedTradesResponse, error) {
	page, err := a.FetchPage(ctx, address, ex, limit, offset)
	if err != nil {
		return domain.NormalizedTradesResponse{}, err
	}
	return page.NormalizedTradesResponse, nil
}

// FetchPage is Fetch that also reports which exchanges failed.
func (a *Aggregator) FetchPage(ctx context.Context, address string, ex Exchanges, limit, offset int) (Page, error) {
	if limit <= 0 {
		limit = adapter.DefaultPageSize
	}
	offset = max(offset, 0)
	opts := adapter.FetchOptions{Limit: limit, Offset: offset}

	res, err := a.gather(ctx, address, ex, func(ctx context.Context, ad adapter.Adapter) (domain.NormalizedTradesResponse, error) {
		return ad.FetchTrades(ctx, address, opts)
	})
	if err != nil {
		return Page{}, err
	}

	trades := res.trades
	if len(trades) > limit {
		trades = trades[:limit]
	}
	return Page{
		NormalizedTradesResponse: domain.NormalizedTradesResponse{
			Trades:     trades,
			TotalCount: res.total,
			Page:       offset/limit + 1,
			PageSize:   limit,
			HasMore:    offset+limit < res.total,
		},
		Failed: res.failed,
	}, nil
}

// FetchHistory returns every trade of the wallet on the enabled exchanges,
// newest first. Adapters that can walk their full history do so.
func (a *Aggregator) FetchHistory(ctx context.Context, address string, ex Exchanges) (domain.NormalizedTradesResponse, error) {
	res, err := a.gather(ctx, address, ex, func(ctx context.Context, ad adapter.Adapter) (domain.NormalizedTradesResponse, error) {
		if hf, ok := ad.(historyFetcher); ok {
			return hf.FetchAll(ctx, address)
		}
		return ad.FetchTrades(ctx, address, adapter.FetchOptions{})
	})
	if err != nil {
		return domain.NormalizedTradesResponse{}, err
	}
	return domain.NormalizedTradesResponse{
		Trades:     res.trades,
		TotalCount: res.total,
		Page:       1,
		PageSize:   len(res.trades),
	}, nil
}

type fetchFunc func(ctx context.Context, ad adapter.Adapter) (domain.NormalizedTradesResponse, error)

type gathered struct {
	trades []domain.NormalizedTrade
	total  int
	failed []domain.Exchange
}

func (a *Aggregator) gather(ctx context.Context, address string, ex Exchanges, fetch fetchFunc) (gathered, error) {
	var active []adapter.Adapter
	for _, ad := range a.adapters {
		if ex.enabled(ad.Name()) {
			active = append(active, ad)
		}
	}

	results := make([]domain.NormalizedTradesResponse, len(active))
	errs := make([]error, len(active))

	// Failures are recorded per adapter rather than returned, so one
	// exchange never cancels another.
	var g errgroup.Group
	for i, ad := range active {
		g.Go(func() error {
			resp, err := fetch(ctx, ad)
			if err != nil {
				errs[i] = err
				return nil
			}
			results[i] = resp
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return gathered{}, err
	}

	var res gathered
	var failed []error
	for i, err := range errs {
		if err == nil {
			continue
		}
		failed = append(failed, err)
		res.failed = append(res.failed, active[i].Name())
		name := string(active[i].Name())
		metrics.AggregateFallbacks.WithLabelValues(name).Inc()
		a.logger.Warn("exchange failed, using empty result",
			slog.String("exchange", name),
			slog.String("address", address),
			slog.String("error", err.Error()),
		)
	}
	if len(active) > 0 && len(failed) == len(active) {
		return gathered{}, errors.Join(append([]error{domain.ErrAllExchangesFailed}, failed...)...)
	}

	res.trades = []domain.NormalizedTrade{}
	for _, r := range results {
		res.trades = append(res.trades, r.Trades...)
		res.total += r.TotalCount
	}
	slices.SortStableFunc(res.trades, func(x, y domain.NormalizedTrade) int {
		return cmp.Compare(y.Timestamp, x.Timestamp)
	})
	return res, nil
}
