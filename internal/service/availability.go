package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/patrickmn/go-cache"

	"github.com/alanyoungcy/perpfeed/internal/adapter"
	"github.com/alanyoungcy/perpfeed/internal/domain"
)

// WalletCheck reports which exchanges hold trade history for a wallet.
type WalletCheck struct {
	HasData            bool              `json:"hasData"`
	AvailableExchanges []domain.Exchange `json:"availableExchanges"`
}

// AvailabilityService probes every exchange for a wallet and remembers the
// answer in process memory.
type AvailabilityService struct {
	adapters []adapter.Adapter
	cache    *cache.Cache
	logger   *slog.Logger
}

// NewAvailabilityService creates an AvailabilityService. Adapter order is the
// order exchanges appear in the result.
func NewAvailabilityService(c *cache.Cache, logger *slog.Logger, adapters ...adapter.Adapter) *AvailabilityService {
	return &AvailabilityService{
		adapters: adapters,
		cache:    c,
		logger:   logger.With(slog.String("component", "availability")),
	}
}

// Check probes all exchanges concurrently. A failing probe counts as "no
// data" for that exchange.
func (s *AvailabilityService) Check(ctx context.Context, address string) WalletCheck {
	if v, ok := s.cache.Get(address); ok {
		return v.(WalletCheck)
	}

	found := make([]bool, len(s.adapters))
	var wg sync.WaitGroup
	for i, a := range s.adapters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			found[i] = a.CheckAvailability(ctx, address)
		}()
	}
	wg.Wait()

	res := WalletCheck{AvailableExchanges: []domain.Exchange{}}
	for i, ok := range found {
		if ok {
			res.AvailableExchanges = append(res.AvailableExchanges, s.adapters[i].Name())
		}
	}
	res.HasData = len(res.AvailableExchanges) > 0

	// A cancelled probe says nothing about the wallet.
	if ctx.Err() == nil {
		s.cache.Set(address, res, cache.DefaultExpiration)
	}
	s.logger.DebugContext(ctx, "wallet checked",
		slog.String("address", address),
		slog.Bool("has_data", res.HasData),
	)
	return res
}
