package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/perpfeed/internal/domain"
)

// TradeCache implements domain.TradeCache by storing JSON-encoded trade
// pages under "tradepage:{key}".
type TradeCache struct {
	c *Client
}

// NewTradeCache creates a TradeCache backed by the given Client.
func NewTradeCache(c *Client) *TradeCache {
	return &TradeCache{c: c}
}

// Get returns the cached page for key, or domain.ErrNotFound on a miss.
func (tc *TradeCache) Get(ctx context.Context, key string) (domain.NormalizedTradesResponse, error) {
	data, err := tc.c.rdb.Get(ctx, tc.c.key("tradepage", key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.NormalizedTradesResponse{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.NormalizedTradesResponse{}, fmt.Errorf("redis: get trade page %s: %w", key, err)
	}

	var resp domain.NormalizedTradesResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return domain.NormalizedTradesResponse{}, fmt.Errorf("redis: decode trade page %s: %w", key, err)
	}
	return resp, nil
}

// Set stores resp for ttl.
func (tc *TradeCache) Set(ctx context.Context, key string, resp domain.NormalizedTradesResponse, ttl time.Duration) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("redis: encode trade page %s: %w", key, err)
	}
	if err := tc.c.rdb.Set(ctx, tc.c.key("tradepage", key), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set trade page %s: %w", key, err)
	}
	return nil
}

var _ domain.TradeCache = (*TradeCache)(nil)
