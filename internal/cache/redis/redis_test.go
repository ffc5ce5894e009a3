package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/perpfeed/internal/domain"
)

// newTestClient connects to the server named by PERPFEED_TEST_REDIS_ADDR and
// skips the test when it is unset.
func newTestClient(t *testing.T) *Client {
	t.Helper()
	addr := os.Getenv("PERPFEED_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("PERPFEED_TEST_REDIS_ADDR not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := New(ctx, ClientConfig{Addr: addr, KeyPrefix: "perpfeed-test:" + uuid.NewString() + ":"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestKey(t *testing.T) {
	c := &Client{prefix: "perpfeed:"}
	assert.Equal(t, "perpfeed:lock:sync:abc", c.key("lock", "sync:abc"))
	assert.Equal(t, "ratelimit:1.2.3.4", (&Client{}).key("ratelimit", "1.2.3.4"))
}

func TestHasPattern(t *testing.T) {
	assert.True(t, hasPattern("trades:*"))
	assert.False(t, hasPattern("trades:wallet"))
}

func TestRateLimiterSlidingWindow(t *testing.T) {
	c := newTestClient(t)
	rl := NewRateLimiter(c)
	ctx := context.Background()

	for i := range 3 {
		d, err := rl.Allow(ctx, "ip", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, 2-i, d.Remaining)
	}
	d, err := rl.Allow(ctx, "ip", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Zero(t, d.Remaining)
	assert.True(t, d.ResetAt.After(time.Now()))

	d, err = rl.Allow(ctx, "other-ip", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestLockManager(t *testing.T) {
	c := newTestClient(t)
	lm := NewLockManager(c)
	ctx := context.Background()

	unlock, err := lm.Acquire(ctx, "sync:wallet", time.Minute)
	require.NoError(t, err)

	_, err = lm.Acquire(ctx, "sync:wallet", time.Minute)
	assert.ErrorIs(t, err, domain.ErrLockHeld)

	unlock()
	unlock()

	again, err := lm.Acquire(ctx, "sync:wallet", time.Minute)
	require.NoError(t, err)
	again()
}

func TestTradeCacheRoundTrip(t *testing.T) {
	c := newTestClient(t)
	tc := NewTradeCache(c)
	ctx := context.Background()

	_, err := tc.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	pnl := 12.5
	resp := domain.NormalizedTradesResponse{
		Trades: []domain.NormalizedTrade{{
			ID: "tx-1", Exchange: domain.ExchangeFlash, Timestamp: 1700000000000,
			Market: "SOL", Side: domain.SideLong, Action: domain.CloseAction{PnL: &pnl},
			Price: "$100.00", Fee: "$0.10", PnL: &pnl, TxID: "tx",
		}},
		TotalCount: 1, Page: 1, PageSize: 100,
	}
	require.NoError(t, tc.Set(ctx, "wallet:100:0", resp, time.Minute))

	got, err := tc.Get(ctx, "wallet:100:0")
	require.NoError(t, err)
	assert.Equal(t, resp, got)
}

func TestSignalBusPublishSubscribe(t *testing.T) {
	c := newTestClient(t)
	sb := NewSignalBus(c)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ch, err := sb.Subscribe(ctx, "trades:*")
	require.NoError(t, err)
	require.NoError(t, sb.Publish(ctx, "trades:wallet", []byte(`{"id":"1"}`)))

	select {
	case msg := <-ch:
		assert.JSONEq(t, `{"id":"1"}`, string(msg))
	case <-ctx.Done():
		t.Fatal("no message received")
	}
	require.NoError(t, sb.StreamAppend(ctx, "trades", []byte("x")))
}
