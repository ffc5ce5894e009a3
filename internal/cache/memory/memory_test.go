package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/perpfeed/internal/domain"
)

func TestLockManager(t *testing.T) {
	lm := NewLockManager()
	ctx := context.Background()

	unlock, err := lm.Acquire(ctx, "sync:a", time.Minute)
	require.NoError(t, err)

	_, err = lm.Acquire(ctx, "sync:a", time.Minute)
	assert.ErrorIs(t, err, domain.ErrLockHeld)

	_, err = lm.Acquire(ctx, "sync:b", time.Minute)
	assert.NoError(t, err)

	unlock()
	unlock()
	_, err = lm.Acquire(ctx, "sync:a", time.Minute)
	assert.NoError(t, err)
}

func TestLockManagerExpires(t *testing.T) {
	lm := NewLockManager()
	ctx := context.Background()

	stale, err := lm.Acquire(ctx, "k", 10*time.Millisecond)
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)

	_, err = lm.Acquire(ctx, "k", time.Minute)
	require.NoError(t, err)

	// The expired holder must not release the new holder's lock.
	stale()
	_, err = lm.Acquire(ctx, "k", time.Minute)
	assert.ErrorIs(t, err, domain.ErrLockHeld)
}

func TestSignalBusPatterns(t *testing.T) {
	bus := NewSignalBus()
	ctx, cancel := context.WithCancel(context.Background())

	all, err := bus.Subscribe(ctx, "trades:*")
	require.NoError(t, err)
	one, err := bus.Subscribe(ctx, "trades:a")
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, "trades:b", []byte("b")))
	require.NoError(t, bus.Publish(ctx, "trades:a", []byte("a")))
	require.NoError(t, bus.Publish(ctx, "other", []byte("x")))

	assert.Equal(t, []byte("b"), <-all)
	assert.Equal(t, []byte("a"), <-all)
	assert.Equal(t, []byte("a"), <-one)

	cancel()
	assert.Eventually(t, func() bool {
		_, open := <-all
		return !open
	}, time.Second, 5*time.Millisecond)
}

func TestSignalBusStreamCap(t *testing.T) {
	bus := NewSignalBus()
	for range streamMaxLen + 5 {
		require.NoError(t, bus.StreamAppend(context.Background(), "trades", []byte("x")))
	}
	assert.Equal(t, streamMaxLen, bus.StreamLen("trades"))
}
