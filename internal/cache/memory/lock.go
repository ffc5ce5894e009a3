package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/alanyoungcy/perpfeed/internal/domain"
)

// LockManager implements domain.LockManager for a single process. Locks
// expire after their TTL like the Redis implementation.
type LockManager struct {
	mu    sync.Mutex
	locks *cache.Cache
}

// NewLockManager creates an empty LockManager.
func NewLockManager() *LockManager {
	return &LockManager{locks: cache.New(cache.NoExpiration, time.Minute)}
}

// Acquire takes key for ttl. It returns domain.ErrLockHeld while another
// holder owns it.
func (lm *LockManager) Acquire(_ context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.NewString()
	lm.mu.Lock()
	// Add fails while an unexpired item exists.
	err := lm.locks.Add(key, token, ttl)
	lm.mu.Unlock()
	if err != nil {
		return nil, domain.ErrLockHeld
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			lm.mu.Lock()
			defer lm.mu.Unlock()
			if cur, ok := lm.locks.Get(key); ok && cur == token {
				lm.locks.Delete(key)
			}
		})
	}, nil
}

var _ domain.LockManager = (*LockManager)(nil)
