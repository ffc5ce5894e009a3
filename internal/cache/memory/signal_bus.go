package memory

import (
	"context"
	"path"
	"sync"

	"github.com/alanyoungcy/perpfeed/internal/domain"
)

// streamMaxLen caps each in-memory stream.
const streamMaxLen = 10000

// SignalBus implements domain.SignalBus inside one process. Subscriptions
// accept the same glob patterns as Redis PSUBSCRIBE. Slow subscribers miss
// messages rather than block publishers.
type SignalBus struct {
	mu      sync.RWMutex
	subs    map[*subscription]struct{}
	streams map[string][][]byte
}

type subscription struct {
	pattern string
	ch      chan []byte
}

// NewSignalBus creates an empty SignalBus.
func NewSignalBus() *SignalBus {
	return &SignalBus{
		subs:    make(map[*subscription]struct{}),
		streams: make(map[string][][]byte),
	}
}

// Publish delivers payload to every subscription whose pattern matches.
func (b *SignalBus) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for s := range b.subs {
		if ok, _ := path.Match(s.pattern, channel); !ok {
			continue
		}
		select {
		case s.ch <- payload:
		default:
		}
	}
	return nil
}

// Subscribe listens on channel or pattern until ctx is cancelled, at which
// point the returned channel is closed.
func (b *SignalBus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	if _, err := path.Match(channel, ""); err != nil {
		return nil, err
	}
	s := &subscription{pattern: channel, ch: make(chan []byte, 128)}

	b.mu.Lock()
	b.subs[s] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, s)
		close(s.ch)
		b.mu.Unlock()
	}()
	return s.ch, nil
}

// StreamAppend records payload on stream, dropping the oldest entries past
// the cap.
func (b *SignalBus) StreamAppend(_ context.Context, stream string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	entries := append(b.streams[stream], payload)
	if len(entries) > streamMaxLen {
		entries = entries[len(entries)-streamMaxLen:]
	}
	b.streams[stream] = entries
	return nil
}

// StreamLen reports how many entries stream holds.
func (b *SignalBus) StreamLen(stream string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.streams[stream])
}

var _ domain.SignalBus = (*SignalBus)(nil)
