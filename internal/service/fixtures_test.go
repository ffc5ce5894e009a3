package service

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/perpfeed/internal/adapter"
	"github.com/alanyoungcy/perpfeed/internal/domain"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func trade(ex domain.Exchange, id string, ts int64, a domain.TradeAction) domain.NormalizedTrade {
	return domain.NormalizedTrade{ID: id, Exchange: ex, Timestamp: ts, Market: "SOL", Side: domain.SideLong, Action: a, Price: "$1.00", Fee: "0", TxID: id}
}

// stubAdapter serves a fixed set of trades.
type stubAdapter struct {
	name      domain.Exchange
	trades    []domain.NormalizedTrade
	err       error
	available bool

	mu    sync.Mutex
	calls int
}

func (s *stubAdapter) Name() domain.Exchange { return s.name }

func (s *stubAdapter) FetchTrades(context.Context, string, adapter.FetchOptions) (domain.NormalizedTradesResponse, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return domain.NormalizedTradesResponse{}, s.err
	}
	return domain.NormalizedTradesResponse{Trades: s.trades, TotalCount: len(s.trades), Page: 1, PageSize: len(s.trades)}, nil
}

func (s *stubAdapter) CheckAvailability(context.Context, string) bool {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.available
}

func (s *stubAdapter) MarketName(id string) string { return id }
func (s *stubAdapter) SupportsPagination() bool    { return true }

func (s *stubAdapter) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type memCache struct {
	mu    sync.Mutex
	pages map[string]domain.NormalizedTradesResponse
	ttls  map[string]time.Duration
}

func newMemCache() *memCache {
	return &memCache{pages: map[string]domain.NormalizedTradesResponse{}, ttls: map[string]time.Duration{}}
}

func (c *memCache) Get(_ context.Context, key string) (domain.NormalizedTradesResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pages[key]
	if !ok {
		return domain.NormalizedTradesResponse{}, domain.ErrNotFound
	}
	return p, nil
}

func (c *memCache) Set(_ context.Context, key string, resp domain.NormalizedTradesResponse, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages[key] = resp
	c.ttls[key] = ttl
	return nil
}

// memStore keeps trades per wallet keyed by exchange and id.
type memStore struct {
	mu     sync.Mutex
	trades map[string][]domain.NormalizedTrade
	err    error
}

func newMemStore() *memStore { return &memStore{trades: map[string][]domain.NormalizedTrade{}} }

func (m *memStore) UpsertBatch(_ context.Context, wallet string, trades []domain.NormalizedTrade) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	seen := map[string]bool{}
	for _, t := range m.trades[wallet] {
		seen[string(t.Exchange)+"/"+t.ID] = true
	}
	var ids []string
	for _, t := range trades {
		k := string(t.Exchange) + "/" + t.ID
		if seen[k] {
			continue
		}
		seen[k] = true
		m.trades[wallet] = append(m.trades[wallet], t)
		ids = append(ids, t.ID)
	}
	return ids, nil
}

func (m *memStore) ListByWallet(_ context.Context, wallet string, opts domain.ListOpts) ([]domain.NormalizedTrade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.trades[wallet]
	start := min(opts.Offset, len(all))
	end := len(all)
	if opts.Limit > 0 {
		end = min(start+opts.Limit, len(all))
	}
	return append([]domain.NormalizedTrade{}, all[start:end]...), nil
}

func (m *memStore) ListBefore(context.Context, string, time.Time) ([]domain.NormalizedTrade, error) {
	return nil, nil
}

func (m *memStore) CountByWallet(_ context.Context, wallet string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.trades[wallet])), nil
}

func (m *memStore) LatestTimestamp(context.Context, string) (time.Time, error) {
	return time.Time{}, nil
}

type memLocks struct {
	mu   sync.Mutex
	held map[string]bool
}

func (l *memLocks) Acquire(_ context.Context, key string, _ time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held == nil {
		l.held = map[string]bool{}
	}
	if l.held[key] {
		return nil, domain.ErrLockHeld
	}
	l.held[key] = true
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, key)
	}, nil
}

type published struct {
	channel string
	payload []byte
}

type memBus struct {
	mu       sync.Mutex
	messages []published
	stream   [][]byte
}

func (b *memBus) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, published{channel, payload})
	return nil
}

func (b *memBus) Subscribe(context.Context, string) (<-chan []byte, error) {
	return make(chan []byte), nil
}

func (b *memBus) StreamAppend(_ context.Context, _ string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stream = append(b.stream, payload)
	return nil
}

type memAudit struct {
	mu     sync.Mutex
	events []string
}

func (a *memAudit) Log(_ context.Context, event string, _ map[string]any) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, event)
	return nil
}

func (a *memAudit) List(context.Context, domain.ListOpts) ([]domain.AuditEntry, error) {
	return nil, nil
}

type sentNote struct{ event, title string }

type memNotifier struct {
	mu   sync.Mutex
	sent []sentNote
}

func (n *memNotifier) Notify(_ context.Context, event, title, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNote{event, title})
	return nil
}
