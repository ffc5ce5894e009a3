package aggregator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/perpfeed/internal/adapter"
	"github.com/alanyoungcy/perpfeed/internal/domain"
)

type stubAdapter struct {
	name    domain.Exchange
	trades  []domain.NormalizedTrade
	total   int
	err     error
	delay   time.Duration
	calls   atomic.Int32
	gotOpts adapter.FetchOptions
}

func (s *stubAdapter) Name() domain.Exchange { return s.name }

func (s *stubAdapter) FetchTrades(ctx context.Context, _ string, opts adapter.FetchOptions) (domain.NormalizedTradesResponse, error) {
	s.calls.Add(1)
	s.gotOpts = opts
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return domain.NormalizedTradesResponse{}, ctx.Err()
		}
	}
	if s.err != nil {
		return domain.NormalizedTradesResponse{}, s.err
	}
	return domain.NormalizedTradesResponse{Trades: s.trades, TotalCount: s.total}, nil
}

func (s *stubAdapter) CheckAvailability(context.Context, string) bool { return len(s.trades) > 0 }
func (s *stubAdapter) MarketName(id string) string                    { return id }
func (s *stubAdapter) SupportsPagination() bool                       { return true }

type historyStub struct {
	*stubAdapter
}

func (h historyStub) FetchAll(ctx context.Context, address string) (domain.NormalizedTradesResponse, error) {
	return h.FetchTrades(ctx, address, adapter.FetchOptions{Limit: -1})
}

func trade(ex domain.Exchange, id string, ts int64) domain.NormalizedTrade {
	return domain.NormalizedTrade{ID: id, Exchange: ex, Timestamp: ts, Action: domain.OpenAction{}}
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func timestamps(trades []domain.NormalizedTrade) []int64 {
	out := make([]int64, len(trades))
	for i, t := range trades {
		out[i] = t.Timestamp
	}
	return out
}

func TestFetchMergesNewestFirst(t *testing.T) {
	flash := &stubAdapter{name: domain.ExchangeFlash, total: 2, trades: []domain.NormalizedTrade{
		trade(domain.ExchangeFlash, "f1", 100), trade(domain.ExchangeFlash, "f2", 300),
	}}
	jup := &stubAdapter{name: domain.ExchangeJupiter, total: 2, trades: []domain.NormalizedTrade{
		trade(domain.ExchangeJupiter, "j1", 200), trade(domain.ExchangeJupiter, "j2", 400),
	}}
	agg := New(discard(), flash, jup)

	resp, err := agg.Fetch(context.Background(), "wallet", All, 100, 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{400, 300, 200, 100}, timestamps(resp.Trades))
	assert.Equal(t, 4, resp.TotalCount)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 100, resp.PageSize)
	assert.False(t, resp.HasMore)
	assert.Equal(t, adapter.FetchOptions{Limit: 100, Offset: 0}, flash.gotOpts)
}

func TestFetchKeepsAdapterOrderForTies(t *testing.T) {
	flash := &stubAdapter{name: domain.ExchangeFlash, total: 2, trades: []domain.NormalizedTrade{
		trade(domain.ExchangeFlash, "f1", 5), trade(domain.ExchangeFlash, "f2", 5),
	}}
	jup := &stubAdapter{name: domain.ExchangeJupiter, total: 1, trades: []domain.NormalizedTrade{
		trade(domain.ExchangeJupiter, "j1", 5),
	}}
	resp, err := New(discard(), flash, jup).Fetch(context.Background(), "wallet", All, 10, 0)
	require.NoError(t, err)
	ids := []string{resp.Trades[0].ID, resp.Trades[1].ID, resp.Trades[2].ID}
	assert.Equal(t, []string{"f1", "f2", "j1"}, ids)
}

func TestFetchSubstitutesFailedExchange(t *testing.T) {
	flash := &stubAdapter{name: domain.ExchangeFlash, err: errors.New("flash down")}
	jup := &stubAdapter{name: domain.ExchangeJupiter, total: 2, trades: []domain.NormalizedTrade{
		trade(domain.ExchangeJupiter, "j1", 200), trade(domain.ExchangeJupiter, "j2", 400),
	}}

	resp, err := New(discard(), flash, jup).Fetch(context.Background(), "wallet", All, 100, 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{400, 200}, timestamps(resp.Trades))
	assert.Equal(t, 2, resp.TotalCount)
}

func TestFetchPageReportsFailedExchanges(t *testing.T) {
	flash := &stubAdapter{name: domain.ExchangeFlash, total: 1, trades: []domain.NormalizedTrade{
		trade(domain.ExchangeFlash, "f1", 100),
	}}
	jup := &stubAdapter{name: domain.ExchangeJupiter, err: errors.New("jupiter down")}
	agg := New(discard(), flash, jup)

	page, err := agg.FetchPage(context.Background(), "wallet", All, 100, 0)
	require.NoError(t, err)
	assert.True(t, page.Degraded())
	assert.Equal(t, []domain.Exchange{domain.ExchangeJupiter}, page.Failed)
	assert.Len(t, page.Trades, 1)

	jup.err = nil
	page, err = agg.FetchPage(context.Background(), "wallet", All, 100, 0)
	require.NoError(t, err)
	assert.False(t, page.Degraded())
}

func TestFetchAllExchangesFailed(t *testing.T) {
	flashErr := errors.New("flash down")
	jupErr := errors.New("jupiter down")
	flash := &stubAdapter{name: domain.ExchangeFlash, err: flashErr}
	jup := &stubAdapter{name: domain.ExchangeJupiter, err: jupErr}

	_, err := New(discard(), flash, jup).Fetch(context.Background(), "wallet", All, 100, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAllExchangesFailed)
	assert.ErrorIs(t, err, flashErr)
	assert.ErrorIs(t, err, jupErr)
}

func TestFetchHonoursExchangeFlags(t *testing.T) {
	flash := &stubAdapter{name: domain.ExchangeFlash, total: 1, trades: []domain.NormalizedTrade{trade(domain.ExchangeFlash, "f1", 1)}}
	jup := &stubAdapter{name: domain.ExchangeJupiter, total: 1, trades: []domain.NormalizedTrade{trade(domain.ExchangeJupiter, "j1", 2)}}

	resp, err := New(discard(), flash, jup).Fetch(context.Background(), "wallet", Exchanges{Flash: true}, 100, 0)
	require.NoError(t, err)
	assert.Len(t, resp.Trades, 1)
	assert.Equal(t, int32(0), jup.calls.Load())

	resp, err = New(discard(), flash, jup).Fetch(context.Background(), "wallet", Exchanges{}, 100, 0)
	require.NoError(t, err)
	assert.Empty(t, resp.Trades)
	assert.NotNil(t, resp.Trades)
	assert.Zero(t, resp.TotalCount)
}

func TestFetchTruncatesAndPaginates(t *testing.T) {
	flash := &stubAdapter{name: domain.ExchangeFlash, total: 3, trades: []domain.NormalizedTrade{
		trade(domain.ExchangeFlash, "f1", 1), trade(domain.ExchangeFlash, "f2", 2), trade(domain.ExchangeFlash, "f3", 3),
	}}
	jup := &stubAdapter{name: domain.ExchangeJupiter, total: 40, trades: []domain.NormalizedTrade{
		trade(domain.ExchangeJupiter, "j1", 4), trade(domain.ExchangeJupiter, "j2", 5), trade(domain.ExchangeJupiter, "j3", 6),
	}}

	resp, err := New(discard(), flash, jup).Fetch(context.Background(), "wallet", All, 3, 30)
	require.NoError(t, err)
	assert.Equal(t, []int64{6, 5, 4}, timestamps(resp.Trades))
	assert.Equal(t, 43, resp.TotalCount)
	assert.Equal(t, 11, resp.Page)
	assert.Equal(t, 3, resp.PageSize)
	assert.True(t, resp.HasMore)
	assert.Equal(t, adapter.FetchOptions{Limit: 3, Offset: 30}, jup.gotOpts)

	resp, err = New(discard(), flash, jup).Fetch(context.Background(), "wallet", All, 3, 40)
	require.NoError(t, err)
	assert.False(t, resp.HasMore)
}

func TestFetchRunsAdaptersConcurrently(t *testing.T) {
	flash := &stubAdapter{name: domain.ExchangeFlash, delay: 200 * time.Millisecond}
	jup := &stubAdapter{name: domain.ExchangeJupiter, delay: 200 * time.Millisecond}

	start := time.Now()
	_, err := New(discard(), flash, jup).Fetch(context.Background(), "wallet", All, 10, 0)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 380*time.Millisecond)
}

func TestFetchCancelled(t *testing.T) {
	flash := &stubAdapter{name: domain.ExchangeFlash, delay: time.Second}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := New(discard(), flash).Fetch(ctx, "wallet", All, 10, 0)
	assert.True(t, domain.IsCancelled(err))
	assert.NotErrorIs(t, err, domain.ErrAllExchangesFailed)
}

func TestFetchHistoryUsesFullWalk(t *testing.T) {
	flash := &stubAdapter{name: domain.ExchangeFlash, total: 1, trades: []domain.NormalizedTrade{trade(domain.ExchangeFlash, "f1", 1)}}
	jupInner := &stubAdapter{name: domain.ExchangeJupiter, total: 2, trades: []domain.NormalizedTrade{
		trade(domain.ExchangeJupiter, "j1", 3), trade(domain.ExchangeJupiter, "j2", 2),
	}}
	agg := New(discard(), flash, historyStub{jupInner})

	resp, err := agg.FetchHistory(context.Background(), "wallet", All)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 2, 1}, timestamps(resp.Trades))
	assert.Equal(t, 3, resp.TotalCount)
	assert.Equal(t, adapter.FetchOptions{}, flash.gotOpts)
	assert.Equal(t, adapter.FetchOptions{Limit: -1}, jupInner.gotOpts)
}
