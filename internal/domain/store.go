package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// TradeStore persists normalized trades keyed by wallet.
type TradeStore interface {
	// UpsertBatch inserts trades that are not yet stored and returns the IDs
	// that were newly written.
	UpsertBatch(ctx context.Context, wallet string, trades []NormalizedTrade) ([]string, error)
	ListByWallet(ctx context.Context, wallet string, opts ListOpts) ([]NormalizedTrade, error)
	ListBefore(ctx context.Context, wallet string, before time.Time) ([]NormalizedTrade, error)
	CountByWallet(ctx context.Context, wallet string) (int64, error)
	LatestTimestamp(ctx context.Context, wallet string) (time.Time, error)
}

// AuditEntry is a single audit log row.
type AuditEntry struct {
	ID        int64
	Event     string
	Detail    map[string]any
	CreatedAt time.Time
}

// AuditStore persists an append-only audit log.
type AuditStore interface {
	Log(ctx context.Context, event string, detail map[string]any) error
	List(ctx context.Context, opts ListOpts) ([]AuditEntry, error)
}
