// Package adapter turns raw exchange pages into normalized trade pages.
package adapter

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/alanyoungcy/perpfeed/internal/domain"
)

// DefaultPageSize is used when a caller does not ask for a limit.
const DefaultPageSize = 100

// FetchOptions is a pagination window. Zero means "not set".
type FetchOptions struct {
	Limit  int
	Offset int
}

// Adapter is implemented by each supported exchange.
type Adapter interface {
	Name() domain.Exchange
	// FetchTrades returns one normalized page. Transport and validation
	// failures are returned to the caller.
	FetchTrades(ctx context.Context, address string, opts FetchOptions) (domain.NormalizedTradesResponse, error)
	// CheckAvailability reports whether the wallet has any history on the
	// exchange. Failures report false.
	CheckAvailability(ctx context.Context, address string) bool
	MarketName(id string) string
	SupportsPagination() bool
}

// logFailure logs err unless the caller cancelled the request.
func logFailure(logger *slog.Logger, msg, address string, err error) {
	if domain.IsCancelled(err) {
		return
	}
	logger.Error(msg,
		slog.String("address", address),
		slog.String("error", err.Error()),
	)
}

// parseFloat parses a nullable numeric string, defaulting to 0.
func parseFloat(s *string) float64 {
	if s == nil || *s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(*s, 64)
	if err != nil {
		return 0
	}
	return f
}

// parseLeadingInt reads the leading integer of s, ignoring any trailing
// non-digit characters. Strings without a leading integer yield 0.
func parseLeadingInt(s string) int64 {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	start := i
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		i++
	}
	digits := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == digits {
		return 0
	}
	n, err := strconv.ParseInt(s[start:i], 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// secondsCutoff separates epoch seconds from epoch milliseconds: 1e12 ms is
// September 2001, while 1e12 s is tens of millennia away.
const secondsCutoff = 1_000_000_000_000

// epochMillis returns v in milliseconds, scaling values that are epoch
// seconds. Zero and negative values are returned unchanged.
func epochMillis(v int64) int64 {
	if v > 0 && v < secondsCutoff {
		return v * 1000
	}
	return v
}

func strPtr(s string) *string { return &s }
