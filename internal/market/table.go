// Package market holds the static Flash market reference table.
package market

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/alanyoungcy/perpfeed/internal/domain"
)

// Table is an immutable mapping from market account to market metadata.
// It is safe for concurrent use.
type Table struct {
	entries map[string]domain.MarketInfo
}

var _ domain.MarketLookup = (*Table)(nil)

// NewTable copies entries into a new Table.
func NewTable(entries map[string]domain.MarketInfo) *Table {
	m := make(map[string]domain.MarketInfo, len(entries))
	for id, info := range entries {
		m[id] = info
	}
	return &Table{entries: m}
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// Default returns the built-in Flash market table.
func Default() *Table {
	defaultOnce.Do(func() {
		defaultTable = NewTable(flashMarkets)
	})
	return defaultTable
}

// Lookup returns the metadata for id. Unknown ids report ok == false.
func (t *Table) Lookup(id string) (domain.MarketInfo, bool) {
	info, ok := t.entries[id]
	return info, ok
}

// Name returns the human-readable symbol for id, or id itself when the
// market is unknown.
func (t *Table) Name(id string) string {
	if info, ok := t.entries[id]; ok {
		return info.Name
	}
	return id
}

// Len returns the number of markets in the table.
func (t *Table) Len() int { return len(t.entries) }

// IDs returns every market id in sorted order.
func (t *Table) IDs() []string {
	ids := make([]string, 0, len(t.entries))
	for id := range t.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Validate checks that every key is a Solana public key, that every entry has
// a positive denomination, and that every short entry links to an existing
// non-short base market.
func (t *Table) Validate() error {
	var errs []error
	for _, id := range t.IDs() {
		info := t.entries[id]
		if _, err := solana.PublicKeyFromBase58(id); err != nil {
			errs = append(errs, fmt.Errorf("market %s: invalid account: %w", id, err))
		}
		if info.Name == "" {
			errs = append(errs, fmt.Errorf("market %s: empty name", id))
		}
		if info.Denomination <= 0 {
			errs = append(errs, fmt.Errorf("market %s: denomination must be positive", id))
		}
		if !info.IsShort {
			continue
		}
		base, ok := t.entries[info.BaseMarket]
		switch {
		case info.BaseMarket == "":
			errs = append(errs, fmt.Errorf("market %s: short market without base", id))
		case !ok:
			errs = append(errs, fmt.Errorf("market %s: base %s: %w", id, info.BaseMarket, domain.ErrUnknownMarket))
		case base.IsShort:
			errs = append(errs, fmt.Errorf("market %s: base %s is itself a short market", id, info.BaseMarket))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("market: invalid table: %w", errors.Join(errs...))
	}
	return nil
}

// FeeExcluded reports whether id is one of the FX markets charged a flat fee.
func FeeExcluded(id string) bool {
	_, ok := feeExcluded[id]
	return ok
}
