package market

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/perpfeed/internal/domain"
)

func TestDefaultTableIsValid(t *testing.T) {
	tbl := Default()
	require.NoError(t, tbl.Validate())
	assert.Equal(t, 39, tbl.Len())
}

func TestLookup(t *testing.T) {
	tbl := Default()

	info, ok := tbl.Lookup(SOL)
	require.True(t, ok)
	assert.Equal(t, "SOL", info.Name)
	assert.Equal(t, int64(1_000_000_000), info.Denomination)
	assert.Equal(t, int32(-8), info.Exponent)
	assert.False(t, info.IsShort)

	info, ok = tbl.Lookup(BONKShort)
	require.True(t, ok)
	assert.True(t, info.IsShort)
	assert.Equal(t, BONK, info.BaseMarket)
	assert.Equal(t, int32(-10), info.Exponent)

	_, ok = tbl.Lookup("not-a-market")
	assert.False(t, ok)
}

func TestName(t *testing.T) {
	tbl := Default()
	assert.Equal(t, "ETH-SHORT", tbl.Name(ETHShort))
	assert.Equal(t, "raw-id", tbl.Name("raw-id"))
}

func TestShortMarketsLinkToLongBase(t *testing.T) {
	tbl := Default()
	for _, id := range tbl.IDs() {
		info, _ := tbl.Lookup(id)
		if !info.IsShort {
			continue
		}
		base, ok := tbl.Lookup(info.BaseMarket)
		require.True(t, ok, id)
		assert.False(t, base.IsShort, id)
	}
}

func TestValidateRejectsBrokenTables(t *testing.T) {
	tbl := NewTable(map[string]domain.MarketInfo{
		SOLShort: {Name: "SOL-SHORT", Denomination: 1, IsShort: true, BaseMarket: SOL},
		"0OIl":   {Name: "BAD", Denomination: 0},
	})
	err := tbl.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnknownMarket))
	assert.Contains(t, err.Error(), "invalid account")
	assert.Contains(t, err.Error(), "denomination must be positive")
}

func TestNewTableCopiesEntries(t *testing.T) {
	src := map[string]domain.MarketInfo{SOL: {Name: "SOL", Denomination: 1}}
	tbl := NewTable(src)
	src[SOL] = domain.MarketInfo{Name: "changed"}
	assert.Equal(t, "SOL", tbl.Name(SOL))
}

func TestFeeExcluded(t *testing.T) {
	assert.True(t, FeeExcluded(AUD))
	assert.True(t, FeeExcluded(EURO))
	assert.True(t, FeeExcluded(GBP))
	assert.False(t, FeeExcluded(AUDShort))
	assert.False(t, FeeExcluded(SOL))
}
