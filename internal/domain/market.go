package domain

// MarketInfo is the static metadata of one Flash market, keyed by its on-chain
// market account.
type MarketInfo struct {
	Name string
	// Denomination converts raw integer token amounts to whole units.
	Denomination int64
	// Exponent is the power of ten applied to raw oracle, entry and exit prices.
	Exponent int32
	IsShort  bool
	// BaseMarket links a short market to its long counterpart.
	BaseMarket string
}

// MarketLookup resolves market metadata. Absent markets are reported with
// ok == false and are never an error.
type MarketLookup interface {
	Lookup(id string) (MarketInfo, bool)
}
