package entity

import (
	"strings"
	"time"
)

// PriceTier identifies which resolution strategy produced a quote.
type PriceTier int

const (
	// TierNone means no strategy resolved a price; the quote is zero.
	TierNone PriceTier = iota
	// TierSymbol means the quote came from a symbol-based id lookup.
	TierSymbol
	// TierContract means the quote came from a per-contract lookup.
	TierContract
)

// String returns the tier name for logging.
func (t PriceTier) String() string {
	switch t {
	case TierSymbol:
		return "symbol"
	case TierContract:
		return "contract"
	default:
		return "none"
	}
}

// PriceKey identifies one asset needing a price within a snapshot.
// Symbol is upper-cased and TokenAddress lower-cased on construction
// so the key is stable across provider casing differences.
type PriceKey struct {
	Symbol       string
	TokenAddress string
	ChainID      string
}

// PriceRequest asks the resolver for a quote for one asset.
type PriceRequest struct {
	Symbol       string
	TokenAddress string
	ChainID      string
}

// Key returns the canonical cache/lookup key for the request.
func (r PriceRequest) Key() PriceKey {
	return PriceKey{
		Symbol:       strings.ToUpper(r.Symbol),
		TokenAddress: strings.ToLower(r.TokenAddress),
		ChainID:      r.ChainID,
	}
}

// PriceQuote is a resolved USD unit price with its trailing-24h change.
type PriceQuote struct {
	USDPrice        float64
	USD24hChangePct float64
	Tier            PriceTier
	FetchedAt       time.Time
}

// MarketPrice is the normalized per-id price figure returned by the
// price-provider client for both resolution tiers.
type MarketPrice struct {
	USD          float64
	USD24hChange float64
}

