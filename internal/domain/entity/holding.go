package entity

import "math/big"

// RawHolding is one token balance as reported by the balance provider
// for a single network, normalized at the client boundary. Transient;
// produced per request and discarded after aggregation.
type RawHolding struct {
	ChainID string
	// TokenAddress is empty for the network's native asset.
	TokenAddress string
	Symbol       string
	Name         string
	// RawBalance is the balance in the token's smallest unit. big.Int is
	// required because balances routinely exceed the float64 mantissa.
	RawBalance *big.Int
	Decimals   uint8
	// PossibleSpam carries the provider's airdrop-spam heuristic.
	PossibleSpam bool
}

// IsNative reports whether the holding is the chain's gas token.
func (h RawHolding) IsNative() bool {
	return h.TokenAddress == "" || h.TokenAddress == ZeroAddress
}

// FetchOutcome is the tagged result of a single per-network balance
// fetch. The aggregation layer's absorb-failure policy branches on Err
// explicitly instead of relying on a recover.
type FetchOutcome struct {
	Network  Network
	Holdings []RawHolding
	Err      error
}
