package entity

// Network holds the static description of a supported blockchain network.
// Instances are defined once at process start and never mutated.
type Network struct {
	// ChainID is the hex-encoded chain id, e.g. "0x1" for Ethereum mainnet.
	ChainID string `json:"chainId" yaml:"chainId"`
	// Name is the human-readable network name shown to clients.
	Name string `json:"name" yaml:"name"`
	// NativeSymbol is the ticker of the chain's gas token.
	NativeSymbol string `json:"nativeSymbol" yaml:"nativeSymbol"`
	// CoinGeckoID is the price-provider coin id used for symbol-tier
	// lookups of the native asset, e.g. "ethereum".
	CoinGeckoID string `json:"coinGeckoId" yaml:"coinGeckoId"`
	// PlatformID is the price-provider asset-platform slug used for
	// contract-tier lookups. Empty when the provider does not index
	// contracts on this chain (testnets).
	PlatformID string `json:"platformId,omitempty" yaml:"platformId,omitempty"`
}

// ZeroAddress represents the Ethereum zero address.
const ZeroAddress = "0x0000000000000000000000000000000000000000"
