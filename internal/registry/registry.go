package registry

import (
	"fmt"

	"wallet_dashboard/internal/domain/entity"
)

// defaultNetworks is the compiled-in chain table. Order here fixes the
// ordering of the final asset list, so keep it stable.
var defaultNetworks = []entity.Network{
	{ChainID: "0x1", Name: "Ethereum", NativeSymbol: "ETH", CoinGeckoID: "ethereum", PlatformID: "ethereum"},
	{ChainID: "0xaa36a7", Name: "Sepolia", NativeSymbol: "SEPOLIAETH", CoinGeckoID: "ethereum"},
	{ChainID: "0xa4b1", Name: "Arbitrum", NativeSymbol: "ETH", CoinGeckoID: "ethereum", PlatformID: "arbitrum-one"},
	{ChainID: "0xa", Name: "Optimism", NativeSymbol: "ETH", CoinGeckoID: "ethereum", PlatformID: "optimistic-ethereum"},
	{ChainID: "0x2105", Name: "Base", NativeSymbol: "ETH", CoinGeckoID: "ethereum", PlatformID: "base"},
	{ChainID: "0x89", Name: "Polygon", NativeSymbol: "POL", CoinGeckoID: "matic-network", PlatformID: "polygon-pos"},
	{ChainID: "0x38", Name: "BNB Chain", NativeSymbol: "BNB", CoinGeckoID: "binancecoin", PlatformID: "binance-smart-chain"},
	{ChainID: "0xa86a", Name: "Avalanche", NativeSymbol: "AVAX", CoinGeckoID: "avalanche-2", PlatformID: "avalanche"},
	{ChainID: "0xfa", Name: "Fantom", NativeSymbol: "FTM", CoinGeckoID: "fantom", PlatformID: "fantom"},
}

// ChainRegistry is a read-only lookup table of supported networks.
type ChainRegistry struct {
	networks []entity.Network
	byID     map[string]entity.Network
}

// NewDefault builds a registry from the compiled-in chain table.
func NewDefault() *ChainRegistry {
	r, err := New(defaultNetworks)
	if err != nil {
		// The compiled-in table is validated by tests; a broken default
		// table is a programming error.
		panic(err)
	}
	return r
}

// New builds a registry from an explicit network list, e.g. one loaded
// from configuration. Duplicate or incomplete entries are rejected.
func New(networks []entity.Network) (*ChainRegistry, error) {
	if len(networks) == 0 {
		return nil, fmt.Errorf("registry: no networks configured")
	}
	byID := make(map[string]entity.Network, len(networks))
	for _, n := range networks {
		if n.ChainID == "" || n.Name == "" || n.NativeSymbol == "" {
			return nil, fmt.Errorf("registry: incomplete network definition %+v", n)
		}
		if _, dup := byID[n.ChainID]; dup {
			return nil, fmt.Errorf("registry: duplicate chain id %s", n.ChainID)
		}
		byID[n.ChainID] = n
	}
	cp := make([]entity.Network, len(networks))
	copy(cp, networks)
	return &ChainRegistry{networks: cp, byID: byID}, nil
}

// Lookup returns the network for a hex chain id.
func (r *ChainRegistry) Lookup(chainID string) (entity.Network, bool) {
	n, ok := r.byID[chainID]
	return n, ok
}

// All returns the networks in their configured order. Callers must not
// mutate the returned slice.
func (r *ChainRegistry) All() []entity.Network {
	return r.networks
}

// ChainIDs returns the hex chain ids in configured order.
func (r *ChainRegistry) ChainIDs() []string {
	ids := make([]string, len(r.networks))
	for i, n := range r.networks {
		ids[i] = n.ChainID
	}
	return ids
}
