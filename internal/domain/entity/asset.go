package entity

// Asset is one normalized portfolio row. Zero-balance ERC-20 holdings
// and spam-flagged tokens are filtered out before construction; native
// assets are always present, zero balance included.
type Asset struct {
	Symbol       string `json:"symbol"`
	Name         string `json:"name"`
	ChainName    string `json:"chain_name"`
	ChainID      string `json:"chainId"`
	TokenAddress string `json:"tokenAddress,omitempty"`
	// Balance is the holding in human units (raw balance / 10^decimals).
	Balance  float64 `json:"balance"`
	PriceUSD float64 `json:"price"`
	// TotalValueUSD is always Balance * PriceUSD.
	TotalValueUSD float64 `json:"totalValue"`
	// Change24hPercent is the signed, 2-decimal provider figure,
	// e.g. "+1.23%" or "0.00%" when unknown.
	Change24hPercent string `json:"change"`
	Logo             string `json:"logo"`
}

// PortfolioSnapshot is the complete point-in-time aggregation result
// for one wallet address. Created fresh on every request, never stored.
type PortfolioSnapshot struct {
	Assets            []Asset `json:"data"`
	TotalValueUSD     float64 `json:"totalBalance"`
	TotalChange24hUSD float64 `json:"totalChangeUSD"`
	TotalChange24hPct float64 `json:"totalChangePercent"`
}

// assetLogos maps well-known tickers to the single-glyph logo the
// dashboard renders; styling stays client-side.
var assetLogos = map[string]string{
	"ETH":        "Ξ",
	"WETH":       "Ξ",
	"SEPOLIAETH": "S",
	"MATIC":      "P",
	"POL":        "P",
	"BNB":        "B",
	"AVAX":       "A",
	"OP":         "O",
	"ARB":        "A",
	"FTM":        "F",
	"USDC":       "$",
	"USDT":       "$",
	"DAI":        "Ð",
}

// LogoForSymbol returns the display glyph for a ticker, falling back to
// its first character.
func LogoForSymbol(symbol string) string {
	if logo, ok := assetLogos[symbol]; ok {
		return logo
	}
	if symbol == "" {
		return "A"
	}
	return symbol[:1]
}
