package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"wallet_dashboard/internal/config"
	"wallet_dashboard/internal/domain/entity"
	"wallet_dashboard/internal/pkg/utils"
	"wallet_dashboard/internal/registry"
	"wallet_dashboard/pkg/metrics"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// dustThresholdUSD is the minimum 24h-ago baseline below which the
	// portfolio change percentage is reported as zero. Percentages
	// computed against a few cents are noise.
	dustThresholdUSD = 0.01
	// denominatorEps guards the implied-baseline division: a 24h change
	// of about -100% would divide by (near) zero.
	denominatorEps = 1e-6
)

// PortfolioService is the top-level aggregation entry point.
type PortfolioService interface {
	// GetPortfolio assembles the full multi-chain snapshot for one
	// wallet address.
	GetPortfolio(ctx context.Context, address string) (*entity.PortfolioSnapshot, error)
}

// portfolioServiceImpl implements PortfolioService.
type portfolioServiceImpl struct {
	balanceSvc    BalanceService
	priceSvc      PriceService
	registry      *registry.ChainRegistry
	logger        *zap.Logger
	fetchTimeout  time.Duration
	maxConcurrent int
	// credentialed records whether the balance-provider key is present.
	// Its absence is a configuration error, distinct from runtime
	// upstream failures.
	credentialed bool
}

// NewPortfolioService creates a new instance of portfolioServiceImpl.
func NewPortfolioService(
	balanceSvc BalanceService,
	priceSvc PriceService,
	reg *registry.ChainRegistry,
	cfg config.PortfolioConfig,
	credentialed bool,
	logger *zap.Logger,
) PortfolioService {
	maxConcurrent := cfg.MaxConcurrentRequests
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &portfolioServiceImpl{
		balanceSvc:    balanceSvc,
		priceSvc:      priceSvc,
		registry:      reg,
		logger:        logger.Named("PortfolioService"),
		fetchTimeout:  time.Duration(cfg.FetchTimeoutMillis) * time.Millisecond,
		maxConcurrent: maxConcurrent,
		credentialed:  credentialed,
	}
}

// GetPortfolio implements PortfolioService.
func (s *portfolioServiceImpl) GetPortfolio(ctx context.Context, address string) (*entity.PortfolioSnapshot, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("%w: %q", entity.ErrInvalidAddress, address)
	}
	if !s.credentialed {
		return nil, entity.ErrMissingAPIKey
	}

	started := time.Now()
	defer func() {
		metrics.SnapshotDuration.Observe(time.Since(started).Seconds())
	}()

	outcomes := s.fetchAllNetworks(ctx, address)

	failed := 0
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			failed++
			s.logger.Warn("Balance fetch failed for network, continuing with empty holdings",
				zap.String("network", outcome.Network.Name),
				zap.String("chainId", outcome.Network.ChainID),
				zap.Error(outcome.Err))
		}
	}
	if failed == len(outcomes) && failed > 0 {
		s.logger.Error("All network balance fetches failed; returning zero-balance snapshot",
			zap.String("address", address), zap.Int("networks", failed))
	}

	assets := s.buildAssets(outcomes)
	s.priceAssets(ctx, assets)
	snapshot := buildSnapshot(assets)

	s.logger.Info("Portfolio snapshot assembled",
		zap.String("address", address),
		zap.Int("assetCount", len(snapshot.Assets)),
		zap.Float64("totalValueUSD", snapshot.TotalValueUSD),
		zap.Int("failedNetworks", failed),
		zap.Duration("elapsed", time.Since(started)))
	return snapshot, nil
}

// fetchAllNetworks fans out one balance fetch per registry network and
// waits for all of them. Results are indexed by registry order so the
// concurrent completion order never leaks into the output.
func (s *portfolioServiceImpl) fetchAllNetworks(ctx context.Context, address string) []entity.FetchOutcome {
	networks := s.registry.All()
	outcomes := make([]entity.FetchOutcome, len(networks))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.maxConcurrent)
	for i, network := range networks {
		i, network := i, network
		eg.Go(func() error {
			callCtx, cancel := context.WithTimeout(egCtx, s.fetchTimeout)
			defer cancel()
			holdings, err := s.balanceSvc.FetchHoldings(callCtx, address, network)
			outcomes[i] = entity.FetchOutcome{Network: network, Holdings: holdings, Err: err}
			return nil
		})
	}
	// Goroutines always return nil: per-network failures live in the
	// outcome, not in the group error.
	_ = eg.Wait()
	return outcomes
}

// pendingAsset pairs a partially-built asset row with the balance and
// quote it will be valued at.
type pendingAsset struct {
	asset   entity.Asset
	balance float64
	request entity.PriceRequest
	quote   entity.PriceQuote
}

// buildAssets turns per-network outcomes into unpriced asset rows. Each
// network's native asset is always materialized, zero balance included,
// so the chain list stays complete regardless of provider availability.
// ERC-20 holdings with zero balance or a spam flag are dropped.
func (s *portfolioServiceImpl) buildAssets(outcomes []entity.FetchOutcome) []*pendingAsset {
	assets := make([]*pendingAsset, 0, len(outcomes)*2)
	for _, outcome := range outcomes {
		network := outcome.Network

		native := &pendingAsset{
			asset: entity.Asset{
				Symbol:    network.NativeSymbol,
				Name:      network.Name,
				ChainName: network.Name,
				ChainID:   network.ChainID,
				Logo:      entity.LogoForSymbol(network.NativeSymbol),
			},
			request: entity.PriceRequest{Symbol: network.NativeSymbol, ChainID: network.ChainID},
		}
		assets = append(assets, native)

		for _, holding := range outcome.Holdings {
			if holding.IsNative() {
				native.balance = utils.ToDecimal(holding.RawBalance, holding.Decimals)
				if holding.Name != "" {
					native.asset.Name = holding.Name
				}
				continue
			}
			if holding.PossibleSpam || holding.RawBalance == nil || holding.RawBalance.Sign() == 0 {
				continue
			}
			assets = append(assets, &pendingAsset{
				asset: entity.Asset{
					Symbol:       holding.Symbol,
					Name:         holding.Name,
					ChainName:    network.Name,
					ChainID:      network.ChainID,
					TokenAddress: holding.TokenAddress,
					Logo:         entity.LogoForSymbol(holding.Symbol),
				},
				balance: utils.ToDecimal(holding.RawBalance, holding.Decimals),
				request: entity.PriceRequest{
					Symbol:       holding.Symbol,
					TokenAddress: holding.TokenAddress,
					ChainID:      network.ChainID,
				},
			})
		}
	}
	return assets
}

// priceAssets resolves quotes for every pending asset in one batched
// pass and fills in the valuation fields.
func (s *portfolioServiceImpl) priceAssets(ctx context.Context, assets []*pendingAsset) {
	requests := make([]entity.PriceRequest, 0, len(assets))
	for _, pa := range assets {
		requests = append(requests, pa.request)
	}
	quotes := s.priceSvc.ResolvePrices(ctx, requests)

	for _, pa := range assets {
		pa.quote = quotes[pa.request.Key()]
		pa.asset.Balance = pa.balance
		pa.asset.PriceUSD = pa.quote.USDPrice
		pa.asset.TotalValueUSD = pa.balance * pa.quote.USDPrice
		pa.asset.Change24hPercent = formatChangePercent(pa.quote.USD24hChangePct)
	}
}

// buildSnapshot sorts the asset rows and derives the portfolio totals.
// The 24h baseline is implied per asset from the provider's change
// figure; it is never synthesized from a second data source.
func buildSnapshot(assets []*pendingAsset) *entity.PortfolioSnapshot {
	// The slice is already in registry order; within one network the
	// native row leads and ERC-20s rank by descending value.
	sort.SliceStable(assets, func(i, j int) bool {
		a, b := assets[i], assets[j]
		if a.asset.ChainID != b.asset.ChainID {
			return false // keep registry order across networks
		}
		aNative := a.asset.TokenAddress == ""
		bNative := b.asset.TokenAddress == ""
		if aNative != bNative {
			return aNative
		}
		if a.asset.TotalValueUSD != b.asset.TotalValueUSD {
			return a.asset.TotalValueUSD > b.asset.TotalValueUSD
		}
		return a.asset.Symbol < b.asset.Symbol
	})

	var totalValue, baseline float64
	rows := make([]entity.Asset, 0, len(assets))
	for _, pa := range assets {
		totalValue += pa.asset.TotalValueUSD
		if pa.quote.USDPrice > 0 {
			denom := 1 + pa.quote.USD24hChangePct/100
			if math.Abs(denom) < denominatorEps {
				// Degenerate implied baseline: assume no change rather
				// than dividing by (near) zero.
				denom = 1
			}
			baseline += pa.asset.TotalValueUSD / denom
		}
		rows = append(rows, pa.asset)
	}

	changeUSD := totalValue - baseline
	changePct := 0.0
	if baseline > dustThresholdUSD {
		changePct = changeUSD / baseline * 100
	} else {
		changeUSD = 0
	}

	return &entity.PortfolioSnapshot{
		Assets:            rows,
		TotalValueUSD:     totalValue,
		TotalChange24hUSD: changeUSD,
		TotalChange24hPct: changePct,
	}
}

// formatChangePercent renders a 24h change as a signed, two-decimal
// percentage: "+1.23%", "-0.45%", "0.00%".
func formatChangePercent(change float64) string {
	if change > 0 {
		return fmt.Sprintf("+%.2f%%", change)
	}
	return fmt.Sprintf("%.2f%%", change)
}
