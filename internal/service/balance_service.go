package service

import (
	"context"
	"fmt"

	"wallet_dashboard/internal/client"
	"wallet_dashboard/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// BalanceService fetches raw token holdings for one address on one
// network. Failures are returned, not absorbed; the aggregation layer
// owns the absorb-per-network policy.
type BalanceService interface {
	FetchHoldings(ctx context.Context, address string, network entity.Network) ([]entity.RawHolding, error)
}

// balanceServiceImpl implements BalanceService on top of the balance
// provider client.
type balanceServiceImpl struct {
	moralis client.MoralisClient
	logger  *zap.Logger
}

// NewBalanceService creates a new instance of balanceServiceImpl.
func NewBalanceService(moralis client.MoralisClient, logger *zap.Logger) BalanceService {
	return &balanceServiceImpl{
		moralis: moralis,
		logger:  logger.Named("BalanceService"),
	}
}

// FetchHoldings implements BalanceService. A malformed address is a
// client error and never reaches the provider.
func (s *balanceServiceImpl) FetchHoldings(ctx context.Context, address string, network entity.Network) ([]entity.RawHolding, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("%w: %q", entity.ErrInvalidAddress, address)
	}

	holdings, err := s.moralis.GetWalletTokens(ctx, address, network.ChainID)
	if err != nil {
		return nil, fmt.Errorf("fetch holdings on %s: %w", network.Name, err)
	}

	s.logger.Debug("Fetched holdings",
		zap.String("network", network.Name),
		zap.String("chainId", network.ChainID),
		zap.Int("count", len(holdings)))
	return holdings, nil
}
