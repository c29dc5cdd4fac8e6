package service

import (
	"context"
	"fmt"
	"strings"

	"wallet_dashboard/internal/client"
	"wallet_dashboard/internal/domain/entity"
	"wallet_dashboard/internal/pkg/utils"
	"wallet_dashboard/internal/registry"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// HistoryService fetches and classifies the transaction history for a
// wallet address across all configured networks.
type HistoryService interface {
	GetHistory(ctx context.Context, address string) ([]entity.WalletTransaction, error)
}

// historyServiceImpl implements HistoryService.
type historyServiceImpl struct {
	moralis      client.MoralisClient
	registry     *registry.ChainRegistry
	logger       *zap.Logger
	credentialed bool
}

// NewHistoryService creates a new instance of historyServiceImpl.
func NewHistoryService(moralis client.MoralisClient, reg *registry.ChainRegistry, credentialed bool, logger *zap.Logger) HistoryService {
	return &historyServiceImpl{
		moralis:      moralis,
		registry:     reg,
		logger:       logger.Named("HistoryService"),
		credentialed: credentialed,
	}
}

// GetHistory implements HistoryService. Each transaction is classified
// as sent or received relative to the requested address.
func (s *historyServiceImpl) GetHistory(ctx context.Context, address string) ([]entity.WalletTransaction, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("%w: %q", entity.ErrInvalidAddress, address)
	}
	if !s.credentialed {
		return nil, entity.ErrMissingAPIKey
	}

	raw, err := s.moralis.GetWalletTransactions(ctx, address, s.registry.ChainIDs())
	if err != nil {
		return nil, fmt.Errorf("fetch transactions: %w", err)
	}

	wallet := strings.ToLower(address)
	history := make([]entity.WalletTransaction, 0, len(raw))
	for _, tx := range raw {
		direction := entity.DirectionReceived
		counterparty := tx.FromAddress
		if tx.FromAddress == wallet {
			direction = entity.DirectionSent
			counterparty = tx.ToAddress
		}

		chainName := tx.ChainID
		if network, ok := s.registry.Lookup(tx.ChainID); ok {
			chainName = network.Name
		}

		history = append(history, entity.WalletTransaction{
			Hash:         tx.Hash,
			Direction:    direction,
			Counterparty: counterparty,
			Amount:       utils.FormatBigInt(tx.ValueWei, 18),
			Timestamp:    tx.BlockTimestamp,
			ChainID:      tx.ChainID,
			ChainName:    chainName,
		})
	}

	s.logger.Debug("Normalized wallet history",
		zap.String("address", address), zap.Int("count", len(history)))
	return history, nil
}
