package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"wallet_dashboard/internal/domain/entity"
	"wallet_dashboard/internal/pkg/utils"
	"wallet_dashboard/pkg/metrics"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const moralisProviderName = "moralis"

// MoralisClient defines the interface for the balance/history provider.
type MoralisClient interface {
	// GetWalletTokens returns the token holdings (native included) for
	// one address on one network.
	GetWalletTokens(ctx context.Context, address, chainID string) ([]entity.RawHolding, error)
	// GetWalletTransactions returns the recent transactions for one
	// address across the given networks.
	GetWalletTransactions(ctx context.Context, address string, chainIDs []string) ([]entity.RawTransaction, error)
}

// moralisClientImpl is the fasthttp implementation of MoralisClient.
type moralisClientImpl struct {
	client       *fasthttp.Client
	baseURL      string
	apiKey       string
	timeout      time.Duration
	logger       *zap.Logger
	pageLimit    int
	historyLimit int
}

// NewMoralisClient creates a new instance of moralisClientImpl.
func NewMoralisClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger, pageLimit, historyLimit int) MoralisClient {
	return &moralisClientImpl{
		client:       &fasthttp.Client{},
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       apiKey,
		timeout:      timeout,
		logger:       logger.Named("MoralisClient"),
		pageLimit:    pageLimit,
		historyLimit: historyLimit,
	}
}

// moralisTokenItem mirrors one entry of the wallet tokens response.
// Optional-field ambiguity stops here: everything downstream sees a
// normalized entity.RawHolding.
type moralisTokenItem struct {
	TokenAddress string `json:"token_address"`
	Symbol       string `json:"symbol"`
	Name         string `json:"name"`
	Balance      string `json:"balance"`
	Decimals     int    `json:"decimals"`
	PossibleSpam bool   `json:"possible_spam"`
	NativeToken  bool   `json:"native_token"`
}

type moralisTokensResponse struct {
	Result []moralisTokenItem `json:"result"`
}

type moralisTransactionItem struct {
	Hash           string `json:"hash"`
	FromAddress    string `json:"from_address"`
	ToAddress      string `json:"to_address"`
	Value          string `json:"value"`
	BlockTimestamp string `json:"block_timestamp"`
	Chain          string `json:"chain"`
}

type moralisTransactionsResponse struct {
	Result []moralisTransactionItem `json:"result"`
}

// GetWalletTokens implements MoralisClient.
func (c *moralisClientImpl) GetWalletTokens(ctx context.Context, address, chainID string) ([]entity.RawHolding, error) {
	requestURL := fmt.Sprintf("%s/wallets/%s/tokens?chain=%s&exclude_spam=true&exclude_native=false&limit=%d",
		c.baseURL, address, chainID, c.pageLimit)

	body, err := c.doGet(ctx, requestURL)
	if err != nil {
		return nil, err
	}

	var parsed moralisTokensResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		metrics.UpstreamRequests.WithLabelValues(moralisProviderName, string(entity.UpstreamMalformed)).Inc()
		c.logger.Error("Failed to unmarshal wallet tokens response",
			zap.String("chainId", chainID), zap.Error(err))
		return nil, &entity.UpstreamError{Provider: moralisProviderName, Kind: entity.UpstreamMalformed, Err: err}
	}

	holdings := make([]entity.RawHolding, 0, len(parsed.Result))
	for _, item := range parsed.Result {
		amount, err := utils.ParseRawBalance(item.Balance)
		if err != nil {
			c.logger.Warn("Skipping holding with unparseable balance",
				zap.String("chainId", chainID),
				zap.String("symbol", item.Symbol),
				zap.String("balance", item.Balance))
			continue
		}
		decimals := item.Decimals
		if decimals <= 0 || decimals > 255 {
			decimals = 18
		}
		tokenAddress := strings.ToLower(item.TokenAddress)
		if item.NativeToken || tokenAddress == entity.ZeroAddress {
			tokenAddress = ""
		}
		holdings = append(holdings, entity.RawHolding{
			ChainID:      chainID,
			TokenAddress: tokenAddress,
			Symbol:       item.Symbol,
			Name:         item.Name,
			RawBalance:   amount,
			Decimals:     uint8(decimals),
			PossibleSpam: item.PossibleSpam,
		})
	}

	metrics.UpstreamRequests.WithLabelValues(moralisProviderName, "ok").Inc()
	c.logger.Debug("Fetched wallet tokens",
		zap.String("chainId", chainID), zap.Int("holdingCount", len(holdings)))
	return holdings, nil
}

// GetWalletTransactions implements MoralisClient.
func (c *moralisClientImpl) GetWalletTransactions(ctx context.Context, address string, chainIDs []string) ([]entity.RawTransaction, error) {
	requestURL := fmt.Sprintf("%s/wallets/%s/transactions?chain=%s&limit=%d",
		c.baseURL, address, strings.Join(chainIDs, ","), c.historyLimit)

	body, err := c.doGet(ctx, requestURL)
	if err != nil {
		return nil, err
	}

	var parsed moralisTransactionsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		metrics.UpstreamRequests.WithLabelValues(moralisProviderName, string(entity.UpstreamMalformed)).Inc()
		c.logger.Error("Failed to unmarshal wallet transactions response", zap.Error(err))
		return nil, &entity.UpstreamError{Provider: moralisProviderName, Kind: entity.UpstreamMalformed, Err: err}
	}

	transactions := make([]entity.RawTransaction, 0, len(parsed.Result))
	for _, item := range parsed.Result {
		value, err := utils.ParseRawBalance(item.Value)
		if err != nil {
			c.logger.Warn("Skipping transaction with unparseable value",
				zap.String("hash", item.Hash), zap.String("value", item.Value))
			continue
		}
		timestamp, err := time.Parse(time.RFC3339, item.BlockTimestamp)
		if err != nil {
			timestamp = time.Time{}
		}
		transactions = append(transactions, entity.RawTransaction{
			Hash:           item.Hash,
			FromAddress:    strings.ToLower(item.FromAddress),
			ToAddress:      strings.ToLower(item.ToAddress),
			ValueWei:       value,
			BlockTimestamp: timestamp,
			ChainID:        item.Chain,
		})
	}

	metrics.UpstreamRequests.WithLabelValues(moralisProviderName, "ok").Inc()
	return transactions, nil
}

// doGet issues one GET request with the API key header and maps every
// failure mode onto the UpstreamError taxonomy.
func (c *moralisClientImpl) doGet(ctx context.Context, requestURL string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("accept", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = c.client.DoDeadline(req, resp, deadline)
	} else {
		err = c.client.DoTimeout(req, resp, c.timeout)
	}
	if err != nil {
		kind := entity.UpstreamTransport
		if err == fasthttp.ErrTimeout || ctx.Err() != nil {
			kind = entity.UpstreamTimeout
		}
		metrics.UpstreamRequests.WithLabelValues(moralisProviderName, string(kind)).Inc()
		c.logger.Error("Moralis request failed", zap.String("url", requestURL), zap.Error(err))
		return nil, &entity.UpstreamError{Provider: moralisProviderName, Kind: kind, Err: err}
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		kind := entity.KindFromStatus(resp.StatusCode())
		metrics.UpstreamRequests.WithLabelValues(moralisProviderName, string(kind)).Inc()
		c.logger.Error("Moralis request returned non-OK status",
			zap.String("url", requestURL),
			zap.Int("statusCode", resp.StatusCode()))
		return nil, &entity.UpstreamError{
			Provider:   moralisProviderName,
			Kind:       kind,
			StatusCode: resp.StatusCode(),
			Err:        fmt.Errorf("status %d: %s", resp.StatusCode(), resp.Body()),
		}
	}

	// resp's buffer is reused after release; hand back a copy.
	body := make([]byte, len(resp.Body()))
	copy(body, resp.Body())
	return body, nil
}
