package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"wallet_dashboard/internal/domain/entity"
	"wallet_dashboard/pkg/metrics"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

const coinGeckoProviderName = "coingecko"

// CoinGeckoClient defines the interface for the price provider. Both
// methods are batched: one upstream call covers every id or contract
// address in the snapshot, never one call per asset.
type CoinGeckoClient interface {
	// GetSimplePrices resolves USD prices and 24h changes for a list of
	// coin ids (symbol tier).
	GetSimplePrices(ctx context.Context, ids []string) (map[string]entity.MarketPrice, error)
	// GetTokenPrices resolves USD prices and 24h changes for contract
	// addresses on one asset platform (contract tier). Response keys are
	// lower-cased addresses.
	GetTokenPrices(ctx context.Context, platformID string, addresses []string) (map[string]entity.MarketPrice, error)
}

// coinGeckoClientImpl is the fasthttp implementation of CoinGeckoClient.
type coinGeckoClientImpl struct {
	client  *fasthttp.Client
	baseURL string
	apiKey  string
	timeout time.Duration
	logger  *zap.Logger
}

// NewCoinGeckoClient creates a new instance of coinGeckoClientImpl.
func NewCoinGeckoClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) CoinGeckoClient {
	return &coinGeckoClientImpl{
		client:  &fasthttp.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		timeout: timeout,
		logger:  logger.Named("CoinGeckoClient"),
	}
}

// coinGeckoPriceEntry mirrors one entry of the simple price responses.
type coinGeckoPriceEntry struct {
	USD          float64 `json:"usd"`
	USD24hChange float64 `json:"usd_24h_change"`
}

// GetSimplePrices implements CoinGeckoClient.
func (c *coinGeckoClientImpl) GetSimplePrices(ctx context.Context, ids []string) (map[string]entity.MarketPrice, error) {
	if len(ids) == 0 {
		return map[string]entity.MarketPrice{}, nil
	}
	requestURL := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd&include_24hr_change=true",
		c.baseURL, strings.Join(ids, ","))
	return c.fetchPriceMap(ctx, requestURL)
}

// GetTokenPrices implements CoinGeckoClient.
func (c *coinGeckoClientImpl) GetTokenPrices(ctx context.Context, platformID string, addresses []string) (map[string]entity.MarketPrice, error) {
	if platformID == "" {
		return nil, fmt.Errorf("platformID cannot be empty")
	}
	if len(addresses) == 0 {
		return map[string]entity.MarketPrice{}, nil
	}
	requestURL := fmt.Sprintf("%s/simple/token_price/%s?contract_addresses=%s&vs_currencies=usd&include_24hr_change=true",
		c.baseURL, platformID, strings.Join(addresses, ","))
	return c.fetchPriceMap(ctx, requestURL)
}

func (c *coinGeckoClientImpl) fetchPriceMap(ctx context.Context, requestURL string) (map[string]entity.MarketPrice, error) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-cg-pro-api-key", c.apiKey)
	}

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
		metrics.UpstreamRequests.WithLabelValues(coinGeckoProviderName, string(kind)).Inc()
		c.logger.Error("CoinGecko request failed", zap.String("url", requestURL), zap.Error(err))
		return nil, &entity.UpstreamError{Provider: coinGeckoProviderName, Kind: kind, Err: err}
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		kind := entity.KindFromStatus(resp.StatusCode())
		metrics.UpstreamRequests.WithLabelValues(coinGeckoProviderName, string(kind)).Inc()
		c.logger.Error("CoinGecko request returned non-OK status",
			zap.String("url", requestURL),
			zap.Int("statusCode", resp.StatusCode()))
		return nil, &entity.UpstreamError{
			Provider:   coinGeckoProviderName,
			Kind:       kind,
			StatusCode: resp.StatusCode(),
			Err:        fmt.Errorf("status %d: %s", resp.StatusCode(), resp.Body()),
		}
	}

	var parsed map[string]coinGeckoPriceEntry
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		metrics.UpstreamRequests.WithLabelValues(coinGeckoProviderName, string(entity.UpstreamMalformed)).Inc()
		c.logger.Error("Failed to unmarshal CoinGecko response", zap.String("url", requestURL), zap.Error(err))
		return nil, &entity.UpstreamError{Provider: coinGeckoProviderName, Kind: entity.UpstreamMalformed, Err: err}
	}

	prices := make(map[string]entity.MarketPrice, len(parsed))
	for id, p := range parsed {
		prices[strings.ToLower(id)] = entity.MarketPrice{USD: p.USD, USD24hChange: p.USD24hChange}
	}

	metrics.UpstreamRequests.WithLabelValues(coinGeckoProviderName, "ok").Inc()
	c.logger.Debug("Fetched prices", zap.String("url", requestURL), zap.Int("count", len(prices)))
	return prices, nil
}
