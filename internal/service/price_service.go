package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"wallet_dashboard/internal/client"
	"wallet_dashboard/internal/config"
	"wallet_dashboard/internal/domain/entity"
	"wallet_dashboard/internal/registry"
	"wallet_dashboard/pkg/metrics"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// defaultSymbolIDs maps ticker symbols to their canonical price-provider
// coin ids for the symbol tier.
var defaultSymbolIDs = map[string]string{
	"ETH":        "ethereum",
	"WETH":       "weth",
	"SEPOLIAETH": "ethereum",
	"MATIC":      "matic-network",
	"POL":        "polygon-ecosystem-token",
	"BNB":        "binancecoin",
	"AVAX":       "avalanche-2",
	"FTM":        "fantom",
	"OP":         "optimism",
	"ARB":        "arbitrum",
	"USDC":       "usd-coin",
	"USDT":       "tether",
	"DAI":        "dai",
	"WBTC":       "wrapped-bitcoin",
	"LINK":       "chainlink",
	"UNI":        "uniswap",
	"AAVE":       "aave",
	"SHIB":       "shiba-inu",
}

// symbolIDAliases lists secondary provider ids for symbols that appear
// under more than one slug. Consulted only when the canonical id is
// missing from the batched response.
var symbolIDAliases = map[string][]string{
	"MATIC": {"polygon-ecosystem-token"},
	"POL":   {"matic-network"},
	"ETH":   {"weth"},
	"USDC":  {"usd-coin-ethereum-bridged"},
}

// PriceService resolves USD quotes for the assets of one snapshot.
type PriceService interface {
	// ResolvePrices returns a quote for every distinct request key.
	// Assets no tier can price get a zero quote; they are never dropped.
	ResolvePrices(ctx context.Context, requests []entity.PriceRequest) map[entity.PriceKey]entity.PriceQuote
}

// resolveTier is one ordered resolution strategy. It prices what it can
// from pending and returns the resolved quotes.
type resolveTier func(ctx context.Context, pending []entity.PriceRequest) map[entity.PriceKey]entity.PriceQuote

// cachedPrices is one TTL-tracked batch response. Entries are stored
// without go-cache expiration so an expired value stays reachable as a
// fallback when the refreshing call fails.
type cachedPrices struct {
	prices    map[string]entity.MarketPrice
	fetchedAt time.Time
}

// priceServiceImpl implements PriceService.
type priceServiceImpl struct {
	coingecko client.CoinGeckoClient
	registry  *registry.ChainRegistry
	logger    *zap.Logger
	cache     *gocache.Cache
	ttl       time.Duration
	limiter   *rate.Limiter
	symbolIDs map[string]string
	aliases   map[string][]string
	tiers     []resolveTier

	// mu serializes the get-or-fetch-or-store sequence so concurrent
	// requests for the same batch signature issue one upstream call.
	mu sync.Mutex
}

// NewPriceService creates a new instance of priceServiceImpl.
func NewPriceService(
	cg client.CoinGeckoClient,
	reg *registry.ChainRegistry,
	cfg config.PriceServiceConfig,
	logger *zap.Logger,
) PriceService {
	symbolIDs := make(map[string]string, len(defaultSymbolIDs)+len(cfg.ExtraSymbolIDs))
	for sym, id := range defaultSymbolIDs {
		symbolIDs[sym] = id
	}
	for sym, id := range cfg.ExtraSymbolIDs {
		symbolIDs[strings.ToUpper(sym)] = id
	}

	limit := rate.Inf
	if cfg.MinRequestIntervalMillis > 0 {
		limit = rate.Every(time.Duration(cfg.MinRequestIntervalMillis) * time.Millisecond)
	}

	s := &priceServiceImpl{
		coingecko: cg,
		registry:  reg,
		logger:    logger.Named("PriceService"),
		cache:     gocache.New(gocache.NoExpiration, 0),
		ttl:       time.Duration(cfg.CacheTTLSeconds) * time.Second,
		limiter:   rate.NewLimiter(limit, 1),
		symbolIDs: symbolIDs,
		aliases:   symbolIDAliases,
	}
	s.tiers = []resolveTier{s.resolveBySymbol, s.resolveByContract}
	return s
}

// ResolvePrices implements PriceService.
func (s *priceServiceImpl) ResolvePrices(ctx context.Context, requests []entity.PriceRequest) map[entity.PriceKey]entity.PriceQuote {
	resolved := make(map[entity.PriceKey]entity.PriceQuote, len(requests))
	pending := dedupeRequests(requests)

	for _, tier := range s.tiers {
		if len(pending) == 0 {
			break
		}
		quotes := tier(ctx, pending)
		remaining := pending[:0]
		for _, req := range pending {
			if quote, ok := quotes[req.Key()]; ok {
				resolved[req.Key()] = quote
			} else {
				remaining = append(remaining, req)
			}
		}
		pending = remaining
	}

	// Unpriced assets still get a quote so they stay in the snapshot.
	now := time.Now()
	for _, req := range pending {
		s.logger.Warn("No price tier resolved asset",
			zap.String("symbol", req.Symbol),
			zap.String("tokenAddress", req.TokenAddress),
			zap.String("chainId", req.ChainID))
		resolved[req.Key()] = entity.PriceQuote{Tier: entity.TierNone, FetchedAt: now}
	}
	return resolved
}

// resolveBySymbol is tier 1: one batched simple-price call for every
// canonical id (aliases included, so the alias consult costs no extra
// request) needed by the pending assets.
func (s *priceServiceImpl) resolveBySymbol(ctx context.Context, pending []entity.PriceRequest) map[entity.PriceKey]entity.PriceQuote {
	idSet := make(map[string]struct{})
	for _, req := range pending {
		symbol := strings.ToUpper(req.Symbol)
		if id, ok := s.symbolIDs[symbol]; ok {
			idSet[id] = struct{}{}
		}
		for _, alias := range s.aliases[symbol] {
			idSet[alias] = struct{}{}
		}
	}
	if len(idSet) == 0 {
		return nil
	}

	ids := sortedKeys(idSet)
	prices := s.fetchBatch(ctx, "simple:"+strings.Join(ids, ","), func(fctx context.Context) (map[string]entity.MarketPrice, error) {
		return s.coingecko.GetSimplePrices(fctx, ids)
	})
	if prices == nil {
		return nil
	}

	now := time.Now()
	quotes := make(map[entity.PriceKey]entity.PriceQuote)
	for _, req := range pending {
		symbol := strings.ToUpper(req.Symbol)
		candidates := make([]string, 0, 3)
		if id, ok := s.symbolIDs[symbol]; ok {
			candidates = append(candidates, id)
		}
		candidates = append(candidates, s.aliases[symbol]...)
		for _, id := range candidates {
			if price, ok := prices[id]; ok {
				quotes[req.Key()] = entity.PriceQuote{
					USDPrice:        price.USD,
					USD24hChangePct: price.USD24hChange,
					Tier:            entity.TierSymbol,
					FetchedAt:       now,
				}
				break
			}
		}
	}
	return quotes
}

// resolveByContract is tier 2: assets still unpriced that carry both a
// contract address and a platform slug for their chain, grouped into
// one batched call per platform.
func (s *priceServiceImpl) resolveByContract(ctx context.Context, pending []entity.PriceRequest) map[entity.PriceKey]entity.PriceQuote {
	byPlatform := make(map[string][]entity.PriceRequest)
	for _, req := range pending {
		if req.TokenAddress == "" {
			continue
		}
		network, ok := s.registry.Lookup(req.ChainID)
		if !ok || network.PlatformID == "" {
			continue
		}
		byPlatform[network.PlatformID] = append(byPlatform[network.PlatformID], req)
	}
	if len(byPlatform) == 0 {
		return nil
	}

	quotes := make(map[entity.PriceKey]entity.PriceQuote)
	for _, platform := range sortedMapKeys(byPlatform) {
		reqs := byPlatform[platform]
		addrSet := make(map[string]struct{}, len(reqs))
		for _, req := range reqs {
			addrSet[strings.ToLower(req.TokenAddress)] = struct{}{}
		}
		addresses := sortedKeys(addrSet)

		platformID := platform
		prices := s.fetchBatch(ctx, "contract:"+platform+":"+strings.Join(addresses, ","), func(fctx context.Context) (map[string]entity.MarketPrice, error) {
			return s.coingecko.GetTokenPrices(fctx, platformID, addresses)
		})
		if prices == nil {
			continue
		}

		now := time.Now()
		for _, req := range reqs {
			if price, ok := prices[strings.ToLower(req.TokenAddress)]; ok {
				quotes[req.Key()] = entity.PriceQuote{
					USDPrice:        price.USD,
					USD24hChangePct: price.USD24hChange,
					Tier:            entity.TierContract,
					FetchedAt:       now,
				}
			}
		}
	}
	return quotes
}

// fetchBatch is the get-or-fetch-or-store sequence for one batch
// signature. Within the TTL the cached response is served; past the TTL
// the entry is cleared and refetched, but if the fresh call fails the
// expired value is served instead of pricing everything at zero.
func (s *priceServiceImpl) fetchBatch(
	ctx context.Context,
	key string,
	fetch func(context.Context) (map[string]entity.MarketPrice, error),
) map[string]entity.MarketPrice {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stale *cachedPrices
	if v, found := s.cache.Get(key); found {
		entry := v.(cachedPrices)
		if time.Since(entry.fetchedAt) <= s.ttl {
			metrics.PriceCacheEvents.WithLabelValues("hit").Inc()
			return entry.prices
		}
		stale = &entry
		s.cache.Delete(key)
	}
	metrics.PriceCacheEvents.WithLabelValues("miss").Inc()

	// Fixed spacing before every outbound price call, not a backoff.
	if err := s.limiter.Wait(ctx); err != nil {
		s.logger.Warn("Price request cancelled while waiting for rate limiter", zap.Error(err))
		return s.serveStale(key, stale)
	}

	prices, err := fetch(ctx)
	if err != nil {
		s.logger.Error("Price batch fetch failed", zap.String("batch", key), zap.Error(err))
		return s.serveStale(key, stale)
	}

	s.cache.Set(key, cachedPrices{prices: prices, fetchedAt: time.Now()}, gocache.NoExpiration)
	return prices
}

// serveStale restores and returns the expired entry, if any, after a
// failed refresh. A slightly stale price beats a zero one.
func (s *priceServiceImpl) serveStale(key string, stale *cachedPrices) map[string]entity.MarketPrice {
	if stale == nil {
		return nil
	}
	metrics.PriceCacheEvents.WithLabelValues("stale_serve").Inc()
	s.logger.Warn("Serving expired cached prices after failed refresh", zap.String("batch", key))
	s.cache.Set(key, *stale, gocache.NoExpiration)
	return stale.prices
}

func dedupeRequests(requests []entity.PriceRequest) []entity.PriceRequest {
	seen := make(map[entity.PriceKey]struct{}, len(requests))
	out := make([]entity.PriceRequest, 0, len(requests))
	for _, req := range requests {
		key := req.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, req)
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedMapKeys(m map[string][]entity.PriceRequest) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
