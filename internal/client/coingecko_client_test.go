package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"wallet_dashboard/internal/domain/entity"

	"go.uber.org/zap"
)

func newCoinGeckoTestClient(t *testing.T, handler http.HandlerFunc) CoinGeckoClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewCoinGeckoClient(server.URL, "", 2*time.Second, zap.NewNop())
}

func TestGetSimplePricesBatchesIDs(t *testing.T) {
	var gotPath, gotIDs string
	c := newCoinGeckoTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotIDs = r.URL.Query().Get("ids")
		if r.URL.Query().Get("include_24hr_change") != "true" {
			t.Error("expected include_24hr_change=true")
		}
		w.Write([]byte(`{
			"ethereum": {"usd": 3000.5, "usd_24h_change": 2.1},
			"usd-coin": {"usd": 1.0, "usd_24h_change": 0.01}
		}`))
	})

	prices, err := c.GetSimplePrices(context.Background(), []string{"ethereum", "usd-coin"})
	if err != nil {
		t.Fatalf("GetSimplePrices returned error: %v", err)
	}
	if gotPath != "/simple/price" {
		t.Errorf("path = %q, want /simple/price", gotPath)
	}
	if !strings.Contains(gotIDs, "ethereum") || !strings.Contains(gotIDs, "usd-coin") {
		t.Errorf("both ids must ride one request, got ids=%q", gotIDs)
	}
	if prices["ethereum"].USD != 3000.5 || prices["ethereum"].USD24hChange != 2.1 {
		t.Errorf("unexpected ethereum price: %+v", prices["ethereum"])
	}
}

func TestGetSimplePricesEmptyInput(t *testing.T) {
	called := false
	c := newCoinGeckoTestClient(t, func(http.ResponseWriter, *http.Request) {
		called = true
	})

	prices, err := c.GetSimplePrices(context.Background(), nil)
	if err != nil {
		t.Fatalf("empty input should not error: %v", err)
	}
	if len(prices) != 0 || called {
		t.Error("empty input must not issue an upstream request")
	}
}

func TestGetTokenPricesLowercasesKeys(t *testing.T) {
	c := newCoinGeckoTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/simple/token_price/ethereum") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		// The provider echoes addresses in mixed case sometimes.
		w.Write([]byte(`{"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48": {"usd": 1.0, "usd_24h_change": -0.02}}`))
	})

	prices, err := c.GetTokenPrices(context.Background(), "ethereum", []string{"0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"})
	if err != nil {
		t.Fatalf("GetTokenPrices returned error: %v", err)
	}
	if _, ok := prices["0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"]; !ok {
		t.Errorf("response keys must be lowercased, got %v", prices)
	}
}

func TestGetTokenPricesRequiresPlatform(t *testing.T) {
	c := newCoinGeckoTestClient(t, func(http.ResponseWriter, *http.Request) {})
	if _, err := c.GetTokenPrices(context.Background(), "", []string{"0x1"}); err == nil {
		t.Error("expected error for empty platform id")
	}
}

func TestGetSimplePricesRateLimited(t *testing.T) {
	c := newCoinGeckoTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.GetSimplePrices(context.Background(), []string{"ethereum"})
	upstream, ok := err.(*entity.UpstreamError)
	if !ok {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upstream.Kind != entity.UpstreamRateLimited {
		t.Errorf("kind = %s, want rate_limited", upstream.Kind)
	}
}
