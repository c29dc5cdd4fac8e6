package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wallet_dashboard/internal/domain/entity"

	"go.uber.org/zap"
)

const tokensPayload = `{
	"result": [
		{
			"token_address": "0x0000000000000000000000000000000000000000",
			"symbol": "ETH",
			"name": "Ether",
			"balance": "1500000000000000000",
			"decimals": 18,
			"possible_spam": false,
			"native_token": true
		},
		{
			"token_address": "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
			"symbol": "USDC",
			"name": "USD Coin",
			"balance": "100000000",
			"decimals": 6,
			"possible_spam": false
		},
		{
			"token_address": "0x1111111111111111111111111111111111111111",
			"symbol": "HUGE",
			"name": "Huge Supply Token",
			"balance": "123456789012345678901234567890",
			"decimals": 18,
			"possible_spam": true
		}
	]
}`

func newMoralisTestClient(t *testing.T, handler http.HandlerFunc) MoralisClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewMoralisClient(server.URL, "test-key", 2*time.Second, zap.NewNop(), 100, 50)
}

func TestGetWalletTokensParsesHoldings(t *testing.T) {
	var gotAPIKey string
	c := newMoralisTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAPIKey = r.Header.Get("X-API-Key")
		if r.URL.Query().Get("chain") != "0x1" {
			t.Errorf("chain query = %q, want 0x1", r.URL.Query().Get("chain"))
		}
		if r.URL.Query().Get("exclude_spam") != "true" {
			t.Errorf("exclude_spam query = %q, want true", r.URL.Query().Get("exclude_spam"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(tokensPayload))
	})

	holdings, err := c.GetWalletTokens(context.Background(), "0x742d35Cc6634C0532925a3b844Bc454e4438f44e", "0x1")
	if err != nil {
		t.Fatalf("GetWalletTokens returned error: %v", err)
	}
	if gotAPIKey != "test-key" {
		t.Errorf("X-API-Key = %q, want test-key", gotAPIKey)
	}
	if len(holdings) != 3 {
		t.Fatalf("expected 3 holdings, got %d", len(holdings))
	}

	native := holdings[0]
	if !native.IsNative() {
		t.Errorf("zero-address holding should normalize to native, got address %q", native.TokenAddress)
	}
	if native.RawBalance.String() != "1500000000000000000" {
		t.Errorf("native balance = %s", native.RawBalance.String())
	}

	usdc := holdings[1]
	if usdc.TokenAddress != "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48" {
		t.Errorf("token address should be lowercased, got %q", usdc.TokenAddress)
	}
	if usdc.Decimals != 6 {
		t.Errorf("decimals = %d, want 6", usdc.Decimals)
	}

	huge := holdings[2]
	if !huge.PossibleSpam {
		t.Error("spam flag should survive normalization")
	}
	if huge.RawBalance.String() != "123456789012345678901234567890" {
		t.Errorf("balance beyond float64 range must round-trip exactly, got %s", huge.RawBalance.String())
	}
}

func TestGetWalletTokensAuthFailure(t *testing.T) {
	c := newMoralisTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"invalid api key"}`))
	})

	_, err := c.GetWalletTokens(context.Background(), "0x742d35Cc6634C0532925a3b844Bc454e4438f44e", "0x1")
	var upstream *entity.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upstream.Kind != entity.UpstreamAuth {
		t.Errorf("kind = %s, want auth", upstream.Kind)
	}
	if upstream.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", upstream.StatusCode)
	}
}

func TestGetWalletTokensRateLimited(t *testing.T) {
	c := newMoralisTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.GetWalletTokens(context.Background(), "0x742d35Cc6634C0532925a3b844Bc454e4438f44e", "0x1")
	var upstream *entity.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upstream.Kind != entity.UpstreamRateLimited {
		t.Errorf("kind = %s, want rate_limited", upstream.Kind)
	}
}

func TestGetWalletTokensMalformedBody(t *testing.T) {
	c := newMoralisTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	})

	_, err := c.GetWalletTokens(context.Background(), "0x742d35Cc6634C0532925a3b844Bc454e4438f44e", "0x1")
	var upstream *entity.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upstream.Kind != entity.UpstreamMalformed {
		t.Errorf("kind = %s, want malformed", upstream.Kind)
	}
}

func TestGetWalletTokensSkipsUnparseableBalances(t *testing.T) {
	c := newMoralisTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"result":[
			{"token_address":"0x1111111111111111111111111111111111111111","symbol":"BAD","balance":"not-a-number","decimals":18},
			{"token_address":"0x2222222222222222222222222222222222222222","symbol":"OK","balance":"1000","decimals":18}
		]}`))
	})

	holdings, err := c.GetWalletTokens(context.Background(), "0x742d35Cc6634C0532925a3b844Bc454e4438f44e", "0x1")
	if err != nil {
		t.Fatalf("GetWalletTokens returned error: %v", err)
	}
	if len(holdings) != 1 || holdings[0].Symbol != "OK" {
		t.Errorf("expected only the parseable holding, got %+v", holdings)
	}
}

func TestGetWalletTransactionsParses(t *testing.T) {
	c := newMoralisTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("chain") == "" {
			t.Error("expected chain query parameter")
		}
		w.Write([]byte(`{"result":[
			{"hash":"0xAAA","from_address":"0x742D35CC6634C0532925A3B844BC454E4438F44E","to_address":"0x1111111111111111111111111111111111111111","value":"1500000000000000000","block_timestamp":"2025-06-01T12:00:00Z","chain":"0x1"}
		]}`))
	})

	txs, err := c.GetWalletTransactions(context.Background(), "0x742d35Cc6634C0532925a3b844Bc454e4438f44e", []string{"0x1", "0x89"})
	if err != nil {
		t.Fatalf("GetWalletTransactions returned error: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(txs))
	}
	tx := txs[0]
	if tx.FromAddress != "0x742d35cc6634c0532925a3b844bc454e4438f44e" {
		t.Errorf("from address should be lowercased, got %q", tx.FromAddress)
	}
	if tx.ValueWei.String() != "1500000000000000000" {
		t.Errorf("value = %s", tx.ValueWei.String())
	}
	if !tx.BlockTimestamp.Equal(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("timestamp = %v", tx.BlockTimestamp)
	}
	if tx.ChainID != "0x1" {
		t.Errorf("chain id = %q, want 0x1", tx.ChainID)
	}
}
