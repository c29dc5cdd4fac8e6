package restapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"wallet_dashboard/internal/domain/entity"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type stubPortfolioService struct {
	snapshot *entity.PortfolioSnapshot
	err      error
}

func (s *stubPortfolioService) GetPortfolio(context.Context, string) (*entity.PortfolioSnapshot, error) {
	return s.snapshot, s.err
}

type stubHistoryService struct {
	history []entity.WalletTransaction
	err     error
}

func (s *stubHistoryService) GetHistory(context.Context, string) ([]entity.WalletTransaction, error) {
	return s.history, s.err
}

func newTestRouter(portfolio *stubPortfolioService, history *stubHistoryService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	return SetupRouter(
		NewPortfolioHandler(portfolio, logger),
		NewHistoryHandler(history, logger),
		logger,
	)
}

func doGet(t *testing.T, router *gin.Engine, url string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGetPortfolioHandlerSuccess(t *testing.T) {
	snapshot := &entity.PortfolioSnapshot{
		Assets: []entity.Asset{
			{Symbol: "ETH", ChainID: "0x1", Balance: 1.5, PriceUSD: 3000, TotalValueUSD: 4500, Change24hPercent: "+2.00%"},
		},
		TotalValueUSD:     4500,
		TotalChange24hUSD: 88.24,
		TotalChange24hPct: 2,
	}
	router := newTestRouter(&stubPortfolioService{snapshot: snapshot}, &stubHistoryService{})

	rec := doGet(t, router, "/api/v1/portfolio?address=0x742d35Cc6634C0532925a3b844Bc454e4438f44e")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Data         []entity.Asset `json:"data"`
		TotalBalance float64        `json:"totalBalance"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if body.TotalBalance != 4500 {
		t.Errorf("totalBalance = %v, want 4500", body.TotalBalance)
	}
	if len(body.Data) != 1 || body.Data[0].Symbol != "ETH" {
		t.Errorf("unexpected data payload: %+v", body.Data)
	}
}

func TestGetPortfolioHandlerMissingAddress(t *testing.T) {
	router := newTestRouter(&stubPortfolioService{}, &stubHistoryService{})

	rec := doGet(t, router, "/api/v1/portfolio")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var body APIError
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body is not valid JSON: %v", err)
	}
	if body.Error != "Wallet address is required." {
		t.Errorf("error message = %q", body.Error)
	}
}

func TestGetPortfolioHandlerErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"invalid address", entity.ErrInvalidAddress, http.StatusBadRequest},
		{"missing api key", entity.ErrMissingAPIKey, http.StatusInternalServerError},
		{"upstream failure", &entity.UpstreamError{Provider: "moralis", Kind: entity.UpstreamTimeout, Err: errors.New("deadline")}, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter(&stubPortfolioService{err: tc.err}, &stubHistoryService{})
			rec := doGet(t, router, "/api/v1/portfolio?address=0x742d35Cc6634C0532925a3b844Bc454e4438f44e")
			if rec.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
		})
	}
}

func TestGetPortfolioHandlerHidesConfigurationDetail(t *testing.T) {
	router := newTestRouter(&stubPortfolioService{err: entity.ErrMissingAPIKey}, &stubHistoryService{})
	rec := doGet(t, router, "/api/v1/portfolio?address=0x742d35Cc6634C0532925a3b844Bc454e4438f44e")

	var body APIError
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body is not valid JSON: %v", err)
	}
	if body.Error != "Server configuration error." {
		t.Errorf("configuration detail leaked to client: %q", body.Error)
	}
}

func TestGetHistoryHandlerSuccess(t *testing.T) {
	history := []entity.WalletTransaction{
		{Hash: "0xaaa", Direction: entity.DirectionSent, Amount: "1.5", ChainID: "0x1", ChainName: "Ethereum"},
	}
	router := newTestRouter(&stubPortfolioService{}, &stubHistoryService{history: history})

	rec := doGet(t, router, "/api/v1/history?address=0x742d35Cc6634C0532925a3b844Bc454e4438f44e")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Result []entity.WalletTransaction `json:"result"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if len(body.Result) != 1 || body.Result[0].Hash != "0xaaa" {
		t.Errorf("unexpected result payload: %+v", body.Result)
	}
}

func TestGetHistoryHandlerMissingAddress(t *testing.T) {
	router := newTestRouter(&stubPortfolioService{}, &stubHistoryService{})
	rec := doGet(t, router, "/api/v1/history")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(&stubPortfolioService{}, &stubHistoryService{})
	rec := doGet(t, router, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
