package restapi

import (
	"errors"
	"net/http"

	"wallet_dashboard/internal/domain/entity"
	"wallet_dashboard/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// APIError is the uniform error body for 4xx/5xx responses.
type APIError struct {
	Error string `json:"error"`
}

// PortfolioHandler handles portfolio snapshot requests.
type PortfolioHandler struct {
	portfolioSvc service.PortfolioService
	logger       *zap.Logger
}

// NewPortfolioHandler creates a new instance of PortfolioHandler.
func NewPortfolioHandler(ps service.PortfolioService, logger *zap.Logger) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioSvc: ps,
		logger:       logger.Named("PortfolioHandler"),
	}
}

// GetPortfolioHandler handles GET /portfolio?address=0x...
func (h *PortfolioHandler) GetPortfolioHandler(c *gin.Context) {
	address := c.Query("address")
	if address == "" {
		c.JSON(http.StatusBadRequest, APIError{Error: "Wallet address is required."})
		return
	}

	snapshot, err := h.portfolioSvc.GetPortfolio(c.Request.Context(), address)
	if err != nil {
		h.respondError(c, address, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// respondError maps the service error taxonomy onto HTTP statuses.
// Configuration detail is logged server-side only; the client always
// gets a generic message.
func (h *PortfolioHandler) respondError(c *gin.Context, address string, err error) {
	switch {
	case errors.Is(err, entity.ErrInvalidAddress):
		c.JSON(http.StatusBadRequest, APIError{Error: "Invalid wallet address format. Expected 0x-prefixed 40-hex-character address."})
	case errors.Is(err, entity.ErrMissingAPIKey):
		h.logger.Error("Provider API key missing", zap.String("address", address))
		c.JSON(http.StatusInternalServerError, APIError{Error: "Server configuration error."})
	default:
		h.logger.Error("Portfolio request failed", zap.String("address", address), zap.Error(err))
		c.JSON(http.StatusInternalServerError, APIError{Error: "Failed to fetch assets. Please try again."})
	}
}
