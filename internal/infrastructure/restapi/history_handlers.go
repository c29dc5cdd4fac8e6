package restapi

import (
	"errors"
	"net/http"

	"wallet_dashboard/internal/domain/entity"
	"wallet_dashboard/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HistoryHandler handles transaction history requests.
type HistoryHandler struct {
	historySvc service.HistoryService
	logger     *zap.Logger
}

// NewHistoryHandler creates a new instance of HistoryHandler.
func NewHistoryHandler(hs service.HistoryService, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{
		historySvc: hs,
		logger:     logger.Named("HistoryHandler"),
	}
}

// GetHistoryHandler handles GET /history?address=0x...
func (h *HistoryHandler) GetHistoryHandler(c *gin.Context) {
	address := c.Query("address")
	if address == "" {
		c.JSON(http.StatusBadRequest, APIError{Error: "Wallet address is required."})
		return
	}

	history, err := h.historySvc.GetHistory(c.Request.Context(), address)
	if err != nil {
		switch {
		case errors.Is(err, entity.ErrInvalidAddress):
			c.JSON(http.StatusBadRequest, APIError{Error: "Invalid wallet address format. Expected 0x-prefixed 40-hex-character address."})
		case errors.Is(err, entity.ErrMissingAPIKey):
			h.logger.Error("Provider API key missing", zap.String("address", address))
			c.JSON(http.StatusInternalServerError, APIError{Error: "Server configuration error."})
		default:
			h.logger.Error("History request failed", zap.String("address", address), zap.Error(err))
			c.JSON(http.StatusInternalServerError, APIError{Error: "Failed to fetch transaction history. Please try again."})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": history})
}
