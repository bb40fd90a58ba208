package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/club_ledger/internal/core/ports/services"
	"github.com/SscSPs/club_ledger/internal/dto"
	"github.com/SscSPs/club_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

type transferHandler struct {
	transferService portssvc.TransferSvc
}

// RegisterTransferRoutes registers the account-to-account transfer route.
func RegisterTransferRoutes(rg *gin.RouterGroup, transferService portssvc.TransferSvc) {
	h := &transferHandler{transferService: transferService}
	rg.POST("/transfers", h.transfer)
}

// transfer godoc
// @Summary Transfer between accounts
// @Description Debits the source account and credits the destination. A failed credit is compensated on the source.
// @Tags transfers
// @Accept  json
// @Produce  json
// @Param   transfer body dto.TransferRequest true "Transfer details"
// @Param   X-Actor-ID header string false "Acting user"
// @Success 200 {object} dto.TransferResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 422 {object} map[string]string "Insufficient funds"
// @Failure 500 {object} map[string]string "Partial transfer failure"
// @Router /transfers [post]
func (h *transferHandler) transfer(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for Transfer", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	result, err := h.transferService.TransferBetweenAccounts(c.Request.Context(), req, middleware.GetActorIDFromContext(c))
	if err != nil {
		respondError(c, err, "Failed to transfer between accounts")
		return
	}
	c.JSON(http.StatusOK, dto.ToTransferResponse(result))
}
