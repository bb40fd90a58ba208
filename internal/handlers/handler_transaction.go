package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/club_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/club_ledger/internal/core/ports/services"
	"github.com/SscSPs/club_ledger/internal/dto"
	"github.com/SscSPs/club_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

type transactionHandler struct {
	transactionService portssvc.TransactionSvcFacade
}

func newTransactionHandler(ts portssvc.TransactionSvcFacade) *transactionHandler {
	return &transactionHandler{
		transactionService: ts,
	}
}

// RegisterTransactionRoutes registers routes for income and expense records.
func RegisterTransactionRoutes(rg *gin.RouterGroup, transactionService portssvc.TransactionSvcFacade) {
	h := newTransactionHandler(transactionService)

	transactions := rg.Group("/transactions")
	{
		transactions.POST("", h.createTransaction)
		transactions.GET("", h.listTransactions)
		transactions.GET("/:id", h.getTransaction)
		transactions.PATCH("/:id", h.editTransaction)
		transactions.DELETE("/:id", h.deleteTransaction)
	}
}

// createTransaction godoc
// @Summary Record an income or expense
// @Description Creates a transaction record. COMPLETED records post to the linked account and the category bucket.
// @Tags transactions
// @Accept  json
// @Produce  json
// @Param   transaction body dto.CreateTransactionRequest true "Transaction details"
// @Param   X-Actor-ID header string false "Acting user"
// @Success 201 {object} dto.TransactionOutcomeResponse
// @Failure 400 {object} map[string]string "Invalid input or unknown linked account kind"
// @Failure 404 {object} map[string]string "Linked account or category bucket not found"
// @Failure 422 {object} map[string]string "Insufficient funds"
// @Failure 500 {object} map[string]string "Posting failed"
// @Router /transactions [post]
func (h *transactionHandler) createTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateTransaction", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	logger.Info("Received request to create transaction",
		slog.String("kind", string(req.Kind)),
		slog.String("category", req.Category),
		slog.String("amount", req.Amount.String()))

	outcome, err := h.transactionService.CreateTransaction(c.Request.Context(), req, middleware.GetActorIDFromContext(c))
	if err != nil {
		respondError(c, err, "Failed to create transaction")
		return
	}

	c.JSON(http.StatusCreated, dto.ToTransactionOutcomeResponse(outcome))
}

// listTransactions godoc
// @Summary List transaction records
// @Description Lists records newest first, optionally filtered by status or category
// @Tags transactions
// @Produce  json
// @Param   status query string false "PENDING, COMPLETED or CANCELLED"
// @Param   category query string false "Category name"
// @Success 200 {object} dto.ListTransactionsResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Router /transactions [get]
func (h *transactionHandler) listTransactions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.ListTransactionsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query parameters for ListTransactions", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	filter := domain.TransactionFilter{Category: params.Category}
	if params.Status != "" {
		status := domain.TransactionStatus(params.Status)
		filter.Status = &status
	}

	records, err := h.transactionService.ListTransactions(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "Failed to list transactions")
		return
	}

	c.JSON(http.StatusOK, dto.ListTransactionsResponse{Transactions: dto.ToTransactionResponses(records)})
}

// getTransaction godoc
// @Summary Get a transaction record
// @Tags transactions
// @Produce  json
// @Param   id path string true "Transaction ID"
// @Success 200 {object} dto.TransactionResponse
// @Failure 404 {object} map[string]string "Transaction not found"
// @Router /transactions/{id} [get]
func (h *transactionHandler) getTransaction(c *gin.Context) {
	record, err := h.transactionService.GetTransactionByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to retrieve transaction")
		return
	}
	c.JSON(http.StatusOK, dto.ToTransactionResponse(record))
}

// editTransaction godoc
// @Summary Edit a transaction record
// @Description Applies a partial update. Old ledger effects are reversed and new ones applied.
// @Tags transactions
// @Accept  json
// @Produce  json
// @Param   id path string true "Transaction ID"
// @Param   transaction body dto.UpdateTransactionRequest true "Fields to change"
// @Success 200 {object} dto.TransactionOutcomeResponse
// @Failure 400 {object} map[string]string "Invalid input or status transition"
// @Failure 404 {object} map[string]string "Transaction or account not found"
// @Failure 409 {object} map[string]string "Version conflict"
// @Failure 422 {object} map[string]string "Insufficient funds"
// @Failure 500 {object} map[string]string "Ledger left inconsistent"
// @Router /transactions/{id} [patch]
func (h *transactionHandler) editTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for EditTransaction", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	outcome, err := h.transactionService.EditTransaction(c.Request.Context(), c.Param("id"), req, middleware.GetActorIDFromContext(c))
	if err != nil {
		respondError(c, err, "Failed to edit transaction")
		return
	}
	c.JSON(http.StatusOK, dto.ToTransactionOutcomeResponse(outcome))
}

// deleteTransaction godoc
// @Summary Delete a transaction record
// @Description Removes the record and reverses its ledger effects if it was COMPLETED
// @Tags transactions
// @Produce  json
// @Param   id path string true "Transaction ID"
// @Success 200 {object} dto.TransactionOutcomeResponse
// @Failure 404 {object} map[string]string "Transaction not found"
// @Failure 500 {object} map[string]string "Reversal failed"
// @Router /transactions/{id} [delete]
func (h *transactionHandler) deleteTransaction(c *gin.Context) {
	outcome, err := h.transactionService.DeleteTransaction(c.Request.Context(), c.Param("id"), middleware.GetActorIDFromContext(c))
	if err != nil {
		respondError(c, err, "Failed to delete transaction")
		return
	}
	c.JSON(http.StatusOK, dto.ToTransactionOutcomeResponse(outcome))
}
