package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/club_ledger/internal/apperrors"
	"github.com/SscSPs/club_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// respondError maps a service error onto an HTTP status and JSON body.
// Partial failures are checked first since they also wrap their cause.
func respondError(c *gin.Context, err error, fallback string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var partial *apperrors.PartialTransferFailure
	var inconsistent *apperrors.RecoverableInconsistency
	switch {
	case errors.As(err, &partial):
		logger.Error("Partial posting failure", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": err.Error(),
			"details": gin.H{
				"operation":        partial.Operation,
				"amount":           partial.Amount,
				"appliedAccountID": partial.AppliedAccountID,
				"failedAccountID":  partial.FailedAccountID,
				"failedLeg":        partial.FailedLeg,
				"compensated":      partial.Compensated,
			},
		})
	case errors.As(err, &inconsistent):
		logger.Error("Ledger left in recoverable inconsistent state", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": err.Error(),
			"details": gin.H{
				"transactionID":      inconsistent.TransactionID,
				"reversedAccountIDs": inconsistent.ReversedAccountIDs,
				"parked":             inconsistent.Parked,
			},
		})
	case errors.Is(err, apperrors.ErrInsufficientFunds):
		logger.Warn("Insufficient funds", slog.String("error", err.Error()))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrConflict), errors.Is(err, apperrors.ErrDuplicate):
		logger.Warn("Conflict", slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		logger.Warn("Resource not found", slog.String("error", err.Error()))
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrValidation):
		logger.Warn("Validation error", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.Error(fallback, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
