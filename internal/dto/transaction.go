package dto

import (
	"time"

	"github.com/SscSPs/club_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateTransactionRequest defines the data needed to record an income or expense.
type CreateTransactionRequest struct {
	Kind            domain.TransactionKind   `json:"kind" binding:"required,oneof=INCOME EXPENSE"`
	Amount          decimal.Decimal          `json:"amount" binding:"required,gt=0"`
	Category        string                   `json:"category" binding:"required"`
	Status          domain.TransactionStatus `json:"status" binding:"required,oneof=PENDING COMPLETED"`
	PaymentMethod   domain.PaymentMethod     `json:"paymentMethod" binding:"required,oneof=BANK CASH OTHER"`
	LinkedAccountID *string                  `json:"linkedAccountID"`
	Description     string                   `json:"description"`
	Reference       string                   `json:"reference"`
}

// UpdateTransactionRequest defines the fields an edit may change. Nil means unchanged.
// Switching PaymentMethod to OTHER clears the linked account.
type UpdateTransactionRequest struct {
	Kind            *domain.TransactionKind   `json:"kind" binding:"omitempty,oneof=INCOME EXPENSE"`
	Amount          *decimal.Decimal          `json:"amount" binding:"omitempty,gt=0"`
	Category        *string                   `json:"category"`
	Status          *domain.TransactionStatus `json:"status" binding:"omitempty,oneof=PENDING COMPLETED CANCELLED"`
	PaymentMethod   *domain.PaymentMethod     `json:"paymentMethod" binding:"omitempty,oneof=BANK CASH OTHER"`
	LinkedAccountID *string                   `json:"linkedAccountID"`
	Description     *string                   `json:"description"`
	Reference       *string                   `json:"reference"`
	Version         *int64                    `json:"version"` // optional optimistic check
}

// ListTransactionsParams defines query parameters for listing records.
type ListTransactionsParams struct {
	Status   string `form:"status" binding:"omitempty,oneof=PENDING COMPLETED CANCELLED"`
	Category string `form:"category"`
}

// TransactionResponse defines the data returned for a transaction record.
type TransactionResponse struct {
	TransactionID   string                   `json:"transactionID"`
	Kind            domain.TransactionKind   `json:"kind"`
	Amount          decimal.Decimal          `json:"amount"`
	Category        string                   `json:"category"`
	Status          domain.TransactionStatus `json:"status"`
	PaymentMethod   domain.PaymentMethod     `json:"paymentMethod"`
	LinkedAccountID *string                  `json:"linkedAccountID,omitempty"`
	Description     string                   `json:"description"`
	Reference       string                   `json:"reference"`
	Version         int64                    `json:"version"`
	CreatedAt       time.Time                `json:"createdAt"`
	CreatedBy       string                   `json:"createdBy"`
	UpdatedAt       time.Time                `json:"updatedAt"`
	UpdatedBy       string                   `json:"updatedBy"`
}

// AccountBalanceResponse is an account balance after an operation.
type AccountBalanceResponse struct {
	AccountID string          `json:"accountID"`
	Balance   decimal.Decimal `json:"balance"`
}

// TransactionOutcomeResponse is returned by create, edit and delete.
type TransactionOutcomeResponse struct {
	Transaction TransactionResponse      `json:"transaction"`
	Balances    []AccountBalanceResponse `json:"balances"`
}

// ListTransactionsResponse wraps a list of records.
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
}

// ToTransactionResponse converts a domain.TransactionRecord to its DTO.
func ToTransactionResponse(t *domain.TransactionRecord) TransactionResponse {
	return TransactionResponse{
		TransactionID:   t.TransactionID,
		Kind:            t.Kind,
		Amount:          t.Amount,
		Category:        t.Category,
		Status:          t.Status,
		PaymentMethod:   t.PaymentMethod,
		LinkedAccountID: t.LinkedAccountID,
		Description:     t.Description,
		Reference:       t.Reference,
		Version:         t.Version,
		CreatedAt:       t.CreatedAt,
		CreatedBy:       t.CreatedBy,
		UpdatedAt:       t.LastUpdatedAt,
		UpdatedBy:       t.LastUpdatedBy,
	}
}

// ToTransactionResponses converts a slice of records.
func ToTransactionResponses(records []domain.TransactionRecord) []TransactionResponse {
	res := make([]TransactionResponse, len(records))
	for i := range records {
		res[i] = ToTransactionResponse(&records[i])
	}
	return res
}

// ToTransactionOutcomeResponse converts a lifecycle outcome.
func ToTransactionOutcomeResponse(o *domain.TransactionOutcome) TransactionOutcomeResponse {
	balances := make([]AccountBalanceResponse, len(o.Balances))
	for i, b := range o.Balances {
		balances[i] = AccountBalanceResponse{AccountID: b.AccountID, Balance: b.Balance}
	}
	return TransactionOutcomeResponse{
		Transaction: ToTransactionResponse(o.Transaction),
		Balances:    balances,
	}
}
