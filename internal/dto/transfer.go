package dto

import (
	"github.com/SscSPs/club_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// TransferRequest moves money between two accounts.
type TransferRequest struct {
	FromAccountID string          `json:"fromAccountID" binding:"required"`
	ToAccountID   string          `json:"toAccountID" binding:"required,nefield=FromAccountID"`
	Amount        decimal.Decimal `json:"amount" binding:"required,gt=0"`
	Description   string          `json:"description"`
}

// TransferResponse reports the balances after a transfer.
type TransferResponse struct {
	TransferID    string          `json:"transferID"`
	FromAccountID string          `json:"fromAccountID"`
	ToAccountID   string          `json:"toAccountID"`
	Amount        decimal.Decimal `json:"amount"`
	FromBalance   decimal.Decimal `json:"fromBalance"`
	ToBalance     decimal.Decimal `json:"toBalance"`
	DebitEntryID  string          `json:"debitEntryID"`
	CreditEntryID string          `json:"creditEntryID"`
}

// ToTransferResponse converts a domain.TransferResult.
func ToTransferResponse(r *domain.TransferResult) TransferResponse {
	return TransferResponse(*r)
}
