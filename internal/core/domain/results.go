package domain

import "github.com/shopspring/decimal"

// ApplyResult is what a single balance application produced.
type ApplyResult struct {
	AccountID  string          `json:"accountID"`
	EntryID    string          `json:"entryID"`
	NewBalance decimal.Decimal `json:"newBalance"`
}

// AccountBalance is an account's balance after an operation touched it.
type AccountBalance struct {
	AccountID string          `json:"accountID"`
	Balance   decimal.Decimal `json:"balance"`
}

// TransactionOutcome is returned by every lifecycle operation.
type TransactionOutcome struct {
	Transaction *TransactionRecord `json:"transaction"`
	Balances    []AccountBalance   `json:"balances"`
}

// TransferResult describes a completed transfer between two accounts.
type TransferResult struct {
	TransferID    string          `json:"transferID"`
	FromAccountID string          `json:"fromAccountID"`
	ToAccountID   string          `json:"toAccountID"`
	Amount        decimal.Decimal `json:"amount"`
	FromBalance   decimal.Decimal `json:"fromBalance"`
	ToBalance     decimal.Decimal `json:"toBalance"`
	DebitEntryID  string          `json:"debitEntryID"`
	CreditEntryID string          `json:"creditEntryID"`
}
