package dto

import (
	"time"

	"github.com/SscSPs/club_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ListLedgerEntriesParams defines query parameters for paging an account statement.
type ListLedgerEntriesParams struct {
	Limit     int     `form:"limit,default=50" binding:"omitempty,min=1,max=500"`
	NextToken *string `form:"nextToken"`
}

// LedgerEntryResponse is a single statement line.
type LedgerEntryResponse struct {
	EntryID               string           `json:"entryID"`
	Amount                decimal.Decimal  `json:"amount"`
	Direction             domain.Direction `json:"direction"`
	EntryType             domain.EntryType `json:"entryType"`
	Description           string           `json:"description"`
	Timestamp             time.Time        `json:"timestamp"`
	SourceTransactionID   *string          `json:"sourceTransactionID,omitempty"`
	CounterpartyAccountID *string          `json:"counterpartyAccountID,omitempty"`
	BalanceAfter          decimal.Decimal  `json:"balanceAfter"`
}

// ListLedgerEntriesResponse wraps one page of ledger entries.
type ListLedgerEntriesResponse struct {
	AccountID string                `json:"accountID"`
	Entries   []LedgerEntryResponse `json:"entries"`
	NextToken *string               `json:"nextToken,omitempty"`
}

// ToLedgerEntryResponse converts a domain.LedgerEntry to its DTO.
func ToLedgerEntryResponse(e domain.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		EntryID:               e.EntryID,
		Amount:                e.Amount,
		Direction:             e.Direction,
		EntryType:             e.EntryType,
		Description:           e.Description,
		Timestamp:             e.Timestamp,
		SourceTransactionID:   e.SourceTransactionID,
		CounterpartyAccountID: e.CounterpartyAccountID,
		BalanceAfter:          e.BalanceAfter,
	}
}
