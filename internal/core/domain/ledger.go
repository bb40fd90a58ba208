package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction indicates whether a ledger entry increases or decreases a balance.
type Direction string

const (
	Credit Direction = "CREDIT"
	Debit  Direction = "DEBIT"
)

// DirectionOf returns Credit for positive amounts and Debit otherwise.
func DirectionOf(signed decimal.Decimal) Direction {
	if signed.IsPositive() {
		return Credit
	}
	return Debit
}

// EntryType labels why an entry was written. It is informational only.
type EntryType string

const (
	EntryOpening      EntryType = "OPENING"
	EntryPosting      EntryType = "POSTING"
	EntryReversal     EntryType = "REVERSAL"
	EntryTransfer     EntryType = "TRANSFER"
	EntryCompensation EntryType = "COMPENSATION"
)

// LedgerEntry is one immutable balance-affecting event on an account.
type LedgerEntry struct {
	EntryID               string          `json:"entryID"`
	Amount                decimal.Decimal `json:"amount"` // non-negative magnitude
	Direction             Direction       `json:"direction"`
	EntryType             EntryType       `json:"entryType"`
	Description           string          `json:"description"`
	Timestamp             time.Time       `json:"timestamp"`
	SourceTransactionID   *string         `json:"sourceTransactionID,omitempty"`
	CounterpartyAccountID *string         `json:"counterpartyAccountID,omitempty"`
	BalanceAfter          decimal.Decimal `json:"balanceAfter"`
	CreatedBy             string          `json:"createdBy"`
}

// Signed returns the entry amount with credit positive and debit negative.
func (e LedgerEntry) Signed() decimal.Decimal {
	if e.Direction == Debit {
		return e.Amount.Neg()
	}
	return e.Amount
}

// EntryMeta describes the ledger entry an apply call should write.
type EntryMeta struct {
	Description           string
	EntryType             EntryType
	SourceTransactionID   *string
	CounterpartyAccountID *string
	// RequireActive refuses the posting when the account is inactive.
	// Reversals and compensations leave it unset so history can always be unwound.
	RequireActive bool
	ActorID       string
}
