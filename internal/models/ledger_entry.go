package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry is the stored form of a ledger entry. Seq is its position in
// the owning account's ledger, starting at zero with the opening entry.
type LedgerEntry struct {
	EntryID               string          `db:"entry_id" json:"entry_id"`
	AccountID             string          `db:"account_id" json:"account_id"`
	Seq                   int             `db:"seq" json:"seq"`
	Amount                decimal.Decimal `db:"amount" json:"amount"`
	Direction             string          `db:"direction" json:"direction"`
	EntryType             string          `db:"entry_type" json:"entry_type"`
	Description           string          `db:"description" json:"description"`
	Timestamp             time.Time       `db:"entry_timestamp" json:"timestamp"`
	SourceTransactionID   *string         `db:"source_transaction_id" json:"source_transaction_id,omitempty"`
	CounterpartyAccountID *string         `db:"counterparty_account_id" json:"counterparty_account_id,omitempty"`
	BalanceAfter          decimal.Decimal `db:"balance_after" json:"balance_after"`
	CreatedBy             string          `db:"created_by" json:"created_by"`
}
