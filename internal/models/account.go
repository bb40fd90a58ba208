package models

import (
	"github.com/shopspring/decimal"
)

// AccountKind mirrors domain.AccountKind for storage.
type AccountKind string

const (
	Bank     AccountKind = "BANK"
	Cash     AccountKind = "CASH"
	Category AccountKind = "CATEGORY"
)

// Account is the stored form of an account. Document stores (bolt, redis)
// persist it as JSON with the ledger embedded; postgres keeps the ledger in
// its own table and leaves Ledger empty on list queries.
type Account struct {
	AccountID         string          `db:"account_id" json:"account_id"`
	Name              string          `db:"name" json:"name"`
	Kind              AccountKind     `db:"kind" json:"kind"`
	Status            string          `db:"status" json:"status"`
	Balance           decimal.Decimal `db:"balance" json:"balance"`
	OpeningBalance    decimal.Decimal `db:"opening_balance" json:"opening_balance"`
	BankAccountNumber *string         `db:"bank_account_number" json:"bank_account_number,omitempty"`
	BankName          *string         `db:"bank_name" json:"bank_name,omitempty"`
	Version           int64           `db:"version" json:"version"`
	AuditFields
	Ledger []LedgerEntry `db:"-" json:"ledger"`
}
