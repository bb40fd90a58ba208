package domain

import (
	"github.com/shopspring/decimal"
)

// AccountKind classifies what an account represents.
type AccountKind string

const (
	AccountKindBank     AccountKind = "BANK"
	AccountKindCash     AccountKind = "CASH"
	AccountKindCategory AccountKind = "CATEGORY" // category bucket used for reporting totals
)

// IsValid reports whether k is a known kind.
func (k AccountKind) IsValid() bool {
	switch k {
	case AccountKindBank, AccountKindCash, AccountKindCategory:
		return true
	}
	return false
}

// AccountStatus is the activity status of an account.
type AccountStatus string

const (
	AccountActive   AccountStatus = "ACTIVE"
	AccountInactive AccountStatus = "INACTIVE"
)

// IsValid reports whether s is a known status.
func (s AccountStatus) IsValid() bool {
	return s == AccountActive || s == AccountInactive
}

// BankDetails is opaque to the ledger engine.
type BankDetails struct {
	AccountNumber string `json:"accountNumber"`
	BankName      string `json:"bankName"`
}

// Account is a named balance holder with an embedded append-only ledger.
// Balance and Ledger are only ever written by the balance applier.
type Account struct {
	AccountID      string          `json:"accountID"`
	Name           string          `json:"name"`
	Kind           AccountKind     `json:"kind"`
	Status         AccountStatus   `json:"status"`
	Balance        decimal.Decimal `json:"balance"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
	BankDetails    *BankDetails    `json:"bankDetails,omitempty"`
	Ledger         []LedgerEntry   `json:"ledger"`
	Version        int64           `json:"version"` // optimistic concurrency token
	AuditFields
}

// IsActive reports whether the account accepts new postings.
func (a *Account) IsActive() bool {
	return a.Status == AccountActive
}

// LedgerTotal sums the signed amount of every entry, opening entry included.
func (a *Account) LedgerTotal() decimal.Decimal {
	total := decimal.Zero
	for _, e := range a.Ledger {
		total = total.Add(e.Signed())
	}
	return total
}

// IsConsistent reports whether the stored balance equals the ledger total.
func (a *Account) IsConsistent() bool {
	return a.Balance.Equal(a.LedgerTotal())
}

// AccountFilter narrows ListAccounts.
type AccountFilter struct {
	Kind            *AccountKind
	IncludeInactive bool
}

// Matches reports whether acc passes the filter.
func (f AccountFilter) Matches(acc *Account) bool {
	if f.Kind != nil && acc.Kind != *f.Kind {
		return false
	}
	if !f.IncludeInactive && !acc.IsActive() {
		return false
	}
	return true
}

// BalanceVerification is the result of recomputing an account's balance from its ledger.
type BalanceVerification struct {
	AccountID     string          `json:"accountID"`
	StoredBalance decimal.Decimal `json:"storedBalance"`
	LedgerTotal   decimal.Decimal `json:"ledgerTotal"`
	EntryCount    int             `json:"entryCount"`
	Consistent    bool            `json:"consistent"`
}
