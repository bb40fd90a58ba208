package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// TransactionKind is the direction of money for a transaction record.
type TransactionKind string

const (
	Income  TransactionKind = "INCOME"
	Expense TransactionKind = "EXPENSE"
)

// TransactionStatus is the lifecycle status of a transaction record.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "PENDING"
	StatusCompleted TransactionStatus = "COMPLETED"
	StatusCancelled TransactionStatus = "CANCELLED"
)

// PaymentMethod determines which account, if any, a record posts through.
type PaymentMethod string

const (
	PaymentBank  PaymentMethod = "BANK"
	PaymentCash  PaymentMethod = "CASH"
	PaymentOther PaymentMethod = "OTHER"
)

// LinkedAccountKind returns the account kind a payment method routes through.
// The second result is false for methods that do not touch an account.
func (p PaymentMethod) LinkedAccountKind() (AccountKind, bool) {
	switch p {
	case PaymentBank:
		return AccountKindBank, true
	case PaymentCash:
		return AccountKindCash, true
	}
	return "", false
}

// TransactionRecord is a user-facing income or expense event.
// Its ledger effects exist iff Status is COMPLETED.
type TransactionRecord struct {
	TransactionID   string            `json:"transactionID"`
	Kind            TransactionKind   `json:"kind"`
	Amount          decimal.Decimal   `json:"amount"`
	Category        string            `json:"category"`
	Status          TransactionStatus `json:"status"`
	PaymentMethod   PaymentMethod     `json:"paymentMethod"`
	LinkedAccountID *string           `json:"linkedAccountID,omitempty"`
	Description     string            `json:"description"`
	Reference       string            `json:"reference"`
	Version         int64             `json:"version"`
	AuditFields
}

// SignedAmount is +Amount for income and -Amount for expense.
func (t *TransactionRecord) SignedAmount() decimal.Decimal {
	if t.Kind == Expense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// AffectsLedger reports whether the record currently has ledger effects.
func (t *TransactionRecord) AffectsLedger() bool {
	return t.Status == StatusCompleted
}

// Validate checks the record's own fields. It does not look up accounts.
func (t *TransactionRecord) Validate() error {
	switch t.Kind {
	case Income, Expense:
	default:
		return fmt.Errorf("unknown transaction kind %q", t.Kind)
	}
	if !t.Amount.IsPositive() {
		return errors.New("amount must be positive")
	}
	if strings.TrimSpace(t.Category) == "" {
		return errors.New("category is required")
	}
	switch t.Status {
	case StatusPending, StatusCompleted, StatusCancelled:
	default:
		return fmt.Errorf("unknown transaction status %q", t.Status)
	}
	switch t.PaymentMethod {
	case PaymentBank, PaymentCash:
		if t.LinkedAccountID == nil || *t.LinkedAccountID == "" {
			return fmt.Errorf("payment method %s requires a linked account", t.PaymentMethod)
		}
	case PaymentOther:
		if t.LinkedAccountID != nil {
			return errors.New("payment method OTHER must not have a linked account")
		}
	default:
		return fmt.Errorf("unknown payment method %q", t.PaymentMethod)
	}
	return nil
}

// CanTransition reports whether a record may move from one status to another.
// Cancelled is terminal for ledger effects; Completed cannot return to Pending.
func CanTransition(from, to TransactionStatus) bool {
	switch from {
	case StatusPending:
		return to == StatusPending || to == StatusCompleted || to == StatusCancelled
	case StatusCompleted:
		return to == StatusCompleted || to == StatusCancelled
	case StatusCancelled:
		return to == StatusCancelled
	}
	return false
}

// TransactionFilter narrows ListTransactions.
type TransactionFilter struct {
	Status   *TransactionStatus
	Category string
}

// Matches reports whether rec passes the filter.
func (f TransactionFilter) Matches(rec *TransactionRecord) bool {
	if f.Status != nil && rec.Status != *f.Status {
		return false
	}
	if f.Category != "" && !strings.EqualFold(f.Category, rec.Category) {
		return false
	}
	return true
}
