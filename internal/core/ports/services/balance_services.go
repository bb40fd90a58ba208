package services

import (
	"context"

	"github.com/SscSPs/club_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// BalanceApplierSvc is the sole writer of account balances and ledgers.
type BalanceApplierSvc interface {
	// Apply adds signedAmount to the account balance and appends exactly one
	// ledger entry, retrying on optimistic conflicts up to the configured bound.
	Apply(ctx context.Context, accountID string, signedAmount decimal.Decimal, meta domain.EntryMeta) (*domain.ApplyResult, error)

	// Reverse applies the negation of a previously applied signed amount.
	Reverse(ctx context.Context, accountID string, appliedAmount decimal.Decimal, meta domain.EntryMeta) (*domain.ApplyResult, error)
}
