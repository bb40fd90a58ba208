package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/club_ledger/internal/apperrors"
	"github.com/SscSPs/club_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/club_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/club_ledger/internal/core/ports/services"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// balanceApplier is the only code path that writes account balances and ledgers.
type balanceApplier struct {
	BaseService
	accountRepo portsrepo.AccountRepositoryFacade
	policy      domain.BalancePolicy
	retry       RetryPolicy
}

// ApplierOption is a functional option for configuring the balance applier
type ApplierOption func(*balanceApplier)

// WithBalancePolicy sets which account kinds may go negative.
func WithBalancePolicy(policy domain.BalancePolicy) ApplierOption {
	return func(a *balanceApplier) {
		a.policy = policy
	}
}

// WithRetryPolicy bounds optimistic retries.
func WithRetryPolicy(policy RetryPolicy) ApplierOption {
	return func(a *balanceApplier) {
		a.retry = policy
	}
}

// WithClock overrides the time source used for entry timestamps.
func WithClock(now func() time.Time) ApplierOption {
	return func(a *balanceApplier) {
		a.now = now
	}
}

// NewBalanceApplier creates the balance applier with the provided options
func NewBalanceApplier(repo portsrepo.AccountRepositoryFacade, options ...ApplierOption) portssvc.BalanceApplierSvc {
	a := &balanceApplier{
		accountRepo: repo,
		policy:      domain.DefaultBalancePolicy(),
		retry:       DefaultRetryPolicy(),
	}
	for _, option := range options {
		option(a)
	}
	return a
}

var _ portssvc.BalanceApplierSvc = (*balanceApplier)(nil)

func (a *balanceApplier) Apply(ctx context.Context, accountID string, signedAmount decimal.Decimal, meta domain.EntryMeta) (*domain.ApplyResult, error) {
	if signedAmount.IsZero() {
		return nil, fmt.Errorf("%w: amount must be non-zero", apperrors.ErrValidation)
	}
	actor := meta.ActorID
	if actor == "" {
		actor = domain.SystemActor
	}

	var entryID string
	acc, err := updateWithRetry(ctx, a.accountRepo, a.retry, accountID, func(acc *domain.Account) error {
		if meta.RequireActive && !acc.IsActive() {
			return fmt.Errorf("%w: %s", apperrors.ErrAccountInactive, acc.AccountID)
		}
		newBalance := acc.Balance.Add(signedAmount)
		if !a.policy.Permits(acc.Kind, newBalance) {
			return fmt.Errorf("%w: account %s has %s, posting %s",
				apperrors.ErrInsufficientFunds, acc.AccountID, acc.Balance.String(), signedAmount.String())
		}

		now := a.Now()
		entryID = uuid.NewString()
		acc.Ledger = append(acc.Ledger, domain.LedgerEntry{
			EntryID:               entryID,
			Amount:                signedAmount.Abs(),
			Direction:             domain.DirectionOf(signedAmount),
			EntryType:             meta.EntryType,
			Description:           meta.Description,
			Timestamp:             now,
			SourceTransactionID:   meta.SourceTransactionID,
			CounterpartyAccountID: meta.CounterpartyAccountID,
			BalanceAfter:          newBalance,
			CreatedBy:             actor,
		})
		acc.Balance = newBalance
		acc.LastUpdatedAt = now
		acc.LastUpdatedBy = actor
		return nil
	})
	if err != nil {
		a.LogDebug(ctx, "Balance application failed",
			slog.String("account_id", accountID),
			slog.String("amount", signedAmount.String()),
			slog.String("error", err.Error()))
		return nil, err
	}

	a.LogDebug(ctx, "Balance applied",
		slog.String("account_id", accountID),
		slog.String("entry_id", entryID),
		slog.String("amount", signedAmount.String()),
		slog.String("new_balance", acc.Balance.String()))

	return &domain.ApplyResult{
		AccountID:  acc.AccountID,
		EntryID:    entryID,
		NewBalance: acc.Balance,
	}, nil
}

func (a *balanceApplier) Reverse(ctx context.Context, accountID string, appliedAmount decimal.Decimal, meta domain.EntryMeta) (*domain.ApplyResult, error) {
	if meta.EntryType == "" {
		meta.EntryType = domain.EntryReversal
	}
	meta.Description = "Reversal of " + meta.Description
	return a.Apply(ctx, accountID, appliedAmount.Neg(), meta)
}
