package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/club_ledger/internal/apperrors"
	"github.com/SscSPs/club_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/club_ledger/internal/core/ports/repositories"
	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy bounds how often a conflicting account write is retried.
type RetryPolicy struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy retries five times starting at 50ms.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:      5,
		InitialInterval: 50 * time.Millisecond,
		MaxInterval:     time.Second,
	}
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.InitialInterval
	exp.MaxInterval = p.MaxInterval
	exp.MaxElapsedTime = 0 // bounded by MaxRetries instead
	return backoff.WithContext(backoff.WithMaxRetries(exp, p.MaxRetries), ctx)
}

// updateWithRetry runs read, mutate, conditional-write against one account until
// the write commits or the retry budget is spent. Only ErrConflict is retried;
// mutate runs against a fresh read on every attempt.
func updateWithRetry(
	ctx context.Context,
	repo portsrepo.AccountRepositoryFacade,
	policy RetryPolicy,
	accountID string,
	mutate func(acc *domain.Account) error,
) (*domain.Account, error) {
	var (
		committed    *domain.Account
		mutateFailed bool
	)

	op := func() error {
		acc, err := repo.FindAccountByID(ctx, accountID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return backoff.Permanent(fmt.Errorf("%w: %s", apperrors.ErrAccountNotFound, accountID))
			}
			return backoff.Permanent(err)
		}
		expected := acc.Version
		if err := mutate(acc); err != nil {
			mutateFailed = true
			return backoff.Permanent(err)
		}
		if err := repo.PutAccount(ctx, *acc, expected); err != nil {
			if errors.Is(err, apperrors.ErrConflict) {
				return err
			}
			if errors.Is(err, apperrors.ErrNotFound) {
				return backoff.Permanent(fmt.Errorf("%w: %s", apperrors.ErrAccountNotFound, accountID))
			}
			return backoff.Permanent(err)
		}
		acc.Version = expected + 1
		committed = acc
		return nil
	}

	if err := backoff.Retry(op, policy.backOff(ctx)); err != nil {
		if !mutateFailed && errors.Is(err, apperrors.ErrConflict) {
			return nil, fmt.Errorf("%w: account %s still contended after %d retries",
				apperrors.ErrConflict, accountID, policy.MaxRetries)
		}
		return nil, err
	}
	return committed, nil
}
