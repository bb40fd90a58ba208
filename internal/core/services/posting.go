package services

import (
	"context"
	"log/slog"

	"github.com/SscSPs/club_ledger/internal/apperrors"
	"github.com/SscSPs/club_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/club_ledger/internal/core/ports/services"
	"github.com/shopspring/decimal"
)

// postingLeg is one balance change inside a multi-account posting.
// amount is the signed amount of the original effect; reverse undoes it.
type postingLeg struct {
	accountID string
	amount    decimal.Decimal
	reverse   bool
	meta      domain.EntryMeta
}

// effective is the signed amount this leg actually adds to the balance.
func (l postingLeg) effective() decimal.Decimal {
	if l.reverse {
		return l.amount.Neg()
	}
	return l.amount
}

type appliedLeg struct {
	leg    postingLeg
	result *domain.ApplyResult
}

// postingSaga applies legs in order. If a leg after the first fails, the
// already-applied legs are compensated in reverse order and the failure is
// reported as a PartialTransferFailure.
type postingSaga struct {
	BaseService
	applier portssvc.BalanceApplierSvc
}

func (s *postingSaga) post(ctx context.Context, operation string, legs []postingLeg) ([]appliedLeg, error) {
	applied := make([]appliedLeg, 0, len(legs))
	for i, leg := range legs {
		var (
			res *domain.ApplyResult
			err error
		)
		if leg.reverse {
			res, err = s.applier.Reverse(ctx, leg.accountID, leg.amount, leg.meta)
		} else {
			res, err = s.applier.Apply(ctx, leg.accountID, leg.amount, leg.meta)
		}
		if err == nil {
			applied = append(applied, appliedLeg{leg: leg, result: res})
			continue
		}
		if len(applied) == 0 {
			return nil, err
		}

		last := applied[len(applied)-1]
		failure := &apperrors.PartialTransferFailure{
			Operation:        operation,
			Amount:           leg.amount.Abs(),
			AppliedAccountID: last.leg.accountID,
			FailedAccountID:  leg.accountID,
			FailedLeg:        i + 1,
			Cause:            err,
		}
		if cerr := s.compensate(ctx, operation, applied, leg.accountID); cerr != nil {
			failure.CompensationErr = cerr
		} else {
			failure.Compensated = true
		}
		s.LogError(ctx, failure, "Multi-leg posting failed after a committed leg",
			slog.String("operation", operation),
			slog.Bool("compensated", failure.Compensated))
		return nil, failure
	}
	return applied, nil
}

// compensate undoes applied legs newest first. Compensation entries bypass the
// active-account check so history can always be unwound. It keeps going after a
// failed leg and returns the first error.
func (s *postingSaga) compensate(ctx context.Context, operation string, applied []appliedLeg, counterpartyID string) error {
	var firstErr error
	for i := len(applied) - 1; i >= 0; i-- {
		leg := applied[i].leg
		meta := domain.EntryMeta{
			Description:         "Compensation for failed " + operation + ": " + leg.meta.Description,
			EntryType:           domain.EntryCompensation,
			SourceTransactionID: leg.meta.SourceTransactionID,
			ActorID:             leg.meta.ActorID,
		}
		if counterpartyID != "" && counterpartyID != leg.accountID {
			cp := counterpartyID
			meta.CounterpartyAccountID = &cp
		}
		if _, err := s.applier.Apply(ctx, leg.accountID, leg.effective().Neg(), meta); err != nil {
			s.LogError(ctx, err, "Compensation failed, manual reconciliation required",
				slog.String("operation", operation),
				slog.String("account_id", leg.accountID),
				slog.String("amount", leg.effective().Neg().String()))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// balancesOf lists the resulting balance of each touched account, last write wins.
func balancesOf(applied []appliedLeg) []domain.AccountBalance {
	balances := []domain.AccountBalance{}
	index := map[string]int{}
	for _, a := range applied {
		if i, ok := index[a.result.AccountID]; ok {
			balances[i].Balance = a.result.NewBalance
			continue
		}
		index[a.result.AccountID] = len(balances)
		balances = append(balances, domain.AccountBalance{AccountID: a.result.AccountID, Balance: a.result.NewBalance})
	}
	return balances
}
