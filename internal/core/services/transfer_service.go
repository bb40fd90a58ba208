package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SscSPs/club_ledger/internal/apperrors"
	"github.com/SscSPs/club_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/club_ledger/internal/core/ports/services"
	"github.com/SscSPs/club_ledger/internal/dto"
	"github.com/google/uuid"
)

type transferService struct {
	postingSaga
}

// NewTransferService creates the transfer orchestrator on top of the balance applier.
func NewTransferService(applier portssvc.BalanceApplierSvc) portssvc.TransferSvc {
	return &transferService{postingSaga: postingSaga{applier: applier}}
}

var _ portssvc.TransferSvc = (*transferService)(nil)

// TransferBetweenAccounts debits the source and then credits the destination.
// A failed credit is compensated on the source and surfaces as a PartialTransferFailure.
func (s *transferService) TransferBetweenAccounts(ctx context.Context, req dto.TransferRequest, actorID string) (*domain.TransferResult, error) {
	if req.FromAccountID == "" || req.ToAccountID == "" {
		return nil, fmt.Errorf("%w: both accounts are required", apperrors.ErrValidation)
	}
	if req.FromAccountID == req.ToAccountID {
		return nil, fmt.Errorf("%w: cannot transfer to the same account", apperrors.ErrValidation)
	}
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: transfer amount must be positive", apperrors.ErrValidation)
	}

	description := req.Description
	if description == "" {
		description = "Transfer"
	}
	transferID := uuid.NewString()
	from, to := req.FromAccountID, req.ToAccountID
	legs := []postingLeg{
		{
			accountID: from,
			amount:    req.Amount.Neg(),
			meta: domain.EntryMeta{
				Description:           description,
				EntryType:             domain.EntryTransfer,
				SourceTransactionID:   &transferID,
				CounterpartyAccountID: &to,
				RequireActive:         true,
				ActorID:               actorID,
			},
		},
		{
			accountID: to,
			amount:    req.Amount,
			meta: domain.EntryMeta{
				Description:           description,
				EntryType:             domain.EntryTransfer,
				SourceTransactionID:   &transferID,
				CounterpartyAccountID: &from,
				RequireActive:         true,
				ActorID:               actorID,
			},
		},
	}

	applied, err := s.post(ctx, "transfer", legs)
	if err != nil {
		return nil, err
	}

	result := &domain.TransferResult{
		TransferID:    transferID,
		FromAccountID: from,
		ToAccountID:   to,
		Amount:        req.Amount,
		FromBalance:   applied[0].result.NewBalance,
		ToBalance:     applied[1].result.NewBalance,
		DebitEntryID:  applied[0].result.EntryID,
		CreditEntryID: applied[1].result.EntryID,
	}
	s.LogInfo(ctx, "Transfer completed",
		slog.String("transfer_id", result.TransferID),
		slog.String("from_account_id", from),
		slog.String("to_account_id", to),
		slog.String("amount", req.Amount.String()),
		slog.String("actor_id", actorID))
	return result, nil
}
