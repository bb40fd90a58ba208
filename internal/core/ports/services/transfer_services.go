package services

import (
	"context"

	"github.com/SscSPs/club_ledger/internal/core/domain"
	"github.com/SscSPs/club_ledger/internal/dto"
)

// TransferSvc moves money between two accounts as a compensated two-leg posting.
type TransferSvc interface {
	TransferBetweenAccounts(ctx context.Context, req dto.TransferRequest, actorID string) (*domain.TransferResult, error)
}
