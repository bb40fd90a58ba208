package services

import (
	"context"

	"github.com/SscSPs/club_ledger/internal/core/domain"
	"github.com/SscSPs/club_ledger/internal/dto"
)

// TransactionReaderSvc defines read operations for transaction records
type TransactionReaderSvc interface {
	GetTransactionByID(ctx context.Context, transactionID string) (*domain.TransactionRecord, error)
	ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.TransactionRecord, error)
}

// TransactionLifecycleSvc creates, edits and deletes records while keeping
// account ledgers in step with each record's status.
type TransactionLifecycleSvc interface {
	CreateTransaction(ctx context.Context, req dto.CreateTransactionRequest, actorID string) (*domain.TransactionOutcome, error)
	EditTransaction(ctx context.Context, transactionID string, req dto.UpdateTransactionRequest, actorID string) (*domain.TransactionOutcome, error)
	DeleteTransaction(ctx context.Context, transactionID string, actorID string) (*domain.TransactionOutcome, error)
}

// TransactionSvcFacade combines all transaction record service interfaces
type TransactionSvcFacade interface {
	TransactionReaderSvc
	TransactionLifecycleSvc
}
