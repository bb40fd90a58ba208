package repositories

import (
	"context"

	"github.com/SscSPs/club_ledger/internal/core/domain"
)

// TransactionRecordReader defines read operations for transaction records
type TransactionRecordReader interface {
	FindTransactionByID(ctx context.Context, transactionID string) (*domain.TransactionRecord, error)

	// ListTransactions returns matching records, newest first.
	ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.TransactionRecord, error)
}

// TransactionRecordWriter defines versioned write operations for transaction records
type TransactionRecordWriter interface {
	// SaveTransaction inserts a record as-is. Returns apperrors.ErrDuplicate if the ID exists.
	SaveTransaction(ctx context.Context, record domain.TransactionRecord) error

	// UpdateTransaction replaces the record if its stored version equals expectedVersion.
	// The record's own Version field is stored verbatim.
	UpdateTransaction(ctx context.Context, record domain.TransactionRecord, expectedVersion int64) error

	// DeleteTransaction removes the record if its stored version equals expectedVersion.
	DeleteTransaction(ctx context.Context, transactionID string, expectedVersion int64) error
}

// TransactionRecordRepositoryFacade combines all transaction record repository interfaces
type TransactionRecordRepositoryFacade interface {
	TransactionRecordReader
	TransactionRecordWriter
}
