package repositories

import (
	"context"

	"github.com/SscSPs/club_ledger/internal/core/domain"
)

// AccountReader defines read operations for account data
type AccountReader interface {
	// FindAccountByID retrieves an account, ledger included. Returns apperrors.ErrNotFound when missing.
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// FindCategoryAccount retrieves the category bucket with the given name (case-insensitive).
	FindCategoryAccount(ctx context.Context, name string) (*domain.Account, error)

	// ListAccounts retrieves accounts matching the filter, ordered by name.
	// Implementations may leave Ledger empty.
	ListAccounts(ctx context.Context, filter domain.AccountFilter) ([]domain.Account, error)
}

// AccountWriter defines write operations for account data
type AccountWriter interface {
	// SaveAccount persists a new account with its opening ledger.
	// Returns apperrors.ErrDuplicate if the ID or a category name is taken.
	SaveAccount(ctx context.Context, account domain.Account) error

	// PutAccount replaces the stored account if its version still equals
	// expectedVersion, and stores it as expectedVersion+1. A version mismatch
	// returns apperrors.ErrConflict. Ledger entries already stored are never
	// rewritten; only the tail beyond the stored length is appended.
	PutAccount(ctx context.Context, account domain.Account, expectedVersion int64) error
}

// AccountRepositoryFacade combines all account-related repository interfaces
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
}
