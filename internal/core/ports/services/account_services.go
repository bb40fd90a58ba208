package services

import (
	"context"

	"github.com/SscSPs/club_ledger/internal/core/domain"
	"github.com/SscSPs/club_ledger/internal/dto"
)

// AccountReaderSvc defines read operations for account data
type AccountReaderSvc interface {
	// GetAccountByID retrieves a specific account by its unique identifier.
	GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// ListAccounts retrieves accounts matching the filter.
	ListAccounts(ctx context.Context, filter domain.AccountFilter) ([]domain.Account, error)

	// ListLedgerEntries returns one page of an account's ledger in chronological order.
	ListLedgerEntries(ctx context.Context, accountID string, params dto.ListLedgerEntriesParams) (*dto.ListLedgerEntriesResponse, error)
}

// AccountWriterSvc defines write operations for account data
type AccountWriterSvc interface {
	// CreateAccount opens an account and records its opening balance as the first ledger entry.
	CreateAccount(ctx context.Context, req dto.CreateAccountRequest, actorID string) (*domain.Account, error)

	// UpdateAccount changes account metadata. Balance and ledger are untouched.
	UpdateAccount(ctx context.Context, accountID string, req dto.UpdateAccountRequest, actorID string) (*domain.Account, error)

	// DeactivateAccount marks an account as inactive.
	DeactivateAccount(ctx context.Context, accountID string, actorID string) error
}

// AccountVerifierSvc recomputes balances from ledgers.
type AccountVerifierSvc interface {
	VerifyAccountBalance(ctx context.Context, accountID string) (*domain.BalanceVerification, error)
}

// AccountSvcFacade combines all account-related service interfaces
type AccountSvcFacade interface {
	AccountReaderSvc
	AccountWriterSvc
	AccountVerifierSvc
}
