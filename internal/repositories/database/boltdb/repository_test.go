package boltdb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/SscSPs/club_ledger/internal/apperrors"
	"github.com/SscSPs/club_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/club_ledger/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
)

func newTestProvider(t *testing.T) portsrepo.RepositoryProvider {
	t.Helper()
	db, err := bolt.Open(filepath.Join(t.TempDir(), "test.db"), 0o600, &bolt.Options{Timeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	provider, err := NewRepositoryProvider(db)
	require.NoError(t, err)
	return provider
}

func sampleAccount(id, name string, kind domain.AccountKind) domain.Account {
	return domain.Account{
		AccountID: id,
		Name:      name,
		Kind:      kind,
		Status:    domain.AccountActive,
		Balance:   decimal.NewFromInt(10),
		Ledger: []domain.LedgerEntry{{
			EntryID:      "e-1",
			Amount:       decimal.NewFromInt(10),
			Direction:    domain.Credit,
			EntryType:    domain.EntryOpening,
			BalanceAfter: decimal.NewFromInt(10),
		}},
		OpeningBalance: decimal.NewFromInt(10),
		Version:        1,
	}
}

func TestAccountRepository_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	repo := newTestProvider(t).AccountRepo

	acc := sampleAccount("a-1", "Main Bank", domain.AccountKindBank)
	acc.BankDetails = &domain.BankDetails{AccountNumber: "001", BankName: "Mutual"}
	require.NoError(t, repo.SaveAccount(ctx, acc))

	got, err := repo.FindAccountByID(ctx, "a-1")
	require.NoError(t, err)
	assert.Equal(t, "Main Bank", got.Name)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, "Mutual", got.BankDetails.BankName)
	require.Len(t, got.Ledger, 1)
	assert.Equal(t, domain.EntryOpening, got.Ledger[0].EntryType)

	_, err = repo.FindAccountByID(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	assert.ErrorIs(t, repo.SaveAccount(ctx, acc), apperrors.ErrDuplicate)
}

func TestAccountRepository_CategoryIndex(t *testing.T) {
	ctx := context.Background()
	repo := newTestProvider(t).AccountRepo

	require.NoError(t, repo.SaveAccount(ctx, sampleAccount("c-1", "Sponsorship", domain.AccountKindCategory)))

	got, err := repo.FindCategoryAccount(ctx, "  sponsorship ")
	require.NoError(t, err)
	assert.Equal(t, "c-1", got.AccountID)

	err = repo.SaveAccount(ctx, sampleAccount("c-2", "SPONSORSHIP", domain.AccountKindCategory))
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)

	_, err = repo.FindCategoryAccount(ctx, "Catering")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// renaming moves the index entry
	got.Name = "Sponsors"
	require.NoError(t, repo.PutAccount(ctx, *got, 1))
	_, err = repo.FindCategoryAccount(ctx, "sponsorship")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	renamed, err := repo.FindCategoryAccount(ctx, "sponsors")
	require.NoError(t, err)
	assert.Equal(t, int64(2), renamed.Version)
}

func TestAccountRepository_PutAccountVersioning(t *testing.T) {
	ctx := context.Background()
	repo := newTestProvider(t).AccountRepo
	require.NoError(t, repo.SaveAccount(ctx, sampleAccount("a-1", "Main Bank", domain.AccountKindBank)))

	acc, err := repo.FindAccountByID(ctx, "a-1")
	require.NoError(t, err)
	acc.Balance = decimal.NewFromInt(15)
	acc.Ledger = append(acc.Ledger, domain.LedgerEntry{EntryID: "e-2", Amount: decimal.NewFromInt(5), Direction: domain.Credit})
	require.NoError(t, repo.PutAccount(ctx, *acc, 1))

	// a second writer holding the old version loses
	err = repo.PutAccount(ctx, *acc, 1)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	stored, err := repo.FindAccountByID(ctx, "a-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.Version)
	assert.Len(t, stored.Ledger, 2)

	stored.Ledger = stored.Ledger[:1]
	assert.ErrorIs(t, repo.PutAccount(ctx, *stored, 2), apperrors.ErrValidation)

	missing := sampleAccount("nope", "Nope", domain.AccountKindCash)
	assert.ErrorIs(t, repo.PutAccount(ctx, missing, 1), apperrors.ErrNotFound)
}

func TestAccountRepository_ListAccounts(t *testing.T) {
	ctx := context.Background()
	repo := newTestProvider(t).AccountRepo

	require.NoError(t, repo.SaveAccount(ctx, sampleAccount("a-1", "zeta bank", domain.AccountKindBank)))
	require.NoError(t, repo.SaveAccount(ctx, sampleAccount("a-2", "Alpha Cash", domain.AccountKindCash)))
	inactive := sampleAccount("a-3", "Mid Bank", domain.AccountKindBank)
	inactive.Status = domain.AccountInactive
	require.NoError(t, repo.SaveAccount(ctx, inactive))

	accounts, err := repo.ListAccounts(ctx, domain.AccountFilter{})
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "Alpha Cash", accounts[0].Name)
	assert.Equal(t, "zeta bank", accounts[1].Name)

	kind := domain.AccountKindBank
	banks, err := repo.ListAccounts(ctx, domain.AccountFilter{Kind: &kind, IncludeInactive: true})
	require.NoError(t, err)
	assert.Len(t, banks, 2)
}

func sampleRecord(id string, created time.Time) domain.TransactionRecord {
	linked := "a-1"
	return domain.TransactionRecord{
		TransactionID:   id,
		Kind:            domain.Income,
		Amount:          decimal.NewFromInt(25),
		Category:        "Dues",
		Status:          domain.StatusCompleted,
		PaymentMethod:   domain.PaymentBank,
		LinkedAccountID: &linked,
		Version:         1,
		AuditFields:     domain.AuditFields{CreatedAt: created, LastUpdatedAt: created},
	}
}

func TestTransactionRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newTestProvider(t).TransactionRepo
	now := time.Now().UTC()

	rec := sampleRecord("t-1", now)
	require.NoError(t, repo.SaveTransaction(ctx, rec))
	assert.ErrorIs(t, repo.SaveTransaction(ctx, rec), apperrors.ErrDuplicate)

	got, err := repo.FindTransactionByID(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, "a-1", *got.LinkedAccountID)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(25)))

	got.Status = domain.StatusCancelled
	got.Version = 2
	require.NoError(t, repo.UpdateTransaction(ctx, *got, 1))
	assert.ErrorIs(t, repo.UpdateTransaction(ctx, *got, 1), apperrors.ErrConflict)

	assert.ErrorIs(t, repo.DeleteTransaction(ctx, "t-1", 1), apperrors.ErrConflict)
	require.NoError(t, repo.DeleteTransaction(ctx, "t-1", 2))

	_, err = repo.FindTransactionByID(ctx, "t-1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.ErrorIs(t, repo.DeleteTransaction(ctx, "t-1", 2), apperrors.ErrNotFound)
}

func TestTransactionRepository_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := newTestProvider(t).TransactionRepo
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.SaveTransaction(ctx, sampleRecord("t-old", base)))
	require.NoError(t, repo.SaveTransaction(ctx, sampleRecord("t-new", base.Add(time.Hour))))
	pending := sampleRecord("t-pending", base.Add(2*time.Hour))
	pending.Status = domain.StatusPending
	pending.Category = "Catering"
	require.NoError(t, repo.SaveTransaction(ctx, pending))

	all, err := repo.ListTransactions(ctx, domain.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "t-pending", all[0].TransactionID)
	assert.Equal(t, "t-old", all[2].TransactionID)

	completed := domain.StatusCompleted
	filtered, err := repo.ListTransactions(ctx, domain.TransactionFilter{Status: &completed, Category: "dues"})
	require.NoError(t, err)
	assert.Len(t, filtered, 2)
}
