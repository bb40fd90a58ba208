package services_test

import (
	"context"
	"errors"
	"math/rand"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/club_ledger/internal/apperrors"
	"github.com/SscSPs/club_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/club_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/club_ledger/internal/core/ports/services"
	"github.com/SscSPs/club_ledger/internal/core/services"
	"github.com/SscSPs/club_ledger/internal/dto"
	"github.com/SscSPs/club_ledger/internal/repositories/database/boltdb"
	"github.com/SscSPs/club_ledger/pkg/database"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	bolt "go.etcd.io/bbolt"
)

const testActor = "treasurer"

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func strPtr(s string) *string {
	return &s
}

// LedgerEngineTestSuite runs the services against a real bbolt file.
type LedgerEngineTestSuite struct {
	suite.Suite
	ctx       context.Context
	db        *bolt.DB
	repos     portsrepo.RepositoryProvider
	accounts  portssvc.AccountSvcFacade
	applier   portssvc.BalanceApplierSvc
	txns      portssvc.TransactionSvcFacade
	transfers portssvc.TransferSvc
}

func (s *LedgerEngineTestSuite) SetupTest() {
	s.ctx = context.Background()

	db, err := database.OpenBolt(filepath.Join(s.T().TempDir(), "ledger.db"))
	s.Require().NoError(err)
	s.db = db

	repos, err := boltdb.NewRepositoryProvider(db)
	s.Require().NoError(err)
	s.repos = repos

	retry := services.RetryPolicy{MaxRetries: 50, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond}
	s.applier = services.NewBalanceApplier(repos.AccountRepo, services.WithRetryPolicy(retry))
	s.accounts = services.NewAccountService(repos.AccountRepo, services.WithAccountRetryPolicy(retry))
	s.txns = services.NewTransactionService(repos.TransactionRepo, repos.AccountRepo, s.applier)
	s.transfers = services.NewTransferService(s.applier)
}

func (s *LedgerEngineTestSuite) TearDownTest() {
	s.Require().NoError(s.db.Close())
}

func TestLedgerEngineTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerEngineTestSuite))
}

// --- helpers ---

func (s *LedgerEngineTestSuite) createAccount(name string, kind domain.AccountKind, opening int64) *domain.Account {
	acc, err := s.accounts.CreateAccount(s.ctx, dto.CreateAccountRequest{
		Name:           name,
		Kind:           kind,
		OpeningBalance: dec(opening),
	}, testActor)
	s.Require().NoError(err)
	return acc
}

func (s *LedgerEngineTestSuite) balance(accountID string) decimal.Decimal {
	acc, err := s.accounts.GetAccountByID(s.ctx, accountID)
	s.Require().NoError(err)
	return acc.Balance
}

func (s *LedgerEngineTestSuite) assertBalance(accountID string, want int64) {
	got := s.balance(accountID)
	s.True(got.Equal(dec(want)), "account %s: want %d, got %s", accountID, want, got)
}

func (s *LedgerEngineTestSuite) assertConsistent(accountID string) {
	v, err := s.accounts.VerifyAccountBalance(s.ctx, accountID)
	s.Require().NoError(err)
	s.True(v.Consistent, "account %s: stored %s, ledger %s", accountID, v.StoredBalance, v.LedgerTotal)
}

func (s *LedgerEngineTestSuite) completedIncome(amount int64, category, bankID string) *domain.TransactionOutcome {
	out, err := s.txns.CreateTransaction(s.ctx, dto.CreateTransactionRequest{
		Kind:            domain.Income,
		Amount:          dec(amount),
		Category:        category,
		Status:          domain.StatusCompleted,
		PaymentMethod:   domain.PaymentBank,
		LinkedAccountID: strPtr(bankID),
	}, testActor)
	s.Require().NoError(err)
	return out
}

func posting(description string) domain.EntryMeta {
	return domain.EntryMeta{Description: description, EntryType: domain.EntryPosting, RequireActive: true, ActorID: testActor}
}

// --- balance applier ---

func (s *LedgerEngineTestSuite) TestScenario1_InsufficientFunds() {
	a := s.createAccount("Main Bank", domain.AccountKindBank, 1000)

	res, err := s.applier.Apply(s.ctx, a.AccountID, dec(-1000), posting("drain"))
	s.Require().NoError(err)
	s.True(res.NewBalance.IsZero())

	_, err = s.applier.Apply(s.ctx, a.AccountID, dec(-1), posting("overdraw"))
	s.ErrorIs(err, apperrors.ErrInsufficientFunds)
	s.assertBalance(a.AccountID, 0)
	s.assertConsistent(a.AccountID)
}

func (s *LedgerEngineTestSuite) TestApply_ZeroAmountRejected() {
	a := s.createAccount("Petty Cash", domain.AccountKindCash, 10)
	_, err := s.applier.Apply(s.ctx, a.AccountID, decimal.Zero, posting("nothing"))
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *LedgerEngineTestSuite) TestApply_UnknownAccount() {
	_, err := s.applier.Apply(s.ctx, uuid.NewString(), dec(5), posting("ghost"))
	s.ErrorIs(err, apperrors.ErrAccountNotFound)
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *LedgerEngineTestSuite) TestApply_CategoryMayGoNegative() {
	bucket := s.createAccount("Equipment", domain.AccountKindCategory, 0)
	_, err := s.applier.Apply(s.ctx, bucket.AccountID, dec(-75), posting("overrun"))
	s.Require().NoError(err)
	s.assertBalance(bucket.AccountID, -75)
}

func (s *LedgerEngineTestSuite) TestApply_InactiveAccountRefusesNewPostingsButNotReversals() {
	a := s.createAccount("Old Bank", domain.AccountKindBank, 100)
	s.Require().NoError(s.accounts.DeactivateAccount(s.ctx, a.AccountID, testActor))

	_, err := s.applier.Apply(s.ctx, a.AccountID, dec(10), posting("deposit"))
	s.ErrorIs(err, apperrors.ErrAccountInactive)
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.applier.Reverse(s.ctx, a.AccountID, dec(40), domain.EntryMeta{Description: "old fee", ActorID: testActor})
	s.Require().NoError(err)
	s.assertBalance(a.AccountID, 60)
}

func (s *LedgerEngineTestSuite) TestReversalLeavesBothEntries() {
	a := s.createAccount("Main Bank", domain.AccountKindBank, 0)

	applied, err := s.applier.Apply(s.ctx, a.AccountID, dec(250), posting("dues"))
	s.Require().NoError(err)
	reversed, err := s.applier.Reverse(s.ctx, a.AccountID, dec(250), posting("dues"))
	s.Require().NoError(err)
	s.NotEqual(applied.EntryID, reversed.EntryID)

	acc, err := s.accounts.GetAccountByID(s.ctx, a.AccountID)
	s.Require().NoError(err)
	s.Require().Len(acc.Ledger, 2)
	s.Equal(domain.Credit, acc.Ledger[0].Direction)
	s.Equal(domain.Debit, acc.Ledger[1].Direction)
	s.Equal(domain.EntryPosting, acc.Ledger[0].EntryType)
	s.Equal("Reversal of dues", acc.Ledger[1].Description)
	s.True(acc.Ledger[1].BalanceAfter.IsZero())
	s.True(acc.Balance.IsZero())
}

func (s *LedgerEngineTestSuite) TestRandomSequencePreservesInvariant() {
	a := s.createAccount("Main Bank", domain.AccountKindBank, 500)
	rng := rand.New(rand.NewSource(42))

	expected := dec(500)
	for i := 0; i < 60; i++ {
		amount := dec(int64(rng.Intn(400) - 200))
		if amount.IsZero() {
			continue
		}
		_, err := s.applier.Apply(s.ctx, a.AccountID, amount, posting("random"))
		if err != nil {
			s.Require().ErrorIs(err, apperrors.ErrInsufficientFunds)
			s.True(expected.Add(amount).IsNegative())
			continue
		}
		expected = expected.Add(amount)
		s.False(expected.IsNegative())
	}

	s.True(s.balance(a.AccountID).Equal(expected))
	s.assertConsistent(a.AccountID)
}

func (s *LedgerEngineTestSuite) TestConcurrentAppliesLoseNoUpdates() {
	a := s.createAccount("Main Bank", domain.AccountKindBank, 0)

	const workers, perWorker = 10, 5
	var wg sync.WaitGroup
	errs := make(chan error, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				if _, err := s.applier.Apply(s.ctx, a.AccountID, dec(10), posting("concurrent")); err != nil {
					errs <- err
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		s.NoError(err)
	}

	acc, err := s.accounts.GetAccountByID(s.ctx, a.AccountID)
	s.Require().NoError(err)
	s.True(acc.Balance.Equal(dec(workers*perWorker*10)))
	s.Len(acc.Ledger, workers*perWorker)
	s.True(acc.IsConsistent())
}

// --- lifecycle ---

func (s *LedgerEngineTestSuite) TestScenario2_CreateCompletedIncome() {
	a := s.createAccount("Main Bank", domain.AccountKindBank, 0)
	bucket := s.createAccount("Sponsorship", domain.AccountKindCategory, 0)

	out := s.completedIncome(500, "Sponsorship", a.AccountID)

	s.Equal(int64(1), out.Transaction.Version)
	s.Require().Len(out.Balances, 2)
	s.Equal(a.AccountID, out.Balances[0].AccountID)
	s.Equal(bucket.AccountID, out.Balances[1].AccountID)
	s.assertBalance(a.AccountID, 500)
	s.assertBalance(bucket.AccountID, 500)

	acc, err := s.accounts.GetAccountByID(s.ctx, a.AccountID)
	s.Require().NoError(err)
	s.Require().Len(acc.Ledger, 1)
	s.Equal(out.Transaction.TransactionID, *acc.Ledger[0].SourceTransactionID)
}

func (s *LedgerEngineTestSuite) TestScenario3_EditAmountNetsOut() {
	a := s.createAccount("Main Bank", domain.AccountKindBank, 0)
	bucket := s.createAccount("Sponsorship", domain.AccountKindCategory, 0)
	out := s.completedIncome(500, "Sponsorship", a.AccountID)

	amount := dec(300)
	edited, err := s.txns.EditTransaction(s.ctx, out.Transaction.TransactionID, dto.UpdateTransactionRequest{Amount: &amount}, testActor)
	s.Require().NoError(err)

	s.Equal(int64(2), edited.Transaction.Version)
	s.assertBalance(a.AccountID, 300)
	s.assertBalance(bucket.AccountID, 300)
	s.assertConsistent(a.AccountID)
	s.assertConsistent(bucket.AccountID)
}

func (s *LedgerEngineTestSuite) TestEditExpenseFrom100To150() {
	cash := s.createAccount("Cash Box", domain.AccountKindCash, 1000)
	bucket := s.createAccount("Catering", domain.AccountKindCategory, 0)

	out, err := s.txns.CreateTransaction(s.ctx, dto.CreateTransactionRequest{
		Kind:            domain.Expense,
		Amount:          dec(100),
		Category:        "catering",
		Status:          domain.StatusCompleted,
		PaymentMethod:   domain.PaymentCash,
		LinkedAccountID: strPtr(cash.AccountID),
	}, testActor)
	s.Require().NoError(err)

	amount := dec(150)
	_, err = s.txns.EditTransaction(s.ctx, out.Transaction.TransactionID, dto.UpdateTransactionRequest{Amount: &amount}, testActor)
	s.Require().NoError(err)

	s.assertBalance(cash.AccountID, 850)
	s.assertBalance(bucket.AccountID, -150)

	acc, err := s.accounts.GetAccountByID(s.ctx, cash.AccountID)
	s.Require().NoError(err)
	// opening, expense, reversal, new expense
	s.Len(acc.Ledger, 4)
}

func (s *LedgerEngineTestSuite) TestScenario4_DeleteCompletedExpense() {
	a := s.createAccount("Main Bank", domain.AccountKindBank, 250)
	bucket := s.createAccount("Equipment", domain.AccountKindCategory, 0)

	out, err := s.txns.CreateTransaction(s.ctx, dto.CreateTransactionRequest{
		Kind:            domain.Expense,
		Amount:          dec(200),
		Category:        "Equipment",
		Status:          domain.StatusCompleted,
		PaymentMethod:   domain.PaymentBank,
		LinkedAccountID: strPtr(a.AccountID),
	}, testActor)
	s.Require().NoError(err)
	s.assertBalance(a.AccountID, 50)

	deleted, err := s.txns.DeleteTransaction(s.ctx, out.Transaction.TransactionID, testActor)
	s.Require().NoError(err)
	s.Len(deleted.Balances, 2)

	s.assertBalance(a.AccountID, 250)
	s.assertBalance(bucket.AccountID, 0)
	_, err = s.txns.GetTransactionByID(s.ctx, out.Transaction.TransactionID)
	s.ErrorIs(err, apperrors.ErrTransactionNotFound)
}

func (s *LedgerEngineTestSuite) TestDeletePendingTouchesNoLedger() {
	a := s.createAccount("Main Bank", domain.AccountKindBank, 10)
	s.createAccount("Dues", domain.AccountKindCategory, 0)

	out, err := s.txns.CreateTransaction(s.ctx, dto.CreateTransactionRequest{
		Kind:            domain.Income,
		Amount:          dec(20),
		Category:        "Dues",
		Status:          domain.StatusPending,
		PaymentMethod:   domain.PaymentBank,
		LinkedAccountID: strPtr(a.AccountID),
	}, testActor)
	s.Require().NoError(err)
	s.Empty(out.Balances)

	deleted, err := s.txns.DeleteTransaction(s.ctx, out.Transaction.TransactionID, testActor)
	s.Require().NoError(err)
	s.Empty(deleted.Balances)
	s.assertBalance(a.AccountID, 10)
}

func (s *LedgerEngineTestSuite) TestPendingToCompletedAppliesAndCancelReverses() {
	a := s.createAccount("Main Bank", domain.AccountKindBank, 0)
	bucket := s.createAccount("Dues", domain.AccountKindCategory, 0)

	out, err := s.txns.CreateTransaction(s.ctx, dto.CreateTransactionRequest{
		Kind:            domain.Income,
		Amount:          dec(40),
		Category:        "Dues",
		Status:          domain.StatusPending,
		PaymentMethod:   domain.PaymentBank,
		LinkedAccountID: strPtr(a.AccountID),
	}, testActor)
	s.Require().NoError(err)
	s.assertBalance(a.AccountID, 0)

	completed := domain.StatusCompleted
	_, err = s.txns.EditTransaction(s.ctx, out.Transaction.TransactionID, dto.UpdateTransactionRequest{Status: &completed}, testActor)
	s.Require().NoError(err)
	s.assertBalance(a.AccountID, 40)
	s.assertBalance(bucket.AccountID, 40)

	cancelled := domain.StatusCancelled
	_, err = s.txns.EditTransaction(s.ctx, out.Transaction.TransactionID, dto.UpdateTransactionRequest{Status: &cancelled}, testActor)
	s.Require().NoError(err)
	s.assertBalance(a.AccountID, 0)
	s.assertBalance(bucket.AccountID, 0)
}

func (s *LedgerEngineTestSuite) TestInvalidTransitions() {
	a := s.createAccount("Main Bank", domain.AccountKindBank, 0)
	s.createAccount("Dues", domain.AccountKindCategory, 0)
	out := s.completedIncome(10, "Dues", a.AccountID)

	pending := domain.StatusPending
	_, err := s.txns.EditTransaction(s.ctx, out.Transaction.TransactionID, dto.UpdateTransactionRequest{Status: &pending}, testActor)
	s.ErrorIs(err, apperrors.ErrInvalidTransition)
	s.ErrorIs(err, apperrors.ErrValidation)

	cancelled := domain.StatusCancelled
	_, err = s.txns.EditTransaction(s.ctx, out.Transaction.TransactionID, dto.UpdateTransactionRequest{Status: &cancelled}, testActor)
	s.Require().NoError(err)

	completed := domain.StatusCompleted
	_, err = s.txns.EditTransaction(s.ctx, out.Transaction.TransactionID, dto.UpdateTransactionRequest{Status: &completed}, testActor)
	s.ErrorIs(err, apperrors.ErrInvalidTransition)
	s.assertBalance(a.AccountID, 0)
}

func (s *LedgerEngineTestSuite) TestEditWithStaleVersionConflicts() {
	a := s.createAccount("Main Bank", domain.AccountKindBank, 0)
	s.createAccount("Dues", domain.AccountKindCategory, 0)
	out := s.completedIncome(10, "Dues", a.AccountID)

	stale := int64(7)
	desc := "annual dues"
	_, err := s.txns.EditTransaction(s.ctx, out.Transaction.TransactionID, dto.UpdateTransactionRequest{Description: &desc, Version: &stale}, testActor)
	s.ErrorIs(err, apperrors.ErrConflict)
	s.assertBalance(a.AccountID, 10)
}

func (s *LedgerEngineTestSuite) TestCreateFailsOnInsufficientFundsLeavesNoRecord() {
	a := s.createAccount("Main Bank", domain.AccountKindBank, 50)
	bucket := s.createAccount("Equipment", domain.AccountKindCategory, 0)

	_, err := s.txns.CreateTransaction(s.ctx, dto.CreateTransactionRequest{
		Kind:            domain.Expense,
		Amount:          dec(80),
		Category:        "Equipment",
		Status:          domain.StatusCompleted,
		PaymentMethod:   domain.PaymentBank,
		LinkedAccountID: strPtr(a.AccountID),
	}, testActor)
	s.ErrorIs(err, apperrors.ErrInsufficientFunds)

	records, err := s.txns.ListTransactions(s.ctx, domain.TransactionFilter{})
	s.Require().NoError(err)
	s.Empty(records)
	s.assertBalance(a.AccountID, 50)
	s.assertBalance(bucket.AccountID, 0)
}

func (s *LedgerEngineTestSuite) TestCreateWithoutBucketFailsBeforeAnyWrite() {
	a := s.createAccount("Main Bank", domain.AccountKindBank, 0)

	_, err := s.txns.CreateTransaction(s.ctx, dto.CreateTransactionRequest{
		Kind:            domain.Income,
		Amount:          dec(5),
		Category:        "Nonexistent",
		Status:          domain.StatusCompleted,
		PaymentMethod:   domain.PaymentBank,
		LinkedAccountID: strPtr(a.AccountID),
	}, testActor)
	s.ErrorIs(err, apperrors.ErrAccountNotFound)
	s.assertBalance(a.AccountID, 0)
}

func (s *LedgerEngineTestSuite) TestCreateRejectsMismatchedLinkedAccountKind() {
	cash := s.createAccount("Cash Box", domain.AccountKindCash, 0)
	s.createAccount("Dues", domain.AccountKindCategory, 0)

	_, err := s.txns.CreateTransaction(s.ctx, dto.CreateTransactionRequest{
		Kind:            domain.Income,
		Amount:          dec(5),
		Category:        "Dues",
		Status:          domain.StatusCompleted,
		PaymentMethod:   domain.PaymentBank,
		LinkedAccountID: strPtr(cash.AccountID),
	}, testActor)
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *LedgerEngineTestSuite) TestPaymentOtherPostsOnlyToBucket() {
	bank := s.createAccount("Main Bank", domain.AccountKindBank, 0)
	bucket := s.createAccount("Donations", domain.AccountKindCategory, 0)

	out, err := s.txns.CreateTransaction(s.ctx, dto.CreateTransactionRequest{
		Kind:          domain.Income,
		Amount:        dec(30),
		Category:      "Donations",
		Status:        domain.StatusCompleted,
		PaymentMethod: domain.PaymentOther,
	}, testActor)
	s.Require().NoError(err)
	s.Len(out.Balances, 1)
	s.assertBalance(bucket.AccountID, 30)
	s.assertBalance(bank.AccountID, 0)
}

func (s *LedgerEngineTestSuite) TestCreateOnInactiveBucketFailsBeforeAnyWrite() {
	a := s.createAccount("Main Bank", domain.AccountKindBank, 0)
	bucket := s.createAccount("Sponsorship", domain.AccountKindCategory, 0)
	s.Require().NoError(s.accounts.DeactivateAccount(s.ctx, bucket.AccountID, testActor))

	_, err := s.txns.CreateTransaction(s.ctx, dto.CreateTransactionRequest{
		Kind:            domain.Income,
		Amount:          dec(500),
		Category:        "Sponsorship",
		Status:          domain.StatusCompleted,
		PaymentMethod:   domain.PaymentBank,
		LinkedAccountID: strPtr(a.AccountID),
	}, testActor)
	s.ErrorIs(err, apperrors.ErrAccountInactive)

	var ptf *apperrors.PartialTransferFailure
	s.False(errors.As(err, &ptf))
	acc, err := s.accounts.GetAccountByID(s.ctx, a.AccountID)
	s.Require().NoError(err)
	s.Len(acc.Ledger, 0)

	records, err := s.txns.ListTransactions(s.ctx, domain.TransactionFilter{})
	s.Require().NoError(err)
	s.Empty(records)
}

func (s *LedgerEngineTestSuite) TestBucketFailureCompensatesLinkedAccount() {
	strict := domain.BalancePolicy{AllowNegative: map[domain.AccountKind]bool{}}
	retry := services.RetryPolicy{MaxRetries: 5, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond}
	applier := services.NewBalanceApplier(s.repos.AccountRepo, services.WithBalancePolicy(strict), services.WithRetryPolicy(retry))
	txns := services.NewTransactionService(s.repos.TransactionRepo, s.repos.AccountRepo, applier)

	a := s.createAccount("Main Bank", domain.AccountKindBank, 100)
	bucket := s.createAccount("Equipment", domain.AccountKindCategory, 0)

	_, err := txns.CreateTransaction(s.ctx, dto.CreateTransactionRequest{
		Kind:            domain.Expense,
		Amount:          dec(40),
		Category:        "Equipment",
		Status:          domain.StatusCompleted,
		PaymentMethod:   domain.PaymentBank,
		LinkedAccountID: strPtr(a.AccountID),
	}, testActor)

	var ptf *apperrors.PartialTransferFailure
	s.Require().True(errors.As(err, &ptf))
	s.True(ptf.Compensated)
	s.Equal(a.AccountID, ptf.AppliedAccountID)
	s.Equal(bucket.AccountID, ptf.FailedAccountID)
	s.ErrorIs(err, apperrors.ErrInsufficientFunds)

	s.assertBalance(a.AccountID, 100)
	s.assertBalance(bucket.AccountID, 0)
	acc, err := s.accounts.GetAccountByID(s.ctx, a.AccountID)
	s.Require().NoError(err)
	s.Require().Len(acc.Ledger, 3)
	s.Equal(domain.EntryCompensation, acc.Ledger[2].EntryType)

	records, err := txns.ListTransactions(s.ctx, domain.TransactionFilter{})
	s.Require().NoError(err)
	s.Empty(records)
}

// stuckDeleteRepo refuses deletes so a failed create cannot clean up after itself.
type stuckDeleteRepo struct {
	portsrepo.TransactionRecordRepositoryFacade
	err error
}

func (r stuckDeleteRepo) DeleteTransaction(context.Context, string, int64) error {
	return r.err
}

func (s *LedgerEngineTestSuite) TestCreatePostingFailureReportsFailedCleanup() {
	deleteErr := errors.New("disk full")
	txns := services.NewTransactionService(stuckDeleteRepo{s.repos.TransactionRepo, deleteErr}, s.repos.AccountRepo, s.applier)

	a := s.createAccount("Main Bank", domain.AccountKindBank, 0)
	s.createAccount("Equipment", domain.AccountKindCategory, 0)

	_, err := txns.CreateTransaction(s.ctx, dto.CreateTransactionRequest{
		Kind:            domain.Expense,
		Amount:          dec(10),
		Category:        "Equipment",
		Status:          domain.StatusCompleted,
		PaymentMethod:   domain.PaymentBank,
		LinkedAccountID: strPtr(a.AccountID),
	}, testActor)
	s.ErrorIs(err, apperrors.ErrInsufficientFunds)
	s.ErrorIs(err, deleteErr)
	s.Contains(err.Error(), "kept without ledger effects")

	records, err := txns.ListTransactions(s.ctx, domain.TransactionFilter{})
	s.Require().NoError(err)
	s.Len(records, 1)
	s.assertBalance(a.AccountID, 0)
}

func (s *LedgerEngineTestSuite) TestEditOnInactiveLinkedAccountAbortsBeforeReversal() {
	a := s.createAccount("Main Bank", domain.AccountKindBank, 0)
	bucket := s.createAccount("Sponsorship", domain.AccountKindCategory, 0)
	out := s.completedIncome(500, "Sponsorship", a.AccountID)
	s.Require().NoError(s.accounts.DeactivateAccount(s.ctx, a.AccountID, testActor))

	desc := "typo fix"
	_, err := s.txns.EditTransaction(s.ctx, out.Transaction.TransactionID, dto.UpdateTransactionRequest{Description: &desc}, testActor)
	s.ErrorIs(err, apperrors.ErrAccountInactive)
	var inconsistency *apperrors.RecoverableInconsistency
	s.False(errors.As(err, &inconsistency))

	rec, err := s.txns.GetTransactionByID(s.ctx, out.Transaction.TransactionID)
	s.Require().NoError(err)
	s.Equal(domain.StatusCompleted, rec.Status)
	s.Equal(out.Transaction.Version, rec.Version)
	s.Empty(rec.Description)
	s.assertBalance(a.AccountID, 500)
	s.assertBalance(bucket.AccountID, 500)

	// Cancelling only reverses, so it still goes through on the inactive account.
	cancelled := domain.StatusCancelled
	_, err = s.txns.EditTransaction(s.ctx, out.Transaction.TransactionID, dto.UpdateTransactionRequest{Status: &cancelled}, testActor)
	s.Require().NoError(err)
	s.assertBalance(a.AccountID, 0)
	s.assertBalance(bucket.AccountID, 0)
	s.assertConsistent(a.AccountID)
}

func (s *LedgerEngineTestSuite) TestConcurrentEditsAndDeleteApplyOnce() {
	a := s.createAccount("Main Bank", domain.AccountKindBank, 1000)
	bucket := s.createAccount("Dues", domain.AccountKindCategory, 0)

	expected := int64(0)
	for round := 0; round < 20; round++ {
		out := s.completedIncome(100, "Dues", a.AccountID)
		id := out.Transaction.TransactionID

		var wg sync.WaitGroup
		errs := make(chan error, 5)
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func(amount int64) {
				defer wg.Done()
				v := dec(amount)
				_, err := s.txns.EditTransaction(s.ctx, id, dto.UpdateTransactionRequest{Amount: &v}, testActor)
				errs <- err
			}(int64(10 * (i + 1)))
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.txns.DeleteTransaction(s.ctx, id, testActor)
			errs <- err
		}()
		wg.Wait()
		close(errs)

		for err := range errs {
			if err == nil {
				continue
			}
			s.True(errors.Is(err, apperrors.ErrConflict) || errors.Is(err, apperrors.ErrNotFound),
				"round %d: unexpected error %v", round, err)
		}

		rec, err := s.txns.GetTransactionByID(s.ctx, id)
		if err == nil {
			s.Require().Equal(domain.StatusCompleted, rec.Status)
			expected += rec.Amount.IntPart()
		} else {
			s.Require().ErrorIs(err, apperrors.ErrTransactionNotFound)
		}

		s.assertBalance(a.AccountID, 1000+expected)
		s.assertBalance(bucket.AccountID, expected)
	}
	s.assertConsistent(a.AccountID)
	s.assertConsistent(bucket.AccountID)
}

func (s *LedgerEngineTestSuite) TestEditApplyFailureParksRecordAsPending() {
	a := s.createAccount("Main Bank", domain.AccountKindBank, 100)
	s.createAccount("Equipment", domain.AccountKindCategory, 0)

	out, err := s.txns.CreateTransaction(s.ctx, dto.CreateTransactionRequest{
		Kind:            domain.Expense,
		Amount:          dec(50),
		Category:        "Equipment",
		Status:          domain.StatusCompleted,
		PaymentMethod:   domain.PaymentBank,
		LinkedAccountID: strPtr(a.AccountID),
	}, testActor)
	s.Require().NoError(err)
	s.assertBalance(a.AccountID, 50)

	amount := dec(500)
	_, err = s.txns.EditTransaction(s.ctx, out.Transaction.TransactionID, dto.UpdateTransactionRequest{Amount: &amount}, testActor)

	var inconsistency *apperrors.RecoverableInconsistency
	s.Require().True(errors.As(err, &inconsistency))
	s.ErrorIs(err, apperrors.ErrInconsistentState)
	s.ErrorIs(err, apperrors.ErrInsufficientFunds)
	s.Len(inconsistency.ReversedAccountIDs, 2)
	s.True(inconsistency.Parked)
	s.NoError(inconsistency.ParkErr)

	s.assertBalance(a.AccountID, 100)
	rec, err := s.txns.GetTransactionByID(s.ctx, out.Transaction.TransactionID)
	s.Require().NoError(err)
	s.Equal(domain.StatusPending, rec.Status)
	s.True(rec.Amount.Equal(dec(500)))
}

func (s *LedgerEngineTestSuite) TestEditFromPendingFailureRestoresRecord() {
	a := s.createAccount("Main Bank", domain.AccountKindBank, 10)
	s.createAccount("Equipment", domain.AccountKindCategory, 0)

	out, err := s.txns.CreateTransaction(s.ctx, dto.CreateTransactionRequest{
		Kind:            domain.Expense,
		Amount:          dec(50),
		Category:        "Equipment",
		Status:          domain.StatusPending,
		PaymentMethod:   domain.PaymentBank,
		LinkedAccountID: strPtr(a.AccountID),
	}, testActor)
	s.Require().NoError(err)

	completed := domain.StatusCompleted
	_, err = s.txns.EditTransaction(s.ctx, out.Transaction.TransactionID, dto.UpdateTransactionRequest{Status: &completed}, testActor)
	s.ErrorIs(err, apperrors.ErrInsufficientFunds)

	rec, err := s.txns.GetTransactionByID(s.ctx, out.Transaction.TransactionID)
	s.Require().NoError(err)
	s.Equal(domain.StatusPending, rec.Status)
	s.assertBalance(a.AccountID, 10)
}

func (s *LedgerEngineTestSuite) TestSwitchToOtherClearsLinkedAccount() {
	a := s.createAccount("Main Bank", domain.AccountKindBank, 0)
	bucket := s.createAccount("Dues", domain.AccountKindCategory, 0)
	out := s.completedIncome(60, "Dues", a.AccountID)

	other := domain.PaymentOther
	edited, err := s.txns.EditTransaction(s.ctx, out.Transaction.TransactionID, dto.UpdateTransactionRequest{PaymentMethod: &other}, testActor)
	s.Require().NoError(err)
	s.Nil(edited.Transaction.LinkedAccountID)
	s.assertBalance(a.AccountID, 0)
	s.assertBalance(bucket.AccountID, 60)
}

// --- transfers ---

func (s *LedgerEngineTestSuite) TestTransfer_Success() {
	a := s.createAccount("Main Bank", domain.AccountKindBank, 200)
	b := s.createAccount("Cash Box", domain.AccountKindCash, 0)

	res, err := s.transfers.TransferBetweenAccounts(s.ctx, dto.TransferRequest{
		FromAccountID: a.AccountID,
		ToAccountID:   b.AccountID,
		Amount:        dec(120),
		Description:   "float for event",
	}, testActor)
	s.Require().NoError(err)
	s.True(res.FromBalance.Equal(dec(80)))
	s.True(res.ToBalance.Equal(dec(120)))
	s.NotEmpty(res.TransferID)

	acc, err := s.accounts.GetAccountByID(s.ctx, b.AccountID)
	s.Require().NoError(err)
	last := acc.Ledger[len(acc.Ledger)-1]
	s.Equal(domain.EntryTransfer, last.EntryType)
	s.Equal(a.AccountID, *last.CounterpartyAccountID)
	s.Equal(res.TransferID, *last.SourceTransactionID)
}

func (s *LedgerEngineTestSuite) TestScenario5_TransferToMissingAccountIsCompensated() {
	a := s.createAccount("Main Bank", domain.AccountKindBank, 200)
	missing := uuid.NewString()

	_, err := s.transfers.TransferBetweenAccounts(s.ctx, dto.TransferRequest{
		FromAccountID: a.AccountID,
		ToAccountID:   missing,
		Amount:        dec(100),
	}, testActor)

	var ptf *apperrors.PartialTransferFailure
	s.Require().True(errors.As(err, &ptf))
	s.ErrorIs(err, apperrors.ErrPartialTransfer)
	s.ErrorIs(err, apperrors.ErrAccountNotFound)
	s.True(ptf.Compensated)
	s.Equal(2, ptf.FailedLeg)
	s.Equal(missing, ptf.FailedAccountID)
	s.True(ptf.Amount.Equal(dec(100)))

	s.assertBalance(a.AccountID, 200)
	s.assertConsistent(a.AccountID)
}

func (s *LedgerEngineTestSuite) TestTransfer_InsufficientFundsTouchesNothing() {
	a := s.createAccount("Main Bank", domain.AccountKindBank, 20)
	b := s.createAccount("Cash Box", domain.AccountKindCash, 0)

	_, err := s.transfers.TransferBetweenAccounts(s.ctx, dto.TransferRequest{
		FromAccountID: a.AccountID,
		ToAccountID:   b.AccountID,
		Amount:        dec(21),
	}, testActor)
	s.ErrorIs(err, apperrors.ErrInsufficientFunds)
	s.NotErrorIs(err, apperrors.ErrPartialTransfer)
	s.assertBalance(a.AccountID, 20)
	s.assertBalance(b.AccountID, 0)
}

func (s *LedgerEngineTestSuite) TestTransfer_Validation() {
	a := s.createAccount("Main Bank", domain.AccountKindBank, 20)

	_, err := s.transfers.TransferBetweenAccounts(s.ctx, dto.TransferRequest{FromAccountID: a.AccountID, ToAccountID: a.AccountID, Amount: dec(1)}, testActor)
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.transfers.TransferBetweenAccounts(s.ctx, dto.TransferRequest{FromAccountID: a.AccountID, ToAccountID: uuid.NewString(), Amount: dec(-1)}, testActor)
	s.ErrorIs(err, apperrors.ErrValidation)
}

// --- accounts ---

func (s *LedgerEngineTestSuite) TestCreateAccount_OpeningEntry() {
	a := s.createAccount("Main Bank", domain.AccountKindBank, 300)
	s.Require().Len(a.Ledger, 1)
	s.Equal(domain.EntryOpening, a.Ledger[0].EntryType)
	s.True(a.IsConsistent())

	empty := s.createAccount("Empty Cash", domain.AccountKindCash, 0)
	s.Empty(empty.Ledger)
}

func (s *LedgerEngineTestSuite) TestCreateAccount_Rules() {
	_, err := s.accounts.CreateAccount(s.ctx, dto.CreateAccountRequest{Name: "Overdrawn", Kind: domain.AccountKindBank, OpeningBalance: dec(-5)}, testActor)
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.accounts.CreateAccount(s.ctx, dto.CreateAccountRequest{Name: "Cash", Kind: domain.AccountKindCash,
		BankDetails: &dto.BankDetailsRequest{AccountNumber: "1", BankName: "X"}}, testActor)
	s.ErrorIs(err, apperrors.ErrValidation)

	s.createAccount("Dues", domain.AccountKindCategory, 0)
	_, err = s.accounts.CreateAccount(s.ctx, dto.CreateAccountRequest{Name: "DUES", Kind: domain.AccountKindCategory}, testActor)
	s.ErrorIs(err, apperrors.ErrDuplicate)
}

func (s *LedgerEngineTestSuite) TestUpdateAccountKeepsBalance() {
	a := s.createAccount("Main Bank", domain.AccountKindBank, 90)
	name := "Club Current Account"
	version := a.Version
	updated, err := s.accounts.UpdateAccount(s.ctx, a.AccountID, dto.UpdateAccountRequest{
		Name:        &name,
		BankDetails: &dto.BankDetailsRequest{AccountNumber: "12345678", BankName: "Mutual"},
		Version:     &version,
	}, testActor)
	s.Require().NoError(err)
	s.Equal(name, updated.Name)
	s.Equal(a.Version+1, updated.Version)
	s.True(updated.Balance.Equal(dec(90)))
	s.Len(updated.Ledger, 1)

	_, err = s.accounts.UpdateAccount(s.ctx, a.AccountID, dto.UpdateAccountRequest{Name: &name, Version: &version}, testActor)
	s.ErrorIs(err, apperrors.ErrConflict)
}

func (s *LedgerEngineTestSuite) TestListAccountsFilters() {
	s.createAccount("Main Bank", domain.AccountKindBank, 0)
	s.createAccount("Cash Box", domain.AccountKindCash, 0)
	old := s.createAccount("Archive", domain.AccountKindCategory, 0)
	s.Require().NoError(s.accounts.DeactivateAccount(s.ctx, old.AccountID, testActor))

	active, err := s.accounts.ListAccounts(s.ctx, domain.AccountFilter{})
	s.Require().NoError(err)
	s.Len(active, 2)
	s.Equal("Cash Box", active[0].Name)

	all, err := s.accounts.ListAccounts(s.ctx, domain.AccountFilter{IncludeInactive: true})
	s.Require().NoError(err)
	s.Len(all, 3)

	kind := domain.AccountKindBank
	banks, err := s.accounts.ListAccounts(s.ctx, domain.AccountFilter{Kind: &kind})
	s.Require().NoError(err)
	s.Len(banks, 1)
}

func (s *LedgerEngineTestSuite) TestListLedgerEntriesPages() {
	a := s.createAccount("Main Bank", domain.AccountKindBank, 1)
	for i := 0; i < 4; i++ {
		_, err := s.applier.Apply(s.ctx, a.AccountID, dec(1), posting("dues"))
		s.Require().NoError(err)
	}

	first, err := s.accounts.ListLedgerEntries(s.ctx, a.AccountID, dto.ListLedgerEntriesParams{Limit: 2})
	s.Require().NoError(err)
	s.Len(first.Entries, 2)
	s.Equal(domain.EntryOpening, first.Entries[0].EntryType)
	s.Require().NotNil(first.NextToken)

	second, err := s.accounts.ListLedgerEntries(s.ctx, a.AccountID, dto.ListLedgerEntriesParams{Limit: 2, NextToken: first.NextToken})
	s.Require().NoError(err)
	s.Len(second.Entries, 2)
	s.Require().NotNil(second.NextToken)

	third, err := s.accounts.ListLedgerEntries(s.ctx, a.AccountID, dto.ListLedgerEntriesParams{Limit: 2, NextToken: second.NextToken})
	s.Require().NoError(err)
	s.Len(third.Entries, 1)
	s.Nil(third.NextToken)
	s.True(third.Entries[0].BalanceAfter.Equal(dec(5)))

	bad := "not-a-token"
	_, err = s.accounts.ListLedgerEntries(s.ctx, a.AccountID, dto.ListLedgerEntriesParams{NextToken: &bad})
	s.ErrorIs(err, apperrors.ErrValidation)
}
