package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/club_ledger/internal/apperrors"
	"github.com/SscSPs/club_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/club_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/club_ledger/internal/core/ports/services"
	"github.com/SscSPs/club_ledger/internal/dto"
	"github.com/SscSPs/club_ledger/internal/utils/pagination"
	"github.com/google/uuid"
)

const defaultLedgerPageSize = 50

// accountService implements the AccountSvcFacade interface
type accountService struct {
	BaseService
	accountRepo portsrepo.AccountRepositoryFacade
	policy      domain.BalancePolicy
	retry       RetryPolicy
}

// AccountServiceOption is a functional option for configuring the account service
type AccountServiceOption func(*accountService)

// WithAccountBalancePolicy sets the policy opening balances are checked against.
func WithAccountBalancePolicy(policy domain.BalancePolicy) AccountServiceOption {
	return func(s *accountService) {
		s.policy = policy
	}
}

// WithAccountRetryPolicy bounds retries of metadata updates.
func WithAccountRetryPolicy(policy RetryPolicy) AccountServiceOption {
	return func(s *accountService) {
		s.retry = policy
	}
}

// WithAccountClock overrides the time source used for audit fields.
func WithAccountClock(now func() time.Time) AccountServiceOption {
	return func(s *accountService) {
		s.now = now
	}
}

// NewAccountService creates a new account service with the provided options
func NewAccountService(repo portsrepo.AccountRepositoryFacade, options ...AccountServiceOption) portssvc.AccountSvcFacade {
	svc := &accountService{
		accountRepo: repo,
		policy:      domain.DefaultBalancePolicy(),
		retry:       DefaultRetryPolicy(),
	}

	// Apply all options
	for _, option := range options {
		option(svc)
	}

	return svc
}

// Ensure accountService implements the AccountSvcFacade interface
var _ portssvc.AccountSvcFacade = (*accountService)(nil)

func (s *accountService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest, actorID string) (*domain.Account, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: account name is required", apperrors.ErrValidation)
	}
	if !req.Kind.IsValid() {
		return nil, fmt.Errorf("%w: unknown account kind %q", apperrors.ErrValidation, req.Kind)
	}
	if req.BankDetails != nil && req.Kind != domain.AccountKindBank {
		return nil, fmt.Errorf("%w: bank details are only allowed on BANK accounts", apperrors.ErrValidation)
	}
	if !s.policy.Permits(req.Kind, req.OpeningBalance) {
		return nil, fmt.Errorf("%w: %s accounts cannot open with a negative balance", apperrors.ErrValidation, req.Kind)
	}

	now := s.Now()
	account := domain.Account{
		AccountID:      uuid.NewString(),
		Name:           name,
		Kind:           req.Kind,
		Status:         domain.AccountActive,
		Balance:        req.OpeningBalance,
		OpeningBalance: req.OpeningBalance,
		Ledger:         []domain.LedgerEntry{},
		Version:        1,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorID,
		},
	}
	if req.BankDetails != nil {
		account.BankDetails = &domain.BankDetails{
			AccountNumber: req.BankDetails.AccountNumber,
			BankName:      req.BankDetails.BankName,
		}
	}
	if !req.OpeningBalance.IsZero() {
		account.Ledger = append(account.Ledger, domain.LedgerEntry{
			EntryID:      uuid.NewString(),
			Amount:       req.OpeningBalance.Abs(),
			Direction:    domain.DirectionOf(req.OpeningBalance),
			EntryType:    domain.EntryOpening,
			Description:  "Opening balance",
			Timestamp:    now,
			BalanceAfter: req.OpeningBalance,
			CreatedBy:    actorID,
		})
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		s.LogError(ctx, err, "Failed to save account in repository",
			slog.String("account_id", account.AccountID),
			slog.String("name", account.Name))
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.LogInfo(ctx, "Account created successfully",
		slog.String("account_id", account.AccountID),
		slog.String("kind", string(account.Kind)),
		slog.String("opening_balance", account.OpeningBalance.String()))
	return &account, nil
}

func (s *accountService) GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.LogDebug(ctx, "Account not found", slog.String("account_id", accountID))
			return nil, fmt.Errorf("%w: %s", apperrors.ErrAccountNotFound, accountID)
		}
		s.LogError(ctx, err, "Failed to get account by ID from repository", slog.String("account_id", accountID))
		return nil, fmt.Errorf("failed to get account by ID: %w", err)
	}
	return account, nil
}

func (s *accountService) ListAccounts(ctx context.Context, filter domain.AccountFilter) ([]domain.Account, error) {
	accounts, err := s.accountRepo.ListAccounts(ctx, filter)
	if err != nil {
		s.LogError(ctx, err, "Failed to list accounts from repository")
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

// UpdateAccount changes name, status or bank details. Balance and ledger pass through untouched.
func (s *accountService) UpdateAccount(ctx context.Context, accountID string, req dto.UpdateAccountRequest, actorID string) (*domain.Account, error) {
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, fmt.Errorf("%w: account name cannot be empty", apperrors.ErrValidation)
	}
	if req.Status != nil && !req.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown account status %q", apperrors.ErrValidation, *req.Status)
	}

	updated, err := updateWithRetry(ctx, s.accountRepo, s.retry, accountID, func(acc *domain.Account) error {
		if req.Version != nil && *req.Version != acc.Version {
			return fmt.Errorf("%w: account %s is at version %d, request carried %d",
				apperrors.ErrConflict, accountID, acc.Version, *req.Version)
		}
		if req.BankDetails != nil && acc.Kind != domain.AccountKindBank {
			return fmt.Errorf("%w: bank details are only allowed on BANK accounts", apperrors.ErrValidation)
		}
		if req.Name != nil {
			acc.Name = strings.TrimSpace(*req.Name)
		}
		if req.Status != nil {
			acc.Status = *req.Status
		}
		if req.BankDetails != nil {
			acc.BankDetails = &domain.BankDetails{
				AccountNumber: req.BankDetails.AccountNumber,
				BankName:      req.BankDetails.BankName,
			}
		}
		acc.LastUpdatedAt = s.Now()
		acc.LastUpdatedBy = actorID
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to update account", slog.String("account_id", accountID))
		return nil, err
	}

	s.LogInfo(ctx, "Account updated", slog.String("account_id", accountID), slog.Int64("version", updated.Version))
	return updated, nil
}

func (s *accountService) DeactivateAccount(ctx context.Context, accountID string, actorID string) error {
	inactive := domain.AccountInactive
	if _, err := s.UpdateAccount(ctx, accountID, dto.UpdateAccountRequest{Status: &inactive}, actorID); err != nil {
		return err
	}
	s.LogInfo(ctx, "Account deactivated", slog.String("account_id", accountID), slog.String("actor_id", actorID))
	return nil
}

// ListLedgerEntries pages through an account's ledger oldest first.
func (s *accountService) ListLedgerEntries(ctx context.Context, accountID string, params dto.ListLedgerEntriesParams) (*dto.ListLedgerEntriesResponse, error) {
	account, err := s.GetAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	limit := params.Limit
	if limit <= 0 {
		limit = defaultLedgerPageSize
	}
	start := 0
	if params.NextToken != nil && *params.NextToken != "" {
		position, entryID, err := pagination.DecodeLedgerToken(*params.NextToken)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		if position >= len(account.Ledger) || account.Ledger[position].EntryID != entryID {
			return nil, fmt.Errorf("%w: pagination token does not match account %s", apperrors.ErrValidation, accountID)
		}
		start = position
	}

	end := start + limit
	if end > len(account.Ledger) {
		end = len(account.Ledger)
	}
	resp := &dto.ListLedgerEntriesResponse{
		AccountID: accountID,
		Entries:   make([]dto.LedgerEntryResponse, 0, end-start),
	}
	for _, e := range account.Ledger[start:end] {
		resp.Entries = append(resp.Entries, dto.ToLedgerEntryResponse(e))
	}
	if end < len(account.Ledger) {
		token := pagination.EncodeLedgerToken(end, account.Ledger[end].EntryID)
		resp.NextToken = &token
	}
	return resp, nil
}

// VerifyAccountBalance recomputes the balance from the ledger and compares it
// with the stored balance.
func (s *accountService) VerifyAccountBalance(ctx context.Context, accountID string) (*domain.BalanceVerification, error) {
	account, err := s.GetAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	total := account.LedgerTotal()
	result := &domain.BalanceVerification{
		AccountID:     account.AccountID,
		StoredBalance: account.Balance,
		LedgerTotal:   total,
		EntryCount:    len(account.Ledger),
		Consistent:    account.Balance.Equal(total),
	}
	if !result.Consistent {
		s.LogError(ctx, errors.New("balance mismatch"), "Account balance does not match its ledger",
			slog.String("account_id", accountID),
			slog.String("stored_balance", account.Balance.String()),
			slog.String("ledger_total", total.String()),
			slog.String("difference", account.Balance.Sub(total).String()))
	}
	return result, nil
}
