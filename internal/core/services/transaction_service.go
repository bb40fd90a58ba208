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
	"github.com/google/uuid"
)

// transactionService keeps account ledgers in step with transaction record status.
// A record has ledger effects exactly while it is COMPLETED.
type transactionService struct {
	postingSaga
	txnRepo     portsrepo.TransactionRecordRepositoryFacade
	accountRepo portsrepo.AccountReader
}

// TransactionServiceOption is a functional option for configuring the transaction service
type TransactionServiceOption func(*transactionService)

// WithTransactionClock overrides the time source used for audit fields.
func WithTransactionClock(now func() time.Time) TransactionServiceOption {
	return func(s *transactionService) {
		s.now = now
	}
}

// NewTransactionService creates the transaction lifecycle manager
func NewTransactionService(
	txnRepo portsrepo.TransactionRecordRepositoryFacade,
	accountRepo portsrepo.AccountReader,
	applier portssvc.BalanceApplierSvc,
	options ...TransactionServiceOption,
) portssvc.TransactionSvcFacade {
	svc := &transactionService{
		postingSaga: postingSaga{applier: applier},
		txnRepo:     txnRepo,
		accountRepo: accountRepo,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.TransactionSvcFacade = (*transactionService)(nil)

func (s *transactionService) GetTransactionByID(ctx context.Context, transactionID string) (*domain.TransactionRecord, error) {
	rec, err := s.txnRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrTransactionNotFound, transactionID)
		}
		s.LogError(ctx, err, "Failed to get transaction", slog.String("transaction_id", transactionID))
		return nil, fmt.Errorf("failed to get transaction %s: %w", transactionID, err)
	}
	return rec, nil
}

func (s *transactionService) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.TransactionRecord, error) {
	records, err := s.txnRepo.ListTransactions(ctx, filter)
	if err != nil {
		s.LogError(ctx, err, "Failed to list transactions")
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return records, nil
}

// CreateTransaction stores a new record and, when it is COMPLETED, posts its
// effect to the linked account and the category bucket. If posting fails the
// record is removed again.
func (s *transactionService) CreateTransaction(ctx context.Context, req dto.CreateTransactionRequest, actorID string) (*domain.TransactionOutcome, error) {
	now := s.Now()
	rec := domain.TransactionRecord{
		TransactionID:   uuid.NewString(),
		Kind:            req.Kind,
		Amount:          req.Amount,
		Category:        strings.TrimSpace(req.Category),
		Status:          req.Status,
		PaymentMethod:   req.PaymentMethod,
		LinkedAccountID: req.LinkedAccountID,
		Description:     req.Description,
		Reference:       req.Reference,
		Version:         1,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorID,
		},
	}
	if rec.PaymentMethod == domain.PaymentOther && rec.LinkedAccountID != nil && *rec.LinkedAccountID == "" {
		rec.LinkedAccountID = nil
	}
	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	var legs []postingLeg
	if rec.AffectsLedger() {
		var err error
		if legs, err = s.effectLegs(ctx, &rec, actorID, false); err != nil {
			return nil, err
		}
	}

	if err := s.txnRepo.SaveTransaction(ctx, rec); err != nil {
		s.LogError(ctx, err, "Failed to save transaction", slog.String("transaction_id", rec.TransactionID))
		return nil, fmt.Errorf("failed to save transaction: %w", err)
	}

	outcome := &domain.TransactionOutcome{Transaction: &rec, Balances: []domain.AccountBalance{}}
	if len(legs) == 0 {
		s.LogInfo(ctx, "Transaction created", slog.String("transaction_id", rec.TransactionID), slog.String("status", string(rec.Status)))
		return outcome, nil
	}

	applied, err := s.post(ctx, "create transaction", legs)
	if err != nil {
		if derr := s.txnRepo.DeleteTransaction(ctx, rec.TransactionID, rec.Version); derr != nil {
			s.LogError(ctx, derr, "Failed to remove transaction after posting failure",
				slog.String("transaction_id", rec.TransactionID))
			return nil, errors.Join(err, fmt.Errorf("transaction %s was kept without ledger effects: %w", rec.TransactionID, derr))
		}
		return nil, err
	}
	outcome.Balances = balancesOf(applied)

	s.LogInfo(ctx, "Transaction created and posted",
		slog.String("transaction_id", rec.TransactionID),
		slog.String("amount", rec.SignedAmount().String()),
		slog.String("category", rec.Category))
	return outcome, nil
}

// EditTransaction claims the record by version, reverses the old effect if the
// old record was COMPLETED and applies the new effect if the new one is.
func (s *transactionService) EditTransaction(ctx context.Context, transactionID string, req dto.UpdateTransactionRequest, actorID string) (*domain.TransactionOutcome, error) {
	old, err := s.GetTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if req.Version != nil && *req.Version != old.Version {
		return nil, fmt.Errorf("%w: transaction %s is at version %d, request carried %d",
			apperrors.ErrConflict, transactionID, old.Version, *req.Version)
	}

	updated := mergeTransactionUpdate(*old, req)
	if err := updated.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	if !domain.CanTransition(old.Status, updated.Status) {
		return nil, fmt.Errorf("%w: %s to %s", apperrors.ErrInvalidTransition, old.Status, updated.Status)
	}

	var reverseLegs, applyLegs []postingLeg
	if old.AffectsLedger() {
		if reverseLegs, err = s.effectLegs(ctx, old, actorID, true); err != nil {
			return nil, err
		}
	}
	if updated.AffectsLedger() {
		if applyLegs, err = s.effectLegs(ctx, &updated, actorID, false); err != nil {
			return nil, err
		}
	}

	updated.Version = old.Version + 1
	updated.LastUpdatedAt = s.Now()
	updated.LastUpdatedBy = actorID
	if err := s.txnRepo.UpdateTransaction(ctx, updated, old.Version); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrTransactionNotFound, transactionID)
		}
		return nil, fmt.Errorf("failed to update transaction %s: %w", transactionID, err)
	}

	var touched []appliedLeg
	if len(reverseLegs) > 0 {
		reversed, err := s.post(ctx, "reverse transaction", reverseLegs)
		if err != nil {
			s.restoreRecord(ctx, *old, updated.Version)
			return nil, err
		}
		touched = append(touched, reversed...)
	}

	if len(applyLegs) > 0 {
		appliedNew, err := s.post(ctx, "apply transaction", applyLegs)
		if err != nil {
			if len(reverseLegs) == 0 {
				s.restoreRecord(ctx, *old, updated.Version)
				return nil, err
			}
			// The old effect is gone and the new one is not there. Park the
			// record as PENDING so its status matches the ledgers.
			parked := updated
			parked.Status = domain.StatusPending
			parked.Version = updated.Version + 1
			inconsistency := &apperrors.RecoverableInconsistency{
				TransactionID:      transactionID,
				ReversedAccountIDs: legAccountIDs(reverseLegs),
				Parked:             true,
				Cause:              err,
			}
			if perr := s.txnRepo.UpdateTransaction(ctx, parked, updated.Version); perr != nil {
				s.LogError(ctx, perr, "Failed to park transaction as pending",
					slog.String("transaction_id", transactionID))
				inconsistency.Parked = false
				inconsistency.ParkErr = perr
			}
			s.LogError(ctx, inconsistency, "Transaction edit left ledgers reversed only",
				slog.String("transaction_id", transactionID))
			return nil, inconsistency
		}
		touched = append(touched, appliedNew...)
	}

	s.LogInfo(ctx, "Transaction edited",
		slog.String("transaction_id", transactionID),
		slog.String("from_status", string(old.Status)),
		slog.String("to_status", string(updated.Status)),
		slog.Int64("version", updated.Version))
	return &domain.TransactionOutcome{Transaction: &updated, Balances: balancesOf(touched)}, nil
}

// DeleteTransaction removes the record and reverses its effect if it was COMPLETED.
func (s *transactionService) DeleteTransaction(ctx context.Context, transactionID string, actorID string) (*domain.TransactionOutcome, error) {
	old, err := s.GetTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	var legs []postingLeg
	if old.AffectsLedger() {
		if legs, err = s.effectLegs(ctx, old, actorID, true); err != nil {
			return nil, err
		}
	}

	if err := s.txnRepo.DeleteTransaction(ctx, transactionID, old.Version); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrTransactionNotFound, transactionID)
		}
		return nil, fmt.Errorf("failed to delete transaction %s: %w", transactionID, err)
	}

	outcome := &domain.TransactionOutcome{Transaction: old, Balances: []domain.AccountBalance{}}
	if len(legs) > 0 {
		reversed, err := s.post(ctx, "delete transaction", legs)
		if err != nil {
			if serr := s.txnRepo.SaveTransaction(ctx, *old); serr != nil {
				s.LogError(ctx, serr, "Failed to restore transaction after reversal failure",
					slog.String("transaction_id", transactionID))
			}
			return nil, err
		}
		outcome.Balances = balancesOf(reversed)
	}

	s.LogInfo(ctx, "Transaction deleted",
		slog.String("transaction_id", transactionID),
		slog.String("actor_id", actorID))
	return outcome, nil
}

// effectLegs resolves the accounts a COMPLETED record posts to: the linked
// account first when there is one, then the category bucket.
func (s *transactionService) effectLegs(ctx context.Context, rec *domain.TransactionRecord, actorID string, reverse bool) ([]postingLeg, error) {
	txnID := rec.TransactionID
	meta := domain.EntryMeta{
		Description:         entryDescription(rec),
		EntryType:           domain.EntryPosting,
		SourceTransactionID: &txnID,
		RequireActive:       !reverse,
		ActorID:             actorID,
	}
	if reverse {
		meta.EntryType = domain.EntryReversal
	}
	amount := rec.SignedAmount()
	legs := make([]postingLeg, 0, 2)

	if rec.LinkedAccountID != nil {
		acc, err := s.accountRepo.FindAccountByID(ctx, *rec.LinkedAccountID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, fmt.Errorf("%w: linked account %s", apperrors.ErrAccountNotFound, *rec.LinkedAccountID)
			}
			return nil, fmt.Errorf("failed to load linked account: %w", err)
		}
		want, ok := rec.PaymentMethod.LinkedAccountKind()
		if !ok || acc.Kind != want {
			return nil, fmt.Errorf("%w: payment method %s cannot post to %s account %s",
				apperrors.ErrValidation, rec.PaymentMethod, acc.Kind, acc.AccountID)
		}
		if err := s.requireActive(ctx, acc, rec, reverse); err != nil {
			return nil, err
		}
		legs = append(legs, postingLeg{accountID: acc.AccountID, amount: amount, reverse: reverse, meta: meta})
	}

	bucket, err := s.accountRepo.FindCategoryAccount(ctx, rec.Category)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: no category bucket for %q", apperrors.ErrAccountNotFound, rec.Category)
		}
		return nil, fmt.Errorf("failed to load category bucket: %w", err)
	}
	if err := s.requireActive(ctx, bucket, rec, reverse); err != nil {
		return nil, err
	}
	legs = append(legs, postingLeg{accountID: bucket.AccountID, amount: amount, reverse: reverse, meta: meta})
	return legs, nil
}

// requireActive rejects new effects on inactive accounts before anything is written.
// Reversals may always touch an inactive account.
func (s *transactionService) requireActive(ctx context.Context, acc *domain.Account, rec *domain.TransactionRecord, reverse bool) error {
	if reverse || acc.IsActive() {
		return nil
	}
	err := fmt.Errorf("%w: %s", apperrors.ErrAccountInactive, acc.AccountID)
	s.LogWarn(ctx, err, "Refusing to post transaction to inactive account",
		slog.String("transaction_id", rec.TransactionID),
		slog.String("account_id", acc.AccountID))
	return err
}

// restoreRecord writes back a previous record over the version currently stored.
func (s *transactionService) restoreRecord(ctx context.Context, previous domain.TransactionRecord, currentVersion int64) {
	previous.Version = currentVersion + 1
	if err := s.txnRepo.UpdateTransaction(ctx, previous, currentVersion); err != nil {
		s.LogError(ctx, err, "Failed to restore previous transaction state",
			slog.String("transaction_id", previous.TransactionID))
	}
}

func mergeTransactionUpdate(rec domain.TransactionRecord, req dto.UpdateTransactionRequest) domain.TransactionRecord {
	if req.Kind != nil {
		rec.Kind = *req.Kind
	}
	if req.Amount != nil {
		rec.Amount = *req.Amount
	}
	if req.Category != nil {
		rec.Category = strings.TrimSpace(*req.Category)
	}
	if req.Status != nil {
		rec.Status = *req.Status
	}
	if req.PaymentMethod != nil {
		rec.PaymentMethod = *req.PaymentMethod
		if rec.PaymentMethod == domain.PaymentOther {
			rec.LinkedAccountID = nil
		}
	}
	if req.LinkedAccountID != nil {
		if *req.LinkedAccountID == "" {
			rec.LinkedAccountID = nil
		} else {
			id := *req.LinkedAccountID
			rec.LinkedAccountID = &id
		}
	}
	if req.Description != nil {
		rec.Description = *req.Description
	}
	if req.Reference != nil {
		rec.Reference = *req.Reference
	}
	return rec
}

func entryDescription(rec *domain.TransactionRecord) string {
	desc := strings.ToLower(string(rec.Kind)) + " " + rec.Category
	if rec.Description != "" {
		desc += ": " + rec.Description
	}
	return desc
}

func legAccountIDs(legs []postingLeg) []string {
	ids := make([]string, len(legs))
	for i, l := range legs {
		ids[i] = l.accountID
	}
	return ids
}
