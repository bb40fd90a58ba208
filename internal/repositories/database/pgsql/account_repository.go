package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/SscSPs/club_ledger/internal/apperrors"
	"github.com/SscSPs/club_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/club_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/club_ledger/internal/models"
	"github.com/SscSPs/club_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const accountColumns = `account_id, name, kind, status, balance, opening_balance, bank_account_number, bank_name, version, created_at, created_by, last_updated_at, last_updated_by`

const ledgerColumns = `entry_id, account_id, seq, amount, direction, entry_type, description, entry_timestamp, source_transaction_id, counterparty_account_id, balance_after, created_by`

type PgxAccountRepository struct {
	BaseRepository
}

// newPgxAccountRepository creates a new repository for account data.
func newPgxAccountRepository(pool *pgxpool.Pool) portsrepo.AccountRepositoryFacade {
	return &PgxAccountRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxAccountRepository implements portsrepo.AccountRepositoryFacade
var _ portsrepo.AccountRepositoryFacade = (*PgxAccountRepository)(nil)

func scanAccount(row pgx.Row) (models.Account, error) {
	var m models.Account
	err := row.Scan(
		&m.AccountID,
		&m.Name,
		&m.Kind,
		&m.Status,
		&m.Balance,
		&m.OpeningBalance,
		&m.BankAccountNumber,
		&m.BankName,
		&m.Version,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

// SaveAccount inserts the account row and its opening ledger in one transaction.
func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	m := mapping.ToModelAccount(account)

	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = r.Rollback(ctx, tx) }()

	query := `INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);`
	_, err = tx.Exec(ctx, query,
		m.AccountID,
		m.Name,
		m.Kind,
		m.Status,
		m.Balance,
		m.OpeningBalance,
		m.BankAccountNumber,
		m.BankName,
		m.Version,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save account %s: %w", m.AccountID, translateError(err))
	}
	if err := insertLedgerEntries(ctx, tx, m.Ledger); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// FindAccountByID retrieves an account and its full ledger ordered by seq.
// Both reads share one snapshot so the balance always matches the ledger.
func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = $1;`
	acc, err := r.findWithLedger(ctx, query, accountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to find account by ID %s: %w", accountID, err)
	}
	return acc, nil
}

// FindCategoryAccount looks up a category bucket by case-insensitive name.
func (r *PgxAccountRepository) FindCategoryAccount(ctx context.Context, name string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE kind = $1 AND LOWER(name) = LOWER($2);`
	acc, err := r.findWithLedger(ctx, query, models.Category, strings.TrimSpace(name))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to find category bucket %q: %w", name, err)
	}
	return acc, nil
}

// findWithLedger loads one account row and its ledger inside a read-only snapshot.
func (r *PgxAccountRepository) findWithLedger(ctx context.Context, accountQuery string, args ...any) (*domain.Account, error) {
	tx, err := r.BeginReadOnly(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Rollback(ctx, tx) }()

	m, err := scanAccount(tx.QueryRow(ctx, accountQuery, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}

	rows, err := tx.Query(ctx, `SELECT `+ledgerColumns+` FROM ledger_entries WHERE account_id = $1 ORDER BY seq;`, m.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger: %w", err)
	}
	m.Ledger, err = pgx.CollectRows(rows, pgx.RowToStructByName[models.LedgerEntry])
	if err != nil {
		return nil, fmt.Errorf("failed to scan ledger: %w", err)
	}
	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}

	acc := mapping.ToDomainAccount(m)
	return &acc, nil
}

// ListAccounts returns matching accounts ordered by name. Ledgers are not loaded.
func (r *PgxAccountRepository) ListAccounts(ctx context.Context, filter domain.AccountFilter) ([]domain.Account, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.Kind != nil {
		args = append(args, string(*filter.Kind))
		conditions = append(conditions, fmt.Sprintf("kind = $%d", len(args)))
	}
	if !filter.IncludeInactive {
		args = append(args, string(domain.AccountActive))
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	query := `SELECT ` + accountColumns + ` FROM accounts`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY LOWER(name);`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	accounts := []domain.Account{}
	for rows.Next() {
		m, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		accounts = append(accounts, mapping.ToDomainAccount(m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account rows: %w", err)
	}
	return accounts, nil
}

// PutAccount performs a version-checked update and appends ledger entries
// beyond those already stored.
func (r *PgxAccountRepository) PutAccount(ctx context.Context, account domain.Account, expectedVersion int64) error {
	m := mapping.ToModelAccount(account)

	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = r.Rollback(ctx, tx) }()

	query := `
		UPDATE accounts
		SET name = $3, status = $4, balance = $5, bank_account_number = $6, bank_name = $7,
		    version = $2 + 1, last_updated_at = $8, last_updated_by = $9
		WHERE account_id = $1 AND version = $2;
	`
	tag, err := tx.Exec(ctx, query,
		m.AccountID,
		expectedVersion,
		m.Name,
		m.Status,
		m.Balance,
		m.BankAccountNumber,
		m.BankName,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update account %s: %w", m.AccountID, translateError(err))
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE account_id = $1);`, m.AccountID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check account %s: %w", m.AccountID, err)
		}
		if !exists {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("%w: account %s is no longer at version %d", apperrors.ErrConflict, m.AccountID, expectedVersion)
	}

	var stored int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM ledger_entries WHERE account_id = $1;`, m.AccountID).Scan(&stored); err != nil {
		return fmt.Errorf("failed to count ledger entries for account %s: %w", m.AccountID, err)
	}
	if len(m.Ledger) < stored {
		return fmt.Errorf("%w: ledger of account %s cannot shrink", apperrors.ErrValidation, m.AccountID)
	}
	if err := insertLedgerEntries(ctx, tx, m.Ledger[stored:]); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

func insertLedgerEntries(ctx context.Context, tx pgx.Tx, entries []models.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	query := `INSERT INTO ledger_entries (` + ledgerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);`

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(query,
			e.EntryID,
			e.AccountID,
			e.Seq,
			e.Amount,
			e.Direction,
			e.EntryType,
			e.Description,
			e.Timestamp,
			e.SourceTransactionID,
			e.CounterpartyAccountID,
			e.BalanceAfter,
			e.CreatedBy,
		)
	}
	results := tx.SendBatch(ctx, batch)
	for range entries {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("failed to insert ledger entry: %w", translateError(err))
		}
	}
	return results.Close()
}
