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

const transactionColumns = `transaction_id, kind, amount, category, status, payment_method, linked_account_id, description, reference, version, created_at, created_by, last_updated_at, last_updated_by`

type PgxTransactionRepository struct {
	BaseRepository
}

func newPgxTransactionRepository(pool *pgxpool.Pool) portsrepo.TransactionRecordRepositoryFacade {
	return &PgxTransactionRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.TransactionRecordRepositoryFacade = (*PgxTransactionRepository)(nil)

func (r *PgxTransactionRepository) SaveTransaction(ctx context.Context, record domain.TransactionRecord) error {
	m := mapping.ToModelTransactionRecord(record)
	query := `INSERT INTO transaction_records (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);`
	_, err := r.Pool.Exec(ctx, query,
		m.TransactionID,
		m.Kind,
		m.Amount,
		m.Category,
		m.Status,
		m.PaymentMethod,
		m.LinkedAccountID,
		m.Description,
		m.Reference,
		m.Version,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save transaction %s: %w", m.TransactionID, translateError(err))
	}
	return nil
}

func (r *PgxTransactionRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.TransactionRecord, error) {
	query := `SELECT ` + transactionColumns + ` FROM transaction_records WHERE transaction_id = $1;`
	rows, err := r.Pool.Query(ctx, query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction %s: %w", transactionID, err)
	}
	m, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.TransactionRecord])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan transaction %s: %w", transactionID, err)
	}
	rec := mapping.ToDomainTransactionRecord(m)
	return &rec, nil
}

func (r *PgxTransactionRepository) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.TransactionRecord, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		conditions = append(conditions, fmt.Sprintf("LOWER(category) = LOWER($%d)", len(args)))
	}
	query := `SELECT ` + transactionColumns + ` FROM transaction_records`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY created_at DESC, transaction_id;`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	ms, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.TransactionRecord])
	if err != nil {
		return nil, fmt.Errorf("failed to scan transactions: %w", err)
	}
	return mapping.ToDomainTransactionRecordSlice(ms), nil
}

func (r *PgxTransactionRepository) UpdateTransaction(ctx context.Context, record domain.TransactionRecord, expectedVersion int64) error {
	m := mapping.ToModelTransactionRecord(record)
	query := `
		UPDATE transaction_records
		SET kind = $3, amount = $4, category = $5, status = $6, payment_method = $7,
		    linked_account_id = $8, description = $9, reference = $10, version = $11,
		    last_updated_at = $12, last_updated_by = $13
		WHERE transaction_id = $1 AND version = $2;
	`
	tag, err := r.Pool.Exec(ctx, query,
		m.TransactionID,
		expectedVersion,
		m.Kind,
		m.Amount,
		m.Category,
		m.Status,
		m.PaymentMethod,
		m.LinkedAccountID,
		m.Description,
		m.Reference,
		m.Version,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction %s: %w", m.TransactionID, translateError(err))
	}
	if tag.RowsAffected() == 0 {
		return r.missOrConflict(ctx, m.TransactionID, expectedVersion)
	}
	return nil
}

func (r *PgxTransactionRepository) DeleteTransaction(ctx context.Context, transactionID string, expectedVersion int64) error {
	tag, err := r.Pool.Exec(ctx, `DELETE FROM transaction_records WHERE transaction_id = $1 AND version = $2;`, transactionID, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to delete transaction %s: %w", transactionID, translateError(err))
	}
	if tag.RowsAffected() == 0 {
		return r.missOrConflict(ctx, transactionID, expectedVersion)
	}
	return nil
}

func (r *PgxTransactionRepository) missOrConflict(ctx context.Context, transactionID string, expectedVersion int64) error {
	var exists bool
	if err := r.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM transaction_records WHERE transaction_id = $1);`, transactionID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check transaction %s: %w", transactionID, err)
	}
	if !exists {
		return apperrors.ErrNotFound
	}
	return fmt.Errorf("%w: transaction %s is no longer at version %d", apperrors.ErrConflict, transactionID, expectedVersion)
}
