package boltdb

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/SscSPs/club_ledger/internal/apperrors"
	"github.com/SscSPs/club_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/club_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/club_ledger/internal/models"
	"github.com/SscSPs/club_ledger/internal/utils/mapping"
	bolt "go.etcd.io/bbolt"
)

// BoltTransactionRepository stores transaction records as JSON documents.
type BoltTransactionRepository struct {
	store *store
}

func newBoltTransactionRepository(s *store) portsrepo.TransactionRecordRepositoryFacade {
	return &BoltTransactionRepository{store: s}
}

var _ portsrepo.TransactionRecordRepositoryFacade = (*BoltTransactionRepository)(nil)

func (r *BoltTransactionRepository) SaveTransaction(ctx context.Context, record domain.TransactionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := mapping.ToModelTransactionRecord(record)
	return r.store.db.Update(func(tx *bolt.Tx) error {
		txns, err := bucket(tx, bucketTransactions)
		if err != nil {
			return err
		}
		if txns.Get([]byte(m.TransactionID)) != nil {
			return fmt.Errorf("%w: transaction with ID %s already exists", apperrors.ErrDuplicate, m.TransactionID)
		}
		return putJSON(txns, m.TransactionID, m)
	})
}

func (r *BoltTransactionRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.TransactionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var m models.TransactionRecord
	err := r.store.db.View(func(tx *bolt.Tx) error {
		txns, err := bucket(tx, bucketTransactions)
		if err != nil {
			return err
		}
		found, err := getJSON(txns, transactionID, &m)
		if err != nil {
			return err
		}
		if !found {
			return apperrors.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	rec := mapping.ToDomainTransactionRecord(m)
	return &rec, nil
}

func (r *BoltTransactionRepository) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.TransactionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result := []domain.TransactionRecord{}
	err := r.store.db.View(func(tx *bolt.Tx) error {
		txns, err := bucket(tx, bucketTransactions)
		if err != nil {
			return err
		}
		return txns.ForEach(func(k, v []byte) error {
			var m models.TransactionRecord
			if err := json.Unmarshal(v, &m); err != nil {
				return fmt.Errorf("failed to unmarshal transaction %s: %w", k, err)
			}
			rec := mapping.ToDomainTransactionRecord(m)
			if filter.Matches(&rec) {
				result = append(result, rec)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].TransactionID < result[j].TransactionID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *BoltTransactionRepository) UpdateTransaction(ctx context.Context, record domain.TransactionRecord, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := mapping.ToModelTransactionRecord(record)
	return r.store.db.Update(func(tx *bolt.Tx) error {
		txns, err := bucket(tx, bucketTransactions)
		if err != nil {
			return err
		}
		if err := checkTransactionVersion(txns, m.TransactionID, expectedVersion); err != nil {
			return err
		}
		return putJSON(txns, m.TransactionID, m)
	})
}

func (r *BoltTransactionRepository) DeleteTransaction(ctx context.Context, transactionID string, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.store.db.Update(func(tx *bolt.Tx) error {
		txns, err := bucket(tx, bucketTransactions)
		if err != nil {
			return err
		}
		if err := checkTransactionVersion(txns, transactionID, expectedVersion); err != nil {
			return err
		}
		return txns.Delete([]byte(transactionID))
	})
}

func checkTransactionVersion(txns *bolt.Bucket, transactionID string, expectedVersion int64) error {
	var stored models.TransactionRecord
	found, err := getJSON(txns, transactionID, &stored)
	if err != nil {
		return err
	}
	if !found {
		return apperrors.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return fmt.Errorf("%w: transaction %s is at version %d, expected %d",
			apperrors.ErrConflict, transactionID, stored.Version, expectedVersion)
	}
	return nil
}
