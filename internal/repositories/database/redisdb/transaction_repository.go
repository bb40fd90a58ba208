package redisdb

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
	"github.com/go-redis/redis/v8"
)

// RedisTransactionRepository stores transaction records as JSON documents.
type RedisTransactionRepository struct {
	client *redis.Client
	keys   keyspace
}

func newRedisTransactionRepository(client *redis.Client, keys keyspace) portsrepo.TransactionRecordRepositoryFacade {
	return &RedisTransactionRepository{client: client, keys: keys}
}

var _ portsrepo.TransactionRecordRepositoryFacade = (*RedisTransactionRepository)(nil)

func (r *RedisTransactionRepository) SaveTransaction(ctx context.Context, record domain.TransactionRecord) error {
	m := mapping.ToModelTransactionRecord(record)
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction %s: %w", m.TransactionID, err)
	}
	ok, err := r.client.SetNX(ctx, r.keys.transaction(m.TransactionID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to save transaction %s: %w", m.TransactionID, err)
	}
	if !ok {
		return fmt.Errorf("%w: transaction with ID %s already exists", apperrors.ErrDuplicate, m.TransactionID)
	}
	if err := r.client.SAdd(ctx, r.keys.transactions(), m.TransactionID).Err(); err != nil {
		return fmt.Errorf("failed to index transaction %s: %w", m.TransactionID, err)
	}
	return nil
}

func (r *RedisTransactionRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.TransactionRecord, error) {
	var m models.TransactionRecord
	if err := getJSON(ctx, r.client, r.keys.transaction(transactionID), &m); err != nil {
		return nil, err
	}
	rec := mapping.ToDomainTransactionRecord(m)
	return &rec, nil
}

func (r *RedisTransactionRepository) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.TransactionRecord, error) {
	docs, err := loadAll(ctx, r.client, r.keys.transactions(), r.keys.transaction)
	if err != nil {
		return nil, err
	}
	records := []domain.TransactionRecord{}
	for _, doc := range docs {
		var m models.TransactionRecord
		if err := json.Unmarshal(doc, &m); err != nil {
			return nil, fmt.Errorf("failed to unmarshal transaction: %w", err)
		}
		rec := mapping.ToDomainTransactionRecord(m)
		if filter.Matches(&rec) {
			records = append(records, rec)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].TransactionID < records[j].TransactionID
		}
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

func (r *RedisTransactionRepository) UpdateTransaction(ctx context.Context, record domain.TransactionRecord, expectedVersion int64) error {
	m := mapping.ToModelTransactionRecord(record)
	key := r.keys.transaction(m.TransactionID)
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction %s: %w", m.TransactionID, err)
	}

	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		if err := checkVersion(ctx, tx, key, m.TransactionID, expectedVersion); err != nil {
			return err
		}
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		return err
	}, key)
	return translateTxErr(err, "transaction "+m.TransactionID)
}

func (r *RedisTransactionRepository) DeleteTransaction(ctx context.Context, transactionID string, expectedVersion int64) error {
	key := r.keys.transaction(transactionID)
	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		if err := checkVersion(ctx, tx, key, transactionID, expectedVersion); err != nil {
			return err
		}
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.SRem(ctx, r.keys.transactions(), transactionID)
			return nil
		})
		return err
	}, key)
	return translateTxErr(err, "transaction "+transactionID)
}

func checkVersion(ctx context.Context, tx *redis.Tx, key, transactionID string, expectedVersion int64) error {
	var stored models.TransactionRecord
	if err := getJSON(ctx, tx, key, &stored); err != nil {
		return err
	}
	if stored.Version != expectedVersion {
		return fmt.Errorf("%w: transaction %s is at version %d, expected %d",
			apperrors.ErrConflict, transactionID, stored.Version, expectedVersion)
	}
	return nil
}
