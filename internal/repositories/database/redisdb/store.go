package redisdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/SscSPs/club_ledger/internal/apperrors"
	portsrepo "github.com/SscSPs/club_ledger/internal/core/ports/repositories"
	"github.com/go-redis/redis/v8"
)

// keyspace builds the redis keys used by the repositories, all under one prefix.
type keyspace struct {
	prefix string
}

func (k keyspace) account(id string) string {
	return k.prefix + "account:" + id
}

func (k keyspace) accounts() string {
	return k.prefix + "accounts"
}

func (k keyspace) transaction(id string) string {
	return k.prefix + "txn:" + id
}

func (k keyspace) transactions() string {
	return k.prefix + "transactions"
}

// category keys are case-insensitive so each category has one bucket.
func (k keyspace) category(name string) string {
	return k.prefix + "category:" + strings.ToLower(strings.TrimSpace(name))
}

// NewRepositoryProvider returns redis-backed repositories. Documents are JSON
// strings; optimistic writes use WATCH/MULTI on the document key.
func NewRepositoryProvider(client *redis.Client, prefix string) portsrepo.RepositoryProvider {
	keys := keyspace{prefix: prefix}
	return portsrepo.RepositoryProvider{
		AccountRepo:     newRedisAccountRepository(client, keys),
		TransactionRepo: newRedisTransactionRepository(client, keys),
	}
}

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// getJSON loads key into v, translating redis.Nil to apperrors.ErrNotFound.
func getJSON(ctx context.Context, c getter, key string, v any) error {
	data, err := c.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return nil
}

// loadAll fetches every document listed in a set.
func loadAll(ctx context.Context, c *redis.Client, setKey string, keyOf func(string) string) ([][]byte, error) {
	ids, err := c.SMembers(ctx, setKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", setKey, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = keyOf(id)
	}
	values, err := c.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", setKey, err)
	}
	docs := make([][]byte, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			docs = append(docs, []byte(s))
		}
	}
	return docs, nil
}

// translateTxErr maps a lost WATCH race onto ErrConflict.
func translateTxErr(err error, what string) error {
	if errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("%w: %s modified concurrently", apperrors.ErrConflict, what)
	}
	return err
}
