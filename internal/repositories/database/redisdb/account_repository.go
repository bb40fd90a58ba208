package redisdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/SscSPs/club_ledger/internal/apperrors"
	"github.com/SscSPs/club_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/club_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/club_ledger/internal/models"
	"github.com/SscSPs/club_ledger/internal/utils/mapping"
	"github.com/go-redis/redis/v8"
)

// RedisAccountRepository stores accounts as JSON documents with embedded ledgers.
type RedisAccountRepository struct {
	client *redis.Client
	keys   keyspace
}

func newRedisAccountRepository(client *redis.Client, keys keyspace) portsrepo.AccountRepositoryFacade {
	return &RedisAccountRepository{client: client, keys: keys}
}

var _ portsrepo.AccountRepositoryFacade = (*RedisAccountRepository)(nil)

// SaveAccount claims the category name first, then the account key.
func (r *RedisAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	m := mapping.ToModelAccount(account)
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal account %s: %w", m.AccountID, err)
	}

	claimedCategory := ""
	if m.Kind == models.Category {
		key := r.keys.category(m.Name)
		ok, err := r.client.SetNX(ctx, key, m.AccountID, 0).Result()
		if err != nil {
			return fmt.Errorf("failed to claim category %q: %w", m.Name, err)
		}
		if !ok {
			return fmt.Errorf("%w: category bucket %q already exists", apperrors.ErrDuplicate, m.Name)
		}
		claimedCategory = key
	}

	ok, err := r.client.SetNX(ctx, r.keys.account(m.AccountID), data, 0).Result()
	if err == nil && !ok {
		err = fmt.Errorf("%w: account with ID %s already exists", apperrors.ErrDuplicate, m.AccountID)
	}
	if err != nil {
		if claimedCategory != "" {
			r.client.Del(ctx, claimedCategory)
		}
		return err
	}

	if err := r.client.SAdd(ctx, r.keys.accounts(), m.AccountID).Err(); err != nil {
		return fmt.Errorf("failed to index account %s: %w", m.AccountID, err)
	}
	return nil
}

func (r *RedisAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	var m models.Account
	if err := getJSON(ctx, r.client, r.keys.account(accountID), &m); err != nil {
		return nil, err
	}
	acc := mapping.ToDomainAccount(m)
	return &acc, nil
}

func (r *RedisAccountRepository) FindCategoryAccount(ctx context.Context, name string) (*domain.Account, error) {
	accountID, err := r.client.Get(ctx, r.keys.category(name)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up category %q: %w", name, err)
	}
	return r.FindAccountByID(ctx, accountID)
}

func (r *RedisAccountRepository) ListAccounts(ctx context.Context, filter domain.AccountFilter) ([]domain.Account, error) {
	docs, err := loadAll(ctx, r.client, r.keys.accounts(), r.keys.account)
	if err != nil {
		return nil, err
	}
	accounts := []domain.Account{}
	for _, doc := range docs {
		var m models.Account
		if err := json.Unmarshal(doc, &m); err != nil {
			return nil, fmt.Errorf("failed to unmarshal account: %w", err)
		}
		acc := mapping.ToDomainAccount(m)
		if filter.Matches(&acc) {
			accounts = append(accounts, acc)
		}
	}
	sort.Slice(accounts, func(i, j int) bool {
		return strings.ToLower(accounts[i].Name) < strings.ToLower(accounts[j].Name)
	})
	return accounts, nil
}

// PutAccount writes under WATCH so a concurrent writer aborts the EXEC.
func (r *RedisAccountRepository) PutAccount(ctx context.Context, account domain.Account, expectedVersion int64) error {
	m := mapping.ToModelAccount(account)
	key := r.keys.account(m.AccountID)

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		var stored models.Account
		if err := getJSON(ctx, tx, key, &stored); err != nil {
			return err
		}
		if stored.Version != expectedVersion {
			return fmt.Errorf("%w: account %s is at version %d, expected %d",
				apperrors.ErrConflict, m.AccountID, stored.Version, expectedVersion)
		}
		if len(m.Ledger) < len(stored.Ledger) {
			return fmt.Errorf("%w: ledger of account %s cannot shrink", apperrors.ErrValidation, m.AccountID)
		}

		renamed := stored.Kind == models.Category && !strings.EqualFold(stored.Name, m.Name)
		if renamed {
			owner, err := tx.Get(ctx, r.keys.category(m.Name)).Result()
			if err != nil && !errors.Is(err, redis.Nil) {
				return fmt.Errorf("failed to check category %q: %w", m.Name, err)
			}
			if err == nil && owner != m.AccountID {
				return fmt.Errorf("%w: category bucket %q already exists", apperrors.ErrDuplicate, m.Name)
			}
		}

		m.Version = expectedVersion + 1
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("failed to marshal account %s: %w", m.AccountID, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			if renamed {
				pipe.Del(ctx, r.keys.category(stored.Name))
				pipe.Set(ctx, r.keys.category(m.Name), m.AccountID, 0)
			}
			return nil
		})
		return err
	}, key)

	return translateTxErr(err, "account "+m.AccountID)
}
