package boltdb

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/SscSPs/club_ledger/internal/apperrors"
	"github.com/SscSPs/club_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/club_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/club_ledger/internal/models"
	"github.com/SscSPs/club_ledger/internal/utils/mapping"
	bolt "go.etcd.io/bbolt"
)

// BoltAccountRepository stores each account as one JSON document with its ledger embedded.
type BoltAccountRepository struct {
	store *store
}

func newBoltAccountRepository(s *store) portsrepo.AccountRepositoryFacade {
	return &BoltAccountRepository{store: s}
}

// Ensure BoltAccountRepository implements portsrepo.AccountRepositoryFacade
var _ portsrepo.AccountRepositoryFacade = (*BoltAccountRepository)(nil)

// SaveAccount inserts a new account document.
func (r *BoltAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := mapping.ToModelAccount(account)

	return r.store.db.Update(func(tx *bolt.Tx) error {
		accounts, err := bucket(tx, bucketAccounts)
		if err != nil {
			return err
		}
		if accounts.Get([]byte(m.AccountID)) != nil {
			return fmt.Errorf("%w: account with ID %s already exists", apperrors.ErrDuplicate, m.AccountID)
		}
		if m.Kind == models.Category {
			index, err := bucket(tx, bucketCategoryIndex)
			if err != nil {
				return err
			}
			key := categoryKey(m.Name)
			if index.Get(key) != nil {
				return fmt.Errorf("%w: category bucket %q already exists", apperrors.ErrDuplicate, m.Name)
			}
			if err := index.Put(key, []byte(m.AccountID)); err != nil {
				return err
			}
		}
		return putJSON(accounts, m.AccountID, m)
	})
}

// FindAccountByID retrieves an account by its ID.
func (r *BoltAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var m models.Account
	err := r.store.db.View(func(tx *bolt.Tx) error {
		accounts, err := bucket(tx, bucketAccounts)
		if err != nil {
			return err
		}
		found, err := getJSON(accounts, accountID, &m)
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
	acc := mapping.ToDomainAccount(m)
	return &acc, nil
}

// FindCategoryAccount resolves a category bucket through the name index.
func (r *BoltAccountRepository) FindCategoryAccount(ctx context.Context, name string) (*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var accountID string
	err := r.store.db.View(func(tx *bolt.Tx) error {
		index, err := bucket(tx, bucketCategoryIndex)
		if err != nil {
			return err
		}
		id := index.Get(categoryKey(name))
		if id == nil {
			return apperrors.ErrNotFound
		}
		accountID = string(id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.FindAccountByID(ctx, accountID)
}

// ListAccounts scans the accounts bucket and returns matches ordered by name.
func (r *BoltAccountRepository) ListAccounts(ctx context.Context, filter domain.AccountFilter) ([]domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result := []domain.Account{}
	err := r.store.db.View(func(tx *bolt.Tx) error {
		accounts, err := bucket(tx, bucketAccounts)
		if err != nil {
			return err
		}
		return accounts.ForEach(func(k, v []byte) error {
			var m models.Account
			if err := json.Unmarshal(v, &m); err != nil {
				return fmt.Errorf("failed to unmarshal account %s: %w", k, err)
			}
			acc := mapping.ToDomainAccount(m)
			if filter.Matches(&acc) {
				result = append(result, acc)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	sort.Slice(result, func(i, j int) bool {
		return strings.ToLower(result[i].Name) < strings.ToLower(result[j].Name)
	})
	return result, nil
}

// PutAccount writes the account if the stored version matches expectedVersion.
func (r *BoltAccountRepository) PutAccount(ctx context.Context, account domain.Account, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := mapping.ToModelAccount(account)

	return r.store.db.Update(func(tx *bolt.Tx) error {
		accounts, err := bucket(tx, bucketAccounts)
		if err != nil {
			return err
		}
		var stored models.Account
		found, err := getJSON(accounts, m.AccountID, &stored)
		if err != nil {
			return err
		}
		if !found {
			return apperrors.ErrNotFound
		}
		if stored.Version != expectedVersion {
			return fmt.Errorf("%w: account %s is at version %d, expected %d",
				apperrors.ErrConflict, m.AccountID, stored.Version, expectedVersion)
		}
		if len(m.Ledger) < len(stored.Ledger) {
			return fmt.Errorf("%w: ledger of account %s cannot shrink", apperrors.ErrValidation, m.AccountID)
		}
		if stored.Kind == models.Category && !strings.EqualFold(stored.Name, m.Name) {
			if err := moveCategoryIndex(tx, stored.Name, m.Name, m.AccountID); err != nil {
				return err
			}
		}

		m.Version = expectedVersion + 1
		return putJSON(accounts, m.AccountID, m)
	})
}

func moveCategoryIndex(tx *bolt.Tx, oldName, newName, accountID string) error {
	index, err := bucket(tx, bucketCategoryIndex)
	if err != nil {
		return err
	}
	newKey := categoryKey(newName)
	if existing := index.Get(newKey); existing != nil && string(existing) != accountID {
		return fmt.Errorf("%w: category bucket %q already exists", apperrors.ErrDuplicate, newName)
	}
	if err := index.Delete(categoryKey(oldName)); err != nil {
		return err
	}
	return index.Put(newKey, []byte(accountID))
}
