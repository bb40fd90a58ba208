package boltdb

import (
	"encoding/json"
	"fmt"
	"strings"

	portsrepo "github.com/SscSPs/club_ledger/internal/core/ports/repositories"
	bolt "go.etcd.io/bbolt"
)

// Bucket names.
const (
	bucketAccounts      = "accounts"
	bucketCategoryIndex = "category_index" // lower(name) -> account id
	bucketTransactions  = "transactions"
)

// store wraps the bbolt handle shared by the repositories. bbolt runs one
// writer at a time, so version checks inside db.Update are race-free.
type store struct {
	db *bolt.DB
}

func newStore(db *bolt.DB) (*store, error) {
	err := db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range []string{bucketAccounts, bucketCategoryIndex, bucketTransactions} {
			if _, err := tx.CreateBucketIfNotExists([]byte(bucket)); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &store{db: db}, nil
}

// NewRepositoryProvider initializes buckets and returns bolt-backed repositories.
func NewRepositoryProvider(db *bolt.DB) (portsrepo.RepositoryProvider, error) {
	s, err := newStore(db)
	if err != nil {
		return portsrepo.RepositoryProvider{}, err
	}
	return portsrepo.RepositoryProvider{
		AccountRepo:     newBoltAccountRepository(s),
		TransactionRepo: newBoltTransactionRepository(s),
	}, nil
}

func bucket(tx *bolt.Tx, name string) (*bolt.Bucket, error) {
	b := tx.Bucket([]byte(name))
	if b == nil {
		return nil, fmt.Errorf("bucket %s not found", name)
	}
	return b, nil
}

// getJSON decodes key into v and reports whether the key existed.
func getJSON(b *bolt.Bucket, key string, v any) (bool, error) {
	data := b.Get([]byte(key))
	if data == nil {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return true, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return true, nil
}

func putJSON(b *bolt.Bucket, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return b.Put([]byte(key), data)
}

func categoryKey(name string) []byte {
	return []byte(strings.ToLower(strings.TrimSpace(name)))
}
