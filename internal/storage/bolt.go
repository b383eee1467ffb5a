package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	bolt "go.etcd.io/bbolt"

	"bilancio/internal/ledger"
)

var (
	bucketLedger = []byte("ledger")
	keySnapshot  = []byte("snapshot")
)

// BoltRepository keeps the snapshot under a fixed key of a bbolt bucket.
type BoltRepository struct {
	db *bolt.DB
}

func NewBoltRepository(path string) (*BoltRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open bolt database: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketLedger)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket %s: %w", bucketLedger, err)
	}
	return &BoltRepository{db: db}, nil
}

func (b *BoltRepository) Load(_ context.Context) (ledger.Ledger, error) {
	var data []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketLedger).Get(keySnapshot)
		if v == nil {
			return ErrNoSnapshot
		}
		// v is only valid inside the transaction.
		data = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return ledger.Ledger{}, err
	}
	return decodeSnapshot(data)
}

func (b *BoltRepository) Save(_ context.Context, l ledger.Ledger) error {
	data, err := encodeSnapshot(l)
	if err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketLedger).Put(keySnapshot, data)
	})
}

func (b *BoltRepository) Close() error {
	return b.db.Close()
}
