// Package storage persists whole ledger snapshots. Every backend stores the
// complete ledger on Save and returns it on Load; there are no partial writes.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"bilancio/internal/ledger"
)

// ErrNoSnapshot is returned by Load when nothing has been saved yet.
var ErrNoSnapshot = errors.New("no snapshot stored")

// Repository is the durable store contract.
type Repository interface {
	Load(ctx context.Context) (ledger.Ledger, error)
	Save(ctx context.Context, l ledger.Ledger) error
	Close() error
}

func encodeSnapshot(l ledger.Ledger) ([]byte, error) {
	data, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

func decodeSnapshot(data []byte) (ledger.Ledger, error) {
	var l ledger.Ledger
	if err := json.Unmarshal(data, &l); err != nil {
		return ledger.Ledger{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return ledger.New(l.Categories, l.Methods, l.Records), nil
}
