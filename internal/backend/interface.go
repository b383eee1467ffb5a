// Package backend selects and opens the storage repository named by the
// configuration.
package backend

import (
	"context"

	"bilancio/internal/storage"
)

// Factory opens repositories based on configuration.
type Factory interface {
	CreateRepository(ctx context.Context, config Config) (storage.Repository, error)
}

// Config holds configuration for repository creation.
type Config struct {
	Type BackendType

	DataFile     string
	SQLiteDBPath string
	BoltDBPath   string
	Redis        storage.RedisOptions
}

// BackendType names a storage backend.
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	FileBackend   BackendType = "file"
	SQLiteBackend BackendType = "sqlite"
	BoltBackend   BackendType = "bolt"
	RedisBackend  BackendType = "redis"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, FileBackend, SQLiteBackend, BoltBackend, RedisBackend:
		return true
	default:
		return false
	}
}

// Shared reports whether another process can read what this backend stores.
func (bt BackendType) Shared() bool {
	return bt != MemoryBackend
}
