package backend

import (
	"context"
	"fmt"

	"bilancio/internal/log"
	"bilancio/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateRepository implements Factory.CreateRepository
func (f *DefaultFactory) CreateRepository(ctx context.Context, config Config) (storage.Repository, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}


	var (
		repo storage.Repository
		err  error
		attr []any
	)
	switch config.Type {
	case MemoryBackend:
		repo = storage.NewMemoryRepository()
	case FileBackend:
		repo, err = storage.NewFileRepository(config.DataFile)
		attr = []any{"path", config.DataFile}
	case SQLiteBackend:
		repo, err = storage.NewSQLiteRepository(config.SQLiteDBPath)
		attr = []any{"db_path", config.SQLiteDBPath}
	case BoltBackend:
		repo, err = storage.NewBoltRepository(config.BoltDBPath)
		attr = []any{"db_path", config.BoltDBPath}
	case RedisBackend:
		repo, err = storage.NewRedisRepository(ctx, config.Redis)
		attr = []any{"addr", config.Redis.Addr}
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s repository: %w", config.Type, err)
	}

	f.logger.InfoContext(ctx, "Initialized storage backend", append([]any{log.FieldBackend, config.Type.String()}, attr...)...)
	return repo, nil
}
