package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"bilancio/internal/ledger"
)

// RedisOptions selects the server and the key holding the snapshot.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

// RedisRepository stores the snapshot JSON as a single string value.
type RedisRepository struct {
	client *redis.Client
	key    string
}

// NewRedisRepository connects and pings the server.
func NewRedisRepository(ctx context.Context, opts RedisOptions) (*RedisRepository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	key := opts.Key
	if key == "" {
		key = "bilancio:ledger"
	}
	return &RedisRepository{client: client, key: key}, nil
}

func (r *RedisRepository) Load(ctx context.Context) (ledger.Ledger, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ledger.Ledger{}, ErrNoSnapshot
	}
	if err != nil {
		return ledger.Ledger{}, fmt.Errorf("get %s: %w", r.key, err)
	}
	return decodeSnapshot(data)
}

func (r *RedisRepository) Save(ctx context.Context, l ledger.Ledger) error {
	data, err := encodeSnapshot(l)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", r.key, err)
	}
	return nil
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}
