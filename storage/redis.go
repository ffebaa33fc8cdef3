package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisTimeout = 5 * time.Second

// RedisConfig holds the connection settings of a redis-backed store.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
	// KeyPrefix namespaces every key, so several trees can share a database.
	KeyPrefix string
}

type RedisHelper struct {
	client *redis.Client
	prefix string
}

func NewRedis(cfg RedisConfig) (KvStore, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Address, err)
	}

	return &RedisHelper{client: client, prefix: cfg.KeyPrefix}, nil
}

func (h *RedisHelper) Close() error {
	return h.client.Close()
}

func (h *RedisHelper) Get(key []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	value, err := h.client.Get(ctx, h.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}

	return value, err
}

func (h *RedisHelper) Put(key, value []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	return h.client.Set(ctx, h.key(key), value, 0).Err()
}

func (h *RedisHelper) Delete(key []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	return h.client.Del(ctx, h.key(key)).Err()
}

func (h *RedisHelper) NewBatch() Batch {
	return &redisBatch{helper: h, pipe: h.client.TxPipeline()}
}

func (h *RedisHelper) key(key []byte) string {
	return h.prefix + string(key)
}

type redisBatch struct {
	helper *RedisHelper
	pipe   redis.Pipeliner
	ops    int
}

func (b *redisBatch) Put(key, value []byte) {
	b.pipe.Set(context.Background(), b.helper.key(key), value, 0)
	b.ops++
}

func (b *redisBatch) Delete(key []byte) {
	b.pipe.Del(context.Background(), b.helper.key(key))
	b.ops++
}

func (b *redisBatch) Write() error {
	if b.ops == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	_, err := b.pipe.Exec(ctx)
	return err
}
