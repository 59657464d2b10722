package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/GoPolymarket/vesu-deployer/internal/config"
)

type RedisClient struct {
	Client *redis.Client
}

func NewRedisClient(cfg *config.Config) (*RedisClient, error) {
	if cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("redis address is empty")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisClient{Client: rdb}, nil
}

func (r *RedisClient) Close() error {
	return r.Client.Close()
}

// RedisClassStore remembers declared class hashes between runs.
// Layout: HSET <prefix><name> <artifact digest> <class hash>
type RedisClassStore struct {
	client *RedisClient
	prefix string
	ttl    time.Duration
}

func NewRedisClassStore(client *RedisClient, prefix string) *RedisClassStore {
	if prefix == "" {
		prefix = "vesu:class:"
	}
	return &RedisClassStore{client: client, prefix: prefix, ttl: 30 * 24 * time.Hour}
}

func (s *RedisClassStore) key(name string) string {
	return s.prefix + name
}

func (s *RedisClassStore) GetClassHash(ctx context.Context, name, digest string) (string, bool, error) {
	v, err := s.client.Client.HGet(ctx, s.key(name), digest).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *RedisClassStore) PutClassHash(ctx context.Context, name, digest, classHash string) error {
	pipe := s.client.Client.Pipeline()
	pipe.HSet(ctx, s.key(name), digest, classHash)
	// refresh on every write so rarely rebuilt contracts stay cached
	pipe.Expire(ctx, s.key(name), s.ttl)
	_, err := pipe.Exec(ctx)
	return err
}
