package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"LoveStory/server/internal/config"
	"LoveStory/server/internal/models"
)

// RedisStore keeps a capped list of recent audit records.
type RedisStore struct {
	client     *redis.Client
	listKey    string
	maxEntries int64
	ttl        time.Duration
}

func NewRedisStore(cfg config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return newRedisStore(client, cfg), nil
}

func newRedisStore(client *redis.Client, cfg config.RedisConfig) *RedisStore {
	store := &RedisStore{
		client:     client,
		listKey:    cfg.ListKey,
		maxEntries: cfg.MaxEntries,
		ttl:        cfg.TTL,
	}
	if store.listKey == "" {
		store.listKey = "turns:recent"
	}
	if store.maxEntries <= 0 {
		store.maxEntries = 1000
	}
	return store
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Record pushes the record onto the head of the list and trims the tail.
func (s *RedisStore) Record(ctx context.Context, record *models.TurnRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal turn record: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, s.listKey, data)
		pipe.LTrim(ctx, s.listKey, 0, s.maxEntries-1)
		if s.ttl > 0 {
			pipe.Expire(ctx, s.listKey, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store turn record: %w", err)
	}
	return nil
}
