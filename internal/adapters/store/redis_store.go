package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/mikey/email-triage/internal/core"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisStore keeps each thread as a Redis list of JSON-encoded emails
type RedisStore struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// NewRedisStore connects to Redis using a redis:// URL
func NewRedisStore(redisURL, prefix string, logger *zap.Logger) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisStoreFromClient(client, prefix, logger), nil
}

// NewRedisStoreFromClient wraps an existing client
func NewRedisStoreFromClient(client *redis.Client, prefix string, logger *zap.Logger) *RedisStore {
	if prefix == "" {
		prefix = "triage"
	}
	return &RedisStore{client: client, prefix: prefix, logger: logger}
}

func (s *RedisStore) threadKey(key string) string {
	return s.prefix + ":thread:" + key
}

func (s *RedisStore) indexKey() string {
	return s.prefix + ":threads"
}

// Append pushes the email onto the tail of its thread list
func (s *RedisStore) Append(ctx context.Context, email *core.Email) error {
	data, err := json.Marshal(email)
	if err != nil {
		return fmt.Errorf("failed to encode email: %w", err)
	}

	key := email.ThreadKey()
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, s.threadKey(key), data)
	pipe.SAdd(ctx, s.indexKey(), key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append email to redis: %w", err)
	}
	return nil
}

// Thread returns the thread's emails in arrival order. An undecodable entry
// fails the read: dropping it could change which email is actionable.
func (s *RedisStore) Thread(ctx context.Context, key string) ([]*core.Email, error) {
	items, err := s.client.LRange(ctx, s.threadKey(key), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read thread from redis: %w", err)
	}

	emails := make([]*core.Email, 0, len(items))
	for i, item := range items {
		var email core.Email
		if err := json.Unmarshal([]byte(item), &email); err != nil {
			s.logger.Error("Undecodable thread entry",
				zap.String("thread_id", key),
				zap.Int("position", i),
				zap.Error(err))
			return nil, fmt.Errorf("failed to decode entry %d of thread %s: %w", i, key, err)
		}
		emails = append(emails, &email)
	}
	return emails, nil
}

// Threads lists known thread keys
func (s *RedisStore) Threads(ctx context.Context) ([]string, error) {
	keys, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list threads from redis: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Stop closes the Redis client
func (s *RedisStore) Stop() {
	if err := s.client.Close(); err != nil {
		s.logger.Error("Failed to close redis client", zap.Error(err))
	}
}
