// Package session tracks revoked session tokens so a logged-out or deleted
// account's token is refused before it expires.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store records revoked token ids until the token would have expired anyway.
type Store interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

const keyPrefix = "session:revoked:"

// RedisStore keeps revocations as expiring redis keys so every API replica sees them.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// NewRedisStoreFromURL parses a redis:// URL and pings the server.
func NewRedisStoreFromURL(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRedisStore(client), nil
}

func (s *RedisStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, keyPrefix+tokenID, 1, ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token %s: %w", tokenID, err)
	}
	return nil
}

func (s *RedisStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, keyPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token %s: %w", tokenID, err)
	}
	return n > 0, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// MemoryStore is a single-process Store used when no redis is configured.
type MemoryStore struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		revoked: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (s *MemoryStore) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, until := range s.revoked {
		if !until.After(now) {
			delete(s.revoked, id)
		}
	}
	s.revoked[tokenID] = now.Add(ttl)
	return nil
}

func (s *MemoryStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	until, ok := s.revoked[tokenID]
	return ok && until.After(s.now()), nil
}
