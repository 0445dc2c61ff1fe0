package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"authplane/internal/session/domain"
)

// keyPrefix is the session key namespace shared with every consumer of the store.
const keyPrefix = "auth:user:"

// RedisStore is a Store backed by Redis. TTL handling maps directly onto Redis
// semantics: Put uses SET with an expiry, UpdateKeepTTL uses SET KEEPTTL.
type RedisStore struct {
	client *redis.Client
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore returns a Store using the given Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Key returns the store key for the given principal id.
func Key(principalID string) string {
	return keyPrefix + principalID
}

// Put serializes rec and writes it under the principal's key with the given TTL.
func (s *RedisStore) Put(ctx context.Context, principalID string, rec domain.Record, ttl time.Duration) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("session store: marshal record: %w", err)
	}
	if err := s.client.Set(ctx, Key(principalID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("session store: put: %w", err)
	}
	return nil
}

// Get reads and deserializes the record for principalID. Returns (nil, nil) when
// the key does not exist or its TTL has elapsed.
func (s *RedisStore) Get(ctx context.Context, principalID string) (*domain.Record, error) {
	payload, err := s.client.Get(ctx, Key(principalID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("session store: get: %w", err)
	}
	var rec domain.Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("session store: unmarshal record: %w", err)
	}
	rec.PrincipalID = principalID
	return &rec, nil
}

// UpdateKeepTTL overwrites the record while preserving the key's remaining TTL.
func (s *RedisStore) UpdateKeepTTL(ctx context.Context, principalID string, rec domain.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("session store: marshal record: %w", err)
	}
	if err := s.client.Set(ctx, Key(principalID), payload, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("session store: update: %w", err)
	}
	return nil
}
