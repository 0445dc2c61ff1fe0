// Package store persists session records in a key-value store with per-key TTL.
package store

import (
	"context"
	"time"

	"authplane/internal/session/domain"
)

// Store defines key-value persistence for session records. All operations are
// atomic per key; no cross-key transactions exist or are needed.
type Store interface {
	// Put creates or overwrites the record for principalID and sets the key's TTL,
	// replacing any previous TTL. Used at login.
	Put(ctx context.Context, principalID string, rec domain.Record, ttl time.Duration) error
	// Get returns the record for principalID, or (nil, nil) when absent. A key whose
	// TTL has elapsed reads back as absent; callers cannot and must not distinguish
	// the two cases.
	Get(ctx context.Context, principalID string) (*domain.Record, error)
	// UpdateKeepTTL overwrites the stored record without touching the remaining TTL.
	// Used at logout to flip Revoked without extending the session window.
	UpdateKeepTTL(ctx context.Context, principalID string, rec domain.Record) error
}
