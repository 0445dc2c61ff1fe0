package store

import (
	"context"
	"testing"
	"time"

	"authplane/internal/session/domain"
)

func TestMemoryStore_PutAndGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	rec := domain.Record{RefreshToken: "rt", Revoked: false}
	if err := s.Put(ctx, "u1", rec, time.Hour); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("Get returned nil for existing record")
	}
	if got.PrincipalID != "u1" || got.RefreshToken != "rt" || got.Revoked {
		t.Errorf("Get: got %+v", got)
	}
}

func TestMemoryStore_GetAbsent(t *testing.T) {
	s := NewMemoryStore()
	got, err := s.Get(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Errorf("Get absent: want nil, got %+v", got)
	}
}

func TestMemoryStore_TTLElapses(t *testing.T) {
	now := time.Now().UTC()
	s := NewMemoryStoreWithClock(func() time.Time { return now })
	ctx := context.Background()

	if err := s.Put(ctx, "u1", domain.Record{RefreshToken: "rt"}, time.Hour); err != nil {
		t.Fatalf("Put: %v", err)
	}

	now = now.Add(time.Hour + time.Second)
	got, err := s.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Errorf("Get after TTL: want nil, got %+v", got)
	}
}

func TestMemoryStore_UpdateKeepTTLPreservesDeadline(t *testing.T) {
	now := time.Now().UTC()
	s := NewMemoryStoreWithClock(func() time.Time { return now })
	ctx := context.Background()

	if err := s.Put(ctx, "u1", domain.Record{RefreshToken: "rt"}, time.Hour); err != nil {
		t.Fatalf("Put: %v", err)
	}

	now = now.Add(30 * time.Minute)
	if err := s.UpdateKeepTTL(ctx, "u1", domain.Record{RefreshToken: "rt", Revoked: true}); err != nil {
		t.Fatalf("UpdateKeepTTL: %v", err)
	}

	got, err := s.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || !got.Revoked {
		t.Fatalf("Get after update: got %+v", got)
	}

	// The original deadline still applies; the update must not have extended it.
	now = now.Add(31 * time.Minute)
	got, err = s.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Errorf("Get after original TTL: want nil, got %+v", got)
	}
}

func TestMemoryStore_PutResetsTTL(t *testing.T) {
	now := time.Now().UTC()
	s := NewMemoryStoreWithClock(func() time.Time { return now })
	ctx := context.Background()

	if err := s.Put(ctx, "u1", domain.Record{RefreshToken: "old"}, time.Hour); err != nil {
		t.Fatalf("Put: %v", err)
	}
	now = now.Add(50 * time.Minute)
	// A new login overwrites the record and starts a fresh TTL.
	if err := s.Put(ctx, "u1", domain.Record{RefreshToken: "new"}, time.Hour); err != nil {
		t.Fatalf("Put: %v", err)
	}

	now = now.Add(50 * time.Minute)
	got, err := s.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.RefreshToken != "new" {
		t.Errorf("Get after re-login: got %+v", got)
	}
}

func TestKey(t *testing.T) {
	if got := Key("42"); got != "auth:user:42" {
		t.Errorf("Key: want auth:user:42, got %q", got)
	}
}

func TestMemoryStore_ExpirySweepKeepsFreshLogin(t *testing.T) {
	ctx := context.Background()
	base := time.Unix(1_700_000_000, 0).UTC()
	now := base

	var (
		s       *MemoryStore
		reLogin func()
	)
	s = NewMemoryStoreWithClock(func() time.Time {
		if reLogin != nil {
			f := reLogin
			reLogin = nil
			f()
		}
		return now
	})

	if err := s.Put(ctx, "u1", domain.Record{RefreshToken: "old"}, time.Minute); err != nil {
		t.Fatalf("Put: %v", err)
	}
	now = base.Add(2 * time.Minute)

	// A login lands between Get's expiry check and its delete; it must survive.
	reLogin = func() {
		_ = s.Put(ctx, "u1", domain.Record{RefreshToken: "fresh"}, time.Minute)
	}
	if rec, err := s.Get(ctx, "u1"); err != nil || rec != nil {
		t.Fatalf("expired read: rec=%+v err=%v", rec, err)
	}

	rec, err := s.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec == nil || rec.RefreshToken != "fresh" {
		t.Errorf("fresh session lost to the expiry sweep: %+v", rec)
	}
}
