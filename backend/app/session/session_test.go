package session

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	jwtutil "apnaghar/backend/app/jwt"

	"github.com/redis/go-redis/v9"
)

func newTestManager(store Store) *Manager {
	return NewManager(store, &jwtutil.Signer{Secret: []byte("test"), Issuer: "apnaghar", TTL: time.Hour})
}

func TestManager_IssueResolveRevoke(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(NewMemoryStore())

	token, exp, ident, err := m.Issue(ctx, Identity{UserID: 3, Username: "alice", Role: "owner"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if token == "" || ident.SessionID == "" || exp.Before(time.Now()) {
		t.Fatalf("unexpected issue result token=%q ident=%+v exp=%v", token, ident, exp)
	}

	got, err := m.Resolve(ctx, token)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.UserID != 3 || got.Role != "owner" || got.SessionID != ident.SessionID {
		t.Fatalf("unexpected identity %+v", got)
	}

	if err := m.Revoke(ctx, token); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if _, err := m.Resolve(ctx, token); !errors.Is(err, ErrNotFound) {
		t.Fatalf("revoked token resolved: %v", err)
	}
}

func TestManager_ResolveRejectsGarbage(t *testing.T) {
	m := newTestManager(NewMemoryStore())
	if _, err := m.Resolve(context.Background(), "garbage"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := m.Revoke(context.Background(), "garbage"); err != nil {
		t.Fatalf("Revoke of garbage should be a no-op, got %v", err)
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	s := NewMemoryStore()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	if err := s.Save(ctx, Identity{SessionID: "a", UserID: 1}, time.Minute); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(ctx, "a"); err != nil {
		t.Fatalf("fresh session: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if _, err := s.Load(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired session should be gone, got %v", err)
	}
}

func TestRedisStore_RoundTrip(t *testing.T) {
	addr := os.Getenv("APNAGHAR_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("APNAGHAR_TEST_REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	ctx := context.Background()
	s := NewRedisStore(rdb, "apnaghar:test:session:")

	if err := s.Save(ctx, Identity{SessionID: "r1", UserID: 9, Role: "student"}, time.Minute); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load(ctx, "r1")
	if err != nil || got.UserID != 9 || got.Role != "student" {
		t.Fatalf("Load: %+v %v", got, err)
	}
	if err := s.Delete(ctx, "r1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Load(ctx, "r1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
