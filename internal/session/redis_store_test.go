package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"swiftflow/api/internal/department"
	"swiftflow/api/internal/store"
)

func setupTestRedis(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	rs, err := NewRedisStore("redis://" + mr.Addr())
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	t.Cleanup(func() { rs.Close() })
	return rs
}

func testUser() store.User {
	return store.User{ID: 7, Username: "ravi", Department: department.Machining}
}

func TestSaveAndLookupRefreshSession(t *testing.T) {
	rs := setupTestRedis(t)
	ctx := context.Background()

	if err := rs.SaveRefreshSession(ctx, "hash-1", testUser(), time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("SaveRefreshSession: %v", err)
	}

	user, err := rs.LookupRefreshSession(ctx, "hash-1")
	if err != nil {
		t.Fatalf("LookupRefreshSession: %v", err)
	}
	if user.ID != 7 || user.Username != "ravi" || user.Department != department.Machining {
		t.Fatalf("user = %+v", user)
	}
}

func TestLookupUnknownSession(t *testing.T) {
	rs := setupTestRedis(t)
	if _, err := rs.LookupRefreshSession(context.Background(), "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestSessionExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	rs, err := NewRedisStore("redis://" + mr.Addr())
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	defer rs.Close()
	ctx := context.Background()

	if err := rs.SaveRefreshSession(ctx, "hash-2", testUser(), time.Now().Add(time.Second)); err != nil {
		t.Fatalf("SaveRefreshSession: %v", err)
	}

	mr.FastForward(2 * time.Second)

	if _, err := rs.LookupRefreshSession(ctx, "hash-2"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestRevokeRefreshSession(t *testing.T) {
	rs := setupTestRedis(t)
	ctx := context.Background()

	if err := rs.SaveRefreshSession(ctx, "hash-3", testUser(), time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("SaveRefreshSession: %v", err)
	}
	if err := rs.RevokeRefreshSession(ctx, "hash-3"); err != nil {
		t.Fatalf("RevokeRefreshSession: %v", err)
	}
	if _, err := rs.LookupRefreshSession(ctx, "hash-3"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestSaveRejectsPastExpiry(t *testing.T) {
	rs := setupTestRedis(t)
	if err := rs.SaveRefreshSession(context.Background(), "hash-4", testUser(), time.Now().Add(-time.Minute)); err == nil {
		t.Fatal("expected error for past expiry")
	}
}
