package session

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"swiftflow/api/internal/store"
)

// PostgresStore keeps refresh sessions in the refresh_sessions table. It is
// the fallback backend when Redis is not reachable at boot.
type PostgresStore struct {
	db *store.PostgresStore
}

func NewPostgresStore(db *store.PostgresStore) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) SaveRefreshSession(ctx context.Context, tokenHash string, user store.User, expiresAt time.Time) error {
	return s.db.SaveRefreshSession(ctx, tokenHash, user.ID, expiresAt)
}

func (s *PostgresStore) LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error) {
	user, err := s.db.LookupRefreshSession(ctx, tokenHash)
	if errors.Is(err, sql.ErrNoRows) {
		return store.User{}, ErrSessionNotFound
	}
	return user, err
}

func (s *PostgresStore) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	return s.db.RevokeRefreshSession(ctx, tokenHash)
}
