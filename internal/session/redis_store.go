// Package session provides refresh-token storage backends.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"swiftflow/api/internal/department"
	"swiftflow/api/internal/store"
)

// ErrSessionNotFound covers both unknown and expired refresh tokens.
var ErrSessionNotFound = errors.New("refresh session not found or expired")

// tokenData is the record stored per refresh token hash.
type tokenData struct {
	UserID     int64     `json:"user_id"`
	Username   string    `json:"username"`
	Department string    `json:"department"`
	CreatedAt  time.Time `json:"created_at"`
}

// RedisStore keeps refresh sessions in Redis with a TTL matching the token
// expiry, so revocation and expiry need no sweeper.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisStoreWithClient(client), nil
}

func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "refresh:"}
}

func (s *RedisStore) key(tokenHash string) string {
	return s.prefix + tokenHash
}

func (s *RedisStore) SaveRefreshSession(ctx context.Context, tokenHash string, user store.User, expiresAt time.Time) error {
	data, err := json.Marshal(tokenData{
		UserID:     user.ID,
		Username:   user.Username,
		Department: string(user.Department),
		CreatedAt:  time.Now(),
	})
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return fmt.Errorf("refresh session already expired")
	}

	if err := s.client.Set(ctx, s.key(tokenHash), data, ttl).Err(); err != nil {
		return fmt.Errorf("save refresh session: %w", err)
	}
	return nil
}

func (s *RedisStore) LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error) {
	raw, err := s.client.Get(ctx, s.key(tokenHash)).Result()
	if errors.Is(err, redis.Nil) {
		return store.User{}, ErrSessionNotFound
	}
	if err != nil {
		return store.User{}, fmt.Errorf("lookup refresh session: %w", err)
	}

	var data tokenData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return store.User{}, fmt.Errorf("unmarshal session: %w", err)
	}

	return store.User{
		ID:         data.UserID,
		Username:   data.Username,
		Department: department.Department(data.Department),
		Enabled:    true,
	}, nil
}

func (s *RedisStore) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	if err := s.client.Del(ctx, s.key(tokenHash)).Err(); err != nil {
		return fmt.Errorf("revoke refresh session: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
