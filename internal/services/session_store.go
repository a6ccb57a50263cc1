package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

// SessionStore tracks live login sessions in Redis so logout actually
// revokes a token before its JWT expiry. With no Redis client every token is
// treated as live until it expires.
type SessionStore struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewSessionStore(redisClient *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{redis: redisClient, ttl: ttl}
}

// Put registers a freshly issued token for accountID.
func (s *SessionStore) Put(ctx context.Context, token, accountID string) error {
	if s.redis == nil {
		return nil
	}
	return s.redis.Set(ctx, sessionKey(token), accountID, s.ttl).Err()
}

// IsLive reports whether the token belongs to a session that has not been
// revoked.
func (s *SessionStore) IsLive(ctx context.Context, token string) bool {
	if s.redis == nil {
		return true
	}
	err := s.redis.Get(ctx, sessionKey(token)).Err()
	if errors.Is(err, redis.Nil) {
		return false
	}
	// Treat a Redis outage as live rather than locking everyone out.
	return true
}

// Revoke ends the session for the token.
func (s *SessionStore) Revoke(ctx context.Context, token string) error {
	if s.redis == nil {
		return nil
	}
	return s.redis.Del(ctx, sessionKey(token)).Err()
}

// Tokens are hashed before use as keys so a Redis dump never contains usable
// credentials.
func sessionKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "session:" + hex.EncodeToString(sum[:])
}
