package redis

import (
	"context"
	"time"

	"quizhost-service/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// TokenStore keeps opaque admin session tokens in Redis so identities survive
// process restarts. Tokens expire after ttl; 0 means no expiry.
type TokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewTokenStore(client *redis.Client, ttl time.Duration) *TokenStore {
	return &TokenStore{client: client, ttl: ttl}
}

// Issue mints a fresh opaque token for ownerID.
func (s *TokenStore) Issue(ctx context.Context, ownerID string) (string, error) {
	token := uuid.NewString()
	if err := s.client.Set(ctx, s.key(token), ownerID, s.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

func (s *TokenStore) ResolveOwner(ctx context.Context, token string) (string, error) {
	ownerID, err := s.client.Get(ctx, s.key(token)).Result()
	if err == redis.Nil {
		return "", domain.ErrInvalidToken
	}
	if err != nil {
		return "", err
	}
	return ownerID, nil
}

// Revoke logs the owner out by deleting the token.
func (s *TokenStore) Revoke(ctx context.Context, token string) error {
	deleted, err := s.client.Del(ctx, s.key(token)).Result()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return domain.ErrInvalidToken
	}
	return nil
}

func (s *TokenStore) key(token string) string {
	return "token:" + token
}
