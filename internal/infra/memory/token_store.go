package memory

import (
	"context"
	"sync"

	"quizhost-service/internal/domain"
	"github.com/google/uuid"
)

// TokenStore is an in-memory implementation of the identity collaborator:
// opaque admin tokens mapped to owner ids.
type TokenStore struct {
	mu     sync.RWMutex
	owners map[string]string
}

func NewTokenStore() *TokenStore {
	return &TokenStore{owners: make(map[string]string)}
}

// Issue mints a fresh opaque token for ownerID.
func (s *TokenStore) Issue(_ context.Context, ownerID string) (string, error) {
	token := uuid.NewString()
	s.mu.Lock()
	s.owners[token] = ownerID
	s.mu.Unlock()
	return token, nil
}

func (s *TokenStore) ResolveOwner(_ context.Context, token string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ownerID, ok := s.owners[token]
	if !ok {
		return "", domain.ErrInvalidToken
	}
	return ownerID, nil
}

// Revoke logs the owner out by dropping the token.
func (s *TokenStore) Revoke(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.owners[token]; !ok {
		return domain.ErrInvalidToken
	}
	delete(s.owners, token)
	return nil
}
