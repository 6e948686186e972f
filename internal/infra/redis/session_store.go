package redis

import (
	"context"
	"strconv"
	"time"

	"quizhost-service/internal/app"
	"quizhost-service/internal/infra/memory"
	"github.com/redis/go-redis/v9"
)

// SessionStore decorates the in-memory directory with Redis liveness markers.
// Notes:
//   - Sessions themselves stay in process memory; the engine's per-session
//     locking already serializes mutations.
//   - Redis marks which sessions exist (and could be extended to share
//     rosters for cross-instance visibility).
type SessionStore struct {
	inner  *memory.SessionStore
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		inner:  memory.NewSessionStore(),
		client: client,
		ttl:    ttl,
	}
}

func (s *SessionStore) Insert(ownerID string, create func(id int) *app.Session) *app.Session {
	session := s.inner.Insert(ownerID, create)
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(ownerID, session.ID()), session.QuizID(), s.ttl).Err()
	return session
}

func (s *SessionStore) Get(ownerID string, sessionID int) (*app.Session, bool) {
	return s.inner.Get(ownerID, sessionID)
}

func (s *SessionStore) ByQuiz(ownerID, quizID string) []*app.Session {
	return s.inner.ByQuiz(ownerID, quizID)
}

func (s *SessionStore) BySessionID(sessionID int) (*app.Session, bool) {
	return s.inner.BySessionID(sessionID)
}

func (s *SessionStore) ByPlayer(playerID int) (*app.Session, bool) {
	return s.inner.ByPlayer(playerID)
}

func (s *SessionStore) RegisterPlayer(session *app.Session, playerID int) {
	s.inner.RegisterPlayer(session, playerID)
}

func (s *SessionStore) key(ownerID string, sessionID int) string {
	return "session:" + ownerID + ":" + strconv.Itoa(sessionID)
}
