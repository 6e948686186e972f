package memory

import (
	"sync"

	"quizhost-service/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
// Sessions are partitioned by owner and also kept in creation order, so
// lookups by bare session id resolve the same session every time. Player ids
// are session-scoped; the player index keeps the first session that
// registered an id.
type SessionStore struct {
	mu       sync.RWMutex
	byOwner  map[string]map[int]*app.Session
	created  []*app.Session
	byPlayer map[int]*app.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		byOwner:  make(map[string]map[int]*app.Session),
		byPlayer: make(map[int]*app.Session),
	}
}

func (s *SessionStore) Insert(ownerID string, create func(id int) *app.Session) *app.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	owned := s.byOwner[ownerID]
	if owned == nil {
		owned = make(map[int]*app.Session)
		s.byOwner[ownerID] = owned
	}
	id := 1
	for owned[id] != nil {
		id++
	}
	session := create(id)
	owned[id] = session
	s.created = append(s.created, session)
	return session
}

func (s *SessionStore) Get(ownerID string, sessionID int) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.byOwner[ownerID][sessionID]
	return session, ok
}

func (s *SessionStore) ByQuiz(ownerID, quizID string) []*app.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*app.Session
	for _, session := range s.byOwner[ownerID] {
		if session.QuizID() == quizID {
			out = append(out, session)
		}
	}
	return out
}

// BySessionID scans sessions in creation order, so an id shared by several
// owners always resolves to the earliest-created session.
func (s *SessionStore) BySessionID(sessionID int) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, session := range s.created {
		if session.ID() == sessionID {
			return session, true
		}
	}
	return nil, false
}

func (s *SessionStore) ByPlayer(playerID int) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.byPlayer[playerID]
	return session, ok
}

func (s *SessionStore) RegisterPlayer(session *app.Session, playerID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byPlayer[playerID]; !ok {
		s.byPlayer[playerID] = session
	}
}
