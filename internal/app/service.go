package app

import (
	"context"
	"sort"
	"time"

	"quizhost-service/internal/domain"
)

const (
	maxAutoStartNum       = 50
	maxConcurrentSessions = 10
)

// SessionRepository abstracts how live sessions are stored and indexed
// (in-memory, Redis-marked, etc). Session ids are owner-scoped and player ids
// are session-scoped; lookups without those scopes resolve in session
// creation order.
type SessionRepository interface {
	// Insert assigns the lowest unused session id within the owner's set and
	// stores the session that create builds for it.
	Insert(ownerID string, create func(id int) *Session) *Session
	// Get resolves an owner-scoped session id.
	Get(ownerID string, sessionID int) (*Session, bool)
	// ByQuiz lists the owner's sessions started from quizID.
	ByQuiz(ownerID, quizID string) []*Session
	// BySessionID resolves a session id without an owner, for player join.
	// Colliding ids across owners resolve to the earliest-created session.
	BySessionID(sessionID int) (*Session, bool)
	// ByPlayer resolves the session containing playerID.
	ByPlayer(playerID int) (*Session, bool)
	// RegisterPlayer indexes a session-scoped player id to s. The first
	// registration of an id wins; ByPlayer resolves to that session.
	RegisterPlayer(s *Session, playerID int)
}

// TokenResolver is the identity collaborator: opaque admin token to owner id.
type TokenResolver interface {
	ResolveOwner(ctx context.Context, token string) (string, error)
}

// QuizCatalog is the catalog collaborator the engine reads snapshots from.
type QuizCatalog interface {
	GetQuizSnapshot(ctx context.Context, quizID string) (domain.Quiz, error)
	QuizOwner(ctx context.Context, quizID string) (string, error)
}

// SessionService contains the live session use cases.
type SessionService struct {
	sessions  SessionRepository
	catalog   QuizCatalog
	identity  TokenResolver
	countdown time.Duration
}

func NewSessionService(sessions SessionRepository, catalog QuizCatalog, identity TokenResolver, countdown time.Duration) *SessionService {
	return &SessionService{
		sessions:  sessions,
		catalog:   catalog,
		identity:  identity,
		countdown: countdown,
	}
}

// authorizeQuiz resolves the token's owner and checks quiz ownership.
func (s *SessionService) authorizeQuiz(ctx context.Context, token, quizID string) (string, error) {
	ownerID, err := s.identity.ResolveOwner(ctx, token)
	if err != nil {
		return "", domain.ErrInvalidToken
	}
	quizOwner, err := s.catalog.QuizOwner(ctx, quizID)
	if err != nil {
		return "", domain.ErrQuizNotFound
	}
	if quizOwner != ownerID {
		return "", domain.ErrNotOwner
	}
	return ownerID, nil
}

// StartSession launches a new live session from a quiz. The quiz is deep
// copied so later catalog edits never affect the running session.
func (s *SessionService) StartSession(ctx context.Context, token, quizID string, autoStartNum int) (int, error) {
	ownerID, err := s.authorizeQuiz(ctx, token, quizID)
	if err != nil {
		return 0, err
	}
	if autoStartNum > maxAutoStartNum {
		return 0, domain.Errorf(domain.KindInvalidRequest, "autoStartNum exceeds max capacity of %d players", maxAutoStartNum)
	}
	quiz, err := s.catalog.GetQuizSnapshot(ctx, quizID)
	if err != nil {
		return 0, domain.ErrQuizNotFound
	}
	if quiz.NumQuestions() == 0 {
		return 0, domain.Errorf(domain.KindInvalidRequest, "there are no questions in this quiz")
	}
	active := 0
	for _, existing := range s.sessions.ByQuiz(ownerID, quizID) {
		if existing.State() != domain.StateEnd {
			active++
		}
	}
	if active >= maxConcurrentSessions {
		return 0, domain.Errorf(domain.KindInvalidRequest, "quiz already has the maximum of %d active sessions", maxConcurrentSessions)
	}

	session := s.sessions.Insert(ownerID, func(id int) *Session {
		return NewSession(id, ownerID, quiz, autoStartNum, s.countdown)
	})
	return session.ID(), nil
}

// ViewSessions partitions the owner's sessions for a quiz into active
// (state != END) and inactive id lists, ascending.
func (s *SessionService) ViewSessions(ctx context.Context, token, quizID string) (domain.ViewSessions, error) {
	ownerID, err := s.authorizeQuiz(ctx, token, quizID)
	if err != nil {
		return domain.ViewSessions{}, err
	}
	view := domain.ViewSessions{ActiveSessions: []int{}, InactiveSessions: []int{}}
	for _, session := range s.sessions.ByQuiz(ownerID, quizID) {
		if session.State() == domain.StateEnd {
			view.InactiveSessions = append(view.InactiveSessions, session.ID())
		} else {
			view.ActiveSessions = append(view.ActiveSessions, session.ID())
		}
	}
	sort.Ints(view.ActiveSessions)
	sort.Ints(view.InactiveSessions)
	return view, nil
}

// SessionStatus returns the admin view of one session.
func (s *SessionService) SessionStatus(ctx context.Context, token, quizID string, sessionID int) (domain.SessionStatus, error) {
	session, err := s.ownedSession(ctx, token, quizID, sessionID)
	if err != nil {
		return domain.SessionStatus{}, err
	}
	return session.Status(), nil
}

// UpdateSessionState applies an admin action to a session.
func (s *SessionService) UpdateSessionState(ctx context.Context, token, quizID string, sessionID int, action domain.Action) error {
	session, err := s.ownedSession(ctx, token, quizID, sessionID)
	if err != nil {
		return err
	}
	return session.ApplyAction(action)
}

func (s *SessionService) ownedSession(ctx context.Context, token, quizID string, sessionID int) (*Session, error) {
	ownerID, err := s.authorizeQuiz(ctx, token, quizID)
	if err != nil {
		return nil, err
	}
	session, ok := s.sessions.Get(ownerID, sessionID)
	if !ok || session.QuizID() != quizID {
		return nil, domain.Errorf(domain.KindNotFound, "session ID does not refer to a valid session within this quiz")
	}
	return session, nil
}

// PlayerJoin lets a guest join a session lobby and returns the player id.
func (s *SessionService) PlayerJoin(_ context.Context, sessionID int, name string) (int, error) {
	session, ok := s.sessions.BySessionID(sessionID)
	if !ok {
		return 0, domain.ErrSessionNotFound
	}
	return session.Join(name, s.sessions.RegisterPlayer)
}

// PlayerStatus returns the player's poll view of their session.
func (s *SessionService) PlayerStatus(_ context.Context, playerID int) (domain.PlayerStatus, error) {
	session, ok := s.sessions.ByPlayer(playerID)
	if !ok {
		return domain.PlayerStatus{}, domain.ErrPlayerNotFound
	}
	return session.PlayerStatus(), nil
}

// QuestionInfo returns the current question stripped of correct flags.
func (s *SessionService) QuestionInfo(_ context.Context, playerID, position int) (domain.QuestionInfo, error) {
	session, ok := s.sessions.ByPlayer(playerID)
	if !ok {
		return domain.QuestionInfo{}, domain.ErrPlayerNotFound
	}
	return session.QuestionInfo(playerID, position)
}

// SubmitAnswer records a player's answer set for the open question.
func (s *SessionService) SubmitAnswer(_ context.Context, playerID, position int, answerIDs []int) error {
	session, ok := s.sessions.ByPlayer(playerID)
	if !ok {
		return domain.ErrPlayerNotFound
	}
	return session.SubmitAnswer(playerID, position, answerIDs)
}

// QuestionResults returns the scored results of one question round.
func (s *SessionService) QuestionResults(_ context.Context, playerID, position int) (domain.QuestionResultView, error) {
	session, ok := s.sessions.ByPlayer(playerID)
	if !ok {
		return domain.QuestionResultView{}, domain.ErrPlayerNotFound
	}
	return session.QuestionResults(playerID, position)
}

// FinalResults returns the final scoreboard of the player's session.
func (s *SessionService) FinalResults(_ context.Context, playerID int) (domain.FinalResults, error) {
	session, ok := s.sessions.ByPlayer(playerID)
	if !ok {
		return domain.FinalResults{}, domain.ErrPlayerNotFound
	}
	return session.FinalResults(playerID)
}
