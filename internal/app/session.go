package app

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"quizhost-service/internal/domain"
)

// Session is one live playthrough of a quiz. It owns the state machine, the
// player roster and the per-question results. All mutation happens under mu,
// so at most one request is in flight per session while different sessions
// proceed concurrently.
type Session struct {
	id        int
	ownerID   string
	quizID    string
	autoStart int
	countdown time.Duration
	now       func() time.Time

	mu         sync.Mutex
	state      domain.State
	atQuestion int
	metadata   domain.Quiz
	players    []*domain.Player
	results    []domain.QuestionResult
	correct    [][]int // player ids per question, first-submitted-correct order
	scored     []bool
	timerGen   uint64
	rnd        *rand.Rand
}

// NewSession builds a session in LOBBY holding its own deep copy of the quiz.
func NewSession(id int, ownerID string, quiz domain.Quiz, autoStart int, countdown time.Duration) *Session {
	return newSessionWithClock(id, ownerID, quiz, autoStart, countdown, time.Now)
}

// NewSessionWithClock is test-only for deterministic timestamps.
func NewSessionWithClock(id int, ownerID string, quiz domain.Quiz, autoStart int, countdown time.Duration, now func() time.Time) *Session {
	return newSessionWithClock(id, ownerID, quiz, autoStart, countdown, now)
}

func newSessionWithClock(id int, ownerID string, quiz domain.Quiz, autoStart int, countdown time.Duration, now func() time.Time) *Session {
	snapshot := quiz.Clone()
	n := snapshot.NumQuestions()
	results := make([]domain.QuestionResult, n)
	for i, q := range snapshot.Questions {
		results[i] = domain.QuestionResult{QuestionID: q.QuestionID}
	}
	return &Session{
		id:        id,
		ownerID:   ownerID,
		quizID:    quiz.QuizID,
		autoStart: autoStart,
		countdown: countdown,
		now:       now,
		state:     domain.StateLobby,
		metadata:  snapshot,
		results:   results,
		correct:   make([][]int, n),
		scored:    make([]bool, n),
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ID returns the owner-scoped session identifier.
func (s *Session) ID() int { return s.id }

// OwnerID returns the admin owner of the session.
func (s *Session) OwnerID() string { return s.ownerID }

// QuizID returns the catalog id the session was started from.
func (s *Session) QuizID() string { return s.quizID }

// State returns the current lifecycle state.
func (s *Session) State() domain.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Join adds a guest player to the lobby. An empty name gets a generated one.
// The player id is the lowest unused positive integer within this session;
// register is called under the session lock so the roster append and the
// directory index stay consistent.
func (s *Session) Join(name string, register func(*Session, int)) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.StateLobby {
		return 0, domain.Errorf(domain.KindInvalidState, "session is not in LOBBY state")
	}
	if name == "" {
		name = s.generateNameLocked()
	} else if s.nameTakenLocked(name) {
		return 0, domain.Errorf(domain.KindInvalidRequest, "another player already has the same name")
	}

	id := s.nextPlayerIDLocked()
	s.players = append(s.players, &domain.Player{ID: id, Name: name})
	register(s, id)

	if s.autoStart > 0 && len(s.players) >= s.autoStart {
		s.nextQuestionLocked()
	}
	return id, nil
}

func (s *Session) nextPlayerIDLocked() int {
	for id := 1; ; id++ {
		if s.playerLocked(id) == nil {
			return id
		}
	}
}

func (s *Session) nameTakenLocked(name string) bool {
	for _, p := range s.players {
		if p.Name == name {
			return true
		}
	}
	return false
}

// generateNameLocked retries until the generated name is free. Collisions are
// astronomically unlikely but the roster uniqueness invariant is absolute.
func (s *Session) generateNameLocked() string {
	for {
		name := randomName(s.rnd)
		if !s.nameTakenLocked(name) {
			return name
		}
	}
}

// ApplyAction drives the state machine with an admin action.
func (s *Session) ApplyAction(action domain.Action) error {
	if !domain.ValidAction(action) {
		return domain.Errorf(domain.KindInvalidRequest, "action %q is not a valid action", action)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	switch action {
	case domain.ActionEnd:
		if s.state == domain.StateEnd {
			return s.invalidActionLocked(action)
		}
		s.timerGen++
		s.state = domain.StateEnd
		return nil
	case domain.ActionNextQuestion:
		switch s.state {
		case domain.StateLobby, domain.StateQuestionClose, domain.StateAnswerShow:
			if s.atQuestion >= s.metadata.NumQuestions() {
				return domain.Errorf(domain.KindInvalidState, "no questions remain in this session")
			}
			s.nextQuestionLocked()
			return nil
		}
		return s.invalidActionLocked(action)
	case domain.ActionSkipCountdown:
		if s.state != domain.StateQuestionCountdown {
			return s.invalidActionLocked(action)
		}
		s.openQuestionLocked()
		return nil
	case domain.ActionGoToAnswer:
		switch s.state {
		case domain.StateQuestionOpen, domain.StateQuestionClose:
			s.showAnswerLocked()
			return nil
		}
		return s.invalidActionLocked(action)
	case domain.ActionGoToFinalResults:
		switch s.state {
		case domain.StateQuestionClose, domain.StateAnswerShow:
			s.timerGen++
			s.state = domain.StateFinalResults
			s.atQuestion = 0
			return nil
		}
		return s.invalidActionLocked(action)
	}
	return s.invalidActionLocked(action)
}

func (s *Session) invalidActionLocked(action domain.Action) error {
	return domain.Errorf(domain.KindInvalidState, "action %s cannot be applied in state %s", action, s.state)
}

// nextQuestionLocked advances to the countdown of the next question. The
// countdown timer opens the question unless the admin skips it first.
// Submission times are cleared so a round skipped past ANSWER_SHOW cannot
// leak its times into the next round's scoring.
func (s *Session) nextQuestionLocked() {
	for _, p := range s.players {
		p.TimeLastSubmitted = 0
	}
	s.atQuestion++
	s.state = domain.StateQuestionCountdown
	if s.countdown > 0 {
		s.scheduleLocked(s.countdown, func() {
			if s.state == domain.StateQuestionCountdown {
				s.openQuestionLocked()
			}
		})
	} else {
		s.openQuestionLocked()
	}
}

// openQuestionLocked opens the current question for submissions and arms the
// duration timer that closes it.
func (s *Session) openQuestionLocked() {
	i := s.atQuestion - 1
	s.state = domain.StateQuestionOpen
	s.results[i].TimeStarted = s.now().Unix()
	duration := time.Duration(s.metadata.Questions[i].Duration) * time.Second
	s.scheduleLocked(duration, func() {
		if s.state == domain.StateQuestionOpen {
			s.state = domain.StateQuestionClose
			s.results[s.atQuestion-1].TimeEnded = s.now().Unix()
		}
	})
}

// showAnswerLocked locks submissions for the current question, stamps the end
// time for non-responders and scores the round exactly once.
func (s *Session) showAnswerLocked() {
	s.timerGen++
	i := s.atQuestion - 1
	if s.results[i].TimeEnded == 0 {
		s.results[i].TimeEnded = s.now().Unix()
	}
	s.state = domain.StateAnswerShow
	s.scoreQuestionLocked(i)
}

// scheduleLocked arms a wall-clock transition. The generation guard keeps a
// stale timer from firing into a state reached by a later transition.
func (s *Session) scheduleLocked(d time.Duration, fire func()) {
	s.timerGen++
	gen := s.timerGen
	time.AfterFunc(d, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.timerGen != gen {
			return
		}
		fire()
	})
}

// SubmitAnswer records a player's answer set for the question at position.
// All validation completes before any write.
func (s *Session) SubmitAnswer(playerID, position int, answerIDs []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	player := s.playerLocked(playerID)
	if player == nil {
		return domain.ErrPlayerNotFound
	}
	if position < 1 || position > s.metadata.NumQuestions() {
		return domain.Errorf(domain.KindInvalidRequest, "question position is not valid for the session this player is in")
	}
	if s.atQuestion != position {
		return domain.Errorf(domain.KindInvalidState, "session is not currently on this question")
	}
	if s.state != domain.StateQuestionOpen {
		return domain.Errorf(domain.KindInvalidState, "session state is not QUESTION_OPEN")
	}

	i := position - 1
	question := s.metadata.Questions[i]
	valid := make(map[int]bool, len(question.Answers))
	for _, a := range question.Answers {
		valid[a.AnswerID] = true
	}
	seen := make(map[int]bool, len(answerIDs))
	for _, id := range answerIDs {
		if !valid[id] {
			return domain.Errorf(domain.KindInvalidRequest, "answer IDs are not valid for this particular question")
		}
		if seen[id] {
			return domain.Errorf(domain.KindInvalidRequest, "duplicate answer IDs provided")
		}
		seen[id] = true
	}
	if len(answerIDs) == 0 {
		return domain.Errorf(domain.KindInvalidRequest, "at least one answer ID must be submitted")
	}

	player.TimeLastSubmitted = s.now().Unix()
	if correctSubmission(question, answerIDs) {
		s.markCorrectLocked(i, playerID)
	} else {
		s.unmarkCorrectLocked(i, playerID)
	}
	return nil
}

// correctSubmission compares the submitted set against the flagged-correct
// set: exact equality, order-independent.
func correctSubmission(q domain.Question, answerIDs []int) bool {
	var want []int
	for _, a := range q.Answers {
		if a.Correct {
			want = append(want, a.AnswerID)
		}
	}
	if len(want) != len(answerIDs) {
		return false
	}
	got := append([]int(nil), answerIDs...)
	sort.Ints(got)
	sort.Ints(want)
	for i := range want {
		if want[i] != got[i] {
			return false
		}
	}
	return true
}

// markCorrectLocked appends once, preserving first-arrival order.
func (s *Session) markCorrectLocked(question, playerID int) {
	for _, id := range s.correct[question] {
		if id == playerID {
			return
		}
	}
	s.correct[question] = append(s.correct[question], playerID)
}

// unmarkCorrectLocked drops an earlier correct listing after a wrong
// resubmission; later entries keep their arrival order.
func (s *Session) unmarkCorrectLocked(question, playerID int) {
	list := s.correct[question]
	for i, id := range list {
		if id == playerID {
			s.correct[question] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

func (s *Session) playerLocked(playerID int) *domain.Player {
	for _, p := range s.players {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

// HasPlayer reports whether the roster contains playerID.
func (s *Session) HasPlayer(playerID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playerLocked(playerID) != nil
}

// Status returns the admin view: state, position, roster names and the full
// metadata snapshot including correct flags.
func (s *Session) Status() domain.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, len(s.players))
	for i, p := range s.players {
		names[i] = p.Name
	}
	return domain.SessionStatus{
		State:      s.state,
		AtQuestion: s.atQuestion,
		Players:    names,
		Metadata:   s.metadata.Clone(),
	}
}

// PlayerStatus returns the player-facing poll view.
func (s *Session) PlayerStatus() domain.PlayerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.PlayerStatus{
		State:        s.state,
		NumQuestions: s.metadata.NumQuestions(),
		AtQuestion:   s.atQuestion,
	}
}

// QuestionInfo returns the current question with correct flags stripped.
func (s *Session) QuestionInfo(playerID, position int) (domain.QuestionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.playerLocked(playerID) == nil {
		return domain.QuestionInfo{}, domain.ErrPlayerNotFound
	}
	if position < 1 || position > s.metadata.NumQuestions() {
		return domain.QuestionInfo{}, domain.Errorf(domain.KindInvalidRequest, "question position is not valid for the session this player is in")
	}
	if s.atQuestion != position {
		return domain.QuestionInfo{}, domain.Errorf(domain.KindInvalidState, "session is not currently on this question")
	}
	switch s.state {
	case domain.StateLobby, domain.StateFinalResults, domain.StateEnd:
		return domain.QuestionInfo{}, domain.Errorf(domain.KindInvalidState, "question is not available in state %s", s.state)
	}

	q := s.metadata.Questions[position-1]
	answers := make([]domain.InfoAnswer, len(q.Answers))
	for i, a := range q.Answers {
		answers[i] = domain.InfoAnswer{AnswerID: a.AnswerID, Answer: a.Answer, Colour: a.Colour}
	}
	return domain.QuestionInfo{
		QuestionID:   q.QuestionID,
		Question:     q.Question,
		Duration:     q.Duration,
		ThumbnailURL: q.ThumbnailURL,
		Points:       q.Points,
		Answers:      answers,
	}, nil
}
