package domain

// State is the lifecycle state of a live quiz session.
type State string

const (
	StateLobby             State = "LOBBY"
	StateQuestionCountdown State = "QUESTION_COUNTDOWN"
	StateQuestionOpen      State = "QUESTION_OPEN"
	StateQuestionClose     State = "QUESTION_CLOSE"
	StateAnswerShow        State = "ANSWER_SHOW"
	StateFinalResults      State = "FINAL_RESULTS"
	StateEnd               State = "END"
)

// Action is an admin-issued transition request on a session.
type Action string

const (
	ActionNextQuestion     Action = "NEXT_QUESTION"
	ActionSkipCountdown    Action = "SKIP_COUNTDOWN"
	ActionGoToAnswer       Action = "GO_TO_ANSWER"
	ActionGoToFinalResults Action = "GO_TO_FINAL_RESULTS"
	ActionEnd              Action = "END"
)

// ValidAction reports whether a is part of the action vocabulary.
func ValidAction(a Action) bool {
	switch a {
	case ActionNextQuestion, ActionSkipCountdown, ActionGoToAnswer, ActionGoToFinalResults, ActionEnd:
		return true
	}
	return false
}

// Answer is one option of a question. Colour is assigned from the fixed
// palette by array position when the question is authored.
type Answer struct {
	AnswerID int    `json:"answerId"`
	Answer   string `json:"answer"`
	Colour   string `json:"colour"`
	Correct  bool   `json:"correct"`
}

// Question is a timed multiple-choice question. Duration is in seconds.
type Question struct {
	QuestionID   int      `json:"questionId"`
	Question     string   `json:"question"`
	Duration     int      `json:"duration"`
	ThumbnailURL string   `json:"thumbnailUrl"`
	Points       int      `json:"points"`
	Answers      []Answer `json:"answers"`
}

// Quiz is the authored quiz definition. Duration is the sum of all
// question durations.
type Quiz struct {
	QuizID       string     `json:"quizId"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Questions    []Question `json:"questions"`
	Duration     int        `json:"duration"`
	ThumbnailURL string     `json:"thumbnailUrl"`
}

// NumQuestions returns the number of questions in the quiz.
func (q Quiz) NumQuestions() int { return len(q.Questions) }

// Clone returns an independently owned deep copy. Sessions snapshot the quiz
// at start time so later catalog edits never leak into a running session.
func (q Quiz) Clone() Quiz {
	out := q
	out.Questions = make([]Question, len(q.Questions))
	for i, question := range q.Questions {
		cq := question
		cq.Answers = make([]Answer, len(question.Answers))
		copy(cq.Answers, question.Answers)
		out.Questions[i] = cq
	}
	return out
}

// Colours is the palette answers cycle through, in authoring order.
var Colours = []string{"red", "blue", "green", "yellow", "orange", "purple"}

// AssignColours stamps palette colours onto the answers of q by position.
// Catalog seeders call this once at authoring time.
func AssignColours(q *Question) {
	for i := range q.Answers {
		q.Answers[i].Colour = Colours[i%len(Colours)]
	}
}

// Player is a guest participant in exactly one session. TimeLastSubmitted is
// epoch seconds of the most recent answer for the current question; it is
// reset to 0 when the question is scored.
type Player struct {
	ID                int     `json:"playerId"`
	Name              string  `json:"name"`
	Score             float64 `json:"score"`
	TimeLastSubmitted int64   `json:"-"`
}

// QuestionResult accumulates per-question outcome data. The correct list is
// kept in first-submitted order. Times are epoch seconds, 0 until set.
type QuestionResult struct {
	QuestionID         int      `json:"questionId"`
	PlayersCorrectList []string `json:"playersCorrectList"`
	AverageAnswerTime  float64  `json:"averageAnswerTime"`
	PercentCorrect     float64  `json:"percentCorrect"`
	TimeStarted        int64    `json:"-"`
	TimeEnded          int64    `json:"-"`
}

// SessionStatus is the admin view of a session.
type SessionStatus struct {
	State      State    `json:"state"`
	AtQuestion int      `json:"atQuestion"`
	Players    []string `json:"players"`
	Metadata   Quiz     `json:"metadata"`
}

// PlayerStatus is the player-facing poll view.
type PlayerStatus struct {
	State        State `json:"state"`
	NumQuestions int   `json:"numQuestions"`
	AtQuestion   int   `json:"atQuestion"`
}

// InfoAnswer is an answer as shown to players: no correct flag.
type InfoAnswer struct {
	AnswerID int    `json:"answerId"`
	Answer   string `json:"answer"`
	Colour   string `json:"colour"`
}

// QuestionInfo is the player view of the current question. The correct flags
// are stripped until the session reaches ANSWER_SHOW.
type QuestionInfo struct {
	QuestionID   int          `json:"questionId"`
	Question     string       `json:"question"`
	Duration     int          `json:"duration"`
	ThumbnailURL string       `json:"thumbnailUrl"`
	Points       int          `json:"points"`
	Answers      []InfoAnswer `json:"answers"`
}

// QuestionResultView is returned once a question has been scored.
type QuestionResultView struct {
	QuestionID         int      `json:"questionId"`
	PlayersCorrectList []string `json:"playersCorrectList"`
	AverageAnswerTime  float64  `json:"averageAnswerTime"`
	PercentCorrect     float64  `json:"percentCorrect"`
}

// RankedPlayer is one row of the final scoreboard.
type RankedPlayer struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// FinalResults is the end-of-session scoreboard, best score first.
type FinalResults struct {
	UsersRankedByScore []RankedPlayer       `json:"usersRankedByScore"`
	QuestionResults    []QuestionResultView `json:"questionResults"`
}

// ViewSessions partitions a quiz's sessions by liveness.
type ViewSessions struct {
	ActiveSessions   []int `json:"activeSessions"`
	InactiveSessions []int `json:"inactiveSessions"`
}
