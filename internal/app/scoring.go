package app

import (
	"math"
	"sort"

	"quizhost-service/internal/domain"
)

// scoreQuestionLocked computes the results of question i and awards points.
// Runs once, on the transition into ANSWER_SHOW; subsequent result reads are
// pure. Correct responders are ranked by ascending answer time (ties keep
// first-submitted order) and rank k earns points/k. Non-responders are
// charged the full question window. Afterwards every timeLastSubmitted resets
// to 0 for the next round.
func (s *Session) scoreQuestionLocked(i int) {
	if s.scored[i] {
		return
	}
	s.scored[i] = true

	res := &s.results[i]
	res.PlayersCorrectList = s.correctNamesLocked(i)

	if len(s.players) == 0 {
		return
	}

	opened := res.TimeStarted
	closed := res.TimeEnded
	var total int64
	for _, p := range s.players {
		if p.TimeLastSubmitted != 0 {
			total += p.TimeLastSubmitted - opened
		} else {
			total += closed - opened
		}
	}
	avg := float64(total) / float64(len(s.players))
	res.AverageAnswerTime = math.Round(avg*10) / 10
	res.PercentCorrect = float64(len(s.correct[i])) / float64(len(s.players)) * 100

	type ranked struct {
		player *domain.Player
		took   int64
	}
	winners := make([]ranked, 0, len(s.correct[i]))
	for _, id := range s.correct[i] {
		p := s.playerLocked(id)
		winners = append(winners, ranked{player: p, took: p.TimeLastSubmitted - opened})
	}
	sort.SliceStable(winners, func(a, b int) bool { return winners[a].took < winners[b].took })

	points := float64(s.metadata.Questions[i].Points)
	for rank, w := range winners {
		w.player.Score += points / float64(rank+1)
	}

	for _, p := range s.players {
		p.TimeLastSubmitted = 0
	}
}

// correctNamesLocked projects the id-keyed correct list to display names at
// the response boundary.
func (s *Session) correctNamesLocked(i int) []string {
	names := make([]string, 0, len(s.correct[i]))
	for _, id := range s.correct[i] {
		if p := s.playerLocked(id); p != nil {
			names = append(names, p.Name)
		}
	}
	return names
}

// QuestionResults returns the scored results of the question at position.
// Read-only: polling never mutates state.
func (s *Session) QuestionResults(playerID, position int) (domain.QuestionResultView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.playerLocked(playerID) == nil {
		return domain.QuestionResultView{}, domain.ErrPlayerNotFound
	}
	if position < 1 || position > s.metadata.NumQuestions() {
		return domain.QuestionResultView{}, domain.Errorf(domain.KindInvalidRequest, "question position is not valid for the session this player is in")
	}
	if s.atQuestion != position {
		return domain.QuestionResultView{}, domain.Errorf(domain.KindInvalidState, "session is not currently on this question")
	}
	if s.state != domain.StateAnswerShow {
		return domain.QuestionResultView{}, domain.Errorf(domain.KindInvalidState, "session is not in ANSWER_SHOW")
	}
	return s.resultViewLocked(position - 1), nil
}

// FinalResults returns the scoreboard ranked best score first, along with the
// per-question results. Only available once the session reaches FINAL_RESULTS.
func (s *Session) FinalResults(playerID int) (domain.FinalResults, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.playerLocked(playerID) == nil {
		return domain.FinalResults{}, domain.ErrPlayerNotFound
	}
	if s.state != domain.StateFinalResults {
		return domain.FinalResults{}, domain.Errorf(domain.KindInvalidState, "session is not in FINAL_RESULTS")
	}

	board := make([]domain.RankedPlayer, len(s.players))
	for i, p := range s.players {
		board[i] = domain.RankedPlayer{Name: p.Name, Score: p.Score}
	}
	sort.SliceStable(board, func(a, b int) bool { return board[a].Score > board[b].Score })

	views := make([]domain.QuestionResultView, 0, len(s.results))
	for i := range s.results {
		if s.scored[i] {
			views = append(views, s.resultViewLocked(i))
		}
	}
	return domain.FinalResults{UsersRankedByScore: board, QuestionResults: views}, nil
}

func (s *Session) resultViewLocked(i int) domain.QuestionResultView {
	res := s.results[i]
	return domain.QuestionResultView{
		QuestionID:         res.QuestionID,
		PlayersCorrectList: append([]string(nil), res.PlayersCorrectList...),
		AverageAnswerTime:  res.AverageAnswerTime,
		PercentCorrect:     res.PercentCorrect,
	}
}
