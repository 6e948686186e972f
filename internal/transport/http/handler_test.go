package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quizhost-service/internal/app"
	"quizhost-service/internal/domain"
	"quizhost-service/internal/infra/memory"
)

func testQuiz() domain.Quiz {
	q := domain.Quiz{
		QuizID:      "quiz-1",
		Name:        "capitals",
		Description: "capital cities",
		Questions: []domain.Question{
			{
				QuestionID: 1,
				Question:   "Capital of France?",
				Duration:   60,
				Points:     10,
				Answers: []domain.Answer{
					{AnswerID: 1, Answer: "Paris", Correct: true},
					{AnswerID: 2, Answer: "Lyon"},
				},
			},
			{
				QuestionID: 2,
				Question:   "Capital of Spain?",
				Duration:   60,
				Points:     10,
				Answers: []domain.Answer{
					{AnswerID: 3, Answer: "Madrid", Correct: true},
					{AnswerID: 4, Answer: "Seville"},
				},
			},
		},
		Duration: 120,
	}
	for i := range q.Questions {
		domain.AssignColours(&q.Questions[i])
	}
	return q
}

func newTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()

	loader := memory.NewStaticCatalogLoader(map[string]memory.CatalogEntry{
		"quiz-1": {Quiz: testQuiz(), OwnerID: "owner-1"},
	})
	tokens := memory.NewTokenStore()
	token, err := tokens.Issue(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	service := app.NewSessionService(
		memory.NewSessionStore(),
		memory.NewCatalog(loader, time.Minute),
		tokens,
		0,
	)
	server := httptest.NewServer(NewRouter(NewHandler(service)))
	t.Cleanup(server.Close)
	return server, token
}

func do(t *testing.T, method, url, token string, body any) (*http.Response, map[string]json.RawMessage) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("token", token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	fields := map[string]json.RawMessage{}
	if err := json.NewDecoder(resp.Body).Decode(&fields); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, fields
}

func intField(t *testing.T, fields map[string]json.RawMessage, key string) int {
	t.Helper()
	var v int
	if err := json.Unmarshal(fields[key], &v); err != nil {
		t.Fatalf("field %q: %v", key, err)
	}
	return v
}

func TestHealthz(t *testing.T) {
	server, _ := newTestServer(t)
	resp, err := http.Get(server.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d, want 200", resp.StatusCode)
	}
}

func TestStartSessionAuth(t *testing.T) {
	server, token := newTestServer(t)
	start := server.URL + "/v1/admin/quiz/quiz-1/session/start"

	resp, _ := do(t, http.MethodPost, start, "not-a-token", startSessionRequest{})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad token status = %d, want 401", resp.StatusCode)
	}

	resp, _ = do(t, http.MethodPost, server.URL+"/v1/admin/quiz/no-such-quiz/session/start", token, startSessionRequest{})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("unknown quiz status = %d, want 403", resp.StatusCode)
	}

	resp, _ = do(t, http.MethodPost, start, token, startSessionRequest{AutoStartNum: 51})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("autoStartNum over cap status = %d, want 400", resp.StatusCode)
	}
}

func TestSessionFlow(t *testing.T) {
	server, token := newTestServer(t)
	admin := server.URL + "/v1/admin/quiz/quiz-1"

	resp, fields := do(t, http.MethodPost, admin+"/session/start", token, startSessionRequest{})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start session status = %d", resp.StatusCode)
	}
	sessionID := intField(t, fields, "sessionId")

	resp, fields = do(t, http.MethodPost, server.URL+"/v1/player/join", "", playerJoinRequest{SessionID: sessionID, Name: "alice"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("join status = %d", resp.StatusCode)
	}
	alice := intField(t, fields, "playerId")

	resp, _ = do(t, http.MethodPost, server.URL+"/v1/player/join", "", playerJoinRequest{SessionID: sessionID, Name: "alice"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("duplicate name status = %d, want 400", resp.StatusCode)
	}

	sessionURL := fmt.Sprintf("%s/session/%d", admin, sessionID)
	resp, _ = do(t, http.MethodPut, sessionURL, token, updateStateRequest{Action: domain.ActionNextQuestion})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("next question status = %d", resp.StatusCode)
	}

	resp, fields = do(t, http.MethodGet, fmt.Sprintf("%s/v1/player/%d", server.URL, alice), "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("player status = %d", resp.StatusCode)
	}
	var state domain.State
	if err := json.Unmarshal(fields["state"], &state); err != nil {
		t.Fatalf("state field: %v", err)
	}
	if state != domain.StateQuestionOpen {
		t.Fatalf("state = %s, want QUESTION_OPEN", state)
	}

	infoURL := fmt.Sprintf("%s/v1/player/%d/question/1", server.URL, alice)
	resp, fields = do(t, http.MethodGet, infoURL, "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("question info status = %d", resp.StatusCode)
	}
	if bytes.Contains(fields["answers"], []byte("correct")) {
		t.Fatalf("question info leaks correct flags: %s", fields["answers"])
	}

	resp, _ = do(t, http.MethodPut, infoURL+"/answer", "", submitAnswerRequest{AnswerIDs: []int{1}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("submit answer status = %d", resp.StatusCode)
	}

	resp, _ = do(t, http.MethodPut, sessionURL, token, updateStateRequest{Action: domain.ActionGoToAnswer})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("go to answer status = %d", resp.StatusCode)
	}

	resp, fields = do(t, http.MethodGet, infoURL+"/results", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("question results status = %d", resp.StatusCode)
	}
	var names []string
	if err := json.Unmarshal(fields["playersCorrectList"], &names); err != nil {
		t.Fatalf("playersCorrectList: %v", err)
	}
	if len(names) != 1 || names[0] != "alice" {
		t.Fatalf("playersCorrectList = %v, want [alice]", names)
	}

	resp, _ = do(t, http.MethodPut, sessionURL, token, updateStateRequest{Action: domain.ActionGoToFinalResults})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("final results action status = %d", resp.StatusCode)
	}

	resp, fields = do(t, http.MethodGet, fmt.Sprintf("%s/v1/player/%d/results", server.URL, alice), "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("final results status = %d", resp.StatusCode)
	}
	var board []domain.RankedPlayer
	if err := json.Unmarshal(fields["usersRankedByScore"], &board); err != nil {
		t.Fatalf("usersRankedByScore: %v", err)
	}
	if len(board) != 1 || board[0].Name != "alice" || board[0].Score != 10 {
		t.Fatalf("scoreboard = %+v, want alice on 10 points", board)
	}

	resp, _ = do(t, http.MethodPut, sessionURL, token, updateStateRequest{Action: domain.ActionEnd})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("end status = %d", resp.StatusCode)
	}

	resp, fields = do(t, http.MethodGet, admin+"/sessions", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("view sessions status = %d", resp.StatusCode)
	}
	var inactive []int
	if err := json.Unmarshal(fields["inactiveSessions"], &inactive); err != nil {
		t.Fatalf("inactiveSessions: %v", err)
	}
	if len(inactive) != 1 || inactive[0] != sessionID {
		t.Fatalf("inactiveSessions = %v, want [%d]", inactive, sessionID)
	}
}

func TestInvalidAction(t *testing.T) {
	server, token := newTestServer(t)
	admin := server.URL + "/v1/admin/quiz/quiz-1"

	resp, fields := do(t, http.MethodPost, admin+"/session/start", token, startSessionRequest{})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start session status = %d", resp.StatusCode)
	}
	sessionID := intField(t, fields, "sessionId")

	resp, _ = do(t, http.MethodPut, fmt.Sprintf("%s/session/%d", admin, sessionID), token, updateStateRequest{Action: "TELEPORT"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid action status = %d, want 400", resp.StatusCode)
	}
}

func TestJoinUnknownSession(t *testing.T) {
	server, _ := newTestServer(t)
	resp, _ := do(t, http.MethodPost, server.URL+"/v1/player/join", "", playerJoinRequest{SessionID: 999, Name: "bob"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown session status = %d, want 400", resp.StatusCode)
	}
}

func TestUnknownPlayer(t *testing.T) {
	server, _ := newTestServer(t)
	resp, _ := do(t, http.MethodGet, server.URL+"/v1/player/42", "", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown player status = %d, want 400", resp.StatusCode)
	}
}
