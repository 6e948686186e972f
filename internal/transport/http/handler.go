package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"quizhost-service/internal/app"
	"quizhost-service/internal/domain"
	"github.com/go-chi/chi/v5"
)

// Handler exposes the session engine over REST. Clients poll; there is no
// push transport.
type Handler struct {
	service *app.SessionService
}

func NewHandler(service *app.SessionService) *Handler {
	return &Handler{service: service}
}

type startSessionRequest struct {
	AutoStartNum int `json:"autoStartNum"`
}

type updateStateRequest struct {
	Action domain.Action `json:"action"`
}

type playerJoinRequest struct {
	SessionID int    `json:"sessionId"`
	Name      string `json:"name"`
}

type submitAnswerRequest struct {
	AnswerIDs []int `json:"answerIds"`
}

func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.Errorf(domain.KindInvalidRequest, "invalid request body"))
		return
	}
	sessionID, err := h.service.StartSession(r.Context(), token(r), chi.URLParam(r, "quizid"), req.AutoStartNum)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]int{"sessionId": sessionID})
}

func (h *Handler) ViewSessions(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.ViewSessions(r.Context(), token(r), chi.URLParam(r, "quizid"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, view)
}

func (h *Handler) SessionStatus(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := intParam(w, r, "sessionid")
	if !ok {
		return
	}
	status, err := h.service.SessionStatus(r.Context(), token(r), chi.URLParam(r, "quizid"), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, status)
}

func (h *Handler) UpdateSessionState(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := intParam(w, r, "sessionid")
	if !ok {
		return
	}
	var req updateStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.Errorf(domain.KindInvalidRequest, "invalid request body"))
		return
	}
	if err := h.service.UpdateSessionState(r.Context(), token(r), chi.URLParam(r, "quizid"), sessionID, req.Action); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, struct{}{})
}

func (h *Handler) PlayerJoin(w http.ResponseWriter, r *http.Request) {
	var req playerJoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.Errorf(domain.KindInvalidRequest, "invalid request body"))
		return
	}
	playerID, err := h.service.PlayerJoin(r.Context(), req.SessionID, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]int{"playerId": playerID})
}

func (h *Handler) PlayerStatus(w http.ResponseWriter, r *http.Request) {
	playerID, ok := intParam(w, r, "playerid")
	if !ok {
		return
	}
	status, err := h.service.PlayerStatus(r.Context(), playerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, status)
}

func (h *Handler) QuestionInfo(w http.ResponseWriter, r *http.Request) {
	playerID, ok := intParam(w, r, "playerid")
	if !ok {
		return
	}
	position, ok := intParam(w, r, "questionposition")
	if !ok {
		return
	}
	info, err := h.service.QuestionInfo(r.Context(), playerID, position)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, info)
}

func (h *Handler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	playerID, ok := intParam(w, r, "playerid")
	if !ok {
		return
	}
	position, ok := intParam(w, r, "questionposition")
	if !ok {
		return
	}
	var req submitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.Errorf(domain.KindInvalidRequest, "invalid request body"))
		return
	}
	if err := h.service.SubmitAnswer(r.Context(), playerID, position, req.AnswerIDs); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, struct{}{})
}

func (h *Handler) QuestionResults(w http.ResponseWriter, r *http.Request) {
	playerID, ok := intParam(w, r, "playerid")
	if !ok {
		return
	}
	position, ok := intParam(w, r, "questionposition")
	if !ok {
		return
	}
	results, err := h.service.QuestionResults(r.Context(), playerID, position)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, results)
}

func (h *Handler) FinalResults(w http.ResponseWriter, r *http.Request) {
	playerID, ok := intParam(w, r, "playerid")
	if !ok {
		return
	}
	results, err := h.service.FinalResults(r.Context(), playerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, results)
}

func token(r *http.Request) string {
	return r.Header.Get("token")
}

func intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		writeError(w, domain.Errorf(domain.KindInvalidRequest, "%s must be an integer", name))
		return 0, false
	}
	return v, true
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("write response", "err", err)
	}
}

// writeError maps the error taxonomy onto the wire: unauthorized 401,
// forbidden 403, everything else 400.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch domain.KindOf(err) {
	case domain.KindUnauthorized:
		status = http.StatusUnauthorized
	case domain.KindForbidden:
		status = http.StatusForbidden
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
