package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter mounts the admin and player surfaces under /v1.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "token"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Route("/admin/quiz/{quizid}", func(r chi.Router) {
			r.Post("/session/start", h.StartSession)
			r.Get("/sessions", h.ViewSessions)
			r.Get("/session/{sessionid}", h.SessionStatus)
			r.Put("/session/{sessionid}", h.UpdateSessionState)
		})
		r.Route("/player", func(r chi.Router) {
			r.Post("/join", h.PlayerJoin)
			r.Get("/{playerid}", h.PlayerStatus)
			r.Get("/{playerid}/question/{questionposition}", h.QuestionInfo)
			r.Put("/{playerid}/question/{questionposition}/answer", h.SubmitAnswer)
			r.Get("/{playerid}/question/{questionposition}/results", h.QuestionResults)
			r.Get("/{playerid}/results", h.FinalResults)
		})
	})
	return r
}
