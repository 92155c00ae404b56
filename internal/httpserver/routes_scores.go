package httpserver

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"
)

// mountScores registers leaderboard and score history routes.
func (s *Server) mountScores(r chi.Router) {
	r.Get("/scores/leaderboard", s.handleLeaderboard)
	r.With(s.requireAuth()).Get("/scores/me", s.handleMyScores)
}

// handleLeaderboard serves ?mode= (default classic), optional ?date= and ?limit=.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode := q.Get("mode")
	if mode == "" {
		mode = classicMode
	}
	limit := 20
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 100 {
			writeErr(w, http.StatusBadRequest, "invalid_limit")
			return
		}
		limit = n
	}
	rows, err := s.deps.Scores.Leaderboard(r.Context(), mode, q.Get("date"), limit)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("leaderboard")
		writeErr(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"mode": mode, "top": rows})
}

// handleMyScores returns the caller's stats and recent scores.
func (s *Server) handleMyScores(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	u, err := s.deps.Auth.FindByID(r.Context(), me.ID)
	if err != nil {
		writeErr(w, http.StatusNotFound, "not_found")
		return
	}
	hist, err := s.deps.Scores.ForUser(r.Context(), me.ID, 50)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("score history")
		writeErr(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"gamesPlayed":  u.GamesPlayed,
		"highestScore": u.HighestScore,
		"scores":       hist,
	})
}
