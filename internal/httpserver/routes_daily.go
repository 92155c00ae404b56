// apps/go-server/internal/httpserver/routes_daily.go
//
// HTTP routes for the "Daily Challenge" mode.
// Exposes two endpoints under /daily:
//   - POST /daily/new         → start today's daily game (or resume the running one)
//   - GET  /daily/leaderboard → best daily scores for today (or a given date)
//
// Everyone gets the same word sequence on the same UTC date. Signed-in players
// have one recorded daily game per date (enforced by DB + in-memory session);
// the game itself is driven through the regular /game/{id}/* routes.

package httpserver

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wordeo/wordeo/apps/go-server/internal/daily"
	"github.com/wordeo/wordeo/apps/go-server/internal/game"
	"github.com/wordeo/wordeo/apps/go-server/internal/scores"
)

// dailyServer wraps dependencies for /daily endpoints.
type dailyServer struct {
	srv      *Server
	supply   daily.Supply
	sessions map[string]string // owner|date → game id of the running daily game
	mu       sync.Mutex        // guards sessions
}

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router) {
	dd := &dailyServer{
		srv:      s,
		supply:   daily.Supply{Pool: s.deps.Words, Salt: s.deps.DailySalt, Now: s.deps.Now},
		sessions: make(map[string]string),
	}
	r.Route("/daily", func(r chi.Router) {
		r.With(s.rateLimit).Post("/new", dd.handleNew)
		r.Get("/leaderboard", dd.handleLeaderboard)
	})
}

// newRes is returned by /daily/new.
type newRes struct {
	Date   string     `json:"date"`
	Played bool       `json:"played"`
	Game   *game.View `json:"game,omitempty"`
}

// handleNew starts or resumes the caller's daily game for the current date.
//   - Signed-in player with a recorded score for today → Played=true.
//   - A running daily game for this owner and date is returned as is.
//   - Otherwise a new daily game is created and started.
func (d *dailyServer) handleNew(w http.ResponseWriter, r *http.Request) {
	s := d.srv
	start := s.deps.Now()
	date := daily.DateKey(start)
	owner := s.ownerID(w, r)
	me := currentUser(r)

	if me != nil {
		played, err := s.deps.Daily.AlreadyPlayed(r.Context(), me.ID, date)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, "db_error")
			return
		}
		if played {
			writeJSON(w, http.StatusOK, newRes{Date: date, Played: true})
			return
		}
	}

	key := owner + "|" + date
	d.mu.Lock()
	defer d.mu.Unlock()
	if id, ok := d.sessions[key]; ok {
		if g, err := s.deps.Store.Get(r.Context(), id); err == nil && g.Phase() != game.PhaseFailed {
			v := g.View()
			writeJSON(w, http.StatusOK, newRes{Date: date, Played: v.Ended, Game: &v})
			return
		}
		delete(d.sessions, key)
	}

	// Words and the recorded score both belong to the date the game started,
	// even when it finishes (or is retried) after midnight.
	supply := d.supply
	supply.Now = func() time.Time { return start }
	opts := game.Options{
		Mode:    daily.Mode,
		OwnerID: owner,
		Rules:   s.deps.Rules,
		Supply:  supply,
		Now:     s.deps.Now,
	}
	if s.deps.Reporter != nil {
		opts.Reporter = s.deps.Reporter.ForDate(daily.Mode, date, true)
	}
	if me != nil {
		opts.UserID = me.ID
	}
	g := game.New(opts)
	if err := s.deps.Store.Save(r.Context(), g); err != nil {
		writeErr(w, http.StatusInternalServerError, "save_failed")
		return
	}
	view, err := g.Start(r.Context(), s.deps.Rules.DefaultRounds)
	if err != nil {
		s.writeStartErr(w, view, err)
		return
	}
	d.pruneLocked(date)
	d.sessions[key] = g.ID
	writeJSON(w, http.StatusOK, newRes{Date: date, Game: &view})
}

// pruneLocked forgets sessions of earlier dates.
func (d *dailyServer) pruneLocked(date string) {
	for k := range d.sessions {
		if !strings.HasSuffix(k, "|"+date) {
			delete(d.sessions, k)
		}
	}
}

// lbRes is returned by /daily/leaderboard.
type lbRes struct {
	Date string       `json:"date"`
	Top  []scores.Row `json:"top"`
}

// handleLeaderboard returns the leaderboard for the given date (default today).
func (d *dailyServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = daily.DateKey(d.srv.deps.Now())
	}
	rows, err := d.srv.deps.Scores.Leaderboard(r.Context(), daily.Mode, date, 20)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, lbRes{Date: date, Top: rows})
}
