// apps/go-server/internal/httpserver/routes_game.go
//
// HTTP routes for timed game sessions.
//   - POST /game/new                    → fetch words, start round 1
//   - GET  /game/{id}                   → current state (settles an expired round)
//   - POST /game/{id}/retry             → retry a game whose word fetch failed
//   - POST /game/{id}/word-guessed      → the player solved the current word
//   - POST /game/{id}/incorrect-letter  → the player picked a wrong letter
//   - POST /game/{id}/powerup           → activate a powerup {kind}
//   - POST /game/{id}/powerup/consume   → the client applied the armed powerup
//   - POST /game/{id}/powerup/buy       → spend coins on one more use {kind} (accounts only)
//   - POST /game/{id}/restart           → replay the same words from round 1
//   - GET  /game/{id}/qr.png            → share code for the game
//
// Signals are only accepted from the game's owner (account or anon cookie).

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/wordeo/wordeo/apps/go-server/internal/auth"
	"github.com/wordeo/wordeo/apps/go-server/internal/game"
	"github.com/wordeo/wordeo/apps/go-server/internal/store"
)

const classicMode = "classic"

// mountGame registers all /game routes.
func (s *Server) mountGame(r chi.Router) {
	g := r.With(s.rateLimit)
	g.Post("/game/new", s.handleNewGame)
	g.Get("/game/{id}", s.handleGetGame)
	g.Get("/game/{id}/qr.png", s.handleQR)
	g.Post("/game/{id}/retry", s.handleRetry)
	g.Post("/game/{id}/word-guessed", s.withOwnedGame(func(gm *game.Game) any { return gm.WordGuessed() }))
	g.Post("/game/{id}/incorrect-letter", s.withOwnedGame(func(gm *game.Game) any { return gm.IncorrectLetter() }))
	g.Post("/game/{id}/powerup/consume", s.withOwnedGame(func(gm *game.Game) any { return gm.ConsumePowerup() }))
	g.Post("/game/{id}/restart", s.withOwnedGame(func(gm *game.Game) any { return gm.Restart() }))
	g.Post("/game/{id}/powerup", s.handlePowerup)
	g.Post("/game/{id}/powerup/buy", s.handleBuyPowerup)
}

// newGameReq is the payload for POST /game/new.
type newGameReq struct {
	Rounds int `json:"rounds"` // 0 = server default
}

// failedGameRes carries the failed game so the client can offer a retry.
type failedGameRes struct {
	Error string    `json:"error"`
	Game  game.View `json:"game"`
}

// reporter returns the score reporter for mode, nil when scores are not kept.
func (s *Server) reporter(mode string, once bool) game.ScoreReporter {
	if s.deps.Reporter == nil {
		return nil
	}
	return s.deps.Reporter.ForMode(mode, once)
}

// handleNewGame creates a classic game owned by the caller and starts it.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	_ = json.NewDecoder(r.Body).Decode(&req) // empty body is fine
	if req.Rounds < 0 || req.Rounds > 50 {
		writeErr(w, http.StatusBadRequest, "invalid_rounds")
		return
	}

	opts := game.Options{
		Mode:     classicMode,
		OwnerID:  s.ownerID(w, r),
		Rules:    s.deps.Rules,
		Supply:   s.deps.Words,
		Reporter: s.reporter(classicMode, false),
		Now:      s.deps.Now,
	}
	if me := currentUser(r); me != nil {
		opts.UserID = me.ID
	}
	s.startGame(w, r, game.New(opts), req.Rounds)
}

// startGame saves g and starts it. A failed start keeps the game so that
// POST /game/{id}/retry can try again.
func (s *Server) startGame(w http.ResponseWriter, r *http.Request, g *game.Game, rounds int) {
	if err := s.deps.Store.Save(r.Context(), g); err != nil {
		writeErr(w, http.StatusInternalServerError, "save_failed")
		return
	}
	view, err := g.Start(r.Context(), rounds)
	if err != nil {
		s.writeStartErr(w, view, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) writeStartErr(w http.ResponseWriter, view game.View, err error) {
	switch {
	case errors.Is(err, game.ErrAlreadyStarted):
		writeErr(w, http.StatusConflict, "already_started")
	case errors.Is(err, game.ErrNoWords):
		writeJSON(w, http.StatusServiceUnavailable, failedGameRes{Error: "no_words", Game: view})
	default:
		writeJSON(w, http.StatusBadGateway, failedGameRes{Error: "word_supply_failed", Game: view})
	}
}

// handleGetGame returns the game state. Anyone holding the id may look.
func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	g, ok := s.lookupGame(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, g.View())
}

// handleRetry re-runs the word fetch of a failed game. Without a rounds value
// the count of the failed attempt is kept.
func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	g, ok := s.ownedGame(w, r)
	if !ok {
		return
	}
	var req newGameReq
	_ = json.NewDecoder(r.Body).Decode(&req)
	view, err := g.Start(r.Context(), req.Rounds)
	if err != nil {
		s.writeStartErr(w, view, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// powerupReq is the payload for POST /game/{id}/powerup.
type powerupReq struct {
	Kind game.PowerupKind `json:"kind"`
}

type powerupRes struct {
	Activated bool `json:"activated"`
	game.View
}

func (s *Server) handlePowerup(w http.ResponseWriter, r *http.Request) {
	g, ok := s.ownedGame(w, r)
	if !ok {
		return
	}
	var req powerupReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "bad_json")
		return
	}
	if !req.Kind.Valid() {
		writeErr(w, http.StatusBadRequest, "invalid_powerup")
		return
	}
	view, activated := g.ActivatePowerup(req.Kind)
	writeJSON(w, http.StatusOK, powerupRes{Activated: activated, View: view})
}

type buyRes struct {
	Coins int `json:"coins"`
	game.View
}

// handleBuyPowerup charges Rules.PowerupPrice coins for one more use of a
// powerup in the caller's running game. The charge is refunded when the game
// ended in the meantime.
func (s *Server) handleBuyPowerup(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	if me == nil {
		writeErr(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	g, ok := s.ownedGame(w, r)
	if !ok {
		return
	}
	var req powerupReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "bad_json")
		return
	}
	if !req.Kind.Valid() {
		writeErr(w, http.StatusBadRequest, "invalid_powerup")
		return
	}
	if g.Phase() != game.PhaseActive {
		writeErr(w, http.StatusConflict, "not_active")
		return
	}

	price := s.deps.Rules.PowerupPrice
	coins, err := s.deps.Auth.SpendCoins(r.Context(), me.ID, price)
	if errors.Is(err, auth.ErrInsufficientCoins) {
		writeErr(w, http.StatusPaymentRequired, "insufficient_coins")
		return
	}
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("spend coins")
		writeErr(w, http.StatusInternalServerError, "db_error")
		return
	}

	view, granted := g.GrantPowerup(req.Kind)
	if !granted {
		if _, err := s.deps.Auth.AddCoins(r.Context(), me.ID, price); err != nil {
			hlog.FromRequest(r).Warn().Err(err).Int("coins", price).Msg("refund coins")
		}
		writeErr(w, http.StatusConflict, "not_active")
		return
	}
	writeJSON(w, http.StatusOK, buyRes{Coins: coins, View: view})
}

// withOwnedGame adapts a signal on an owned game into a handler returning its view.
func (s *Server) withOwnedGame(signal func(*game.Game) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g, ok := s.ownedGame(w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, signal(g))
	}
}

// lookupGame loads the game named by {id}, writing 404 when missing.
func (s *Server) lookupGame(w http.ResponseWriter, r *http.Request) (*game.Game, bool) {
	g, err := s.deps.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeErr(w, http.StatusNotFound, "not_found")
		return nil, false
	}
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "store_error")
		return nil, false
	}
	return g, true
}

// ownedGame is lookupGame plus an owner check.
func (s *Server) ownedGame(w http.ResponseWriter, r *http.Request) (*game.Game, bool) {
	g, ok := s.lookupGame(w, r)
	if !ok {
		return nil, false
	}
	if g.OwnerID != s.ownerID(w, r) {
		writeErr(w, http.StatusForbidden, "forbidden")
		return nil, false
	}
	return g, true
}
