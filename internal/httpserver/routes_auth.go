package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/wordeo/wordeo/apps/go-server/internal/auth"
)

// credentialsReq is the payload for signup and login.
type credentialsReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// mountAuthRoutes registers authentication and profile routes.
func (s *Server) mountAuthRoutes(r chi.Router) {
	r.Post("/auth/signup", s.handleSignup)
	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/logout", s.handleLogout)
	r.With(s.requireAuth()).Get("/auth/me", s.handleMe)

	r.Get("/user/{username}", s.handleProfile)
	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth())
		r.Patch("/user/coin", s.handleCoins)
		r.Patch("/user/description", s.handleDescription)
		r.Delete("/user/me", s.handleDeleteMe)
	})
}

// handleSignup creates a new user, signs a JWT and sets the auth cookie.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body credentialsReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_json")
		return
	}
	u, err := s.deps.Auth.Signup(r.Context(), body.Username, body.Password)
	if errors.Is(err, auth.ErrUsernameTaken) {
		writeErr(w, http.StatusConflict, "username_taken")
		return
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_signup", "detail": err.Error()})
		return
	}
	if !s.issueToken(w, u) {
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// handleLogin authenticates the user and sets the cookie.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body credentialsReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_json")
		return
	}
	u, err := s.deps.Auth.Login(r.Context(), body.Username, body.Password)
	if err != nil {
		writeErr(w, http.StatusUnauthorized, "invalid_credentials")
		return
	}
	if !s.issueToken(w, u) {
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) issueToken(w http.ResponseWriter, u *auth.User) bool {
	tok, exp, err := s.deps.Auth.SignJWT(u.ID, u.Username)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "sign_failed")
		return false
	}
	s.deps.Auth.SetCookie(w, tok, exp)
	return true
}

// handleLogout clears the auth cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.deps.Auth.ClearCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := s.deps.Auth.FindByID(r.Context(), currentUser(r).ID)
	if err != nil {
		writeErr(w, http.StatusNotFound, "not_found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// profileRes is the public view of an account.
type profileRes struct {
	Username     string `json:"username"`
	Description  string `json:"description"`
	CreatedAt    string `json:"createdAt"`
	GamesPlayed  int    `json:"gamesPlayed"`
	HighestScore int    `json:"highestScore"`
	Coins        int    `json:"coins"`
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	u, err := s.deps.Auth.FindByUsername(r.Context(), chi.URLParam(r, "username"))
	if errors.Is(err, auth.ErrUserNotFound) {
		writeErr(w, http.StatusNotFound, "not_found")
		return
	}
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("profile")
		writeErr(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, profileRes{
		Username:     u.Username,
		Description:  u.Description,
		CreatedAt:    u.CreatedAt.Format("2006-01-02"),
		GamesPlayed:  u.GamesPlayed,
		HighestScore: u.HighestScore,
		Coins:        u.Coins,
	})
}

// coinsReq changes the balance by Quantity (may be negative).
type coinsReq struct {
	Quantity int `json:"quantity"`
}

func (s *Server) handleCoins(w http.ResponseWriter, r *http.Request) {
	var body coinsReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_json")
		return
	}
	coins, err := s.deps.Auth.AddCoins(r.Context(), currentUser(r).ID, body.Quantity)
	if err != nil {
		writeErr(w, http.StatusNotFound, "not_found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"coins": coins})
}

type descriptionReq struct {
	Description string `json:"description"`
}

func (s *Server) handleDescription(w http.ResponseWriter, r *http.Request) {
	var body descriptionReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_json")
		return
	}
	err := s.deps.Auth.UpdateDescription(r.Context(), currentUser(r).ID, body.Description)
	switch {
	case errors.Is(err, auth.ErrUserNotFound):
		writeErr(w, http.StatusNotFound, "not_found")
	case err != nil:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_description", "detail": err.Error()})
	default:
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

// handleDeleteMe removes the account and its scores, then logs out.
func (s *Server) handleDeleteMe(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Auth.Delete(r.Context(), currentUser(r).ID); err != nil {
		writeErr(w, http.StatusNotFound, "not_found")
		return
	}
	s.deps.Auth.ClearCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
