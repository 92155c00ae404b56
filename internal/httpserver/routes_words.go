package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/wordeo/wordeo/apps/go-server/internal/game"
	"github.com/wordeo/wordeo/apps/go-server/internal/words"
)

// mountWords registers the word catalog routes. Reads are public; writes
// need an account.
func (s *Server) mountWords(r chi.Router) {
	r.Route("/words", func(r chi.Router) {
		r.Get("/", s.handleListWords)
		r.Get("/word", s.handleFindWord)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth())
			r.Post("/", s.handleCreateWords)
			r.Post("/word", s.handleCreateWord)
			r.Patch("/word", s.handleUpdateWord)
			r.Delete("/word", s.handleDeleteWord)
		})
	})
}

// handleListWords returns every word, or ?count=n random ones.
func (s *Server) handleListWords(w http.ResponseWriter, r *http.Request) {
	if c := r.URL.Query().Get("count"); c != "" {
		n, err := strconv.Atoi(c)
		if err != nil || n <= 0 {
			writeErr(w, http.StatusBadRequest, "invalid_count")
			return
		}
		ws, err := s.deps.Words.Random(r.Context(), n)
		if err != nil {
			s.wordsFailed(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, ws)
		return
	}
	all, err := s.deps.Words.All(r.Context())
	if err != nil {
		s.wordsFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, all)
}

// handleFindWord returns every row for ?word=; a word is not unique.
func (s *Server) handleFindWord(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("word")
	if text == "" {
		writeErr(w, http.StatusBadRequest, "missing_word")
		return
	}
	found, err := s.deps.Words.FindByText(r.Context(), text)
	if err != nil {
		s.wordsFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, found)
}

func (s *Server) handleCreateWord(w http.ResponseWriter, r *http.Request) {
	var body game.Word
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "bad_json")
		return
	}
	e, err := s.deps.Words.Create(r.Context(), body)
	if err != nil {
		s.wordsFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// createWordsReq is the bulk payload {"words":[...]}.
type createWordsReq struct {
	Words []game.Word `json:"words"`
}

func (s *Server) handleCreateWords(w http.ResponseWriter, r *http.Request) {
	var body createWordsReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Words) == 0 {
		writeErr(w, http.StatusBadRequest, "bad_json")
		return
	}
	es, err := s.deps.Words.InsertMany(r.Context(), body.Words)
	if err != nil {
		s.wordsFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, es)
}

// updateWordReq identifies a row by word plus one of its hints and replaces
// all of its hints.
type updateWordReq struct {
	Word     string   `json:"word"`
	Hint     string   `json:"hint"`
	NewHints []string `json:"newHints"`
}

func (s *Server) handleUpdateWord(w http.ResponseWriter, r *http.Request) {
	var body updateWordReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Word == "" || body.Hint == "" {
		writeErr(w, http.StatusBadRequest, "bad_json")
		return
	}
	n, err := s.deps.Words.UpdateHints(r.Context(), body.Word, body.Hint, body.NewHints)
	if err != nil {
		s.wordsFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"modified": n})
}

type deleteWordReq struct {
	Word string `json:"word"`
	Hint string `json:"hint"`
}

// handleDeleteWord removes one row; word and hint come from the body or the query.
func (s *Server) handleDeleteWord(w http.ResponseWriter, r *http.Request) {
	var body deleteWordReq
	_ = json.NewDecoder(r.Body).Decode(&body)
	if body.Word == "" {
		body.Word = r.URL.Query().Get("word")
		body.Hint = r.URL.Query().Get("hint")
	}
	if body.Word == "" || body.Hint == "" {
		writeErr(w, http.StatusBadRequest, "missing_word_or_hint")
		return
	}
	if err := s.deps.Words.Delete(r.Context(), body.Word, body.Hint); err != nil {
		s.wordsFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": 1})
}

func (s *Server) wordsFailed(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, words.ErrInvalidWord):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_word", "detail": err.Error()})
	case errors.Is(err, words.ErrNotFound):
		writeErr(w, http.StatusNotFound, "not_found")
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("words")
		writeErr(w, http.StatusInternalServerError, "db_error")
	}
}
