// apps/go-server/internal/words/words.go
//
// Word catalog loading and validation.
//
// Responsibilities:
//   - Load the word catalog from a file (WORDEO_WORDS_FILE) or fall back to the
//     embedded default in assets/words.json.
//   - Normalize entries (trim, lowercase, drop empty hints) and reject invalid ones.
//   - Feed Repo.SeedIfEmpty, which turns the catalog into stored rows on startup.
//
// Catalog format:
//   {"words": [{"word": "apple", "hints": ["fruit"], "difficulty": 0}, ...]}
//
// Constraints:
//   • Words are letters and single spaces only, lowercased.
//   • Difficulty is a non-negative integer.

package words

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"

	"github.com/wordeo/wordeo/apps/go-server/assets"
	"github.com/wordeo/wordeo/apps/go-server/internal/game"
)

var (
	// ErrNotFound is returned when no stored word matches.
	ErrNotFound = errors.New("word not found")
	// ErrInvalidWord is returned for entries failing validation.
	ErrInvalidWord = errors.New("invalid word")
)

type catalogFile struct {
	Words []game.Word `json:"words"`
}

// LoadCatalog reads the catalog at path, or the embedded default when path is
// empty. Invalid entries are skipped; an empty result is an error.
func LoadCatalog(path string) ([]game.Word, error) {
	var (
		raw []byte
		err error
	)
	if path != "" {
		raw, err = os.ReadFile(path)
	} else {
		raw, err = assets.DefaultWords()
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var cf catalogFile
	if err := json.Unmarshal(raw, &cf); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	out := lo.FilterMap(cf.Words, func(w game.Word, _ int) (game.Word, bool) {
		n, err := Normalize(w)
		return n, err == nil
	})
	if len(out) == 0 {
		return nil, errors.New("words: catalog is empty")
	}
	return out, nil
}

// Normalize trims and lowercases w and validates it.
func Normalize(w game.Word) (game.Word, error) {
	text := strings.Join(strings.Fields(strings.ToLower(w.Text)), " ")
	if text == "" || !isWordText(text) {
		return game.Word{}, fmt.Errorf("%w: %q", ErrInvalidWord, w.Text)
	}
	if w.Difficulty < 0 {
		return game.Word{}, fmt.Errorf("%w: negative difficulty", ErrInvalidWord)
	}
	hints := lo.FilterMap(w.Hints, func(h string, _ int) (string, bool) {
		h = strings.TrimSpace(h)
		return h, h != ""
	})
	return game.Word{Text: text, Hints: hints, Difficulty: w.Difficulty}, nil
}

// isWordText reports whether s is lowercase a–z with single spaces.
func isWordText(s string) bool {
	for _, r := range s {
		if r != ' ' && (r < 'a' || r > 'z') {
			return false
		}
	}
	return true
}
