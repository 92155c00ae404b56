package words

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wordeo/wordeo/apps/go-server/internal/game"
)

// Entry is a stored word row.
type Entry struct {
	ID int64 `json:"id"`
	game.Word
	CreatedAt string `json:"createdAt"`
}

// Repo persists words in the words table. Words are not unique; a word plus
// one of its hints identifies a row for updates and deletes.
type Repo struct{ db *sql.DB }

// NewRepo returns a Repo over the words table in db.
func NewRepo(db *sql.DB) *Repo { return &Repo{db: db} }

// Create validates and inserts a single word.
func (r *Repo) Create(ctx context.Context, w game.Word) (Entry, error) {
	n, err := Normalize(w)
	if err != nil {
		return Entry{}, err
	}
	hints, err := encodeHints(n.Hints)
	if err != nil {
		return Entry{}, err
	}
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO words (word, hints, difficulty, created_at) VALUES (?,?,?,?)`,
		n.Text, hints, n.Difficulty, now)
	if err != nil {
		return Entry{}, fmt.Errorf("insert word: %w", err)
	}
	id, _ := res.LastInsertId()
	return Entry{ID: id, Word: n, CreatedAt: now}, nil
}

// InsertMany validates and inserts words in one transaction. Any invalid
// entry aborts the batch.
func (r *Repo) InsertMany(ctx context.Context, ws []game.Word) ([]Entry, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339)
	out := make([]Entry, 0, len(ws))
	for _, w := range ws {
		n, err := Normalize(w)
		if err != nil {
			return nil, err
		}
		hints, err := encodeHints(n.Hints)
		if err != nil {
			return nil, err
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO words (word, hints, difficulty, created_at) VALUES (?,?,?,?)`,
			n.Text, hints, n.Difficulty, now)
		if err != nil {
			return nil, fmt.Errorf("insert word %q: %w", n.Text, err)
		}
		id, _ := res.LastInsertId()
		out = append(out, Entry{ID: id, Word: n, CreatedAt: now})
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit words: %w", err)
	}
	return out, nil
}

// FindByText returns every row whose word equals text.
func (r *Repo) FindByText(ctx context.Context, text string) ([]Entry, error) {
	return r.query(ctx,
		`SELECT id, word, hints, difficulty, created_at FROM words WHERE word=? ORDER BY id`,
		normalizeText(text))
}

// All returns every stored word in insertion order.
func (r *Repo) All(ctx context.Context) ([]Entry, error) {
	return r.query(ctx, `SELECT id, word, hints, difficulty, created_at FROM words ORDER BY id`)
}

// UpdateHints replaces the hints of rows matching text that carry hint.
func (r *Repo) UpdateHints(ctx context.Context, text, hint string, newHints []string) (int64, error) {
	n, err := Normalize(game.Word{Text: text, Hints: newHints})
	if err != nil {
		return 0, err
	}
	hints, err := encodeHints(n.Hints)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, `
        UPDATE words SET hints=?
        WHERE word=? AND EXISTS (SELECT 1 FROM json_each(words.hints) WHERE value=?)`,
		hints, n.Text, hint)
	if err != nil {
		return 0, fmt.Errorf("update hints: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return 0, ErrNotFound
	}
	return affected, nil
}

// Delete removes one row matching text that carries hint.
func (r *Repo) Delete(ctx context.Context, text, hint string) error {
	res, err := r.db.ExecContext(ctx, `
        DELETE FROM words WHERE id = (
            SELECT id FROM words
            WHERE word=? AND EXISTS (SELECT 1 FROM json_each(words.hints) WHERE value=?)
            ORDER BY id LIMIT 1)`,
		normalizeText(text), hint)
	if err != nil {
		return fmt.Errorf("delete word: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of stored words.
func (r *Repo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM words`).Scan(&n)
	return n, err
}

// SeedIfEmpty inserts ws when the table holds no words.
func (r *Repo) SeedIfEmpty(ctx context.Context, ws []game.Word) (int, error) {
	n, err := r.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	inserted, err := r.InsertMany(ctx, ws)
	if err != nil {
		return 0, err
	}
	log.Info().Int("words", len(inserted)).Msg("seeded word table")
	return len(inserted), nil
}

// Random returns up to count distinct rows in random order.
func (r *Repo) Random(ctx context.Context, count int) ([]game.Word, error) {
	entries, err := r.query(ctx,
		`SELECT id, word, hints, difficulty, created_at FROM words ORDER BY RANDOM() LIMIT ?`, count)
	if err != nil {
		return nil, err
	}
	return toWords(entries), nil
}

// Fetch implements game.WordSupply.
func (r *Repo) Fetch(ctx context.Context, count int) ([]game.Word, error) {
	return r.Random(ctx, count)
}

func (r *Repo) query(ctx context.Context, q string, args ...any) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query words: %w", err)
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var (
			e     Entry
			hints string
		)
		if err := rows.Scan(&e.ID, &e.Text, &hints, &e.Difficulty, &e.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(hints), &e.Hints); err != nil {
			return nil, fmt.Errorf("decode hints of word %d: %w", e.ID, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func toWords(entries []Entry) []game.Word {
	out := make([]game.Word, len(entries))
	for i, e := range entries {
		out[i] = e.Word
	}
	return out
}

func encodeHints(h []string) (string, error) {
	if h == nil {
		h = []string{}
	}
	b, err := json.Marshal(h)
	return string(b), err
}

func normalizeText(s string) string {
	n, err := Normalize(game.Word{Text: s})
	if err != nil {
		return s
	}
	return n.Text
}
