// apps/go-server/internal/scores/store.go
//
// Persistence for finished games.
// Responsibilities:
//   - Insert a score row and bump the owner's stats (games played, highest score)
//     in the same transaction.
//   - Per-mode leaderboards (best score per player, optionally for one date).
//   - A player's own history.

package scores

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrDuplicate is returned by Insert with Once when the player already has a
// score for that mode and date.
var ErrDuplicate = errors.New("score already recorded")

// Score is one finished game.
type Score struct {
	ID        int64  `json:"id"`
	UserID    string `json:"-"`
	GameMode  string `json:"gameMode"`
	Score     int    `json:"score"`
	PlayDate  string `json:"playDate"`
	CreatedAt string `json:"createdAt"`
}

// Row is one leaderboard line.
type Row struct {
	Username string `json:"username"`
	Score    int    `json:"score"`
}

// Store wraps the scores table.
type Store struct{ db *sql.DB }

// NewStore returns a Store over the scores table in db.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// InsertOpts tunes Insert.
type InsertOpts struct {
	// Once rejects a second score for the same user, mode and date.
	Once bool
}

// Insert records sc and updates the user's stats. PlayDate and CreatedAt
// default to now (UTC).
func (s *Store) Insert(ctx context.Context, sc Score, opts InsertOpts) (Score, error) {
	now := time.Now().UTC()
	if sc.PlayDate == "" {
		sc.PlayDate = now.Format("2006-01-02")
	}
	if sc.CreatedAt == "" {
		sc.CreatedAt = now.Format(time.RFC3339Nano)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return sc, err
	}
	defer func() { _ = tx.Rollback() }()

	if opts.Once {
		var n int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM scores WHERE user_id=? AND game_mode=? AND play_date=?`,
			sc.UserID, sc.GameMode, sc.PlayDate).Scan(&n); err != nil {
			return sc, err
		}
		if n > 0 {
			return sc, ErrDuplicate
		}
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO scores (user_id, game_mode, score, play_date, created_at) VALUES (?,?,?,?,?)`,
		sc.UserID, sc.GameMode, sc.Score, sc.PlayDate, sc.CreatedAt)
	if err != nil {
		return sc, fmt.Errorf("insert score: %w", err)
	}
	sc.ID, _ = res.LastInsertId()

	if err := bumpStats(ctx, tx, sc.UserID, sc.Score); err != nil {
		return sc, fmt.Errorf("bump stats: %w", err)
	}
	return sc, tx.Commit()
}

// bumpStats increments games played and raises the highest score (within tx).
func bumpStats(ctx context.Context, tx *sql.Tx, userID string, score int) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE users SET games_played = games_played + 1, highest_score = MAX(highest_score, ?) WHERE id=?`,
		score, userID)
	return err
}

// Leaderboard returns the best score per player for mode, highest first.
// An empty date covers all dates. Ties go to the earlier submission.
func (s *Store) Leaderboard(ctx context.Context, mode, date string, limit int) ([]Row, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT u.username, MAX(s.score) AS best, MIN(s.created_at) AS first
FROM scores s JOIN users u ON u.id = s.user_id
WHERE s.game_mode = ? AND (? = '' OR s.play_date = ?)
GROUP BY s.user_id
ORDER BY best DESC, first ASC
LIMIT ?`, mode, date, date, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Row{}
	for rows.Next() {
		var (
			r     Row
			first string
		)
		if err := rows.Scan(&r.Username, &r.Score, &first); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ForUser lists a player's most recent scores.
func (s *Store) ForUser(ctx context.Context, userID string, limit int) ([]Score, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, game_mode, score, play_date, created_at FROM scores
		 WHERE user_id=? ORDER BY created_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Score{}
	for rows.Next() {
		sc := Score{UserID: userID}
		if err := rows.Scan(&sc.ID, &sc.GameMode, &sc.Score, &sc.PlayDate, &sc.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}
