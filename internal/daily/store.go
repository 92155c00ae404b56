package daily

import (
	"context"
	"database/sql"
)

// Store answers daily-specific questions over the scores table.
type Store struct{ db *sql.DB }

// NewStore returns a Store reading daily results from db.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// AlreadyPlayed reports whether userID has a daily score for date.
func (s *Store) AlreadyPlayed(ctx context.Context, userID, date string) (bool, error) {
	var cnt int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM scores WHERE user_id=? AND game_mode=? AND play_date=?",
		userID, Mode, date,
	).Scan(&cnt)
	return cnt > 0, err
}
