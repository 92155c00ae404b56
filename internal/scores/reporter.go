package scores

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wordeo/wordeo/apps/go-server/internal/game"
)

// Reporter submits final scores in the background. Failures are logged and
// dropped; the game never waits on them.
type Reporter struct {
	store   *Store
	timeout time.Duration
	now     func() time.Time
	wg      sync.WaitGroup
}

// NewReporter returns a Reporter writing to st, each insert bounded by timeout.
func NewReporter(st *Store, timeout time.Duration) *Reporter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Reporter{store: st, timeout: timeout, now: time.Now}
}

// ForMode returns a game.ScoreReporter recording scores under mode. With
// once set, a second score for the same player, mode and date is dropped.
func (r *Reporter) ForMode(mode string, once bool) game.ScoreReporter {
	return modeReporter{r: r, mode: mode, once: once}
}

// ForDate is ForMode with the play date fixed to date (YYYY-MM-DD) instead of
// the date the score arrives.
func (r *Reporter) ForDate(mode, date string, once bool) game.ScoreReporter {
	return modeReporter{r: r, mode: mode, date: date, once: once}
}

// Wait blocks until in-flight submissions finish or ctx is done.
func (r *Reporter) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Reporter) submit(mode, date string, once bool, userID string, score int) {
	now := r.now().UTC()
	if date == "" {
		date = now.Format("2006-01-02")
	}
	sc := Score{
		UserID:    userID,
		GameMode:  mode,
		Score:     score,
		PlayDate:  date,
		CreatedAt: now.Format(time.RFC3339Nano),
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		_, err := r.store.Insert(ctx, sc, InsertOpts{Once: once})
		switch {
		case errors.Is(err, ErrDuplicate):
			log.Info().Str("user", userID).Str("mode", mode).Msg("score already recorded")
		case err != nil:
			log.Warn().Err(err).Str("user", userID).Str("mode", mode).Int("score", score).Msg("submit score")
		default:
			log.Debug().Str("user", userID).Str("mode", mode).Int("score", score).Msg("score recorded")
		}
	}()
}

type modeReporter struct {
	r    *Reporter
	mode string
	date string
	once bool
}

func (m modeReporter) Submit(userID string, score int) {
	m.r.submit(m.mode, m.date, m.once, userID, score)
}
