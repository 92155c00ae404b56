// apps/go-server/internal/game/engine.go
//
// Round lifecycle engine for a single play-through.
// Responsibilities:
//   - Seed a session from the word supply (loading → active, or failed).
//   - Advance rounds on round end, accumulating the score delta.
//   - End the session after the last word and hand the score to the reporter.
//   - Gate powerups to one activation per round and track the armed one.
//   - Track wrong letters for the active round.
//
// Notes:
//   - The engine holds no lock. game.Game serializes calls to it.
//   - Invalid signals degrade to no-ops; only StartSession returns errors.

package game

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNoWords is returned when the word supply produced an empty sequence.
	ErrNoWords = errors.New("word supply returned no words")
	// ErrAlreadyStarted is returned by StartSession once words are loaded.
	ErrAlreadyStarted = errors.New("session already started")
)

// WordSupply provides an ordered word sequence for a session.
type WordSupply interface {
	Fetch(ctx context.Context, count int) ([]Word, error)
}

// ScoreReporter receives the final score of an identified player.
// Implementations must not block the caller.
type ScoreReporter interface {
	Submit(userID string, score int)
}

// Engine owns one Session and everything scoped to it.
type Engine struct {
	rules    Rules
	supply   WordSupply
	reporter ScoreReporter
	userID   string // empty for guests
	rounds   int    // round count asked for by the last StartSession

	phase     Phase
	err       error
	words     []Word
	session   Session
	round     RoundState
	inventory Inventory
	active    PowerupKind
}

// NewEngine returns an engine in the loading phase. preset, when non-empty, is
// used as the word sequence instead of querying supply.
func NewEngine(rules Rules, supply WordSupply, reporter ScoreReporter, userID string, preset ...Word) *Engine {
	return &Engine{
		rules:    rules,
		supply:   supply,
		reporter: reporter,
		userID:   userID,
		phase:    PhaseLoading,
		words:    append([]Word(nil), preset...),
	}
}

// StartSession loads numRounds words and begins round 1.
// numRounds <= 0 falls back to the count of an earlier failed attempt, then
// the preset length, then Rules.DefaultRounds. On supply failure the engine
// moves to PhaseFailed and may be started again.
func (e *Engine) StartSession(ctx context.Context, numRounds int) error {
	if e.phase != PhaseLoading && e.phase != PhaseFailed {
		return ErrAlreadyStarted
	}
	if numRounds <= 0 {
		numRounds = e.rounds
	}
	if numRounds <= 0 {
		numRounds = len(e.words)
	}
	if numRounds <= 0 {
		numRounds = e.rules.DefaultRounds
	}
	e.rounds = numRounds

	words := e.words
	if len(words) >= numRounds {
		words = words[:numRounds]
	} else {
		if e.supply == nil {
			return e.fail(ErrNoWords)
		}
		fetched, err := e.supply.Fetch(ctx, numRounds)
		if err != nil {
			return e.fail(fmt.Errorf("fetch words: %w", err))
		}
		words = fetched[:min(len(fetched), numRounds)]
	}
	if len(words) == 0 {
		return e.fail(ErrNoWords)
	}

	e.words = words
	e.err = nil
	e.inventory = NewInventory(e.rules.StartingPowerups)
	e.beginFirstRound()
	return nil
}

func (e *Engine) fail(err error) error {
	e.phase = PhaseFailed
	e.err = err
	return err
}

// beginFirstRound resets the session to round 1 of the loaded sequence.
func (e *Engine) beginFirstRound() {
	first := e.words[0]
	e.session = Session{
		Round:           1,
		NumRounds:       len(e.words),
		Score:           0,
		CurrentWord:     &first,
		RoundTimeBudget: e.rules.RoundBudget(first),
	}
	e.round = RoundState{}
	e.inventory.resetRound()
	e.active = PowerupNone
	e.phase = PhaseActive
}

// OnRoundEnd settles the active round with scoreDelta and moves to the next
// round, or ends the session after the last one. The delta is applied as given.
func (e *Engine) OnRoundEnd(scoreDelta int) {
	if e.phase != PhaseActive {
		return
	}
	e.inventory.resetRound()

	if e.session.Round+1 <= e.session.NumRounds {
		next := e.words[e.session.Round]
		e.session.Round++
		e.session.Score += scoreDelta
		e.session.CurrentWord = &next
		e.session.RoundTimeBudget = e.rules.RoundBudget(next)
		e.session.WordGuessed = false
	} else {
		e.session.Score += scoreDelta
		e.session.Ended = true
		e.session.RoundTimeBudget = 0
		e.phase = PhaseEnded
		e.report()
	}

	e.round = RoundState{}
}

// report hands the final score to the reporter. Guests are never reported.
func (e *Engine) report() {
	if e.reporter == nil || e.userID == "" {
		return
	}
	e.reporter.Submit(e.userID, e.session.Score)
}

// OnWordGuessed marks the active word as guessed. The round is settled
// separately through OnRoundEnd.
func (e *Engine) OnWordGuessed() {
	if e.phase != PhaseActive {
		return
	}
	e.session.WordGuessed = true
	e.round = RoundState{}
}

// OnIncorrectLetterGuessed counts a wrong letter for the active round.
func (e *Engine) OnIncorrectLetterGuessed() {
	if e.phase != PhaseActive {
		return
	}
	e.round.IncorrectLetterCount++
}

// RestartSession replays the loaded word sequence from round 1.
func (e *Engine) RestartSession() {
	if e.phase != PhaseActive && e.phase != PhaseEnded {
		return
	}
	if e.rules.RestorePowerupsOnRestart {
		e.inventory = NewInventory(e.rules.StartingPowerups)
	}
	e.beginFirstRound()
}

// ActivatePowerup spends one use of kind and arms it. It reports whether the
// activation happened; unmet preconditions are ignored.
func (e *Engine) ActivatePowerup(kind PowerupKind) bool {
	if e.phase != PhaseActive {
		return false
	}
	p := e.inventory.find(kind)
	if p == nil || p.ActivatedThisRound || p.RemainingUses <= 0 {
		return false
	}
	p.RemainingUses--
	p.ActivatedThisRound = true
	e.active = kind
	return true
}

// GrantPowerup adds n uses of kind to an active session. Kinds missing from the
// starting inventory cannot be granted.
func (e *Engine) GrantPowerup(kind PowerupKind, n int) bool {
	if e.phase != PhaseActive || n <= 0 {
		return false
	}
	p := e.inventory.find(kind)
	if p == nil {
		return false
	}
	p.RemainingUses += n
	return true
}

// ConsumeActivePowerup disarms the active powerup once its effect was applied.
func (e *Engine) ConsumeActivePowerup() {
	e.active = PowerupNone
}

// Phase returns the lifecycle phase.
func (e *Engine) Phase() Phase { return e.phase }

// Err returns the failure recorded by the last StartSession, if any.
func (e *Engine) Err() error { return e.err }

// Session returns a copy of the session state.
func (e *Engine) Session() Session { return e.session }

// RoundState returns a copy of the round-local counters.
func (e *Engine) RoundState() RoundState { return e.round }

// ActivePowerup returns the armed powerup kind, or PowerupNone.
func (e *Engine) ActivePowerup() PowerupKind { return e.active }

// Inventory returns a copy of the powerup inventory.
func (e *Engine) Inventory() Inventory { return e.inventory.clone() }

// Snapshot returns the state visible to the presentation layer.
func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{
		Phase:                e.phase,
		Round:                e.session.Round,
		MaxRound:             e.session.NumRounds,
		Score:                e.session.Score,
		Ended:                e.session.Ended,
		RoundTimeBudget:      e.session.RoundTimeBudget,
		WordGuessed:          e.session.WordGuessed,
		IncorrectLetterCount: e.round.IncorrectLetterCount,
		Inventory:            e.inventory.clone(),
		ActivePowerup:        e.active,
	}
	if e.session.CurrentWord != nil {
		w := *e.session.CurrentWord
		s.CurrentWord = &w
	}
	if e.err != nil {
		s.Error = e.err.Error()
	}
	return s
}
