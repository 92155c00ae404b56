// apps/go-server/internal/game/types.go
//
// Core type definitions for the round engine.
// Defines:
//   - Word: one entry of the word sequence (text, hints, difficulty).
//   - PowerupKind / Powerup / Inventory: limited-use, once-per-round advantages.
//   - Phase: coarse lifecycle state of a session.
//   - Session / RoundState: mutable state owned by an Engine.
//   - Snapshot: the read-only view handed to the presentation layer.

package game

import "github.com/samber/lo"

// Word is a single guessable word. Immutable once fetched.
type Word struct {
	Text       string   `json:"word"`
	Hints      []string `json:"hints"`
	Difficulty int      `json:"difficulty"`
}

// PowerupKind names a powerup.
type PowerupKind string

const (
	PowerupNone         PowerupKind = ""
	PowerupAddTime      PowerupKind = "add_time"
	PowerupRevealLetter PowerupKind = "reveal_letter"
)

// Valid reports whether k is a known powerup kind.
func (k PowerupKind) Valid() bool {
	return k == PowerupAddTime || k == PowerupRevealLetter
}

// Powerup tracks remaining uses of one kind and whether it was used this round.
type Powerup struct {
	Kind               PowerupKind `json:"kind"`
	RemainingUses      int         `json:"remainingUses"`
	ActivatedThisRound bool        `json:"activatedThisRound"`
}

// Inventory is an ordered set of powerups, at most one per kind.
type Inventory []Powerup

// NewInventory builds an inventory from starting quantities, keeping the first
// entry for a kind when duplicates are given. Negative quantities become zero.
func NewInventory(start []Powerup) Inventory {
	uniq := lo.UniqBy(start, func(p Powerup) PowerupKind { return p.Kind })
	inv := make(Inventory, 0, len(uniq))
	for _, p := range uniq {
		if !p.Kind.Valid() {
			continue
		}
		inv = append(inv, Powerup{Kind: p.Kind, RemainingUses: max(p.RemainingUses, 0)})
	}
	return inv
}

// find returns a pointer to the entry for kind, or nil.
func (inv Inventory) find(kind PowerupKind) *Powerup {
	for i := range inv {
		if inv[i].Kind == kind {
			return &inv[i]
		}
	}
	return nil
}

// resetRound clears every activation flag in place. Uses are not restored.
func (inv Inventory) resetRound() {
	for i := range inv {
		inv[i].ActivatedThisRound = false
	}
}

// clone copies the inventory so snapshots never alias engine state.
func (inv Inventory) clone() Inventory {
	out := make(Inventory, len(inv))
	copy(out, inv)
	return out
}

// Phase is the coarse lifecycle state of a session.
type Phase string

const (
	PhaseLoading Phase = "loading"
	PhaseActive  Phase = "active"
	PhaseEnded   Phase = "ended"
	PhaseFailed  Phase = "failed"
)

// Session is the aggregate owned exclusively by an Engine.
type Session struct {
	Round           int   // 1-based
	NumRounds       int   // number of words in the sequence
	Score           int   // accumulated score
	CurrentWord     *Word // nil only before words are supplied
	Ended           bool  // terminal until restart
	RoundTimeBudget int   // seconds for the current round
	WordGuessed     bool  // active word guessed, round not yet settled
}

// RoundState is reset at the start of every round.
type RoundState struct {
	IncorrectLetterCount int
}

// Snapshot is the observable engine state.
type Snapshot struct {
	Phase                Phase       `json:"phase"`
	Round                int         `json:"round"`
	MaxRound             int         `json:"maxRound"`
	Score                int         `json:"score"`
	Ended                bool        `json:"ended"`
	CurrentWord          *Word       `json:"currentWord,omitempty"`
	RoundTimeBudget      int         `json:"roundTimeBudget"`
	WordGuessed          bool        `json:"wordGuessed"`
	IncorrectLetterCount int         `json:"incorrectLetterCount"`
	Inventory            Inventory   `json:"inventory"`
	ActivePowerup        PowerupKind `json:"activePowerup"`
	Error                string      `json:"error,omitempty"`
}
