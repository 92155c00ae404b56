// apps/go-server/internal/game/game.go
//
// Game hosts one Engine together with its RoundClock.
// Responsibilities:
//   - Serialize every signal (HTTP handlers, expiry timer, watchers) behind one mutex.
//   - Drive the clock: start it per round, extend it for add_time, settle it exactly once.
//   - Route both the "guessed" and the "timed out" paths through Engine.OnRoundEnd.
//   - Publish transition events to watchers.
//
// Notes:
//   - Every signal first settles a round whose time already ran out, so a late
//     "word guessed" after the deadline scores nothing.
//   - Restart re-arms a fresh clock; a stale timer firing afterwards finds an
//     unexpired clock and does nothing.

package game

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Options configures a new Game.
type Options struct {
	ID       string // generated when empty
	Mode     string // "classic" | "daily"
	OwnerID  string // user id or anonymous id that may drive the game
	UserID   string // identified player; empty for guests
	Rules    Rules
	Supply   WordSupply
	Reporter ScoreReporter
	Preset   []Word

	// Now overrides time.Now (tests).
	Now func() time.Time
	// ManualTick disables expiry timers; rounds only time out through Tick.
	ManualTick bool
}

// View is a Snapshot plus the host-level fields the client needs.
type View struct {
	ID   string `json:"gameId"`
	Mode string `json:"mode"`
	Snapshot
	RemainingMs int64 `json:"remainingMs"`
}

// Game is a running session.
type Game struct {
	ID        string
	Mode      string
	OwnerID   string
	UserID    string
	CreatedAt time.Time

	mu         sync.Mutex
	engine     *Engine
	clock      RoundClock
	rules      Rules
	now        func() time.Time
	manual     bool
	timer      *time.Timer
	lastActive time.Time
	hub        *Broadcaster
}

// New builds a game in the loading phase. Call Start to fetch words.
func New(opts Options) *Game {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}
	mode := opts.Mode
	if mode == "" {
		mode = "classic"
	}
	t := now()
	return &Game{
		ID:         id,
		Mode:       mode,
		OwnerID:    opts.OwnerID,
		UserID:     opts.UserID,
		CreatedAt:  t,
		engine:     NewEngine(opts.Rules, opts.Supply, opts.Reporter, opts.UserID, opts.Preset...),
		rules:      opts.Rules,
		now:        now,
		manual:     opts.ManualTick,
		lastActive: t,
		hub:        NewBroadcaster(),
	}
}

// Start fetches the word sequence and begins round 1. A failed start leaves
// the game in PhaseFailed; Start may be called again to retry.
func (g *Game) Start(ctx context.Context, numRounds int) (View, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.touch()

	if err := g.engine.StartSession(ctx, numRounds); err != nil {
		if g.engine.Phase() == PhaseFailed {
			log.Warn().Err(err).Str("gameId", g.ID).Msg("word supply failed")
			g.hub.Publish(EventFailed)
		}
		return g.viewLocked(now), err
	}
	g.startRoundLocked(now)
	g.hub.Publish(EventRound)
	return g.viewLocked(now), nil
}

// View returns the current state, settling an expired round first.
func (g *Game) View() View {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	g.settleExpiredLocked(now)
	return g.viewLocked(now)
}

// WordGuessed signals that the active word was guessed. The round settles
// with the remaining time, less the wrong-letter penalty.
func (g *Game) WordGuessed() View {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.touch()
	if g.settleExpiredLocked(now) || g.engine.Phase() != PhaseActive || g.engine.Session().WordGuessed {
		return g.viewLocked(now)
	}

	incorrect := g.engine.RoundState().IncorrectLetterCount
	g.engine.OnWordGuessed()
	if delta, ok := g.clock.Settle(now, incorrect, g.rules); ok {
		g.endRoundLocked(now, delta)
	}
	return g.viewLocked(now)
}

// IncorrectLetter signals a wrong letter in the active round.
func (g *Game) IncorrectLetter() View {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.touch()
	if !g.settleExpiredLocked(now) && g.engine.Phase() == PhaseActive {
		g.engine.OnIncorrectLetterGuessed()
		g.hub.Publish(EventLetter)
	}
	return g.viewLocked(now)
}

// ActivatePowerup spends one use of kind. add_time is applied to the clock
// immediately and consumed; reveal_letter stays armed until ConsumePowerup.
func (g *Game) ActivatePowerup(kind PowerupKind) (View, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.touch()
	if g.settleExpiredLocked(now) {
		return g.viewLocked(now), false
	}
	if !g.engine.ActivatePowerup(kind) {
		return g.viewLocked(now), false
	}
	if g.engine.ActivePowerup() == PowerupAddTime {
		g.clock.AddTime(time.Duration(g.rules.AddTimeSeconds) * time.Second)
		g.engine.ConsumeActivePowerup()
		g.armTimerLocked(now)
	}
	g.hub.Publish(EventPowerup)
	return g.viewLocked(now), true
}

// GrantPowerup adds one use of kind to the running game.
func (g *Game) GrantPowerup(kind PowerupKind) (View, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.touch()
	g.settleExpiredLocked(now)
	if !g.engine.GrantPowerup(kind, 1) {
		return g.viewLocked(now), false
	}
	g.hub.Publish(EventPowerup)
	return g.viewLocked(now), true
}

// ConsumePowerup disarms the active powerup after the client applied it.
func (g *Game) ConsumePowerup() View {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.touch()
	if g.engine.ActivePowerup() != PowerupNone {
		g.engine.ConsumeActivePowerup()
		g.hub.Publish(EventPowerup)
	}
	return g.viewLocked(now)
}

// Restart replays the word sequence from round 1 with a fresh clock.
func (g *Game) Restart() View {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.touch()
	g.engine.RestartSession()
	if g.engine.Phase() == PhaseActive {
		g.startRoundLocked(now)
		g.hub.Publish(EventRestart, EventRound)
	}
	return g.viewLocked(now)
}

// Tick settles the active round if it ran out of time at now.
func (g *Game) Tick(now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.settleExpiredLocked(now)
}

// Phase returns the engine phase.
func (g *Game) Phase() Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.engine.Phase()
}

// LastActive returns the time of the last player signal.
func (g *Game) LastActive() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastActive
}

// Watch subscribes to transition events. Call the returned func to stop.
func (g *Game) Watch() (<-chan string, func()) {
	ch := g.hub.Subscribe()
	return ch, func() { g.hub.Unsubscribe(ch) }
}

// Close stops the expiry timer and disconnects watchers.
func (g *Game) Close() {
	g.mu.Lock()
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
	g.clock.Stop()
	g.mu.Unlock()
	g.hub.Close()
}

func (g *Game) touch() time.Time {
	g.lastActive = g.now()
	return g.lastActive
}

// settleExpiredLocked ends the round with the timed-out delta when the clock
// ran out. It reports whether a round was settled.
func (g *Game) settleExpiredLocked(now time.Time) bool {
	if g.engine.Phase() != PhaseActive || !g.clock.Expired(now) {
		return false
	}
	delta, ok := g.clock.Settle(now, g.engine.RoundState().IncorrectLetterCount, g.rules)
	if !ok {
		return false
	}
	g.endRoundLocked(now, delta)
	return true
}

func (g *Game) endRoundLocked(now time.Time, delta int) {
	g.engine.OnRoundEnd(delta)
	if g.engine.Phase() == PhaseActive {
		g.startRoundLocked(now)
		g.hub.Publish(EventScore, EventRound)
		return
	}
	g.stopTimerLocked()
	log.Info().Str("gameId", g.ID).Int("score", g.engine.Session().Score).Msg("game ended")
	g.hub.Publish(EventScore, EventEnded)
}

func (g *Game) startRoundLocked(now time.Time) {
	g.clock.Start(g.engine.Session().RoundTimeBudget, now)
	g.armTimerLocked(now)
}

func (g *Game) armTimerLocked(now time.Time) {
	if g.manual {
		return
	}
	g.stopTimerLocked()
	g.timer = time.AfterFunc(g.clock.Remaining(now), g.onTimer)
}

func (g *Game) stopTimerLocked() {
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
}

func (g *Game) onTimer() {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	if g.settleExpiredLocked(now) {
		return
	}
	// Fired early or for a replaced clock; re-arm if the round still runs.
	if g.engine.Phase() == PhaseActive && g.clock.Running() {
		g.armTimerLocked(now)
	}
}

func (g *Game) viewLocked(now time.Time) View {
	v := View{ID: g.ID, Mode: g.Mode, Snapshot: g.engine.Snapshot()}
	if g.engine.Phase() == PhaseActive && g.clock.Running() {
		v.RemainingMs = g.clock.Remaining(now).Milliseconds()
	}
	return v
}
