package game

import (
	"context"
	"errors"
	"testing"
)

type fakeSupply struct {
	words []Word
	err   error
	calls int
}

func (f *fakeSupply) Fetch(_ context.Context, count int) ([]Word, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if count < len(f.words) {
		return f.words[:count], nil
	}
	return f.words, nil
}

// greedySupply ignores the requested count.
type greedySupply []Word

func (g greedySupply) Fetch(context.Context, int) ([]Word, error) { return g, nil }

type submission struct {
	userID string
	score  int
}

type fakeReporter struct {
	got []submission
}

func (f *fakeReporter) Submit(userID string, score int) {
	f.got = append(f.got, submission{userID, score})
}

func threeWords() []Word {
	return []Word{
		{Text: "apple", Hints: []string{"fruit"}, Difficulty: 0},
		{Text: "table", Hints: []string{"furniture"}, Difficulty: 2},
		{Text: "crane", Hints: []string{"bird", "machine"}, Difficulty: 1},
	}
}

func startedEngine(t *testing.T, userID string, rep ScoreReporter) *Engine {
	t.Helper()
	e := NewEngine(DefaultRules(), &fakeSupply{words: threeWords()}, rep, userID)
	if err := e.StartSession(context.Background(), 3); err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	return e
}

func TestStartSession_Initializes(t *testing.T) {
	e := startedEngine(t, "", nil)
	s := e.Session()
	if e.Phase() != PhaseActive {
		t.Fatalf("phase %q, want active", e.Phase())
	}
	if s.Round != 1 || s.Score != 0 || s.Ended || s.WordGuessed {
		t.Errorf("unexpected session %+v", s)
	}
	if s.CurrentWord == nil || s.CurrentWord.Text != "apple" {
		t.Fatalf("current word %+v, want apple", s.CurrentWord)
	}
	if s.RoundTimeBudget != 10 {
		t.Errorf("budget %d, want 10", s.RoundTimeBudget)
	}
	inv := e.Inventory()
	if len(inv) != 2 {
		t.Fatalf("inventory len %d, want 2", len(inv))
	}
	if inv[0].Kind != PowerupAddTime || inv[0].RemainingUses != 5 {
		t.Errorf("inventory[0] %+v", inv[0])
	}
	if inv[1].Kind != PowerupRevealLetter || inv[1].RemainingUses != 1 {
		t.Errorf("inventory[1] %+v", inv[1])
	}
}

func TestStartSession_DefaultRounds(t *testing.T) {
	words := make([]Word, 12)
	for i := range words {
		words[i] = Word{Text: "word"}
	}
	sup := &fakeSupply{words: words}
	e := NewEngine(DefaultRules(), sup, nil, "")
	if err := e.StartSession(context.Background(), 0); err != nil {
		t.Fatal(err)
	}
	if got := e.Session().NumRounds; got != 10 {
		t.Errorf("NumRounds %d, want 10", got)
	}
}

func TestStartSession_PresetSkipsSupply(t *testing.T) {
	sup := &fakeSupply{words: threeWords()}
	e := NewEngine(DefaultRules(), sup, nil, "", Word{Text: "one"}, Word{Text: "two"})
	if err := e.StartSession(context.Background(), 0); err != nil {
		t.Fatal(err)
	}
	if sup.calls != 0 {
		t.Errorf("supply called %d times, want 0", sup.calls)
	}
	if got := e.Session().NumRounds; got != 2 {
		t.Errorf("NumRounds %d, want 2", got)
	}
}

func TestStartSession_ShortSupplyShortensGame(t *testing.T) {
	e := NewEngine(DefaultRules(), &fakeSupply{words: threeWords()[:2]}, nil, "")
	if err := e.StartSession(context.Background(), 5); err != nil {
		t.Fatal(err)
	}
	if got := e.Session().NumRounds; got != 2 {
		t.Errorf("NumRounds %d, want 2", got)
	}
}

func TestStartSession_TruncatesOversizedSupply(t *testing.T) {
	e := NewEngine(DefaultRules(), greedySupply(threeWords()), nil, "")
	if err := e.StartSession(context.Background(), 2); err != nil {
		t.Fatal(err)
	}
	if got := e.Session().NumRounds; got != 2 {
		t.Errorf("NumRounds %d, want 2", got)
	}
	if got := e.Snapshot().MaxRound; got != 2 {
		t.Errorf("MaxRound %d, want 2", got)
	}
}

func TestStartSession_RetryKeepsRequestedRounds(t *testing.T) {
	sup := &fakeSupply{err: errors.New("down")}
	e := NewEngine(DefaultRules(), sup, nil, "")
	if err := e.StartSession(context.Background(), 2); err == nil {
		t.Fatal("expected failure")
	}

	sup.err = nil
	sup.words = threeWords()
	if err := e.StartSession(context.Background(), 0); err != nil {
		t.Fatal(err)
	}
	if got := e.Session().NumRounds; got != 2 {
		t.Errorf("NumRounds after retry %d, want 2", got)
	}
}

func TestStartSession_FailureThenRetry(t *testing.T) {
	sup := &fakeSupply{err: errors.New("boom")}
	e := NewEngine(DefaultRules(), sup, nil, "")
	if err := e.StartSession(context.Background(), 3); err == nil {
		t.Fatal("expected error")
	}
	if e.Phase() != PhaseFailed {
		t.Fatalf("phase %q, want failed", e.Phase())
	}
	if e.Err() == nil || e.Snapshot().Error == "" {
		t.Error("failure not recorded")
	}

	// Signals are ignored while failed.
	e.OnRoundEnd(10)
	e.OnIncorrectLetterGuessed()
	if e.ActivatePowerup(PowerupAddTime) {
		t.Error("activation succeeded while failed")
	}
	if e.Session().Score != 0 {
		t.Error("score changed while failed")
	}

	sup.err = nil
	sup.words = threeWords()
	if err := e.StartSession(context.Background(), 3); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if e.Phase() != PhaseActive || e.Err() != nil {
		t.Errorf("phase %q err %v after retry", e.Phase(), e.Err())
	}
	if err := e.StartSession(context.Background(), 3); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second start err %v, want ErrAlreadyStarted", err)
	}
}

func TestStartSession_EmptySupply(t *testing.T) {
	e := NewEngine(DefaultRules(), &fakeSupply{}, nil, "")
	if err := e.StartSession(context.Background(), 3); !errors.Is(err, ErrNoWords) {
		t.Fatalf("err %v, want ErrNoWords", err)
	}
	if e.Phase() != PhaseFailed {
		t.Errorf("phase %q, want failed", e.Phase())
	}
}

// Budgets follow each word's difficulty; the last round ends the game.
func TestOnRoundEnd_ThreeRounds(t *testing.T) {
	e := startedEngine(t, "", nil)
	wantBudgets := []int{20, 15}
	for i := 0; i < 2; i++ {
		e.OnRoundEnd(10)
		s := e.Session()
		if s.Round != i+2 {
			t.Fatalf("round %d, want %d", s.Round, i+2)
		}
		if s.RoundTimeBudget != wantBudgets[i] {
			t.Errorf("budget %d, want %d", s.RoundTimeBudget, wantBudgets[i])
		}
	}
	e.OnRoundEnd(10)
	s := e.Session()
	if s.Score != 30 || !s.Ended || s.RoundTimeBudget != 0 {
		t.Errorf("final session %+v, want score 30 ended budget 0", s)
	}
	if e.Phase() != PhaseEnded {
		t.Errorf("phase %q, want ended", e.Phase())
	}
}

// Ending the last round keeps its word on screen.
func TestOnRoundEnd_LastRoundKeepsWord(t *testing.T) {
	e := startedEngine(t, "", nil)
	e.OnRoundEnd(0)
	e.OnRoundEnd(0)
	if e.Session().Round != 3 {
		t.Fatalf("round %d, want 3", e.Session().Round)
	}
	e.OnRoundEnd(5)
	s := e.Session()
	if !s.Ended || s.CurrentWord.Text != "crane" || s.Score != 5 {
		t.Errorf("session %+v", s)
	}
}

func TestOnRoundEnd_FrozenAfterEnd(t *testing.T) {
	e := startedEngine(t, "", nil)
	for i := 0; i < 3; i++ {
		e.OnRoundEnd(1)
	}
	before := e.Session()
	e.OnRoundEnd(100)
	e.OnWordGuessed()
	e.OnIncorrectLetterGuessed()
	after := e.Session()
	if after.Round != before.Round || after.Score != before.Score || after.CurrentWord != before.CurrentWord {
		t.Errorf("session changed after end: %+v -> %+v", before, after)
	}
	if e.RoundState().IncorrectLetterCount != 0 {
		t.Error("incorrect letters counted after end")
	}
}

func TestOnRoundEnd_NegativeDeltaPassesThrough(t *testing.T) {
	e := startedEngine(t, "", nil)
	e.OnRoundEnd(10)
	e.OnRoundEnd(-4)
	if got := e.Session().Score; got != 6 {
		t.Errorf("score %d, want 6", got)
	}
}

func TestOnRoundEnd_ResetsRoundScopedState(t *testing.T) {
	e := startedEngine(t, "", nil)
	e.ActivatePowerup(PowerupAddTime)
	e.ActivatePowerup(PowerupRevealLetter)
	e.OnIncorrectLetterGuessed()
	e.OnRoundEnd(3)
	for _, p := range e.Inventory() {
		if p.ActivatedThisRound {
			t.Errorf("%s still activated after round end", p.Kind)
		}
	}
	if e.RoundState().IncorrectLetterCount != 0 {
		t.Error("incorrect count not reset")
	}
	if e.Session().WordGuessed {
		t.Error("wordGuessed not reset")
	}
}

func TestIncorrectLetters(t *testing.T) {
	e := startedEngine(t, "", nil)
	for i := 0; i < 3; i++ {
		e.OnIncorrectLetterGuessed()
	}
	if got := e.RoundState().IncorrectLetterCount; got != 3 {
		t.Fatalf("count %d, want 3", got)
	}
	if e.Session().Score != 0 || e.Session().Round != 1 {
		t.Error("incorrect letters touched score or round")
	}
	e.OnRoundEnd(7)
	if got := e.RoundState().IncorrectLetterCount; got != 0 {
		t.Errorf("count %d after round end, want 0", got)
	}
}

func TestOnWordGuessed(t *testing.T) {
	e := startedEngine(t, "", nil)
	e.OnIncorrectLetterGuessed()
	e.OnWordGuessed()
	s := e.Session()
	if !s.WordGuessed {
		t.Error("wordGuessed not set")
	}
	if s.Round != 1 || s.Score != 0 {
		t.Error("OnWordGuessed advanced the session")
	}
	if e.RoundState().IncorrectLetterCount != 0 {
		t.Error("incorrect count not reset")
	}
}

func TestActivatePowerup_OncePerRound(t *testing.T) {
	e := startedEngine(t, "", nil)
	if !e.ActivatePowerup(PowerupAddTime) {
		t.Fatal("first activation refused")
	}
	if e.Inventory()[0].RemainingUses != 4 || e.ActivePowerup() != PowerupAddTime {
		t.Fatalf("inventory %+v active %q", e.Inventory()[0], e.ActivePowerup())
	}
	if e.ActivatePowerup(PowerupAddTime) {
		t.Error("second activation in the same round accepted")
	}
	if e.Inventory()[0].RemainingUses != 4 {
		t.Error("remaining uses changed on refused activation")
	}
	e.OnRoundEnd(0)
	if !e.ActivatePowerup(PowerupAddTime) {
		t.Error("activation refused in the next round")
	}
}

func TestActivatePowerup_Exhausted(t *testing.T) {
	e := startedEngine(t, "", nil)
	if !e.ActivatePowerup(PowerupRevealLetter) {
		t.Fatal("reveal refused")
	}
	e.ConsumeActivePowerup()
	e.OnRoundEnd(0)
	if e.ActivatePowerup(PowerupRevealLetter) {
		t.Error("activation accepted with zero uses")
	}
	if got := e.Inventory()[1].RemainingUses; got != 0 {
		t.Errorf("remaining %d, want 0", got)
	}
	if e.ActivatePowerup("shield") {
		t.Error("unknown kind accepted")
	}
}

func TestConsumeActivePowerup_Idempotent(t *testing.T) {
	e := startedEngine(t, "", nil)
	e.ActivatePowerup(PowerupRevealLetter)
	e.ConsumeActivePowerup()
	e.ConsumeActivePowerup()
	if e.ActivePowerup() != PowerupNone {
		t.Errorf("active %q, want none", e.ActivePowerup())
	}
}

func TestGrantPowerup(t *testing.T) {
	e := startedEngine(t, "", nil)
	e.ActivatePowerup(PowerupRevealLetter)
	if !e.GrantPowerup(PowerupRevealLetter, 1) {
		t.Fatal("grant refused on an active session")
	}
	if got := e.Inventory()[1].RemainingUses; got != 1 {
		t.Errorf("reveal_letter uses %d, want 1", got)
	}
	if e.GrantPowerup(PowerupKind("shield"), 1) || e.GrantPowerup(PowerupAddTime, 0) {
		t.Error("grant of unknown kind or zero uses accepted")
	}

	for i := 0; i < 3; i++ {
		e.OnRoundEnd(0)
	}
	if e.GrantPowerup(PowerupAddTime, 1) {
		t.Error("grant accepted after the game ended")
	}
}

// Restart replays from round 1 without refilling powerups.
func TestRestartSession(t *testing.T) {
	sup := &fakeSupply{words: threeWords()}
	e := NewEngine(DefaultRules(), sup, nil, "")
	if err := e.StartSession(context.Background(), 3); err != nil {
		t.Fatal(err)
	}
	e.ActivatePowerup(PowerupAddTime)
	for i := 0; i < 3; i++ {
		e.OnRoundEnd(4)
	}
	e.RestartSession()

	s := e.Session()
	if s.Round != 1 || s.Score != 0 || s.Ended || s.WordGuessed {
		t.Errorf("session after restart %+v", s)
	}
	if s.CurrentWord.Text != "apple" || s.RoundTimeBudget != 10 {
		t.Errorf("word %q budget %d", s.CurrentWord.Text, s.RoundTimeBudget)
	}
	if sup.calls != 1 {
		t.Errorf("supply called %d times, want 1", sup.calls)
	}
	if e.Phase() != PhaseActive {
		t.Errorf("phase %q, want active", e.Phase())
	}
	if got := e.Inventory()[0].RemainingUses; got != 4 {
		t.Errorf("add_time uses %d, want 4 (not restored)", got)
	}
}

func TestRestartSession_RestoresPowerupsWhenConfigured(t *testing.T) {
	rules := DefaultRules()
	rules.RestorePowerupsOnRestart = true
	e := NewEngine(rules, &fakeSupply{words: threeWords()}, nil, "")
	if err := e.StartSession(context.Background(), 3); err != nil {
		t.Fatal(err)
	}
	e.ActivatePowerup(PowerupAddTime)
	e.RestartSession()
	if got := e.Inventory()[0].RemainingUses; got != 5 {
		t.Errorf("add_time uses %d, want 5", got)
	}
	if e.ActivePowerup() != PowerupNone {
		t.Error("armed powerup survived restart")
	}
}

func TestRestartSession_IgnoredWhileLoading(t *testing.T) {
	e := NewEngine(DefaultRules(), &fakeSupply{}, nil, "")
	e.RestartSession()
	if e.Phase() != PhaseLoading {
		t.Errorf("phase %q, want loading", e.Phase())
	}
}

func TestReporter_OnlyIdentifiedOnce(t *testing.T) {
	rep := &fakeReporter{}
	e := startedEngine(t, "user-1", rep)
	e.OnRoundEnd(10)
	e.OnRoundEnd(20)
	if len(rep.got) != 0 {
		t.Fatal("reported before the end")
	}
	e.OnRoundEnd(30)
	e.OnRoundEnd(40)
	if len(rep.got) != 1 {
		t.Fatalf("reported %d times, want 1", len(rep.got))
	}
	if rep.got[0] != (submission{"user-1", 60}) {
		t.Errorf("got %+v", rep.got[0])
	}

	guest := &fakeReporter{}
	g := startedEngine(t, "", guest)
	for i := 0; i < 3; i++ {
		g.OnRoundEnd(1)
	}
	if len(guest.got) != 0 {
		t.Error("guest score reported")
	}
}

func TestRoundMonotonic(t *testing.T) {
	e := startedEngine(t, "", nil)
	prev := e.Session().Round
	for !e.Session().Ended {
		e.OnRoundEnd(1)
		cur := e.Session().Round
		if !e.Session().Ended && cur != prev+1 {
			t.Fatalf("round jumped %d -> %d", prev, cur)
		}
		prev = cur
	}
	if prev != 3 {
		t.Errorf("final round %d, want 3", prev)
	}
}

func TestNewInventory_UniquePerKind(t *testing.T) {
	inv := NewInventory([]Powerup{
		{Kind: PowerupAddTime, RemainingUses: 2},
		{Kind: PowerupAddTime, RemainingUses: 9},
		{Kind: "bogus", RemainingUses: 1},
		{Kind: PowerupRevealLetter, RemainingUses: -3},
	})
	if len(inv) != 2 {
		t.Fatalf("len %d, want 2", len(inv))
	}
	if inv[0].RemainingUses != 2 {
		t.Errorf("add_time uses %d, want 2", inv[0].RemainingUses)
	}
	if inv[1].RemainingUses != 0 {
		t.Errorf("reveal uses %d, want 0", inv[1].RemainingUses)
	}
}

func TestSnapshot_DoesNotAlias(t *testing.T) {
	e := startedEngine(t, "", nil)
	snap := e.Snapshot()
	snap.Inventory[0].RemainingUses = 99
	snap.CurrentWord.Text = "mutated"
	if e.Inventory()[0].RemainingUses != 5 {
		t.Error("snapshot inventory aliases engine state")
	}
	if e.Session().CurrentWord.Text != "apple" {
		t.Error("snapshot word aliases engine state")
	}
}
