package game

import (
	"testing"
	"time"
)

func TestRoundClock_Countdown(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	var c RoundClock
	if c.Running() || c.Expired(t0) {
		t.Fatal("zero clock should be idle")
	}
	c.Start(15, t0)
	if got := c.Remaining(t0.Add(4 * time.Second)); got != 11*time.Second {
		t.Errorf("remaining %v, want 11s", got)
	}
	if c.Expired(t0.Add(14 * time.Second)) {
		t.Error("expired early")
	}
	if !c.Expired(t0.Add(15 * time.Second)) {
		t.Error("not expired at deadline")
	}
	if got := c.Remaining(t0.Add(time.Minute)); got != 0 {
		t.Errorf("remaining %v past deadline, want 0", got)
	}
}

func TestRoundClock_AddTime(t *testing.T) {
	t0 := time.Now()
	var c RoundClock
	c.Start(10, t0)
	c.AddTime(5 * time.Second)
	if c.Expired(t0.Add(12 * time.Second)) {
		t.Error("extra time not applied")
	}
	if got := c.Deadline(); !got.Equal(t0.Add(15 * time.Second)) {
		t.Errorf("deadline %v, want t0+15s", got)
	}
}

func TestRoundClock_SettleOnce(t *testing.T) {
	t0 := time.Now()
	rules := DefaultRules()
	var c RoundClock
	c.Start(20, t0)
	delta, ok := c.Settle(t0.Add(5*time.Second), 1, rules)
	if !ok {
		t.Fatal("first settle refused")
	}
	// 15s left, one wrong letter costs 2s, 10 points per second.
	if delta != 130 {
		t.Errorf("delta %d, want 130", delta)
	}
	if _, ok := c.Settle(t0.Add(6*time.Second), 0, rules); ok {
		t.Error("second settle accepted")
	}
	c.AddTime(time.Minute)
	if c.Deadline() != t0.Add(20*time.Second) {
		t.Error("settled clock accepted extra time")
	}
}

func TestRules_ScoreDelta(t *testing.T) {
	rules := DefaultRules()
	tests := []struct {
		name      string
		remaining time.Duration
		incorrect int
		want      int
	}{
		{"timed out", 0, 0, 0},
		{"full", 10 * time.Second, 0, 100},
		{"fraction floors", 9*time.Second + 900*time.Millisecond, 0, 90},
		{"penalty", 10 * time.Second, 3, 40},
		{"penalty floors at zero", 3 * time.Second, 5, 0},
		{"negative remaining", -time.Second, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rules.ScoreDelta(tt.remaining, tt.incorrect); got != tt.want {
				t.Errorf("ScoreDelta(%v, %d) = %d, want %d", tt.remaining, tt.incorrect, got, tt.want)
			}
		})
	}
}

func TestRules_RoundBudget(t *testing.T) {
	rules := DefaultRules()
	for diff, want := range map[int]int{0: 10, 1: 15, 4: 30} {
		if got := rules.RoundBudget(Word{Difficulty: diff}); got != want {
			t.Errorf("RoundBudget(difficulty %d) = %d, want %d", diff, got, want)
		}
	}
}
