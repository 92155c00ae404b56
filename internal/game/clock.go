package game

import "time"

// RoundClock counts one round's budget down against caller-supplied instants.
// It settles at most once per Start.
type RoundClock struct {
	started time.Time
	budget  time.Duration
	settled bool
}

// Start arms the clock with budgetSeconds beginning at at.
func (c *RoundClock) Start(budgetSeconds int, at time.Time) {
	c.started = at
	c.budget = time.Duration(budgetSeconds) * time.Second
	c.settled = false
}

// Running reports whether the clock was started and has not settled.
func (c *RoundClock) Running() bool {
	return !c.started.IsZero() && !c.settled
}

// AddTime extends the running round by d.
func (c *RoundClock) AddTime(d time.Duration) {
	if c.Running() {
		c.budget += d
	}
}

// Deadline returns the instant the round expires.
func (c *RoundClock) Deadline() time.Time {
	return c.started.Add(c.budget)
}

// Remaining returns the time left at at, never negative.
func (c *RoundClock) Remaining(at time.Time) time.Duration {
	if c.started.IsZero() {
		return 0
	}
	left := c.Deadline().Sub(at)
	if left < 0 {
		return 0
	}
	return left
}

// Expired reports whether the running round ran out of time at at.
func (c *RoundClock) Expired(at time.Time) bool {
	return c.Running() && !at.Before(c.Deadline())
}

// Settle stops the clock and returns the score delta for the round.
// ok is false if the round was already settled or never started.
func (c *RoundClock) Settle(at time.Time, incorrect int, rules Rules) (delta int, ok bool) {
	if !c.Running() {
		return 0, false
	}
	c.settled = true
	return rules.ScoreDelta(c.Remaining(at), incorrect), true
}

// Stop discards the running round without settling it.
func (c *RoundClock) Stop() {
	c.settled = true
}
