package game

import "time"

// Rules holds the tunable constants of a session.
type Rules struct {
	BaseTime                 int       // seconds every round gets
	DifficultyMultiplier     int       // extra seconds per difficulty point
	TimePenalty              int       // seconds deducted from the score per wrong letter
	PointsPerSecond          int       // score per remaining second
	AddTimeSeconds           int       // seconds granted by the add_time powerup
	DefaultRounds            int       // round count when none is requested
	StartingPowerups         []Powerup // inventory at session start
	RestorePowerupsOnRestart bool      // restart refills RemainingUses
	PowerupPrice             int       // coins for one extra powerup use
}

// DefaultRules returns the stock game constants.
func DefaultRules() Rules {
	return Rules{
		BaseTime:             10,
		DifficultyMultiplier: 5,
		TimePenalty:          2,
		PointsPerSecond:      10,
		AddTimeSeconds:       10,
		DefaultRounds:        10,
		PowerupPrice:         25,
		StartingPowerups: []Powerup{
			{Kind: PowerupAddTime, RemainingUses: 5},
			{Kind: PowerupRevealLetter, RemainingUses: 1},
		},
	}
}

// RoundBudget returns the number of seconds allotted to a round on w.
func (r Rules) RoundBudget(w Word) int {
	return r.BaseTime + w.Difficulty*r.DifficultyMultiplier
}

// ScoreDelta computes the score earned for a round that settled with the given
// remaining time. Each wrong letter removes TimePenalty seconds; the result
// never drops below zero.
func (r Rules) ScoreDelta(remaining time.Duration, incorrect int) int {
	if remaining < 0 {
		remaining = 0
	}
	secs := int(remaining/time.Second) - incorrect*r.TimePenalty
	if secs < 0 {
		return 0
	}
	return secs * r.PointsPerSecond
}
