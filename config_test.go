package main

import (
	"testing"

	"github.com/wordeo/wordeo/apps/go-server/internal/game"
)

func TestNewCmd_Defaults(t *testing.T) {
	cfg := &Config{}
	newCmd(cfg)
	if cfg.port != 5175 || cfg.defaultRounds != game.DefaultRules().DefaultRounds {
		t.Errorf("defaults port=%d rounds=%d", cfg.port, cfg.defaultRounds)
	}
	if err := cfg.validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestNewCmd_EnvOverrides(t *testing.T) {
	t.Setenv("WORDEO_PORT", "9000")
	t.Setenv("WORDEO_DEFAULT_ROUNDS", "3")
	t.Setenv("WORDEO_RESTORE_POWERUPS", "true")

	cfg := &Config{}
	newCmd(cfg)
	if cfg.port != 9000 || cfg.defaultRounds != 3 || !cfg.restorePowerups {
		t.Errorf("env not applied: port=%d rounds=%d restore=%v", cfg.port, cfg.defaultRounds, cfg.restorePowerups)
	}
}

func TestNewCmd_FlagsWin(t *testing.T) {
	t.Setenv("WORDEO_PORT", "9000")
	cfg := &Config{}
	cmd := newCmd(cfg)
	if err := cmd.ParseFlags([]string{"--port", "7000", "--start_add_time", "2"}); err != nil {
		t.Fatal(err)
	}
	if cfg.port != 7000 || cfg.startAddTime != 2 {
		t.Errorf("flags not applied: port=%d add_time=%d", cfg.port, cfg.startAddTime)
	}
}

func TestConfig_Validate(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		newCmd(cfg)
		return cfg
	}

	cfg := base()
	cfg.port = 0
	if cfg.validate() == nil {
		t.Error("port 0 accepted")
	}

	cfg = base()
	cfg.production = true
	if cfg.validate() == nil {
		t.Error("production without jwt secret accepted")
	}
	cfg.jwtSecret = "s"
	cfg.dailySalt = "prod-salt"
	if err := cfg.validate(); err != nil {
		t.Errorf("production config rejected: %v", err)
	}

	cfg = base()
	cfg.timePenalty = -1
	if cfg.validate() == nil {
		t.Error("negative penalty accepted")
	}
}

func TestConfig_Rules(t *testing.T) {
	cfg := &Config{}
	newCmd(cfg)
	cfg.startAddTime = 3
	r := cfg.rules()
	inv := game.NewInventory(r.StartingPowerups)
	if len(inv) != 2 || inv[0].Kind != game.PowerupAddTime || inv[0].RemainingUses != 3 || inv[1].RemainingUses != 1 {
		t.Errorf("inventory %+v", inv)
	}
	if r.BaseTime != 10 || r.DifficultyMultiplier != 5 {
		t.Errorf("rules %+v", r)
	}
}
