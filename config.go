package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/wordeo/wordeo/apps/go-server/internal/game"
)

type Config struct {
	bind           string
	port           int
	dbPath         string
	logLevel       string
	production     bool
	clientOrigin   string
	wordsFile      string
	dailySalt      string
	jwtSecret      string
	jwtExpiry      time.Duration
	cookieName     string
	sessionTTL     time.Duration
	requestTimeout time.Duration
	reportTimeout  time.Duration
	rateRPS        float64
	rateBurst      int

	baseTime             int
	difficultyMultiplier int
	timePenalty          int
	pointsPerSecond      int
	addTimeSeconds       int
	defaultRounds        int
	startAddTime         int
	startRevealLetter    int
	restorePowerups      bool
	powerupPrice         int
}

func (c *Config) validate() error {
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.production && c.jwtSecret == "" {
		return errors.New("--jwt-secret is required in production")
	}
	if c.production && c.dailySalt == "local_dev_salt" {
		return errors.New("--daily-salt must be changed in production")
	}
	if c.defaultRounds < 1 {
		return fmt.Errorf("invalid default rounds: %d", c.defaultRounds)
	}
	if c.baseTime < 0 || c.difficultyMultiplier < 0 || c.timePenalty < 0 || c.pointsPerSecond < 0 || c.addTimeSeconds < 0 || c.powerupPrice < 0 {
		return errors.New("game timing and scoring values must not be negative")
	}
	return nil
}

// rules maps the flag values onto the game rules.
func (c *Config) rules() game.Rules {
	return game.Rules{
		BaseTime:             c.baseTime,
		DifficultyMultiplier: c.difficultyMultiplier,
		TimePenalty:          c.timePenalty,
		PointsPerSecond:      c.pointsPerSecond,
		AddTimeSeconds:       c.addTimeSeconds,
		DefaultRounds:        c.defaultRounds,
		StartingPowerups: []game.Powerup{
			{Kind: game.PowerupAddTime, RemainingUses: c.startAddTime},
			{Kind: game.PowerupRevealLetter, RemainingUses: c.startRevealLetter},
		},
		RestorePowerupsOnRestart: c.restorePowerups,
		PowerupPrice:             c.powerupPrice,
	}
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("WORDEO")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:     "wordeo-server",
		Short:   "Timed word-guessing game server.",
		Args:    cobra.ExactArgs(0),
		Version: releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	def := game.DefaultRules()

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: WORDEO_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 5175, "port to listen on (env: WORDEO_PORT)")
	fs.StringVar(&cfg.dbPath, "db-path", "./data/wordeo.db", "sqlite database file (env: WORDEO_DB_PATH)")
	fs.StringVar(&cfg.logLevel, "log-level", "info", "zerolog level (env: WORDEO_LOG_LEVEL)")
	fs.BoolVar(&cfg.production, "production", false, "secure cookies and JSON logs (env: WORDEO_PRODUCTION)")
	fs.StringVar(&cfg.clientOrigin, "client-origin", "http://localhost:5173", "browser origin allowed by CORS (env: WORDEO_CLIENT_ORIGIN)")
	fs.StringVar(&cfg.wordsFile, "words-file", "", "JSON word catalog used to seed an empty database; embedded list when empty (env: WORDEO_WORDS_FILE)")
	fs.StringVar(&cfg.dailySalt, "daily-salt", "local_dev_salt", "secret mixed into the daily word order (env: WORDEO_DAILY_SALT)")
	fs.StringVar(&cfg.jwtSecret, "jwt-secret", "", "HS256 signing secret (env: WORDEO_JWT_SECRET)")
	fs.DurationVar(&cfg.jwtExpiry, "jwt-expiry", 14*24*time.Hour, "auth token lifetime (env: WORDEO_JWT_EXPIRY)")
	fs.StringVar(&cfg.cookieName, "cookie-name", "wordeo_token", "auth cookie name (env: WORDEO_COOKIE_NAME)")
	fs.DurationVar(&cfg.sessionTTL, "session-ttl", 30*time.Minute, "time before idle games are dropped (env: WORDEO_SESSION_TTL)")
	fs.DurationVar(&cfg.requestTimeout, "request-timeout", 10*time.Second, "handler timeout (env: WORDEO_REQUEST_TIMEOUT)")
	fs.DurationVar(&cfg.reportTimeout, "report-timeout", 5*time.Second, "timeout for recording a final score (env: WORDEO_REPORT_TIMEOUT)")
	fs.Float64Var(&cfg.rateRPS, "rate-rps", 10, "game requests per second per client IP (env: WORDEO_RATE_RPS)")
	fs.IntVar(&cfg.rateBurst, "rate-burst", 20, "burst size of the per-IP limiter (env: WORDEO_RATE_BURST)")

	fs.IntVar(&cfg.baseTime, "base-time", def.BaseTime, "seconds per round before difficulty (env: WORDEO_BASE_TIME)")
	fs.IntVar(&cfg.difficultyMultiplier, "difficulty-multiplier", def.DifficultyMultiplier, "extra seconds per difficulty point (env: WORDEO_DIFFICULTY_MULTIPLIER)")
	fs.IntVar(&cfg.timePenalty, "time-penalty", def.TimePenalty, "seconds deducted per wrong letter when scoring (env: WORDEO_TIME_PENALTY)")
	fs.IntVar(&cfg.pointsPerSecond, "points-per-second", def.PointsPerSecond, "points per remaining second (env: WORDEO_POINTS_PER_SECOND)")
	fs.IntVar(&cfg.addTimeSeconds, "add-time-seconds", def.AddTimeSeconds, "seconds granted by the add_time powerup (env: WORDEO_ADD_TIME_SECONDS)")
	fs.IntVar(&cfg.defaultRounds, "default-rounds", def.DefaultRounds, "rounds per game when the client does not ask (env: WORDEO_DEFAULT_ROUNDS)")
	fs.IntVar(&cfg.startAddTime, "start-add-time", 5, "starting add_time uses (env: WORDEO_START_ADD_TIME)")
	fs.IntVar(&cfg.startRevealLetter, "start-reveal-letter", 1, "starting reveal_letter uses (env: WORDEO_START_REVEAL_LETTER)")
	fs.BoolVar(&cfg.restorePowerups, "restore-powerups", def.RestorePowerupsOnRestart, "refill powerups when a game restarts (env: WORDEO_RESTORE_POWERUPS)")
	fs.IntVar(&cfg.powerupPrice, "powerup-price", def.PowerupPrice, "coins for one extra powerup use (env: WORDEO_POWERUP_PRICE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("wordeo-server v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
