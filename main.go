package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/wordeo/wordeo/apps/go-server/assets"
	"github.com/wordeo/wordeo/apps/go-server/internal/auth"
	"github.com/wordeo/wordeo/apps/go-server/internal/daily"
	"github.com/wordeo/wordeo/apps/go-server/internal/database"
	"github.com/wordeo/wordeo/apps/go-server/internal/httpserver"
	"github.com/wordeo/wordeo/apps/go-server/internal/scores"
	"github.com/wordeo/wordeo/apps/go-server/internal/store"
	"github.com/wordeo/wordeo/apps/go-server/internal/words"
)

const releaseVersion = "0.1.0"

func main() {
	_ = godotenv.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := &Config{}
	cobra.CheckErr(newCmd(cfg).ExecuteContext(ctx))
}

func setupLogging(cfg *Config) {
	if lvl, err := zerolog.ParseLevel(cfg.logLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if !cfg.production {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

// run wires storage, services and the HTTP server, and serves until ctx is done.
func run(ctx context.Context, cfg *Config) error {
	setupLogging(cfg)

	db, err := database.OpenMigrated(cfg.dbPath, assets.Migrations())
	if err != nil {
		return err
	}
	defer db.Close()

	catalog, err := words.LoadCatalog(cfg.wordsFile)
	if err != nil {
		return err
	}
	repo := words.NewRepo(db)
	if _, err := repo.SeedIfEmpty(ctx, catalog); err != nil {
		return err
	}

	games := store.NewMemoryStore()
	scoreStore := scores.NewStore(db)
	reporter := scores.NewReporter(scoreStore, cfg.reportTimeout)

	srv := httpserver.New(httpserver.Deps{
		Store:    games,
		Words:    repo,
		Scores:   scoreStore,
		Reporter: reporter,
		Daily:    daily.NewStore(db),
		Auth: auth.NewService(db, auth.Config{
			Secret:     cfg.jwtSecret,
			Expiry:     cfg.jwtExpiry,
			CookieName: cfg.cookieName,
			Secure:     cfg.production,
		}),
		Rules:          cfg.rules(),
		DailySalt:      cfg.dailySalt,
		ClientOrigin:   cfg.clientOrigin,
		Secure:         cfg.production,
		RateRPS:        cfg.rateRPS,
		RateBurst:      cfg.rateBurst,
		RequestTimeout: cfg.requestTimeout,
	})

	go store.RunSweeper(ctx, games, cfg.sessionTTL, time.Minute)
	go srv.RunLimiterSweeper(ctx, 10*time.Minute, time.Minute)

	hs := &http.Server{
		Addr:              net.JoinHostPort(cfg.bind, strconv.Itoa(cfg.port)),
		Handler:           srv.Handler(),
		IdleTimeout:       10 * time.Minute,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		log.Info().Str("addr", hs.Addr).Str("version", releaseVersion).Msg("starting go-server")
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = hs.Shutdown(shutdownCtx)
	games.Sweep(shutdownCtx, time.Now().Add(time.Hour))
	if err := reporter.Wait(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("pending scores dropped")
	}
	return nil
}
