package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"

	"github.com/cosmoblog/cosmoblog/internal/auth"
	"github.com/cosmoblog/cosmoblog/internal/config"
	"github.com/cosmoblog/cosmoblog/internal/database"
	"github.com/cosmoblog/cosmoblog/internal/server"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("configuration invalid")
	}
	log := newLogger(cfg)

	var nrApp *newrelic.Application
	if cfg.Observability.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.Observability.AppName),
			newrelic.ConfigLicense(cfg.Observability.LicenseKey),
		)
		if err != nil {
			log.Fatal().Err(err).Msg("new relic init failed")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.RunMigrations(ctx, cfg.Database.URL); err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}

	// Fail fast: the listener never starts against a database that did not
	// reach ready within the bootstrap budget.
	var tracers []pgx.QueryTracer
	if nrApp != nil {
		tracers = append(tracers, database.NewRelicTracer())
	}
	db, err := database.Connect(ctx, cfg.Database, log, tracers...)
	if err != nil {
		log.Fatal().Err(err).Stringer("state", db.State()).Msg("database bootstrap failed")
	}
	defer db.Close()

	srv := server.New(cfg, server.Deps{
		DB:       db,
		Stores:   server.NewStores(db.Pool()),
		Verifier: auth.NewTokenVerifier(cfg.Auth.SessionSecret),
		App:      nrApp,
	}, log)

	log.Info().Str("port", cfg.Server.Port).Str("env", cfg.Primary.Env).Msg("server starting")
	if err := srv.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg.IsProduction() {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger().
		Level(zerolog.DebugLevel)
}
