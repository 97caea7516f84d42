package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"chatd/internal/config"
	"chatd/internal/httpserver"
	"chatd/internal/security"
	"chatd/internal/store/sqlite"
	"chatd/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("failed to load config")
	}

	var log zerolog.Logger
	if cfg.IsDevelopment() {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		log = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	db, err := sqlite.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	if err := sqlite.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	tokenSvc := security.NewTokenService(cfg.JWTSecret, time.Duration(cfg.TokenTTLDays)*24*time.Hour)
	passwordHasher := security.NewPasswordHasher(cfg.BcryptCost)

	// Presence registry lives for the whole process and is torn down on shutdown.
	registry := ws.NewRegistry(log)
	defer registry.Close()

	router := httpserver.NewRouter(cfg, db, registry, tokenSvc, passwordHasher, log)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr()).Str("env", cfg.Env).Msg("starting chatd server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
