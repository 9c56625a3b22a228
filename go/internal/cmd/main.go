package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using environment")
	}

	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	config, err := loadConfig(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return err
	}

	var pool *pgxpool.Pool
	if !config.InMemory {
		pool, err = setupDatabase(ctx, config.Database)
		if err != nil {
			return err
		}
		defer pool.Close()
	} else {
		log.Info().Msg("running with in-memory stores")
	}

	services, err := setupServices(config, pool)
	if err != nil {
		return err
	}
	if services.Publisher != nil {
		defer services.Publisher.Close()
	}

	server := setupServer(config, services)

	errCh := make(chan error, 3)

	go func() {
		if err := services.Gateway.Start(ctx); err != nil {
			errCh <- err
		}
	}()
	go func() {
		errCh <- services.Scheduler.Run(ctx)
	}()
	go func() {
		log.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case runErr = <-errCh:
		log.Error().Err(runErr).Msg("component failed, shutting down")
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http server shutdown")
	}

	// Give the scheduler a moment to abandon the round and refund open bets.
	select {
	case err := <-errCh:
		if runErr == nil {
			runErr = err
		}
	case <-shutdownCtx.Done():
	}

	log.Info().Msg("shutdown complete")
	return runErr
}
