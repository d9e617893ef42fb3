package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/exp/slog"

	"photobridge/internal/app/server/api"
	"photobridge/internal/app/server/config"
	"photobridge/internal/domain/session"
	"photobridge/internal/infrastructure/storage/postgres"
	"photobridge/internal/utils/logger"
)

const staleSweepInterval = time.Hour

func main() {
	cfg := config.MustLoad()
	log := logger.New(cfg.Env)

	storage, err := postgres.New(cfg)
	if err != nil {
		log.Error("storage init failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer storage.Close()

	mux, sessions, err := api.New(storage, cfg, log)
	if err != nil {
		log.Error("api init failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go sweepStaleSessions(ctx, sessions, cfg.Sessions.StaleAfter, log)

	server := &http.Server{
		Addr:    cfg.Server.RunAddress,
		Handler: mux,
	}

	go func() {
		log.Info("server starting", slog.String("address", cfg.Server.RunAddress))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", slog.String("error", err.Error()))
	}
}

// sweepStaleSessions periodically deletes sessions with no activity
// for the configured retention window, checkpoints included.
func sweepStaleSessions(ctx context.Context, sessions *session.Store, staleAfter time.Duration, log *slog.Logger) {
	ticker := time.NewTicker(staleSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().UTC().Add(-staleAfter)
			count, err := sessions.CleanupStaleSessions(ctx, cutoff)
			if err != nil {
				log.Error("stale session sweep failed", slog.String("error", err.Error()))
				continue
			}
			if count > 0 {
				log.Info("stale session sweep", slog.Int("deleted", count))
			}
		}
	}
}
