// sweeper removes expired refresh tokens on an interval. Rotation and logout
// already delete rows eagerly; the sweeper reclaims tokens that simply aged
// out without ever being redeemed again.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"identity-service/internal/config"
	"identity-service/internal/db"
	tokenrepo "identity-service/internal/token/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	tokens := tokenrepo.NewPostgresRepository(conn)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		logger.Info("sweeper: shutting down")
		cancel()
	}()

	interval := cfg.SweepEvery()
	logger.Info("sweeper: started", "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sweep(ctx, tokens, logger)
	for {
		select {
		case <-ctx.Done():
			logger.Info("sweeper: stopped")
			return
		case <-ticker.C:
			sweep(ctx, tokens, logger)
		}
	}
}

func sweep(ctx context.Context, tokens *tokenrepo.PostgresRepository, logger *slog.Logger) {
	sweepCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	n, err := tokens.DeleteExpiredBefore(sweepCtx, time.Now().UTC())
	if err != nil {
		logger.Error("sweeper: delete expired", "error", err)
		return
	}
	if n > 0 {
		logger.Info("sweeper: removed expired refresh tokens", "count", n)
	}
}
