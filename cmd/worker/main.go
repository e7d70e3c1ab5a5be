package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"qrattend/internal/attendance"
	"qrattend/internal/config"
	"qrattend/internal/feed"
	"qrattend/internal/identity"
	"qrattend/internal/observability"
	"qrattend/internal/queue"
	"qrattend/internal/store"
)

// Worker consumes redeemed-claim messages, enriches them with directory
// profiles for the recent-scans feed, and periodically reaps expired
// sessions past the retention window.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := observability.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("db connect failed", zap.Error(err))
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "")
	}

	repo := attendance.NewRepository(db.Client)
	scanFeed := feed.New(redisClient.Client, "")
	directory := identity.New(cfg.IdentityURL, cfg.IdentitySkip)

	if !cfg.IdentitySkip {
		if err := directory.Health(ctx); err != nil {
			logger.Warn("identity service not available, profiles will degrade to bare ids", zap.Error(err))
		}
	}

	go runReaper(ctx, logger, repo, cfg.Retention, cfg.ReaperInterval)

	messages, err := q.Consume(ctx)
	if err != nil {
		logger.Fatal("queue consume init failed", zap.Error(err))
	}

	logger.Info("worker started, waiting for messages")
	for msg := range messages {
		if msg.Type != "claim" {
			continue
		}

		claim, err := repo.ClaimByID(ctx, msg.Body)
		if err != nil {
			logger.Warn("fetch claim failed", zap.String("claim_id", msg.Body), zap.Error(err))
			continue
		}

		profile, err := directory.Lookup(ctx, claim.SubjectID)
		if err != nil {
			logger.Warn("identity lookup failed", zap.String("subject_id", claim.SubjectID), zap.Error(err))
		}

		entry := feed.Entry{
			ClaimID:         claim.ID,
			SubjectID:       claim.SubjectID,
			SubjectName:     profile.Name,
			AdmissionNumber: profile.AdmissionNumber,
			UnitCode:        claim.UnitCode,
			UnitName:        claim.UnitName,
			IssuerID:        claim.IssuerID,
			Location:        claim.Location,
			Status:          claim.Status,
			ScannedAt:       claim.ScannedAt,
		}
		if err := scanFeed.Push(ctx, entry); err != nil {
			logger.Warn("feed push failed", zap.String("claim_id", claim.ID), zap.Error(err))
			continue
		}
		logger.Debug("claim processed", zap.String("claim_id", claim.ID), zap.String("unit", claim.UnitCode))
	}

	logger.Info("worker stopped")
}

// runReaper physically deletes sessions whose expiry is older than the
// retention window. Pure cleanup: validity is always checked at read time,
// so correctness never depends on this loop running.
func runReaper(ctx context.Context, logger *zap.Logger, repo *attendance.Repository, retention, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-retention)
			n, err := repo.DeleteExpiredSessions(ctx, cutoff)
			if err != nil {
				logger.Warn("reaper sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				observability.SessionsReaped.Add(float64(n))
				logger.Info("reaped expired sessions", zap.Int64("count", n))
			}
		}
	}
}
