package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/cleanquest/cleanquest/internal/backup"
	"github.com/cleanquest/cleanquest/internal/database"
	"github.com/cleanquest/cleanquest/internal/email"
	"github.com/cleanquest/cleanquest/internal/logging"
	"github.com/cleanquest/cleanquest/internal/server"
)

func main() {
	// Missing .env is fine; real deployments use environment variables.
	_ = godotenv.Load()

	logger := logging.Setup(envOr("CLEANQUEST_LOG_LEVEL", "info"), envOr("CLEANQUEST_LOG_FORMAT", "text"))

	port := envOr("CLEANQUEST_PORT", "8080")
	dbPath := envOr("CLEANQUEST_DB_PATH", "cleanquest.db")

	db, err := database.Open(dbPath)
	if err != nil {
		logger.Error("open database", "path", dbPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	emailClient := email.NewClient(
		os.Getenv("CLEANQUEST_POSTMARK_TOKEN"),
		envOr("CLEANQUEST_FROM_EMAIL", "noreply@cleanquest.app"),
	)
	if !emailClient.Configured() {
		logger.Warn("postmark token not set, password reset emails disabled")
	}

	backupCfg := backup.Config{
		DBPath: dbPath,
		S3: backup.S3Config{
			Endpoint:  os.Getenv("CLEANQUEST_S3_ENDPOINT"),
			Bucket:    os.Getenv("CLEANQUEST_S3_BUCKET"),
			Region:    envOr("CLEANQUEST_S3_REGION", "us-east-1"),
			AccessKey: os.Getenv("CLEANQUEST_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("CLEANQUEST_S3_SECRET_KEY"),
		},
	}

	pushCfg := server.PushConfig{
		VAPIDPublicKey:  os.Getenv("CLEANQUEST_VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("CLEANQUEST_VAPID_PRIVATE_KEY"),
	}
	if pushCfg.VAPIDPublicKey == "" || pushCfg.VAPIDPrivateKey == "" {
		logger.Warn("VAPID keys not set, push notifications disabled")
	}

	srv := server.New(db, emailClient, backupCfg, pushCfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv.BackupManager().Start(ctx)
	defer srv.BackupManager().Stop()
	if sched := srv.PushScheduler(); sched != nil {
		sched.Start(ctx)
		defer sched.Stop()
	}
	go cleanupLoop(ctx, srv, logger)

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("cleanquest listening", "port", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

// cleanupLoop purges expired sessions, stale reset codes, and idle rate
// limiter buckets once an hour.
func cleanupLoop(ctx context.Context, srv *server.Server, logger *slog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := srv.SessionStore().DeleteExpired(); err != nil {
				logger.Error("cleanup sessions", "error", err)
			} else if n > 0 {
				logger.Debug("expired sessions removed", "count", n)
			}
			if n, err := srv.ResetCodeStore().DeleteExpired(); err != nil {
				logger.Error("cleanup reset codes", "error", err)
			} else if n > 0 {
				logger.Debug("stale reset codes removed", "count", n)
			}
			srv.RateLimiter().Cleanup()
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
