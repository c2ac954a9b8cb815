// cmd/portal/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"combinator-portal/internal/api"
	"combinator-portal/internal/common/config"
	"combinator-portal/internal/common/httpclient"
	"combinator-portal/internal/common/logger"
	"combinator-portal/internal/common/observability"
	"combinator-portal/internal/review"
	"combinator-portal/internal/session"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func buildPersistence(cfg *config.Config, zapLog *zap.Logger) (session.Persistence, func()) {
	switch cfg.Session.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Session.Redis.Address,
			Password: cfg.Session.Redis.Password,
			DB:       cfg.Session.Redis.DB,
		})
		err := retryWithBackoff(func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return client.Ping(ctx).Err()
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		zapLog.Info("Redis connected successfully")
		return session.NewRedisStore(client, cfg.Session.Redis.KeyPrefix), func() { client.Close() }

	default:
		fs, err := session.NewFileStore(cfg.Session.StateDir)
		if err != nil {
			zapLog.Fatal("state dir unavailable", zap.Error(err))
		}
		return fs, func() {}
	}
}

func main() {
	zapLog := logger.New("info", "console")
	defer func() { _ = zapLog.Sync() }()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting portal...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog = logger.New(cfg.Logging.Level, cfg.Logging.Format)
	log = logger.NewZapAdapter(zapLog)

	obs := observability.New("portal")
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	persistence, closePersistence := buildPersistence(cfg, zapLog)
	defer closePersistence()

	sessions := session.NewStore(persistence, log)
	httpClient := httpclient.New(cfg.API.BaseURL, cfg.API.Timeout, sessions, log)
	apiClient := api.NewClient(httpClient, log)
	sessions.UseAuth(apiClient)

	if err := sessions.Restore(ctx); err != nil {
		zapLog.Fatal("session restore failed", zap.Error(err))
	}

	if current := sessions.Current(); current == nil || !current.Admin() {
		if cfg.Review.AdminEmail == "" {
			zapLog.Fatal("no admin session and no admin credentials configured")
		}
		err := retryWithBackoff(func() error {
			loginCtx, cancel := context.WithTimeout(ctx, cfg.API.Timeout)
			defer cancel()
			return sessions.Login(loginCtx, cfg.Review.AdminEmail, cfg.Review.AdminPass)
		}, 5, 2*time.Second, zapLog, "Admin login")
		if err != nil {
			zapLog.Fatal("admin login failed after retries", zap.Error(err))
		}
	}
	zapLog.Info("Admin session established")

	workspace := review.NewWorkspace(apiClient, sessions, cfg.Review.Concurrency, log)

	// --- Health/Metrics server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Metrics.Address))
		if err := http.ListenAndServe(cfg.Metrics.Address, nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Review sweep loop ---
	zapLog.Info("Review sweep loop starting", zap.Duration("interval", cfg.Review.SweepInterval))
	ticker := time.NewTicker(cfg.Review.SweepInterval)
	defer ticker.Stop()

	runSweep := func() {
		start := time.Now()
		outcome := "success"
		if err := workspace.Refresh(ctx); err != nil {
			outcome = "failure"
			log.WithError(err).Error("review sweep failed", nil)
		} else {
			counts := workspace.StatusCounts()
			log.Info("review sweep completed", map[string]interface{}{
				"under_review":   counts["under_review"],
				"approved":       counts["approved"],
				"rejected":       counts["rejected"],
				"info_requested": counts["info_requested"],
			})
		}
		obs.RecordSweep(ctx, outcome)
		obs.RecordSweepDuration(ctx, time.Since(start), outcome)
	}

	runSweep()
	for {
		select {
		case <-ctx.Done():
			zapLog.Info("Shutdown signal received, stopping portal...")
			zapLog.Info("Portal stopped gracefully")
			return
		case <-ticker.C:
			runSweep()
		}
	}
}
