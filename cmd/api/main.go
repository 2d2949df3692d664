package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fitarena/challenge-engine/internal/app"
	"github.com/fitarena/challenge-engine/internal/config"
	"github.com/fitarena/challenge-engine/internal/observability"
	"github.com/fitarena/challenge-engine/internal/platform/logging"
	"github.com/fitarena/challenge-engine/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.NewJSON(cfg.LogLevel)
	logging.SetDefault(logger)
	defer logger.Sync()

	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		logger.Error("init uptrace", "error", err)
		os.Exit(1)
	}

	stopProfiler, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		logger.Error("init pyroscope", "error", err)
		os.Exit(1)
	}

	pprofSrv, err := observability.StartPprofServer(cfg, logger)
	if err != nil {
		logger.Error("start pprof server", "error", err)
		os.Exit(1)
	}

	srv, services, err := app.NewHTTPServer(cfg, logger)
	if err != nil {
		logger.Error("build app", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go runLeaderboardScheduler(ctx, services.Refresh, cfg.LeaderboardRefreshInterval, logger)

	go func() {
		logger.Info("http server starting", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	if err := observability.StopPprofServer(pprofSrv, logger, 5*time.Second); err != nil {
		logger.Error("stop pprof server", "error", err)
	}
	if err := stopProfiler(); err != nil {
		logger.Error("stop profiler", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("shutdown tracing", "error", err)
	}

	logger.Info("http server stopped")
}

// runLeaderboardScheduler sweeps active challenges on a fixed interval so
// cached leaderboards stay warm even without inbound traffic. The internal
// refresh endpoint stays available for on-demand sweeps.
func runLeaderboardScheduler(ctx context.Context, refresh *usecase.LeaderboardRefreshService, interval time.Duration, logger *logging.Logger) {
	if interval <= 0 {
		logger.Info("leaderboard scheduler disabled", "reason", "non-positive interval")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("leaderboard scheduler started", "interval", interval.String())

	for {
		select {
		case <-ctx.Done():
			logger.Info("leaderboard scheduler stopped")
			return
		case <-ticker.C:
			result, err := refresh.Refresh(ctx, usecase.RefreshInput{})
			if err != nil {
				logger.ErrorContext(ctx, "leaderboard refresh sweep failed", "error", err)
				continue
			}
			logger.InfoContext(ctx, "leaderboard refresh sweep finished",
				"challenges", result.ChallengeCount,
				"succeeded", result.SuccessCount,
				"failed", result.FailedCount,
				"skipped", result.SkippedCount,
			)
		}
	}
}
