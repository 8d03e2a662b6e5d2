// schedworker runs a single dispatcher loop: resume, admit, coalesce,
// execute, archive. It takes no flags; all configuration is
// environment-driven.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cauldronio/poolsched/config"
	"github.com/cauldronio/poolsched/internal/email"
	"github.com/cauldronio/poolsched/internal/health"
	"github.com/cauldronio/poolsched/internal/infrastructure/postgres"
	"github.com/cauldronio/poolsched/internal/kind"
	ctxlog "github.com/cauldronio/poolsched/internal/log"
	"github.com/cauldronio/poolsched/internal/metrics"
	"github.com/cauldronio/poolsched/internal/scheduler"
	"github.com/cauldronio/poolsched/internal/taskrunner"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()
	logger.Info("db connected")

	hostname, err := os.Hostname()
	if err != nil {
		hostname = fmt.Sprintf("schedworker-%d", os.Getpid())
	}

	workerRepo := postgres.NewWorkerRepository(pool)
	worker, err := workerRepo.Create(ctx, hostname)
	if err != nil {
		stop()
		log.Fatalf("register worker: %v", err)
	}
	logger = logger.With("worker_id", worker.ID)
	logger.Info("worker registered", "hostname", worker.Hostname)

	intentionRepo := postgres.NewIntentionRepository(pool)
	jobRepo := postgres.NewJobRepository(pool)
	tokenRepo := postgres.NewTokenRepository(pool)
	repoRepo := postgres.NewRepoRepository(pool)
	scheduledRepo := postgres.NewScheduledIntentionRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	emailSender := email.NewSender(cfg.Env, cfg.ResendAPIKey, cfg.ResendFrom, logger)

	runner := &taskrunner.ExecRunner{
		BinaryFor:        taskrunner.BinaryName,
		CloneRoot:        cfg.GitCloneRoot,
		ElasticsearchURL: cfg.ElasticsearchURL,
		LogDir:           cfg.LogDir,
		Timeout:          30 * time.Minute,
	}

	kinds := kind.NewRegistry(kind.Deps{
		Intentions: intentionRepo,
		Jobs:       jobRepo,
		Tokens:     tokenRepo,
		Repos:      repoRepo,
		Runner:     runner,
	})

	periodic := scheduler.NewPeriodic(scheduledRepo, intentionRepo, kinds, logger)

	dispatchCfg := scheduler.DefaultConfig()
	dispatchCfg.TickInterval = time.Duration(cfg.DispatchIntervalSec) * time.Second
	dispatchCfg.MaxUsers = cfg.MaxUsersPerTick
	dispatchCfg.MaxIntentions = cfg.MaxIntentionsPerUser
	dispatchCfg.ClaimedJobsFactor = cfg.ClaimedJobsFactor
	dispatchCfg.LeaseTTL = time.Duration(cfg.LeaseTTLSec) * time.Second

	dispatcher := scheduler.NewDispatcher(worker.ID, kinds, intentionRepo, jobRepo, workerRepo, userRepo, periodic, dispatchCfg, logger, emailSender)
	go dispatcher.Run(ctx)

	reaper := scheduler.NewReaper(jobRepo, time.Duration(cfg.ReaperIntervalSec)*time.Second, logger)
	go reaper.Start(ctx)

	metrics.Register()
	checker := health.NewChecker(pool, logger, prometheus.DefaultRegisterer)
	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)
	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down")

	if err := workerRepo.MarkDown(context.Background(), worker.ID); err != nil {
		logger.Error("mark worker down", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}

	logger.Info("schedworker shut down")
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
