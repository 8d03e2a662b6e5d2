// server exposes the external HTTP surface: magic-link
// sign-in, analyze_* intention creation, scheduled-intention creation,
// and the administrative archive listing. It never runs a dispatcher
// loop itself — see cmd/schedworker.
package main

import (
	"context"
	"errors"
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
	"github.com/cauldronio/poolsched/internal/taskrunner"
	httptransport "github.com/cauldronio/poolsched/internal/transport/http"
	"github.com/cauldronio/poolsched/internal/transport/http/handler"
	"github.com/cauldronio/poolsched/internal/usecase"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
)

// unreachableRunner satisfies taskrunner.TaskRunner for the API process,
// which only ever constructs intentions and never calls Kind.Run — that
// happens exclusively in a schedworker's dispatch loop.
type unreachableRunner struct{}

func (unreachableRunner) Run(_ context.Context, in taskrunner.Input) taskrunner.Result {
	return taskrunner.Result{Outcome: taskrunner.Failed, Err: errors.New("taskrunner invoked from the API process")}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	intentionRepo := postgres.NewIntentionRepository(pool)
	jobRepo := postgres.NewJobRepository(pool)
	tokenRepo := postgres.NewTokenRepository(pool)
	repoRepo := postgres.NewRepoRepository(pool)
	scheduledRepo := postgres.NewScheduledIntentionRepository(pool)

	kinds := kind.NewRegistry(kind.Deps{
		Intentions: intentionRepo,
		Jobs:       jobRepo,
		Tokens:     tokenRepo,
		Repos:      repoRepo,
		Runner:     unreachableRunner{},
	})

	intentionUsecase := usecase.NewIntentionUsecase(repoRepo, intentionRepo, tokenRepo, kinds)
	intentionHandler := handler.NewIntentionHandler(intentionUsecase, logger)

	scheduleUsecase := usecase.NewScheduledIntentionUsecase(scheduledRepo, kinds)
	scheduleHandler := handler.NewScheduleHandler(scheduleUsecase, logger)

	archiveUsecase := usecase.NewArchiveUsecase(intentionRepo)
	archiveHandler := handler.NewArchiveHandler(archiveUsecase, logger)

	// Auth
	userRepo := postgres.NewUserRepository(pool)
	emailSender := email.NewSender(cfg.Env, cfg.ResendAPIKey, cfg.ResendFrom, logger)
	authUsecase := usecase.NewAuthUsecase(userRepo, emailSender, []byte(cfg.JWTSecret), cfg.MagicLinkBase)
	authHandler := handler.NewAuthHandler(authUsecase, logger)

	metrics.Register()
	checker := health.NewChecker(pool, logger, prometheus.DefaultRegisterer)

	srv := http.Server{
		Addr: ":" + cfg.Port,
		Handler: httptransport.NewRouter(
			logger, intentionHandler, scheduleHandler, archiveHandler, authHandler,
			[]byte(cfg.JWTSecret),
		),
	}

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)

	go func() {
		logger.Info("server started", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
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
