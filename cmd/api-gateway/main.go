package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-score-engine/internal/handler"
	"github.com/noah-isme/sma-score-engine/internal/repository"
	"github.com/noah-isme/sma-score-engine/internal/service"
	"github.com/noah-isme/sma-score-engine/pkg/cache"
	"github.com/noah-isme/sma-score-engine/pkg/config"
	"github.com/noah-isme/sma-score-engine/pkg/database"
	"github.com/noah-isme/sma-score-engine/pkg/jobs"
	"github.com/noah-isme/sma-score-engine/pkg/logger"
)

// @title SMA Score Engine API
// @version 1.0.0
// @description Score entry, summary recompute, ranking and achievement bands.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, summary cache disabled", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	methodRepo := repository.NewEvaluationMethodRepository(db)
	scoreRepo := repository.NewScoreRepository(db)
	summaryRepo := repository.NewScoreSummaryRepository(db)
	classroomRepo := repository.NewClassroomRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Scoring.SummaryCacheTTL, logr.Named("cache"), redisClient != nil)
	summarySvc := service.NewSummaryService(classroomRepo, methodRepo, scoreRepo, summaryRepo, cacheSvc, metrics, validate, logr.Named("summaries"),
		service.SummaryServiceConfig{RecomputeTimeout: cfg.Scoring.RecomputeTimeout})
	scoreSvc := service.NewScoreService(scoreRepo, methodRepo, classroomRepo, summarySvc, metrics, validate, logr.Named("scores"),
		service.ScoreServiceConfig{MaxBulkItems: cfg.Scoring.MaxBulkItems})
	evaluationSvc := service.NewEvaluationService(methodRepo, validate, logr.Named("evaluations"))
	tokenSvc := service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})

	var queue *jobs.Queue
	if cfg.Notifications.Enabled {
		worker := service.NewNotificationWorker(summarySvc, service.NewLogNotifier(logr.Named("notifier")), metrics, logr.Named("notifications"))
		queue = jobs.NewQueue("summary-notifications", worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Notifications.Workers,
			BufferSize: cfg.Notifications.BufferSize,
			MaxRetries: cfg.Notifications.MaxRetries,
			RetryDelay: cfg.Notifications.RetryDelay,
			Logger:     logr,
		})
		queue.Start(context.Background())
		summarySvc.OnReplaced(service.NewNotificationService(queue, logr.Named("notifications")))
	}

	var exporter *service.ExportService
	if cfg.Exports.Enabled {
		exporter = service.NewExportService(summarySvc, service.ExportConfig{Title: cfg.Exports.Title}, logr.Named("exports"))
	}

	deps := map[string]handler.Pinger{"postgres": db}
	if redisClient != nil {
		deps["redis"] = cache.Pinger{Client: redisClient}
	}

	r := newRouter(cfg, logr, routeDeps{
		tokens:      tokenSvc,
		metrics:     metrics,
		evaluations: handler.NewEvaluationHandler(evaluationSvc),
		scores:      handler.NewScoreHandler(scoreSvc),
		summaries:   newSummaryHandler(summarySvc, exporter),
		health:      handler.NewMetricsHandler(metrics, deps),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	if queue != nil {
		if err := queue.Wait(shutdownCtx); err != nil {
			logr.Warn("notification queue not drained", zap.Int("pending", queue.Pending()), zap.Error(err))
		}
		queue.Stop()
	}
}

func newSummaryHandler(summaries *service.SummaryService, exporter *service.ExportService) *handler.SummaryHandler {
	if exporter == nil {
		return handler.NewSummaryHandler(summaries, nil)
	}
	return handler.NewSummaryHandler(summaries, exporter)
}
