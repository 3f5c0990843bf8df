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

	_ "github.com/noah-isme/sma-timetable-api/api/swagger"
	"github.com/noah-isme/sma-timetable-api/internal/handler"
	"github.com/noah-isme/sma-timetable-api/internal/repository"
	"github.com/noah-isme/sma-timetable-api/internal/router"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	"github.com/noah-isme/sma-timetable-api/pkg/cache"
	"github.com/noah-isme/sma-timetable-api/pkg/config"
	"github.com/noah-isme/sma-timetable-api/pkg/database"
	"github.com/noah-isme/sma-timetable-api/pkg/jobs"
	"github.com/noah-isme/sma-timetable-api/pkg/logger"
)

// @title SMA Timetable API
// @version 1.0.0
// @description Timetable solving for class academic years.
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
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.RunMigrations {
		if err := database.Migrate(ctx, db); err != nil {
			logr.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect redis", zap.Error(err))
	}
	defer redisClient.Close()

	metrics := service.NewMetricsService()
	validate := validator.New()

	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metrics, 5*time.Minute, logr, true)
	runRepo := repository.NewRunRepository(cacheRepo, cfg.Solver.RunTTL)

	slotSvc := service.NewScheduleSlotService(repository.NewScheduleSlotRepository(db), cacheSvc, 5*time.Minute, metrics, logr)
	prefRepo := repository.NewTeacherPreferenceRepository(db)
	prefSvc := service.NewTeacherPreferenceService(prefRepo, slotSvc, validate, logr)
	timetableSvc := service.NewTimetableService(
		slotSvc,
		repository.NewTeacherAssignmentRepository(db),
		prefRepo,
		metrics,
		validate,
		logr,
		service.TimetableConfig{DefaultTimeLimit: cfg.Solver.TimeLimit, MaxAssignments: cfg.Solver.MaxAssignments},
	)

	worker := service.NewRunWorker(runRepo, timetableSvc, metrics, cfg.Solver.WorkerRetries, logr)
	queue := jobs.NewQueue("timetable-runs", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Solver.Workers,
		BufferSize: cfg.Solver.QueueBuffer,
		MaxRetries: cfg.Solver.WorkerRetries,
		Logger:     logr,
		Observer:   metrics,
		OnDrop:     worker.MarkFailed,
	})
	queue.Start(ctx)
	defer queue.Stop()

	runSvc := service.NewRunService(runRepo, queue, timetableSvc, metrics, logr)
	authSvc := service.NewAuthService(service.AuthConfig{AccessTokenSecret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})

	r := router.New(router.Config{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableDocs:     cfg.Docs.Enabled && cfg.Env != config.EnvProduction,
	}, router.Handlers{
		Timetable:   handler.NewTimetableHandler(timetableSvc),
		Runs:        handler.NewRunHandler(runSvc),
		Slots:       handler.NewScheduleSlotHandler(slotSvc),
		Preferences: handler.NewTeacherPreferenceHandler(prefSvc),
		Metrics: handler.NewMetricsHandler(metrics, map[string]handler.ReadinessCheck{
			"database": db.PingContext,
			"cache":    cacheRepo.Ping,
		}),
		Auth:         authSvc,
		MetricsStore: metrics,
	}, logr)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
