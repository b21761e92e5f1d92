package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/pc-discussion-scheduler/api/swagger"
	"github.com/noah-isme/pc-discussion-scheduler/internal/handler"
	internalmiddleware "github.com/noah-isme/pc-discussion-scheduler/internal/middleware"
	"github.com/noah-isme/pc-discussion-scheduler/internal/repository"
	"github.com/noah-isme/pc-discussion-scheduler/internal/service"
	"github.com/noah-isme/pc-discussion-scheduler/pkg/cache"
	"github.com/noah-isme/pc-discussion-scheduler/pkg/config"
	"github.com/noah-isme/pc-discussion-scheduler/pkg/database"
	"github.com/noah-isme/pc-discussion-scheduler/pkg/jobs"
	"github.com/noah-isme/pc-discussion-scheduler/pkg/logger"
	corsmiddleware "github.com/noah-isme/pc-discussion-scheduler/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/pc-discussion-scheduler/pkg/middleware/requestid"
	"github.com/noah-isme/pc-discussion-scheduler/pkg/storage"
)

// @title PC Discussion Scheduler API
// @version 1.0.0
// @description Allocates PC meeting papers to discussion windows from reviewer availability.
// @BasePath /
// @schemes http

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	validate := validator.New()
	metricsSvc := service.NewMetricsService()
	checks := map[string]handler.Pinger{}

	var (
		runRepo       *repository.ScheduleRunRepository
		placementRepo *repository.SchedulePlacementRepository
		db            *sqlx.DB
	)
	if cfg.Persistence.Enabled {
		db, err = database.NewPostgres(cfg.Database)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect database", "error", err)
		}
		defer db.Close() //nolint:errcheck
		runRepo = repository.NewScheduleRunRepository(db)
		placementRepo = repository.NewSchedulePlacementRepository(db)
		checks["postgres"] = db.PingContext
	}

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, cache disabled", "error", err)
		} else {
			defer client.Close() //nolint:errcheck
			cacheRepo = repository.NewCacheRepository(client, cfg.Redis.KeyPrefix, logr)
			checks["redis"] = func(ctx context.Context) error { return pingRedis(ctx, client) }
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, cacheRepo != nil)

	fileStorage, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare export storage", "dir", cfg.Exports.StorageDir, "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exportSvc := service.NewExportService(fileStorage, signer, metricsSvc, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.SignedURLTTL,
	}, logr)

	scheduleCfg := service.ScheduleServiceConfig{
		SlotCount:       cfg.Scheduler.SlotCount,
		Capacity:        cfg.Scheduler.Capacity,
		ThresholdFloor:  cfg.Scheduler.ThresholdFloor,
		DeriveFloor:     cfg.Scheduler.DeriveFloor,
		EnforceCapacity: cfg.Scheduler.EnforceCapacity,
		MaxPapers:       cfg.Scheduler.MaxPapersPerRun,
		MaxReviewers:    cfg.Scheduler.MaxReviewerCount,
		CacheTTL:        cfg.Cache.TTL,
	}
	var scheduleSvc *service.ScheduleService
	if db != nil {
		scheduleSvc = service.NewScheduleService(runRepo, placementRepo, db, cacheSvc, metricsSvc, exportSvc, validate, logr, scheduleCfg)
	} else {
		scheduleSvc = service.NewScheduleService(nil, nil, nil, cacheSvc, metricsSvc, exportSvc, validate, logr, scheduleCfg)
	}

	jobStore := service.NewMemoryExportJobStore()
	worker := service.NewExportWorker(jobStore, scheduleSvc, exportSvc, cfg.Exports.WorkerRetries, logr)
	queue := jobs.NewQueue("schedule-exports", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		Logger:     logr,
	})
	queue.Start(ctx)
	defer queue.Stop()

	exportJobSvc := service.NewExportJobService(jobStore, scheduleSvc, queue, exportSvc, validate, logr, service.ExportJobServiceConfig{
		ResultTTL:       cfg.Exports.SignedURLTTL,
		CleanupInterval: cfg.Exports.CleanupInterval,
	})
	exportJobSvc.StartCleanup(ctx)

	var guard gin.HandlerFunc
	if cfg.JWT.Enabled {
		authSvc := service.NewAuthService(logr, service.AuthConfig{
			AccessTokenSecret: cfg.JWT.Secret,
			AccessTokenExpiry: cfg.JWT.Expiration,
			Issuer:            cfg.JWT.Issuer,
		})
		guard = internalmiddleware.JWT(authSvc)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	handler.Routes{
		Schedules: handler.NewScheduleHandler(scheduleSvc),
		Exports:   handler.NewExportHandler(exportJobSvc),
		Metrics:   handler.NewMetricsHandler(metricsSvc, checks),
	}.Register(r, cfg.APIPrefix, guard)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting",
			"addr", srv.Addr,
			"env", cfg.Env,
			"persistence", cfg.Persistence.Enabled,
			"cache", cacheRepo != nil,
			"auth", cfg.JWT.Enabled,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down",
		zap.String("addr", srv.Addr),
		zap.String("queue", queue.Name()),
		zap.Int("pending_exports", queue.Pending()),
	)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("graceful shutdown failed", "error", err)
	}
}

func pingRedis(ctx context.Context, client *redis.Client) error {
	return client.Ping(ctx).Err()
}
