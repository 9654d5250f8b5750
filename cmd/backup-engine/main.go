package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/drive-backup-api/api/swagger"
	"github.com/noah-isme/drive-backup-api/internal/gateway"
	"github.com/noah-isme/drive-backup-api/internal/handler"
	"github.com/noah-isme/drive-backup-api/internal/middleware"
	"github.com/noah-isme/drive-backup-api/internal/repository"
	"github.com/noah-isme/drive-backup-api/internal/service"
	"github.com/noah-isme/drive-backup-api/internal/store"
	"github.com/noah-isme/drive-backup-api/pkg/cache"
	"github.com/noah-isme/drive-backup-api/pkg/config"
	"github.com/noah-isme/drive-backup-api/pkg/database"
	"github.com/noah-isme/drive-backup-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/drive-backup-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/drive-backup-api/pkg/middleware/requestid"
	"github.com/noah-isme/drive-backup-api/pkg/storage"
)

// @title Drive Backup API
// @version 1.0.0
// @description Capacity-aware batch admission and pool rotation for suspended-user drive backups
// @BasePath /api/v1
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

	tabular, err := newTabularStore(cfg)
	if err != nil {
		logr.Sugar().Fatalw("tabular store init failed", "backend", cfg.Tabular.Backend, "error", err)
	}

	registry := repository.NewRegistryRepository(tabular, cfg.Tabular.RegistryID, cfg.Tabular.RegistrySheet, logr)
	batches := repository.NewBatchRepository(tabular, cfg.Tabular.RegistryID, repository.BatchSheets{
		Candidates: cfg.Tabular.CandidatesSheet,
		Oversized:  cfg.Tabular.OversizedSheet,
		Eligible:   cfg.Tabular.EligibleSheet,
	}, logr)

	proxy := gateway.NewClient(cfg.DriveProxy.BaseURL, cfg.DriveProxy.Timeout)
	inventory := gateway.NewInventoryClient(proxy)
	pools := gateway.NewPoolClient(proxy)
	backups := gateway.NewBackupClient(proxy)

	var probeCache *repository.ProbeCache
	if cfg.DriveProxy.ProbeCache {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, probe cache disabled", "error", err)
		} else {
			probeCache = repository.NewProbeCache(redisClient, cfg.DriveProxy.ProbeCacheTTL, logr)
		}
	}

	reportStorage, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("report storage init failed", "dir", cfg.Reports.StorageDir, "error", err)
	}

	metrics := service.NewMetricsService()
	estimator := service.NewEstimatorService(cfg.Engine.SecondsPerFile)
	planner := service.NewPlannerService(estimator, nil, logr)
	projector := service.NewProjectorService(inventory, probeCache,
		cfg.Engine.PoolItemLimit, cfg.Engine.PoolFolderLimit, logr)
	rotator := service.NewRotatorService(registry, pools,
		cfg.Engine.RotationThresholdPct, cfg.Engine.PoolBaseName, cfg.Engine.AdminGrantees, logr)

	notifier := gateway.NewWebhookNotifier(cfg.Alerts.WebhookURL, cfg.Alerts.Timeout)
	alerts := service.NewAlertService(notifier, cfg.Alerts, logr)
	alerts.Start(context.Background())
	defer alerts.Stop()

	reports := service.NewReportService(reportStorage, cfg.Reports.ResultTTL, logr)
	cycles := service.NewCycleService(cfg.Engine, registry, batches, planner,
		projector, rotator, backups, alerts, reports, metrics, logr)

	cycleHandler := handler.NewCycleHandler(cycles, reports)
	registryHandler := handler.NewRegistryHandler(cycles)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.Auth(cfg.Auth))
	{
		api.POST("/cycles", cycleHandler.Start)
		api.GET("/cycles/last", cycleHandler.Last)
		api.GET("/cycles/last/report", cycleHandler.LastReport)
		api.GET("/pools", registryHandler.Pools)
		api.GET("/projection", registryHandler.Projection)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env,
		"tabular_backend", cfg.Tabular.Backend, "pool_base", cfg.Engine.PoolBaseName)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func newTabularStore(cfg *config.Config) (store.Tabular, error) {
	switch cfg.Tabular.Backend {
	case config.TabularBackendPostgres:
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			return nil, err
		}
		return store.NewSQLStore(db), nil
	case config.TabularBackendMemory:
		return store.NewMemoryStore(), nil
	default:
		return store.NewFileStore(cfg.Tabular.Dir)
	}
}
