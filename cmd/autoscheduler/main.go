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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/camp-autoscheduler/api/swagger"
	"github.com/noah-isme/camp-autoscheduler/internal/handler"
	internalmiddleware "github.com/noah-isme/camp-autoscheduler/internal/middleware"
	"github.com/noah-isme/camp-autoscheduler/internal/models"
	"github.com/noah-isme/camp-autoscheduler/internal/repository"
	"github.com/noah-isme/camp-autoscheduler/internal/service"
	"github.com/noah-isme/camp-autoscheduler/pkg/broker"
	"github.com/noah-isme/camp-autoscheduler/pkg/cache"
	"github.com/noah-isme/camp-autoscheduler/pkg/config"
	"github.com/noah-isme/camp-autoscheduler/pkg/database"
	"github.com/noah-isme/camp-autoscheduler/pkg/jobs"
	"github.com/noah-isme/camp-autoscheduler/pkg/logger"
	corsmiddleware "github.com/noah-isme/camp-autoscheduler/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/camp-autoscheduler/pkg/middleware/requestid"
)

// @title Camp Autoscheduler API
// @version 1.0.0
// @description Computes, versions, compares and applies camp program schedules.
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

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(rootCtx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()
	metricsHandler := handler.NewMetricsHandler(metricsSvc).WithCheck("postgres", handler.PingFunc(db.PingContext))

	var diffCache *service.CacheService
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(rootCtx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, diff cache disabled", zap.Error(err))
		} else {
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			defer cacheRepo.Close() //nolint:errcheck
			diffCache = service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, true)
			metricsHandler.WithCheck("redis", cacheRepo)
		}
	}
	if diffCache == nil {
		diffCache = service.NewCacheService(nil, metricsSvc, cfg.Cache.TTL, logr, false)
	}

	publisher := broker.NewPublisher(cfg.Broker, logr)
	defer publisher.Close() //nolint:errcheck

	authSvc := service.NewAuthService(logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})

	autoScheduleSvc := service.NewAutoScheduleService(
		repository.NewAutoScheduleRepository(db),
		repository.NewProgramRepository(db),
		repository.NewEventSlotRepository(db),
		db,
		diffCache,
		publisher,
		metricsSvc,
		validator.New(),
		logr,
		service.AutoScheduleConfig{
			TimeslotMinutes: cfg.Scheduler.TimeslotMinutes,
			SolverTimeout:   cfg.Scheduler.SolverTimeout,
			NodeLimit:       cfg.Scheduler.NodeLimit,
			GreedyAbove:     cfg.Scheduler.GreedyAbove,
			DiffCacheTTL:    cfg.Cache.TTL,
		},
	)

	maxRetries := cfg.Scheduler.MaxRetries
	if maxRetries == 0 {
		maxRetries = -1
	}
	calcQueue := jobs.NewQueue("autoschedule", autoScheduleSvc.HandleJob, jobs.QueueConfig{
		Workers:    cfg.Scheduler.Workers,
		BufferSize: cfg.Scheduler.QueueSize,
		MaxRetries: maxRetries,
		JobTimeout: 2 * cfg.Scheduler.SolverTimeout,
		Logger:     logr,
	})
	autoScheduleSvc.AttachQueue(calcQueue)

	calcQueue.Start(rootCtx)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerAutoScheduleRoutes(r.Group(cfg.APIPrefix), authSvc, handler.NewAutoScheduleHandler(autoScheduleSvc))

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

	<-rootCtx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("server shutdown", zap.Error(err))
	}
	calcQueue.Stop()
}

func registerAutoScheduleRoutes(api *gin.RouterGroup, authSvc *service.AuthService, h *handler.AutoScheduleHandler) {
	secured := api.Group("")
	secured.Use(internalmiddleware.JWT(authSvc))
	secured.Use(internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleOrga))

	camps := secured.Group("/camps/:campId/autoschedule")
	camps.GET("", h.List)
	camps.POST("/calculate", h.Calculate)
	camps.POST("/recalculate", h.Recalculate)

	versions := secured.Group("/autoschedule")
	versions.GET("/:id", h.Get)
	versions.DELETE("/:id", h.Delete)
	versions.GET("/:id/diff/:otherId", h.Diff)
	versions.POST("/:id/apply", h.Apply)
	versions.GET("/:id/export", h.Export)
}
