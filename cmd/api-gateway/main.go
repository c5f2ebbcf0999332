package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/jadwal-guru-api/api/swagger"
	"github.com/noah-isme/jadwal-guru-api/internal/handler"
	"github.com/noah-isme/jadwal-guru-api/internal/middleware"
	"github.com/noah-isme/jadwal-guru-api/internal/models"
	"github.com/noah-isme/jadwal-guru-api/internal/repository"
	"github.com/noah-isme/jadwal-guru-api/internal/service"
	"github.com/noah-isme/jadwal-guru-api/pkg/cache"
	"github.com/noah-isme/jadwal-guru-api/pkg/config"
	"github.com/noah-isme/jadwal-guru-api/pkg/database"
	"github.com/noah-isme/jadwal-guru-api/pkg/jobs"
	"github.com/noah-isme/jadwal-guru-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/jadwal-guru-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/jadwal-guru-api/pkg/middleware/requestid"
	"github.com/noah-isme/jadwal-guru-api/pkg/storage"
)

// @title Jadwal Guru API
// @version 1.0.0
// @description Teacher scheduling service with effective-schedule resolution
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// Resolution still works without Redis, every request just recomputes.
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	metricsSvc := service.NewMetricsService()

	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Resolution.CacheTTL, logr, cfg.Resolution.CacheEnabled && redisClient != nil)

	userRepo := repository.NewUserRepository(db)
	classRepo := repository.NewClassRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	dayOffRepo := repository.NewDayOffRepository(db)
	patternRepo := repository.NewPatternRepository(db)
	exceptionRepo := repository.NewExceptionRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "jadwal-guru-api",
		Audience:           []string{"jadwal-guru"},
	})
	classSvc := service.NewClassService(classRepo, scheduleRepo, cacheSvc, nil, logr)
	scheduleSvc := service.NewScheduleService(scheduleRepo, cacheSvc, nil, logr)
	dayOffSvc := service.NewDayOffService(dayOffRepo, userRepo, cacheSvc, nil, logr)
	patternSvc := service.NewPatternService(patternRepo, userRepo, cacheSvc, nil, logr)
	exceptionSvc := service.NewExceptionService(exceptionRepo, patternRepo, userRepo, cacheSvc, nil, logr)
	settingsSvc := service.NewSettingsService(settingsRepo, userRepo, cacheSvc, nil, logr)
	resolutionSvc := service.NewResolutionService(scheduleRepo, dayOffRepo, exceptionRepo, patternRepo, settingsRepo, nil, cacheSvc, metricsSvc, cfg.Resolution.CacheTTL, logr)
	exportSvc := service.NewExportService(resolutionSvc, classRepo, cfg.Export.Enabled, logr)

	exportStore, err := storage.NewLocalStorage(cfg.Export.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	signingSecret := cfg.Export.SigningSecret
	if signingSecret == "" {
		signingSecret = cfg.JWT.Secret
	}
	exportSigner := storage.NewSignedURLSigner(signingSecret, cfg.Export.ResultTTL)
	exportJobRepo := repository.NewExportJobRepository(db)
	downloadBasePath := cfg.APIPrefix + "/exports"
	exportWorker := service.NewExportJobWorker(exportJobRepo, exportSvc, exportStore, exportSigner, downloadBasePath, 3, logr)
	exportQueue := jobs.NewQueue("exports", exportWorker.Handle, jobs.QueueConfig{
		Workers: cfg.Export.Workers,
		Logger:  logr,
	})
	exportJobSvc := service.NewExportJobService(exportJobRepo, exportQueue, exportStore, exportSigner, nil, logr, service.ExportJobServiceConfig{
		DownloadBasePath: downloadBasePath,
		ResultTTL:        cfg.Export.ResultTTL,
		CleanupInterval:  time.Hour,
	})

	authHandler := handler.NewAuthHandler(authSvc)
	classHandler := handler.NewClassHandler(classSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	dayOffHandler := handler.NewDayOffHandler(dayOffSvc)
	patternHandler := handler.NewPatternHandler(patternSvc)
	exceptionHandler := handler.NewExceptionHandler(exceptionSvc)
	settingsHandler := handler.NewSettingsHandler(settingsSvc)
	resolutionHandler := handler.NewResolutionHandler(resolutionSvc, exportSvc)
	exportJobHandler := handler.NewExportJobHandler(exportJobSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	rootCtx, stopQueue := context.WithCancel(context.Background())
	exportQueue.Start(rootCtx)
	exportJobSvc.RecoverPendingJobs(rootCtx)
	exportJobSvc.StartCleanup(rootCtx)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	// Signed token in the path is the credential, no JWT required.
	api.GET("/exports/:token", exportJobHandler.Download)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)

		authed := auth.Group("", middleware.JWT(authSvc))
		authed.POST("/logout", authHandler.Logout)
		authed.POST("/change-password", authHandler.ChangePassword)
		authed.GET("/me", authHandler.Me)
	}

	protected := api.Group("", middleware.JWT(authSvc))
	{
		protected.GET("/classes", classHandler.List)
		protected.POST("/classes", classHandler.Create)
		protected.GET("/classes/:id", classHandler.Get)
		protected.PUT("/classes/:id", classHandler.Update)
		protected.DELETE("/classes/:id", classHandler.Delete)

		protected.GET("/schedule", scheduleHandler.GetWeekly)
		protected.PUT("/schedule", scheduleHandler.UpdateWeekly)

		protected.GET("/days-off", dayOffHandler.ListPersonal)
		protected.POST("/days-off", dayOffHandler.CreatePersonal)
		protected.PUT("/days-off/:id", dayOffHandler.UpdatePersonal)
		protected.DELETE("/days-off/:id", dayOffHandler.DeletePersonal)
		protected.GET("/global-days-off", dayOffHandler.ListGlobal)

		protected.GET("/patterns", patternHandler.List)
		protected.POST("/patterns", patternHandler.Create)
		protected.PUT("/patterns/:id", patternHandler.Update)
		protected.DELETE("/patterns/:id", patternHandler.Delete)

		protected.GET("/exceptions", exceptionHandler.ListPersonal)
		protected.POST("/exceptions", exceptionHandler.CreatePersonal)
		protected.PUT("/exceptions/:id", exceptionHandler.UpdatePersonal)
		protected.DELETE("/exceptions/:id", exceptionHandler.DeletePersonal)
		protected.GET("/global-exceptions", exceptionHandler.ListGlobal)

		protected.GET("/settings", settingsHandler.Get)

		protected.GET("/resolution/week", resolutionHandler.Week)
		protected.GET("/resolution/date/:date", resolutionHandler.Date)
		protected.GET("/resolution/export", resolutionHandler.Export)
		protected.POST("/resolution/export-jobs", exportJobHandler.CreateJob)
		protected.GET("/resolution/export-jobs/:id", exportJobHandler.JobStatus)

		admin := protected.Group("/admin", middleware.RequireRoles(models.RoleAdmin))
		{
			admin.GET("/global-days-off", dayOffHandler.ListGlobal)
			admin.POST("/global-days-off", dayOffHandler.CreateGlobal)
			admin.PUT("/global-days-off/:id", dayOffHandler.UpdateGlobal)
			admin.DELETE("/global-days-off/:id", dayOffHandler.DeleteGlobal)

			admin.GET("/global-patterns", patternHandler.ListGlobal)
			admin.POST("/global-patterns", patternHandler.CreateGlobal)
			admin.PUT("/global-patterns/:id", patternHandler.Update)
			admin.DELETE("/global-patterns/:id", patternHandler.Delete)

			admin.GET("/global-exceptions", exceptionHandler.ListGlobal)
			admin.POST("/global-exceptions", exceptionHandler.CreateGlobal)
			admin.PUT("/global-exceptions/:id", exceptionHandler.UpdateGlobal)
			admin.DELETE("/global-exceptions/:id", exceptionHandler.DeleteGlobal)

			admin.GET("/settings", settingsHandler.Get)
			admin.PUT("/settings", settingsHandler.Update)
			admin.GET("/metrics", metricsHandler.Snapshot)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Sugar().Infow("server shutting down")

	stopQueue()
	exportQueue.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logr.Sugar().Fatalw("forced shutdown", "error", err)
	}

	logr.Sugar().Infow("server stopped")
}
