package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/pathfinder-edu/pathfinder-api/internal/handler"
	"github.com/pathfinder-edu/pathfinder-api/internal/middleware"
	"github.com/pathfinder-edu/pathfinder-api/internal/repository"
	"github.com/pathfinder-edu/pathfinder-api/internal/service"
	"github.com/pathfinder-edu/pathfinder-api/pkg/cache"
	"github.com/pathfinder-edu/pathfinder-api/pkg/config"
	"github.com/pathfinder-edu/pathfinder-api/pkg/database"
	"github.com/pathfinder-edu/pathfinder-api/pkg/logger"
	corsmiddleware "github.com/pathfinder-edu/pathfinder-api/pkg/middleware/cors"
	reqidmiddleware "github.com/pathfinder-edu/pathfinder-api/pkg/middleware/requestid"
)

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

	// The session itself is created lazily on first query, so the server
	// starts even when Cassandra is down.
	db := database.New(cfg.Cassandra, logr)
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, stats caching disabled", zap.Error(err))
		} else {
			cacheSvc = service.NewCacheService(repository.NewCacheRepository(redisClient), metricsSvc, cfg.Cache.TTL, logr, true)
		}
	}

	studentRepo := repository.NewStudentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	riskRepo := repository.NewRiskPredictionRepository(db)

	validate := validator.New()
	tokenSvc := service.NewTokenService(cfg.JWT.Secret, cfg.JWT.Expiration)
	authSvc := service.NewAuthService(studentRepo, tokenSvc, validate, logr)
	statsSvc := service.NewStatsService(service.StatsServiceParams{
		Students:    studentRepo,
		Enrollments: enrollmentRepo,
		Courses:     courseRepo,
		Predictions: riskRepo,
		Cache:       cacheSvc,
		Logger:      logr,
	})
	predictionSvc := service.NewPredictionService(studentRepo, enrollmentRepo, courseRepo, riskRepo, cacheSvc, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	studentHandler := handler.NewStudentHandler(statsSvc, predictionSvc)
	healthHandler := handler.NewHealthHandler(db)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	auth := r.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/logout", authHandler.Logout)
		auth.POST("/register", authHandler.Register)
		auth.GET("/verify", authHandler.Verify)
	}

	students := r.Group("/students", middleware.JWT(authSvc))
	{
		students.GET("/me", studentHandler.Me)
		students.GET("/:id/stats", studentHandler.Stats)
		students.GET("/:id/risks", studentHandler.Risks)
		students.GET("/:id/progress", studentHandler.Progress)
		students.POST("/:id/predictions", studentHandler.Predict)
	}

	r.GET("/health", healthHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
