// Package main runs the lecture processing HTTP server and its in-process pipeline.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aura-lectures/backend/config"
	"github.com/aura-lectures/backend/internal/auth"
	"github.com/aura-lectures/backend/internal/courses"
	"github.com/aura-lectures/backend/internal/generation"
	"github.com/aura-lectures/backend/internal/lectures"
	"github.com/aura-lectures/backend/internal/middleware"
	"github.com/aura-lectures/backend/internal/pipeline"
	"github.com/aura-lectures/backend/internal/realtime"
	"github.com/aura-lectures/backend/internal/synthesis"
	"github.com/aura-lectures/backend/internal/transcription"
	"github.com/aura-lectures/backend/pkg/database"
	"github.com/aura-lectures/backend/pkg/redis"
	"github.com/aura-lectures/backend/pkg/response"
	"github.com/aura-lectures/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), cfg.Database.MaxConns, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	backend, err := newBackend(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("storage", zap.Error(err))
	}
	artifacts := storage.NewArtifacts(backend)

	var broker realtime.Broker = realtime.NewHub(logger)
	if cfg.Redis.Enabled {
		rdb, err := redis.NewClient(ctx, redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}, logger)
		if err != nil {
			logger.Warn("redis unavailable, status events stay in process", zap.Error(err))
		} else {
			defer rdb.Close()
			broker = realtime.NewRedisPubSub(rdb.Client, logger)
		}
	}

	courseRepo := courses.NewRepository(pool)
	lectureRepo := lectures.NewRepository(pool)

	// One orchestrator per process; jobs run in submission order.
	orchestrator := pipeline.New(lectureRepo, artifacts, pipeline.Adapters{
		Transcriber: transcription.Select(cfg.Transcription, artifacts, logger),
		Generator:   generation.Select(cfg.Generation, logger),
		Synthesizer: synthesis.Select(cfg.Synthesis, logger),
	}, logger,
		pipeline.WithProvisionalVoiced(cfg.Pipeline.ProvisionalVoiced),
		pipeline.WithNotifier(broker),
	)

	var tokens *auth.TokenService
	if cfg.JWT.Secret != "" {
		tokens = auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	} else {
		logger.Warn("JWT_SECRET not set, write endpoints are unauthenticated")
	}

	courseHandler := courses.NewHandler(courseRepo, logger)
	lectureHandler := lectures.NewHandler(lectureRepo, courseRepo, artifacts, orchestrator,
		int64(cfg.Server.MaxUploadMB)<<20, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))
	router.MaxMultipartMemory = 32 << 20

	router.GET("/health", func(c *gin.Context) {
		response.OK(c, gin.H{"status": "ok", "queued_jobs": orchestrator.Pending()})
	})

	// Public reads
	router.GET("/courses", courseHandler.List)
	router.GET("/courses/:code", courseHandler.Get)
	router.GET("/courses/:code/lectures", lectureHandler.ListByCourse)
	router.GET("/lectures/:id", lectureHandler.Get)
	router.GET("/lectures/:id/status", lectureHandler.Status)
	router.GET("/lectures/:id/artifacts/:kind", lectureHandler.Artifact)
	router.GET("/lectures/:id/events", realtime.ServeLectureEvents(broker, lectureRepo, logger))

	// Writes (bearer token when JWT_SECRET is set)
	api := router.Group("")
	api.Use(middleware.JWT(tokens))
	{
		editors := middleware.RequireRole(auth.RoleEditor, auth.RoleAdmin)
		admins := middleware.RequireRole(auth.RoleAdmin)

		api.POST("/courses", editors, courseHandler.Create)
		api.PATCH("/courses/:code", editors, courseHandler.Update)
		api.DELETE("/courses/:code", admins, courseHandler.Delete)

		api.POST("/courses/:code/lectures", editors, lectureHandler.Upload)
		api.POST("/lectures/:id/process", editors, lectureHandler.Process)
		api.DELETE("/lectures/:id", admins, lectureHandler.Delete)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port), zap.String("storage", cfg.Storage.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	// The queue is in memory only; whatever has not finished by now is lost.
	if err := orchestrator.WaitIdle(shutdownCtx); err != nil {
		logger.Warn("pipeline still busy at shutdown", zap.Int("pending", orchestrator.Pending()))
	}
	logger.Info("server stopped")
}

func newBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Backend, error) {
	if cfg.Storage.Backend == "s3" {
		return storage.NewS3(ctx, storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			Bucket:               cfg.AWS.ArtifactsBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}, logger)
	}
	return storage.NewLocal(cfg.Storage.Dir)
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
