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
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-marks-api/api/swagger"
	"github.com/noah-isme/sma-marks-api/internal/handler"
	"github.com/noah-isme/sma-marks-api/internal/repository"
	"github.com/noah-isme/sma-marks-api/internal/service"
	"github.com/noah-isme/sma-marks-api/pkg/cache"
	"github.com/noah-isme/sma-marks-api/pkg/config"
	"github.com/noah-isme/sma-marks-api/pkg/database"
	"github.com/noah-isme/sma-marks-api/pkg/logger"
)

// @title School Marks API
// @version 1.0.0
// @description Marks entry and role scoped report viewing
// @BasePath /api/v1
// @schemes http

const shutdownTimeout = 15 * time.Second

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

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if err := database.EnsureSchema(ctx, db); err != nil {
		logr.Fatal("failed to apply schema", zap.Error(err))
	}

	scale, err := service.ParseGradeScale(cfg.Grading.Bands, cfg.Grading.Fallback)
	if err != nil {
		logr.Fatal("invalid grade bands", zap.String("bands", cfg.Grading.Bands), zap.Error(err))
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis, cfg.Reports.CacheEnabled)
	if err != nil {
		logr.Warn("report cache disabled", zap.Error(err))
		redisClient = nil
	}
	cacheRepo := repository.NewCacheRepository(redisClient, "marks")
	defer cacheRepo.Close() //nolint:errcheck

	metrics := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Reports.CacheTTL, logr, cfg.Reports.CacheEnabled && redisClient != nil)

	markRepo := repository.NewMarkRepository(db)
	linkRepo := repository.NewParentLinkRepository(db)
	userRepo := repository.NewUserRepository(db)

	markOpts := []service.MarkServiceOption{
		service.WithMarkCache(cacheSvc, cfg.Reports.CacheTTL),
		service.WithMarkMetrics(metrics),
	}
	// Workers outlive the signal context so submits finishing during shutdown still sync.
	syncSvc := service.NewSyncService(cfg.Sync, metrics, logr)
	if syncSvc != nil {
		syncSvc.Start(context.Background())
		markOpts = append(markOpts, service.WithSyncNotifier(syncSvc))
	}

	access := service.NewAccessService(service.AccessPolicyFromConfig(cfg.Access), linkRepo, logr)
	marks := service.NewMarkService(markRepo, scale, logr, markOpts...)
	identities := service.NewIdentityService(userRepo, logr)
	reports := service.NewReportService(access, marks, identities, linkRepo, validator.New(), logr)

	router := handler.NewRouter(handler.RouterDeps{
		Config:    cfg,
		Logger:    logr,
		Auth:      service.NewAuthService(logr, service.AuthConfig{AccessTokenSecret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer, Audience: cfg.JWT.Audience}),
		Access:    access,
		Metrics:   metrics,
		Reports:   reports,
		Exports:   service.NewExportService(reports, logr),
		Dashboard: service.NewDashboardService(access, logr),
		DB:        db,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		logr.Error("server failed", zap.Error(err))
	case <-ctx.Done():
		logr.Info("shutdown requested")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	syncSvc.Drain(shutdownCtx)
}
