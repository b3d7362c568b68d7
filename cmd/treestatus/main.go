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
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/treestatus-api/api/swagger"
	"github.com/noah-isme/treestatus-api/internal/handler"
	"github.com/noah-isme/treestatus-api/internal/repository"
	"github.com/noah-isme/treestatus-api/internal/service"
	"github.com/noah-isme/treestatus-api/pkg/cache"
	"github.com/noah-isme/treestatus-api/pkg/config"
	"github.com/noah-isme/treestatus-api/pkg/database"
	"github.com/noah-isme/treestatus-api/pkg/logger"
)

// @title Tree Status API
// @version 1.0.0
// @description Open/closed state of source trees, their history and revertible bulk changes
// @BasePath /
// @schemes http https
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

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := database.EnsureSchema(ctx, db); err != nil {
		return err
	}

	var redisClient *redis.Client
	if cfg.NeedsRedis() {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer redisClient.Close()
	}

	backend, err := cache.New(cfg.Cache, redisClient)
	if err != nil {
		return err
	}
	defer backend.Close()

	metrics := service.NewMetricsService()
	cacheSvc := service.NewCacheService(backend, metrics, cfg.Trees.CacheTTL, logr)

	var notifier service.Notifier = service.NoopNotifier{}
	if cfg.Notifications.Enabled {
		redisNotifier := service.NewRedisNotifier(redisClient, cfg.Notifications, logr)
		redisNotifier.Start(ctx)
		defer redisNotifier.Stop()
		notifier = redisNotifier
	}

	treeRepo := repository.NewTreeRepository(db)
	logRepo := repository.NewLogRepository(db)
	stackRepo := repository.NewStackRepository(db)

	treeSvc := service.NewTreeService(treeRepo, logRepo, stackRepo, cacheSvc, notifier, metrics, validator.New(), logr, service.TreeServiceConfig{
		CacheTTL:         cfg.Trees.CacheTTL,
		LogLimit:         cfg.Trees.DefaultLogLimit,
		StatementTimeout: cfg.Database.StatementTimeout,
	})
	stackSvc := service.NewStackService(stackRepo, cacheSvc, notifier, metrics, logr, cfg.Database.StatementTimeout)
	heartbeatSvc := service.NewHeartbeatService(backend, db, metrics, logr)
	authSvc := service.NewAuthService(logr, service.AuthConfig{
		Secret:   cfg.JWT.Secret,
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
	})

	router := newRouter(cfg, logr, metrics, authSvc, routeHandlers{
		trees:      handler.NewTreeHandler(treeSvc),
		stacks:     handler.NewStackHandler(stackSvc),
		dockerflow: handler.NewDockerflowHandler(heartbeatSvc, cfg.App),
		metrics:    handler.NewMetricsHandler(metrics),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "db_driver", cfg.Database.Driver, "cache", cfg.Cache.Type)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
