package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/treestatus-api/internal/handler"
	"github.com/noah-isme/treestatus-api/internal/middleware"
	"github.com/noah-isme/treestatus-api/internal/service"
	"github.com/noah-isme/treestatus-api/pkg/config"
	"github.com/noah-isme/treestatus-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/treestatus-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/treestatus-api/pkg/middleware/requestid"
)

type routeHandlers struct {
	trees      *handler.TreeHandler
	stacks     *handler.StackHandler
	dockerflow *handler.DockerflowHandler
	metrics    *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, metrics *service.MetricsService, auth middleware.TokenValidator, h routeHandlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics, "/__lbheartbeat__", "/metrics"))

	r.GET("/__heartbeat__", h.dockerflow.Heartbeat)
	r.GET("/__lbheartbeat__", h.dockerflow.LBHeartbeat)
	r.GET("/__version__", h.dockerflow.Version)
	r.GET("/metrics", h.metrics.Prometheus)

	requireUser := middleware.JWT(auth)

	trees := r.Group("/trees")
	trees.GET("", h.trees.List)
	trees.PATCH("", requireUser, h.trees.Update)
	trees.GET("/:tree", h.trees.Get)
	trees.PUT("/:tree", requireUser, h.trees.Create)
	trees.DELETE("/:tree", requireUser, h.trees.Delete)
	trees.GET("/:tree/logs", h.trees.Logs)

	stack := r.Group("/stack")
	stack.GET("", h.stacks.List)
	stack.GET("/:id", h.stacks.Get)
	stack.PUT("/:id", requireUser, h.stacks.Revert)
	stack.DELETE("/:id", requireUser, h.stacks.Discard)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
	return r
}
