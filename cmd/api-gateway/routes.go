package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-score-engine/api/swagger"
	"github.com/noah-isme/sma-score-engine/internal/handler"
	"github.com/noah-isme/sma-score-engine/internal/middleware"
	"github.com/noah-isme/sma-score-engine/internal/models"
	"github.com/noah-isme/sma-score-engine/internal/service"
	"github.com/noah-isme/sma-score-engine/pkg/config"
	"github.com/noah-isme/sma-score-engine/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-score-engine/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-score-engine/pkg/middleware/requestid"
)

type routeDeps struct {
	tokens      middleware.TokenValidator
	metrics     *service.MetricsService
	evaluations *handler.EvaluationHandler
	scores      *handler.ScoreHandler
	summaries   *handler.SummaryHandler
	health      *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routeDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.metrics, "/metrics", "/health", "/ready"))

	r.GET("/health", deps.health.Health)
	r.GET("/ready", deps.health.Ready)
	r.GET("/metrics", deps.health.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	staff := middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin)
	api := r.Group(cfg.APIPrefix, middleware.JWT(deps.tokens))

	api.GET("/evaluation-methods", staff, deps.evaluations.List)
	api.POST("/evaluation-methods", staff, deps.evaluations.Create)

	api.POST("/scores", staff, deps.scores.Upsert)
	api.POST("/scores/bulk", staff, deps.scores.Bulk)

	summaries := api.Group("/summaries")
	summaries.POST("/recompute", staff, deps.summaries.Recompute)
	summaries.GET("", staff, deps.summaries.List)
	summaries.GET("/export", staff, deps.summaries.Export)
	summaries.PATCH("/:id/feedback", staff, deps.summaries.UpdateFeedback)
	summaries.GET("/:studentId/:subjectId", middleware.StudentSelfOrRoles(models.RoleTeacher, models.RoleAdmin), deps.summaries.Get)

	return r
}
