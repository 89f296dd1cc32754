// Package http assembles the gin route tree and the HTTP server lifecycle.
package http

import (
	"github.com/gin-gonic/gin"

	"github.com/calledstrike/szas/internal/infrastructure/monitoring/logging"
	"github.com/calledstrike/szas/internal/infrastructure/monitoring/prometheus"
	"github.com/calledstrike/szas/internal/interfaces/http/handlers"
	"github.com/calledstrike/szas/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handler and middleware dependencies for the
// complete route tree. Nil handlers leave their routes unregistered; nil
// infrastructure disables the corresponding middleware.
type RouterConfig struct {
	ScoreHandler     *handlers.ScoreHandler
	InfluenceHandler *handlers.InfluenceHandler
	DatasetHandler   *handlers.DatasetHandler
	HealthHandler    *handlers.HealthHandler

	Logger           logging.Logger
	Metrics          *prometheus.AppMetrics
	MetricsCollector prometheus.MetricsCollector
	RateLimiter      *middleware.RateLimiter

	Mode string // gin mode: "debug" | "release" | "test"
}

// NewRouter constructs the route tree.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.CORS())
	if cfg.Logger != nil {
		r.Use(middleware.Logging(cfg.Logger))
	}
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.Liveness)
		r.GET("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsCollector != nil {
		r.GET("/metrics", gin.WrapH(cfg.MetricsCollector.Handler()))
	}

	api := r.Group("/api/v1")
	if cfg.RateLimiter != nil {
		api.Use(middleware.RateLimit(cfg.RateLimiter))
	}

	if cfg.ScoreHandler != nil {
		api.GET("/score", cfg.ScoreHandler.Score)
		api.GET("/score/surfaces", cfg.ScoreHandler.Surfaces)
	}
	if cfg.InfluenceHandler != nil {
		api.GET("/influence/:batter_id", cfg.InfluenceHandler.Analyze)
		api.POST("/influence/batch", cfg.InfluenceHandler.AnalyzeBatch)
	}
	if cfg.DatasetHandler != nil {
		catalog := api.Group("/catalog")
		catalog.GET("/batters", cfg.DatasetHandler.Batters)
		catalog.GET("/umpires", cfg.DatasetHandler.Umpires)
		catalog.GET("/summary", cfg.DatasetHandler.Summary)
		catalog.GET("/seasons", cfg.DatasetHandler.Seasons)
		catalog.GET("/preview", cfg.DatasetHandler.Preview)

		imports := api.Group("/imports")
		imports.GET("/snapshots", cfg.DatasetHandler.Snapshots)
		imports.POST("/snapshots/:season", cfg.DatasetHandler.UploadSnapshot)
		imports.POST("", cfg.DatasetHandler.RequestImport)
	}

	return r
}
