package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-marks-api/internal/middleware"
	"github.com/noah-isme/sma-marks-api/internal/service"
	"github.com/noah-isme/sma-marks-api/pkg/config"
	"github.com/noah-isme/sma-marks-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-marks-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-marks-api/pkg/middleware/requestid"
)

const metricsPath = "/metrics"

// RouterDeps collects what the HTTP surface needs.
type RouterDeps struct {
	Config    *config.Config
	Logger    *zap.Logger
	Auth      *service.AuthService
	Access    *service.AccessService
	Metrics   *service.MetricsService
	Reports   *service.ReportService
	Exports   *service.ExportService
	Dashboard *service.DashboardService
	DB        pinger
}

// NewRouter builds the gin engine with every route mounted.
func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	logr := deps.Logger
	if logr == nil {
		logr = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS))
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics(deps.Metrics, metricsPath))
	}

	ops := NewMetricsHandler(deps.Metrics, deps.DB)
	r.GET("/health", ops.Health)
	r.GET("/ready", ops.Ready)
	if cfg.Metrics.Enabled {
		r.GET(metricsPath, ops.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	marks := NewMarkHandler(deps.Reports)
	reports := NewReportHandler(deps.Reports, deps.Exports)
	links := NewLinkHandler(deps.Reports)
	dashboard := NewDashboardHandler(deps.Dashboard)

	api := r.Group(apiPrefix(cfg.APIPrefix))
	api.Use(middleware.JWT(deps.Auth), middleware.WithResponseMeta())
	{
		api.POST("/marks", marks.Submit)

		api.GET("/reports", reports.All)
		api.GET("/reports/me", reports.Mine)
		api.GET("/reports/children", reports.Children)
		api.GET("/reports/students/:id", reports.Student)
		api.GET("/reports/export", reports.Export)

		api.GET("/dashboard", dashboard.Show)

		admin := api.Group("/admin", middleware.RequireCapability(deps.Access, service.CapabilityViewAll))
		admin.GET("/parents/:id/children", links.Get)
		admin.PUT("/parents/:id/children", links.Replace)
	}

	return r
}

func apiPrefix(prefix string) string {
	prefix = "/" + strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "/" {
		return ""
	}
	return prefix
}
