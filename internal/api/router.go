package api

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/wpr_server/config"
	"github.com/qs3c/wpr_server/internal/api/handler"
	"github.com/qs3c/wpr_server/internal/api/middleware"
	"github.com/qs3c/wpr_server/internal/pkg/logger"
	"github.com/qs3c/wpr_server/internal/web"
)

// SubmitRouter 提交服务：表单页面和 JSON 提交接口
type SubmitRouter struct {
	reportHandler *handler.ReportHandler
	pageHandler   *handler.PageHandler
	healthHandler *handler.HealthHandler
	cfg           *config.Config
	log           *logger.Logger
}

func NewSubmitRouter(
	reportHandler *handler.ReportHandler,
	pageHandler *handler.PageHandler,
	healthHandler *handler.HealthHandler,
	cfg *config.Config,
	log *logger.Logger,
) *SubmitRouter {
	return &SubmitRouter{
		reportHandler: reportHandler,
		pageHandler:   pageHandler,
		healthHandler: healthHandler,
		cfg:           cfg,
		log:           log,
	}
}

func (r *SubmitRouter) Setup() (*gin.Engine, error) {
	engine, err := newEngine(r.cfg, r.log)
	if err != nil {
		return nil, err
	}

	engine.GET("/", r.pageHandler.Form)
	engine.POST("/", r.pageHandler.Submit)
	engine.GET("/healthz", r.healthHandler.Check)

	api := engine.Group("/api/v1")
	{
		api.GET("/options", r.reportHandler.Options)

		reports := api.Group("/reports")
		{
			reports.POST("", r.reportHandler.Submit)
			reports.GET("/:id", r.reportHandler.Get)
			reports.POST("/:id/analysis", r.reportHandler.Regenerate)
		}
	}

	return engine, nil
}

// DashboardRouter 看板服务：只读页面、查询接口和实时推送
type DashboardRouter struct {
	dashboardHandler *handler.DashboardHandler
	websocketHandler *handler.WebSocketHandler
	healthHandler    *handler.HealthHandler
	cfg              *config.Config
	log              *logger.Logger
}

func NewDashboardRouter(
	dashboardHandler *handler.DashboardHandler,
	websocketHandler *handler.WebSocketHandler,
	healthHandler *handler.HealthHandler,
	cfg *config.Config,
	log *logger.Logger,
) *DashboardRouter {
	return &DashboardRouter{
		dashboardHandler: dashboardHandler,
		websocketHandler: websocketHandler,
		healthHandler:    healthHandler,
		cfg:              cfg,
		log:              log,
	}
}

func (r *DashboardRouter) Setup() (*gin.Engine, error) {
	engine, err := newEngine(r.cfg, r.log)
	if err != nil {
		return nil, err
	}

	engine.GET("/healthz", r.healthHandler.Check)

	// 托管平台负责登录，这里只校验它签发的令牌
	guarded := engine.Group("")
	if r.cfg.Auth.RequireDashboard {
		guarded.Use(middleware.Auth(r.cfg.Auth.PlatformJWTSecret))
	}

	guarded.GET("/", r.dashboardHandler.Page)

	api := guarded.Group("/api/v1")
	{
		api.GET("/ws", r.websocketHandler.Handle)

		dashboard := api.Group("/dashboard")
		{
			dashboard.GET("/reports", r.dashboardHandler.Reports)
			dashboard.GET("/reports/:id/analysis", r.dashboardHandler.Analysis)
			dashboard.GET("/summary", r.dashboardHandler.Summary)
			dashboard.GET("/teams", r.dashboardHandler.Teams)
			dashboard.GET("/trend", r.dashboardHandler.Trend)
			dashboard.GET("/missing", r.dashboardHandler.Missing)
			dashboard.GET("/export.csv", r.dashboardHandler.ExportCSV)
			dashboard.GET("/submitters/:name/history", r.dashboardHandler.History)
		}
	}

	return engine, nil
}

func newEngine(cfg *config.Config, log *logger.Logger) (*gin.Engine, error) {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.RequestLogger(log))
	engine.Use(middleware.CORS(cfg.CORS))

	tmpl, err := web.Templates()
	if err != nil {
		return nil, err
	}
	engine.SetHTMLTemplate(tmpl)

	return engine, nil
}
