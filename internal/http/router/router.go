package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"bugscribe.app/bugscribe/internal/http/handler"
	"bugscribe.app/bugscribe/internal/service"
)

type RouterConfig struct {
	ServiceName       string
	MaxInputLength    int
	GenerationTimeout time.Duration
}

func SetupRoutes(router *gin.Engine, bugReports service.BugReportService, cfg RouterConfig) {
	healthHandler := handler.NewHealthHandler(cfg.ServiceName)
	router.GET("/health", healthHandler.Check)

	v1 := router.Group("/api/v1")
	{
		bugReportHandler := handler.NewBugReportHandler(bugReports, handler.BugReportHandlerConfig{
			MaxInputLength:    cfg.MaxInputLength,
			GenerationTimeout: cfg.GenerationTimeout,
		})
		BugReportRouter(v1.Group("/bug-reports"), bugReportHandler)
	}
}

func BugReportRouter(rg *gin.RouterGroup, h *handler.BugReportHandler) {
	rg.POST("", h.Create)
}
