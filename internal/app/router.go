package app

import (
	"github.com/gin-gonic/gin"

	"github.com/planwatch/watch-backend/internal/server"
)

func wireRouter(cfg Config, handlers Handlers, middleware Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		AllowOrigins:         cfg.AllowOrigins,
		AuthMiddleware:       middleware.Auth,
		CacheMiddleware:      middleware.Cache,
		HealthcheckHandler:   handlers.Healthcheck,
		AttributeTypeHandler: handlers.AttributeType,
		AttributeHandler:     handlers.Attribute,
		CategoryHandler:      handlers.Category,
		StatusHandler:        handlers.Status,
		ReportHandler:        handlers.Report,
	})
}
