package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/planwatch/watch-backend/internal/handlers"
	"github.com/planwatch/watch-backend/internal/middleware"
)

type RouterConfig struct {
	AllowOrigins []string

	AuthMiddleware       *middleware.AuthMiddleware
	CacheMiddleware      *middleware.CacheMiddleware
	HealthcheckHandler   *handlers.HealthcheckHandler
	AttributeTypeHandler *handlers.AttributeTypeHandler
	AttributeHandler     *handlers.AttributeHandler
	CategoryHandler      *handlers.CategoryHandler
	StatusHandler        *handlers.StatusHandler
	ReportHandler        *handlers.ReportHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware("watch-backend"))
	router.Use(cfg.CacheMiddleware.RequestCache())

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", cfg.HealthcheckHandler.Healthcheck)

	// Read paths work anonymously; the visibility bands decide what an
	// anonymous caller actually sees.
	public := router.Group("/api")
	public.Use(cfg.AuthMiddleware.OptionalAuth())
	{
		public.GET("/attribute-types", cfg.AttributeTypeHandler.List)
		public.GET("/attribute-types/:id", cfg.AttributeTypeHandler.Get)
		public.GET("/attributes", cfg.AttributeHandler.Get)
		public.GET("/attributes/all", cfg.AttributeHandler.ListForObject)
		public.GET("/category-types", cfg.CategoryHandler.ListTypes)
		public.GET("/category-types/:id/categories", cfg.CategoryHandler.ListForType)
		public.GET("/actions/:id/status-summary", cfg.StatusHandler.Summary)
		public.GET("/actions/:id/timeliness", cfg.StatusHandler.Timeliness)
		public.GET("/reports/:id", cfg.ReportHandler.Get)
		public.GET("/reports/:id/export", cfg.ReportHandler.ExportXLSX)
		public.GET("/reports/compare", cfg.ReportHandler.CompareField)
	}

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/api")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// Attribute types
	protected.POST("/attribute-types", cfg.AttributeTypeHandler.Create)
	protected.PUT("/attribute-types/:id", cfg.AttributeTypeHandler.Update)
	protected.DELETE("/attribute-types/:id", cfg.AttributeTypeHandler.Delete)
	protected.POST("/attribute-types/:id/choice-options", cfg.AttributeTypeHandler.AddChoiceOption)
	protected.POST("/attribute-types/reorder", cfg.AttributeTypeHandler.Reorder)
	// Attribute values
	protected.POST("/attributes", cfg.AttributeHandler.Set)
	// Categories
	protected.POST("/category-types", cfg.CategoryHandler.CreateType)
	protected.POST("/category-types/:id/levels", cfg.CategoryHandler.AddLevel)
	protected.POST("/category-types/:id/reorder", cfg.CategoryHandler.ReorderSiblings)
	protected.POST("/categories", cfg.CategoryHandler.Create)
	protected.POST("/categories/:id/move", cfg.CategoryHandler.Move)
	// Action status
	protected.POST("/actions/:id/recalculate-status", cfg.StatusHandler.Recalculate)
	// Reports
	protected.POST("/report-types", cfg.ReportHandler.CreateType)
	protected.POST("/reports", cfg.ReportHandler.Create)
	protected.POST("/reports/:id/snapshots", cfg.ReportHandler.SnapshotAction)
	protected.POST("/reports/:id/complete", cfg.ReportHandler.Complete)
	protected.POST("/reports/:id/undo-complete", cfg.ReportHandler.UndoComplete)

	return router
}
