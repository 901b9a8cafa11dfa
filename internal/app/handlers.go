package app

import (
	"github.com/planwatch/watch-backend/internal/handlers"
	"github.com/planwatch/watch-backend/internal/logger"
)

type Handlers struct {
	Healthcheck   *handlers.HealthcheckHandler
	AttributeType *handlers.AttributeTypeHandler
	Attribute     *handlers.AttributeHandler
	Category      *handlers.CategoryHandler
	Status        *handlers.StatusHandler
	Report        *handlers.ReportHandler
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Healthcheck:   handlers.NewHealthcheckHandler(log),
		AttributeType: handlers.NewAttributeTypeHandler(services.AttributeType, log),
		Attribute:     handlers.NewAttributeHandler(services.Attribute, services.Permission, log),
		Category:      handlers.NewCategoryHandler(services.Category, log),
		Status:        handlers.NewStatusHandler(services.Status, log),
		Report:        handlers.NewReportHandler(services.Report, services.Export, log),
	}
}
