package app

import (
	"gorm.io/gorm"

	"github.com/planwatch/watch-backend/internal/logger"
	"github.com/planwatch/watch-backend/internal/services"
)

type Services struct {
	Auth          services.AuthService
	Permission    services.PermissionService
	AttributeType services.AttributeTypeService
	Attribute     services.AttributeService
	Category      services.CategoryService
	Status        services.StatusService
	Report        services.ReportService
	Export        services.ExportService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients) Services {
	log.Info("Wiring services...")

	authService := services.NewAuthService(repos.User, cfg.JWTSecretKey, log)
	permService := services.NewPermissionService(repos.User, repos.Action, log)
	typeService := services.NewAttributeTypeService(db, repos.AttributeType, repos.Plan, repos.Category, repos.Report, log)
	attrService := services.NewAttributeService(db, repos.AttributeType, repos.AttributeValue, repos.Category, repos.Action, log)
	catService := services.NewCategoryService(db, repos.Category, log)
	statusService := services.NewStatusService(db, repos.Action, repos.Indicator, repos.Plan, log)
	reportService := services.NewReportService(db, repos.Report, repos.Action, repos.Category, repos.AttributeType, repos.Plan, repos.User, attrService, typeService, log)
	exportService := services.NewExportService(repos.Report, repos.Action, repos.Category, repos.AttributeType, repos.Plan, attrService, clients.Redis, log)

	return Services{
		Auth:          authService,
		Permission:    permService,
		AttributeType: typeService,
		Attribute:     attrService,
		Category:      catService,
		Status:        statusService,
		Report:        reportService,
		Export:        exportService,
	}
}
