package app

import (
	"gorm.io/gorm"

	"github.com/planwatch/watch-backend/internal/logger"
	"github.com/planwatch/watch-backend/internal/repos"
)

type Repos struct {
	Plan           repos.PlanRepo
	User           repos.UserRepo
	Category       repos.CategoryRepo
	AttributeType  repos.AttributeTypeRepo
	AttributeValue repos.AttributeValueRepo
	Action         repos.ActionRepo
	Indicator      repos.IndicatorRepo
	Report         repos.ReportRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Plan:           repos.NewPlanRepo(db, log),
		User:           repos.NewUserRepo(db, log),
		Category:       repos.NewCategoryRepo(db, log),
		AttributeType:  repos.NewAttributeTypeRepo(db, log),
		AttributeValue: repos.NewAttributeValueRepo(db, log),
		Action:         repos.NewActionRepo(db, log),
		Indicator:      repos.NewIndicatorRepo(db, log),
		Report:         repos.NewReportRepo(db, log),
	}
}
