package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/planwatch/watch-backend/internal/logger"
	"github.com/planwatch/watch-backend/internal/types"
	"github.com/planwatch/watch-backend/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "watch", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	log.Info("Connecting to Postgres...")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		log.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return &PostgresService{db: db, log: serviceLog}, nil
}

func (s *PostgresService) DB() *gorm.DB { return s.db }

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	return AutoMigrateAll(s.db)
}

// AutoMigrateAll migrates every model; the test suite reuses it against
// sqlite.
func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&types.Plan{},
		&types.ActionStatus{},
		&types.ActionImplementationPhase{},
		&types.User{},
		&types.PlanAdmin{},
		&types.CategoryType{},
		&types.CategoryLevel{},
		&types.Category{},
		&types.Unit{},
		&types.AttributeType{},
		&types.AttributeTypeChoiceOption{},
		&types.AttributeChoice{},
		&types.AttributeChoiceWithText{},
		&types.AttributeCategoryChoice{},
		&types.AttributeText{},
		&types.AttributeRichText{},
		&types.AttributeNumericValue{},
		&types.Organization{},
		&types.Action{},
		&types.ActionTask{},
		&types.ActionResponsibleParty{},
		&types.ActionContactPerson{},
		&types.ActionCategory{},
		&types.ActionLink{},
		&types.Indicator{},
		&types.IndicatorValue{},
		&types.IndicatorGoal{},
		&types.ActionIndicator{},
		&types.ReportType{},
		&types.ReportField{},
		&types.Report{},
		&types.ActionSnapshot{},
	)
}
