package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/planwatch/watch-backend/internal/db"
	"github.com/planwatch/watch-backend/internal/logger"
	"github.com/planwatch/watch-backend/internal/repos"
	"github.com/planwatch/watch-backend/internal/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrateAll(gdb); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return gdb
}

// fixture wires the whole service stack against an in-memory database and a
// seeded plan.
type fixture struct {
	db   *gorm.DB
	plan *types.Plan

	statuses map[string]*types.ActionStatus
	phases   map[string]*types.ActionImplementationPhase

	planRepo   repos.PlanRepo
	userRepo   repos.UserRepo
	catRepo    repos.CategoryRepo
	typeRepo   repos.AttributeTypeRepo
	valueRepo  repos.AttributeValueRepo
	actRepo    repos.ActionRepo
	indRepo    repos.IndicatorRepo
	reportRepo repos.ReportRepo

	permService   PermissionService
	typeService   AttributeTypeService
	attrService   AttributeService
	catService    CategoryService
	statusService StatusService
	reportService ReportService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gdb := newTestDB(t)
	log := logger.NewNop()
	ctx := context.Background()

	f := &fixture{
		db:         gdb,
		statuses:   map[string]*types.ActionStatus{},
		phases:     map[string]*types.ActionImplementationPhase{},
		planRepo:   repos.NewPlanRepo(gdb, log),
		userRepo:   repos.NewUserRepo(gdb, log),
		catRepo:    repos.NewCategoryRepo(gdb, log),
		typeRepo:   repos.NewAttributeTypeRepo(gdb, log),
		valueRepo:  repos.NewAttributeValueRepo(gdb, log),
		actRepo:    repos.NewActionRepo(gdb, log),
		indRepo:    repos.NewIndicatorRepo(gdb, log),
		reportRepo: repos.NewReportRepo(gdb, log),
	}
	f.permService = NewPermissionService(f.userRepo, f.actRepo, log)
	f.typeService = NewAttributeTypeService(gdb, f.typeRepo, f.planRepo, f.catRepo, f.reportRepo, log)
	f.attrService = NewAttributeService(gdb, f.typeRepo, f.valueRepo, f.catRepo, f.actRepo, log)
	f.catService = NewCategoryService(gdb, f.catRepo, log)
	f.statusService = NewStatusService(gdb, f.actRepo, f.indRepo, f.planRepo, log)
	f.reportService = NewReportService(gdb, f.reportRepo, f.actRepo, f.catRepo, f.typeRepo, f.planRepo, f.userRepo, f.attrService, f.typeService, log)

	plans, err := f.planRepo.Create(ctx, nil, []*types.Plan{{
		Identifier:                     "testplan",
		Name:                           "Test plan",
		PrimaryLanguage:                "en",
		OtherLanguages:                 types.StringList{"fi"},
		ActionUpdateTargetInterval:     30,
		ActionUpdateAcceptableInterval: 60,
		ActionStaleAfterDays:           180,
	}})
	if err != nil {
		t.Fatalf("seed plan: %v", err)
	}
	f.plan = plans[0]

	statusRows := []*types.ActionStatus{
		{PlanID: f.plan.ID, Identifier: "on_time", Name: types.LocalizedText{"en": "On time"}, SortOrder: 0},
		{PlanID: f.plan.ID, Identifier: "late", Name: types.LocalizedText{"en": "Late"}, SortOrder: 1},
		{PlanID: f.plan.ID, Identifier: "not_started", Name: types.LocalizedText{"en": "Not started"}, SortOrder: 2},
		{PlanID: f.plan.ID, Identifier: "completed", Name: types.LocalizedText{"en": "Completed"}, IsCompleted: true, SortOrder: 3},
	}
	created, err := f.planRepo.CreateStatuses(ctx, nil, statusRows)
	if err != nil {
		t.Fatalf("seed statuses: %v", err)
	}
	for _, status := range created {
		f.statuses[status.Identifier] = status
	}

	phaseRows := []*types.ActionImplementationPhase{
		{PlanID: f.plan.ID, Identifier: "not_started", Name: types.LocalizedText{"en": "Not started"}, SortOrder: 0},
		{PlanID: f.plan.ID, Identifier: "implementation", Name: types.LocalizedText{"en": "Implementation"}, SortOrder: 1},
		{PlanID: f.plan.ID, Identifier: "completed", Name: types.LocalizedText{"en": "Completed"}, SortOrder: 2},
	}
	createdPhases, err := f.planRepo.CreatePhases(ctx, nil, phaseRows)
	if err != nil {
		t.Fatalf("seed phases: %v", err)
	}
	for _, phase := range createdPhases {
		f.phases[phase.Identifier] = phase
	}

	return f
}

func (f *fixture) createAction(t *testing.T, identifier string) *types.Action {
	t.Helper()
	actions, err := f.actRepo.Create(context.Background(), nil, []*types.Action{{
		PlanID:     f.plan.ID,
		Identifier: identifier,
		Name:       "Action " + identifier,
	}})
	if err != nil {
		t.Fatalf("create action %s: %v", identifier, err)
	}
	return actions[0]
}

func (f *fixture) createUser(t *testing.T, email string, superuser bool) *types.User {
	t.Helper()
	users, err := f.userRepo.Create(context.Background(), nil, []*types.User{{
		Email:       email,
		Name:        email,
		IsSuperuser: superuser,
	}})
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return users[0]
}

func (f *fixture) createActionType(t *testing.T, identifier string, format types.AttributeFormat, mutate func(*CreateAttributeTypeInput)) *types.AttributeType {
	t.Helper()
	input := CreateAttributeTypeInput{
		ObjectType: types.ObjectKindAction,
		ScopeType:  types.ScopeKindPlan,
		ScopeID:    f.plan.ID,
		Identifier: identifier,
		Name:       types.LocalizedText{"en": "Type " + identifier},
		Format:     format,
	}
	if mutate != nil {
		mutate(&input)
	}
	created, err := f.typeService.Create(context.Background(), nil, input)
	if err != nil {
		t.Fatalf("create attribute type %s: %v", identifier, err)
	}
	return created
}

func (f *fixture) createUnit(t *testing.T, name string) *types.Unit {
	t.Helper()
	units, err := f.indRepo.CreateUnits(context.Background(), nil, []*types.Unit{{Name: name}})
	if err != nil {
		t.Fatalf("create unit %s: %v", name, err)
	}
	return units[0]
}

func (f *fixture) createCategoryType(t *testing.T, identifier string) *types.CategoryType {
	t.Helper()
	created, err := f.catService.CreateType(context.Background(), &types.CategoryType{
		PlanID:           f.plan.ID,
		Identifier:       identifier,
		Name:             "Category type " + identifier,
		UsableForActions: true,
	})
	if err != nil {
		t.Fatalf("create category type %s: %v", identifier, err)
	}
	return created
}

func superuserContext() types.PermissionContext {
	return types.PermissionContext{Authenticated: true, Superuser: true}
}

func dateAt(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func uuidPtr(id uuid.UUID) *uuid.UUID { return &id }
