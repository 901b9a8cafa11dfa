package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/planwatch/watch-backend/internal/logger"
	"github.com/planwatch/watch-backend/internal/types"
)

type PlanRepo interface {
	Create(ctx context.Context, tx *gorm.DB, plans []*types.Plan) ([]*types.Plan, error)
	GetByID(ctx context.Context, tx *gorm.DB, planID uuid.UUID) (*types.Plan, error)
	GetByIdentifier(ctx context.Context, tx *gorm.DB, identifier string) (*types.Plan, error)
	CreateStatuses(ctx context.Context, tx *gorm.DB, statuses []*types.ActionStatus) ([]*types.ActionStatus, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, status *types.ActionStatus) (*types.ActionStatus, error)
	ListStatuses(ctx context.Context, tx *gorm.DB, planID uuid.UUID) ([]*types.ActionStatus, error)
	GetStatusByIdentifier(ctx context.Context, tx *gorm.DB, planID uuid.UUID, identifier string) (*types.ActionStatus, error)
	CreatePhases(ctx context.Context, tx *gorm.DB, phases []*types.ActionImplementationPhase) ([]*types.ActionImplementationPhase, error)
	ListPhases(ctx context.Context, tx *gorm.DB, planID uuid.UUID) ([]*types.ActionImplementationPhase, error)
}

type planRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPlanRepo(db *gorm.DB, baseLog *logger.Logger) PlanRepo {
	repoLog := baseLog.With("repo", "PlanRepo")
	return &planRepo{db: db, log: repoLog}
}

func (pr *planRepo) Create(ctx context.Context, tx *gorm.DB, plans []*types.Plan) ([]*types.Plan, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	if len(plans) == 0 {
		return []*types.Plan{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&plans).Error; err != nil {
		return nil, translateDBError(err, "create plans")
	}
	return plans, nil
}

func (pr *planRepo) GetByID(ctx context.Context, tx *gorm.DB, planID uuid.UUID) (*types.Plan, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var result types.Plan
	if err := transaction.WithContext(ctx).
		Where("id = ?", planID).
		First(&result).Error; err != nil {
		return nil, translateDBError(err, "get plan")
	}
	return &result, nil
}

func (pr *planRepo) GetByIdentifier(ctx context.Context, tx *gorm.DB, identifier string) (*types.Plan, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var result types.Plan
	if err := transaction.WithContext(ctx).
		Where("identifier = ?", identifier).
		First(&result).Error; err != nil {
		return nil, translateDBError(err, "get plan by identifier")
	}
	return &result, nil
}

func (pr *planRepo) CreateStatuses(ctx context.Context, tx *gorm.DB, statuses []*types.ActionStatus) ([]*types.ActionStatus, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	if len(statuses) == 0 {
		return []*types.ActionStatus{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&statuses).Error; err != nil {
		return nil, translateDBError(err, "create action statuses")
	}
	return statuses, nil
}

func (pr *planRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, status *types.ActionStatus) (*types.ActionStatus, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	if err := transaction.WithContext(ctx).
		Omit("Plan").
		Save(status).Error; err != nil {
		return nil, translateDBError(err, "update action status")
	}
	return status, nil
}

func (pr *planRepo) ListStatuses(ctx context.Context, tx *gorm.DB, planID uuid.UUID) ([]*types.ActionStatus, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var results []*types.ActionStatus
	if err := transaction.WithContext(ctx).
		Where("plan_id = ?", planID).
		Order("sort_order ASC, identifier ASC").
		Find(&results).Error; err != nil {
		return nil, translateDBError(err, "list action statuses")
	}
	return results, nil
}

func (pr *planRepo) GetStatusByIdentifier(ctx context.Context, tx *gorm.DB, planID uuid.UUID, identifier string) (*types.ActionStatus, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var result types.ActionStatus
	if err := transaction.WithContext(ctx).
		Where("plan_id = ? AND identifier = ?", planID, identifier).
		First(&result).Error; err != nil {
		return nil, translateDBError(err, "get action status")
	}
	return &result, nil
}

func (pr *planRepo) CreatePhases(ctx context.Context, tx *gorm.DB, phases []*types.ActionImplementationPhase) ([]*types.ActionImplementationPhase, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	if len(phases) == 0 {
		return []*types.ActionImplementationPhase{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&phases).Error; err != nil {
		return nil, translateDBError(err, "create implementation phases")
	}
	return phases, nil
}

func (pr *planRepo) ListPhases(ctx context.Context, tx *gorm.DB, planID uuid.UUID) ([]*types.ActionImplementationPhase, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var results []*types.ActionImplementationPhase
	if err := transaction.WithContext(ctx).
		Where("plan_id = ?", planID).
		Order("sort_order ASC, identifier ASC").
		Find(&results).Error; err != nil {
		return nil, translateDBError(err, "list implementation phases")
	}
	return results, nil
}
