package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/planwatch/watch-backend/internal/logger"
	"github.com/planwatch/watch-backend/internal/types"
)

type IndicatorRepo interface {
	Create(ctx context.Context, tx *gorm.DB, indicators []*types.Indicator) ([]*types.Indicator, error)
	GetByID(ctx context.Context, tx *gorm.DB, indicatorID uuid.UUID) (*types.Indicator, error)
	CreateValues(ctx context.Context, tx *gorm.DB, values []*types.IndicatorValue) ([]*types.IndicatorValue, error)
	CreateGoals(ctx context.Context, tx *gorm.DB, goals []*types.IndicatorGoal) ([]*types.IndicatorGoal, error)
	LinkToAction(ctx context.Context, tx *gorm.DB, link *types.ActionIndicator) (*types.ActionIndicator, error)
	ListForAction(ctx context.Context, tx *gorm.DB, actionID uuid.UUID) ([]*types.ActionIndicator, error)
	CreateUnits(ctx context.Context, tx *gorm.DB, units []*types.Unit) ([]*types.Unit, error)
	GetUnitByID(ctx context.Context, tx *gorm.DB, unitID uuid.UUID) (*types.Unit, error)
}

type indicatorRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewIndicatorRepo(db *gorm.DB, baseLog *logger.Logger) IndicatorRepo {
	repoLog := baseLog.With("repo", "IndicatorRepo")
	return &indicatorRepo{db: db, log: repoLog}
}

func (ir *indicatorRepo) Create(ctx context.Context, tx *gorm.DB, indicators []*types.Indicator) ([]*types.Indicator, error) {
	transaction := tx
	if transaction == nil {
		transaction = ir.db
	}

	if len(indicators) == 0 {
		return []*types.Indicator{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&indicators).Error; err != nil {
		return nil, translateDBError(err, "create indicators")
	}
	return indicators, nil
}

func (ir *indicatorRepo) GetByID(ctx context.Context, tx *gorm.DB, indicatorID uuid.UUID) (*types.Indicator, error) {
	transaction := tx
	if transaction == nil {
		transaction = ir.db
	}

	var result types.Indicator
	if err := transaction.WithContext(ctx).
		Preload("Values", func(db *gorm.DB) *gorm.DB { return db.Order("date ASC") }).
		Preload("Goals", func(db *gorm.DB) *gorm.DB { return db.Order("date ASC") }).
		Where("id = ?", indicatorID).
		First(&result).Error; err != nil {
		return nil, translateDBError(err, "get indicator")
	}
	return &result, nil
}

func (ir *indicatorRepo) CreateValues(ctx context.Context, tx *gorm.DB, values []*types.IndicatorValue) ([]*types.IndicatorValue, error) {
	transaction := tx
	if transaction == nil {
		transaction = ir.db
	}

	if len(values) == 0 {
		return []*types.IndicatorValue{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&values).Error; err != nil {
		return nil, translateDBError(err, "create indicator values")
	}
	return values, nil
}

func (ir *indicatorRepo) CreateGoals(ctx context.Context, tx *gorm.DB, goals []*types.IndicatorGoal) ([]*types.IndicatorGoal, error) {
	transaction := tx
	if transaction == nil {
		transaction = ir.db
	}

	if len(goals) == 0 {
		return []*types.IndicatorGoal{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&goals).Error; err != nil {
		return nil, translateDBError(err, "create indicator goals")
	}
	return goals, nil
}

func (ir *indicatorRepo) LinkToAction(ctx context.Context, tx *gorm.DB, link *types.ActionIndicator) (*types.ActionIndicator, error) {
	transaction := tx
	if transaction == nil {
		transaction = ir.db
	}

	if err := transaction.WithContext(ctx).Create(link).Error; err != nil {
		return nil, translateDBError(err, "link indicator to action")
	}
	return link, nil
}

// ListForAction loads the action's indicator links with each indicator's
// values and goals ordered by date, ready for completion derivation.
func (ir *indicatorRepo) ListForAction(ctx context.Context, tx *gorm.DB, actionID uuid.UUID) ([]*types.ActionIndicator, error) {
	transaction := tx
	if transaction == nil {
		transaction = ir.db
	}

	var results []*types.ActionIndicator
	if err := transaction.WithContext(ctx).
		Preload("Indicator.Values", func(db *gorm.DB) *gorm.DB { return db.Order("date ASC") }).
		Preload("Indicator.Goals", func(db *gorm.DB) *gorm.DB { return db.Order("date ASC") }).
		Where("action_id = ?", actionID).
		Find(&results).Error; err != nil {
		return nil, translateDBError(err, "list action indicators")
	}
	return results, nil
}

func (ir *indicatorRepo) CreateUnits(ctx context.Context, tx *gorm.DB, units []*types.Unit) ([]*types.Unit, error) {
	transaction := tx
	if transaction == nil {
		transaction = ir.db
	}

	if len(units) == 0 {
		return []*types.Unit{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&units).Error; err != nil {
		return nil, translateDBError(err, "create units")
	}
	return units, nil
}

func (ir *indicatorRepo) GetUnitByID(ctx context.Context, tx *gorm.DB, unitID uuid.UUID) (*types.Unit, error) {
	transaction := tx
	if transaction == nil {
		transaction = ir.db
	}

	var result types.Unit
	if err := transaction.WithContext(ctx).
		Where("id = ?", unitID).
		First(&result).Error; err != nil {
		return nil, translateDBError(err, "get unit")
	}
	return &result, nil
}
