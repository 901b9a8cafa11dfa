package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/planwatch/watch-backend/internal/logger"
	"github.com/planwatch/watch-backend/internal/types"
)

type ReportRepo interface {
	CreateTypes(ctx context.Context, tx *gorm.DB, reportTypes []*types.ReportType) ([]*types.ReportType, error)
	GetTypeByID(ctx context.Context, tx *gorm.DB, typeID uuid.UUID) (*types.ReportType, error)
	CreateFields(ctx context.Context, tx *gorm.DB, fields []*types.ReportField) ([]*types.ReportField, error)
	GetFieldByID(ctx context.Context, tx *gorm.DB, fieldID uuid.UUID) (*types.ReportField, error)
	CreateReports(ctx context.Context, tx *gorm.DB, reports []*types.Report) ([]*types.Report, error)
	GetReportByID(ctx context.Context, tx *gorm.DB, reportID uuid.UUID) (*types.Report, error)
	GetReportByIDForUpdate(ctx context.Context, tx *gorm.DB, reportID uuid.UUID) (*types.Report, error)
	UpdateReport(ctx context.Context, tx *gorm.DB, report *types.Report) (*types.Report, error)
	ListReportsOfType(ctx context.Context, tx *gorm.DB, typeID uuid.UUID) ([]*types.Report, error)
	ListCompleteReportsByPlan(ctx context.Context, tx *gorm.DB, planID uuid.UUID) ([]*types.Report, error)
	CreateSnapshots(ctx context.Context, tx *gorm.DB, snapshots []*types.ActionSnapshot) ([]*types.ActionSnapshot, error)
	GetSnapshot(ctx context.Context, tx *gorm.DB, reportID, actionID uuid.UUID) (*types.ActionSnapshot, error)
	ListSnapshots(ctx context.Context, tx *gorm.DB, reportID uuid.UUID) ([]*types.ActionSnapshot, error)
	DeleteImplicitSnapshots(ctx context.Context, tx *gorm.DB, reportID uuid.UUID) error
}

type reportRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReportRepo(db *gorm.DB, baseLog *logger.Logger) ReportRepo {
	repoLog := baseLog.With("repo", "ReportRepo")
	return &reportRepo{db: db, log: repoLog}
}

func (rr *reportRepo) CreateTypes(ctx context.Context, tx *gorm.DB, reportTypes []*types.ReportType) ([]*types.ReportType, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	if len(reportTypes) == 0 {
		return []*types.ReportType{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&reportTypes).Error; err != nil {
		return nil, translateDBError(err, "create report types")
	}
	return reportTypes, nil
}

func (rr *reportRepo) GetTypeByID(ctx context.Context, tx *gorm.DB, typeID uuid.UUID) (*types.ReportType, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var result types.ReportType
	if err := transaction.WithContext(ctx).
		Preload("Fields", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, identifier ASC")
		}).
		Where("id = ?", typeID).
		First(&result).Error; err != nil {
		return nil, translateDBError(err, "get report type")
	}
	return &result, nil
}

func (rr *reportRepo) CreateFields(ctx context.Context, tx *gorm.DB, fields []*types.ReportField) ([]*types.ReportField, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	if len(fields) == 0 {
		return []*types.ReportField{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&fields).Error; err != nil {
		return nil, translateDBError(err, "create report fields")
	}
	return fields, nil
}

func (rr *reportRepo) GetFieldByID(ctx context.Context, tx *gorm.DB, fieldID uuid.UUID) (*types.ReportField, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var result types.ReportField
	if err := transaction.WithContext(ctx).
		Where("id = ?", fieldID).
		First(&result).Error; err != nil {
		return nil, translateDBError(err, "get report field")
	}
	return &result, nil
}

func (rr *reportRepo) CreateReports(ctx context.Context, tx *gorm.DB, reports []*types.Report) ([]*types.Report, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	if len(reports) == 0 {
		return []*types.Report{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&reports).Error; err != nil {
		return nil, translateDBError(err, "create reports")
	}
	return reports, nil
}

func (rr *reportRepo) GetReportByID(ctx context.Context, tx *gorm.DB, reportID uuid.UUID) (*types.Report, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var result types.Report
	if err := transaction.WithContext(ctx).
		Preload("Type.Fields", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, identifier ASC")
		}).
		Where("id = ?", reportID).
		First(&result).Error; err != nil {
		return nil, translateDBError(err, "get report")
	}
	return &result, nil
}

// GetReportByIDForUpdate reads the report under a row lock so concurrent
// completion attempts serialize on it.
func (rr *reportRepo) GetReportByIDForUpdate(ctx context.Context, tx *gorm.DB, reportID uuid.UUID) (*types.Report, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	query := transaction.WithContext(ctx)
	// sqlite has no row locks; its single writer already serializes.
	if transaction.Dialector.Name() != "sqlite" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var result types.Report
	if err := query.
		Preload("Type.Fields", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, identifier ASC")
		}).
		Where("id = ?", reportID).
		First(&result).Error; err != nil {
		return nil, translateDBError(err, "get report for update")
	}
	return &result, nil
}

func (rr *reportRepo) UpdateReport(ctx context.Context, tx *gorm.DB, report *types.Report) (*types.Report, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	if err := transaction.WithContext(ctx).
		Omit("Type", "Snapshots", "CompletedBy").
		Save(report).Error; err != nil {
		return nil, translateDBError(err, "update report")
	}
	return report, nil
}

func (rr *reportRepo) ListReportsOfType(ctx context.Context, tx *gorm.DB, typeID uuid.UUID) ([]*types.Report, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var results []*types.Report
	if err := transaction.WithContext(ctx).
		Where("type_id = ?", typeID).
		Order("start_date ASC").
		Find(&results).Error; err != nil {
		return nil, translateDBError(err, "list reports")
	}
	return results, nil
}

// ListCompleteReportsByPlan loads every completed report of the plan with
// its type and fields; structural-edit checks on materialized attribute
// types walk these.
func (rr *reportRepo) ListCompleteReportsByPlan(ctx context.Context, tx *gorm.DB, planID uuid.UUID) ([]*types.Report, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var results []*types.Report
	if err := transaction.WithContext(ctx).
		Preload("Type.Fields").
		Joins("JOIN report_type ON report_type.id = report.type_id").
		Where("report_type.plan_id = ? AND report.is_complete", planID).
		Find(&results).Error; err != nil {
		return nil, translateDBError(err, "list complete reports")
	}
	return results, nil
}

func (rr *reportRepo) CreateSnapshots(ctx context.Context, tx *gorm.DB, snapshots []*types.ActionSnapshot) ([]*types.ActionSnapshot, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	if len(snapshots) == 0 {
		return []*types.ActionSnapshot{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&snapshots).Error; err != nil {
		return nil, translateDBError(err, "create snapshots")
	}
	return snapshots, nil
}

func (rr *reportRepo) GetSnapshot(ctx context.Context, tx *gorm.DB, reportID, actionID uuid.UUID) (*types.ActionSnapshot, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var result types.ActionSnapshot
	err := transaction.WithContext(ctx).
		Where("report_id = ? AND action_id = ?", reportID, actionID).
		First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translateDBError(err, "get snapshot")
	}
	return &result, nil
}

func (rr *reportRepo) ListSnapshots(ctx context.Context, tx *gorm.DB, reportID uuid.UUID) ([]*types.ActionSnapshot, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var results []*types.ActionSnapshot
	if err := transaction.WithContext(ctx).
		Where("report_id = ?", reportID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, translateDBError(err, "list snapshots")
	}
	return results, nil
}

// DeleteImplicitSnapshots removes snapshots created by report completion;
// explicitly created snapshots survive an undo.
func (rr *reportRepo) DeleteImplicitSnapshots(ctx context.Context, tx *gorm.DB, reportID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	if err := transaction.WithContext(ctx).
		Where("report_id = ? AND NOT created_explicitly", reportID).
		Delete(&types.ActionSnapshot{}).Error; err != nil {
		return translateDBError(err, "delete implicit snapshots")
	}
	return nil
}
