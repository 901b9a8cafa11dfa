package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/planwatch/watch-backend/internal/logger"
	"github.com/planwatch/watch-backend/internal/types"
)

type CategoryRepo interface {
	CreateTypes(ctx context.Context, tx *gorm.DB, categoryTypes []*types.CategoryType) ([]*types.CategoryType, error)
	GetTypeByID(ctx context.Context, tx *gorm.DB, typeID uuid.UUID) (*types.CategoryType, error)
	ListTypes(ctx context.Context, tx *gorm.DB, planID uuid.UUID) ([]*types.CategoryType, error)
	CreateLevels(ctx context.Context, tx *gorm.DB, levels []*types.CategoryLevel) ([]*types.CategoryLevel, error)
	ListLevels(ctx context.Context, tx *gorm.DB, typeID uuid.UUID) ([]*types.CategoryLevel, error)
	CreateCategories(ctx context.Context, tx *gorm.DB, categories []*types.Category) ([]*types.Category, error)
	GetCategoryByID(ctx context.Context, tx *gorm.DB, categoryID uuid.UUID) (*types.Category, error)
	GetCategoriesByIDs(ctx context.Context, tx *gorm.DB, categoryIDs []uuid.UUID) ([]*types.Category, error)
	ListCategories(ctx context.Context, tx *gorm.DB, typeID uuid.UUID) ([]*types.Category, error)
	ListChildren(ctx context.Context, tx *gorm.DB, parentID uuid.UUID) ([]*types.Category, error)
	UpdateCategory(ctx context.Context, tx *gorm.DB, category *types.Category) (*types.Category, error)
}

type categoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCategoryRepo(db *gorm.DB, baseLog *logger.Logger) CategoryRepo {
	repoLog := baseLog.With("repo", "CategoryRepo")
	return &categoryRepo{db: db, log: repoLog}
}

func (cr *categoryRepo) CreateTypes(ctx context.Context, tx *gorm.DB, categoryTypes []*types.CategoryType) ([]*types.CategoryType, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	if len(categoryTypes) == 0 {
		return []*types.CategoryType{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&categoryTypes).Error; err != nil {
		return nil, translateDBError(err, "create category types")
	}
	return categoryTypes, nil
}

func (cr *categoryRepo) GetTypeByID(ctx context.Context, tx *gorm.DB, typeID uuid.UUID) (*types.CategoryType, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var result types.CategoryType
	if err := transaction.WithContext(ctx).
		Where("id = ?", typeID).
		First(&result).Error; err != nil {
		return nil, translateDBError(err, "get category type")
	}
	return &result, nil
}

func (cr *categoryRepo) ListTypes(ctx context.Context, tx *gorm.DB, planID uuid.UUID) ([]*types.CategoryType, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var results []*types.CategoryType
	if err := transaction.WithContext(ctx).
		Where("plan_id = ?", planID).
		Order("identifier ASC").
		Find(&results).Error; err != nil {
		return nil, translateDBError(err, "list category types")
	}
	return results, nil
}

func (cr *categoryRepo) CreateLevels(ctx context.Context, tx *gorm.DB, levels []*types.CategoryLevel) ([]*types.CategoryLevel, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	if len(levels) == 0 {
		return []*types.CategoryLevel{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&levels).Error; err != nil {
		return nil, translateDBError(err, "create category levels")
	}
	return levels, nil
}

func (cr *categoryRepo) ListLevels(ctx context.Context, tx *gorm.DB, typeID uuid.UUID) ([]*types.CategoryLevel, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var results []*types.CategoryLevel
	if err := transaction.WithContext(ctx).
		Where("type_id = ?", typeID).
		Order("sort_order ASC").
		Find(&results).Error; err != nil {
		return nil, translateDBError(err, "list category levels")
	}
	return results, nil
}

func (cr *categoryRepo) CreateCategories(ctx context.Context, tx *gorm.DB, categories []*types.Category) ([]*types.Category, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	if len(categories) == 0 {
		return []*types.Category{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&categories).Error; err != nil {
		return nil, translateDBError(err, "create categories")
	}
	return categories, nil
}

func (cr *categoryRepo) GetCategoryByID(ctx context.Context, tx *gorm.DB, categoryID uuid.UUID) (*types.Category, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var result types.Category
	if err := transaction.WithContext(ctx).
		Where("id = ?", categoryID).
		First(&result).Error; err != nil {
		return nil, translateDBError(err, "get category")
	}
	return &result, nil
}

func (cr *categoryRepo) GetCategoriesByIDs(ctx context.Context, tx *gorm.DB, categoryIDs []uuid.UUID) ([]*types.Category, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var results []*types.Category
	if len(categoryIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", categoryIDs).
		Find(&results).Error; err != nil {
		return nil, translateDBError(err, "get categories")
	}
	return results, nil
}

func (cr *categoryRepo) ListCategories(ctx context.Context, tx *gorm.DB, typeID uuid.UUID) ([]*types.Category, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var results []*types.Category
	if err := transaction.WithContext(ctx).
		Where("type_id = ?", typeID).
		Order("sort_order ASC, identifier ASC").
		Find(&results).Error; err != nil {
		return nil, translateDBError(err, "list categories")
	}
	return results, nil
}

func (cr *categoryRepo) ListChildren(ctx context.Context, tx *gorm.DB, parentID uuid.UUID) ([]*types.Category, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var results []*types.Category
	if err := transaction.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order("sort_order ASC, identifier ASC").
		Find(&results).Error; err != nil {
		return nil, translateDBError(err, "list child categories")
	}
	return results, nil
}

func (cr *categoryRepo) UpdateCategory(ctx context.Context, tx *gorm.DB, category *types.Category) (*types.Category, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	if err := transaction.WithContext(ctx).Save(category).Error; err != nil {
		return nil, translateDBError(err, "update category")
	}
	return category, nil
}
