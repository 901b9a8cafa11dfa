package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/planwatch/watch-backend/internal/logger"
	"github.com/planwatch/watch-backend/internal/types"
)

type AttributeTypeRepo interface {
	Create(ctx context.Context, tx *gorm.DB, attributeTypes []*types.AttributeType) ([]*types.AttributeType, error)
	Update(ctx context.Context, tx *gorm.DB, attributeType *types.AttributeType) (*types.AttributeType, error)
	GetByID(ctx context.Context, tx *gorm.DB, typeID uuid.UUID) (*types.AttributeType, error)
	GetByIdentifier(ctx context.Context, tx *gorm.DB, objectType types.ObjectKind, scopeType types.ScopeKind, scopeID uuid.UUID, identifier string) (*types.AttributeType, error)
	List(ctx context.Context, tx *gorm.DB, objectType types.ObjectKind, scopeType types.ScopeKind, scopeID uuid.UUID) ([]*types.AttributeType, error)
	SetSortOrder(ctx context.Context, tx *gorm.DB, typeID uuid.UUID, sortOrder int) error
	Delete(ctx context.Context, tx *gorm.DB, typeID uuid.UUID) error
	CreateChoiceOptions(ctx context.Context, tx *gorm.DB, options []*types.AttributeTypeChoiceOption) ([]*types.AttributeTypeChoiceOption, error)
	GetChoiceOptionByID(ctx context.Context, tx *gorm.DB, optionID uuid.UUID) (*types.AttributeTypeChoiceOption, error)
	ListChoiceOptions(ctx context.Context, tx *gorm.DB, typeID uuid.UUID) ([]*types.AttributeTypeChoiceOption, error)
}

type attributeTypeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAttributeTypeRepo(db *gorm.DB, baseLog *logger.Logger) AttributeTypeRepo {
	repoLog := baseLog.With("repo", "AttributeTypeRepo")
	return &attributeTypeRepo{db: db, log: repoLog}
}

func (ar *attributeTypeRepo) Create(ctx context.Context, tx *gorm.DB, attributeTypes []*types.AttributeType) ([]*types.AttributeType, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	if len(attributeTypes) == 0 {
		return []*types.AttributeType{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&attributeTypes).Error; err != nil {
		return nil, translateDBError(err, "create attribute types")
	}
	return attributeTypes, nil
}

func (ar *attributeTypeRepo) Update(ctx context.Context, tx *gorm.DB, attributeType *types.AttributeType) (*types.AttributeType, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	if err := transaction.WithContext(ctx).
		Omit("ChoiceOptions").
		Save(attributeType).Error; err != nil {
		return nil, translateDBError(err, "update attribute type")
	}
	return attributeType, nil
}

func (ar *attributeTypeRepo) GetByID(ctx context.Context, tx *gorm.DB, typeID uuid.UUID) (*types.AttributeType, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	var result types.AttributeType
	if err := transaction.WithContext(ctx).
		Preload("ChoiceOptions", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, identifier ASC")
		}).
		Where("id = ?", typeID).
		First(&result).Error; err != nil {
		return nil, translateDBError(err, "get attribute type")
	}
	return &result, nil
}

func (ar *attributeTypeRepo) GetByIdentifier(ctx context.Context, tx *gorm.DB, objectType types.ObjectKind, scopeType types.ScopeKind, scopeID uuid.UUID, identifier string) (*types.AttributeType, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	var result types.AttributeType
	if err := transaction.WithContext(ctx).
		Preload("ChoiceOptions", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, identifier ASC")
		}).
		Where("object_type = ? AND scope_type = ? AND scope_id = ? AND identifier = ?",
			objectType, scopeType, scopeID, identifier).
		First(&result).Error; err != nil {
		return nil, translateDBError(err, "get attribute type by identifier")
	}
	return &result, nil
}

func (ar *attributeTypeRepo) List(ctx context.Context, tx *gorm.DB, objectType types.ObjectKind, scopeType types.ScopeKind, scopeID uuid.UUID) ([]*types.AttributeType, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	var results []*types.AttributeType
	if err := transaction.WithContext(ctx).
		Preload("ChoiceOptions", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, identifier ASC")
		}).
		Where("object_type = ? AND scope_type = ? AND scope_id = ?", objectType, scopeType, scopeID).
		Order("sort_order ASC, identifier ASC").
		Find(&results).Error; err != nil {
		return nil, translateDBError(err, "list attribute types")
	}
	return results, nil
}

func (ar *attributeTypeRepo) SetSortOrder(ctx context.Context, tx *gorm.DB, typeID uuid.UUID, sortOrder int) error {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	if err := transaction.WithContext(ctx).
		Model(&types.AttributeType{}).
		Where("id = ?", typeID).
		Update("sort_order", sortOrder).Error; err != nil {
		return translateDBError(err, "set attribute type sort order")
	}
	return nil
}

func (ar *attributeTypeRepo) Delete(ctx context.Context, tx *gorm.DB, typeID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	if err := transaction.WithContext(ctx).
		Where("id = ?", typeID).
		Delete(&types.AttributeType{}).Error; err != nil {
		return translateDBError(err, "delete attribute type")
	}
	return nil
}

func (ar *attributeTypeRepo) CreateChoiceOptions(ctx context.Context, tx *gorm.DB, options []*types.AttributeTypeChoiceOption) ([]*types.AttributeTypeChoiceOption, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	if len(options) == 0 {
		return []*types.AttributeTypeChoiceOption{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&options).Error; err != nil {
		return nil, translateDBError(err, "create choice options")
	}
	return options, nil
}

func (ar *attributeTypeRepo) GetChoiceOptionByID(ctx context.Context, tx *gorm.DB, optionID uuid.UUID) (*types.AttributeTypeChoiceOption, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	var result types.AttributeTypeChoiceOption
	if err := transaction.WithContext(ctx).
		Where("id = ?", optionID).
		First(&result).Error; err != nil {
		return nil, translateDBError(err, "get choice option")
	}
	return &result, nil
}

func (ar *attributeTypeRepo) ListChoiceOptions(ctx context.Context, tx *gorm.DB, typeID uuid.UUID) ([]*types.AttributeTypeChoiceOption, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	var results []*types.AttributeTypeChoiceOption
	if err := transaction.WithContext(ctx).
		Where("type_id = ?", typeID).
		Order("sort_order ASC, identifier ASC").
		Find(&results).Error; err != nil {
		return nil, translateDBError(err, "list choice options")
	}
	return results, nil
}
