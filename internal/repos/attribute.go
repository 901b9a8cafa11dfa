package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/planwatch/watch-backend/internal/logger"
	"github.com/planwatch/watch-backend/internal/types"
)

// AttributeValueRepo is the storage layer of the attribute value store: one
// method family per value table. Get methods return (nil, nil) when no row
// exists; Save methods upsert on the (type, object) key.
type AttributeValueRepo interface {
	GetChoice(ctx context.Context, tx *gorm.DB, typeID uuid.UUID, objectType types.ObjectKind, objectID uuid.UUID) (*types.AttributeChoice, error)
	SaveChoice(ctx context.Context, tx *gorm.DB, value *types.AttributeChoice) (*types.AttributeChoice, error)
	DeleteChoice(ctx context.Context, tx *gorm.DB, typeID uuid.UUID, objectType types.ObjectKind, objectID uuid.UUID) error
	ListChoicesForObject(ctx context.Context, tx *gorm.DB, objectType types.ObjectKind, objectID uuid.UUID) ([]*types.AttributeChoice, error)

	GetChoiceWithText(ctx context.Context, tx *gorm.DB, typeID uuid.UUID, objectType types.ObjectKind, objectID uuid.UUID) (*types.AttributeChoiceWithText, error)
	SaveChoiceWithText(ctx context.Context, tx *gorm.DB, value *types.AttributeChoiceWithText) (*types.AttributeChoiceWithText, error)
	DeleteChoiceWithText(ctx context.Context, tx *gorm.DB, typeID uuid.UUID, objectType types.ObjectKind, objectID uuid.UUID) error
	ListChoicesWithTextForObject(ctx context.Context, tx *gorm.DB, objectType types.ObjectKind, objectID uuid.UUID) ([]*types.AttributeChoiceWithText, error)

	GetCategoryChoice(ctx context.Context, tx *gorm.DB, typeID uuid.UUID, objectType types.ObjectKind, objectID uuid.UUID) (*types.AttributeCategoryChoice, error)
	SaveCategoryChoice(ctx context.Context, tx *gorm.DB, value *types.AttributeCategoryChoice, categories []*types.Category) (*types.AttributeCategoryChoice, error)
	DeleteCategoryChoice(ctx context.Context, tx *gorm.DB, typeID uuid.UUID, objectType types.ObjectKind, objectID uuid.UUID) error
	ListCategoryChoicesForObject(ctx context.Context, tx *gorm.DB, objectType types.ObjectKind, objectID uuid.UUID) ([]*types.AttributeCategoryChoice, error)

	GetText(ctx context.Context, tx *gorm.DB, typeID uuid.UUID, objectType types.ObjectKind, objectID uuid.UUID) (*types.AttributeText, error)
	SaveText(ctx context.Context, tx *gorm.DB, value *types.AttributeText) (*types.AttributeText, error)
	DeleteText(ctx context.Context, tx *gorm.DB, typeID uuid.UUID, objectType types.ObjectKind, objectID uuid.UUID) error
	ListTextsForObject(ctx context.Context, tx *gorm.DB, objectType types.ObjectKind, objectID uuid.UUID) ([]*types.AttributeText, error)

	GetRichText(ctx context.Context, tx *gorm.DB, typeID uuid.UUID, objectType types.ObjectKind, objectID uuid.UUID) (*types.AttributeRichText, error)
	SaveRichText(ctx context.Context, tx *gorm.DB, value *types.AttributeRichText) (*types.AttributeRichText, error)
	DeleteRichText(ctx context.Context, tx *gorm.DB, typeID uuid.UUID, objectType types.ObjectKind, objectID uuid.UUID) error
	ListRichTextsForObject(ctx context.Context, tx *gorm.DB, objectType types.ObjectKind, objectID uuid.UUID) ([]*types.AttributeRichText, error)

	GetNumeric(ctx context.Context, tx *gorm.DB, typeID uuid.UUID, objectType types.ObjectKind, objectID uuid.UUID) (*types.AttributeNumericValue, error)
	SaveNumeric(ctx context.Context, tx *gorm.DB, value *types.AttributeNumericValue) (*types.AttributeNumericValue, error)
	DeleteNumeric(ctx context.Context, tx *gorm.DB, typeID uuid.UUID, objectType types.ObjectKind, objectID uuid.UUID) error
	ListNumericsForObject(ctx context.Context, tx *gorm.DB, objectType types.ObjectKind, objectID uuid.UUID) ([]*types.AttributeNumericValue, error)
}

type attributeValueRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAttributeValueRepo(db *gorm.DB, baseLog *logger.Logger) AttributeValueRepo {
	repoLog := baseLog.With("repo", "AttributeValueRepo")
	return &attributeValueRepo{db: db, log: repoLog}
}

func (vr *attributeValueRepo) tx(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return vr.db
}

func objectScope(typeID uuid.UUID, objectType types.ObjectKind, objectID uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("type_id = ? AND object_type = ? AND object_id = ?", typeID, objectType, objectID)
	}
}

func (vr *attributeValueRepo) GetChoice(ctx context.Context, tx *gorm.DB, typeID uuid.UUID, objectType types.ObjectKind, objectID uuid.UUID) (*types.AttributeChoice, error) {
	var result types.AttributeChoice
	err := vr.tx(tx).WithContext(ctx).
		Scopes(objectScope(typeID, objectType, objectID)).
		First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translateDBError(err, "get choice value")
	}
	return &result, nil
}

func (vr *attributeValueRepo) SaveChoice(ctx context.Context, tx *gorm.DB, value *types.AttributeChoice) (*types.AttributeChoice, error) {
	existing, err := vr.GetChoice(ctx, tx, value.TypeID, value.ObjectType, value.ObjectID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		existing.ChoiceID = value.ChoiceID
		if err := vr.tx(tx).WithContext(ctx).Save(existing).Error; err != nil {
			return nil, translateDBError(err, "update choice value")
		}
		return existing, nil
	}
	if err := vr.tx(tx).WithContext(ctx).Create(value).Error; err != nil {
		return nil, translateDBError(err, "create choice value")
	}
	return value, nil
}

func (vr *attributeValueRepo) DeleteChoice(ctx context.Context, tx *gorm.DB, typeID uuid.UUID, objectType types.ObjectKind, objectID uuid.UUID) error {
	if err := vr.tx(tx).WithContext(ctx).
		Scopes(objectScope(typeID, objectType, objectID)).
		Delete(&types.AttributeChoice{}).Error; err != nil {
		return translateDBError(err, "delete choice value")
	}
	return nil
}

func (vr *attributeValueRepo) ListChoicesForObject(ctx context.Context, tx *gorm.DB, objectType types.ObjectKind, objectID uuid.UUID) ([]*types.AttributeChoice, error) {
	var results []*types.AttributeChoice
	if err := vr.tx(tx).WithContext(ctx).
		Preload("Choice").
		Where("object_type = ? AND object_id = ?", objectType, objectID).
		Find(&results).Error; err != nil {
		return nil, translateDBError(err, "list choice values")
	}
	return results, nil
}

func (vr *attributeValueRepo) GetChoiceWithText(ctx context.Context, tx *gorm.DB, typeID uuid.UUID, objectType types.ObjectKind, objectID uuid.UUID) (*types.AttributeChoiceWithText, error) {
	var result types.AttributeChoiceWithText
	err := vr.tx(tx).WithContext(ctx).
		Scopes(objectScope(typeID, objectType, objectID)).
		First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translateDBError(err, "get choice with text value")
	}
	return &result, nil
}

func (vr *attributeValueRepo) SaveChoiceWithText(ctx context.Context, tx *gorm.DB, value *types.AttributeChoiceWithText) (*types.AttributeChoiceWithText, error) {
	existing, err := vr.GetChoiceWithText(ctx, tx, value.TypeID, value.ObjectType, value.ObjectID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		existing.ChoiceID = value.ChoiceID
		existing.Text = value.Text
		if err := vr.tx(tx).WithContext(ctx).Save(existing).Error; err != nil {
			return nil, translateDBError(err, "update choice with text value")
		}
		return existing, nil
	}
	if err := vr.tx(tx).WithContext(ctx).Create(value).Error; err != nil {
		return nil, translateDBError(err, "create choice with text value")
	}
	return value, nil
}

func (vr *attributeValueRepo) DeleteChoiceWithText(ctx context.Context, tx *gorm.DB, typeID uuid.UUID, objectType types.ObjectKind, objectID uuid.UUID) error {
	if err := vr.tx(tx).WithContext(ctx).
		Scopes(objectScope(typeID, objectType, objectID)).
		Delete(&types.AttributeChoiceWithText{}).Error; err != nil {
		return translateDBError(err, "delete choice with text value")
	}
	return nil
}

func (vr *attributeValueRepo) ListChoicesWithTextForObject(ctx context.Context, tx *gorm.DB, objectType types.ObjectKind, objectID uuid.UUID) ([]*types.AttributeChoiceWithText, error) {
	var results []*types.AttributeChoiceWithText
	if err := vr.tx(tx).WithContext(ctx).
		Preload("Choice").
		Where("object_type = ? AND object_id = ?", objectType, objectID).
		Find(&results).Error; err != nil {
		return nil, translateDBError(err, "list choice with text values")
	}
	return results, nil
}

func (vr *attributeValueRepo) GetCategoryChoice(ctx context.Context, tx *gorm.DB, typeID uuid.UUID, objectType types.ObjectKind, objectID uuid.UUID) (*types.AttributeCategoryChoice, error) {
	var result types.AttributeCategoryChoice
	err := vr.tx(tx).WithContext(ctx).
		Preload("Categories").
		Scopes(objectScope(typeID, objectType, objectID)).
		First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translateDBError(err, "get category choice value")
	}
	return &result, nil
}

func (vr *attributeValueRepo) SaveCategoryChoice(ctx context.Context, tx *gorm.DB, value *types.AttributeCategoryChoice, categories []*types.Category) (*types.AttributeCategoryChoice, error) {
	transaction := vr.tx(tx)

	existing, err := vr.GetCategoryChoice(ctx, tx, value.TypeID, value.ObjectType, value.ObjectID)
	if err != nil {
		return nil, err
	}
	row := existing
	if row == nil {
		row = value
		if err := transaction.WithContext(ctx).Omit("Categories").Create(row).Error; err != nil {
			return nil, translateDBError(err, "create category choice value")
		}
	}

	if err := transaction.WithContext(ctx).
		Model(row).
		Association("Categories").
		Replace(categories); err != nil {
		return nil, translateDBError(err, "replace category choice categories")
	}

	row.Categories = make([]types.Category, 0, len(categories))
	for _, c := range categories {
		row.Categories = append(row.Categories, *c)
	}
	return row, nil
}

func (vr *attributeValueRepo) DeleteCategoryChoice(ctx context.Context, tx *gorm.DB, typeID uuid.UUID, objectType types.ObjectKind, objectID uuid.UUID) error {
	transaction := vr.tx(tx)

	existing, err := vr.GetCategoryChoice(ctx, tx, typeID, objectType, objectID)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Model(existing).
		Association("Categories").
		Clear(); err != nil {
		return translateDBError(err, "clear category choice categories")
	}
	if err := transaction.WithContext(ctx).
		Delete(existing).Error; err != nil {
		return translateDBError(err, "delete category choice value")
	}
	return nil
}

func (vr *attributeValueRepo) ListCategoryChoicesForObject(ctx context.Context, tx *gorm.DB, objectType types.ObjectKind, objectID uuid.UUID) ([]*types.AttributeCategoryChoice, error) {
	var results []*types.AttributeCategoryChoice
	if err := vr.tx(tx).WithContext(ctx).
		Preload("Categories").
		Where("object_type = ? AND object_id = ?", objectType, objectID).
		Find(&results).Error; err != nil {
		return nil, translateDBError(err, "list category choice values")
	}
	return results, nil
}

func (vr *attributeValueRepo) GetText(ctx context.Context, tx *gorm.DB, typeID uuid.UUID, objectType types.ObjectKind, objectID uuid.UUID) (*types.AttributeText, error) {
	var result types.AttributeText
	err := vr.tx(tx).WithContext(ctx).
		Scopes(objectScope(typeID, objectType, objectID)).
		First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translateDBError(err, "get text value")
	}
	return &result, nil
}

func (vr *attributeValueRepo) SaveText(ctx context.Context, tx *gorm.DB, value *types.AttributeText) (*types.AttributeText, error) {
	existing, err := vr.GetText(ctx, tx, value.TypeID, value.ObjectType, value.ObjectID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		existing.Text = value.Text
		if err := vr.tx(tx).WithContext(ctx).Save(existing).Error; err != nil {
			return nil, translateDBError(err, "update text value")
		}
		return existing, nil
	}
	if err := vr.tx(tx).WithContext(ctx).Create(value).Error; err != nil {
		return nil, translateDBError(err, "create text value")
	}
	return value, nil
}

func (vr *attributeValueRepo) DeleteText(ctx context.Context, tx *gorm.DB, typeID uuid.UUID, objectType types.ObjectKind, objectID uuid.UUID) error {
	if err := vr.tx(tx).WithContext(ctx).
		Scopes(objectScope(typeID, objectType, objectID)).
		Delete(&types.AttributeText{}).Error; err != nil {
		return translateDBError(err, "delete text value")
	}
	return nil
}

func (vr *attributeValueRepo) ListTextsForObject(ctx context.Context, tx *gorm.DB, objectType types.ObjectKind, objectID uuid.UUID) ([]*types.AttributeText, error) {
	var results []*types.AttributeText
	if err := vr.tx(tx).WithContext(ctx).
		Where("object_type = ? AND object_id = ?", objectType, objectID).
		Find(&results).Error; err != nil {
		return nil, translateDBError(err, "list text values")
	}
	return results, nil
}

func (vr *attributeValueRepo) GetRichText(ctx context.Context, tx *gorm.DB, typeID uuid.UUID, objectType types.ObjectKind, objectID uuid.UUID) (*types.AttributeRichText, error) {
	var result types.AttributeRichText
	err := vr.tx(tx).WithContext(ctx).
		Scopes(objectScope(typeID, objectType, objectID)).
		First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translateDBError(err, "get rich text value")
	}
	return &result, nil
}

func (vr *attributeValueRepo) SaveRichText(ctx context.Context, tx *gorm.DB, value *types.AttributeRichText) (*types.AttributeRichText, error) {
	existing, err := vr.GetRichText(ctx, tx, value.TypeID, value.ObjectType, value.ObjectID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		existing.Text = value.Text
		if err := vr.tx(tx).WithContext(ctx).Save(existing).Error; err != nil {
			return nil, translateDBError(err, "update rich text value")
		}
		return existing, nil
	}
	if err := vr.tx(tx).WithContext(ctx).Create(value).Error; err != nil {
		return nil, translateDBError(err, "create rich text value")
	}
	return value, nil
}

func (vr *attributeValueRepo) DeleteRichText(ctx context.Context, tx *gorm.DB, typeID uuid.UUID, objectType types.ObjectKind, objectID uuid.UUID) error {
	if err := vr.tx(tx).WithContext(ctx).
		Scopes(objectScope(typeID, objectType, objectID)).
		Delete(&types.AttributeRichText{}).Error; err != nil {
		return translateDBError(err, "delete rich text value")
	}
	return nil
}

func (vr *attributeValueRepo) ListRichTextsForObject(ctx context.Context, tx *gorm.DB, objectType types.ObjectKind, objectID uuid.UUID) ([]*types.AttributeRichText, error) {
	var results []*types.AttributeRichText
	if err := vr.tx(tx).WithContext(ctx).
		Where("object_type = ? AND object_id = ?", objectType, objectID).
		Find(&results).Error; err != nil {
		return nil, translateDBError(err, "list rich text values")
	}
	return results, nil
}

func (vr *attributeValueRepo) GetNumeric(ctx context.Context, tx *gorm.DB, typeID uuid.UUID, objectType types.ObjectKind, objectID uuid.UUID) (*types.AttributeNumericValue, error) {
	var result types.AttributeNumericValue
	err := vr.tx(tx).WithContext(ctx).
		Scopes(objectScope(typeID, objectType, objectID)).
		First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translateDBError(err, "get numeric value")
	}
	return &result, nil
}

func (vr *attributeValueRepo) SaveNumeric(ctx context.Context, tx *gorm.DB, value *types.AttributeNumericValue) (*types.AttributeNumericValue, error) {
	existing, err := vr.GetNumeric(ctx, tx, value.TypeID, value.ObjectType, value.ObjectID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		existing.Value = value.Value
		if err := vr.tx(tx).WithContext(ctx).Save(existing).Error; err != nil {
			return nil, translateDBError(err, "update numeric value")
		}
		return existing, nil
	}
	if err := vr.tx(tx).WithContext(ctx).Create(value).Error; err != nil {
		return nil, translateDBError(err, "create numeric value")
	}
	return value, nil
}

func (vr *attributeValueRepo) DeleteNumeric(ctx context.Context, tx *gorm.DB, typeID uuid.UUID, objectType types.ObjectKind, objectID uuid.UUID) error {
	if err := vr.tx(tx).WithContext(ctx).
		Scopes(objectScope(typeID, objectType, objectID)).
		Delete(&types.AttributeNumericValue{}).Error; err != nil {
		return translateDBError(err, "delete numeric value")
	}
	return nil
}

func (vr *attributeValueRepo) ListNumericsForObject(ctx context.Context, tx *gorm.DB, objectType types.ObjectKind, objectID uuid.UUID) ([]*types.AttributeNumericValue, error) {
	var results []*types.AttributeNumericValue
	if err := vr.tx(tx).WithContext(ctx).
		Where("object_type = ? AND object_id = ?", objectType, objectID).
		Find(&results).Error; err != nil {
		return nil, translateDBError(err, "list numeric values")
	}
	return results, nil
}
