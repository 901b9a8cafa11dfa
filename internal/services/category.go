package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/planwatch/watch-backend/internal/logger"
	"github.com/planwatch/watch-backend/internal/repos"
	"github.com/planwatch/watch-backend/internal/types"
	"github.com/planwatch/watch-backend/internal/utils"
	"github.com/planwatch/watch-backend/internal/watcherr"
)

// maxCategoryDepth bounds parent chain walks for types without declared
// levels.
const maxCategoryDepth = 64

type CreateCategoryInput struct {
	TypeID           uuid.UUID
	Identifier       string
	Name             string
	ParentID         *uuid.UUID
	ShortDescription string
	Color            string
}

type CategoryService interface {
	CreateType(ctx context.Context, categoryType *types.CategoryType) (*types.CategoryType, error)
	GetType(ctx context.Context, typeID uuid.UUID) (*types.CategoryType, error)
	ListTypes(ctx context.Context, planID uuid.UUID) ([]*types.CategoryType, error)
	AddLevel(ctx context.Context, typeID uuid.UUID, name string) (*types.CategoryLevel, error)
	Create(ctx context.Context, input CreateCategoryInput) (*types.Category, error)
	Move(ctx context.Context, categoryID uuid.UUID, newParentID *uuid.UUID) (*types.Category, error)
	ListForType(ctx context.Context, typeID uuid.UUID) ([]*types.Category, error)
	ReorderSiblings(ctx context.Context, typeID uuid.UUID, parentID *uuid.UUID, orderedIDs []uuid.UUID) error
	Depth(ctx context.Context, categoryID uuid.UUID) (int, error)
}

type categoryService struct {
	db      *gorm.DB
	catRepo repos.CategoryRepo
	log     *logger.Logger
}

func NewCategoryService(db *gorm.DB, catRepo repos.CategoryRepo, baseLog *logger.Logger) CategoryService {
	serviceLog := baseLog.With("service", "CategoryService")
	return &categoryService{db: db, catRepo: catRepo, log: serviceLog}
}

func (cs *categoryService) CreateType(ctx context.Context, categoryType *types.CategoryType) (*types.CategoryType, error) {
	if err := utils.ValidateIdentifier(categoryType.Identifier); err != nil {
		return nil, watcherr.Wrap(watcherr.KindConstraintViolation, err, "category type identifier")
	}
	if categoryType.Name == "" {
		return nil, watcherr.ConstraintViolation("category type name must not be empty")
	}
	if categoryType.SelectWidget == "" {
		categoryType.SelectWidget = types.SelectWidgetSingle
	}
	created, err := cs.catRepo.CreateTypes(ctx, nil, []*types.CategoryType{categoryType})
	if err != nil {
		return nil, err
	}
	return created[0], nil
}

func (cs *categoryService) GetType(ctx context.Context, typeID uuid.UUID) (*types.CategoryType, error) {
	return cs.catRepo.GetTypeByID(ctx, nil, typeID)
}

func (cs *categoryService) ListTypes(ctx context.Context, planID uuid.UUID) ([]*types.CategoryType, error) {
	return cs.catRepo.ListTypes(ctx, nil, planID)
}

func (cs *categoryService) AddLevel(ctx context.Context, typeID uuid.UUID, name string) (*types.CategoryLevel, error) {
	if name == "" {
		return nil, watcherr.ConstraintViolation("category level name must not be empty")
	}
	existing, err := cs.catRepo.ListLevels(ctx, nil, typeID)
	if err != nil {
		return nil, err
	}
	level := &types.CategoryLevel{TypeID: typeID, Name: name, SortOrder: len(existing)}
	created, err := cs.catRepo.CreateLevels(ctx, nil, []*types.CategoryLevel{level})
	if err != nil {
		return nil, err
	}
	return created[0], nil
}

func (cs *categoryService) Create(ctx context.Context, input CreateCategoryInput) (*types.Category, error) {
	if err := utils.ValidateIdentifier(input.Identifier); err != nil {
		return nil, watcherr.Wrap(watcherr.KindConstraintViolation, err, "category identifier")
	}
	if input.Name == "" {
		return nil, watcherr.ConstraintViolation("category name must not be empty")
	}

	if input.ParentID != nil {
		parent, err := cs.catRepo.GetCategoryByID(ctx, nil, *input.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.TypeID != input.TypeID {
			return nil, watcherr.ConstraintViolation("parent category %s belongs to a different category type", parent.Identifier)
		}
		if err := cs.checkDepth(ctx, input.TypeID, *input.ParentID); err != nil {
			return nil, err
		}
	}

	siblings, err := cs.siblings(ctx, input.TypeID, input.ParentID)
	if err != nil {
		return nil, err
	}

	category := &types.Category{
		TypeID:           input.TypeID,
		Identifier:       input.Identifier,
		Name:             input.Name,
		ParentID:         input.ParentID,
		ShortDescription: input.ShortDescription,
		Color:            input.Color,
		SortOrder:        len(siblings),
	}
	created, err := cs.catRepo.CreateCategories(ctx, nil, []*types.Category{category})
	if err != nil {
		return nil, err
	}
	return created[0], nil
}

// Move reparents a category, rejecting moves that would create a cycle or
// cross into another type's forest.
func (cs *categoryService) Move(ctx context.Context, categoryID uuid.UUID, newParentID *uuid.UUID) (*types.Category, error) {
	category, err := cs.catRepo.GetCategoryByID(ctx, nil, categoryID)
	if err != nil {
		return nil, err
	}

	if newParentID != nil {
		if *newParentID == categoryID {
			return nil, watcherr.ConstraintViolation("category cannot be its own parent")
		}
		parent, err := cs.catRepo.GetCategoryByID(ctx, nil, *newParentID)
		if err != nil {
			return nil, err
		}
		if parent.TypeID != category.TypeID {
			return nil, watcherr.ConstraintViolation("parent category %s belongs to a different category type", parent.Identifier)
		}
		// Walk up from the new parent; hitting the moved category means a
		// cycle.
		cursor := parent
		for steps := 0; cursor.ParentID != nil; steps++ {
			if steps >= maxCategoryDepth {
				return nil, watcherr.ConstraintViolation("category parent chain exceeds maximum depth")
			}
			if *cursor.ParentID == categoryID {
				return nil, watcherr.ConstraintViolation("move would create a cycle through category %s", category.Identifier)
			}
			cursor, err = cs.catRepo.GetCategoryByID(ctx, nil, *cursor.ParentID)
			if err != nil {
				return nil, err
			}
		}
	}

	category.ParentID = newParentID
	return cs.catRepo.UpdateCategory(ctx, nil, category)
}

func (cs *categoryService) ListForType(ctx context.Context, typeID uuid.UUID) ([]*types.Category, error) {
	return cs.catRepo.ListCategories(ctx, nil, typeID)
}

// ReorderSiblings assigns contiguous sort orders among the children of one
// parent (or the roots of the forest when parentID is nil). The forest
// shape is untouched.
func (cs *categoryService) ReorderSiblings(ctx context.Context, typeID uuid.UUID, parentID *uuid.UUID, orderedIDs []uuid.UUID) error {
	siblings, err := cs.siblings(ctx, typeID, parentID)
	if err != nil {
		return err
	}
	if len(orderedIDs) != len(siblings) {
		return watcherr.ConstraintViolation("reorder list has %d entries, parent has %d children", len(orderedIDs), len(siblings))
	}
	byID := make(map[uuid.UUID]*types.Category, len(siblings))
	for _, sibling := range siblings {
		byID[sibling.ID] = sibling
	}

	return cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for position, id := range orderedIDs {
			sibling, ok := byID[id]
			if !ok {
				return watcherr.ConstraintViolation("category %s is not a child of this parent", id)
			}
			sibling.SortOrder = position
			if _, err := cs.catRepo.UpdateCategory(ctx, tx, sibling); err != nil {
				return err
			}
		}
		return nil
	})
}

// Depth returns how many parents sit above the category.
func (cs *categoryService) Depth(ctx context.Context, categoryID uuid.UUID) (int, error) {
	category, err := cs.catRepo.GetCategoryByID(ctx, nil, categoryID)
	if err != nil {
		return 0, err
	}
	depth := 0
	for category.ParentID != nil {
		if depth >= maxCategoryDepth {
			return 0, watcherr.ConstraintViolation("category parent chain exceeds maximum depth")
		}
		category, err = cs.catRepo.GetCategoryByID(ctx, nil, *category.ParentID)
		if err != nil {
			return 0, err
		}
		depth++
	}
	return depth, nil
}

func (cs *categoryService) siblings(ctx context.Context, typeID uuid.UUID, parentID *uuid.UUID) ([]*types.Category, error) {
	if parentID != nil {
		return cs.catRepo.ListChildren(ctx, nil, *parentID)
	}
	all, err := cs.catRepo.ListCategories(ctx, nil, typeID)
	if err != nil {
		return nil, err
	}
	roots := make([]*types.Category, 0, len(all))
	for _, category := range all {
		if category.ParentID == nil {
			roots = append(roots, category)
		}
	}
	return roots, nil
}

// checkDepth rejects a new child whose chain would exceed the type's
// declared level count.
func (cs *categoryService) checkDepth(ctx context.Context, typeID, parentID uuid.UUID) error {
	levels, err := cs.catRepo.ListLevels(ctx, nil, typeID)
	if err != nil {
		return err
	}
	if len(levels) == 0 {
		return nil
	}
	depth, err := cs.Depth(ctx, parentID)
	if err != nil {
		return err
	}
	// The new category would sit at depth+1 (zero-based).
	if depth+1 >= len(levels) {
		return watcherr.ConstraintViolation("category type declares %d levels; cannot nest deeper", len(levels))
	}
	return nil
}
