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

// CreateAttributeTypeInput carries everything needed to declare a new
// attribute type in a scope.
type CreateAttributeTypeInput struct {
	ObjectType types.ObjectKind
	ScopeType  types.ScopeKind
	ScopeID    uuid.UUID
	Identifier string
	Name       types.LocalizedText
	HelpText   types.LocalizedText
	Format     types.AttributeFormat

	UnitID                  *uuid.UUID
	AttributeCategoryTypeID *uuid.UUID
	MaxLength               *int

	InstancesVisibleFor types.VisibleFor
	InstancesEditableBy types.EditableBy

	ShowChoiceNames bool
	HasZeroOption   bool
}

type AttributeTypeService interface {
	TypesFor(ctx context.Context, objectType types.ObjectKind, scopeType types.ScopeKind, scopeID uuid.UUID) ([]*types.AttributeType, error)
	GetByID(ctx context.Context, typeID uuid.UUID) (*types.AttributeType, error)
	Create(ctx context.Context, tx *gorm.DB, input CreateAttributeTypeInput) (*types.AttributeType, error)
	Update(ctx context.Context, attributeType *types.AttributeType) (*types.AttributeType, error)
	Delete(ctx context.Context, typeID uuid.UUID) error
	AddChoiceOption(ctx context.Context, tx *gorm.DB, typeID uuid.UUID, identifier string, name types.LocalizedText) (*types.AttributeTypeChoiceOption, error)
	Reorder(ctx context.Context, objectType types.ObjectKind, scopeType types.ScopeKind, scopeID uuid.UUID, orderedIDs []uuid.UUID) error
}

type attributeTypeService struct {
	db         *gorm.DB
	typeRepo   repos.AttributeTypeRepo
	planRepo   repos.PlanRepo
	catRepo    repos.CategoryRepo
	reportRepo repos.ReportRepo
	log        *logger.Logger
}

func NewAttributeTypeService(db *gorm.DB, typeRepo repos.AttributeTypeRepo, planRepo repos.PlanRepo, catRepo repos.CategoryRepo, reportRepo repos.ReportRepo, baseLog *logger.Logger) AttributeTypeService {
	serviceLog := baseLog.With("service", "AttributeTypeService")
	return &attributeTypeService{
		db:         db,
		typeRepo:   typeRepo,
		planRepo:   planRepo,
		catRepo:    catRepo,
		reportRepo: reportRepo,
		log:        serviceLog,
	}
}

// validScopePairing: action attributes hang off a plan, category attributes
// off a category type.
func validScopePairing(objectType types.ObjectKind, scopeType types.ScopeKind) bool {
	switch objectType {
	case types.ObjectKindAction:
		return scopeType == types.ScopeKindPlan
	case types.ObjectKindCategory:
		return scopeType == types.ScopeKindCategoryType
	}
	return false
}

func (ats *attributeTypeService) TypesFor(ctx context.Context, objectType types.ObjectKind, scopeType types.ScopeKind, scopeID uuid.UUID) ([]*types.AttributeType, error) {
	if !validScopePairing(objectType, scopeType) {
		return nil, watcherr.ConstraintViolation("scope %s cannot own %s attribute types", scopeType, objectType)
	}
	return ats.typeRepo.List(ctx, nil, objectType, scopeType, scopeID)
}

func (ats *attributeTypeService) GetByID(ctx context.Context, typeID uuid.UUID) (*types.AttributeType, error) {
	return ats.typeRepo.GetByID(ctx, nil, typeID)
}

func (ats *attributeTypeService) Create(ctx context.Context, tx *gorm.DB, input CreateAttributeTypeInput) (*types.AttributeType, error) {
	if !validScopePairing(input.ObjectType, input.ScopeType) {
		return nil, watcherr.ConstraintViolation("scope %s cannot own %s attribute types", input.ScopeType, input.ObjectType)
	}
	if err := utils.ValidateIdentifier(input.Identifier); err != nil {
		return nil, watcherr.Wrap(watcherr.KindConstraintViolation, err, "attribute type identifier")
	}
	if !input.Format.Valid() {
		return nil, watcherr.UnsupportedFormat("unknown attribute format %q", input.Format)
	}
	if input.Name.IsEmpty() {
		return nil, watcherr.ConstraintViolation("attribute type name must not be empty")
	}

	if input.Format == types.FormatNumeric && input.UnitID == nil {
		return nil, watcherr.ConstraintViolation("numeric attribute types require a unit")
	}
	if input.Format != types.FormatNumeric && input.UnitID != nil {
		return nil, watcherr.ConstraintViolation("only numeric attribute types carry a unit")
	}
	if input.Format == types.FormatCategoryChoice && input.AttributeCategoryTypeID == nil {
		return nil, watcherr.ConstraintViolation("category choice attribute types require a category type")
	}
	if input.Format != types.FormatCategoryChoice && input.AttributeCategoryTypeID != nil {
		return nil, watcherr.ConstraintViolation("only category choice attribute types carry a category type")
	}

	plan, err := ats.planForScope(ctx, tx, input.ScopeType, input.ScopeID)
	if err != nil {
		return nil, err
	}

	visibleFor := input.InstancesVisibleFor
	if visibleFor == "" {
		visibleFor = types.VisibleForPublic
	}
	editableBy := input.InstancesEditableBy
	if editableBy == "" {
		editableBy = types.EditableByAuthenticated
	}

	attributeType := &types.AttributeType{
		ObjectType:              input.ObjectType,
		ScopeType:               input.ScopeType,
		ScopeID:                 input.ScopeID,
		Identifier:              input.Identifier,
		Name:                    input.Name,
		HelpText:                input.HelpText,
		Format:                  input.Format,
		UnitID:                  input.UnitID,
		AttributeCategoryTypeID: input.AttributeCategoryTypeID,
		MaxLength:               input.MaxLength,
		InstancesVisibleFor:     visibleFor,
		InstancesEditableBy:     editableBy,
		ShowChoiceNames:         input.ShowChoiceNames,
		HasZeroOption:           input.HasZeroOption,
		PrimaryLanguage:         plan.PrimaryLanguage,
		OtherLanguages:          plan.OtherLanguages,
		SortOrder:               ats.nextSortOrder(ctx, tx, input.ObjectType, input.ScopeType, input.ScopeID),
	}

	created, err := ats.typeRepo.Create(ctx, tx, []*types.AttributeType{attributeType})
	if err != nil {
		return nil, err
	}
	return created[0], nil
}

func (ats *attributeTypeService) nextSortOrder(ctx context.Context, tx *gorm.DB, objectType types.ObjectKind, scopeType types.ScopeKind, scopeID uuid.UUID) int {
	existing, err := ats.typeRepo.List(ctx, tx, objectType, scopeType, scopeID)
	if err != nil {
		return 0
	}
	max := -1
	for _, at := range existing {
		if at.SortOrder > max {
			max = at.SortOrder
		}
	}
	return max + 1
}

// planForScope resolves the plan owning a scope: directly for plan scopes,
// via the category type for category type scopes.
func (ats *attributeTypeService) planForScope(ctx context.Context, tx *gorm.DB, scopeType types.ScopeKind, scopeID uuid.UUID) (*types.Plan, error) {
	if scopeType == types.ScopeKindPlan {
		return ats.planRepo.GetByID(ctx, tx, scopeID)
	}
	categoryType, err := ats.catRepo.GetTypeByID(ctx, tx, scopeID)
	if err != nil {
		return nil, err
	}
	return ats.planRepo.GetByID(ctx, tx, categoryType.PlanID)
}

// Update rejects structural edits once a completed report references the
// type through a materialized field; labels and help text stay editable.
func (ats *attributeTypeService) Update(ctx context.Context, attributeType *types.AttributeType) (*types.AttributeType, error) {
	current, err := ats.typeRepo.GetByID(ctx, nil, attributeType.ID)
	if err != nil {
		return nil, err
	}

	structural := current.Format != attributeType.Format ||
		current.Identifier != attributeType.Identifier ||
		!uuidPtrEqual(current.UnitID, attributeType.UnitID) ||
		!uuidPtrEqual(current.AttributeCategoryTypeID, attributeType.AttributeCategoryTypeID) ||
		current.ObjectType != attributeType.ObjectType ||
		current.ScopeType != attributeType.ScopeType ||
		current.ScopeID != attributeType.ScopeID

	if structural {
		frozen, err := ats.isFrozen(ctx, current)
		if err != nil {
			return nil, err
		}
		if frozen {
			return nil, watcherr.Conflict("attribute type %s is referenced by completed report snapshots; structural fields are immutable", current.Identifier)
		}
	}

	return ats.typeRepo.Update(ctx, nil, attributeType)
}

func (ats *attributeTypeService) Delete(ctx context.Context, typeID uuid.UUID) error {
	current, err := ats.typeRepo.GetByID(ctx, nil, typeID)
	if err != nil {
		return err
	}
	frozen, err := ats.isFrozen(ctx, current)
	if err != nil {
		return err
	}
	if frozen {
		return watcherr.Conflict("attribute type %s is referenced by completed report snapshots", current.Identifier)
	}
	return ats.typeRepo.Delete(ctx, nil, typeID)
}

// isFrozen reports whether a completed report materialized this type: the
// type identifier then matches "{report.identifier}_{field.identifier}" for
// some complete report of the owning plan.
func (ats *attributeTypeService) isFrozen(ctx context.Context, attributeType *types.AttributeType) (bool, error) {
	if attributeType.ObjectType != types.ObjectKindAction || attributeType.ScopeType != types.ScopeKindPlan {
		return false, nil
	}
	reports, err := ats.reportRepo.ListCompleteReportsByPlan(ctx, nil, attributeType.ScopeID)
	if err != nil {
		return false, err
	}
	for _, report := range reports {
		if report.Type == nil {
			continue
		}
		for i := range report.Type.Fields {
			field := report.Type.Fields[i]
			if field.Kind != types.ReportFieldAttributeType {
				continue
			}
			if field.AttributeTypeIdentifier(report.Identifier) == attributeType.Identifier {
				return true, nil
			}
		}
	}
	return false, nil
}

func (ats *attributeTypeService) AddChoiceOption(ctx context.Context, tx *gorm.DB, typeID uuid.UUID, identifier string, name types.LocalizedText) (*types.AttributeTypeChoiceOption, error) {
	attributeType, err := ats.typeRepo.GetByID(ctx, tx, typeID)
	if err != nil {
		return nil, err
	}
	if !attributeType.Format.HasChoiceOptions() {
		return nil, watcherr.UnsupportedFormat("format %s does not have choice options", attributeType.Format)
	}
	if err := utils.ValidateIdentifier(identifier); err != nil {
		return nil, watcherr.Wrap(watcherr.KindConstraintViolation, err, "choice option identifier")
	}
	if name.IsEmpty() {
		return nil, watcherr.ConstraintViolation("choice option name must not be empty")
	}

	// Deletions leave gaps in the order sequence, so the next slot is one
	// past the highest existing order, not the option count.
	nextOrder := 0
	for i := range attributeType.ChoiceOptions {
		if attributeType.ChoiceOptions[i].SortOrder >= nextOrder {
			nextOrder = attributeType.ChoiceOptions[i].SortOrder + 1
		}
	}

	option := &types.AttributeTypeChoiceOption{
		TypeID:     typeID,
		Identifier: identifier,
		Name:       name,
		SortOrder:  nextOrder,
	}
	created, err := ats.typeRepo.CreateChoiceOptions(ctx, tx, []*types.AttributeTypeChoiceOption{option})
	if err != nil {
		return nil, err
	}
	return created[0], nil
}

// Reorder assigns contiguous sort orders following the given ID order. The
// list must be a permutation of the scope's types.
func (ats *attributeTypeService) Reorder(ctx context.Context, objectType types.ObjectKind, scopeType types.ScopeKind, scopeID uuid.UUID, orderedIDs []uuid.UUID) error {
	existing, err := ats.typeRepo.List(ctx, nil, objectType, scopeType, scopeID)
	if err != nil {
		return err
	}
	if len(orderedIDs) != len(existing) {
		return watcherr.ConstraintViolation("reorder list has %d entries, scope has %d attribute types", len(orderedIDs), len(existing))
	}
	known := make(map[uuid.UUID]bool, len(existing))
	for _, at := range existing {
		known[at.ID] = true
	}
	seen := make(map[uuid.UUID]bool, len(orderedIDs))
	for _, id := range orderedIDs {
		if !known[id] {
			return watcherr.ConstraintViolation("attribute type %s does not belong to this scope", id)
		}
		if seen[id] {
			return watcherr.ConstraintViolation("attribute type %s listed twice", id)
		}
		seen[id] = true
	}

	return ats.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for position, id := range orderedIDs {
			if err := ats.typeRepo.SetSortOrder(ctx, tx, id, position); err != nil {
				return err
			}
		}
		return nil
	})
}

func uuidPtrEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
