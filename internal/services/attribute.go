package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/planwatch/watch-backend/internal/logger"
	"github.com/planwatch/watch-backend/internal/repos"
	"github.com/planwatch/watch-backend/internal/types"
	"github.com/planwatch/watch-backend/internal/watcherr"
)

// TypedValue pairs an attribute type with the value an object holds for it.
// Value is nil when the object has no value of that type.
type TypedValue struct {
	Type  *types.AttributeType
	Value *types.AttributeValue
}

// AttributeService is the attribute value store: the only way attribute
// values are created, changed or cleared. Setting the null-equivalent value
// deletes the stored row, so a round of identical sets is idempotent.
type AttributeService interface {
	Set(ctx context.Context, tx *gorm.DB, pc types.PermissionContext, typeID uuid.UUID, objectType types.ObjectKind, objectID uuid.UUID, value types.AttributeValue) error
	Get(ctx context.Context, typeID uuid.UUID, objectType types.ObjectKind, objectID uuid.UUID) (*types.AttributeValue, error)
	GetAll(ctx context.Context, pc *types.PermissionContext, objectType types.ObjectKind, objectID uuid.UUID, scopeType types.ScopeKind, scopeID uuid.UUID) ([]TypedValue, error)
	Serialize(ctx context.Context, objectType types.ObjectKind, objectID uuid.UUID, scopeType types.ScopeKind, scopeID uuid.UUID) (types.SerializedAttributes, error)
}

type attributeService struct {
	db        *gorm.DB
	typeRepo  repos.AttributeTypeRepo
	valueRepo repos.AttributeValueRepo
	catRepo   repos.CategoryRepo
	actRepo   repos.ActionRepo
	log       *logger.Logger
}

func NewAttributeService(db *gorm.DB, typeRepo repos.AttributeTypeRepo, valueRepo repos.AttributeValueRepo, catRepo repos.CategoryRepo, actRepo repos.ActionRepo, baseLog *logger.Logger) AttributeService {
	serviceLog := baseLog.With("service", "AttributeService")
	return &attributeService{
		db:        db,
		typeRepo:  typeRepo,
		valueRepo: valueRepo,
		catRepo:   catRepo,
		actRepo:   actRepo,
		log:       serviceLog,
	}
}

func (as *attributeService) Set(ctx context.Context, tx *gorm.DB, pc types.PermissionContext, typeID uuid.UUID, objectType types.ObjectKind, objectID uuid.UUID, value types.AttributeValue) error {
	attributeType, err := as.typeRepo.GetByID(ctx, tx, typeID)
	if err != nil {
		return err
	}

	if !attributeType.IsInstanceEditableBy(pc) {
		return watcherr.PermissionDenied("attribute type %s is not editable in this context", attributeType.Identifier)
	}
	if attributeType.ObjectType != objectType {
		return watcherr.ConstraintViolation("attribute type %s attaches to %s objects, not %s", attributeType.Identifier, attributeType.ObjectType, objectType)
	}
	if value.Format != attributeType.Format {
		return watcherr.UnsupportedFormat("value format %s does not match type format %s", value.Format, attributeType.Format)
	}
	if err := as.checkScope(ctx, tx, attributeType, objectType, objectID); err != nil {
		return err
	}

	if value.IsEmpty() {
		return as.deleteValue(ctx, tx, attributeType, objectType, objectID)
	}

	switch attributeType.Format {
	case types.FormatOrderedChoice, types.FormatUnorderedChoice:
		if err := as.checkChoiceOwnership(ctx, tx, attributeType, *value.ChoiceID); err != nil {
			return err
		}
		_, err = as.valueRepo.SaveChoice(ctx, tx, &types.AttributeChoice{
			TypeID:     typeID,
			ObjectType: objectType,
			ObjectID:   objectID,
			ChoiceID:   *value.ChoiceID,
		})
		return err

	case types.FormatOptionalChoiceWithText:
		if value.ChoiceID != nil {
			if err := as.checkChoiceOwnership(ctx, tx, attributeType, *value.ChoiceID); err != nil {
				return err
			}
		}
		if err := checkTextLength(attributeType, value.Text); err != nil {
			return err
		}
		_, err = as.valueRepo.SaveChoiceWithText(ctx, tx, &types.AttributeChoiceWithText{
			TypeID:     typeID,
			ObjectType: objectType,
			ObjectID:   objectID,
			ChoiceID:   value.ChoiceID,
			Text:       trimmedText(value.Text),
		})
		return err

	case types.FormatCategoryChoice:
		categories, err := as.checkCategoryMembership(ctx, tx, attributeType, value.CategoryIDs)
		if err != nil {
			return err
		}
		_, err = as.valueRepo.SaveCategoryChoice(ctx, tx, &types.AttributeCategoryChoice{
			TypeID:     typeID,
			ObjectType: objectType,
			ObjectID:   objectID,
		}, categories)
		return err

	case types.FormatText:
		if err := checkTextLength(attributeType, value.Text); err != nil {
			return err
		}
		_, err = as.valueRepo.SaveText(ctx, tx, &types.AttributeText{
			TypeID:     typeID,
			ObjectType: objectType,
			ObjectID:   objectID,
			Text:       trimmedText(value.Text),
		})
		return err

	case types.FormatRichText:
		if err := checkTextLength(attributeType, value.Text); err != nil {
			return err
		}
		_, err = as.valueRepo.SaveRichText(ctx, tx, &types.AttributeRichText{
			TypeID:     typeID,
			ObjectType: objectType,
			ObjectID:   objectID,
			Text:       trimmedText(value.Text),
		})
		return err

	case types.FormatNumeric:
		_, err = as.valueRepo.SaveNumeric(ctx, tx, &types.AttributeNumericValue{
			TypeID:     typeID,
			ObjectType: objectType,
			ObjectID:   objectID,
			Value:      *value.Number,
		})
		return err
	}

	return watcherr.UnsupportedFormat("unknown attribute format %q", attributeType.Format)
}

func (as *attributeService) deleteValue(ctx context.Context, tx *gorm.DB, attributeType *types.AttributeType, objectType types.ObjectKind, objectID uuid.UUID) error {
	switch attributeType.Format {
	case types.FormatOrderedChoice, types.FormatUnorderedChoice:
		return as.valueRepo.DeleteChoice(ctx, tx, attributeType.ID, objectType, objectID)
	case types.FormatOptionalChoiceWithText:
		return as.valueRepo.DeleteChoiceWithText(ctx, tx, attributeType.ID, objectType, objectID)
	case types.FormatCategoryChoice:
		return as.valueRepo.DeleteCategoryChoice(ctx, tx, attributeType.ID, objectType, objectID)
	case types.FormatText:
		return as.valueRepo.DeleteText(ctx, tx, attributeType.ID, objectType, objectID)
	case types.FormatRichText:
		return as.valueRepo.DeleteRichText(ctx, tx, attributeType.ID, objectType, objectID)
	case types.FormatNumeric:
		return as.valueRepo.DeleteNumeric(ctx, tx, attributeType.ID, objectType, objectID)
	}
	return watcherr.UnsupportedFormat("unknown attribute format %q", attributeType.Format)
}

// checkScope verifies the object belongs to the type's scope: the action's
// plan for plan scopes, the category's type for category type scopes.
func (as *attributeService) checkScope(ctx context.Context, tx *gorm.DB, attributeType *types.AttributeType, objectType types.ObjectKind, objectID uuid.UUID) error {
	switch objectType {
	case types.ObjectKindAction:
		action, err := as.actRepo.GetByID(ctx, tx, objectID)
		if err != nil {
			return err
		}
		if action.PlanID != attributeType.ScopeID {
			return watcherr.ConstraintViolation("action %s is not in the plan owning attribute type %s", action.Identifier, attributeType.Identifier)
		}
	case types.ObjectKindCategory:
		category, err := as.catRepo.GetCategoryByID(ctx, tx, objectID)
		if err != nil {
			return err
		}
		if category.TypeID != attributeType.ScopeID {
			return watcherr.ConstraintViolation("category %s is not in the category type owning attribute type %s", category.Identifier, attributeType.Identifier)
		}
	default:
		return watcherr.ConstraintViolation("unknown object kind %q", objectType)
	}
	return nil
}

func (as *attributeService) checkChoiceOwnership(ctx context.Context, tx *gorm.DB, attributeType *types.AttributeType, choiceID uuid.UUID) error {
	option, err := as.typeRepo.GetChoiceOptionByID(ctx, tx, choiceID)
	if err != nil {
		return err
	}
	if option.TypeID != attributeType.ID {
		return watcherr.ConstraintViolation("choice option %s does not belong to attribute type %s", option.Identifier, attributeType.Identifier)
	}
	return nil
}

func (as *attributeService) checkCategoryMembership(ctx context.Context, tx *gorm.DB, attributeType *types.AttributeType, categoryIDs []uuid.UUID) ([]*types.Category, error) {
	if attributeType.AttributeCategoryTypeID == nil {
		return nil, watcherr.ConstraintViolation("attribute type %s has no category type", attributeType.Identifier)
	}
	categories, err := as.catRepo.GetCategoriesByIDs(ctx, tx, categoryIDs)
	if err != nil {
		return nil, err
	}
	if len(categories) != len(categoryIDs) {
		return nil, watcherr.NotFound("one or more categories do not exist")
	}
	for _, category := range categories {
		if category.TypeID != *attributeType.AttributeCategoryTypeID {
			return nil, watcherr.ConstraintViolation("category %s does not belong to the type's category type", category.Identifier)
		}
	}
	return categories, nil
}

func checkTextLength(attributeType *types.AttributeType, text types.LocalizedText) error {
	if attributeType.MaxLength == nil {
		return nil
	}
	for lang, v := range text {
		if len([]rune(v)) > *attributeType.MaxLength {
			return watcherr.ConstraintViolation("text for language %s exceeds max length %d", lang, *attributeType.MaxLength)
		}
	}
	return nil
}

// trimmedText drops languages holding empty strings so empty strings
// normalize to absent values.
func trimmedText(text types.LocalizedText) types.LocalizedText {
	out := types.LocalizedText{}
	for lang, v := range text {
		if v != "" {
			out[lang] = v
		}
	}
	return out
}

func (as *attributeService) Get(ctx context.Context, typeID uuid.UUID, objectType types.ObjectKind, objectID uuid.UUID) (*types.AttributeValue, error) {
	attributeType, err := as.typeRepo.GetByID(ctx, nil, typeID)
	if err != nil {
		return nil, err
	}

	switch attributeType.Format {
	case types.FormatOrderedChoice, types.FormatUnorderedChoice:
		row, err := as.valueRepo.GetChoice(ctx, nil, typeID, objectType, objectID)
		if err != nil || row == nil {
			return nil, err
		}
		choiceID := row.ChoiceID
		return &types.AttributeValue{Format: attributeType.Format, ChoiceID: &choiceID}, nil

	case types.FormatOptionalChoiceWithText:
		row, err := as.valueRepo.GetChoiceWithText(ctx, nil, typeID, objectType, objectID)
		if err != nil || row == nil {
			return nil, err
		}
		return &types.AttributeValue{Format: attributeType.Format, ChoiceID: row.ChoiceID, Text: row.Text}, nil

	case types.FormatCategoryChoice:
		row, err := as.valueRepo.GetCategoryChoice(ctx, nil, typeID, objectType, objectID)
		if err != nil || row == nil {
			return nil, err
		}
		return &types.AttributeValue{Format: attributeType.Format, CategoryIDs: categoryIDsOf(row)}, nil

	case types.FormatText:
		row, err := as.valueRepo.GetText(ctx, nil, typeID, objectType, objectID)
		if err != nil || row == nil {
			return nil, err
		}
		return &types.AttributeValue{Format: attributeType.Format, Text: row.Text}, nil

	case types.FormatRichText:
		row, err := as.valueRepo.GetRichText(ctx, nil, typeID, objectType, objectID)
		if err != nil || row == nil {
			return nil, err
		}
		return &types.AttributeValue{Format: attributeType.Format, Text: row.Text}, nil

	case types.FormatNumeric:
		row, err := as.valueRepo.GetNumeric(ctx, nil, typeID, objectType, objectID)
		if err != nil || row == nil {
			return nil, err
		}
		number := row.Value
		return &types.AttributeValue{Format: attributeType.Format, Number: &number}, nil
	}

	return nil, watcherr.UnsupportedFormat("unknown attribute format %q", attributeType.Format)
}

func categoryIDsOf(row *types.AttributeCategoryChoice) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(row.Categories))
	for i := range row.Categories {
		ids = append(ids, row.Categories[i].ID)
	}
	return ids
}

// GetAll returns the object's values paired with their types, ordered by
// type order. A non-nil permission context filters out types whose
// visibility band excludes the caller.
func (as *attributeService) GetAll(ctx context.Context, pc *types.PermissionContext, objectType types.ObjectKind, objectID uuid.UUID, scopeType types.ScopeKind, scopeID uuid.UUID) ([]TypedValue, error) {
	attributeTypes, err := as.typeRepo.List(ctx, nil, objectType, scopeType, scopeID)
	if err != nil {
		return nil, err
	}

	choices, err := as.valueRepo.ListChoicesForObject(ctx, nil, objectType, objectID)
	if err != nil {
		return nil, err
	}
	choicesWithText, err := as.valueRepo.ListChoicesWithTextForObject(ctx, nil, objectType, objectID)
	if err != nil {
		return nil, err
	}
	categoryChoices, err := as.valueRepo.ListCategoryChoicesForObject(ctx, nil, objectType, objectID)
	if err != nil {
		return nil, err
	}
	texts, err := as.valueRepo.ListTextsForObject(ctx, nil, objectType, objectID)
	if err != nil {
		return nil, err
	}
	richTexts, err := as.valueRepo.ListRichTextsForObject(ctx, nil, objectType, objectID)
	if err != nil {
		return nil, err
	}
	numerics, err := as.valueRepo.ListNumericsForObject(ctx, nil, objectType, objectID)
	if err != nil {
		return nil, err
	}

	byType := map[uuid.UUID]*types.AttributeValue{}
	for _, row := range choices {
		choiceID := row.ChoiceID
		byType[row.TypeID] = &types.AttributeValue{ChoiceID: &choiceID}
	}
	for _, row := range choicesWithText {
		byType[row.TypeID] = &types.AttributeValue{ChoiceID: row.ChoiceID, Text: row.Text}
	}
	for _, row := range categoryChoices {
		byType[row.TypeID] = &types.AttributeValue{CategoryIDs: categoryIDsOf(row)}
	}
	for _, row := range texts {
		byType[row.TypeID] = &types.AttributeValue{Text: row.Text}
	}
	for _, row := range richTexts {
		byType[row.TypeID] = &types.AttributeValue{Text: row.Text}
	}
	for _, row := range numerics {
		number := row.Value
		byType[row.TypeID] = &types.AttributeValue{Number: &number}
	}

	results := make([]TypedValue, 0, len(attributeTypes))
	for _, attributeType := range attributeTypes {
		if pc != nil && !attributeType.IsInstanceVisibleFor(*pc) {
			continue
		}
		value := byType[attributeType.ID]
		if value != nil {
			value.Format = attributeType.Format
		}
		results = append(results, TypedValue{Type: attributeType, Value: value})
	}
	return results, nil
}

// Serialize renders the object's attributes in the fixed transport layout:
// format → type id → value shape. Types without a value are omitted.
func (as *attributeService) Serialize(ctx context.Context, objectType types.ObjectKind, objectID uuid.UUID, scopeType types.ScopeKind, scopeID uuid.UUID) (types.SerializedAttributes, error) {
	values, err := as.GetAll(ctx, nil, objectType, objectID, scopeType, scopeID)
	if err != nil {
		return types.SerializedAttributes{}, err
	}

	out := types.NewSerializedAttributes()
	for _, tv := range values {
		if tv.Value == nil {
			continue
		}
		key := tv.Type.ID.String()
		switch tv.Type.Format {
		case types.FormatOrderedChoice:
			out.OrderedChoice[key] = tv.Value.ChoiceID
		case types.FormatUnorderedChoice:
			out.UnorderedChoice[key] = tv.Value.ChoiceID
		case types.FormatCategoryChoice:
			out.CategoryChoice[key] = tv.Value.CategoryIDs
		case types.FormatOptionalChoiceWithText:
			out.OptionalChoiceWithText[key] = types.SerializedChoiceWithText{
				Choice: tv.Value.ChoiceID,
				Text:   tv.Value.Text.Serialized(tv.Type.PrimaryLanguage),
			}
		case types.FormatText:
			out.Text[key] = tv.Value.Text.Serialized(tv.Type.PrimaryLanguage)
		case types.FormatRichText:
			out.RichText[key] = tv.Value.Text.Serialized(tv.Type.PrimaryLanguage)
		case types.FormatNumeric:
			out.Numeric[key] = tv.Value.Number
		}
	}
	return out, nil
}
