package types

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Attribute value rows: one table per format family. Every table carries
// (type_id, object_type, object_id) as a unique composite key so at most one
// value of a type exists per object.

// AttributeChoice stores ordered_choice and unordered_choice values.
type AttributeChoice struct {
	ID         uuid.UUID                  `gorm:"type:uuid;primaryKey" json:"id"`
	TypeID     uuid.UUID                  `gorm:"type:uuid;not null;uniqueIndex:uniq_attribute_choice_object" json:"type_id"`
	Type       *AttributeType             `gorm:"constraint:OnDelete:CASCADE;foreignKey:TypeID;references:ID" json:"type,omitempty"`
	ObjectType ObjectKind                 `gorm:"column:object_type;not null;uniqueIndex:uniq_attribute_choice_object" json:"object_type"`
	ObjectID   uuid.UUID                  `gorm:"type:uuid;not null;index;uniqueIndex:uniq_attribute_choice_object" json:"object_id"`
	ChoiceID   uuid.UUID                  `gorm:"type:uuid;not null" json:"choice_id"`
	Choice     *AttributeTypeChoiceOption `gorm:"constraint:OnDelete:CASCADE;foreignKey:ChoiceID;references:ID" json:"choice,omitempty"`
}

func (AttributeChoice) TableName() string { return "attribute_choice" }

func (a *AttributeChoice) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// AttributeChoiceWithText stores optional_choice values: a nullable choice
// plus localized rich text.
type AttributeChoiceWithText struct {
	ID         uuid.UUID                  `gorm:"type:uuid;primaryKey" json:"id"`
	TypeID     uuid.UUID                  `gorm:"type:uuid;not null;uniqueIndex:uniq_attribute_choice_text_object" json:"type_id"`
	Type       *AttributeType             `gorm:"constraint:OnDelete:CASCADE;foreignKey:TypeID;references:ID" json:"type,omitempty"`
	ObjectType ObjectKind                 `gorm:"column:object_type;not null;uniqueIndex:uniq_attribute_choice_text_object" json:"object_type"`
	ObjectID   uuid.UUID                  `gorm:"type:uuid;not null;index;uniqueIndex:uniq_attribute_choice_text_object" json:"object_id"`
	ChoiceID   *uuid.UUID                 `gorm:"type:uuid" json:"choice_id,omitempty"`
	Choice     *AttributeTypeChoiceOption `gorm:"constraint:OnDelete:CASCADE;foreignKey:ChoiceID;references:ID" json:"choice,omitempty"`
	Text       LocalizedText              `gorm:"column:text_i18n" json:"text"`
}

func (AttributeChoiceWithText) TableName() string { return "attribute_choice_with_text" }

func (a *AttributeChoiceWithText) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// AttributeCategoryChoice stores category_choice values as a many-to-many
// set of categories drawn from the type's attribute category type.
type AttributeCategoryChoice struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TypeID     uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uniq_attribute_category_choice_object" json:"type_id"`
	Type       *AttributeType `gorm:"constraint:OnDelete:CASCADE;foreignKey:TypeID;references:ID" json:"type,omitempty"`
	ObjectType ObjectKind     `gorm:"column:object_type;not null;uniqueIndex:uniq_attribute_category_choice_object" json:"object_type"`
	ObjectID   uuid.UUID      `gorm:"type:uuid;not null;index;uniqueIndex:uniq_attribute_category_choice_object" json:"object_id"`
	Categories []Category     `gorm:"many2many:attribute_category_choice_category" json:"categories,omitempty"`
}

func (AttributeCategoryChoice) TableName() string { return "attribute_category_choice" }

func (a *AttributeCategoryChoice) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// AttributeText stores plain localized text.
type AttributeText struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TypeID     uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uniq_attribute_text_object" json:"type_id"`
	Type       *AttributeType `gorm:"constraint:OnDelete:CASCADE;foreignKey:TypeID;references:ID" json:"type,omitempty"`
	ObjectType ObjectKind     `gorm:"column:object_type;not null;uniqueIndex:uniq_attribute_text_object" json:"object_type"`
	ObjectID   uuid.UUID      `gorm:"type:uuid;not null;index;uniqueIndex:uniq_attribute_text_object" json:"object_id"`
	Text       LocalizedText  `gorm:"column:text_i18n;not null" json:"text"`
}

func (AttributeText) TableName() string { return "attribute_text" }

func (a *AttributeText) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// AttributeRichText stores localized rich text (HTML-ish markup).
type AttributeRichText struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TypeID     uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uniq_attribute_rich_text_object" json:"type_id"`
	Type       *AttributeType `gorm:"constraint:OnDelete:CASCADE;foreignKey:TypeID;references:ID" json:"type,omitempty"`
	ObjectType ObjectKind     `gorm:"column:object_type;not null;uniqueIndex:uniq_attribute_rich_text_object" json:"object_type"`
	ObjectID   uuid.UUID      `gorm:"type:uuid;not null;index;uniqueIndex:uniq_attribute_rich_text_object" json:"object_id"`
	Text       LocalizedText  `gorm:"column:text_i18n;not null" json:"text"`
}

func (AttributeRichText) TableName() string { return "attribute_rich_text" }

func (a *AttributeRichText) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// AttributeNumericValue stores a float value; the unit lives on the type.
type AttributeNumericValue struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TypeID     uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uniq_attribute_numeric_object" json:"type_id"`
	Type       *AttributeType `gorm:"constraint:OnDelete:CASCADE;foreignKey:TypeID;references:ID" json:"type,omitempty"`
	ObjectType ObjectKind     `gorm:"column:object_type;not null;uniqueIndex:uniq_attribute_numeric_object" json:"object_type"`
	ObjectID   uuid.UUID      `gorm:"type:uuid;not null;index;uniqueIndex:uniq_attribute_numeric_object" json:"object_id"`
	Value      float64        `gorm:"column:value;not null" json:"value"`
}

func (AttributeNumericValue) TableName() string { return "attribute_numeric_value" }

func (a *AttributeNumericValue) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// AttributeValue is the typed in-memory value handed to and returned by the
// value store. Exactly one of the fields is meaningful for a given format;
// dispatch happens at the setter/getter boundary.
type AttributeValue struct {
	Format AttributeFormat `json:"format"`

	// ordered_choice / unordered_choice; also the choice part of
	// optional_choice.
	ChoiceID *uuid.UUID `json:"choice_id,omitempty"`

	// category_choice.
	CategoryIDs []uuid.UUID `json:"category_ids,omitempty"`

	// text / rich_text; also the text part of optional_choice.
	Text LocalizedText `json:"text,omitempty"`

	// numeric.
	Number *float64 `json:"number,omitempty"`
}

// IsEmpty reports whether the value is the null-equivalent for its format;
// setting an empty value deletes the stored row.
func (v AttributeValue) IsEmpty() bool {
	switch v.Format {
	case FormatOrderedChoice, FormatUnorderedChoice:
		return v.ChoiceID == nil
	case FormatCategoryChoice:
		return len(v.CategoryIDs) == 0
	case FormatOptionalChoiceWithText:
		return v.ChoiceID == nil && v.Text.IsEmpty()
	case FormatText, FormatRichText:
		return v.Text.IsEmpty()
	case FormatNumeric:
		return v.Number == nil
	}
	return true
}
