package types

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ObjectKind says which kind of entity an attribute type attaches to.
type ObjectKind string

const (
	ObjectKindAction   ObjectKind = "action"
	ObjectKindCategory ObjectKind = "category"
)

// ScopeKind says which kind of parent owns an attribute type: a plan for
// action attributes, a category type for category attributes.
type ScopeKind string

const (
	ScopeKindPlan         ScopeKind = "plan"
	ScopeKindCategoryType ScopeKind = "category_type"
)

type AttributeFormat string

const (
	FormatOrderedChoice          AttributeFormat = "ordered_choice"
	FormatUnorderedChoice        AttributeFormat = "unordered_choice"
	FormatCategoryChoice         AttributeFormat = "category_choice"
	FormatOptionalChoiceWithText AttributeFormat = "optional_choice"
	FormatText                   AttributeFormat = "text"
	FormatRichText               AttributeFormat = "rich_text"
	FormatNumeric                AttributeFormat = "numeric"
)

// AllAttributeFormats in a stable order, for validation and serialization.
var AllAttributeFormats = []AttributeFormat{
	FormatOrderedChoice, FormatUnorderedChoice, FormatCategoryChoice,
	FormatOptionalChoiceWithText, FormatText, FormatRichText, FormatNumeric,
}

func (f AttributeFormat) Valid() bool {
	for _, known := range AllAttributeFormats {
		if f == known {
			return true
		}
	}
	return false
}

// HasChoiceOptions reports whether the format owns enumerated options.
func (f AttributeFormat) HasChoiceOptions() bool {
	switch f {
	case FormatOrderedChoice, FormatUnorderedChoice, FormatOptionalChoiceWithText:
		return true
	}
	return false
}

// HasText reports whether the format carries localized text.
func (f AttributeFormat) HasText() bool {
	switch f {
	case FormatOptionalChoiceWithText, FormatText, FormatRichText:
		return true
	}
	return false
}

type VisibleFor string

const (
	VisibleForPublic         VisibleFor = "public"
	VisibleForAuthenticated  VisibleFor = "authenticated"
	VisibleForContactPersons VisibleFor = "contact_persons"
	VisibleForModerators     VisibleFor = "moderators"
	VisibleForPlanAdmins     VisibleFor = "plan_admins"
)

type EditableBy string

const (
	EditableByAuthenticated  EditableBy = "authenticated"
	EditableByContactPersons EditableBy = "contact_persons"
	EditableByModerators     EditableBy = "moderators"
	EditableByPlanAdmins     EditableBy = "plan_admins"
	NotEditable              EditableBy = "not_editable"
)

// ContactRole is the role of a contact person for one action.
type ContactRole string

const (
	ContactRoleEditor    ContactRole = "editor"
	ContactRoleModerator ContactRole = "moderator"
)

// PermissionContext is everything the permission bands need to know about a
// user in relation to a plan and, optionally, one action. It is assembled
// once per request from the relational store; the band checks themselves are
// pure.
type PermissionContext struct {
	Authenticated bool
	Superuser     bool
	PlanAdmin     bool
	// ContactRole is set when the context was built for a specific action
	// the user is a contact person of.
	ContactRole ContactRole
	HasAction   bool
}

func (pc PermissionContext) isContactPerson() bool {
	return pc.ContactRole == ContactRoleEditor || pc.ContactRole == ContactRoleModerator
}

func (pc PermissionContext) isModerator() bool {
	return pc.ContactRole == ContactRoleModerator
}

// AttributeType declares a typed, scoped, orderable field attachable to
// actions or categories.
type AttributeType struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ObjectType ObjectKind `gorm:"column:object_type;not null;uniqueIndex:uniq_attribute_type_scope_identifier" json:"object_type"`
	ScopeType  ScopeKind  `gorm:"column:scope_type;not null;uniqueIndex:uniq_attribute_type_scope_identifier" json:"scope_type"`
	ScopeID    uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:uniq_attribute_type_scope_identifier" json:"scope_id"`
	Identifier string     `gorm:"column:identifier;not null;uniqueIndex:uniq_attribute_type_scope_identifier" json:"identifier"`

	Name     LocalizedText   `gorm:"column:name_i18n;not null" json:"name"`
	HelpText LocalizedText   `gorm:"column:help_text_i18n" json:"help_text"`
	Format   AttributeFormat `gorm:"column:format;not null" json:"format"`

	// Required iff format is numeric.
	UnitID *uuid.UUID `gorm:"type:uuid" json:"unit_id,omitempty"`
	Unit   *Unit      `gorm:"constraint:OnDelete:RESTRICT;foreignKey:UnitID;references:ID" json:"unit,omitempty"`

	// Required iff format is category_choice.
	AttributeCategoryTypeID *uuid.UUID    `gorm:"type:uuid" json:"attribute_category_type_id,omitempty"`
	AttributeCategoryType   *CategoryType `gorm:"constraint:OnDelete:CASCADE;foreignKey:AttributeCategoryTypeID;references:ID" json:"attribute_category_type,omitempty"`

	MaxLength *int `gorm:"column:max_length" json:"max_length,omitempty"`

	InstancesVisibleFor VisibleFor `gorm:"column:instances_visible_for;not null;default:public" json:"instances_visible_for"`
	InstancesEditableBy EditableBy `gorm:"column:instances_editable_by;not null;default:authenticated" json:"instances_editable_by"`

	ShowChoiceNames bool `gorm:"column:show_choice_names;not null;default:true" json:"show_choice_names"`
	HasZeroOption   bool `gorm:"column:has_zero_option;not null;default:false" json:"has_zero_option"`

	// Languages are copied from the scope's plan on creation so localized
	// name/help text resolution does not need a join.
	PrimaryLanguage string     `gorm:"column:primary_language;not null;default:en" json:"primary_language"`
	OtherLanguages  StringList `gorm:"column:other_languages" json:"other_languages"`

	SortOrder int `gorm:"column:sort_order;not null;default:0" json:"order"`

	ChoiceOptions []AttributeTypeChoiceOption `gorm:"foreignKey:TypeID" json:"choice_options,omitempty"`
}

func (AttributeType) TableName() string { return "attribute_type" }

func (at *AttributeType) BeforeCreate(*gorm.DB) error {
	if at.ID == uuid.Nil {
		at.ID = uuid.New()
	}
	return nil
}

// IsInstanceVisibleFor checks the visibility band against a permission
// context. The bands are totally ordered; qualifying for a higher band
// implies visibility at the lower ones.
func (at *AttributeType) IsInstanceVisibleFor(pc PermissionContext) bool {
	if pc.Superuser {
		return true
	}
	switch at.InstancesVisibleFor {
	case VisibleForPublic:
		return true
	case VisibleForAuthenticated:
		return pc.Authenticated
	case VisibleForContactPersons:
		if !pc.HasAction {
			return pc.PlanAdmin
		}
		return pc.isContactPerson() || pc.PlanAdmin
	case VisibleForModerators:
		if !pc.HasAction {
			return pc.PlanAdmin
		}
		return pc.isModerator() || pc.PlanAdmin
	case VisibleForPlanAdmins:
		return pc.PlanAdmin
	}
	return false
}

// IsInstanceEditableBy checks the editability band against a permission
// context. Without an action context the action-specific bands degrade to
// plan admins.
func (at *AttributeType) IsInstanceEditableBy(pc PermissionContext) bool {
	if !pc.Authenticated {
		return false
	}
	if pc.Superuser {
		return true
	}
	switch at.InstancesEditableBy {
	case NotEditable:
		return false
	case EditableByPlanAdmins:
		return pc.PlanAdmin
	case EditableByContactPersons:
		if !pc.HasAction {
			return pc.PlanAdmin
		}
		return pc.isContactPerson() || pc.PlanAdmin
	case EditableByModerators:
		if !pc.HasAction {
			return pc.PlanAdmin
		}
		return pc.isModerator() || pc.PlanAdmin
	case EditableByAuthenticated:
		return true
	}
	return false
}

// AttributeTypeChoiceOption is one enumerated value of a choice-formatted
// attribute type.
type AttributeTypeChoiceOption struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TypeID     uuid.UUID      `gorm:"type:uuid;not null;index;uniqueIndex:uniq_choice_option_type_identifier;uniqueIndex:uniq_choice_option_type_order" json:"type_id"`
	Type       *AttributeType `gorm:"constraint:OnDelete:CASCADE;foreignKey:TypeID;references:ID" json:"type,omitempty"`
	Identifier string         `gorm:"column:identifier;not null;uniqueIndex:uniq_choice_option_type_identifier" json:"identifier"`
	Name       LocalizedText  `gorm:"column:name_i18n;not null" json:"name"`
	SortOrder  int            `gorm:"column:sort_order;not null;default:0;uniqueIndex:uniq_choice_option_type_order" json:"order"`
}

func (AttributeTypeChoiceOption) TableName() string { return "attribute_type_choice_option" }

func (o *AttributeTypeChoiceOption) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
