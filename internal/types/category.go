package types

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SelectWidget string

const (
	SelectWidgetSingle   SelectWidget = "single"
	SelectWidgetMultiple SelectWidget = "multiple"
)

// CategoryType is one taxonomy dimension of a plan; its categories form a
// forest.
type CategoryType struct {
	ID                      uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	PlanID                  uuid.UUID    `gorm:"type:uuid;not null;index;uniqueIndex:uniq_category_type_plan_identifier" json:"plan_id"`
	Plan                    *Plan        `gorm:"constraint:OnDelete:CASCADE;foreignKey:PlanID;references:ID" json:"plan,omitempty"`
	Identifier              string       `gorm:"column:identifier;not null;uniqueIndex:uniq_category_type_plan_identifier" json:"identifier"`
	Name                    string       `gorm:"column:name;not null" json:"name"`
	UsableForActions        bool         `gorm:"column:usable_for_actions;not null;default:false" json:"usable_for_actions"`
	EditableForActions      bool         `gorm:"column:editable_for_actions;not null;default:false" json:"editable_for_actions"`
	UsableForIndicators     bool         `gorm:"column:usable_for_indicators;not null;default:false" json:"usable_for_indicators"`
	EditableForIndicators   bool         `gorm:"column:editable_for_indicators;not null;default:false" json:"editable_for_indicators"`
	SelectWidget            SelectWidget `gorm:"column:select_widget;not null;default:single" json:"select_widget"`
	HideCategoryIdentifiers bool         `gorm:"column:hide_category_identifiers;not null;default:false" json:"hide_category_identifiers"`
	SynchronizeWithPages    bool         `gorm:"column:synchronize_with_pages;not null;default:false" json:"synchronize_with_pages"`

	Levels     []CategoryLevel `gorm:"foreignKey:TypeID" json:"levels,omitempty"`
	Categories []Category      `gorm:"foreignKey:TypeID" json:"categories,omitempty"`
}

func (CategoryType) TableName() string { return "category_type" }

func (ct *CategoryType) BeforeCreate(*gorm.DB) error {
	if ct.ID == uuid.Nil {
		ct.ID = uuid.New()
	}
	return nil
}

// CategoryLevel names one depth of the category forest (depth 0 upward).
type CategoryLevel struct {
	ID        uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	TypeID    uuid.UUID     `gorm:"type:uuid;not null;index" json:"type_id"`
	Type      *CategoryType `gorm:"constraint:OnDelete:CASCADE;foreignKey:TypeID;references:ID" json:"type,omitempty"`
	Name      string        `gorm:"column:name;not null" json:"name"`
	SortOrder int           `gorm:"column:sort_order;not null;default:0" json:"order"`
}

func (CategoryLevel) TableName() string { return "category_level" }

func (l *CategoryLevel) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

type Category struct {
	ID               uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	TypeID           uuid.UUID     `gorm:"type:uuid;not null;index;uniqueIndex:uniq_category_type_identifier" json:"type_id"`
	Type             *CategoryType `gorm:"constraint:OnDelete:RESTRICT;foreignKey:TypeID;references:ID" json:"type,omitempty"`
	Identifier       string        `gorm:"column:identifier;not null;uniqueIndex:uniq_category_type_identifier" json:"identifier"`
	Name             string        `gorm:"column:name;not null" json:"name"`
	ParentID         *uuid.UUID    `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	Parent           *Category     `gorm:"foreignKey:ParentID;references:ID" json:"parent,omitempty"`
	ShortDescription string        `gorm:"column:short_description" json:"short_description"`
	Color            string        `gorm:"column:color" json:"color"`
	Image            string        `gorm:"column:image" json:"image"`
	SortOrder        int           `gorm:"column:sort_order;not null;default:0" json:"order"`
}

func (Category) TableName() string { return "category" }

func (c *Category) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Label renders the category for display: the identifier is prepended unless
// the type hides identifiers.
func (c *Category) Label(hideIdentifiers bool) string {
	if hideIdentifiers {
		return c.Name
	}
	return fmt.Sprintf("%s %s", c.Identifier, c.Name)
}
