package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReportFieldKind says what a report field block captures for each action.
type ReportFieldKind string

const (
	ReportFieldImplementationPhase ReportFieldKind = "implementation_phase"
	ReportFieldStatus              ReportFieldKind = "status"
	ReportFieldAttributeType       ReportFieldKind = "attribute_type"
	ReportFieldResponsibleParty    ReportFieldKind = "responsible_party"
	ReportFieldCategory            ReportFieldKind = "category"
)

// ReportFieldOption declares one choice option of an attribute-typed report
// field; materialization turns it into an AttributeTypeChoiceOption.
type ReportFieldOption struct {
	Identifier string `json:"identifier"`
	Name       string `json:"name"`
}

type ReportFieldOptionList []ReportFieldOption

func (ReportFieldOptionList) GormDataType() string { return "json" }

func (l ReportFieldOptionList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *ReportFieldOptionList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into ReportFieldOptionList", value)
	}
	if len(data) == 0 {
		*l = nil
		return nil
	}
	return json.Unmarshal(data, l)
}

// ReportType declares what is captured per reporting period.
type ReportType struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PlanID uuid.UUID `gorm:"type:uuid;not null;index" json:"plan_id"`
	Plan   *Plan     `gorm:"constraint:OnDelete:CASCADE;foreignKey:PlanID;references:ID" json:"plan,omitempty"`
	Name   string    `gorm:"column:name;not null" json:"name"`

	Fields  []ReportField `gorm:"foreignKey:ReportTypeID" json:"fields,omitempty"`
	Reports []Report      `gorm:"foreignKey:TypeID" json:"reports,omitempty"`
}

func (ReportType) TableName() string { return "report_type" }

func (rt *ReportType) BeforeCreate(*gorm.DB) error {
	if rt.ID == uuid.Nil {
		rt.ID = uuid.New()
	}
	return nil
}

// ReportField is one declared field block of a report type. Attribute-typed
// fields carry a format (plus options and related settings); category fields
// carry a category type.
type ReportField struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ReportTypeID uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:uniq_report_field_identifier" json:"report_type_id"`
	ReportType   *ReportType     `gorm:"constraint:OnDelete:CASCADE;foreignKey:ReportTypeID;references:ID" json:"report_type,omitempty"`
	Identifier   string          `gorm:"column:identifier;not null;uniqueIndex:uniq_report_field_identifier" json:"identifier"`
	Name         string          `gorm:"column:name;not null" json:"name"`
	Kind         ReportFieldKind `gorm:"column:kind;not null" json:"kind"`

	Format  *AttributeFormat      `gorm:"column:format" json:"format,omitempty"`
	Options ReportFieldOptionList `gorm:"column:options" json:"options,omitempty"`
	UnitID  *uuid.UUID            `gorm:"type:uuid" json:"unit_id,omitempty"`

	CategoryTypeID *uuid.UUID    `gorm:"type:uuid" json:"category_type_id,omitempty"`
	CategoryType   *CategoryType `gorm:"constraint:OnDelete:CASCADE;foreignKey:CategoryTypeID;references:ID" json:"category_type,omitempty"`

	SortOrder int `gorm:"column:sort_order;not null;default:0" json:"order"`
}

func (ReportField) TableName() string { return "report_field" }

func (f *ReportField) BeforeCreate(*gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// AttributeTypeIdentifier derives the identifier of the attribute type a
// report materializes for this field.
func (f *ReportField) AttributeTypeIdentifier(reportIdentifier string) string {
	return fmt.Sprintf("%s_%s", reportIdentifier, f.Identifier)
}

// Report is one reporting period of a report type.
type Report struct {
	ID         uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	TypeID     uuid.UUID   `gorm:"type:uuid;not null;index;uniqueIndex:uniq_report_type_identifier" json:"type_id"`
	Type       *ReportType `gorm:"constraint:OnDelete:CASCADE;foreignKey:TypeID;references:ID" json:"type,omitempty"`
	Name       string      `gorm:"column:name;not null" json:"name"`
	Identifier string      `gorm:"column:identifier;not null;uniqueIndex:uniq_report_type_identifier" json:"identifier"`
	StartDate  time.Time   `gorm:"column:start_date;type:date;not null" json:"start_date"`
	EndDate    time.Time   `gorm:"column:end_date;type:date;not null" json:"end_date"`

	IsComplete bool `gorm:"column:is_complete;not null;default:false" json:"is_complete"`
	IsPublic   bool `gorm:"column:is_public;not null;default:false" json:"is_public"`

	CompletedAt   *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CompletedByID *uuid.UUID `gorm:"type:uuid" json:"completed_by_id,omitempty"`
	CompletedBy   *User      `gorm:"foreignKey:CompletedByID;references:ID" json:"completed_by,omitempty"`

	Snapshots []ActionSnapshot `gorm:"foreignKey:ReportID" json:"snapshots,omitempty"`
}

func (Report) TableName() string { return "report" }

func (r *Report) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
