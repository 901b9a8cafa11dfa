package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Unit of measurement for numeric attribute types and indicators.
type Unit struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"column:name;not null;uniqueIndex" json:"name"`
	ShortName string    `gorm:"column:short_name" json:"short_name"`
}

func (Unit) TableName() string { return "unit" }

func (u *Unit) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Indicator is a time-series metric. Only the parts needed by status
// derivation are modeled here.
type Indicator struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PlanID uuid.UUID `gorm:"type:uuid;not null;index" json:"plan_id"`
	Plan   *Plan     `gorm:"constraint:OnDelete:CASCADE;foreignKey:PlanID;references:ID" json:"plan,omitempty"`
	Name   string    `gorm:"column:name;not null" json:"name"`
	UnitID *uuid.UUID `gorm:"type:uuid" json:"unit_id,omitempty"`
	Unit   *Unit      `gorm:"constraint:OnDelete:RESTRICT;foreignKey:UnitID;references:ID" json:"unit,omitempty"`

	Values []IndicatorValue `gorm:"foreignKey:IndicatorID" json:"values,omitempty"`
	Goals  []IndicatorGoal  `gorm:"foreignKey:IndicatorID" json:"goals,omitempty"`
}

func (Indicator) TableName() string { return "indicator" }

func (i *Indicator) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

type IndicatorValue struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	IndicatorID uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:uniq_indicator_value_date" json:"indicator_id"`
	Indicator   *Indicator `gorm:"constraint:OnDelete:CASCADE;foreignKey:IndicatorID;references:ID" json:"indicator,omitempty"`
	Date        time.Time  `gorm:"column:date;type:date;not null;uniqueIndex:uniq_indicator_value_date" json:"date"`
	Value       float64    `gorm:"column:value;not null" json:"value"`
}

func (IndicatorValue) TableName() string { return "indicator_value" }

func (v *IndicatorValue) BeforeCreate(*gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

type IndicatorGoal struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	IndicatorID uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:uniq_indicator_goal_date" json:"indicator_id"`
	Indicator   *Indicator `gorm:"constraint:OnDelete:CASCADE;foreignKey:IndicatorID;references:ID" json:"indicator,omitempty"`
	Date        time.Time  `gorm:"column:date;type:date;not null;uniqueIndex:uniq_indicator_goal_date" json:"date"`
	Value       float64    `gorm:"column:value;not null" json:"value"`
}

func (IndicatorGoal) TableName() string { return "indicator_goal" }

func (g *IndicatorGoal) BeforeCreate(*gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// ActionIndicator connects an action to an indicator; when
// indicates_action_progress is set the indicator feeds the action's
// completion derivation.
type ActionIndicator struct {
	ID                       uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ActionID                 uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:uniq_action_indicator" json:"action_id"`
	Action                   *Action    `gorm:"constraint:OnDelete:CASCADE;foreignKey:ActionID;references:ID" json:"action,omitempty"`
	IndicatorID              uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uniq_action_indicator" json:"indicator_id"`
	Indicator                *Indicator `gorm:"constraint:OnDelete:CASCADE;foreignKey:IndicatorID;references:ID" json:"indicator,omitempty"`
	IndicatesActionProgress  bool       `gorm:"column:indicates_action_progress;not null;default:false" json:"indicates_action_progress"`
}

func (ActionIndicator) TableName() string { return "action_indicator" }

func (ai *ActionIndicator) BeforeCreate(*gorm.DB) error {
	if ai.ID == uuid.Nil {
		ai.ID = uuid.New()
	}
	return nil
}
