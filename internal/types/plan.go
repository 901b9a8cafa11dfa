package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Plan is the tenant root: it owns actions, category types, attribute types
// scoped to it, and reports.
type Plan struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Identifier      string     `gorm:"column:identifier;not null;uniqueIndex" json:"identifier"`
	Name            string     `gorm:"column:name;not null" json:"name"`
	PrimaryLanguage string     `gorm:"column:primary_language;not null;default:en" json:"primary_language"`
	OtherLanguages  StringList `gorm:"column:other_languages" json:"other_languages"`

	// Disables the automatic status state machine for the whole plan.
	StatusesUpdatedManually bool `gorm:"column:statuses_updated_manually;not null;default:false" json:"statuses_updated_manually"`

	// Timeliness thresholds, in days.
	ActionUpdateTargetInterval     int `gorm:"column:action_update_target_interval;not null;default:30" json:"action_update_target_interval"`
	ActionUpdateAcceptableInterval int `gorm:"column:action_update_acceptable_interval;not null;default:60" json:"action_update_acceptable_interval"`
	ActionStaleAfterDays           int `gorm:"column:action_stale_after_days;not null;default:180" json:"action_stale_after_days"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Plan) TableName() string { return "plan" }

func (p *Plan) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// AllLanguages returns the primary language followed by the other languages.
func (p *Plan) AllLanguages() []string {
	return append([]string{p.PrimaryLanguage}, p.OtherLanguages...)
}

// ActionStatus is a per-plan enumerated progress label, e.g. "on_time" or
// "late". Identifiers matching ActionStatusSummary identifiers drive the
// summary derivation.
type ActionStatus struct {
	ID          uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	PlanID      uuid.UUID     `gorm:"type:uuid;not null;index;uniqueIndex:uniq_action_status_plan_identifier" json:"plan_id"`
	Plan        *Plan         `gorm:"constraint:OnDelete:CASCADE;foreignKey:PlanID;references:ID" json:"plan,omitempty"`
	Identifier  string        `gorm:"column:identifier;not null;uniqueIndex:uniq_action_status_plan_identifier" json:"identifier"`
	Name        LocalizedText `gorm:"column:name_i18n" json:"name"`
	IsCompleted bool          `gorm:"column:is_completed;not null;default:false" json:"is_completed"`
	SortOrder   int           `gorm:"column:sort_order;not null;default:0" json:"order"`
}

func (ActionStatus) TableName() string { return "action_status" }

func (s *ActionStatus) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// ActionImplementationPhase is a per-plan milestone ("not_started",
// "planning", "implementation", "completed", ...).
type ActionImplementationPhase struct {
	ID         uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	PlanID     uuid.UUID     `gorm:"type:uuid;not null;index;uniqueIndex:uniq_impl_phase_plan_identifier" json:"plan_id"`
	Plan       *Plan         `gorm:"constraint:OnDelete:CASCADE;foreignKey:PlanID;references:ID" json:"plan,omitempty"`
	Identifier string        `gorm:"column:identifier;not null;uniqueIndex:uniq_impl_phase_plan_identifier" json:"identifier"`
	Name       LocalizedText `gorm:"column:name_i18n" json:"name"`
	SortOrder  int           `gorm:"column:sort_order;not null;default:0" json:"order"`
}

func (ActionImplementationPhase) TableName() string { return "action_implementation_phase" }

func (p *ActionImplementationPhase) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
