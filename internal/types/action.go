package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Action is one tracked measure in a plan.
type Action struct {
	ID           uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	PlanID       uuid.UUID     `gorm:"type:uuid;not null;index;uniqueIndex:uniq_action_plan_identifier" json:"plan_id"`
	Plan         *Plan         `gorm:"constraint:OnDelete:CASCADE;foreignKey:PlanID;references:ID" json:"plan,omitempty"`
	Identifier   string        `gorm:"column:identifier;not null;uniqueIndex:uniq_action_plan_identifier" json:"identifier"`
	Name         string        `gorm:"column:name;not null" json:"name"`
	OfficialName string        `gorm:"column:official_name" json:"official_name"`
	Description  LocalizedText `gorm:"column:description_i18n" json:"description"`

	StatusID *uuid.UUID    `gorm:"type:uuid" json:"status_id,omitempty"`
	Status   *ActionStatus `gorm:"foreignKey:StatusID;references:ID" json:"status,omitempty"`

	ImplementationPhaseID *uuid.UUID                 `gorm:"type:uuid" json:"implementation_phase_id,omitempty"`
	ImplementationPhase   *ActionImplementationPhase `gorm:"foreignKey:ImplementationPhaseID;references:ID" json:"implementation_phase,omitempty"`

	// ManualStatus locks the status of this single action against automatic
	// derivation; completion is still recomputed from indicators.
	ManualStatus       bool   `gorm:"column:manual_status;not null;default:false" json:"manual_status"`
	ManualStatusReason string `gorm:"column:manual_status_reason" json:"manual_status_reason"`

	Completion *int `gorm:"column:completion" json:"completion,omitempty"`

	ScheduleContinuous bool       `gorm:"column:schedule_continuous;not null;default:false" json:"schedule_continuous"`
	StartDate          *time.Time `gorm:"column:start_date;type:date" json:"start_date,omitempty"`
	EndDate            *time.Time `gorm:"column:end_date;type:date" json:"end_date,omitempty"`

	MergedWithID *uuid.UUID `gorm:"type:uuid" json:"merged_with_id,omitempty"`
	MergedWith   *Action    `gorm:"foreignKey:MergedWithID;references:ID" json:"merged_with,omitempty"`

	SortOrder int `gorm:"column:sort_order;not null;default:0" json:"order"`

	Tasks              []ActionTask             `gorm:"foreignKey:ActionID" json:"tasks,omitempty"`
	ResponsibleParties []ActionResponsibleParty `gorm:"foreignKey:ActionID" json:"responsible_parties,omitempty"`
	ContactPersons     []ActionContactPerson    `gorm:"foreignKey:ActionID" json:"contact_persons,omitempty"`
	Links              []ActionLink             `gorm:"foreignKey:ActionID" json:"links,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (Action) TableName() string { return "action" }

func (a *Action) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

func (a *Action) IsMerged() bool { return a.MergedWithID != nil }

// IsActive: not merged and not in a completed status.
func (a *Action) IsActive() bool {
	if a.IsMerged() {
		return false
	}
	return a.Status == nil || !a.Status.IsCompleted
}

type TaskState string

const (
	TaskNotStarted TaskState = "not_started"
	TaskInProgress TaskState = "in_progress"
	TaskCompleted  TaskState = "completed"
	TaskCancelled  TaskState = "cancelled"
)

// ActionTask is a dated sub-step of an action. Completed state and
// completed_at must agree.
type ActionTask struct {
	ID          uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	ActionID    uuid.UUID     `gorm:"type:uuid;not null;index" json:"action_id"`
	Action      *Action       `gorm:"constraint:OnDelete:CASCADE;foreignKey:ActionID;references:ID" json:"action,omitempty"`
	Name        string        `gorm:"column:name;not null" json:"name"`
	Comment     LocalizedText `gorm:"column:comment_i18n" json:"comment"`
	State       TaskState     `gorm:"column:state;not null;default:not_started" json:"state"`
	DueAt       *time.Time    `gorm:"column:due_at;type:date" json:"due_at,omitempty"`
	CompletedAt *time.Time    `gorm:"column:completed_at;type:date" json:"completed_at,omitempty"`
	SortOrder   int           `gorm:"column:sort_order;not null;default:0" json:"order"`
}

func (ActionTask) TableName() string { return "action_task" }

func (t *ActionTask) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// IsLate: due in the past, not completed, not cancelled.
func (t *ActionTask) IsLate(today time.Time) bool {
	if t.DueAt == nil || t.CompletedAt != nil || t.State == TaskCancelled {
		return false
	}
	return today.After(*t.DueAt)
}

type ResponsiblePartyRole string

const (
	ResponsiblePartyPrimary      ResponsiblePartyRole = "primary"
	ResponsiblePartyCollaborator ResponsiblePartyRole = "collaborator"
)

// Organization is the minimal organization record the core needs for
// responsible parties and the export pivot.
type Organization struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name string    `gorm:"column:name;not null" json:"name"`
}

func (Organization) TableName() string { return "organization" }

func (o *Organization) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

type ActionResponsibleParty struct {
	ID             uuid.UUID            `gorm:"type:uuid;primaryKey" json:"id"`
	ActionID       uuid.UUID            `gorm:"type:uuid;not null;index" json:"action_id"`
	Action         *Action              `gorm:"constraint:OnDelete:CASCADE;foreignKey:ActionID;references:ID" json:"action,omitempty"`
	OrganizationID uuid.UUID            `gorm:"type:uuid;not null" json:"organization_id"`
	Organization   *Organization        `gorm:"constraint:OnDelete:CASCADE;foreignKey:OrganizationID;references:ID" json:"organization,omitempty"`
	Role           ResponsiblePartyRole `gorm:"column:role;not null;default:collaborator" json:"role"`
	SortOrder      int                  `gorm:"column:sort_order;not null;default:0" json:"order"`
}

func (ActionResponsibleParty) TableName() string { return "action_responsible_party" }

func (p *ActionResponsibleParty) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type ActionContactPerson struct {
	ID        uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	ActionID  uuid.UUID   `gorm:"type:uuid;not null;index;uniqueIndex:uniq_action_contact_person" json:"action_id"`
	Action    *Action     `gorm:"constraint:OnDelete:CASCADE;foreignKey:ActionID;references:ID" json:"action,omitempty"`
	UserID    uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:uniq_action_contact_person" json:"user_id"`
	User      *User       `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Role      ContactRole `gorm:"column:role;not null;default:editor" json:"role"`
	SortOrder int         `gorm:"column:sort_order;not null;default:0" json:"order"`
}

func (ActionContactPerson) TableName() string { return "action_contact_person" }

func (p *ActionContactPerson) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// ActionCategory assigns an action to a category; one row per category.
type ActionCategory struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ActionID   uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:uniq_action_category" json:"action_id"`
	Action     *Action   `gorm:"constraint:OnDelete:CASCADE;foreignKey:ActionID;references:ID" json:"action,omitempty"`
	CategoryID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uniq_action_category" json:"category_id"`
	Category   *Category `gorm:"constraint:OnDelete:CASCADE;foreignKey:CategoryID;references:ID" json:"category,omitempty"`
}

func (ActionCategory) TableName() string { return "action_category" }

func (ac *ActionCategory) BeforeCreate(*gorm.DB) error {
	if ac.ID == uuid.Nil {
		ac.ID = uuid.New()
	}
	return nil
}

type ActionLink struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ActionID  uuid.UUID `gorm:"type:uuid;not null;index" json:"action_id"`
	Action    *Action   `gorm:"constraint:OnDelete:CASCADE;foreignKey:ActionID;references:ID" json:"action,omitempty"`
	URL       string    `gorm:"column:url;not null" json:"url"`
	Title     string    `gorm:"column:title" json:"title"`
	SortOrder int       `gorm:"column:sort_order;not null;default:0" json:"order"`
}

func (ActionLink) TableName() string { return "action_link" }

func (l *ActionLink) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
