package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SerializedChoiceWithText is the transport shape of an optional_choice
// value.
type SerializedChoiceWithText struct {
	Choice *uuid.UUID        `json:"choice"`
	Text   map[string]string `json:"text"`
}

// SerializedAttributes is the fixed transport layout for one object's
// attribute values, keyed by format then by attribute type id. It is used
// for snapshot payloads, XLSX export and API transport.
type SerializedAttributes struct {
	OrderedChoice          map[string]*uuid.UUID               `json:"ordered_choice"`
	UnorderedChoice        map[string]*uuid.UUID               `json:"unordered_choice"`
	CategoryChoice         map[string][]uuid.UUID              `json:"category_choice"`
	OptionalChoiceWithText map[string]SerializedChoiceWithText `json:"optional_choice_with_text"`
	Text                   map[string]map[string]string        `json:"text"`
	RichText               map[string]map[string]string        `json:"rich_text"`
	Numeric                map[string]*float64                 `json:"numeric"`
}

func NewSerializedAttributes() SerializedAttributes {
	return SerializedAttributes{
		OrderedChoice:          map[string]*uuid.UUID{},
		UnorderedChoice:        map[string]*uuid.UUID{},
		CategoryChoice:         map[string][]uuid.UUID{},
		OptionalChoiceWithText: map[string]SerializedChoiceWithText{},
		Text:                   map[string]map[string]string{},
		RichText:               map[string]map[string]string{},
		Numeric:                map[string]*float64{},
	}
}

// SnapshotAction is the immutable copy of the action row embedded in a
// snapshot payload. Snapshots never reference live rows; they embed the
// data.
type SnapshotAction struct {
	ID                    uuid.UUID     `json:"id"`
	Identifier            string        `json:"identifier"`
	Name                  string        `json:"name"`
	OfficialName          string        `json:"official_name"`
	Description           LocalizedText `json:"description"`
	StatusID              *uuid.UUID    `json:"status_id"`
	ImplementationPhaseID *uuid.UUID    `json:"implementation_phase_id"`
	ManualStatus          bool          `json:"manual_status"`
	Completion            *int          `json:"completion"`
	MergedWithID          *uuid.UUID    `json:"merged_with_id"`
	SortOrder             int           `json:"order"`
	UpdatedAt             time.Time     `json:"updated_at"`
}

// SnapshotResponsibleParty, SnapshotContactPerson, SnapshotTask and
// SnapshotLink embed the related rows with names resolved, so a snapshot
// stays readable after the referenced rows change or disappear.
type SnapshotTask struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	State       TaskState  `json:"state"`
	DueAt       *time.Time `json:"due_at"`
	CompletedAt *time.Time `json:"completed_at"`
	SortOrder   int        `json:"order"`
}

type SnapshotResponsibleParty struct {
	ID               uuid.UUID            `json:"id"`
	OrganizationID   uuid.UUID            `json:"organization_id"`
	OrganizationName string               `json:"organization_name"`
	Role             ResponsiblePartyRole `json:"role"`
	SortOrder        int                  `json:"order"`
}

type SnapshotContactPerson struct {
	ID        uuid.UUID   `json:"id"`
	UserID    uuid.UUID   `json:"user_id"`
	UserName  string      `json:"user_name"`
	Role      ContactRole `json:"role"`
	SortOrder int         `json:"order"`
}

type SnapshotLink struct {
	ID        uuid.UUID `json:"id"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	SortOrder int       `json:"order"`
}

// SnapshotPayload is the full write-once record of an action at report
// completion time.
type SnapshotPayload struct {
	Action             SnapshotAction             `json:"action"`
	Tasks              []SnapshotTask             `json:"tasks"`
	ResponsibleParties []SnapshotResponsibleParty `json:"responsible_parties"`
	ContactPersons     []SnapshotContactPerson    `json:"contact_persons"`
	Links              []SnapshotLink             `json:"links"`
	Attributes         SerializedAttributes       `json:"attributes"`
	CategoryIDs        []uuid.UUID                `json:"category_ids"`
	CreatedAt          time.Time                  `json:"created_at"`
	CreatedBy          string                     `json:"created_by"`
}

// ActionSnapshot is the append-only snapshot row: (report, action) unique,
// payload embedded as JSON.
type ActionSnapshot struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ReportID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:uniq_snapshot_report_action" json:"report_id"`
	Report   *Report   `gorm:"constraint:OnDelete:CASCADE;foreignKey:ReportID;references:ID" json:"report,omitempty"`
	ActionID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:uniq_snapshot_report_action" json:"action_id"`

	Payload datatypes.JSON `gorm:"column:payload;not null" json:"payload"`

	// CreatedExplicitly is false for snapshots written implicitly when the
	// whole report was marked complete; undoing completion removes only
	// those.
	CreatedExplicitly bool `gorm:"column:created_explicitly;not null;default:true" json:"created_explicitly"`

	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
	CreatedByID *uuid.UUID `gorm:"type:uuid" json:"created_by_id,omitempty"`
}

func (ActionSnapshot) TableName() string { return "action_snapshot" }

func (s *ActionSnapshot) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// DecodePayload unmarshals the embedded payload.
func (s *ActionSnapshot) DecodePayload() (*SnapshotPayload, error) {
	var payload SnapshotPayload
	if err := json.Unmarshal(s.Payload, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// EncodeSnapshotPayload marshals a payload for storage.
func EncodeSnapshotPayload(payload *SnapshotPayload) (datatypes.JSON, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}
