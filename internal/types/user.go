package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the minimal identity record the core needs for permission bands
// and snapshot attribution. Authentication itself lives outside the core.
type User struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email       string    `gorm:"column:email;not null;uniqueIndex" json:"email"`
	Name        string    `gorm:"column:name" json:"name"`
	IsSuperuser bool      `gorm:"column:is_superuser;not null;default:false" json:"is_superuser"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
}

func (User) TableName() string { return "user" }

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// PlanAdmin marks a user as general admin of a plan.
type PlanAdmin struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PlanID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:uniq_plan_admin" json:"plan_id"`
	Plan   *Plan     `gorm:"constraint:OnDelete:CASCADE;foreignKey:PlanID;references:ID" json:"plan,omitempty"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uniq_plan_admin" json:"user_id"`
	User   *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
}

func (PlanAdmin) TableName() string { return "plan_admin" }

func (pa *PlanAdmin) BeforeCreate(*gorm.DB) error {
	if pa.ID == uuid.Nil {
		pa.ID = uuid.New()
	}
	return nil
}
