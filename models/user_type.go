// Package models contains domain entities and business models for the gamification service
package models

import (
	"time"
)

type UserType struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	TypeName    string    `gorm:"size:30;not null;uniqueIndex:uk_user_types_type_name" json:"type_name"`
	DisplayName string    `gorm:"size:50;not null" json:"display_name"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (UserType) TableName() string {
	return "user_types"
}

// User type constants
const (
	UserTypeEducator = "educator"
	UserTypeStudent  = "student"
	UserTypeAdmin    = "admin"
)

// UserTypeFilter represents filter criteria for user type queries
type UserTypeFilter struct {
	ID       *uint
	TypeName *string
}

// EligibleForCredit reports whether accounts of this type may receive
// completion credit. Only educator accounts accumulate points.
func (t *UserType) EligibleForCredit() bool {
	return t.TypeName == UserTypeEducator
}
