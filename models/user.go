// Package models contains domain entities and business models for the gamification service
package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UUID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_users_uuid" json:"uuid"`
	UserTypeID uint      `gorm:"not null;index:idx_users_user_type_id" json:"user_type_id"`
	UserType   UserType  `gorm:"foreignKey:UserTypeID;references:ID" json:"user_type,omitempty"`

	FirstName string `gorm:"size:255;not null" json:"first_name"`
	LastName  string `gorm:"size:255;not null" json:"last_name"`
	Email     string `gorm:"size:255;not null;uniqueIndex:uk_users_email" json:"email"`

	// ContactID is the identifier the external learning platform uses for this
	// user. It is linked during registration and is the join key for matching
	// inbound completion events; NULL until the linkage is known.
	ContactID *string `gorm:"size:255;uniqueIndex:uk_users_contact_id" json:"contact_id,omitempty"`

	IsActive *bool `gorm:"default:true;index:idx_users_is_active" json:"is_active"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_users_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`

	// Relations
	TagGrants     []TagGrant    `gorm:"foreignKey:UserID" json:"-"`
	LedgerEntries []LedgerEntry `gorm:"foreignKey:UserID" json:"-"`
	Badges        []UserBadge   `gorm:"foreignKey:UserID" json:"-"`
	AuditLogs     []AuditLog    `gorm:"foreignKey:UserID" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// UserFilter represents filter criteria for user queries
type UserFilter struct {
	ID            *uint
	UUID          *uuid.UUID
	UserTypeID    *uint
	UserTypeName  *string
	Email         *string
	ContactID     *string
	IsActive      *bool
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

func (u *User) IsEducator() bool {
	return u.UserType.TypeName == UserTypeEducator
}
