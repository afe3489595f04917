package models

import "time"

// Badge is a derived recognition granted once a user's total points reach the
// configured threshold. Badges are best-effort: the ledger, not the badge
// table, is the source of truth for scores.
type Badge struct {
	ID              uint    `gorm:"primaryKey" json:"id"`
	Code            string  `gorm:"size:100;not null;uniqueIndex:uk_badges_code" json:"code"`
	Name            string  `gorm:"size:255;not null" json:"name"`
	Description     *string `gorm:"type:text" json:"description,omitempty"`
	PointsThreshold int     `gorm:"not null" json:"points_threshold"`
	IsActive        *bool   `gorm:"default:true;index:idx_badges_is_active" json:"is_active"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (Badge) TableName() string { return "badges" }

// BadgeFilter represents filter criteria for badge queries
type BadgeFilter struct {
	ID       *uint
	Code     *string
	IsActive *bool
}

// UserBadge records that a badge has been awarded to a user.
// Unique on (user_id, badge_id) so redundant evaluation passes are harmless.
type UserBadge struct {
	ID      uint `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID  uint `gorm:"not null;uniqueIndex:uk_user_badges_user_badge,priority:1;index:idx_user_badges_user_id" json:"user_id"`
	BadgeID uint `gorm:"not null;uniqueIndex:uk_user_badges_user_badge,priority:2" json:"badge_id"`

	AwardedAt time.Time `gorm:"not null;default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"awarded_at"`

	User  User  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Badge Badge `gorm:"foreignKey:BadgeID;constraint:OnDelete:CASCADE" json:"badge,omitempty"`
}

func (UserBadge) TableName() string { return "user_badges" }

// UserBadgeFilter represents filter criteria for user badge queries
type UserBadgeFilter struct {
	ID      *uint
	UserID  *uint
	BadgeID *uint
}
