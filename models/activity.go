package models

import "time"

// Activity is the recognized-tag registry: it maps a normalized tag emitted by
// the learning platform to an activity code and its configured point value.
// Table: activities
// Point values are deployment configuration, loaded as data rather than
// hardcoded; an event whose normalized tag has no active activity row is
// ignored as unrecognized.
type Activity struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Code        string `gorm:"size:100;not null;uniqueIndex:uk_activities_code" json:"code"`
	TagNameNorm string `gorm:"size:255;not null;uniqueIndex:uk_activities_tag_norm" json:"tag_name_norm"`
	Title       string `gorm:"size:255;not null" json:"title"`
	Points      int    `gorm:"not null" json:"points"`
	IsActive    *bool  `gorm:"default:true;index:idx_activities_is_active" json:"is_active"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (Activity) TableName() string { return "activities" }

// ActivityFilter represents filter criteria for activity queries
type ActivityFilter struct {
	ID          *uint
	Code        *string
	TagNameNorm *string
	IsActive    *bool
}
