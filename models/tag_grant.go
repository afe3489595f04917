package models

import "time"

// TagGrant records that a user has been credited for a normalized tag.
// Table: tag_grants
// Unique on (user_id, tag_name_norm); created only inside the award
// transaction and never updated. Its presence is the credit marker, so a
// second event carrying the same tag for the same user (a distinct event id,
// not a redelivery) collides here rather than at the event-level gate.
type TagGrant struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint   `gorm:"not null;uniqueIndex:uk_tag_grants_user_tag,priority:1;index:idx_tag_grants_user_id" json:"user_id"`
	TagNameNorm string `gorm:"size:255;not null;uniqueIndex:uk_tag_grants_user_tag,priority:2" json:"tag_name_norm"`

	ActivityCode   string `gorm:"size:100;not null" json:"activity_code"`
	WebhookEventID *uint  `gorm:"index:idx_tag_grants_webhook_event_id" json:"webhook_event_id,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}

func (TagGrant) TableName() string {
	return "tag_grants"
}

// TagGrantFilter represents filter criteria for tag grant queries
type TagGrantFilter struct {
	ID           *uint
	UserID       *uint
	TagNameNorm  *string
	ActivityCode *string
}
