package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// WebhookEventStatus represents the processing state of a received completion event
type WebhookEventStatus string

const (
	// WebhookEventStatusProcessed means credit was awarded (or the event was
	// confirmed already-credited). Terminal.
	WebhookEventStatusProcessed WebhookEventStatus = "processed"
	// WebhookEventStatusIgnored covers ineligible users and unrecognized tags.
	// Terminal.
	WebhookEventStatusIgnored WebhookEventStatus = "ignored"
	// WebhookEventStatusQueuedUnmatched means no local user carried the contact
	// id at receipt time; the backfill path may later move it to processed.
	WebhookEventStatusQueuedUnmatched WebhookEventStatus = "queued_unmatched"
)

// WebhookEvent is one received (event, tag) pair from the learning platform.
// Table: webhook_events
// The composite unique index on (event_id, tag_name_norm) is the sole
// deduplication key: redeliveries and cosmetic tag variants collapse onto the
// same row, and the database serializes concurrent duplicate inserts.
type WebhookEvent struct {
	ID   uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_webhook_events_uuid" json:"uuid"`

	EventID     string `gorm:"size:255;not null;uniqueIndex:uk_webhook_events_event_tag,priority:1" json:"event_id"`
	TagNameRaw  string `gorm:"size:255;not null" json:"tag_name_raw"`
	TagNameNorm string `gorm:"size:255;not null;uniqueIndex:uk_webhook_events_event_tag,priority:2;index:idx_webhook_events_tag_norm" json:"tag_name_norm"`

	ContactID string `gorm:"size:255;not null;index:idx_webhook_events_contact_id" json:"contact_id"`
	Email     string `gorm:"size:255;not null" json:"email"`

	Status       WebhookEventStatus `gorm:"type:varchar(20);not null;index:idx_webhook_events_status" json:"status"`
	StatusReason string             `gorm:"size:255" json:"status_reason"`

	// EventCreatedAt is the source-assigned timestamp, ReceivedAt ours.
	EventCreatedAt time.Time  `gorm:"not null" json:"event_created_at"`
	ReceivedAt     time.Time  `gorm:"not null;default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_webhook_events_received_at" json:"received_at"`
	ProcessedAt    *time.Time `json:"processed_at,omitempty"`

	Payload json.RawMessage `gorm:"type:jsonb;default:'{}'" json:"payload"`

	CreatedAt time.Time `gorm:"not null;default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (WebhookEvent) TableName() string {
	return "webhook_events"
}

// IsReprocessable reports whether the backfill path may re-drive this event.
func (e *WebhookEvent) IsReprocessable() bool {
	return e.Status == WebhookEventStatusQueuedUnmatched
}

// WebhookEventFilter represents filter criteria for webhook event queries
type WebhookEventFilter struct {
	ID             *uint
	UUID           *uuid.UUID
	EventID        *string
	TagNameNorm    *string
	ContactID      *string
	Status         *WebhookEventStatus
	ReceivedAfter  *time.Time
	ReceivedBefore *time.Time
}
