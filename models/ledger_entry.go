package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LedgerSource identifies what produced a ledger entry
type LedgerSource string

const (
	LedgerSourceWebhook  LedgerSource = "webhook"  // credit driven by a platform completion event
	LedgerSourceBackfill LedgerSource = "backfill" // credit granted retroactively by reconciliation
)

// LedgerEntry is an immutable, append-only points record. The sum of a user's
// entries is the system of record for their score; entries are never mutated
// or deleted by the ingestion pipeline.
type LedgerEntry struct {
	ID   uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_ledger_entries_uuid" json:"uuid"`

	UserID       uint         `gorm:"not null;index:idx_ledger_entries_user_id" json:"user_id"`
	ActivityCode string       `gorm:"size:100;not null;index:idx_ledger_entries_activity_code" json:"activity_code"`
	Source       LedgerSource `gorm:"type:varchar(20);not null;index:idx_ledger_entries_source" json:"source"`
	DeltaPoints  int          `gorm:"not null" json:"delta_points"`

	// External linkage for audit traceability back to the originating event.
	ExternalSource  string `gorm:"size:100;not null" json:"external_source"`
	ExternalEventID string `gorm:"size:255;not null;index:idx_ledger_entries_external_event_id" json:"external_event_id"`

	Description string          `gorm:"type:text" json:"description"`
	Metadata    json.RawMessage `gorm:"type:jsonb;default:'{}'" json:"metadata"`

	CreatedAt time.Time `gorm:"not null;default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_ledger_entries_created_at" json:"created_at"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}

func (LedgerEntry) TableName() string {
	return "ledger_entries"
}

// BeforeCreate ensures the UUID is set
func (l *LedgerEntry) BeforeCreate(tx *gorm.DB) error {
	if l.UUID == uuid.Nil {
		l.UUID = uuid.New()
	}
	return nil
}

// LedgerEntryFilter represents filter criteria for ledger queries
type LedgerEntryFilter struct {
	ID              *uint
	UUID            *uuid.UUID
	UserID          *uint
	ActivityCode    *string
	Source          *LedgerSource
	ExternalEventID *string
	CreatedAfter    *time.Time
	CreatedBefore   *time.Time
}
