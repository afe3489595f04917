// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/elevatehq/gamify/models"
	"github.com/google/uuid"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// UserTypeRepository defines operations for user types
type UserTypeRepository interface {
	Repository[models.UserType, models.UserTypeFilter]
	ByTypeName(ctx context.Context, typeName string) (*models.UserType, error)
}

// UserRepository defines operations for users
type UserRepository interface {
	Repository[models.User, models.UserFilter]
	ByUUID(ctx context.Context, uuid string) (*models.User, error)
	ByEmail(ctx context.Context, email string) (*models.User, error)
	ByContactID(ctx context.Context, contactID string) (*models.User, error)
	LinkContactID(ctx context.Context, userID uint, contactID string) error
}

// WebhookEventRepository defines operations for received completion events.
// Insert is the deduplication gate: it reports AlreadyExists when the
// (event_id, tag_name_norm) pair has been seen before.
type WebhookEventRepository interface {
	Repository[models.WebhookEvent, models.WebhookEventFilter]
	Insert(ctx context.Context, event *models.WebhookEvent) (InsertOutcome, error)
	ByEventAndTag(ctx context.Context, eventID, tagNameNorm string) (*models.WebhookEvent, error)
	UpdateStatus(ctx context.Context, eventID uint, status models.WebhookEventStatus, reason string, processedAt *time.Time) error
	ListQueuedByContact(ctx context.Context, contactID string) ([]*models.WebhookEvent, error)
	QueuedContactIDs(ctx context.Context, limit int) ([]string, error)
}

// TagGrantRepository defines operations for per-user tag credit markers.
// Insert reports AlreadyExists when the user already holds the tag.
type TagGrantRepository interface {
	Repository[models.TagGrant, models.TagGrantFilter]
	Insert(ctx context.Context, grant *models.TagGrant) (InsertOutcome, error)
	ByUserAndTag(ctx context.Context, userID uint, tagNameNorm string) (*models.TagGrant, error)
}

// ActivityRepository defines operations for the recognized-tag registry
type ActivityRepository interface {
	Repository[models.Activity, models.ActivityFilter]
	ByTagNorm(ctx context.Context, tagNameNorm string) (*models.Activity, error)
	ByCode(ctx context.Context, code string) (*models.Activity, error)
}

// LedgerRepository defines operations for the append-only points ledger
type LedgerRepository interface {
	Repository[models.LedgerEntry, models.LedgerEntryFilter]
	Append(ctx context.Context, entry *models.LedgerEntry) error
	SumByUser(ctx context.Context, userID uint) (int64, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.LedgerEntry, error)
	TopScores(ctx context.Context, limit int) ([]*UserScore, error)
}

// UserScore is an aggregated leaderboard row
type UserScore struct {
	UserID      uint      `json:"user_id"`
	UserUUID    uuid.UUID `json:"user_uuid"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	TotalPoints int64     `json:"total_points"`
}

// BadgeRepository defines operations for badges and badge awards
type BadgeRepository interface {
	Repository[models.Badge, models.BadgeFilter]
	ListActive(ctx context.Context) ([]*models.Badge, error)
	InsertUserBadge(ctx context.Context, award *models.UserBadge) (InsertOutcome, error)
	ListUserBadges(ctx context.Context, userID uint) ([]*models.UserBadge, error)
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.AuditLog, error)
	ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.AuditLog, error)
	ListFailedActions(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)
}
