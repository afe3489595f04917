package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/elevatehq/gamify/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WebhookEventRepositoryImpl implements WebhookEventRepository interface
type WebhookEventRepositoryImpl struct {
	*BaseRepository[models.WebhookEvent, models.WebhookEventFilter]
}

// NewWebhookEventRepository creates a new webhook event repository
func NewWebhookEventRepository(db *gorm.DB) WebhookEventRepository {
	return &WebhookEventRepositoryImpl{
		BaseRepository: NewBaseRepository[models.WebhookEvent, models.WebhookEventFilter](db),
	}
}

// Insert persists a received event, deduplicated on (event_id, tag_name_norm).
// The conflict is resolved in the INSERT itself so concurrent redeliveries
// never abort the caller's transaction; AlreadyExists means the pair was
// recorded before and the caller must not award again.
func (r *WebhookEventRepositoryImpl) Insert(ctx context.Context, event *models.WebhookEvent) (InsertOutcome, error) {
	db := r.getDB(ctx)

	if event.UUID == uuid.Nil {
		event.UUID = uuid.New()
	}

	outcome, err := insertWithOutcome(db.WithContext(ctx), event, "event_id", "tag_name_norm")
	if err != nil {
		return outcome, fmt.Errorf("failed to insert webhook event: %w", err)
	}
	return outcome, nil
}

// ByEventAndTag retrieves the stored row for a deduplication pair
func (r *WebhookEventRepositoryImpl) ByEventAndTag(ctx context.Context, eventID, tagNameNorm string) (*models.WebhookEvent, error) {
	db := r.getDB(ctx)

	var event models.WebhookEvent
	err := db.Where("event_id = ? AND tag_name_norm = ?", eventID, tagNameNorm).First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find webhook event: %w", err)
	}

	return &event, nil
}

// UpdateStatus transitions a stored event to a new processing status
func (r *WebhookEventRepositoryImpl) UpdateStatus(ctx context.Context, eventID uint, status models.WebhookEventStatus, reason string, processedAt *time.Time) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	updates := map[string]any{
		"status":        status,
		"status_reason": reason,
		"updated_at":    time.Now().UTC(),
	}
	if processedAt != nil {
		updates["processed_at"] = *processedAt
	}

	err = db.Model(&models.WebhookEvent{}).
		Where("id = ?", eventID).
		Updates(updates).Error
	if err != nil {
		return fmt.Errorf("failed to update webhook event status: %w", err)
	}

	return nil
}

// ListQueuedByContact retrieves unmatched events for one contact id, oldest
// first so backfill credits in arrival order.
func (r *WebhookEventRepositoryImpl) ListQueuedByContact(ctx context.Context, contactID string) ([]*models.WebhookEvent, error) {
	db := r.getDB(ctx)

	var rows []*models.WebhookEvent
	err := db.Model(&models.WebhookEvent{}).
		Where("contact_id = ? AND status = ?", contactID, models.WebhookEventStatusQueuedUnmatched).
		Order("received_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list queued webhook events: %w", err)
	}
	return rows, nil
}

// QueuedContactIDs returns the distinct contact ids that still have unmatched
// events waiting, for the reconciliation sweep.
func (r *WebhookEventRepositoryImpl) QueuedContactIDs(ctx context.Context, limit int) ([]string, error) {
	db := r.getDB(ctx)

	query := db.Model(&models.WebhookEvent{}).
		Distinct("contact_id").
		Where("status = ?", models.WebhookEventStatusQueuedUnmatched).
		Order("contact_id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var ids []string
	if err := query.Pluck("contact_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list queued contact IDs: %w", err)
	}
	return ids, nil
}

// applyFilter applies filter criteria to a GORM query
func (r *WebhookEventRepositoryImpl) applyFilter(query *gorm.DB, filter models.WebhookEventFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.EventID != nil {
		query = query.Where("event_id = ?", *filter.EventID)
	}
	if filter.TagNameNorm != nil {
		query = query.Where("tag_name_norm = ?", *filter.TagNameNorm)
	}
	if filter.ContactID != nil {
		query = query.Where("contact_id = ?", *filter.ContactID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.ReceivedAfter != nil {
		query = query.Where("received_at > ?", *filter.ReceivedAfter)
	}
	if filter.ReceivedBefore != nil {
		query = query.Where("received_at < ?", *filter.ReceivedBefore)
	}
	return query
}

// ByFilter retrieves webhook events based on filter criteria
func (r *WebhookEventRepositoryImpl) ByFilter(ctx context.Context, filter models.WebhookEventFilter, orderBy string, limit, offset int) ([]*models.WebhookEvent, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.WebhookEvent{})

	query = r.applyFilter(query, filter)

	if orderBy == "" {
		orderBy = "id DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []*models.WebhookEvent
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to find webhook events by filter: %w", err)
	}
	return rows, nil
}

// Count returns the number of webhook events matching the filter
func (r *WebhookEventRepositoryImpl) Count(ctx context.Context, filter models.WebhookEventFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.WebhookEvent{})
	query = r.applyFilter(query, filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count webhook events: %w", err)
	}
	return count, nil
}

// Exists checks if any webhook event matching the filter exists
func (r *WebhookEventRepositoryImpl) Exists(ctx context.Context, filter models.WebhookEventFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
