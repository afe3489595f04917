package repository

import (
	"context"
	"fmt"

	"github.com/elevatehq/gamify/models"
	"gorm.io/gorm"
)

// LedgerRepositoryImpl implements LedgerRepository interface
type LedgerRepositoryImpl struct {
	*BaseRepository[models.LedgerEntry, models.LedgerEntryFilter]
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &LedgerRepositoryImpl{
		BaseRepository: NewBaseRepository[models.LedgerEntry, models.LedgerEntryFilter](db),
	}
}

// Append inserts an immutable ledger entry. The ledger has no update or
// delete path; corrections are new entries.
func (r *LedgerRepositoryImpl) Append(ctx context.Context, entry *models.LedgerEntry) error {
	db := r.getDB(ctx)

	if err := db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return nil
}

// SumByUser returns the user's total points as the sum of all their entries
func (r *LedgerRepositoryImpl) SumByUser(ctx context.Context, userID uint) (int64, error) {
	db := r.getDB(ctx)

	var total int64
	err := db.Model(&models.LedgerEntry{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(delta_points), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum ledger entries for user %d: %w", userID, err)
	}
	return total, nil
}

// ListByUser retrieves a user's ledger entries, newest first
func (r *LedgerRepositoryImpl) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.LedgerEntry, error) {
	filter := models.LedgerEntryFilter{UserID: &userID}
	return r.ByFilter(ctx, filter, "created_at DESC, id DESC", limit, offset)
}

// TopScores aggregates the leaderboard: active users ranked by total points
func (r *LedgerRepositoryImpl) TopScores(ctx context.Context, limit int) ([]*UserScore, error) {
	db := r.getDB(ctx)

	if limit <= 0 {
		limit = 10
	}

	var rows []*UserScore
	err := db.Model(&models.LedgerEntry{}).
		Select("users.id AS user_id, users.uuid AS user_uuid, users.first_name, users.last_name, SUM(ledger_entries.delta_points) AS total_points").
		Joins("JOIN users ON users.id = ledger_entries.user_id").
		Where("users.is_active = ?", true).
		Group("users.id, users.uuid, users.first_name, users.last_name").
		Order("total_points DESC, user_id ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate leaderboard: %w", err)
	}
	return rows, nil
}

// applyFilter applies filter criteria to a GORM query
func (r *LedgerRepositoryImpl) applyFilter(query *gorm.DB, filter models.LedgerEntryFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.ActivityCode != nil {
		query = query.Where("activity_code = ?", *filter.ActivityCode)
	}
	if filter.Source != nil {
		query = query.Where("source = ?", *filter.Source)
	}
	if filter.ExternalEventID != nil {
		query = query.Where("external_event_id = ?", *filter.ExternalEventID)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	return query
}

// ByFilter retrieves ledger entries based on filter criteria
func (r *LedgerRepositoryImpl) ByFilter(ctx context.Context, filter models.LedgerEntryFilter, orderBy string, limit, offset int) ([]*models.LedgerEntry, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.LedgerEntry{})

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

	var rows []*models.LedgerEntry
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to find ledger entries by filter: %w", err)
	}
	return rows, nil
}

// Count returns the number of ledger entries matching the filter
func (r *LedgerRepositoryImpl) Count(ctx context.Context, filter models.LedgerEntryFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.LedgerEntry{})
	query = r.applyFilter(query, filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}
	return count, nil
}

// Exists checks if any ledger entry matching the filter exists
func (r *LedgerRepositoryImpl) Exists(ctx context.Context, filter models.LedgerEntryFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
