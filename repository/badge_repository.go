package repository

import (
	"context"
	"fmt"

	"github.com/elevatehq/gamify/models"
	"gorm.io/gorm"
)

// BadgeRepositoryImpl implements BadgeRepository interface
type BadgeRepositoryImpl struct {
	*BaseRepository[models.Badge, models.BadgeFilter]
}

// NewBadgeRepository creates a new badge repository
func NewBadgeRepository(db *gorm.DB) BadgeRepository {
	return &BadgeRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Badge, models.BadgeFilter](db),
	}
}

// ListActive retrieves active badges ordered by threshold
func (r *BadgeRepositoryImpl) ListActive(ctx context.Context) ([]*models.Badge, error) {
	db := r.getDB(ctx)

	var rows []*models.Badge
	err := db.Model(&models.Badge{}).
		Where("is_active = ?", true).
		Order("points_threshold ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active badges: %w", err)
	}
	return rows, nil
}

// InsertUserBadge awards a badge, deduplicated on (user_id, badge_id) so
// repeated evaluation passes stay idempotent.
func (r *BadgeRepositoryImpl) InsertUserBadge(ctx context.Context, award *models.UserBadge) (InsertOutcome, error) {
	db := r.getDB(ctx)

	outcome, err := insertWithOutcome(db.WithContext(ctx), award, "user_id", "badge_id")
	if err != nil {
		return outcome, fmt.Errorf("failed to insert user badge: %w", err)
	}
	return outcome, nil
}

// ListUserBadges retrieves a user's awarded badges with badge data preloaded
func (r *BadgeRepositoryImpl) ListUserBadges(ctx context.Context, userID uint) ([]*models.UserBadge, error) {
	db := r.getDB(ctx)

	var rows []*models.UserBadge
	err := db.Model(&models.UserBadge{}).
		Preload("Badge").
		Where("user_id = ?", userID).
		Order("awarded_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list user badges: %w", err)
	}
	return rows, nil
}

// applyFilter applies filter criteria to a GORM query
func (r *BadgeRepositoryImpl) applyFilter(query *gorm.DB, filter models.BadgeFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.Code != nil {
		query = query.Where("code = ?", *filter.Code)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	return query
}

// ByFilter retrieves badges based on filter criteria
func (r *BadgeRepositoryImpl) ByFilter(ctx context.Context, filter models.BadgeFilter, orderBy string, limit, offset int) ([]*models.Badge, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Badge{})

	query = r.applyFilter(query, filter)

	if orderBy == "" {
		orderBy = "points_threshold ASC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []*models.Badge
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to find badges by filter: %w", err)
	}
	return rows, nil
}

// Count returns the number of badges matching the filter
func (r *BadgeRepositoryImpl) Count(ctx context.Context, filter models.BadgeFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Badge{})
	query = r.applyFilter(query, filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count badges: %w", err)
	}
	return count, nil
}

// Exists checks if any badge matching the filter exists
func (r *BadgeRepositoryImpl) Exists(ctx context.Context, filter models.BadgeFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
