package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/elevatehq/gamify/models"
	"gorm.io/gorm"
)

// TagGrantRepositoryImpl implements TagGrantRepository interface
type TagGrantRepositoryImpl struct {
	*BaseRepository[models.TagGrant, models.TagGrantFilter]
}

// NewTagGrantRepository creates a new tag grant repository
func NewTagGrantRepository(db *gorm.DB) TagGrantRepository {
	return &TagGrantRepositoryImpl{
		BaseRepository: NewBaseRepository[models.TagGrant, models.TagGrantFilter](db),
	}
}

// Insert records a credit marker, deduplicated on (user_id, tag_name_norm).
// AlreadyExists means the user was credited for this tag by an earlier event;
// the conflict leaves the enclosing transaction intact so the caller can still
// commit the event record.
func (r *TagGrantRepositoryImpl) Insert(ctx context.Context, grant *models.TagGrant) (InsertOutcome, error) {
	db := r.getDB(ctx)

	outcome, err := insertWithOutcome(db.WithContext(ctx), grant, "user_id", "tag_name_norm")
	if err != nil {
		return outcome, fmt.Errorf("failed to insert tag grant: %w", err)
	}
	return outcome, nil
}

// ByUserAndTag retrieves the grant held by a user for a normalized tag
func (r *TagGrantRepositoryImpl) ByUserAndTag(ctx context.Context, userID uint, tagNameNorm string) (*models.TagGrant, error) {
	db := r.getDB(ctx)

	var grant models.TagGrant
	err := db.Where("user_id = ? AND tag_name_norm = ?", userID, tagNameNorm).First(&grant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find tag grant: %w", err)
	}

	return &grant, nil
}

// applyFilter applies filter criteria to a GORM query
func (r *TagGrantRepositoryImpl) applyFilter(query *gorm.DB, filter models.TagGrantFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.TagNameNorm != nil {
		query = query.Where("tag_name_norm = ?", *filter.TagNameNorm)
	}
	if filter.ActivityCode != nil {
		query = query.Where("activity_code = ?", *filter.ActivityCode)
	}
	return query
}

// ByFilter retrieves tag grants based on filter criteria
func (r *TagGrantRepositoryImpl) ByFilter(ctx context.Context, filter models.TagGrantFilter, orderBy string, limit, offset int) ([]*models.TagGrant, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.TagGrant{})

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

	var rows []*models.TagGrant
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to find tag grants by filter: %w", err)
	}
	return rows, nil
}

// Count returns the number of tag grants matching the filter
func (r *TagGrantRepositoryImpl) Count(ctx context.Context, filter models.TagGrantFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.TagGrant{})
	query = r.applyFilter(query, filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count tag grants: %w", err)
	}
	return count, nil
}

// Exists checks if any tag grant matching the filter exists
func (r *TagGrantRepositoryImpl) Exists(ctx context.Context, filter models.TagGrantFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
