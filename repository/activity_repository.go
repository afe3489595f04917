package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/elevatehq/gamify/models"
	"gorm.io/gorm"
)

// ActivityRepositoryImpl implements ActivityRepository interface
type ActivityRepositoryImpl struct {
	*BaseRepository[models.Activity, models.ActivityFilter]
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &ActivityRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Activity, models.ActivityFilter](db),
	}
}

// ByTagNorm retrieves the active activity registered for a normalized tag.
// A nil result means the tag is unrecognized.
func (r *ActivityRepositoryImpl) ByTagNorm(ctx context.Context, tagNameNorm string) (*models.Activity, error) {
	db := r.getDB(ctx)

	var activity models.Activity
	err := db.Where("tag_name_norm = ? AND is_active = ?", tagNameNorm, true).First(&activity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find activity by tag %s: %w", tagNameNorm, err)
	}

	return &activity, nil
}

// ByCode retrieves an activity by its code
func (r *ActivityRepositoryImpl) ByCode(ctx context.Context, code string) (*models.Activity, error) {
	db := r.getDB(ctx)

	var activity models.Activity
	err := db.Where("code = ?", code).First(&activity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find activity by code %s: %w", code, err)
	}

	return &activity, nil
}

// applyFilter applies filter criteria to a GORM query
func (r *ActivityRepositoryImpl) applyFilter(query *gorm.DB, filter models.ActivityFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.Code != nil {
		query = query.Where("code = ?", *filter.Code)
	}
	if filter.TagNameNorm != nil {
		query = query.Where("tag_name_norm = ?", *filter.TagNameNorm)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	return query
}

// ByFilter retrieves activities based on filter criteria
func (r *ActivityRepositoryImpl) ByFilter(ctx context.Context, filter models.ActivityFilter, orderBy string, limit, offset int) ([]*models.Activity, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Activity{})

	query = r.applyFilter(query, filter)

	if orderBy == "" {
		orderBy = "id ASC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []*models.Activity
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to find activities by filter: %w", err)
	}
	return rows, nil
}

// Count returns the number of activities matching the filter
func (r *ActivityRepositoryImpl) Count(ctx context.Context, filter models.ActivityFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Activity{})
	query = r.applyFilter(query, filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count activities: %w", err)
	}
	return count, nil
}

// Exists checks if any activity matching the filter exists
func (r *ActivityRepositoryImpl) Exists(ctx context.Context, filter models.ActivityFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
