package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/elevatehq/gamify/models"
	"gorm.io/gorm"
)

// UserTypeRepositoryImpl implements UserTypeRepository interface
type UserTypeRepositoryImpl struct {
	*BaseRepository[models.UserType, models.UserTypeFilter]
}

// NewUserTypeRepository creates a new user type repository
func NewUserTypeRepository(db *gorm.DB) UserTypeRepository {
	return &UserTypeRepositoryImpl{
		BaseRepository: NewBaseRepository[models.UserType, models.UserTypeFilter](db),
	}
}

// ByTypeName retrieves a user type by its name
func (r *UserTypeRepositoryImpl) ByTypeName(ctx context.Context, typeName string) (*models.UserType, error) {
	db := r.getDB(ctx)

	var row models.UserType
	err := db.Where("type_name = ?", typeName).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user type by name %s: %w", typeName, err)
	}

	return &row, nil
}

// applyFilter applies filter criteria to a GORM query
func (r *UserTypeRepositoryImpl) applyFilter(query *gorm.DB, filter models.UserTypeFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.TypeName != nil {
		query = query.Where("type_name = ?", *filter.TypeName)
	}
	return query
}

// ByFilter retrieves user types based on filter criteria
func (r *UserTypeRepositoryImpl) ByFilter(ctx context.Context, filter models.UserTypeFilter, orderBy string, limit, offset int) ([]*models.UserType, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.UserType{})

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

	var rows []*models.UserType
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to find user types by filter: %w", err)
	}
	return rows, nil
}

// Count returns the number of user types matching the filter
func (r *UserTypeRepositoryImpl) Count(ctx context.Context, filter models.UserTypeFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.UserType{})
	query = r.applyFilter(query, filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count user types: %w", err)
	}
	return count, nil
}

// Exists checks if any user type matching the filter exists
func (r *UserTypeRepositoryImpl) Exists(ctx context.Context, filter models.UserTypeFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
