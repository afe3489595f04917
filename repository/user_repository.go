package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/elevatehq/gamify/models"
	"gorm.io/gorm"
)

// UserRepositoryImpl implements UserRepository interface
type UserRepositoryImpl struct {
	*BaseRepository[models.User, models.UserFilter]
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &UserRepositoryImpl{
		BaseRepository: NewBaseRepository[models.User, models.UserFilter](db),
	}
}

// ByID retrieves a user by ID with the user type preloaded
func (r *UserRepositoryImpl) ByID(ctx context.Context, id uint) (*models.User, error) {
	db := r.getDB(ctx)

	var user models.User
	err := db.Preload("UserType").Last(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user by ID %d: %w", id, err)
	}

	return &user, nil
}

// ByUUID retrieves a user by UUID
func (r *UserRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.User, error) {
	db := r.getDB(ctx)

	var user models.User
	err := db.Preload("UserType").Where("uuid = ?", uuid).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user by UUID: %w", err)
	}

	return &user, nil
}

// ByEmail retrieves a user by email
func (r *UserRepositoryImpl) ByEmail(ctx context.Context, email string) (*models.User, error) {
	db := r.getDB(ctx)

	var user models.User
	err := db.Preload("UserType").Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	return &user, nil
}

// ByContactID retrieves the user linked to an external platform contact id.
// The unique index on contact_id guarantees at most one match.
func (r *UserRepositoryImpl) ByContactID(ctx context.Context, contactID string) (*models.User, error) {
	db := r.getDB(ctx)

	var user models.User
	err := db.Preload("UserType").Where("contact_id = ?", contactID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user by contact ID: %w", err)
	}

	return &user, nil
}

// LinkContactID sets the external platform contact id on a user
func (r *UserRepositoryImpl) LinkContactID(ctx context.Context, userID uint, contactID string) error {
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

	err = db.Model(&models.User{}).
		Where("id = ?", userID).
		Update("contact_id", contactID).Error
	if err != nil {
		return fmt.Errorf("failed to link contact ID: %w", err)
	}

	return nil
}

// applyFilter applies filter criteria to a GORM query
func (r *UserRepositoryImpl) applyFilter(query *gorm.DB, filter models.UserFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("users.id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("users.uuid = ?", *filter.UUID)
	}
	if filter.UserTypeID != nil {
		query = query.Where("users.user_type_id = ?", *filter.UserTypeID)
	}
	if filter.UserTypeName != nil {
		query = query.Joins("JOIN user_types ON user_types.id = users.user_type_id").
			Where("user_types.type_name = ?", *filter.UserTypeName)
	}
	if filter.Email != nil {
		query = query.Where("users.email = ?", *filter.Email)
	}
	if filter.ContactID != nil {
		query = query.Where("users.contact_id = ?", *filter.ContactID)
	}
	if filter.IsActive != nil {
		query = query.Where("users.is_active = ?", *filter.IsActive)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("users.created_at > ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("users.created_at < ?", *filter.CreatedBefore)
	}
	return query
}

// ByFilter retrieves users based on filter criteria
func (r *UserRepositoryImpl) ByFilter(ctx context.Context, filter models.UserFilter, orderBy string, limit, offset int) ([]*models.User, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.User{}).Preload("UserType")

	query = r.applyFilter(query, filter)

	if orderBy == "" {
		orderBy = "users.id DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []*models.User
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to find users by filter: %w", err)
	}
	return rows, nil
}

// Count returns the number of users matching the filter
func (r *UserRepositoryImpl) Count(ctx context.Context, filter models.UserFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.User{})
	query = r.applyFilter(query, filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// Exists checks if any user matching the filter exists
func (r *UserRepositoryImpl) Exists(ctx context.Context, filter models.UserFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
