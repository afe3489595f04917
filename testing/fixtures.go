// Package testing provides test utilities and database setup for testing the gamification service
package testing

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/elevatehq/gamify/models"
	"github.com/elevatehq/gamify/repository"
	"github.com/elevatehq/gamify/utils"
	"github.com/google/uuid"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestUser creates a test user of the given type. A non-empty contactID
// links the user to the external learning platform.
func (tf *TestFixtures) CreateTestUser(userTypeName, contactID string) (*models.User, error) {
	userTypeRepo := repository.NewUserTypeRepository(tf.DB.DB)
	userType, err := userTypeRepo.ByTypeName(context.Background(), userTypeName)
	if err != nil {
		return nil, fmt.Errorf("failed to find user type %s: %w", userTypeName, err)
	}
	if userType == nil {
		return nil, fmt.Errorf("user type %s is not seeded", userTypeName)
	}

	randomDigits := fmt.Sprintf("%09d", rand.Intn(900000000)+100000000)

	user := &models.User{
		UUID:       uuid.New(),
		UserTypeID: userType.ID,
		UserType:   *userType,
		FirstName:  "Jane",
		LastName:   "Doe",
		Email:      fmt.Sprintf("jane.doe.%d.%s@example.com", userType.ID, randomDigits),
		IsActive:   utils.ToPtr(true),
	}
	if contactID != "" {
		user.ContactID = &contactID
	}

	err = tf.DB.DB.Create(user).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create test user: %w", err)
	}

	return user, nil
}

// CreateTestActivity registers a recognized tag with the given point value
func (tf *TestFixtures) CreateTestActivity(code, tagNameNorm string, points int) (*models.Activity, error) {
	activity := &models.Activity{
		Code:        code,
		TagNameNorm: tagNameNorm,
		Title:       fmt.Sprintf("Test activity %s", code),
		Points:      points,
		IsActive:    utils.ToPtr(true),
	}

	err := tf.DB.DB.Create(activity).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create test activity: %w", err)
	}

	return activity, nil
}

// CreateTestBadge creates an active badge with the given points threshold
func (tf *TestFixtures) CreateTestBadge(code string, threshold int) (*models.Badge, error) {
	badge := &models.Badge{
		Code:            code,
		Name:            fmt.Sprintf("Test badge %s", code),
		PointsThreshold: threshold,
		IsActive:        utils.ToPtr(true),
	}

	err := tf.DB.DB.Create(badge).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create test badge: %w", err)
	}

	return badge, nil
}

// CreateQueuedEvent parks a completion event as queued_unmatched, the state a
// webhook delivery lands in when its contact id has no registered user yet.
func (tf *TestFixtures) CreateQueuedEvent(eventID, contactID, tagNameNorm string) (*models.WebhookEvent, error) {
	event := &models.WebhookEvent{
		UUID:           uuid.New(),
		EventID:        eventID,
		TagNameRaw:     tagNameNorm,
		TagNameNorm:    tagNameNorm,
		ContactID:      contactID,
		Email:          fmt.Sprintf("%s@example.com", contactID),
		Status:         models.WebhookEventStatusQueuedUnmatched,
		StatusReason:   "unmatched_contact",
		EventCreatedAt: utils.UTCNow(),
		ReceivedAt:     utils.UTCNow(),
		Payload:        []byte(`{}`),
	}

	err := tf.DB.DB.Create(event).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create queued event: %w", err)
	}

	return event, nil
}

// CountLedgerEntries returns how many ledger rows the user has
func (tf *TestFixtures) CountLedgerEntries(userID uint) (int64, error) {
	var count int64
	err := tf.DB.DB.Model(&models.LedgerEntry{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// CountTagGrants returns how many tag grants the user has
func (tf *TestFixtures) CountTagGrants(userID uint) (int64, error) {
	var count int64
	err := tf.DB.DB.Model(&models.TagGrant{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
