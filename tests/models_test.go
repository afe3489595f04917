// Package tests contains test cases for models and repository packages to avoid circular imports
package tests

import (
	"context"
	"testing"

	"github.com/elevatehq/gamify/models"
	"github.com/elevatehq/gamify/repository"
	testingutil "github.com/elevatehq/gamify/testing"
	"github.com/elevatehq/gamify/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserType(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		t.Run("UserTypeConstants", func(t *testing.T) {
			assert.Equal(t, "educator", models.UserTypeEducator)
			assert.Equal(t, "student", models.UserTypeStudent)
			assert.Equal(t, "admin", models.UserTypeAdmin)
		})

		t.Run("TableName", func(t *testing.T) {
			userType := &models.UserType{}
			assert.Equal(t, "user_types", userType.TableName())
		})

		t.Run("OnlyEducatorsAreEligible", func(t *testing.T) {
			educator := &models.UserType{TypeName: models.UserTypeEducator}
			student := &models.UserType{TypeName: models.UserTypeStudent}
			admin := &models.UserType{TypeName: models.UserTypeAdmin}

			assert.True(t, educator.EligibleForCredit())
			assert.False(t, student.EligibleForCredit())
			assert.False(t, admin.EligibleForCredit())
		})

		return nil
	})
	require.NoError(t, err)
}

func TestUser(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)

		t.Run("CreateEducatorWithContactID", func(t *testing.T) {
			user, err := fixtures.CreateTestUser(models.UserTypeEducator, "contact-123")
			require.NoError(t, err)
			assert.NotZero(t, user.ID)
			assert.NotEmpty(t, user.UUID)
			assert.True(t, utils.IsTrue(user.IsActive))
			require.NotNil(t, user.ContactID)
			assert.Equal(t, "contact-123", *user.ContactID)
			assert.True(t, user.IsEducator())
		})

		t.Run("CreateUnlinkedStudent", func(t *testing.T) {
			user, err := fixtures.CreateTestUser(models.UserTypeStudent, "")
			require.NoError(t, err)
			assert.Nil(t, user.ContactID)
			assert.False(t, user.IsEducator())
		})

		t.Run("ContactIDIsUnique", func(t *testing.T) {
			_, err := fixtures.CreateTestUser(models.UserTypeEducator, "contact-dup")
			require.NoError(t, err)

			_, err = fixtures.CreateTestUser(models.UserTypeEducator, "contact-dup")
			assert.Error(t, err)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestWebhookEvent(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)

		t.Run("TableName", func(t *testing.T) {
			event := &models.WebhookEvent{}
			assert.Equal(t, "webhook_events", event.TableName())
		})

		t.Run("OnlyQueuedEventsAreReprocessable", func(t *testing.T) {
			queued := &models.WebhookEvent{Status: models.WebhookEventStatusQueuedUnmatched}
			processed := &models.WebhookEvent{Status: models.WebhookEventStatusProcessed}
			ignored := &models.WebhookEvent{Status: models.WebhookEventStatusIgnored}

			assert.True(t, queued.IsReprocessable())
			assert.False(t, processed.IsReprocessable())
			assert.False(t, ignored.IsReprocessable())
		})

		t.Run("EventTagPairIsUnique", func(t *testing.T) {
			_, err := fixtures.CreateQueuedEvent("evt-uniq", "c-uniq", "some-tag")
			require.NoError(t, err)

			// Same pair collides
			_, err = fixtures.CreateQueuedEvent("evt-uniq", "c-uniq", "some-tag")
			assert.Error(t, err)

			// Same event id with a different normalized tag is a distinct unit
			_, err = fixtures.CreateQueuedEvent("evt-uniq", "c-uniq", "another-tag")
			assert.NoError(t, err)
		})

		t.Run("UuidCollisionIsARawUniqueViolation", func(t *testing.T) {
			// Only the (event_id, tag_name_norm) index is resolved in the
			// INSERT; a collision on any other unique index surfaces as an
			// error and must be classifiable by the caller.
			eventRepo := repository.NewWebhookEventRepository(testDB.DB)
			ctx := context.Background()
			sharedUUID := uuid.New()

			first := &models.WebhookEvent{
				UUID:           sharedUUID,
				EventID:        "evt-uuid-a",
				TagNameRaw:     "some-tag",
				TagNameNorm:    "some-tag",
				ContactID:      "c-uuid",
				Email:          "c-uuid@example.com",
				Status:         models.WebhookEventStatusQueuedUnmatched,
				StatusReason:   "unmatched_contact",
				EventCreatedAt: utils.UTCNow(),
				ReceivedAt:     utils.UTCNow(),
				Payload:        []byte(`{}`),
			}
			outcome, err := eventRepo.Insert(ctx, first)
			require.NoError(t, err)
			assert.Equal(t, repository.Inserted, outcome)

			second := &models.WebhookEvent{
				UUID:           sharedUUID,
				EventID:        "evt-uuid-b",
				TagNameRaw:     "some-tag",
				TagNameNorm:    "some-tag",
				ContactID:      "c-uuid",
				Email:          "c-uuid@example.com",
				Status:         models.WebhookEventStatusQueuedUnmatched,
				StatusReason:   "unmatched_contact",
				EventCreatedAt: utils.UTCNow(),
				ReceivedAt:     utils.UTCNow(),
				Payload:        []byte(`{}`),
			}
			_, err = eventRepo.Insert(ctx, second)
			require.Error(t, err)
			assert.True(t, repository.IsUniqueViolation(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestTagGrant(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)

		t.Run("UserTagPairIsUnique", func(t *testing.T) {
			user, err := fixtures.CreateTestUser(models.UserTypeEducator, "c-grant")
			require.NoError(t, err)

			grant := &models.TagGrant{
				UserID:       user.ID,
				TagNameNorm:  "some-tag",
				ActivityCode: "some_activity",
			}
			require.NoError(t, testDB.DB.Create(grant).Error)

			dup := &models.TagGrant{
				UserID:       user.ID,
				TagNameNorm:  "some-tag",
				ActivityCode: "some_activity",
			}
			assert.Error(t, testDB.DB.Create(dup).Error)
		})

		return nil
	})
	require.NoError(t, err)
}
