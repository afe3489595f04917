package tests

import (
	"context"
	"testing"

	"github.com/elevatehq/gamify/app/services"
	businessflow "github.com/elevatehq/gamify/business_flow"
	"github.com/elevatehq/gamify/models"
	"github.com/elevatehq/gamify/repository"
	testingutil "github.com/elevatehq/gamify/testing"
	"github.com/elevatehq/gamify/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReconcileFlow(testDB *testingutil.TestDB) (businessflow.ReconcileFlow, repository.LedgerRepository, repository.WebhookEventRepository) {
	eventRepo := repository.NewWebhookEventRepository(testDB.DB)
	userRepo := repository.NewUserRepository(testDB.DB)
	activityRepo := repository.NewActivityRepository(testDB.DB)
	tagGrantRepo := repository.NewTagGrantRepository(testDB.DB)
	ledgerRepo := repository.NewLedgerRepository(testDB.DB)
	badgeRepo := repository.NewBadgeRepository(testDB.DB)
	auditRepo := repository.NewAuditLogRepository(testDB.DB)

	badgeEvaluator := services.NewThresholdBadgeEvaluator(ledgerRepo, badgeRepo)

	flow := businessflow.NewReconcileFlow(
		eventRepo,
		userRepo,
		activityRepo,
		tagGrantRepo,
		ledgerRepo,
		auditRepo,
		badgeEvaluator,
		testDB.DB,
		utils.DefaultExternalSource,
		utils.BackfillScanLimit,
	)

	return flow, ledgerRepo, eventRepo
}

func TestBackfillContact(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow, ledgerRepo, eventRepo := newReconcileFlow(testDB)
		meta := businessflow.NewClientMetadata("127.0.0.1", "test-agent")
		ctx := context.Background()

		_, err := fixtures.CreateTestActivity("elevate_ai_1", "elevate-ai-1-completed", 50)
		require.NoError(t, err)
		_, err = fixtures.CreateTestActivity("elevate_ai_2", "elevate-ai-2-completed", 25)
		require.NoError(t, err)

		t.Run("CreditsQueuedEventsOnceContactIsLinked", func(t *testing.T) {
			_, err := fixtures.CreateQueuedEvent("evt-bf-1", "c-late", "elevate-ai-1-completed")
			require.NoError(t, err)
			_, err = fixtures.CreateQueuedEvent("evt-bf-2", "c-late", "elevate-ai-2-completed")
			require.NoError(t, err)

			// Registration happens after the events arrived
			educator, err := fixtures.CreateTestUser(models.UserTypeEducator, "c-late")
			require.NoError(t, err)

			summary, err := flow.BackfillContact(ctx, "c-late", meta)
			require.NoError(t, err)
			require.NotNil(t, summary)
			assert.Equal(t, 2, summary.Scanned)
			assert.Equal(t, 2, summary.Credited)
			assert.Zero(t, summary.Ignored)
			assert.Zero(t, summary.Failed)

			total, err := ledgerRepo.SumByUser(ctx, educator.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(75), total)

			event, err := eventRepo.ByEventAndTag(ctx, "evt-bf-1", "elevate-ai-1-completed")
			require.NoError(t, err)
			require.NotNil(t, event)
			assert.Equal(t, models.WebhookEventStatusProcessed, event.Status)
			assert.Equal(t, "backfilled", event.StatusReason)
			assert.NotNil(t, event.ProcessedAt)

			// Ledger entries carry the backfill source
			entries, err := ledgerRepo.ListByUser(ctx, educator.ID, 10, 0)
			require.NoError(t, err)
			require.Len(t, entries, 2)
			for _, entry := range entries {
				assert.Equal(t, models.LedgerSourceBackfill, entry.Source)
			}
		})

		t.Run("SweepIsIdempotent", func(t *testing.T) {
			_, err := fixtures.CreateQueuedEvent("evt-bf-again", "c-twice", "elevate-ai-1-completed")
			require.NoError(t, err)
			educator, err := fixtures.CreateTestUser(models.UserTypeEducator, "c-twice")
			require.NoError(t, err)

			first, err := flow.BackfillContact(ctx, "c-twice", meta)
			require.NoError(t, err)
			assert.Equal(t, 1, first.Credited)

			// Nothing left to re-drive
			second, err := flow.BackfillContact(ctx, "c-twice", meta)
			require.NoError(t, err)
			assert.Zero(t, second.Scanned)

			entries, err := fixtures.CountLedgerEntries(educator.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(1), entries)
		})

		t.Run("IgnoresUnrecognizedTagAndIneligibleUser", func(t *testing.T) {
			_, err := fixtures.CreateQueuedEvent("evt-bf-unknown", "c-mixed", "never-registered-tag")
			require.NoError(t, err)
			educator, err := fixtures.CreateTestUser(models.UserTypeEducator, "c-mixed")
			require.NoError(t, err)

			summary, err := flow.BackfillContact(ctx, "c-mixed", meta)
			require.NoError(t, err)
			assert.Equal(t, 1, summary.Scanned)
			assert.Zero(t, summary.Credited)
			assert.Equal(t, 1, summary.Ignored)

			event, err := eventRepo.ByEventAndTag(ctx, "evt-bf-unknown", "never-registered-tag")
			require.NoError(t, err)
			require.NotNil(t, event)
			assert.Equal(t, models.WebhookEventStatusIgnored, event.Status)
			assert.Equal(t, "unrecognized_tag", event.StatusReason)

			entries, err := fixtures.CountLedgerEntries(educator.ID)
			require.NoError(t, err)
			assert.Zero(t, entries)

			// A queued event whose contact turns out to be a student is ignored too
			_, err = fixtures.CreateQueuedEvent("evt-bf-student", "c-student-late", "elevate-ai-1-completed")
			require.NoError(t, err)
			_, err = fixtures.CreateTestUser(models.UserTypeStudent, "c-student-late")
			require.NoError(t, err)

			summary, err = flow.BackfillContact(ctx, "c-student-late", meta)
			require.NoError(t, err)
			assert.Equal(t, 1, summary.Ignored)

			event, err = eventRepo.ByEventAndTag(ctx, "evt-bf-student", "elevate-ai-1-completed")
			require.NoError(t, err)
			require.NotNil(t, event)
			assert.Equal(t, "ineligible_user_type", event.StatusReason)
		})

		t.Run("LateContactLinkUnblocksBackfill", func(t *testing.T) {
			userRepo := repository.NewUserRepository(testDB.DB)

			_, err := fixtures.CreateQueuedEvent("evt-bf-link", "c-linked-later", "elevate-ai-1-completed")
			require.NoError(t, err)

			// User registered without a platform contact id
			educator, err := fixtures.CreateTestUser(models.UserTypeEducator, "")
			require.NoError(t, err)

			_, err = flow.BackfillContact(ctx, "c-linked-later", meta)
			require.True(t, businessflow.IsContactStillUnmatched(err))

			// Linking the contact id is what makes the queued event claimable
			require.NoError(t, userRepo.LinkContactID(ctx, educator.ID, "c-linked-later"))

			summary, err := flow.BackfillContact(ctx, "c-linked-later", meta)
			require.NoError(t, err)
			assert.Equal(t, 1, summary.Credited)

			total, err := ledgerRepo.SumByUser(ctx, educator.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(50), total)
		})

		t.Run("StillUnmatchedContactIsAnError", func(t *testing.T) {
			_, err := fixtures.CreateQueuedEvent("evt-bf-ghost", "c-still-ghost", "elevate-ai-1-completed")
			require.NoError(t, err)

			_, err = flow.BackfillContact(ctx, "c-still-ghost", meta)
			assert.True(t, businessflow.IsContactStillUnmatched(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestBackfillAll(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow, ledgerRepo, _ := newReconcileFlow(testDB)
		meta := businessflow.NewClientMetadata("127.0.0.1", "test-agent")
		ctx := context.Background()

		_, err := fixtures.CreateTestActivity("elevate_ai_1", "elevate-ai-1-completed", 50)
		require.NoError(t, err)

		// Two contacts with queued events, one now registered, one still unknown
		_, err = fixtures.CreateQueuedEvent("evt-sweep-1", "c-sweep-known", "elevate-ai-1-completed")
		require.NoError(t, err)
		_, err = fixtures.CreateQueuedEvent("evt-sweep-2", "c-sweep-ghost", "elevate-ai-1-completed")
		require.NoError(t, err)

		educator, err := fixtures.CreateTestUser(models.UserTypeEducator, "c-sweep-known")
		require.NoError(t, err)

		summary, err := flow.BackfillAll(ctx, meta)
		require.NoError(t, err)
		require.NotNil(t, summary)

		// The still-unmatched contact is skipped, not failed
		assert.Equal(t, 1, summary.Scanned)
		assert.Equal(t, 1, summary.Credited)
		assert.Zero(t, summary.Failed)

		total, err := ledgerRepo.SumByUser(ctx, educator.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(50), total)

		return nil
	})
	require.NoError(t, err)
}
