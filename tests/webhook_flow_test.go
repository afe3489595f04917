package tests

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/elevatehq/gamify/app/dto"
	"github.com/elevatehq/gamify/app/services"
	businessflow "github.com/elevatehq/gamify/business_flow"
	"github.com/elevatehq/gamify/models"
	"github.com/elevatehq/gamify/repository"
	testingutil "github.com/elevatehq/gamify/testing"
	"github.com/elevatehq/gamify/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWebhookFlow(testDB *testingutil.TestDB) (businessflow.WebhookFlow, repository.LedgerRepository, repository.WebhookEventRepository, repository.AuditLogRepository) {
	eventRepo := repository.NewWebhookEventRepository(testDB.DB)
	userRepo := repository.NewUserRepository(testDB.DB)
	activityRepo := repository.NewActivityRepository(testDB.DB)
	tagGrantRepo := repository.NewTagGrantRepository(testDB.DB)
	ledgerRepo := repository.NewLedgerRepository(testDB.DB)
	badgeRepo := repository.NewBadgeRepository(testDB.DB)
	auditRepo := repository.NewAuditLogRepository(testDB.DB)

	badgeEvaluator := services.NewThresholdBadgeEvaluator(ledgerRepo, badgeRepo)

	flow := businessflow.NewWebhookFlow(
		eventRepo,
		userRepo,
		activityRepo,
		tagGrantRepo,
		ledgerRepo,
		auditRepo,
		badgeEvaluator,
		testDB.DB,
		utils.DefaultExternalSource,
	)

	return flow, ledgerRepo, eventRepo, auditRepo
}

// unavailableLedger refuses every append, simulating a mid-transaction
// storage failure after the event and grant writes.
type unavailableLedger struct {
	repository.LedgerRepository
}

func (l *unavailableLedger) Append(ctx context.Context, entry *models.LedgerEntry) error {
	return errors.New("ledger insert refused")
}

func completionRequest(eventID, contactID, tagName string) *dto.WebhookEventRequest {
	return &dto.WebhookEventRequest{
		EventID:   eventID,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Contact: dto.WebhookContact{
			ID:    contactID,
			Email: fmt.Sprintf("%s@example.com", contactID),
		},
		Tag: dto.WebhookTag{Name: tagName},
	}
}

func TestHandleCompletionEvent(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow, ledgerRepo, eventRepo, auditRepo := newWebhookFlow(testDB)
		meta := businessflow.NewClientMetadata("127.0.0.1", "test-agent")
		ctx := context.Background()

		_, err := fixtures.CreateTestActivity("elevate_ai_1", "elevate-ai-1-completed", 50)
		require.NoError(t, err)

		t.Run("AwardsCreditForEducator", func(t *testing.T) {
			educator, err := fixtures.CreateTestUser(models.UserTypeEducator, "c-award")
			require.NoError(t, err)

			req := completionRequest("evt-award-1", "c-award", "Elevate-AI-1-Completed")
			result, err := flow.HandleCompletionEvent(ctx, req, []byte(`{"k":"v"}`), meta)
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Equal(t, businessflow.OutcomeAwarded, result.Outcome)
			assert.Equal(t, "elevate_ai_1", result.ActivityCode)
			assert.Equal(t, 50, result.PointsAwarded)
			assert.Equal(t, int64(50), result.TotalPoints)

			// The ledger carries exactly one entry for the credit
			total, err := ledgerRepo.SumByUser(ctx, educator.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(50), total)

			// Event row is terminal
			event, err := eventRepo.ByEventAndTag(ctx, "evt-award-1", "elevate-ai-1-completed")
			require.NoError(t, err)
			require.NotNil(t, event)
			assert.Equal(t, models.WebhookEventStatusProcessed, event.Status)
			assert.NotNil(t, event.ProcessedAt)

			// The grant marker pins the credit to the normalized tag
			tagGrantRepo := repository.NewTagGrantRepository(testDB.DB)
			grant, err := tagGrantRepo.ByUserAndTag(ctx, educator.ID, "elevate-ai-1-completed")
			require.NoError(t, err)
			require.NotNil(t, grant)
			assert.Equal(t, "elevate_ai_1", grant.ActivityCode)

			// The reported activity code resolves back to the registry row
			activityRepo := repository.NewActivityRepository(testDB.DB)
			activity, err := activityRepo.ByCode(ctx, result.ActivityCode)
			require.NoError(t, err)
			require.NotNil(t, activity)
			assert.Equal(t, 50, activity.Points)

			// Audit trail
			auditLogs, err := auditRepo.ByFilter(ctx, models.AuditLogFilter{
				UserID: &educator.ID,
				Action: utils.ToPtr(models.AuditActionCreditAwarded),
			}, "", 0, 0)
			require.NoError(t, err)
			require.Len(t, auditLogs, 1)
			assert.True(t, utils.IsTrue(auditLogs[0].Success))
		})

		t.Run("RedeliveryIsIdempotent", func(t *testing.T) {
			educator, err := fixtures.CreateTestUser(models.UserTypeEducator, "c-replay")
			require.NoError(t, err)

			req := completionRequest("evt-replay-1", "c-replay", "Elevate-AI-1-Completed")
			first, err := flow.HandleCompletionEvent(ctx, req, []byte(`{}`), meta)
			require.NoError(t, err)
			assert.Equal(t, businessflow.OutcomeAwarded, first.Outcome)

			// Replaying the identical payload N times must not change any state
			for i := 0; i < 3; i++ {
				replay, err := flow.HandleCompletionEvent(ctx, req, []byte(`{}`), meta)
				require.NoError(t, err)
				assert.Equal(t, businessflow.OutcomeDuplicate, replay.Outcome)
			}

			entries, err := fixtures.CountLedgerEntries(educator.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(1), entries)

			total, err := ledgerRepo.SumByUser(ctx, educator.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(50), total)
		})

		t.Run("CosmeticTagVariantsCollapse", func(t *testing.T) {
			educator, err := fixtures.CreateTestUser(models.UserTypeEducator, "c-variant")
			require.NoError(t, err)

			// Same event id, cosmetically different tag spellings: all variants
			// normalize to the same key and dedupe onto one row.
			variants := []string{
				"Elevate-AI-1-Completed",
				"elevate ai 1 completed",
				"ELEVATE_AI_1_COMPLETED",
				"  elevate-ai-1-completed  ",
			}

			first, err := flow.HandleCompletionEvent(ctx, completionRequest("evt-variant-1", "c-variant", variants[0]), []byte(`{}`), meta)
			require.NoError(t, err)
			assert.Equal(t, businessflow.OutcomeAwarded, first.Outcome)

			for _, v := range variants[1:] {
				result, err := flow.HandleCompletionEvent(ctx, completionRequest("evt-variant-1", "c-variant", v), []byte(`{}`), meta)
				require.NoError(t, err)
				assert.Equal(t, businessflow.OutcomeDuplicate, result.Outcome, "variant %q", v)
			}

			entries, err := fixtures.CountLedgerEntries(educator.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(1), entries)
		})

		t.Run("DistinctEventSameTagIsAlreadyCredited", func(t *testing.T) {
			educator, err := fixtures.CreateTestUser(models.UserTypeEducator, "c-again")
			require.NoError(t, err)

			first, err := flow.HandleCompletionEvent(ctx, completionRequest("evt-again-1", "c-again", "Elevate-AI-1-Completed"), []byte(`{}`), meta)
			require.NoError(t, err)
			assert.Equal(t, businessflow.OutcomeAwarded, first.Outcome)

			// A new event id for a tag the user already holds passes the event
			// gate but collides on the per-user grant.
			second, err := flow.HandleCompletionEvent(ctx, completionRequest("evt-again-2", "c-again", "Elevate-AI-1-Completed"), []byte(`{}`), meta)
			require.NoError(t, err)
			assert.Equal(t, businessflow.OutcomeAlreadyCredited, second.Outcome)
			assert.Equal(t, int64(50), second.TotalPoints)

			entries, err := fixtures.CountLedgerEntries(educator.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(1), entries)
		})

		t.Run("IneligibleUserTypeIsRejected", func(t *testing.T) {
			student, err := fixtures.CreateTestUser(models.UserTypeStudent, "c-student")
			require.NoError(t, err)

			result, err := flow.HandleCompletionEvent(ctx, completionRequest("evt-student-1", "c-student", "Elevate-AI-1-Completed"), []byte(`{}`), meta)
			require.NoError(t, err)
			assert.Equal(t, businessflow.OutcomeIneligible, result.Outcome)

			// The dedup row still lands so a redelivery stays a duplicate
			event, err := eventRepo.ByEventAndTag(ctx, "evt-student-1", "elevate-ai-1-completed")
			require.NoError(t, err)
			require.NotNil(t, event)
			assert.Equal(t, models.WebhookEventStatusIgnored, event.Status)
			assert.Equal(t, "ineligible_user_type", event.StatusReason)

			grants, err := fixtures.CountTagGrants(student.ID)
			require.NoError(t, err)
			assert.Zero(t, grants)

			replay, err := flow.HandleCompletionEvent(ctx, completionRequest("evt-student-1", "c-student", "Elevate-AI-1-Completed"), []byte(`{}`), meta)
			require.NoError(t, err)
			assert.Equal(t, businessflow.OutcomeDuplicate, replay.Outcome)
		})

		t.Run("UnmatchedContactIsQueued", func(t *testing.T) {
			result, err := flow.HandleCompletionEvent(ctx, completionRequest("evt-ghost-1", "c-ghost", "Elevate-AI-1-Completed"), []byte(`{}`), meta)
			require.NoError(t, err)
			assert.Equal(t, businessflow.OutcomeQueuedUnmatched, result.Outcome)

			event, err := eventRepo.ByEventAndTag(ctx, "evt-ghost-1", "elevate-ai-1-completed")
			require.NoError(t, err)
			require.NotNil(t, event)
			assert.Equal(t, models.WebhookEventStatusQueuedUnmatched, event.Status)
			assert.True(t, event.IsReprocessable())
		})

		t.Run("UnrecognizedTagIsIgnored", func(t *testing.T) {
			_, err := fixtures.CreateTestUser(models.UserTypeEducator, "c-unknown-tag")
			require.NoError(t, err)

			result, err := flow.HandleCompletionEvent(ctx, completionRequest("evt-unknown-1", "c-unknown-tag", "Some-Unknown-Tag"), []byte(`{}`), meta)
			require.NoError(t, err)
			assert.Equal(t, businessflow.OutcomeUnrecognizedTag, result.Outcome)

			event, err := eventRepo.ByEventAndTag(ctx, "evt-unknown-1", "some-unknown-tag")
			require.NoError(t, err)
			require.NotNil(t, event)
			assert.Equal(t, models.WebhookEventStatusIgnored, event.Status)
			assert.Equal(t, "unrecognized_tag", event.StatusReason)
		})

		t.Run("FailedAwardRollsBackEventAndGrant", func(t *testing.T) {
			educator, err := fixtures.CreateTestUser(models.UserTypeEducator, "c-atomic")
			require.NoError(t, err)

			broken := businessflow.NewWebhookFlow(
				repository.NewWebhookEventRepository(testDB.DB),
				repository.NewUserRepository(testDB.DB),
				repository.NewActivityRepository(testDB.DB),
				repository.NewTagGrantRepository(testDB.DB),
				&unavailableLedger{repository.NewLedgerRepository(testDB.DB)},
				auditRepo,
				nil,
				testDB.DB,
				utils.DefaultExternalSource,
			)

			req := completionRequest("evt-atomic-1", "c-atomic", "Elevate-AI-1-Completed")
			_, err = broken.HandleCompletionEvent(ctx, req, []byte(`{}`), meta)
			require.Error(t, err)

			// The transaction rolled back whole: no event row, no grant, no points
			event, err := eventRepo.ByEventAndTag(ctx, "evt-atomic-1", "elevate-ai-1-completed")
			require.NoError(t, err)
			assert.Nil(t, event)

			grants, err := fixtures.CountTagGrants(educator.ID)
			require.NoError(t, err)
			assert.Zero(t, grants)

			entries, err := fixtures.CountLedgerEntries(educator.ID)
			require.NoError(t, err)
			assert.Zero(t, entries)

			// The failure is audited outside the rolled-back transaction
			failed, err := auditRepo.ListFailedActions(ctx, 10, 0)
			require.NoError(t, err)
			require.NotEmpty(t, failed)
			assert.Equal(t, models.AuditActionCreditFailed, failed[0].Action)

			// The identical redelivery succeeds once storage is healthy again
			result, err := flow.HandleCompletionEvent(ctx, req, []byte(`{}`), meta)
			require.NoError(t, err)
			assert.Equal(t, businessflow.OutcomeAwarded, result.Outcome)
			assert.Equal(t, int64(50), result.TotalPoints)
		})

		t.Run("RejectsInvalidPayloadFields", func(t *testing.T) {
			req := completionRequest("", "c-award", "Elevate-AI-1-Completed")
			_, err := flow.HandleCompletionEvent(ctx, req, []byte(`{}`), meta)
			assert.True(t, businessflow.IsEventIDRequired(err))

			req = completionRequest("evt-x", "", "Elevate-AI-1-Completed")
			_, err = flow.HandleCompletionEvent(ctx, req, []byte(`{}`), meta)
			assert.True(t, businessflow.IsContactIDRequired(err))

			req = completionRequest("evt-x", "c-award", "---")
			_, err = flow.HandleCompletionEvent(ctx, req, []byte(`{}`), meta)
			assert.True(t, businessflow.IsTagNameEmptyNorm(err))

			req = completionRequest("evt-x", "c-award", "Elevate-AI-1-Completed")
			req.CreatedAt = "not-a-timestamp"
			_, err = flow.HandleCompletionEvent(ctx, req, []byte(`{}`), meta)
			assert.True(t, businessflow.IsCreatedAtInvalid(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestBadgeAwardOnThreshold(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow, _, _, _ := newWebhookFlow(testDB)
		badgeRepo := repository.NewBadgeRepository(testDB.DB)
		meta := businessflow.NewClientMetadata("127.0.0.1", "test-agent")
		ctx := context.Background()

		_, err := fixtures.CreateTestActivity("module_a", "module-a-completed", 60)
		require.NoError(t, err)
		_, err = fixtures.CreateTestActivity("module_b", "module-b-completed", 60)
		require.NoError(t, err)
		_, err = fixtures.CreateTestBadge("centurion", 100)
		require.NoError(t, err)

		educator, err := fixtures.CreateTestUser(models.UserTypeEducator, "c-badge")
		require.NoError(t, err)

		// First credit stays below the threshold
		_, err = flow.HandleCompletionEvent(ctx, completionRequest("evt-badge-1", "c-badge", "Module-A-Completed"), []byte(`{}`), meta)
		require.NoError(t, err)

		badges, err := badgeRepo.ListUserBadges(ctx, educator.ID)
		require.NoError(t, err)
		assert.Empty(t, badges)

		// Second credit crosses it
		_, err = flow.HandleCompletionEvent(ctx, completionRequest("evt-badge-2", "c-badge", "Module-B-Completed"), []byte(`{}`), meta)
		require.NoError(t, err)

		badges, err = badgeRepo.ListUserBadges(ctx, educator.ID)
		require.NoError(t, err)
		require.Len(t, badges, 1)
		assert.Equal(t, "centurion", badges[0].Badge.Code)

		return nil
	})
	require.NoError(t, err)
}
