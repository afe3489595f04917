package tests

import (
	"context"
	"testing"
	"time"

	businessflow "github.com/elevatehq/gamify/business_flow"
	"github.com/elevatehq/gamify/models"
	"github.com/elevatehq/gamify/repository"
	testingutil "github.com/elevatehq/gamify/testing"
	"github.com/elevatehq/gamify/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScoreFlow(testDB *testingutil.TestDB) businessflow.ScoreFlow {
	userRepo := repository.NewUserRepository(testDB.DB)
	ledgerRepo := repository.NewLedgerRepository(testDB.DB)
	badgeRepo := repository.NewBadgeRepository(testDB.DB)

	// nil cache client: every read goes straight to the database
	return businessflow.NewScoreFlow(userRepo, ledgerRepo, badgeRepo, nil, time.Minute)
}

func TestGetUserScore(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		scoreFlow := newScoreFlow(testDB)
		webhookFlow, _, _, _ := newWebhookFlow(testDB)
		meta := businessflow.NewClientMetadata("127.0.0.1", "test-agent")
		ctx := context.Background()

		_, err := fixtures.CreateTestActivity("elevate_ai_1", "elevate-ai-1-completed", 50)
		require.NoError(t, err)
		_, err = fixtures.CreateTestBadge("first_fifty", 50)
		require.NoError(t, err)

		educator, err := fixtures.CreateTestUser(models.UserTypeEducator, "c-score")
		require.NoError(t, err)

		t.Run("ZeroScoreForFreshUser", func(t *testing.T) {
			resp, err := scoreFlow.GetUserScore(ctx, educator.UUID.String())
			require.NoError(t, err)
			require.NotNil(t, resp)
			assert.Zero(t, resp.TotalPoints)
			assert.Empty(t, resp.Badges)
		})

		t.Run("ScoreReflectsLedger", func(t *testing.T) {
			_, err := webhookFlow.HandleCompletionEvent(ctx, completionRequest("evt-score-1", "c-score", "Elevate-AI-1-Completed"), []byte(`{}`), meta)
			require.NoError(t, err)

			resp, err := scoreFlow.GetUserScore(ctx, educator.UUID.String())
			require.NoError(t, err)
			assert.Equal(t, int64(50), resp.TotalPoints)
			require.Len(t, resp.Badges, 1)
			assert.Equal(t, "first_fifty", resp.Badges[0].Code)
		})

		t.Run("UnknownUserIsNotFound", func(t *testing.T) {
			_, err := scoreFlow.GetUserScore(ctx, "00000000-0000-0000-0000-000000000001")
			assert.True(t, businessflow.IsUserNotFound(err))
		})

		t.Run("EmptyUUIDIsRejected", func(t *testing.T) {
			_, err := scoreFlow.GetUserScore(ctx, "")
			assert.True(t, businessflow.IsUserUUIDRequired(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestGetLeaderboard(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		scoreFlow := newScoreFlow(testDB)
		webhookFlow, _, _, _ := newWebhookFlow(testDB)
		meta := businessflow.NewClientMetadata("127.0.0.1", "test-agent")
		ctx := context.Background()

		_, err := fixtures.CreateTestActivity("big", "big-module-completed", 100)
		require.NoError(t, err)
		_, err = fixtures.CreateTestActivity("small", "small-module-completed", 10)
		require.NoError(t, err)

		leader, err := fixtures.CreateTestUser(models.UserTypeEducator, "c-leader")
		require.NoError(t, err)
		runnerUp, err := fixtures.CreateTestUser(models.UserTypeEducator, "c-runner-up")
		require.NoError(t, err)

		_, err = webhookFlow.HandleCompletionEvent(ctx, completionRequest("evt-lb-1", "c-leader", "Big-Module-Completed"), []byte(`{}`), meta)
		require.NoError(t, err)
		_, err = webhookFlow.HandleCompletionEvent(ctx, completionRequest("evt-lb-2", "c-runner-up", "Small-Module-Completed"), []byte(`{}`), meta)
		require.NoError(t, err)

		resp, err := scoreFlow.GetLeaderboard(ctx, utils.DefaultLeaderboardSize)
		require.NoError(t, err)
		require.NotNil(t, resp)
		require.Len(t, resp.Entries, 2)

		assert.Equal(t, 1, resp.Entries[0].Rank)
		assert.Equal(t, leader.UUID.String(), resp.Entries[0].UserUUID)
		assert.Equal(t, int64(100), resp.Entries[0].TotalPoints)

		assert.Equal(t, 2, resp.Entries[1].Rank)
		assert.Equal(t, runnerUp.UUID.String(), resp.Entries[1].UserUUID)
		assert.Equal(t, int64(10), resp.Entries[1].TotalPoints)

		return nil
	})
	require.NoError(t, err)
}
