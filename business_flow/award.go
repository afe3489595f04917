package businessflow

import (
	"context"
	"encoding/json"
	"log"

	"github.com/elevatehq/gamify/app/services"
	"github.com/elevatehq/gamify/models"
	"github.com/elevatehq/gamify/repository"
)

// awardEngine applies the credit side effects shared by the webhook and
// reconciliation paths: tag grant, ledger append, badge evaluation. Both
// paths MUST go through it so there is a single source of truth for what
// "crediting a user" means.
type awardEngine struct {
	tagGrantRepo   repository.TagGrantRepository
	ledgerRepo     repository.LedgerRepository
	badgeEvaluator services.BadgeEvaluator
	externalSource string
}

type awardResult struct {
	AlreadyCredited bool
	PointsAwarded   int
}

// award credits the user for the activity resolved from the event's
// normalized tag. Must run inside a repository.WithTransaction scope: the
// grant and ledger entry commit or roll back together with the caller's
// event write. A grant collision means another event already credited this
// (user, tag) pair; the ledger is left untouched and no error is returned.
func (a *awardEngine) award(ctx context.Context, user *models.User, activity *models.Activity, event *models.WebhookEvent, source models.LedgerSource) (*awardResult, error) {
	grant := &models.TagGrant{
		UserID:         user.ID,
		TagNameNorm:    event.TagNameNorm,
		ActivityCode:   activity.Code,
		WebhookEventID: &event.ID,
	}
	outcome, err := a.tagGrantRepo.Insert(ctx, grant)
	if err != nil {
		return nil, err
	}
	if outcome == repository.AlreadyExists {
		return &awardResult{AlreadyCredited: true}, nil
	}

	meta, _ := json.Marshal(map[string]any{
		"webhook_event_uuid": event.UUID.String(),
		"tag_name_raw":       event.TagNameRaw,
		"tag_name_norm":      event.TagNameNorm,
	})
	entry := &models.LedgerEntry{
		UserID:          user.ID,
		ActivityCode:    activity.Code,
		Source:          source,
		DeltaPoints:     activity.Points,
		ExternalSource:  a.externalSource,
		ExternalEventID: event.EventID,
		Description:     activity.Title,
		Metadata:        meta,
	}
	if err := a.ledgerRepo.Append(ctx, entry); err != nil {
		return nil, err
	}

	// Badges are derived, best-effort: an evaluation failure must never roll
	// back the points that were just awarded.
	if a.badgeEvaluator != nil {
		if _, err := a.badgeEvaluator.Evaluate(ctx, user.ID); err != nil {
			log.Printf("badge evaluation failed for user %d: %v", user.ID, err)
		}
	}

	return &awardResult{PointsAwarded: activity.Points}, nil
}
