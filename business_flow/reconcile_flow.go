// Package businessflow contains the business logic for completion event ingestion.
package businessflow

import (
	"context"
	"fmt"
	"log"

	"github.com/elevatehq/gamify/app/services"
	"github.com/elevatehq/gamify/models"
	"github.com/elevatehq/gamify/repository"
	"github.com/elevatehq/gamify/utils"
	"gorm.io/gorm"
)

// BackfillSummary reports what one reconciliation pass did
type BackfillSummary struct {
	ContactID string `json:"contact_id,omitempty"`
	Scanned   int    `json:"scanned"`
	Credited  int    `json:"credited"`
	Ignored   int    `json:"ignored"`
	Failed    int    `json:"failed"`
}

// ReconcileFlow re-drives queued_unmatched events once their contact id maps
// to a registered user. It reuses the webhook path's award engine, never a
// parallel crediting implementation.
type ReconcileFlow interface {
	BackfillContact(ctx context.Context, contactID string, metadata *ClientMetadata) (*BackfillSummary, error)
	BackfillAll(ctx context.Context, metadata *ClientMetadata) (*BackfillSummary, error)
}

// ReconcileFlowImpl implements ReconcileFlow
type ReconcileFlowImpl struct {
	eventRepo    repository.WebhookEventRepository
	userRepo     repository.UserRepository
	activityRepo repository.ActivityRepository
	auditRepo    repository.AuditLogRepository
	engine       *awardEngine
	db           *gorm.DB
	scanLimit    int
}

func NewReconcileFlow(
	eventRepo repository.WebhookEventRepository,
	userRepo repository.UserRepository,
	activityRepo repository.ActivityRepository,
	tagGrantRepo repository.TagGrantRepository,
	ledgerRepo repository.LedgerRepository,
	auditRepo repository.AuditLogRepository,
	badgeEvaluator services.BadgeEvaluator,
	db *gorm.DB,
	externalSource string,
	scanLimit int,
) ReconcileFlow {
	return &ReconcileFlowImpl{
		eventRepo:    eventRepo,
		userRepo:     userRepo,
		activityRepo: activityRepo,
		auditRepo:    auditRepo,
		engine: &awardEngine{
			tagGrantRepo:   tagGrantRepo,
			ledgerRepo:     ledgerRepo,
			badgeEvaluator: badgeEvaluator,
			externalSource: externalSource,
		},
		db:        db,
		scanLimit: scanLimit,
	}
}

// BackfillContact re-evaluates every queued_unmatched event held for one
// contact id. Each event gets its own transaction so one bad row cannot
// poison the rest of the batch.
func (f *ReconcileFlowImpl) BackfillContact(ctx context.Context, contactID string, metadata *ClientMetadata) (*BackfillSummary, error) {
	if contactID == "" {
		return nil, ErrContactIDRequired
	}

	user, err := f.userRepo.ByContactID(ctx, contactID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrContactStillUnmatched
	}

	events, err := f.eventRepo.ListQueuedByContact(ctx, contactID)
	if err != nil {
		return nil, err
	}

	summary := &BackfillSummary{ContactID: contactID, Scanned: len(events)}
	for _, event := range events {
		if err := f.backfillEvent(ctx, user, event); err != nil {
			summary.Failed++
			log.Printf("backfill of event %s (tag %s) failed: %v", event.EventID, event.TagNameNorm, err)
			f.auditBackfill(ctx, user, event, false, err, metadata)
			continue
		}
		if event.Status == models.WebhookEventStatusProcessed {
			summary.Credited++
		} else {
			summary.Ignored++
		}
		f.auditBackfill(ctx, user, event, true, nil, metadata)
	}

	return summary, nil
}

// BackfillAll sweeps all contacts with queued events and backfills those
// that now map to a registered user. Used by the periodic scheduler; the
// on-registration trigger calls BackfillContact directly.
func (f *ReconcileFlowImpl) BackfillAll(ctx context.Context, metadata *ClientMetadata) (*BackfillSummary, error) {
	contactIDs, err := f.eventRepo.QueuedContactIDs(ctx, f.scanLimit)
	if err != nil {
		return nil, err
	}

	total := &BackfillSummary{}
	for _, contactID := range contactIDs {
		sub, err := f.BackfillContact(ctx, contactID, metadata)
		if err != nil {
			if IsContactStillUnmatched(err) {
				continue
			}
			return total, err
		}
		total.Scanned += sub.Scanned
		total.Credited += sub.Credited
		total.Ignored += sub.Ignored
		total.Failed += sub.Failed
	}

	return total, nil
}

// backfillEvent runs the shared eligibility + award path for one parked
// event and transitions its status in the same transaction as the credit.
func (f *ReconcileFlowImpl) backfillEvent(ctx context.Context, user *models.User, event *models.WebhookEvent) error {
	if !event.IsReprocessable() {
		return nil
	}

	return repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		activity, err := f.activityRepo.ByTagNorm(txCtx, event.TagNameNorm)
		if err != nil {
			return err
		}

		switch {
		case !user.UserType.EligibleForCredit():
			event.Status = models.WebhookEventStatusIgnored
			event.StatusReason = "ineligible_user_type"
			return f.eventRepo.UpdateStatus(txCtx, event.ID, event.Status, event.StatusReason, nil)
		case activity == nil:
			event.Status = models.WebhookEventStatusIgnored
			event.StatusReason = "unrecognized_tag"
			return f.eventRepo.UpdateStatus(txCtx, event.ID, event.Status, event.StatusReason, nil)
		}

		if _, err := f.engine.award(txCtx, user, activity, event, models.LedgerSourceBackfill); err != nil {
			return err
		}

		processedAt := utils.UTCNowPtr()
		event.Status = models.WebhookEventStatusProcessed
		event.StatusReason = "backfilled"
		event.ProcessedAt = processedAt
		return f.eventRepo.UpdateStatus(txCtx, event.ID, event.Status, event.StatusReason, processedAt)
	})
}

func (f *ReconcileFlowImpl) auditBackfill(ctx context.Context, user *models.User, event *models.WebhookEvent, success bool, backfillErr error, metadata *ClientMetadata) {
	action := models.AuditActionBackfillCompleted
	if !success {
		action = models.AuditActionBackfillFailed
	}

	var errMsg *string
	if backfillErr != nil {
		errMsg = utils.ToPtr(backfillErr.Error())
	}

	description := fmt.Sprintf("backfill event %s tag %s -> %s", event.EventID, event.TagNameNorm, event.Status)
	if err := createAuditLog(ctx, f.auditRepo, &user.ID, action, description, success, errMsg, metadata); err != nil {
		log.Printf("failed to write audit log for backfill of event %s: %v", event.EventID, err)
	}
}
