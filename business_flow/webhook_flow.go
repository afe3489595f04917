// Package businessflow contains the business logic for completion event ingestion.
package businessflow

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/elevatehq/gamify/app/dto"
	"github.com/elevatehq/gamify/app/services"
	"github.com/elevatehq/gamify/models"
	"github.com/elevatehq/gamify/repository"
	"github.com/elevatehq/gamify/utils"
	"gorm.io/gorm"
)

// CompletionOutcome classifies how an inbound completion event was handled.
// Outcomes are data, not errors: every one of them is a successfully handled
// request that commits its own durable record.
type CompletionOutcome string

const (
	// OutcomeAwarded means a new grant and ledger entry were committed.
	OutcomeAwarded CompletionOutcome = "awarded"
	// OutcomeAlreadyCredited means the dedup pair was new but a different
	// event already credited this (user, tag); no new ledger entry.
	OutcomeAlreadyCredited CompletionOutcome = "already_credited"
	// OutcomeDuplicate means the (event_id, tag_name_norm) pair was seen
	// before; zero side effects.
	OutcomeDuplicate CompletionOutcome = "duplicate"
	// OutcomeQueuedUnmatched means no registered user carries the contact id
	// yet; the event is parked for reconciliation.
	OutcomeQueuedUnmatched CompletionOutcome = "queued_unmatched"
	// OutcomeUnrecognizedTag means the normalized tag maps to no active activity.
	OutcomeUnrecognizedTag CompletionOutcome = "unrecognized_tag"
	// OutcomeIneligible means the matched user's type cannot receive credit.
	OutcomeIneligible CompletionOutcome = "ineligible"
)

// CompletionResult is the flow's report to the handler, which maps it onto
// the webhook response contract.
type CompletionResult struct {
	Outcome       CompletionOutcome
	Event         *models.WebhookEvent
	User          *models.User
	ActivityCode  string
	PointsAwarded int
	TotalPoints   int64
}

// WebhookFlow defines completion event ingestion operations
type WebhookFlow interface {
	HandleCompletionEvent(ctx context.Context, req *dto.WebhookEventRequest, rawPayload []byte, metadata *ClientMetadata) (*CompletionResult, error)
}

// WebhookFlowImpl implements WebhookFlow
type WebhookFlowImpl struct {
	eventRepo    repository.WebhookEventRepository
	userRepo     repository.UserRepository
	activityRepo repository.ActivityRepository
	ledgerRepo   repository.LedgerRepository
	auditRepo    repository.AuditLogRepository
	engine       *awardEngine
	db           *gorm.DB
}

func NewWebhookFlow(
	eventRepo repository.WebhookEventRepository,
	userRepo repository.UserRepository,
	activityRepo repository.ActivityRepository,
	tagGrantRepo repository.TagGrantRepository,
	ledgerRepo repository.LedgerRepository,
	auditRepo repository.AuditLogRepository,
	badgeEvaluator services.BadgeEvaluator,
	db *gorm.DB,
	externalSource string,
) WebhookFlow {
	return &WebhookFlowImpl{
		eventRepo:    eventRepo,
		userRepo:     userRepo,
		activityRepo: activityRepo,
		ledgerRepo:   ledgerRepo,
		auditRepo:    auditRepo,
		engine: &awardEngine{
			tagGrantRepo:   tagGrantRepo,
			ledgerRepo:     ledgerRepo,
			badgeEvaluator: badgeEvaluator,
			externalSource: externalSource,
		},
		db: db,
	}
}

// HandleCompletionEvent drives one signed, parsed completion event through
// dedup, eligibility and the atomic award transaction. The event insert is
// the first durable write; everything after it commits or rolls back with it.
func (f *WebhookFlowImpl) HandleCompletionEvent(ctx context.Context, req *dto.WebhookEventRequest, rawPayload []byte, metadata *ClientMetadata) (*CompletionResult, error) {
	if req.EventID == "" {
		return nil, ErrEventIDRequired
	}
	if req.Contact.ID == "" {
		return nil, ErrContactIDRequired
	}
	if req.Tag.Name == "" {
		return nil, ErrTagNameRequired
	}
	tagNorm := NormalizeTagName(req.Tag.Name)
	if tagNorm == "" {
		return nil, ErrTagNameEmptyNorm
	}
	eventCreatedAt, err := time.Parse(time.RFC3339, req.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCreatedAtInvalid, err)
	}

	result := &CompletionResult{}

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		user, err := f.userRepo.ByContactID(txCtx, req.Contact.ID)
		if err != nil {
			return err
		}
		activity, err := f.activityRepo.ByTagNorm(txCtx, tagNorm)
		if err != nil {
			return err
		}

		now := utils.UTCNow()
		event := &models.WebhookEvent{
			EventID:        req.EventID,
			TagNameRaw:     req.Tag.Name,
			TagNameNorm:    tagNorm,
			ContactID:      req.Contact.ID,
			Email:          req.Contact.Email,
			EventCreatedAt: utils.TimeToUTC(eventCreatedAt),
			ReceivedAt:     now,
			Payload:        rawPayload,
		}

		// Classify before inserting so the row lands with its final status.
		switch {
		case user == nil:
			event.Status = models.WebhookEventStatusQueuedUnmatched
			event.StatusReason = "unmatched_contact"
			result.Outcome = OutcomeQueuedUnmatched
		case !user.UserType.EligibleForCredit():
			event.Status = models.WebhookEventStatusIgnored
			event.StatusReason = "ineligible_user_type"
			result.Outcome = OutcomeIneligible
		case activity == nil:
			event.Status = models.WebhookEventStatusIgnored
			event.StatusReason = "unrecognized_tag"
			result.Outcome = OutcomeUnrecognizedTag
		default:
			event.Status = models.WebhookEventStatusProcessed
			event.ProcessedAt = &now
			result.Outcome = OutcomeAwarded
		}

		// Dedup gate: first durable write of the transaction. A collision on
		// (event_id, tag_name_norm) is a confirmed redelivery and ends
		// processing with zero side effects.
		outcome, err := f.eventRepo.Insert(txCtx, event)
		if err != nil {
			return err
		}
		if outcome == repository.AlreadyExists {
			result.Outcome = OutcomeDuplicate
			result.Event = event
			return nil
		}
		result.Event = event
		result.User = user

		if result.Outcome != OutcomeAwarded {
			return nil
		}

		awarded, err := f.engine.award(txCtx, user, activity, event, models.LedgerSourceWebhook)
		if err != nil {
			return err
		}
		if awarded.AlreadyCredited {
			result.Outcome = OutcomeAlreadyCredited
		}
		result.ActivityCode = activity.Code
		result.PointsAwarded = awarded.PointsAwarded

		total, err := f.ledgerRepo.SumByUser(txCtx, user.ID)
		if err != nil {
			return err
		}
		result.TotalPoints = total

		return nil
	})
	if err != nil {
		f.auditCompletion(ctx, result, req, false, err, metadata)
		return nil, err
	}

	f.auditCompletion(ctx, result, req, true, nil, metadata)
	return result, nil
}

func (f *WebhookFlowImpl) auditCompletion(ctx context.Context, result *CompletionResult, req *dto.WebhookEventRequest, success bool, flowErr error, metadata *ClientMetadata) {
	action := models.AuditActionCreditFailed
	if success {
		switch result.Outcome {
		case OutcomeAwarded, OutcomeAlreadyCredited:
			action = models.AuditActionCreditAwarded
		case OutcomeDuplicate:
			action = models.AuditActionCreditDuplicate
		case OutcomeQueuedUnmatched:
			action = models.AuditActionCreditQueued
		case OutcomeIneligible:
			action = models.AuditActionCreditIneligible
		case OutcomeUnrecognizedTag:
			action = models.AuditActionCreditIgnored
		}
	}

	var userID *uint
	if result != nil && result.User != nil {
		userID = &result.User.ID
	}
	var errMsg *string
	if flowErr != nil {
		errMsg = utils.ToPtr(flowErr.Error())
	}

	description := fmt.Sprintf("webhook event %s tag %s", req.EventID, NormalizeTagName(req.Tag.Name))
	if err := createAuditLog(ctx, f.auditRepo, userID, action, description, success, errMsg, metadata); err != nil {
		log.Printf("failed to write audit log for event %s: %v", req.EventID, err)
	}
}

func createAuditLog(ctx context.Context, auditRepo repository.AuditLogRepository, userID *uint, action, description string, success bool, errorMsg *string, metadata *ClientMetadata) error {
	ipAddress := "127.0.0.1"
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
		UserID:       userID,
		Action:       action,
		Description:  &description,
		Success:      utils.ToPtr(success),
		IPAddress:    &ipAddress,
		UserAgent:    &userAgent,
		ErrorMessage: errorMsg,
	}

	// Extract request ID from context if available
	requestID := ctx.Value(RequestIDKey)
	if requestID != nil {
		requestIDStr, ok := requestID.(string)
		if ok {
			audit.RequestID = &requestIDStr
		}
	}

	return auditRepo.Save(ctx, audit)
}
