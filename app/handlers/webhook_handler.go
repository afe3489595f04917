// Package handlers provides HTTP request handlers
package handlers

import (
	"context"
	"encoding/json"

	"github.com/elevatehq/gamify/app/dto"
	"github.com/elevatehq/gamify/app/middleware"
	"github.com/elevatehq/gamify/app/services"
	businessflow "github.com/elevatehq/gamify/business_flow"
	"github.com/elevatehq/gamify/config"
	"github.com/elevatehq/gamify/repository"
	"github.com/elevatehq/gamify/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type WebhookHandlerInterface interface {
	ReceiveEvent(c fiber.Ctx) error
}

// WebhookHandler terminates the learning platform's completion event webhook.
// Signature verification runs over the raw body before any parsing or
// database access.
type WebhookHandler struct {
	flow      businessflow.WebhookFlow
	verifier  services.SignatureVerifier
	validator *validator.Validate
	cfg       *config.ProductionConfig
}

func NewWebhookHandler(flow businessflow.WebhookFlow, verifier services.SignatureVerifier, cfg *config.ProductionConfig) *WebhookHandler {
	return &WebhookHandler{flow: flow, verifier: verifier, validator: validator.New(), cfg: cfg}
}

// ReceiveEvent handles POST /webhook
func (h *WebhookHandler) ReceiveEvent(c fiber.Ctx) error {
	raw := c.Body()
	signature := c.Get(h.cfg.Webhook.SignatureHeader)

	if !h.verifier.Verify(raw, signature) {
		middleware.CountWebhookEvent("invalid_signature")
		return c.Status(fiber.StatusUnauthorized).JSON(dto.WebhookErrorResponse{Success: false, Error: "invalid_signature"})
	}

	// Unmarshal from the same bytes the MAC covered.
	var req dto.WebhookEventRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		middleware.CountWebhookEvent("malformed")
		return c.Status(fiber.StatusBadRequest).JSON(dto.WebhookErrorResponse{Success: false, Error: "malformed_body"})
	}
	if err := h.validator.Struct(&req); err != nil {
		middleware.CountWebhookEvent("malformed")
		return c.Status(fiber.StatusBadRequest).JSON(dto.WebhookErrorResponse{Success: false, Error: "malformed_body"})
	}

	meta := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	result, err := h.flow.HandleCompletionEvent(h.requestCtx(c), &req, raw, meta)
	if err != nil {
		return mapWebhookErr(c, err)
	}

	middleware.CountWebhookEvent(string(result.Outcome))

	switch result.Outcome {
	case businessflow.OutcomeDuplicate:
		return c.Status(fiber.StatusOK).JSON(dto.WebhookAckResponse{
			Success:   true,
			Duplicate: utils.ToPtr(true),
		})
	case businessflow.OutcomeQueuedUnmatched:
		return c.Status(fiber.StatusAccepted).JSON(dto.WebhookAckResponse{
			Success: true,
			Queued:  utils.ToPtr(true),
			Reason:  "unmatched_contact",
		})
	case businessflow.OutcomeUnrecognizedTag:
		return c.Status(fiber.StatusAccepted).JSON(dto.WebhookAckResponse{
			Success: true,
			Queued:  utils.ToPtr(true),
			Reason:  "unrecognized_tag",
		})
	case businessflow.OutcomeIneligible:
		return c.Status(fiber.StatusForbidden).JSON(dto.WebhookErrorResponse{
			Success: false,
			Error:   dto.ErrorDetail{Code: "INELIGIBLE_USER_TYPE"},
		})
	case businessflow.OutcomeAlreadyCredited:
		return c.Status(fiber.StatusOK).JSON(dto.WebhookAckResponse{
			Success:         true,
			Duplicate:       utils.ToPtr(false),
			AlreadyCredited: utils.ToPtr(true),
			UserUUID:        result.User.UUID.String(),
			TotalPoints:     utils.ToPtr(result.TotalPoints),
		})
	default: // awarded
		return c.Status(fiber.StatusOK).JSON(dto.WebhookAckResponse{
			Success:       true,
			Duplicate:     utils.ToPtr(false),
			UserUUID:      result.User.UUID.String(),
			ActivityCode:  result.ActivityCode,
			PointsAwarded: utils.ToPtr(result.PointsAwarded),
			TotalPoints:   utils.ToPtr(result.TotalPoints),
		})
	}
}

func (h *WebhookHandler) requestCtx(c fiber.Ctx) context.Context {
	ctx := context.Background()
	if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
		ctx = context.WithValue(ctx, businessflow.RequestIDKey, rid)
	}
	return ctx
}

func mapWebhookErr(c fiber.Ctx, err error) error {
	switch {
	case businessflow.IsEventIDRequired(err),
		businessflow.IsContactIDRequired(err),
		businessflow.IsTagNameRequired(err),
		businessflow.IsTagNameEmptyNorm(err),
		businessflow.IsCreatedAtInvalid(err):
		middleware.CountWebhookEvent("malformed")
		return c.Status(fiber.StatusBadRequest).JSON(dto.WebhookErrorResponse{Success: false, Error: "malformed_body"})
	case repository.IsUniqueViolation(err):
		// A race on a unique index other than the dedup pair rolled the
		// transaction back; the redelivery resolves through the dedup gate.
		middleware.CountWebhookEvent("conflict")
		return c.Status(fiber.StatusConflict).JSON(dto.WebhookErrorResponse{Success: false, Error: "conflict_retry"})
	default:
		// Transient failure: the transaction rolled back, so the source can
		// safely retry the identical payload.
		middleware.CountWebhookEvent("error")
		return c.Status(fiber.StatusInternalServerError).JSON(dto.WebhookErrorResponse{Success: false, Error: "internal_error"})
	}
}
