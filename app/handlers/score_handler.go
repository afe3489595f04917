// Package handlers provides HTTP request handlers
package handlers

import (
	"context"

	"github.com/elevatehq/gamify/app/dto"
	businessflow "github.com/elevatehq/gamify/business_flow"
	"github.com/elevatehq/gamify/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type ScoreHandlerInterface interface {
	GetUserScore(c fiber.Ctx) error
	GetLeaderboard(c fiber.Ctx) error
}

// ScoreHandler serves the read surface over the points ledger
type ScoreHandler struct {
	flow      businessflow.ScoreFlow
	validator *validator.Validate
}

func NewScoreHandler(flow businessflow.ScoreFlow) *ScoreHandler {
	return &ScoreHandler{flow: flow, validator: validator.New()}
}

// GetUserScore handles GET /api/v1/users/:uuid/score
func (h *ScoreHandler) GetUserScore(c fiber.Ctx) error {
	uuid := c.Params("uuid")
	resp, err := h.flow.GetUserScore(h.requestCtx(c), uuid)
	if err != nil {
		return mapScoreErr(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(dto.APIResponse{Success: true, Message: "User score", Data: resp})
}

// GetLeaderboard handles GET /api/v1/leaderboard
func (h *ScoreHandler) GetLeaderboard(c fiber.Ctx) error {
	var q dto.LeaderboardQuery
	if err := c.Bind().Query(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.APIResponse{Success: false, Message: "Invalid query parameters", Error: dto.ErrorDetail{Code: "INVALID_REQUEST"}})
	}
	if err := h.validator.Struct(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.APIResponse{Success: false, Message: "Validation failed", Error: dto.ErrorDetail{Code: "VALIDATION_ERROR", Details: err.Error()}})
	}
	if q.Limit == 0 {
		q.Limit = utils.DefaultLeaderboardSize
	}

	resp, err := h.flow.GetLeaderboard(h.requestCtx(c), q.Limit)
	if err != nil {
		return mapScoreErr(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(dto.APIResponse{Success: true, Message: "Leaderboard", Data: resp})
}

func (h *ScoreHandler) requestCtx(c fiber.Ctx) context.Context {
	ctx := context.Background()
	if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
		ctx = context.WithValue(ctx, businessflow.RequestIDKey, rid)
	}
	return ctx
}

func mapScoreErr(c fiber.Ctx, err error) error {
	switch {
	case businessflow.IsUserUUIDRequired(err):
		return c.Status(fiber.StatusBadRequest).JSON(dto.APIResponse{Success: false, Message: "User UUID is required", Error: dto.ErrorDetail{Code: "USER_UUID_REQUIRED"}})
	case businessflow.IsUserNotFound(err):
		return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{Success: false, Message: "User not found", Error: dto.ErrorDetail{Code: "USER_NOT_FOUND"}})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.APIResponse{Success: false, Message: "Score operation failed", Error: dto.ErrorDetail{Code: "SCORE_OPERATION_FAILED", Details: err.Error()}})
	}
}
