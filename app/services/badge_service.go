// Package services provides external collaborator implementations for the pipeline
package services

import (
	"context"
	"log"

	"github.com/elevatehq/gamify/models"
	"github.com/elevatehq/gamify/repository"
)

// BadgeEvaluator checks whether a user's total points now satisfy any badge
// criteria and persists the awards. Implementations honor the transaction
// bound to ctx, so awards commit together with the points that earned them.
type BadgeEvaluator interface {
	Evaluate(ctx context.Context, userID uint) ([]*models.UserBadge, error)
}

// ThresholdBadgeEvaluator implements BadgeEvaluator with total-points
// thresholds. Idempotent: the (user_id, badge_id) unique constraint makes
// redundant evaluation passes no-ops.
type ThresholdBadgeEvaluator struct {
	ledgerRepo repository.LedgerRepository
	badgeRepo  repository.BadgeRepository
}

func NewThresholdBadgeEvaluator(ledgerRepo repository.LedgerRepository, badgeRepo repository.BadgeRepository) BadgeEvaluator {
	return &ThresholdBadgeEvaluator{
		ledgerRepo: ledgerRepo,
		badgeRepo:  badgeRepo,
	}
}

// Evaluate awards every active badge whose threshold the user's total now
// meets and returns the badges that were newly awarded in this pass.
func (e *ThresholdBadgeEvaluator) Evaluate(ctx context.Context, userID uint) ([]*models.UserBadge, error) {
	total, err := e.ledgerRepo.SumByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	badges, err := e.badgeRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	var awarded []*models.UserBadge
	for _, badge := range badges {
		if total < int64(badge.PointsThreshold) {
			continue
		}
		award := &models.UserBadge{
			UserID:  userID,
			BadgeID: badge.ID,
		}
		outcome, err := e.badgeRepo.InsertUserBadge(ctx, award)
		if err != nil {
			return awarded, err
		}
		if outcome == repository.AlreadyExists {
			continue
		}
		award.Badge = *badge
		awarded = append(awarded, award)
		log.Printf("badge %s awarded to user %d at %d points", badge.Code, userID, total)
	}

	return awarded, nil
}
