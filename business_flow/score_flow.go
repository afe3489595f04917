// Package businessflow contains the business logic for completion event ingestion.
package businessflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/elevatehq/gamify/app/dto"
	"github.com/elevatehq/gamify/repository"
	"github.com/redis/go-redis/v9"
)

const leaderboardCacheKey = "gamify:leaderboard:%d"

// ScoreFlow defines the read surface over the ledger
type ScoreFlow interface {
	GetUserScore(ctx context.Context, userUUID string) (*dto.UserScoreResponse, error)
	GetLeaderboard(ctx context.Context, limit int) (*dto.LeaderboardResponse, error)
}

// ScoreFlowImpl implements ScoreFlow. Redis is a read cache only: every
// cache failure falls through to the database, which stays the source of
// truth for scores.
type ScoreFlowImpl struct {
	userRepo   repository.UserRepository
	ledgerRepo repository.LedgerRepository
	badgeRepo  repository.BadgeRepository
	cache      *redis.Client
	cacheTTL   time.Duration
}

func NewScoreFlow(
	userRepo repository.UserRepository,
	ledgerRepo repository.LedgerRepository,
	badgeRepo repository.BadgeRepository,
	cache *redis.Client,
	cacheTTL time.Duration,
) ScoreFlow {
	return &ScoreFlowImpl{
		userRepo:   userRepo,
		ledgerRepo: ledgerRepo,
		badgeRepo:  badgeRepo,
		cache:      cache,
		cacheTTL:   cacheTTL,
	}
}

// GetUserScore returns a user's total points and awarded badges
func (f *ScoreFlowImpl) GetUserScore(ctx context.Context, userUUID string) (*dto.UserScoreResponse, error) {
	if userUUID == "" {
		return nil, ErrUserUUIDRequired
	}

	user, err := f.userRepo.ByUUID(ctx, userUUID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	total, err := f.ledgerRepo.SumByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	userBadges, err := f.badgeRepo.ListUserBadges(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	badges := make([]dto.UserBadgeDTO, 0, len(userBadges))
	for _, ub := range userBadges {
		badges = append(badges, ToUserBadgeDTO(*ub))
	}

	return &dto.UserScoreResponse{
		UserUUID:    user.UUID.String(),
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		TotalPoints: total,
		Badges:      badges,
	}, nil
}

// GetLeaderboard returns the top users by total points, cached in Redis
func (f *ScoreFlowImpl) GetLeaderboard(ctx context.Context, limit int) (*dto.LeaderboardResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	key := fmt.Sprintf(leaderboardCacheKey, limit)
	if f.cache != nil {
		if raw, err := f.cache.Get(ctx, key).Bytes(); err == nil {
			var cached dto.LeaderboardResponse
			if err := json.Unmarshal(raw, &cached); err == nil {
				return &cached, nil
			}
		} else if err != redis.Nil {
			log.Printf("leaderboard cache read failed: %v", err)
		}
	}

	scores, err := f.ledgerRepo.TopScores(ctx, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]dto.LeaderboardEntryDTO, 0, len(scores))
	for i, s := range scores {
		entries = append(entries, dto.LeaderboardEntryDTO{
			Rank:        i + 1,
			UserUUID:    s.UserUUID.String(),
			FirstName:   s.FirstName,
			LastName:    s.LastName,
			TotalPoints: s.TotalPoints,
		})
	}
	resp := &dto.LeaderboardResponse{Entries: entries, GeneratedAt: time.Now().UTC().Format(time.RFC3339)}

	if f.cache != nil {
		if raw, err := json.Marshal(resp); err == nil {
			if err := f.cache.Set(ctx, key, raw, f.cacheTTL).Err(); err != nil {
				log.Printf("leaderboard cache write failed: %v", err)
			}
		}
	}

	return resp, nil
}
