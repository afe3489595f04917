package dto

// UserBadgeDTO is one awarded badge in a score response
type UserBadgeDTO struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	AwardedAt string `json:"awarded_at"`
}

// UserScoreResponse is the points summary for one user
type UserScoreResponse struct {
	UserUUID    string         `json:"user_uuid"`
	FirstName   string         `json:"first_name"`
	LastName    string         `json:"last_name"`
	TotalPoints int64          `json:"total_points"`
	Badges      []UserBadgeDTO `json:"badges"`
}

// LeaderboardEntryDTO is one ranked row of the leaderboard
type LeaderboardEntryDTO struct {
	Rank        int    `json:"rank"`
	UserUUID    string `json:"user_uuid"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	TotalPoints int64  `json:"total_points"`
}

// LeaderboardResponse is the top-N users by total points
type LeaderboardResponse struct {
	Entries     []LeaderboardEntryDTO `json:"entries"`
	GeneratedAt string                `json:"generated_at"`
}

// LeaderboardQuery binds the leaderboard list parameters
type LeaderboardQuery struct {
	Limit int `query:"limit" validate:"omitempty,min=1,max=100"`
}
