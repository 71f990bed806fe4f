package dto

type LeaderboardEntryResponse struct {
	UserID          string   `json:"userId"`
	DisplayName     string   `json:"displayName"`
	UserEmail       string   `json:"userEmail,omitempty"`
	AvatarURL       string   `json:"avatarUrl,omitempty"`
	TotalPoints     int      `json:"totalPoints"`
	GamesPlayed     int      `json:"gamesPlayed"`
	BestScore       int      `json:"bestScore"`
	AverageDistance *float64 `json:"averageDistance"`
}

type LeaderboardResponse struct {
	Leaderboard []LeaderboardEntryResponse `json:"leaderboard"`
	Count       int                        `json:"count"`
}
