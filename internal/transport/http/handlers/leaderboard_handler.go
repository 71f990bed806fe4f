package handlers

import (
	"net/http"

	uploadsvc "github.com/chloe472/Reely/internal/services/uploads"
	"github.com/chloe472/Reely/internal/transport/http/dto"
	httperrors "github.com/chloe472/Reely/internal/transport/http/errors"
)

type LeaderboardHandler struct {
	service *uploadsvc.Service
}

func NewLeaderboardHandler(service *uploadsvc.Service) *LeaderboardHandler {
	return &LeaderboardHandler{service: service}
}

func (h *LeaderboardHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "UPLOADS_SERVICE_UNAVAILABLE", "uploads service is unavailable")
		return
	}

	entries, err := h.service.Leaderboard(r.Context(), queryInt(r, "limit", 0))
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "leaderboard query failed")
		return
	}

	items := make([]dto.LeaderboardEntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.LeaderboardEntryResponse{
			UserID:          entry.UserID,
			DisplayName:     entry.DisplayName,
			UserEmail:       entry.UserEmail,
			AvatarURL:       entry.AvatarURL,
			TotalPoints:     entry.TotalPoints,
			GamesPlayed:     entry.GamesPlayed,
			BestScore:       entry.BestScore,
			AverageDistance: entry.AverageDistance,
		})
	}

	httperrors.Write(w, http.StatusOK, dto.LeaderboardResponse{
		Leaderboard: items,
		Count:       len(items),
	})
}
