package uploads

import (
	"encoding/json"
	"time"

	"github.com/chloe472/Reely/internal/domain/enums"
)

// Upload is one analyzed piece of media. A video contributes one row per
// unique recognized location; MediaKind tells the two apart.
type Upload struct {
	ID           string
	UserID       string
	Filename     string
	OriginalName string
	MediaKind    enums.MediaKind

	LocationName string
	Address      string
	City         string
	Country      string
	Category     string
	Description  string
	Latitude     *float64
	Longitude    *float64

	Confidence       enums.Confidence
	ConfidenceReason string
	HasError         bool
	ErrorType        enums.ErrorType
	ErrorMessage     string

	FrameNumber    *int
	FrameTimestamp *string

	GuessLatitude  *float64
	GuessLongitude *float64
	DistanceKM     *float64
	Points         *int

	RawResponse json.RawMessage
	CreatedAt   time.Time
}

// Coordinates exposes the actual coordinate pair when present.
func (u Upload) Coordinates() (lat, lng float64, ok bool) {
	if u.Latitude == nil || u.Longitude == nil {
		return 0, 0, false
	}
	return *u.Latitude, *u.Longitude, true
}

// Guessed reports whether the minigame guess has been recorded.
func (u Upload) Guessed() bool {
	return u.GuessLatitude != nil && u.GuessLongitude != nil
}

// LeaderboardRow is the per-user aggregate over guessed uploads.
type LeaderboardRow struct {
	UserID          string
	TotalPoints     int
	GamesPlayed     int
	BestScore       int
	AverageDistance *float64
}
