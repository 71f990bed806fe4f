package dto

import (
	"encoding/json"
	"time"
)

type LocationResponse struct {
	Name             string   `json:"name"`
	Address          string   `json:"address,omitempty"`
	City             string   `json:"city,omitempty"`
	Country          string   `json:"country,omitempty"`
	Category         string   `json:"category,omitempty"`
	Description      string   `json:"description,omitempty"`
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
	Confidence       string   `json:"confidence"`
	ConfidenceReason string   `json:"confidenceReason,omitempty"`
	GoogleMapsURL    string   `json:"google_maps_url,omitempty"`
	StreetViewURL    string   `json:"street_view_url,omitempty"`
}

type UploadResponse struct {
	ID             string           `json:"id"`
	Type           string           `json:"type"`
	ImageURL       string           `json:"imageUrl"`
	OriginalName   string           `json:"originalName,omitempty"`
	Location       LocationResponse `json:"location"`
	HasError       bool             `json:"hasError"`
	ErrorType      string           `json:"errorType,omitempty"`
	ErrorMessage   string           `json:"errorMessage,omitempty"`
	FrameNumber    *int             `json:"frameNumber,omitempty"`
	FrameTimestamp *string          `json:"frameTimestamp,omitempty"`
	GuessLatitude  *float64         `json:"guessLatitude,omitempty"`
	GuessLongitude *float64         `json:"guessLongitude,omitempty"`
	DistanceKM     *float64         `json:"distanceKm,omitempty"`
	Points         *int             `json:"points,omitempty"`
	Analysis       json.RawMessage  `json:"analysis,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
}

type VideoProcessingResponse struct {
	TotalFrames     int `json:"totalFrames"`
	AnalyzedFrames  int `json:"analyzedFrames"`
	UniqueLocations int `json:"uniqueLocations"`
}

type VideoMetadataResponse struct {
	OriginalName     string `json:"originalName"`
	ProcessingTimeMS int64  `json:"processingTimeMs"`
}

type VideoUploadResponse struct {
	Type       string                  `json:"type"`
	Locations  []UploadResponse        `json:"locations"`
	Processing VideoProcessingResponse `json:"processing"`
	Metadata   VideoMetadataResponse   `json:"metadata"`
}

type HistoryResponse struct {
	Uploads []UploadResponse `json:"uploads"`
	Total   int              `json:"total"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}

type GuessRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type GuessResponse struct {
	DistanceKM      float64  `json:"distanceKm"`
	Points          int      `json:"points"`
	ActualLatitude  float64  `json:"actualLatitude"`
	ActualLongitude float64  `json:"actualLongitude"`
	GuessLatitude   float64  `json:"guessLatitude"`
	GuessLongitude  float64  `json:"guessLongitude"`
}
