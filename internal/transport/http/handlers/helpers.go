package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/chloe472/Reely/internal/services/geo"
	uploadsvc "github.com/chloe472/Reely/internal/services/uploads"
	"github.com/chloe472/Reely/internal/transport/http/dto"
	httperrors "github.com/chloe472/Reely/internal/transport/http/errors"
)

func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func writeBadRequest(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusBadRequest, httperrors.APIError{Code: code, Message: message})
}

func writeUnauthorized(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusUnauthorized, httperrors.APIError{Code: code, Message: message})
}

func writeForbidden(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusForbidden, httperrors.APIError{Code: code, Message: message})
}

func writeNotFound(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusNotFound, httperrors.APIError{Code: code, Message: message})
}

func writeConflict(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusConflict, httperrors.APIError{Code: code, Message: message})
}

func writeInternal(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusInternalServerError, httperrors.APIError{Code: code, Message: message})
}

func writeInternalDetails(w http.ResponseWriter, code, message string, err error) {
	payload := httperrors.APIError{Code: code, Message: message}
	if err != nil {
		payload.Details = err.Error()
	}
	httperrors.Write(w, http.StatusInternalServerError, payload)
}

// uploadToResponse maps an upload record to its wire shape, deriving the
// maps and street-view links from the actual coordinates.
func uploadToResponse(u uploadsvc.Upload, fileURL func(string) string) dto.UploadResponse {
	location := dto.LocationResponse{
		Name:             u.LocationName,
		Address:          u.Address,
		City:             u.City,
		Country:          u.Country,
		Category:         u.Category,
		Description:      u.Description,
		Latitude:         u.Latitude,
		Longitude:        u.Longitude,
		Confidence:       string(u.Confidence),
		ConfidenceReason: u.ConfidenceReason,
	}
	if lat, lng, ok := u.Coordinates(); ok {
		location.GoogleMapsURL = geo.MapsURL(u.LocationName, u.Address, u.City, u.Country)
		location.StreetViewURL = geo.StreetViewURL(lat, lng)
	}

	return dto.UploadResponse{
		ID:             u.ID,
		Type:           string(u.MediaKind),
		ImageURL:       fileURL(u.Filename),
		OriginalName:   u.OriginalName,
		Location:       location,
		HasError:       u.HasError,
		ErrorType:      string(u.ErrorType),
		ErrorMessage:   u.ErrorMessage,
		FrameNumber:    u.FrameNumber,
		FrameTimestamp: u.FrameTimestamp,
		GuessLatitude:  u.GuessLatitude,
		GuessLongitude: u.GuessLongitude,
		DistanceKM:     u.DistanceKM,
		Points:         u.Points,
		Analysis:       u.RawResponse,
		CreatedAt:      u.CreatedAt,
	}
}
