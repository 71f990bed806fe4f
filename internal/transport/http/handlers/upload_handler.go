package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	authsvc "github.com/chloe472/Reely/internal/services/auth"
	uploadsvc "github.com/chloe472/Reely/internal/services/uploads"
	"github.com/chloe472/Reely/internal/transport/http/dto"
	httperrors "github.com/chloe472/Reely/internal/transport/http/errors"
)

// mimeKinds is the upload allowlist. Anything else is rejected before a
// byte reaches the vision provider.
var mimeKinds = map[string]string{
	"image/jpeg":      "image",
	"image/png":       "image",
	"video/mp4":       "video",
	"video/quicktime": "video",
	"video/x-msvideo": "video",
	"video/webm":      "video",
}

type UploadHandler struct {
	service       *uploadsvc.Service
	maxUploadSize int64
}

func NewUploadHandler(service *uploadsvc.Service, maxUploadSize int64) *UploadHandler {
	if maxUploadSize <= 0 {
		maxUploadSize = 100 << 20
	}
	return &UploadHandler{service: service, maxUploadSize: maxUploadSize}
}

func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "UPLOADS_SERVICE_UNAVAILABLE", "uploads service is unavailable")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		writeBadRequest(w, "NO_FILE", "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("screenshot")
	if err != nil {
		writeBadRequest(w, "NO_FILE", "screenshot file is required")
		return
	}
	defer file.Close()

	if header == nil || header.Size <= 0 {
		writeBadRequest(w, "NO_FILE", "screenshot file is empty")
		return
	}

	contentType := strings.TrimSpace(strings.Split(header.Header.Get("Content-Type"), ";")[0])
	kind, supported := mimeKinds[contentType]
	if !supported {
		writeBadRequest(w, "UNSUPPORTED_MEDIA", "only jpeg, png, mp4, mov, avi and webm are accepted")
		return
	}

	if kind == "video" {
		h.processVideo(w, r, identity.UserID, header.Filename, file)
		return
	}
	h.analyzeImage(w, r, identity.UserID, header.Filename, contentType, file)
}

func (h *UploadHandler) analyzeImage(w http.ResponseWriter, r *http.Request, userID, originalName, contentType string, file io.Reader) {
	result, err := h.service.AnalyzeImage(r.Context(), userID, originalName, contentType, file)
	if err != nil {
		h.handleUploadError(w, err)
		return
	}

	response := uploadToResponse(result.Upload, h.service.FileURL)
	response.ImageURL = result.ImageURL
	httperrors.Write(w, http.StatusOK, response)
}

func (h *UploadHandler) processVideo(w http.ResponseWriter, r *http.Request, userID, originalName string, file io.Reader) {
	result, err := h.service.ProcessVideo(r.Context(), userID, originalName, file)
	if err != nil {
		h.handleUploadError(w, err)
		return
	}

	locations := make([]dto.UploadResponse, 0, len(result.Uploads))
	for _, upload := range result.Uploads {
		locations = append(locations, uploadToResponse(upload, h.service.FileURL))
	}

	httperrors.Write(w, http.StatusOK, dto.VideoUploadResponse{
		Type:      "video",
		Locations: locations,
		Processing: dto.VideoProcessingResponse{
			TotalFrames:     result.Summary.TotalFrames,
			AnalyzedFrames:  result.Summary.AnalyzedFrames,
			UniqueLocations: result.Summary.UniqueLocations,
		},
		Metadata: dto.VideoMetadataResponse{
			OriginalName:     originalName,
			ProcessingTimeMS: result.Summary.ProcessingTime.Milliseconds(),
		},
	})
}

func (h *UploadHandler) Guess(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "UPLOADS_SERVICE_UNAVAILABLE", "uploads service is unavailable")
		return
	}

	var req dto.GuessRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		writeBadRequest(w, "INVALID_COORDINATES", "latitude and longitude are required")
		return
	}

	result, err := h.service.SaveGuess(r.Context(), identity.UserID, chi.URLParam(r, "id"), *req.Latitude, *req.Longitude)
	if err != nil {
		h.handleUploadError(w, err)
		return
	}

	actualLat, actualLng, _ := result.Upload.Coordinates()
	httperrors.Write(w, http.StatusOK, dto.GuessResponse{
		DistanceKM:      result.DistanceKM,
		Points:          result.Points,
		ActualLatitude:  actualLat,
		ActualLongitude: actualLng,
		GuessLatitude:   *req.Latitude,
		GuessLongitude:  *req.Longitude,
	})
}

func (h *UploadHandler) History(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "UPLOADS_SERVICE_UNAVAILABLE", "uploads service is unavailable")
		return
	}

	limit := queryInt(r, "limit", 0)
	offset := queryInt(r, "offset", 0)

	items, total, err := h.service.History(r.Context(), identity.UserID, limit, offset)
	if err != nil {
		h.handleUploadError(w, err)
		return
	}

	uploads := make([]dto.UploadResponse, 0, len(items))
	for _, item := range items {
		uploads = append(uploads, uploadToResponse(item, h.service.FileURL))
	}

	httperrors.Write(w, http.StatusOK, dto.HistoryResponse{
		Uploads: uploads,
		Total:   total,
		Limit:   uploadsvc.HistoryLimit(limit),
		Offset:  offset,
	})
}

func (h *UploadHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "UPLOADS_SERVICE_UNAVAILABLE", "uploads service is unavailable")
		return
	}

	record, err := h.service.Get(r.Context(), identity.UserID, chi.URLParam(r, "id"))
	if err != nil {
		h.handleUploadError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, uploadToResponse(record, h.service.FileURL))
}

func (h *UploadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "UPLOADS_SERVICE_UNAVAILABLE", "uploads service is unavailable")
		return
	}

	if err := h.service.Delete(r.Context(), identity.UserID, chi.URLParam(r, "id")); err != nil {
		h.handleUploadError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (h *UploadHandler) handleUploadError(w http.ResponseWriter, err error) {
	var rle *uploadsvc.RateLimitError

	switch {
	case errors.As(err, &rle):
		w.Header().Set("Retry-After", strconv.FormatInt(rle.RetryAfterSeconds, 10))
		httperrors.Write(w, http.StatusTooManyRequests, httperrors.RateLimitError{
			Code:          "RATE_LIMITED",
			Message:       "too many uploads, slow down",
			RetryAfterSec: rle.RetryAfterSeconds,
		})
	case errors.Is(err, uploadsvc.ErrValidation):
		writeBadRequest(w, "INVALID_COORDINATES", "coordinates are out of range")
	case errors.Is(err, uploadsvc.ErrNotFound):
		writeNotFound(w, "NOT_FOUND", "upload not found")
	case errors.Is(err, uploadsvc.ErrForbidden):
		writeForbidden(w, "FORBIDDEN", "upload belongs to another user")
	case errors.Is(err, uploadsvc.ErrAlreadyGuessed):
		writeConflict(w, "GUESS_ALREADY_SET", "guess has already been recorded")
	case errors.Is(err, uploadsvc.ErrNoActualCoordinates):
		httperrors.Write(w, http.StatusUnprocessableEntity, httperrors.APIError{
			Code:    "NO_ACTUAL_COORDINATES",
			Message: "upload has no coordinates to score against",
		})
	case errors.Is(err, uploadsvc.ErrAnalysisFailed):
		writeInternalDetails(w, "API_FAILURE", "image analysis failed", err)
	case errors.Is(err, uploadsvc.ErrVideoProcessing):
		writeInternalDetails(w, "VIDEO_PROCESSING_ERROR", "video processing failed", err)
	default:
		writeInternalDetails(w, "PROCESSING_ERROR", "upload processing failed", err)
	}
}
