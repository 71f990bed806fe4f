package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chloe472/Reely/internal/domain/enums"
	authsvc "github.com/chloe472/Reely/internal/services/auth"
	"github.com/chloe472/Reely/internal/services/media"
	uploadsvc "github.com/chloe472/Reely/internal/services/uploads"
	"github.com/chloe472/Reely/internal/services/vision"
)

type memStore struct {
	items map[string]uploadsvc.Upload
}

func newMemStore() *memStore {
	return &memStore{items: map[string]uploadsvc.Upload{}}
}

func (m *memStore) Create(_ context.Context, upload uploadsvc.Upload) (uploadsvc.Upload, error) {
	upload.ID = uuid.NewString()
	upload.CreatedAt = time.Now()
	m.items[upload.ID] = upload
	return upload, nil
}

func (m *memStore) CreateBatch(ctx context.Context, items []uploadsvc.Upload) ([]uploadsvc.Upload, error) {
	created := make([]uploadsvc.Upload, 0, len(items))
	for _, item := range items {
		record, err := m.Create(ctx, item)
		if err != nil {
			return nil, err
		}
		created = append(created, record)
	}
	return created, nil
}

func (m *memStore) GetByID(_ context.Context, id string) (uploadsvc.Upload, error) {
	record, ok := m.items[id]
	if !ok {
		return uploadsvc.Upload{}, uploadsvc.ErrNotFound
	}
	return record, nil
}

func (m *memStore) ListByUser(_ context.Context, userID string, limit, offset int) ([]uploadsvc.Upload, int, error) {
	var all []uploadsvc.Upload
	for _, item := range m.items {
		if item.UserID == userID {
			all = append(all, item)
		}
	}
	return all, len(all), nil
}

func (m *memStore) Delete(_ context.Context, id, userID string) error {
	record, ok := m.items[id]
	if !ok || record.UserID != userID {
		return uploadsvc.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memStore) SetGuess(_ context.Context, id string, guessLat, guessLng, distanceKM float64, points int) (uploadsvc.Upload, error) {
	record, ok := m.items[id]
	if !ok || record.Guessed() {
		return uploadsvc.Upload{}, uploadsvc.ErrAlreadyGuessed
	}
	record.GuessLatitude = &guessLat
	record.GuessLongitude = &guessLng
	record.DistanceKM = &distanceKM
	record.Points = &points
	m.items[id] = record
	return record, nil
}

func (m *memStore) AggregateLeaderboard(_ context.Context) ([]uploadsvc.LeaderboardRow, error) {
	return nil, nil
}

type stubAnalyzer struct {
	result vision.Result
}

func (s *stubAnalyzer) Analyze(_ context.Context, _ []byte, _ string) vision.Result {
	return s.result
}

func newUploadTestHandler(t *testing.T, store *memStore, analyzer uploadsvc.Analyzer) *UploadHandler {
	t.Helper()

	files, err := media.NewLocalStorage(t.TempDir(), "/uploads")
	if err != nil {
		t.Fatalf("NewLocalStorage() error = %v", err)
	}

	service := uploadsvc.NewService(store, files, nil, analyzer, nil, nil, nil, nil, uploadsvc.Config{}, zap.NewNop())
	return NewUploadHandler(service, 100<<20)
}

func asUser(r *http.Request, userID string) *http.Request {
	ctx := authsvc.WithIdentity(r.Context(), authsvc.Identity{UserID: userID, Email: userID + "@example.com"})
	return r.WithContext(ctx)
}

func multipartBody(t *testing.T, field, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	return body, writer.FormDataContentType()
}

func TestUploadRequiresAuth(t *testing.T) {
	handler := newUploadTestHandler(t, newMemStore(), &stubAnalyzer{})

	req := httptest.NewRequest(http.MethodPost, "/upload", nil)
	rec := httptest.NewRecorder()
	handler.Upload(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestUploadRejectsMissingFile(t *testing.T) {
	handler := newUploadTestHandler(t, newMemStore(), &stubAnalyzer{})

	body, contentType := multipartBody(t, "wrong_field", "x.jpg", "image/jpeg", []byte("jpeg"))
	req := asUser(httptest.NewRequest(http.MethodPost, "/upload", body), "user-1")
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.Upload(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var payload struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Code != "NO_FILE" {
		t.Errorf("code = %q, want NO_FILE", payload.Code)
	}
}

func TestUploadRejectsUnsupportedMedia(t *testing.T) {
	handler := newUploadTestHandler(t, newMemStore(), &stubAnalyzer{})

	body, contentType := multipartBody(t, "screenshot", "notes.txt", "text/plain", []byte("hello"))
	req := asUser(httptest.NewRequest(http.MethodPost, "/upload", body), "user-1")
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.Upload(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var payload struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Code != "UNSUPPORTED_MEDIA" {
		t.Errorf("code = %q, want UNSUPPORTED_MEDIA", payload.Code)
	}
}

func TestUploadImageResponseShape(t *testing.T) {
	lat, lng := 48.8584, 2.2945
	store := newMemStore()
	handler := newUploadTestHandler(t, store, &stubAnalyzer{result: vision.Result{
		LocationName: "Eiffel Tower",
		Latitude:     &lat,
		Longitude:    &lng,
		City:         "Paris",
		Country:      "France",
		Confidence:   enums.ConfidenceHigh,
	}})

	body, contentType := multipartBody(t, "screenshot", "tower.jpg", "image/jpeg", []byte("jpeg"))
	req := asUser(httptest.NewRequest(http.MethodPost, "/upload", body), "user-1")
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.Upload(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var payload struct {
		ID       string `json:"id"`
		Type     string `json:"type"`
		ImageURL string `json:"imageUrl"`
		Location struct {
			Name          string   `json:"name"`
			Latitude      *float64 `json:"latitude"`
			GoogleMapsURL string   `json:"google_maps_url"`
			StreetViewURL string   `json:"street_view_url"`
		} `json:"location"`
		HasError bool `json:"hasError"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if payload.Type != "image" || payload.Location.Name != "Eiffel Tower" {
		t.Errorf("payload = %+v", payload)
	}
	if payload.Location.Latitude == nil || *payload.Location.Latitude != lat {
		t.Errorf("latitude = %v", payload.Location.Latitude)
	}
	if payload.Location.GoogleMapsURL == "" || payload.Location.StreetViewURL == "" {
		t.Errorf("maps links missing: %+v", payload.Location)
	}
	if payload.HasError {
		t.Error("hasError = true for a clean analysis")
	}
	if len(store.items) != 1 {
		t.Errorf("persisted %d records", len(store.items))
	}
}

func TestUploadAnalysisFailureDetails(t *testing.T) {
	store := newMemStore()
	handler := newUploadTestHandler(t, store, &stubAnalyzer{result: vision.Result{
		LocationName: "Unknown Location",
		Confidence:   enums.ConfidenceLow,
		ErrorType:    enums.ErrorTypeAPIFailure,
		ErrorMessage: "Failed to analyze image with Gemini API: quota exceeded",
	}})

	body, contentType := multipartBody(t, "screenshot", "tower.jpg", "image/jpeg", []byte("jpeg"))
	req := asUser(httptest.NewRequest(http.MethodPost, "/upload", body), "user-1")
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.Upload(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500 (body %s)", rec.Code, rec.Body.String())
	}

	var payload struct {
		Code    string `json:"code"`
		Details string `json:"details"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Code != "API_FAILURE" {
		t.Errorf("code = %q, want API_FAILURE", payload.Code)
	}
	if !strings.Contains(payload.Details, "quota exceeded") {
		t.Errorf("details = %q, want the upstream failure text", payload.Details)
	}
	if len(store.items) != 0 {
		t.Errorf("persisted %d records after a failed analysis", len(store.items))
	}
}

func TestHistoryEchoesAppliedLimit(t *testing.T) {
	store := newMemStore()
	handler := newUploadTestHandler(t, store, &stubAnalyzer{})

	if _, err := store.Create(context.Background(), uploadsvc.Upload{UserID: "user-1"}); err != nil {
		t.Fatalf("seed upload: %v", err)
	}

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"default", "", 50},
		{"explicit", "?limit=7", 7},
		{"above max", "?limit=500", 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := asUser(httptest.NewRequest(http.MethodGet, "/history"+tt.query, nil), "user-1")
			rec := httptest.NewRecorder()
			handler.History(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			var payload struct {
				Limit int `json:"limit"`
				Total int `json:"total"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if payload.Limit != tt.want {
				t.Errorf("limit = %d, want %d", payload.Limit, tt.want)
			}
		})
	}
}

func guessRouter(handler *UploadHandler) http.Handler {
	r := chi.NewRouter()
	r.Patch("/upload/{id}/guess", handler.Guess)
	return r
}

func TestGuessScoring(t *testing.T) {
	store := newMemStore()
	handler := newUploadTestHandler(t, store, &stubAnalyzer{})

	lat, lng := 53.9006, 27.5590
	record, _ := store.Create(context.Background(), uploadsvc.Upload{
		UserID:    "user-1",
		Filename:  "a.jpg",
		Latitude:  &lat,
		Longitude: &lng,
	})

	router := guessRouter(handler)

	body, _ := json.Marshal(map[string]float64{"latitude": 52.0976, "longitude": 23.7341})
	req := asUser(httptest.NewRequest(http.MethodPatch, "/upload/"+record.ID+"/guess", bytes.NewReader(body)), "user-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var payload struct {
		DistanceKM float64 `json:"distanceKm"`
		Points     int     `json:"points"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Points != 3000 {
		t.Errorf("points = %d, want 3000", payload.Points)
	}

	// Second guess is rejected.
	req = asUser(httptest.NewRequest(http.MethodPatch, "/upload/"+record.ID+"/guess", bytes.NewReader(body)), "user-1")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("second guess status = %d, want 409", rec.Code)
	}
}

func TestGuessValidation(t *testing.T) {
	store := newMemStore()
	handler := newUploadTestHandler(t, store, &stubAnalyzer{})

	lat, lng := 53.9006, 27.5590
	owned, _ := store.Create(context.Background(), uploadsvc.Upload{UserID: "user-1", Latitude: &lat, Longitude: &lng})
	noCoords, _ := store.Create(context.Background(), uploadsvc.Upload{UserID: "user-1", HasError: true, ErrorType: enums.ErrorTypeNoCoordinates})

	router := guessRouter(handler)

	tests := []struct {
		name       string
		userID     string
		uploadID   string
		body       string
		wantStatus int
	}{
		{"missing coordinates", "user-1", owned.ID, `{}`, http.StatusBadRequest},
		{"latitude out of range", "user-1", owned.ID, `{"latitude": 95, "longitude": 10}`, http.StatusBadRequest},
		{"foreign upload", "user-2", owned.ID, `{"latitude": 10, "longitude": 10}`, http.StatusForbidden},
		{"unknown upload", "user-1", uuid.NewString(), `{"latitude": 10, "longitude": 10}`, http.StatusNotFound},
		{"no actual coordinates", "user-1", noCoords.ID, `{"latitude": 10, "longitude": 10}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := asUser(httptest.NewRequest(http.MethodPatch, "/upload/"+tt.uploadID+"/guess", bytes.NewReader([]byte(tt.body))), tt.userID)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}
