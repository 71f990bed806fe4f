package uploads

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chloe472/Reely/internal/domain/enums"
	"github.com/chloe472/Reely/internal/services/accounts"
	"github.com/chloe472/Reely/internal/services/geo"
	"github.com/chloe472/Reely/internal/services/media"
	"github.com/chloe472/Reely/internal/services/video"
	"github.com/chloe472/Reely/internal/services/vision"
)

type Store interface {
	Create(ctx context.Context, upload Upload) (Upload, error)
	CreateBatch(ctx context.Context, items []Upload) ([]Upload, error)
	GetByID(ctx context.Context, id string) (Upload, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Upload, int, error)
	Delete(ctx context.Context, id, userID string) error
	SetGuess(ctx context.Context, id string, guessLat, guessLng, distanceKM float64, points int) (Upload, error)
	AggregateLeaderboard(ctx context.Context) ([]LeaderboardRow, error)
}

type FileStore interface {
	Save(originalName string, body io.Reader) (media.SavedFile, error)
	Remove(filename string) error
	FilePath(filename string) string
	URL(filename string) string
}

// ObjectMirror replicates stored files to object storage, best-effort.
type ObjectMirror interface {
	Put(ctx context.Context, filename string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, filename string) error
}

type Analyzer interface {
	Analyze(ctx context.Context, image []byte, mimeType string) vision.Result
}

type VideoPipeline interface {
	Process(ctx context.Context, videoPath string) (video.Summary, error)
}

type UploadLimiter interface {
	AllowUpload(ctx context.Context, userID string) (int64, bool, error)
}

type DirectoryLister interface {
	ListUsers(ctx context.Context) ([]accounts.Account, error)
}

type Cache interface {
	GetJSON(ctx context.Context, key string, target any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

type Config struct {
	LeaderboardCacheTTL time.Duration
}

type Service struct {
	store     Store
	files     FileStore
	mirror    ObjectMirror
	analyzer  Analyzer
	pipeline  VideoPipeline
	limiter   UploadLimiter
	directory DirectoryLister
	cache     Cache
	cfg       Config
	logger    *zap.Logger
}

func NewService(
	store Store,
	files FileStore,
	mirror ObjectMirror,
	analyzer Analyzer,
	pipeline VideoPipeline,
	limiter UploadLimiter,
	directory DirectoryLister,
	cache Cache,
	cfg Config,
	logger *zap.Logger,
) *Service {
	return &Service{
		store:     store,
		files:     files,
		mirror:    mirror,
		analyzer:  analyzer,
		pipeline:  pipeline,
		limiter:   limiter,
		directory: directory,
		cache:     cache,
		cfg:       cfg,
		logger:    logger,
	}
}

// RateLimitError carries the window reset so the transport layer can set
// Retry-After.
type RateLimitError struct {
	RetryAfterSeconds int64
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("upload rate limit exceeded, retry after %ds", e.RetryAfterSeconds)
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

type ImageResult struct {
	Upload   Upload
	ImageURL string
}

type VideoResult struct {
	Uploads []Upload
	Summary video.Summary
}

const (
	historyDefaultLimit = 50
	historyMaxLimit     = 100

	leaderboardDefaultLimit = 50
	leaderboardMaxLimit     = 200
	leaderboardCacheKey     = "cache:leaderboard"
)

// FileURL resolves the public URL of a stored filename.
func (s *Service) FileURL(filename string) string {
	return s.files.URL(filename)
}

func (s *Service) checkRate(ctx context.Context, userID string) error {
	if s.limiter == nil {
		return nil
	}
	retryAfter, allowed, err := s.limiter.AllowUpload(ctx, userID)
	if err != nil {
		// Degraded redis must not block uploads.
		s.logger.Warn("rate limiter unavailable", zap.Error(err))
		return nil
	}
	if !allowed {
		return &RateLimitError{RetryAfterSeconds: retryAfter}
	}
	return nil
}

// AnalyzeImage stores the image, sends it for recognition, and persists
// the analyzed upload. A provider failure leaves nothing behind.
func (s *Service) AnalyzeImage(ctx context.Context, userID, originalName, mimeType string, body io.Reader) (ImageResult, error) {
	if err := s.checkRate(ctx, userID); err != nil {
		return ImageResult{}, err
	}

	saved, err := s.files.Save(originalName, body)
	if err != nil {
		return ImageResult{}, fmt.Errorf("store image: %w", err)
	}

	image, err := os.ReadFile(saved.Path)
	if err != nil {
		return ImageResult{}, fmt.Errorf("read stored image: %w", err)
	}

	s.mirrorFile(ctx, saved.Filename, image, mimeType)

	result := s.analyzer.Analyze(ctx, image, mimeType)
	if result.ErrorType == enums.ErrorTypeAPIFailure {
		if err := s.files.Remove(saved.Filename); err != nil {
			s.logger.Warn("remove failed upload", zap.String("filename", saved.Filename), zap.Error(err))
		}
		return ImageResult{}, fmt.Errorf("%w: %s", ErrAnalysisFailed, result.ErrorMessage)
	}

	record := uploadFromResult(userID, saved.Filename, originalName, enums.MediaKindImage, result)
	created, err := s.store.Create(ctx, record)
	if err != nil {
		return ImageResult{}, fmt.Errorf("persist upload: %w", err)
	}

	s.logger.Info("image analyzed",
		zap.String("upload_id", created.ID),
		zap.String("user_id", userID),
		zap.String("location", created.LocationName),
		zap.String("error_type", string(created.ErrorType)))

	return ImageResult{
		Upload:   created,
		ImageURL: s.files.URL(created.Filename),
	}, nil
}

// ProcessVideo runs the frame pipeline and persists one upload per unique
// location. The source video is discarded afterwards; only the accepted
// frames are kept.
func (s *Service) ProcessVideo(ctx context.Context, userID, originalName string, body io.Reader) (VideoResult, error) {
	if err := s.checkRate(ctx, userID); err != nil {
		return VideoResult{}, err
	}

	saved, err := s.files.Save(originalName, body)
	if err != nil {
		return VideoResult{}, fmt.Errorf("store video: %w", err)
	}
	defer func() {
		if err := s.files.Remove(saved.Filename); err != nil {
			s.logger.Warn("remove source video", zap.String("filename", saved.Filename), zap.Error(err))
		}
	}()

	summary, err := s.pipeline.Process(ctx, saved.Path)
	if err != nil {
		return VideoResult{}, fmt.Errorf("%w: %v", ErrVideoProcessing, err)
	}

	records := make([]Upload, 0, len(summary.Locations))
	for _, loc := range summary.Locations {
		record := uploadFromResult(userID, loc.Frame.Filename, originalName, enums.MediaKindVideoFrame, loc.Result)
		frameNumber := loc.FrameNumber
		timestamp := loc.Timestamp
		record.FrameNumber = &frameNumber
		record.FrameTimestamp = &timestamp
		records = append(records, record)
	}

	created, err := s.store.CreateBatch(ctx, records)
	if err != nil {
		return VideoResult{}, fmt.Errorf("persist video uploads: %w", err)
	}

	if s.mirror != nil {
		for _, loc := range summary.Locations {
			frame, err := os.ReadFile(loc.Frame.Path)
			if err != nil {
				s.logger.Warn("read frame for mirror", zap.String("frame", loc.Frame.Filename), zap.Error(err))
				continue
			}
			s.mirrorFile(ctx, loc.Frame.Filename, frame, "image/jpeg")
		}
	}

	s.logger.Info("video processed",
		zap.String("user_id", userID),
		zap.Int("total_frames", summary.TotalFrames),
		zap.Int("analyzed_frames", summary.AnalyzedFrames),
		zap.Int("unique_locations", summary.UniqueLocations),
		zap.Duration("took", summary.ProcessingTime))

	return VideoResult{Uploads: created, Summary: summary}, nil
}

func (s *Service) mirrorFile(ctx context.Context, filename string, data []byte, contentType string) {
	if s.mirror == nil {
		return
	}
	if err := s.mirror.Put(ctx, filename, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		s.logger.Warn("mirror upload", zap.String("filename", filename), zap.Error(err))
	}
}

func uploadFromResult(userID, filename, originalName string, kind enums.MediaKind, result vision.Result) Upload {
	return Upload{
		UserID:           userID,
		Filename:         filename,
		OriginalName:     originalName,
		MediaKind:        kind,
		LocationName:     result.LocationName,
		Address:          result.Address,
		City:             result.City,
		Country:          result.Country,
		Category:         result.Category,
		Description:      result.Description,
		Latitude:         result.Latitude,
		Longitude:        result.Longitude,
		Confidence:       result.Confidence,
		ConfidenceReason: result.ConfidenceReason,
		HasError:         result.ErrorType != enums.ErrorTypeNone,
		ErrorType:        result.ErrorType,
		ErrorMessage:     result.ErrorMessage,
		RawResponse:      result.Raw,
	}
}

// HistoryLimit clamps a requested history page size to the applied one,
// so the transport layer can echo the same value it was served with.
func HistoryLimit(limit int) int {
	if limit <= 0 {
		return historyDefaultLimit
	}
	if limit > historyMaxLimit {
		return historyMaxLimit
	}
	return limit
}

// History lists the user's uploads newest first.
func (s *Service) History(ctx context.Context, userID string, limit, offset int) ([]Upload, int, error) {
	if offset < 0 {
		offset = 0
	}

	return s.store.ListByUser(ctx, userID, HistoryLimit(limit), offset)
}

func (s *Service) Get(ctx context.Context, userID, id string) (Upload, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Upload{}, ErrNotFound
	}

	record, err := s.store.GetByID(ctx, id)
	if err != nil {
		return Upload{}, err
	}
	if record.UserID != userID {
		return Upload{}, ErrForbidden
	}

	return record, nil
}

// Delete removes the record, the stored file, and the mirror copy. File
// removal is best-effort once the row is gone.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	record, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, id, userID); err != nil {
		return err
	}

	if err := s.files.Remove(record.Filename); err != nil {
		s.logger.Warn("remove deleted upload file", zap.String("filename", record.Filename), zap.Error(err))
	}
	if s.mirror != nil {
		if err := s.mirror.Delete(ctx, record.Filename); err != nil {
			s.logger.Warn("remove mirrored upload", zap.String("filename", record.Filename), zap.Error(err))
		}
	}

	s.invalidateLeaderboard(ctx)
	return nil
}

type GuessResult struct {
	Upload     Upload
	DistanceKM float64
	Points     int
}

// SaveGuess scores the player's guess against the actual coordinates.
// Distance and points are always computed server-side.
func (s *Service) SaveGuess(ctx context.Context, userID, id string, guessLat, guessLng float64) (GuessResult, error) {
	if !geo.ValidateCoordinates(guessLat, guessLng) {
		return GuessResult{}, ErrValidation
	}

	record, err := s.Get(ctx, userID, id)
	if err != nil {
		return GuessResult{}, err
	}

	actualLat, actualLng, ok := record.Coordinates()
	if !ok {
		return GuessResult{}, ErrNoActualCoordinates
	}
	if record.Guessed() {
		return GuessResult{}, ErrAlreadyGuessed
	}

	distance := geo.HaversineKM(guessLat, guessLng, actualLat, actualLng)
	points := geo.PointsForDistance(distance)

	updated, err := s.store.SetGuess(ctx, id, guessLat, guessLng, distance, points)
	if err != nil {
		return GuessResult{}, err
	}

	s.invalidateLeaderboard(ctx)

	s.logger.Info("guess scored",
		zap.String("upload_id", id),
		zap.String("user_id", userID),
		zap.Float64("distance_km", distance),
		zap.Int("points", points))

	return GuessResult{Upload: updated, DistanceKM: distance, Points: points}, nil
}

type LeaderboardEntry struct {
	UserID          string   `json:"userId"`
	DisplayName     string   `json:"displayName"`
	UserEmail       string   `json:"userEmail"`
	AvatarURL       string   `json:"avatarUrl"`
	TotalPoints     int      `json:"totalPoints"`
	GamesPlayed     int      `json:"gamesPlayed"`
	BestScore       int      `json:"bestScore"`
	AverageDistance *float64 `json:"averageDistance"`
}

// Leaderboard merges per-user aggregates with the auth directory so
// players who have not finished a game still appear with zero points.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = leaderboardDefaultLimit
	}
	if limit > leaderboardMaxLimit {
		limit = leaderboardMaxLimit
	}

	if s.cache != nil {
		var cached []LeaderboardEntry
		if found, err := s.cache.GetJSON(ctx, leaderboardCacheKey, &cached); err != nil {
			s.logger.Warn("leaderboard cache read", zap.Error(err))
		} else if found {
			return clampEntries(cached, limit), nil
		}
	}

	rows, err := s.store.AggregateLeaderboard(ctx)
	if err != nil {
		return nil, err
	}

	entries := mergeLeaderboard(rows, s.listDirectory(ctx))

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, leaderboardCacheKey, entries, s.cfg.LeaderboardCacheTTL); err != nil {
			s.logger.Warn("leaderboard cache write", zap.Error(err))
		}
	}

	return clampEntries(entries, limit), nil
}

func (s *Service) listDirectory(ctx context.Context) []accounts.Account {
	if s.directory == nil {
		return nil
	}
	users, err := s.directory.ListUsers(ctx)
	if err != nil {
		// The leaderboard still works without display names.
		s.logger.Warn("list auth directory", zap.Error(err))
		return nil
	}
	return users
}

func mergeLeaderboard(rows []LeaderboardRow, users []accounts.Account) []LeaderboardEntry {
	byUser := make(map[string]LeaderboardRow, len(rows))
	for _, row := range rows {
		byUser[row.UserID] = row
	}

	entries := make([]LeaderboardEntry, 0, len(rows)+len(users))
	seen := make(map[string]struct{}, len(users))

	// Aggregates first, enriched with profile data when available.
	accountByID := make(map[string]accounts.Account, len(users))
	for _, user := range users {
		accountByID[user.ID] = user
	}

	for _, row := range rows {
		entry := LeaderboardEntry{
			UserID:          row.UserID,
			DisplayName:     "Anonymous",
			TotalPoints:     row.TotalPoints,
			GamesPlayed:     row.GamesPlayed,
			BestScore:       row.BestScore,
			AverageDistance: row.AverageDistance,
		}
		if account, ok := accountByID[row.UserID]; ok {
			entry.DisplayName = account.DisplayName
			entry.UserEmail = account.Email
			entry.AvatarURL = account.AvatarURL
		}
		entries = append(entries, entry)
		seen[row.UserID] = struct{}{}
	}

	for _, user := range users {
		if _, ok := seen[user.ID]; ok {
			continue
		}
		entries = append(entries, LeaderboardEntry{
			UserID:      user.ID,
			DisplayName: user.DisplayName,
			UserEmail:   user.Email,
			AvatarURL:   user.AvatarURL,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TotalPoints > entries[j].TotalPoints
	})

	return entries
}

func clampEntries(entries []LeaderboardEntry, limit int) []LeaderboardEntry {
	if len(entries) > limit {
		return entries[:limit]
	}
	return entries
}

func (s *Service) invalidateLeaderboard(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, leaderboardCacheKey); err != nil {
		s.logger.Warn("leaderboard cache invalidate", zap.Error(err))
	}
}
