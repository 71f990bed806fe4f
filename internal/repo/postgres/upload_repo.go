package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	uploadsvc "github.com/chloe472/Reely/internal/services/uploads"
)

type UploadRepo struct {
	pool *pgxpool.Pool
}

func NewUploadRepo(pool *pgxpool.Pool) *UploadRepo {
	return &UploadRepo{pool: pool}
}

const uploadColumns = `
id, user_id, filename, original_name, media_kind,
location_name, address, city, country, category, description,
latitude, longitude,
confidence, confidence_reason, has_error, error_type, error_message,
frame_number, frame_timestamp,
guess_latitude, guess_longitude, distance_km, points,
raw_response, created_at`

// prefixedUploadColumns qualifies every upload column with a table
// alias for use in joins.
func prefixedUploadColumns(alias string) string {
	parts := strings.Split(uploadColumns, ",")
	for i, part := range parts {
		parts[i] = alias + "." + strings.TrimSpace(part)
	}
	return strings.Join(parts, ", ")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUpload(row rowScanner) (uploadsvc.Upload, error) {
	var u uploadsvc.Upload
	err := row.Scan(
		&u.ID, &u.UserID, &u.Filename, &u.OriginalName, &u.MediaKind,
		&u.LocationName, &u.Address, &u.City, &u.Country, &u.Category, &u.Description,
		&u.Latitude, &u.Longitude,
		&u.Confidence, &u.ConfidenceReason, &u.HasError, &u.ErrorType, &u.ErrorMessage,
		&u.FrameNumber, &u.FrameTimestamp,
		&u.GuessLatitude, &u.GuessLongitude, &u.DistanceKM, &u.Points,
		&u.RawResponse, &u.CreatedAt,
	)
	return u, err
}

func (r *UploadRepo) Create(ctx context.Context, upload uploadsvc.Upload) (uploadsvc.Upload, error) {
	if r.pool == nil {
		return uploadsvc.Upload{}, fmt.Errorf("postgres pool is nil")
	}
	return insertUpload(ctx, r.pool, upload)
}

// CreateBatch inserts all records in one transaction so a video either
// lands completely or not at all.
func (r *UploadRepo) CreateBatch(ctx context.Context, items []uploadsvc.Upload) ([]uploadsvc.Upload, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if len(items) == 0 {
		return nil, nil
	}

	created := make([]uploadsvc.Upload, 0, len(items))
	err := WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		for _, item := range items {
			record, err := insertUpload(ctx, tx, item)
			if err != nil {
				return err
			}
			created = append(created, record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertUpload(ctx context.Context, q queryRower, u uploadsvc.Upload) (uploadsvc.Upload, error) {
	row := q.QueryRow(ctx, `
INSERT INTO uploads (
	user_id, filename, original_name, media_kind,
	location_name, address, city, country, category, description,
	latitude, longitude,
	confidence, confidence_reason, has_error, error_type, error_message,
	frame_number, frame_timestamp,
	raw_response, created_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, NOW())
RETURNING `+uploadColumns,
		u.UserID, u.Filename, u.OriginalName, u.MediaKind,
		u.LocationName, u.Address, u.City, u.Country, u.Category, u.Description,
		u.Latitude, u.Longitude,
		u.Confidence, u.ConfidenceReason, u.HasError, u.ErrorType, u.ErrorMessage,
		u.FrameNumber, u.FrameTimestamp,
		u.RawResponse,
	)

	record, err := scanUpload(row)
	if err != nil {
		return uploadsvc.Upload{}, fmt.Errorf("insert upload: %w", err)
	}

	return record, nil
}

func (r *UploadRepo) GetByID(ctx context.Context, id string) (uploadsvc.Upload, error) {
	if r.pool == nil {
		return uploadsvc.Upload{}, fmt.Errorf("postgres pool is nil")
	}

	row := r.pool.QueryRow(ctx, `
SELECT `+uploadColumns+`
FROM uploads
WHERE id = $1
`, id)

	record, err := scanUpload(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uploadsvc.Upload{}, uploadsvc.ErrNotFound
		}
		return uploadsvc.Upload{}, fmt.Errorf("get upload: %w", err)
	}

	return record, nil
}

// ListByUser returns the user's uploads newest first plus the total count
// for pagination.
func (r *UploadRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]uploadsvc.Upload, int, error) {
	if r.pool == nil {
		return nil, 0, fmt.Errorf("postgres pool is nil")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `
SELECT COUNT(*) FROM uploads WHERE user_id = $1
`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count uploads: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+uploadColumns+`
FROM uploads
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3
`, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list uploads: %w", err)
	}
	defer rows.Close()

	items := make([]uploadsvc.Upload, 0)
	for rows.Next() {
		record, err := scanUpload(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan upload: %w", err)
		}
		items = append(items, record)
	}
	if rows.Err() != nil {
		return nil, 0, fmt.Errorf("iterate uploads: %w", rows.Err())
	}

	return items, total, nil
}

func (r *UploadRepo) Delete(ctx context.Context, id, userID string) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
DELETE FROM uploads
WHERE id = $1 AND user_id = $2
`, id, userID)
	if err != nil {
		return fmt.Errorf("delete upload: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return uploadsvc.ErrNotFound
	}

	return nil
}

// SetGuess writes the guess exactly once. The conditional update is the
// single-write guarantee: a second attempt matches no row.
func (r *UploadRepo) SetGuess(ctx context.Context, id string, guessLat, guessLng, distanceKM float64, points int) (uploadsvc.Upload, error) {
	if r.pool == nil {
		return uploadsvc.Upload{}, fmt.Errorf("postgres pool is nil")
	}

	row := r.pool.QueryRow(ctx, `
UPDATE uploads
SET guess_latitude = $2, guess_longitude = $3, distance_km = $4, points = $5
WHERE id = $1 AND guess_latitude IS NULL
RETURNING `+uploadColumns, id, guessLat, guessLng, distanceKM, points)

	record, err := scanUpload(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uploadsvc.Upload{}, uploadsvc.ErrAlreadyGuessed
		}
		return uploadsvc.Upload{}, fmt.Errorf("set guess: %w", err)
	}

	return record, nil
}

// AggregateLeaderboard rolls up guessed uploads per user.
func (r *UploadRepo) AggregateLeaderboard(ctx context.Context) ([]uploadsvc.LeaderboardRow, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT user_id,
       COALESCE(SUM(points), 0) AS total_points,
       COUNT(*) AS games_played,
       COALESCE(MAX(points), 0) AS best_score,
       AVG(distance_km) AS average_distance
FROM uploads
WHERE points IS NOT NULL
GROUP BY user_id
ORDER BY total_points DESC, user_id ASC
`)
	if err != nil {
		return nil, fmt.Errorf("aggregate leaderboard: %w", err)
	}
	defer rows.Close()

	results := make([]uploadsvc.LeaderboardRow, 0)
	for rows.Next() {
		var row uploadsvc.LeaderboardRow
		if err := rows.Scan(&row.UserID, &row.TotalPoints, &row.GamesPlayed, &row.BestScore, &row.AverageDistance); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		results = append(results, row)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate leaderboard rows: %w", rows.Err())
	}

	return results, nil
}
