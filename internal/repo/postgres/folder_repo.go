package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	foldersvc "github.com/chloe472/Reely/internal/services/folders"
	uploadsvc "github.com/chloe472/Reely/internal/services/uploads"
)

type FolderRepo struct {
	pool *pgxpool.Pool
}

func NewFolderRepo(pool *pgxpool.Pool) *FolderRepo {
	return &FolderRepo{pool: pool}
}

const folderColumns = `
f.id, f.user_id, f.name, f.description,
(SELECT COUNT(*) FROM folder_uploads fu WHERE fu.folder_id = f.id) AS upload_count,
f.created_at, f.updated_at`

func scanFolder(row rowScanner) (foldersvc.Folder, error) {
	var f foldersvc.Folder
	err := row.Scan(&f.ID, &f.UserID, &f.Name, &f.Description, &f.UploadCount, &f.CreatedAt, &f.UpdatedAt)
	return f, err
}

func (r *FolderRepo) Create(ctx context.Context, userID, name, description string) (foldersvc.Folder, error) {
	if r.pool == nil {
		return foldersvc.Folder{}, fmt.Errorf("postgres pool is nil")
	}

	row := r.pool.QueryRow(ctx, `
INSERT INTO folders (user_id, name, description, created_at, updated_at)
VALUES ($1, $2, $3, NOW(), NOW())
RETURNING id, user_id, name, description, 0 AS upload_count, created_at, updated_at
`, userID, name, description)

	folder, err := scanFolder(row)
	if err != nil {
		return foldersvc.Folder{}, fmt.Errorf("insert folder: %w", err)
	}

	return folder, nil
}

func (r *FolderRepo) ListByUser(ctx context.Context, userID string) ([]foldersvc.Folder, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+folderColumns+`
FROM folders f
WHERE f.user_id = $1
ORDER BY f.updated_at DESC, f.id DESC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	defer rows.Close()

	items := make([]foldersvc.Folder, 0)
	for rows.Next() {
		folder, err := scanFolder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		items = append(items, folder)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate folders: %w", rows.Err())
	}

	return items, nil
}

func (r *FolderRepo) GetByID(ctx context.Context, id string) (foldersvc.Folder, error) {
	if r.pool == nil {
		return foldersvc.Folder{}, fmt.Errorf("postgres pool is nil")
	}

	row := r.pool.QueryRow(ctx, `
SELECT `+folderColumns+`
FROM folders f
WHERE f.id = $1
`, id)

	folder, err := scanFolder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return foldersvc.Folder{}, foldersvc.ErrNotFound
		}
		return foldersvc.Folder{}, fmt.Errorf("get folder: %w", err)
	}

	return folder, nil
}

func (r *FolderRepo) Update(ctx context.Context, id, name, description string) (foldersvc.Folder, error) {
	if r.pool == nil {
		return foldersvc.Folder{}, fmt.Errorf("postgres pool is nil")
	}

	row := r.pool.QueryRow(ctx, `
UPDATE folders f
SET name = $2, description = $3, updated_at = NOW()
WHERE f.id = $1
RETURNING `+folderColumns, id, name, description)

	folder, err := scanFolder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return foldersvc.Folder{}, foldersvc.ErrNotFound
		}
		return foldersvc.Folder{}, fmt.Errorf("update folder: %w", err)
	}

	return folder, nil
}

func (r *FolderRepo) Delete(ctx context.Context, id string) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
DELETE FROM folders
WHERE id = $1
`, id)
	if err != nil {
		return fmt.Errorf("delete folder: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return foldersvc.ErrNotFound
	}

	return nil
}

// AddUpload records membership idempotently and bumps the folder's
// updated_at in the same transaction.
func (r *FolderRepo) AddUpload(ctx context.Context, folderID, uploadID string) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	return WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
INSERT INTO folder_uploads (folder_id, upload_id, added_at)
VALUES ($1, $2, NOW())
ON CONFLICT (folder_id, upload_id) DO NOTHING
`, folderID, uploadID); err != nil {
			return fmt.Errorf("insert folder membership: %w", err)
		}

		if _, err := tx.Exec(ctx, `
UPDATE folders SET updated_at = NOW() WHERE id = $1
`, folderID); err != nil {
			return fmt.Errorf("touch folder: %w", err)
		}

		return nil
	})
}

func (r *FolderRepo) RemoveUpload(ctx context.Context, folderID, uploadID string) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	return WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
DELETE FROM folder_uploads
WHERE folder_id = $1 AND upload_id = $2
`, folderID, uploadID); err != nil {
			return fmt.Errorf("delete folder membership: %w", err)
		}

		if _, err := tx.Exec(ctx, `
UPDATE folders SET updated_at = NOW() WHERE id = $1
`, folderID); err != nil {
			return fmt.Errorf("touch folder: %w", err)
		}

		return nil
	})
}

// ListUploads returns the folder's uploads in the order they were added.
func (r *FolderRepo) ListUploads(ctx context.Context, folderID string) ([]uploadsvc.Upload, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+prefixedUploadColumns("u")+`
FROM folder_uploads fu
JOIN uploads u ON u.id = fu.upload_id
WHERE fu.folder_id = $1
ORDER BY fu.added_at ASC, u.id ASC
`, folderID)
	if err != nil {
		return nil, fmt.Errorf("list folder uploads: %w", err)
	}
	defer rows.Close()

	items := make([]uploadsvc.Upload, 0)
	for rows.Next() {
		record, err := scanUpload(rows)
		if err != nil {
			return nil, fmt.Errorf("scan folder upload: %w", err)
		}
		items = append(items, record)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate folder uploads: %w", rows.Err())
	}

	return items, nil
}
