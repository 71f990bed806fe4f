package folders

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chloe472/Reely/internal/pkg/validate"
	uploadsvc "github.com/chloe472/Reely/internal/services/uploads"
)

type Store interface {
	Create(ctx context.Context, userID, name, description string) (Folder, error)
	ListByUser(ctx context.Context, userID string) ([]Folder, error)
	GetByID(ctx context.Context, id string) (Folder, error)
	Update(ctx context.Context, id, name, description string) (Folder, error)
	Delete(ctx context.Context, id string) error
	AddUpload(ctx context.Context, folderID, uploadID string) error
	RemoveUpload(ctx context.Context, folderID, uploadID string) error
	ListUploads(ctx context.Context, folderID string) ([]uploadsvc.Upload, error)
}

// UploadGetter resolves an upload with ownership checks applied, so a
// user cannot file someone else's upload into their folder.
type UploadGetter interface {
	Get(ctx context.Context, userID, id string) (uploadsvc.Upload, error)
}

type Service struct {
	store   Store
	uploads UploadGetter
	logger  *zap.Logger
}

func NewService(store Store, uploads UploadGetter, logger *zap.Logger) *Service {
	return &Service{
		store:   store,
		uploads: uploads,
		logger:  logger,
	}
}

func (s *Service) Create(ctx context.Context, userID, name, description string) (Folder, error) {
	if !validate.Required(name) {
		return Folder{}, ErrValidation
	}

	folder, err := s.store.Create(ctx, userID, name, description)
	if err != nil {
		return Folder{}, err
	}

	s.logger.Info("folder created",
		zap.String("folder_id", folder.ID),
		zap.String("user_id", userID))

	return folder, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Folder, error) {
	return s.store.ListByUser(ctx, userID)
}

// Get returns the folder and its uploads in the order they were added.
func (s *Service) Get(ctx context.Context, userID, id string) (Folder, []uploadsvc.Upload, error) {
	folder, err := s.owned(ctx, userID, id)
	if err != nil {
		return Folder{}, nil, err
	}

	items, err := s.store.ListUploads(ctx, id)
	if err != nil {
		return Folder{}, nil, err
	}

	return folder, items, nil
}

func (s *Service) Update(ctx context.Context, userID, id, name, description string) (Folder, error) {
	if !validate.Required(name) {
		return Folder{}, ErrValidation
	}

	if _, err := s.owned(ctx, userID, id); err != nil {
		return Folder{}, err
	}

	return s.store.Update(ctx, id, name, description)
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}

// AddUpload records membership. Re-adding an upload is a no-op.
func (s *Service) AddUpload(ctx context.Context, userID, folderID, uploadID string) error {
	if _, err := s.owned(ctx, userID, folderID); err != nil {
		return err
	}
	if _, err := s.uploads.Get(ctx, userID, uploadID); err != nil {
		return err
	}
	return s.store.AddUpload(ctx, folderID, uploadID)
}

func (s *Service) RemoveUpload(ctx context.Context, userID, folderID, uploadID string) error {
	if _, err := s.owned(ctx, userID, folderID); err != nil {
		return err
	}
	return s.store.RemoveUpload(ctx, folderID, uploadID)
}

func (s *Service) owned(ctx context.Context, userID, id string) (Folder, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Folder{}, ErrNotFound
	}

	folder, err := s.store.GetByID(ctx, id)
	if err != nil {
		return Folder{}, err
	}
	if folder.UserID != userID {
		return Folder{}, ErrForbidden
	}

	return folder, nil
}
