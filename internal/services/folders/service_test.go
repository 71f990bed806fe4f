package folders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	uploadsvc "github.com/chloe472/Reely/internal/services/uploads"
)

type fakeStore struct {
	folders    map[string]Folder
	membership map[string]map[string]time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		folders:    map[string]Folder{},
		membership: map[string]map[string]time.Time{},
	}
}

func (f *fakeStore) Create(_ context.Context, userID, name, description string) (Folder, error) {
	folder := Folder{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        name,
		Description: description,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	f.folders[folder.ID] = folder
	return folder, nil
}

func (f *fakeStore) ListByUser(_ context.Context, userID string) ([]Folder, error) {
	var out []Folder
	for _, folder := range f.folders {
		if folder.UserID == userID {
			out = append(out, folder)
		}
	}
	return out, nil
}

func (f *fakeStore) GetByID(_ context.Context, id string) (Folder, error) {
	folder, ok := f.folders[id]
	if !ok {
		return Folder{}, ErrNotFound
	}
	folder.UploadCount = len(f.membership[id])
	return folder, nil
}

func (f *fakeStore) Update(_ context.Context, id, name, description string) (Folder, error) {
	folder, ok := f.folders[id]
	if !ok {
		return Folder{}, ErrNotFound
	}
	folder.Name = name
	folder.Description = description
	folder.UpdatedAt = time.Now()
	f.folders[id] = folder
	return folder, nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	if _, ok := f.folders[id]; !ok {
		return ErrNotFound
	}
	delete(f.folders, id)
	delete(f.membership, id)
	return nil
}

func (f *fakeStore) AddUpload(_ context.Context, folderID, uploadID string) error {
	if f.membership[folderID] == nil {
		f.membership[folderID] = map[string]time.Time{}
	}
	if _, exists := f.membership[folderID][uploadID]; !exists {
		f.membership[folderID][uploadID] = time.Now()
	}
	return nil
}

func (f *fakeStore) RemoveUpload(_ context.Context, folderID, uploadID string) error {
	delete(f.membership[folderID], uploadID)
	return nil
}

func (f *fakeStore) ListUploads(_ context.Context, folderID string) ([]uploadsvc.Upload, error) {
	items := make([]uploadsvc.Upload, 0, len(f.membership[folderID]))
	for uploadID := range f.membership[folderID] {
		items = append(items, uploadsvc.Upload{ID: uploadID})
	}
	return items, nil
}

type fakeUploads struct {
	owned map[string]string // upload id -> user id
}

func (f *fakeUploads) Get(_ context.Context, userID, id string) (uploadsvc.Upload, error) {
	owner, ok := f.owned[id]
	if !ok {
		return uploadsvc.Upload{}, uploadsvc.ErrNotFound
	}
	if owner != userID {
		return uploadsvc.Upload{}, uploadsvc.ErrForbidden
	}
	return uploadsvc.Upload{ID: id, UserID: owner}, nil
}

func newTestService(store *fakeStore, uploads *fakeUploads) *Service {
	if uploads == nil {
		uploads = &fakeUploads{owned: map[string]string{}}
	}
	return NewService(store, uploads, zap.NewNop())
}

func TestCreateFolder(t *testing.T) {
	store := newFakeStore()
	service := newTestService(store, nil)

	folder, err := service.Create(context.Background(), "user-1", "Italy 2026", "summer trip")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if folder.Name != "Italy 2026" || folder.UserID != "user-1" {
		t.Errorf("folder = %+v", folder)
	}

	if _, err := service.Create(context.Background(), "user-1", "   ", ""); !errors.Is(err, ErrValidation) {
		t.Errorf("blank name error = %v, want ErrValidation", err)
	}
}

func TestFolderOwnership(t *testing.T) {
	store := newFakeStore()
	service := newTestService(store, nil)

	folder, err := service.Create(context.Background(), "user-1", "Mine", "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, _, err := service.Get(context.Background(), "user-2", folder.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("Get() by stranger = %v, want ErrForbidden", err)
	}
	if err := service.Delete(context.Background(), "user-2", folder.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("Delete() by stranger = %v, want ErrForbidden", err)
	}
	if _, _, err := service.Get(context.Background(), "user-1", uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() missing = %v, want ErrNotFound", err)
	}
	if _, _, err := service.Get(context.Background(), "user-1", "not-a-uuid"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() bad id = %v, want ErrNotFound", err)
	}
}

func TestAddUploadIdempotent(t *testing.T) {
	store := newFakeStore()
	uploads := &fakeUploads{owned: map[string]string{"upload-1": "user-1"}}
	service := newTestService(store, uploads)

	folder, err := service.Create(context.Background(), "user-1", "Trips", "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := service.AddUpload(context.Background(), "user-1", folder.ID, "upload-1"); err != nil {
			t.Fatalf("AddUpload() attempt %d error = %v", i+1, err)
		}
	}

	_, items, err := service.Get(context.Background(), "user-1", folder.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(items) != 1 {
		t.Errorf("folder holds %d uploads, want 1", len(items))
	}
}

func TestAddUploadForeignUpload(t *testing.T) {
	store := newFakeStore()
	uploads := &fakeUploads{owned: map[string]string{"upload-x": "user-2"}}
	service := newTestService(store, uploads)

	folder, err := service.Create(context.Background(), "user-1", "Trips", "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := service.AddUpload(context.Background(), "user-1", folder.ID, "upload-x"); !errors.Is(err, uploadsvc.ErrForbidden) {
		t.Errorf("AddUpload() foreign upload = %v, want uploads ErrForbidden", err)
	}
}

func TestRemoveUpload(t *testing.T) {
	store := newFakeStore()
	uploads := &fakeUploads{owned: map[string]string{"upload-1": "user-1"}}
	service := newTestService(store, uploads)

	folder, err := service.Create(context.Background(), "user-1", "Trips", "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := service.AddUpload(context.Background(), "user-1", folder.ID, "upload-1"); err != nil {
		t.Fatalf("AddUpload() error = %v", err)
	}

	if err := service.RemoveUpload(context.Background(), "user-1", folder.ID, "upload-1"); err != nil {
		t.Fatalf("RemoveUpload() error = %v", err)
	}

	_, items, err := service.Get(context.Background(), "user-1", folder.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(items) != 0 {
		t.Errorf("folder still holds %d uploads", len(items))
	}
}

func TestUpdateFolder(t *testing.T) {
	store := newFakeStore()
	service := newTestService(store, nil)

	folder, err := service.Create(context.Background(), "user-1", "Old", "old description")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	updated, err := service.Update(context.Background(), "user-1", folder.ID, "New", "new description")
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Name != "New" || updated.Description != "new description" {
		t.Errorf("updated = %+v", updated)
	}

	if _, err := service.Update(context.Background(), "user-1", folder.ID, "", ""); !errors.Is(err, ErrValidation) {
		t.Errorf("Update() blank name = %v, want ErrValidation", err)
	}
}
