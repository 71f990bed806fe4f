package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	authsvc "github.com/chloe472/Reely/internal/services/auth"
	foldersvc "github.com/chloe472/Reely/internal/services/folders"
	uploadsvc "github.com/chloe472/Reely/internal/services/uploads"
	"github.com/chloe472/Reely/internal/transport/http/dto"
	httperrors "github.com/chloe472/Reely/internal/transport/http/errors"
)

type FolderHandler struct {
	service *foldersvc.Service
	fileURL func(string) string
}

func NewFolderHandler(service *foldersvc.Service, fileURL func(string) string) *FolderHandler {
	return &FolderHandler{service: service, fileURL: fileURL}
}

func (h *FolderHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.authed(w, r)
	if !ok {
		return
	}

	folders, err := h.service.List(r.Context(), identity.UserID)
	if err != nil {
		handleFolderError(w, err)
		return
	}

	items := make([]dto.FolderResponse, 0, len(folders))
	for _, folder := range folders {
		items = append(items, folderToResponse(folder))
	}

	httperrors.Write(w, http.StatusOK, dto.FoldersListResponse{Folders: items})
}

func (h *FolderHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.authed(w, r)
	if !ok {
		return
	}

	var req dto.FolderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	folder, err := h.service.Create(r.Context(), identity.UserID, req.Name, req.Description)
	if err != nil {
		handleFolderError(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, folderToResponse(folder))
}

func (h *FolderHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.authed(w, r)
	if !ok {
		return
	}

	folder, items, err := h.service.Get(r.Context(), identity.UserID, chi.URLParam(r, "id"))
	if err != nil {
		handleFolderError(w, err)
		return
	}

	uploads := make([]dto.UploadResponse, 0, len(items))
	for _, item := range items {
		uploads = append(uploads, uploadToResponse(item, h.fileURL))
	}

	httperrors.Write(w, http.StatusOK, dto.FolderDetailResponse{
		FolderResponse: folderToResponse(folder),
		Uploads:        uploads,
	})
}

func (h *FolderHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.authed(w, r)
	if !ok {
		return
	}

	var req dto.FolderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	folder, err := h.service.Update(r.Context(), identity.UserID, chi.URLParam(r, "id"), req.Name, req.Description)
	if err != nil {
		handleFolderError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, folderToResponse(folder))
}

func (h *FolderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.authed(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), identity.UserID, chi.URLParam(r, "id")); err != nil {
		handleFolderError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (h *FolderHandler) AddUpload(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.authed(w, r)
	if !ok {
		return
	}

	err := h.service.AddUpload(r.Context(), identity.UserID, chi.URLParam(r, "id"), chi.URLParam(r, "uploadId"))
	if err != nil {
		handleFolderError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, map[string]bool{"added": true})
}

func (h *FolderHandler) RemoveUpload(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.authed(w, r)
	if !ok {
		return
	}

	err := h.service.RemoveUpload(r.Context(), identity.UserID, chi.URLParam(r, "id"), chi.URLParam(r, "uploadId"))
	if err != nil {
		handleFolderError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, map[string]bool{"removed": true})
}

func (h *FolderHandler) authed(w http.ResponseWriter, r *http.Request) (authsvc.Identity, bool) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return authsvc.Identity{}, false
	}
	if h.service == nil {
		writeInternal(w, "FOLDERS_SERVICE_UNAVAILABLE", "folders service is unavailable")
		return authsvc.Identity{}, false
	}
	return identity, true
}

func folderToResponse(folder foldersvc.Folder) dto.FolderResponse {
	return dto.FolderResponse{
		ID:          folder.ID,
		Name:        folder.Name,
		Description: folder.Description,
		UploadCount: folder.UploadCount,
		CreatedAt:   folder.CreatedAt,
		UpdatedAt:   folder.UpdatedAt,
	}
}

func handleFolderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, foldersvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "folder name is required")
	case errors.Is(err, foldersvc.ErrNotFound):
		writeNotFound(w, "NOT_FOUND", "folder not found")
	case errors.Is(err, foldersvc.ErrForbidden):
		writeForbidden(w, "FORBIDDEN", "folder belongs to another user")
	case errors.Is(err, uploadsvc.ErrNotFound):
		writeNotFound(w, "NOT_FOUND", "upload not found")
	case errors.Is(err, uploadsvc.ErrForbidden):
		writeForbidden(w, "FORBIDDEN", "upload belongs to another user")
	default:
		writeInternal(w, "INTERNAL_ERROR", "folder operation failed")
	}
}
