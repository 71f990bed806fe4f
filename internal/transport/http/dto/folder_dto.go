package dto

import "time"

type FolderRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type FolderResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	UploadCount int       `json:"uploadCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type FoldersListResponse struct {
	Folders []FolderResponse `json:"folders"`
}

type FolderDetailResponse struct {
	FolderResponse
	Uploads []UploadResponse `json:"uploads"`
}
