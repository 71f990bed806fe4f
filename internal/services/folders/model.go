package folders

import "time"

type Folder struct {
	ID          string
	UserID      string
	Name        string
	Description string
	UploadCount int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
