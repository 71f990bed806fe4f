package folders

import "errors"

var (
	ErrNotFound   = errors.New("folder not found")
	ErrForbidden  = errors.New("folder belongs to another user")
	ErrValidation = errors.New("validation error")
)
