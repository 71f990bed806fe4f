package uploads

import "errors"

var (
	ErrNotFound            = errors.New("upload not found")
	ErrForbidden           = errors.New("upload belongs to another user")
	ErrValidation          = errors.New("validation error")
	ErrAlreadyGuessed      = errors.New("guess already set")
	ErrNoActualCoordinates = errors.New("upload has no actual coordinates")
	ErrRateLimited         = errors.New("upload rate limit exceeded")
	ErrAnalysisFailed      = errors.New("image analysis failed")
	ErrVideoProcessing     = errors.New("video processing failed")
)
