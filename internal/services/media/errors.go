package media

import "errors"

var ErrValidation = errors.New("validation error")
