package enums

type ErrorType string

const (
	ErrorTypeNone          ErrorType = ""
	ErrorTypeNoCoordinates ErrorType = "NO_COORDINATES"
	ErrorTypeLowConfidence ErrorType = "LOW_CONFIDENCE"
	ErrorTypeAPIFailure    ErrorType = "API_FAILURE"
)

// Hard reports whether the error type invalidates the location guess.
// LOW_CONFIDENCE is advisory and keeps its coordinates.
func (e ErrorType) Hard() bool {
	return e == ErrorTypeNoCoordinates || e == ErrorTypeAPIFailure
}
