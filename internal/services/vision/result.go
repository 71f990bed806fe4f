package vision

import (
	"encoding/json"

	"github.com/chloe472/Reely/internal/domain/enums"
)

// Result is the outcome of one image analysis. It is always returned, never
// an error: transport and parse failures come back as ErrorTypeAPIFailure so
// callers branch on ErrorType instead of catching exceptions at every site.
type Result struct {
	LocationName     string
	Latitude         *float64
	Longitude        *float64
	Address          string
	City             string
	Country          string
	Description      string
	Category         string
	Confidence       enums.Confidence
	ConfidenceReason string
	AdditionalInfo   string

	ErrorType    enums.ErrorType
	ErrorMessage string

	// Raw is the model's parsed JSON answer, retained verbatim for audit.
	Raw json.RawMessage
}

// HasCoordinates reports whether the result carries a usable coordinate pair.
func (r Result) HasCoordinates() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// HardError reports whether the result is unusable as a location guess.
// LOW_CONFIDENCE is advisory: coordinates are kept and the caller decides.
func (r Result) HardError() bool {
	return r.ErrorType.Hard()
}

func (r Result) Coordinates() (lat, lng float64, ok bool) {
	if !r.HasCoordinates() {
		return 0, 0, false
	}
	return *r.Latitude, *r.Longitude, true
}
