package domain

import (
	"errors"
	"fmt"
)

// Sentinel lookup errors returned by the plan session store.
var (
	ErrPlanNotFound     = errors.New("plan not found")
	ErrWaypointNotFound = errors.New("waypoint not found")
)

// ValidationError reports malformed operator input: an empty name, a missing
// coordinate, an empty export set, or an oversized one. It is always surfaced
// to the operator and never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError builds a ValidationError for a named field.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// GeometryError reports coordinates outside the WGS 84 ranges. It is caught
// at add/reposition time; points inside a collection are always in range, so
// route computation never sees one.
type GeometryError struct {
	Lat float64
	Lon float64
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("coordinates out of range: lat=%g (must be in [-90,90]), lon=%g (must be in [-180,180])", e.Lat, e.Lon)
}

// FetchError reports a failed image retrieval. It carries the request URL and
// the HTTP status so callers can name the offending resource.
type FetchError struct {
	URL        string
	StatusCode int
	Status     string
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Status)
}

func (e *FetchError) Unwrap() error { return e.Err }

// DecodeError reports a payload that could not be interpreted as an image.
type DecodeError struct {
	URL    string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %s", e.URL, e.Reason)
}
