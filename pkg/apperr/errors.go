// Package apperr holds the error taxonomy shared by the dispatch client,
// the flows and the chat front-end.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrBookingInProgress = errors.New("a booking is already being processed")
	ErrNotLoggedIn       = errors.New("driver is not logged in")
	ErrNoAssignment      = errors.New("no active assignment")
	ErrCompletionBusy    = errors.New("a completion is already being processed")
	ErrLoginSuperseded   = errors.New("session ended before login finished")
)

// ValidationError reports malformed user input. No network call has been made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

type LocationReason string

const (
	LocationDenied      LocationReason = "denied"
	LocationUnavailable LocationReason = "unavailable"
	LocationTimeout     LocationReason = "timeout"
	LocationUnsupported LocationReason = "unsupported"
)

// LocationError reports that no usable geolocation fix could be obtained.
type LocationError struct {
	Reason LocationReason
	Err    error
}

func (e *LocationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("location %s: %v", e.Reason, e.Err)
	}
	return "location " + string(e.Reason)
}

func (e *LocationError) Unwrap() error { return e.Err }

// TransportError is a network failure or an unreadable response.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServerError is a well-formed failure response. Message is shown verbatim.
type ServerError struct {
	Op      string
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsLocation(err error) bool {
	var l *LocationError
	return errors.As(err, &l)
}

func IsTransport(err error) bool {
	var t *TransportError
	return errors.As(err, &t)
}

// ServerMessage returns the server-supplied text when err carries one.
func ServerMessage(err error) (string, bool) {
	var s *ServerError
	if errors.As(err, &s) {
		return s.Message, true
	}
	return "", false
}
