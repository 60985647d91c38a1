package service

import (
	"context"
	"errors"
	"lifeline/pkg/apperr"
)

func asValidation(err error, target **apperr.ValidationError) bool {
	return errors.As(err, target)
}

// toLocationError normalizes whatever the locator returned.
func toLocationError(err error) *apperr.LocationError {
	var lerr *apperr.LocationError
	if errors.As(err, &lerr) {
		return lerr
	}
	reason := apperr.LocationUnavailable
	if errors.Is(err, context.DeadlineExceeded) {
		reason = apperr.LocationTimeout
	}
	return &apperr.LocationError{Reason: reason, Err: err}
}
