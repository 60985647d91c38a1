package service

import (
	"context"
	"lifeline/pkg/apperr"
	"lifeline/pkg/dispatch"
	"lifeline/pkg/events"
	"lifeline/pkg/logger"
	"lifeline/pkg/models"
	"time"
)

type CompletionOutcome int

const (
	// CompletionSkipped means nothing was sent: no assignment, a declined
	// first prompt or another completion already running.
	CompletionSkipped CompletionOutcome = iota
	// CompletionAborted means the fix failed and the fallback was declined.
	CompletionAborted
	CompletionWithLocation
	CompletionWithoutLocation
	// CompletionRejected means the server answered with success=false.
	CompletionRejected
	// CompletionFailed means the request never got a readable answer.
	CompletionFailed
)

func (o CompletionOutcome) String() string {
	switch o {
	case CompletionSkipped:
		return "skipped"
	case CompletionAborted:
		return "aborted"
	case CompletionWithLocation:
		return "completed_with_location"
	case CompletionWithoutLocation:
		return "completed_without_location"
	case CompletionRejected:
		return "rejected"
	case CompletionFailed:
		return "failed"
	}
	return "unknown"
}

const (
	PromptComplete   = "Mark this emergency as completed and update your current location?"
	PromptNoLocation = "Unable to get your location. Complete without updating ambulance location?"

	msgCompletedWithLocation    = "Emergency marked as completed! Your location has been updated."
	msgCompletedWithoutLocation = "Emergency marked as completed (location not updated)."
	msgCompletionFailed         = "Error completing emergency. Please try again."
	completionErrorPrefix       = "Error: "
)

// Complete runs the completion handshake for the current assignment. It
// asks for confirmation, tries a fresh high-accuracy fix and, if that fails,
// offers to complete without a location. On success the assignment is
// dropped and an immediate poll refreshes the view.
func (d *DriverService) Complete(ctx context.Context) (CompletionOutcome, error) {
	if !d.completing.TryLock() {
		return CompletionSkipped, apperr.ErrCompletionBusy
	}
	defer d.completing.Unlock()

	sess := d.current()
	if sess == nil {
		return CompletionSkipped, apperr.ErrNotLoggedIn
	}
	a := sess.Assignment()
	if a == nil {
		return CompletionSkipped, apperr.ErrNoAssignment
	}

	if !d.ask(ctx, PromptComplete) {
		return CompletionSkipped, nil
	}

	req := dispatch.CompletionRequest{
		DriverID:   sess.driver.DriverID,
		DispatchID: a.DispatchID,
	}
	fix, err := d.locator.Locate(ctx, models.LocateOptions{
		HighAccuracy: true,
		Timeout:      d.timing.CompletionFixTimeout,
	})
	if err == nil {
		req.CurrentLat = &fix.Lat
		req.CurrentLon = &fix.Lon
	} else {
		d.log.Warning("no fix for completion", logger.Int64("dispatch_id", a.DispatchID), logger.Error(toLocationError(err)))
		if !d.ask(ctx, PromptNoLocation) {
			return CompletionAborted, nil
		}
	}
	withLocation := req.CurrentLat != nil

	err = d.api.Complete(ctx, req)
	d.record(ctx, req, err)
	if err != nil {
		if msg, ok := apperr.ServerMessage(err); ok {
			d.view.Alert(ctx, completionErrorPrefix+msg)
			return CompletionRejected, err
		}
		d.log.Error("completion request failed", logger.Int64("dispatch_id", a.DispatchID), logger.Error(err))
		d.view.Alert(ctx, msgCompletionFailed)
		return CompletionFailed, err
	}

	sess.finish(a.DispatchID)
	outcome := CompletionWithoutLocation
	msg := msgCompletedWithoutLocation
	if withLocation {
		outcome = CompletionWithLocation
		msg = msgCompletedWithLocation
	}
	d.view.Alert(ctx, msg)
	d.publish(ctx, events.Event{
		Type:       events.EmergencyCompleted,
		DriverID:   req.DriverID,
		DispatchID: req.DispatchID,
		Data:       map[string]bool{"with_location": withLocation},
	})
	d.log.Info("emergency completed", logger.Int64("dispatch_id", a.DispatchID), logger.Bool("with_location", withLocation))

	d.pollOnce(ctx, sess)
	return outcome, nil
}

func (d *DriverService) ask(ctx context.Context, prompt string) bool {
	ok, err := d.confirm.Confirm(ctx, prompt)
	if err != nil {
		d.log.Debug("confirmation not answered", logger.Error(err))
		return false
	}
	return ok
}

func (d *DriverService) record(ctx context.Context, req dispatch.CompletionRequest, err error) {
	if d.completions == nil {
		return
	}
	rec := &models.CompletionRecord{
		DriverID:     req.DriverID,
		DispatchID:   req.DispatchID,
		WithLocation: req.CurrentLat != nil,
		Lat:          req.CurrentLat,
		Lon:          req.CurrentLon,
		Success:      err == nil,
		CreatedAt:    time.Now(),
	}
	if err != nil {
		rec.Error = err.Error()
	}
	if _, jerr := d.completions.Create(ctx, rec); jerr != nil {
		d.log.Warning("failed to journal completion", logger.Error(jerr))
	}
}
