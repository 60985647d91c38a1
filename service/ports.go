package service

import (
	"context"
	"lifeline/pkg/dispatch"
	"lifeline/pkg/models"
)

// DispatchAPI is the part of the dispatch server the flows talk to.
type DispatchAPI interface {
	Login(ctx context.Context, username, password string) (*dispatch.LoginResult, error)
	Book(ctx context.Context, req models.EmergencyRequest) (*models.DispatchResult, error)
	Assignment(ctx context.Context, driverID int64) (*models.AssignmentPoll, error)
	Complete(ctx context.Context, req dispatch.CompletionRequest) error
	DriverStatus(ctx context.Context, driverID int64) (*models.DriverStatus, error)
	ActiveEmergencies(ctx context.Context) ([]models.ActiveEmergency, error)
}

// Locator yields one geolocation fix. Failures should be *apperr.LocationError.
type Locator interface {
	Locate(ctx context.Context, opts models.LocateOptions) (models.Fix, error)
}

// Confirmer asks the user a yes/no question. An error counts as "no".
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

type RequesterView interface {
	Alert(ctx context.Context, msg string)
	// SetBusy disables (true) or re-enables (false) the submit control.
	SetBusy(ctx context.Context, busy bool)
	ShowStatus(ctx context.Context, st models.Status)
	ShowDispatch(ctx context.Context, m models.DispatchMetrics)
	ClearDispatch(ctx context.Context)
}

type DriverView interface {
	Alert(ctx context.Context, msg string)
	ShowDashboard(ctx context.Context, d models.Driver)
	ShowDriverStatus(ctx context.Context, st models.DriverStatus)
	// ShowAssignment renders details, marks the driver busy and enables completion.
	ShowAssignment(ctx context.Context, a models.Assignment)
	// ShowIdle renders the placeholder, marks the driver available and disables completion.
	ShowIdle(ctx context.Context)
	ShowAddress(ctx context.Context, dispatchID int64, address string)
	ShowLoggedOut(ctx context.Context)
}
