package models

type Driver struct {
	DriverID    int64  `json:"driver_id"`
	Name        string `json:"name"`
	Username    string `json:"username"`
	AmbulanceID int64  `json:"ambulance_id"`
	PlateNumber string `json:"plate_number"`
}

type DriverStatus struct {
	Status      string `json:"status"`
	Name        string `json:"name"`
	PlateNumber string `json:"plate_number"`
}

type DriverState string

const (
	DriverLoggedOut DriverState = "logged_out"
	DriverIdle      DriverState = "idle"
	DriverOnMission DriverState = "on_mission"
)

// SessionSnapshot is a read-only copy of a driver session.
type SessionSnapshot struct {
	State      DriverState `json:"state"`
	Driver     *Driver     `json:"driver,omitempty"`
	Assignment *Assignment `json:"assignment,omitempty"`
}
