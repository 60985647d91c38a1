package models

type Assignment struct {
	DispatchID    int64         `json:"dispatch_id"`
	RequestID     int64         `json:"request_id"`
	PatientName   string        `json:"patient_name"`
	ContactNumber string        `json:"contact_number"`
	EmergencyType EmergencyType `json:"emergency_type"`
	Latitude      Number        `json:"latitude"`
	Longitude     Number        `json:"longitude"`
	Notes         string        `json:"notes"`
	DistanceKm    *Number       `json:"distance_km"`
	EtaMin        *Number       `json:"eta_min"`
	PlateNumber   string        `json:"plate_number"`
	DriverName    string        `json:"driver_name"`
}

// AssignmentPoll is one answer of /driver_assignment/{id}.
type AssignmentPoll struct {
	HasAssignment bool        `json:"hasAssignment"`
	Emergency     *Assignment `json:"emergency"`
	Error         string      `json:"error"`
}
