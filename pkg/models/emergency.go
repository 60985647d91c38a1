package models

type EmergencyType string

const (
	EmergencyCardiac     EmergencyType = "cardiac"
	EmergencyAccident    EmergencyType = "accident"
	EmergencyRespiratory EmergencyType = "respiratory"
	EmergencyStroke      EmergencyType = "stroke"
	EmergencyOther       EmergencyType = "other"
)

var EmergencyTypes = []EmergencyType{
	EmergencyCardiac,
	EmergencyAccident,
	EmergencyRespiratory,
	EmergencyStroke,
	EmergencyOther,
}

var emergencyLabels = map[EmergencyType]string{
	EmergencyCardiac:     "Cardiac Arrest",
	EmergencyAccident:    "Accident",
	EmergencyRespiratory: "Respiratory Distress",
	EmergencyStroke:      "Stroke",
	EmergencyOther:       "Other",
}

// Label returns the human label, or the raw value for unknown types.
func (t EmergencyType) Label() string {
	if l, ok := emergencyLabels[t]; ok {
		return l
	}
	return string(t)
}

// BookingForm is the raw requester input before validation.
type BookingForm struct {
	PatientName   string
	ContactNumber string
	Notes         string
	EmergencyType EmergencyType
}

// EmergencyRequest is what gets sent to /book_ambulance.
type EmergencyRequest struct {
	PatientName   string        `json:"patientName"`
	ContactNumber string        `json:"contactNumber"`
	Notes         string        `json:"notes"`
	Lat           float64       `json:"lat"`
	Lon           float64       `json:"lon"`
	EmergencyType EmergencyType `json:"emergencyType"`
}

type DispatchResult struct {
	Success        bool    `json:"success"`
	AmbulancePlate string  `json:"ambulancePlate"`
	DriverName     string  `json:"driverName"`
	Distance       *Number `json:"distance"`
	ETA            *Number `json:"eta"`
	Error          string  `json:"error"`
}

type ActiveEmergency struct {
	RequestID     int64         `json:"request_id"`
	PatientName   string        `json:"patient_name"`
	EmergencyType EmergencyType `json:"emergency_type"`
	Latitude      Number        `json:"latitude"`
	Longitude     Number        `json:"longitude"`
	PlateNumber   string        `json:"plate_number"`
	DriverName    string        `json:"driver_name"`
	DistanceKm    *Number       `json:"distance_km"`
	EtaMin        *Number       `json:"eta_min"`
}

// DispatchMetrics is the rendered metrics panel of a successful booking.
type DispatchMetrics struct {
	Plate      string
	DriverName string
	Distance   string
	ETA        string
}
