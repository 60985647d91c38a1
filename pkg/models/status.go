package models

import "time"

type Tone string

const (
	ToneAlert   Tone = "alert"
	ToneWarn    Tone = "warn"
	ToneCaution Tone = "caution"
	ToneInfo    Tone = "info"
	ToneSuccess Tone = "success"
)

// Status is one line of the requester status display.
type Status struct {
	Message string
	Tone    Tone
}

type BookingReceipt struct {
	ID            int64         `json:"id"`
	ChatID        int64         `json:"chat_id"`
	PatientName   string        `json:"patient_name"`
	ContactNumber string        `json:"contact_number"`
	EmergencyType EmergencyType `json:"emergency_type"`
	Lat           float64       `json:"lat"`
	Lon           float64       `json:"lon"`
	Success       bool          `json:"success"`
	Plate         string        `json:"plate"`
	DriverName    string        `json:"driver_name"`
	DistanceKm    *float64      `json:"distance_km"`
	EtaMin        *float64      `json:"eta_min"`
	Error         string        `json:"error"`
	CreatedAt     time.Time     `json:"created_at"`
}

type CompletionRecord struct {
	ID           int64     `json:"id"`
	DriverID     int64     `json:"driver_id"`
	DispatchID   int64     `json:"dispatch_id"`
	WithLocation bool      `json:"with_location"`
	Lat          *float64  `json:"lat"`
	Lon          *float64  `json:"lon"`
	Success      bool      `json:"success"`
	Error        string    `json:"error"`
	CreatedAt    time.Time `json:"created_at"`
}
