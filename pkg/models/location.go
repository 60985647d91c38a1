package models

import "time"

type Fix struct {
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Accuracy  float64   `json:"accuracy"`
	Timestamp time.Time `json:"timestamp"`
}

// LocateOptions mirrors the knobs a platform location provider offers.
// A zero Timeout means the provider default; MaximumAge of zero forbids cached fixes.
type LocateOptions struct {
	HighAccuracy bool
	Timeout      time.Duration
	MaximumAge   time.Duration
}
