// Package events publishes emergency lifecycle events observed by the client.
package events

import (
	"context"
	"time"
)

type Type string

const (
	BookingDispatched  Type = "booking.dispatched"
	BookingFailed      Type = "booking.failed"
	DriverLoggedIn     Type = "driver.logged_in"
	DriverLoggedOut    Type = "driver.logged_out"
	AssignmentReceived Type = "assignment.received"
	AssignmentCleared  Type = "assignment.cleared"
	EmergencyCompleted Type = "emergency.completed"
)

type Event struct {
	Type       Type        `json:"type"`
	ChatID     int64       `json:"chat_id,omitempty"`
	DriverID   int64       `json:"driver_id,omitempty"`
	DispatchID int64       `json:"dispatch_id,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	At         time.Time   `json:"at"`
}

// BookingSummary is the payload of booking events. Patient details stay in
// the local journal.
type BookingSummary struct {
	ReceiptID     int64  `json:"receipt_id,omitempty"`
	EmergencyType string `json:"emergency_type"`
	Success       bool   `json:"success"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close()
}

// Noop drops every event. Used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close()                               {}
