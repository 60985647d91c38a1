package storage

import (
	"context"
	"lifeline/pkg/models"
	"time"
)

type IStorage interface {
	Token() ITokenStorage
	Booking() IBookingStorage
	Completion() ICompletionStorage
	Geocode() IGeocodeStorage
	Close()
}

// ITokenStorage keeps the opaque driver token per chat, the counterpart of
// the browser's local storage key.
type ITokenStorage interface {
	Save(ctx context.Context, chatID int64, token string) error
	Get(ctx context.Context, chatID int64) (string, bool, error)
	Delete(ctx context.Context, chatID int64) error
	// Purge drops every stored token and reports how many were removed.
	Purge(ctx context.Context) (int64, error)
}

type IBookingStorage interface {
	Create(ctx context.Context, receipt *models.BookingReceipt) (*models.BookingReceipt, error)
	GetRecent(ctx context.Context, limit int) ([]*models.BookingReceipt, error)
	GetByChat(ctx context.Context, chatID int64, limit int) ([]*models.BookingReceipt, error)
}

type ICompletionStorage interface {
	Create(ctx context.Context, record *models.CompletionRecord) (*models.CompletionRecord, error)
	GetByDriver(ctx context.Context, driverID int64, limit int) ([]*models.CompletionRecord, error)
}

type IGeocodeStorage interface {
	GetAddress(ctx context.Context, cell string) (string, bool, error)
	SetAddress(ctx context.Context, cell, address string, ttl time.Duration) error
}
