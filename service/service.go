package service

import (
	"context"
	"lifeline/pkg/events"
	"lifeline/pkg/geocoder"
	"lifeline/pkg/logger"
	"lifeline/pkg/models"
	"lifeline/storage"
	"time"
)

const (
	defaultPollInterval         = 5 * time.Second
	defaultCompletionFixTimeout = 10 * time.Second
	defaultBookingFixTimeout    = 60 * time.Second
)

// Timing groups every delay the flows depend on so tests can shrink them.
type Timing struct {
	PollInterval         time.Duration
	CompletionFixTimeout time.Duration
	BookingFixTimeout    time.Duration
	// Stages overrides the booking narrative. Nil means DefaultStages.
	Stages []Stage
}

func (t Timing) stages() []Stage {
	if t.Stages == nil {
		return DefaultStages
	}
	return t.Stages
}

func (t Timing) withDefaults() Timing {
	if t.PollInterval <= 0 {
		t.PollInterval = defaultPollInterval
	}
	if t.CompletionFixTimeout <= 0 {
		t.CompletionFixTimeout = defaultCompletionFixTimeout
	}
	if t.BookingFixTimeout <= 0 {
		t.BookingFixTimeout = defaultBookingFixTimeout
	}
	return t
}

// Deps is everything the flows share across chats.
type Deps struct {
	API       DispatchAPI
	Geocoder  geocoder.Reverser
	Storage   storage.IStorage
	Publisher events.Publisher
	Log       logger.ILogger
	Timing    Timing
}

func (d Deps) logger() logger.ILogger {
	if d.Log == nil {
		return logger.NewNop()
	}
	return d.Log
}

func (d Deps) publisher() events.Publisher {
	if d.Publisher == nil {
		return events.Noop{}
	}
	return d.Publisher
}

func (d Deps) bookings() storage.IBookingStorage {
	if d.Storage == nil {
		return nil
	}
	return d.Storage.Booking()
}

func (d Deps) completions() storage.ICompletionStorage {
	if d.Storage == nil {
		return nil
	}
	return d.Storage.Completion()
}

func (d Deps) tokens() storage.ITokenStorage {
	if d.Storage == nil {
		return nil
	}
	return d.Storage.Token()
}

type IServiceManager interface {
	Requester(chatID int64, locator Locator, view RequesterView) *RequesterService
	Driver(chatID int64, locator Locator, confirm Confirmer, view DriverView) *DriverService
	// DiscardStaleTokens drops tokens left over from a previous run.
	DiscardStaleTokens(ctx context.Context) (int64, error)
	ActiveEmergencies(ctx context.Context) ([]models.ActiveEmergency, error)
	RecentBookings(ctx context.Context, limit int) ([]*models.BookingReceipt, error)
}

type service struct {
	deps Deps
}

func New(deps Deps) IServiceManager {
	deps.Timing = deps.Timing.withDefaults()
	return &service{deps: deps}
}

func (s *service) Requester(chatID int64, locator Locator, view RequesterView) *RequesterService {
	return NewRequesterService(chatID, s.deps, locator, view)
}

func (s *service) Driver(chatID int64, locator Locator, confirm Confirmer, view DriverView) *DriverService {
	return NewDriverService(chatID, s.deps, locator, confirm, view)
}

func (s *service) DiscardStaleTokens(ctx context.Context) (int64, error) {
	tokens := s.deps.tokens()
	if tokens == nil {
		return 0, nil
	}
	n, err := tokens.Purge(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.deps.logger().Info("discarded stale driver tokens", logger.Int64("count", n))
	}
	return n, nil
}

func (s *service) ActiveEmergencies(ctx context.Context) ([]models.ActiveEmergency, error) {
	return s.deps.API.ActiveEmergencies(ctx)
}

func (s *service) RecentBookings(ctx context.Context, limit int) ([]*models.BookingReceipt, error) {
	bookings := s.deps.bookings()
	if bookings == nil {
		return nil, nil
	}
	return bookings.GetRecent(ctx, limit)
}
