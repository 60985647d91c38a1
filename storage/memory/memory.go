// Package memory is an in-process IStorage for running without Postgres
// and for tests. Nothing survives a restart.
package memory

import (
	"context"
	"lifeline/pkg/models"
	"lifeline/storage"
	"sort"
	"sync"
	"time"
)

type Store struct {
	mu          sync.RWMutex
	now         func() time.Time
	tokens      map[int64]string
	bookings    []*models.BookingReceipt
	completions []*models.CompletionRecord
	addresses   map[string]cachedAddress
	nextID      int64
}

type cachedAddress struct {
	address   string
	expiresAt time.Time
}

func New() *Store {
	return &Store{
		now:       time.Now,
		tokens:    make(map[int64]string),
		addresses: make(map[string]cachedAddress),
	}
}

func (s *Store) Close() {}

func (s *Store) Token() storage.ITokenStorage           { return tokenRepo{s} }
func (s *Store) Booking() storage.IBookingStorage       { return bookingRepo{s} }
func (s *Store) Completion() storage.ICompletionStorage { return completionRepo{s} }
func (s *Store) Geocode() storage.IGeocodeStorage       { return geocodeRepo{s} }

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

type tokenRepo struct{ s *Store }

func (r tokenRepo) Save(_ context.Context, chatID int64, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.tokens[chatID] = token
	return nil
}

func (r tokenRepo) Get(_ context.Context, chatID int64) (string, bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.tokens[chatID]
	return t, ok, nil
}

func (r tokenRepo) Delete(_ context.Context, chatID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.tokens, chatID)
	return nil
}

func (r tokenRepo) Purge(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := int64(len(r.s.tokens))
	r.s.tokens = make(map[int64]string)
	return n, nil
}

type bookingRepo struct{ s *Store }

func (r bookingRepo) Create(_ context.Context, b *models.BookingReceipt) (*models.BookingReceipt, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *b
	cp.ID = r.s.id()
	cp.CreatedAt = r.s.now()
	r.s.bookings = append(r.s.bookings, &cp)
	b.ID, b.CreatedAt = cp.ID, cp.CreatedAt
	return b, nil
}

func (r bookingRepo) GetRecent(_ context.Context, limit int) ([]*models.BookingReceipt, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return newestBookings(r.s.bookings, limit, func(*models.BookingReceipt) bool { return true }), nil
}

func (r bookingRepo) GetByChat(_ context.Context, chatID int64, limit int) ([]*models.BookingReceipt, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return newestBookings(r.s.bookings, limit, func(b *models.BookingReceipt) bool { return b.ChatID == chatID }), nil
}

func newestBookings(all []*models.BookingReceipt, limit int, keep func(*models.BookingReceipt) bool) []*models.BookingReceipt {
	var out []*models.BookingReceipt
	for i := len(all) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if keep(all[i]) {
			cp := *all[i]
			out = append(out, &cp)
		}
	}
	return out
}

type completionRepo struct{ s *Store }

func (r completionRepo) Create(_ context.Context, c *models.CompletionRecord) (*models.CompletionRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *c
	cp.ID = r.s.id()
	cp.CreatedAt = r.s.now()
	r.s.completions = append(r.s.completions, &cp)
	c.ID, c.CreatedAt = cp.ID, cp.CreatedAt
	return c, nil
}

func (r completionRepo) GetByDriver(_ context.Context, driverID int64, limit int) ([]*models.CompletionRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*models.CompletionRecord
	for _, c := range r.s.completions {
		if c.DriverID == driverID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type geocodeRepo struct{ s *Store }

func (r geocodeRepo) GetAddress(_ context.Context, cell string) (string, bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.addresses[cell]
	if !ok || !r.s.now().Before(a.expiresAt) {
		return "", false, nil
	}
	return a.address, true, nil
}

func (r geocodeRepo) SetAddress(_ context.Context, cell, address string, ttl time.Duration) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.addresses[cell] = cachedAddress{address: address, expiresAt: r.s.now().Add(ttl)}
	return nil
}
