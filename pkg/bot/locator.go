package bot

import (
	"context"
	"errors"
	"lifeline/pkg/apperr"
	"lifeline/pkg/models"
	"sync"
	"time"

	tele "gopkg.in/telebot.v3"
)

const (
	btnShareLocation  = "📍 Share Location"
	btnCancelLocation = "❌ Cancel"

	defaultLocateTimeout = 60 * time.Second
)

var errLocationPending = errors.New("another location request is pending")

type locResult struct {
	fix models.Fix
	err error
}

// chatLocator turns Telegram location sharing into a one-shot geolocation
// provider for one chat.
type chatLocator struct {
	send   sender
	chatID int64
	now    func() time.Time

	mu      sync.Mutex
	waiting chan locResult
	last    *models.Fix
}

func newChatLocator(send sender, chatID int64) *chatLocator {
	return &chatLocator{send: send, chatID: chatID, now: time.Now}
}

func (l *chatLocator) Locate(ctx context.Context, opts models.LocateOptions) (models.Fix, error) {
	l.mu.Lock()
	if opts.MaximumAge > 0 && l.last != nil && l.now().Sub(l.last.Timestamp) <= opts.MaximumAge {
		fix := *l.last
		l.mu.Unlock()
		return fix, nil
	}
	if l.waiting != nil {
		l.mu.Unlock()
		return models.Fix{}, &apperr.LocationError{Reason: apperr.LocationUnavailable, Err: errLocationPending}
	}
	ch := make(chan locResult, 1)
	l.waiting = ch
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		if l.waiting == ch {
			l.waiting = nil
		}
		l.mu.Unlock()
	}()

	prompt := "📍 Please share your current location."
	if opts.HighAccuracy {
		prompt = "📍 Please share your precise current location."
	}
	menu := &tele.ReplyMarkup{ResizeKeyboard: true, OneTimeKeyboard: true}
	menu.Reply(
		menu.Row(menu.Location(btnShareLocation)),
		menu.Row(menu.Text(btnCancelLocation)),
	)
	if _, err := l.send.Send(tele.ChatID(l.chatID), prompt, menu); err != nil {
		return models.Fix{}, &apperr.LocationError{Reason: apperr.LocationUnsupported, Err: err}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultLocateTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case r := <-ch:
		return r.fix, r.err
	case <-timer.C:
		return models.Fix{}, &apperr.LocationError{Reason: apperr.LocationTimeout}
	case <-ctx.Done():
		return models.Fix{}, &apperr.LocationError{Reason: apperr.LocationUnavailable, Err: ctx.Err()}
	}
}

// deliver records a shared location and hands it to a pending Locate.
// It reports whether someone was waiting for it.
func (l *chatLocator) deliver(fix models.Fix) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.last = &fix
	return l.resolve(locResult{fix: fix})
}

// deny fails a pending Locate as if permission had been refused.
func (l *chatLocator) deny() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.resolve(locResult{err: &apperr.LocationError{Reason: apperr.LocationDenied}})
}

func (l *chatLocator) pending() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.waiting != nil
}

// resolve must be called with mu held.
func (l *chatLocator) resolve(r locResult) bool {
	if l.waiting == nil {
		return false
	}
	l.waiting <- r
	l.waiting = nil
	return true
}

func fixFromMessage(m *tele.Message) models.Fix {
	fix := models.Fix{
		Lat:       float64(m.Location.Lat),
		Lon:       float64(m.Location.Lng),
		Timestamp: m.Time(),
	}
	if m.Location.HorizontalAccuracy != nil {
		fix.Accuracy = float64(*m.Location.HorizontalAccuracy)
	}
	return fix
}
