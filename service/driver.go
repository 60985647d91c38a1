package service

import (
	"context"
	"errors"
	"lifeline/pkg/apperr"
	"lifeline/pkg/events"
	"lifeline/pkg/geocoder"
	"lifeline/pkg/logger"
	"lifeline/pkg/models"
	"lifeline/storage"
	"strconv"
	"sync"
	"time"
)

const (
	AddressUnavailable = "Address not available"
	AddressError       = "Error fetching address"

	msgLoginRetry  = "Login failed. Please try again."
	loginFailedFmt = "Login failed: "

	enrichTimeout = 10 * time.Second
)

// DriverService owns the driver session of one chat: login, the assignment
// poller, address enrichment, completion and logout.
type DriverService struct {
	chatID      int64
	api         DispatchAPI
	locator     Locator
	confirm     Confirmer
	view        DriverView
	geocoder    geocoder.Reverser
	tokens      storage.ITokenStorage
	completions storage.ICompletionStorage
	publisher   events.Publisher
	log         logger.ILogger
	timing      Timing

	mu   sync.Mutex
	sess *Session

	// renderMu keeps apply and the matching view update together so the
	// view never shows an older state after a newer one.
	renderMu sync.Mutex

	completing sync.Mutex
	enrichWG   sync.WaitGroup
}

func NewDriverService(chatID int64, deps Deps, locator Locator, confirm Confirmer, view DriverView) *DriverService {
	return &DriverService{
		chatID:      chatID,
		api:         deps.API,
		locator:     locator,
		confirm:     confirm,
		view:        view,
		geocoder:    deps.Geocoder,
		tokens:      deps.tokens(),
		completions: deps.completions(),
		publisher:   deps.publisher(),
		log:         deps.logger().With(logger.Int64("chat_id", chatID)),
		timing:      deps.Timing.withDefaults(),
	}
}

// Login authenticates, stores the token, shows the dashboard and starts
// polling. Any previous session of this chat is stopped first.
func (d *DriverService) Login(ctx context.Context, username, password string) (*models.Driver, error) {
	res, err := d.api.Login(ctx, username, password)
	if err != nil {
		if msg, ok := apperr.ServerMessage(err); ok && msg != "" {
			d.view.Alert(ctx, loginFailedFmt+msg)
		} else {
			d.log.Error("login request failed", logger.Error(err))
			d.view.Alert(ctx, msgLoginRetry)
		}
		return nil, err
	}

	sess := newSession(res.Driver, res.Token)
	if d.tokens != nil {
		if err := d.tokens.Save(ctx, d.chatID, res.Token); err != nil {
			d.log.Warning("failed to persist driver token", logger.Error(err))
		}
	}

	// The session is visible before the dashboard offers Logout, so a
	// Logout from here on always finds it.
	d.mu.Lock()
	old := d.sess
	d.sess = sess
	d.mu.Unlock()
	if old != nil {
		old.close()
	}
	d.publish(ctx, events.Event{Type: events.DriverLoggedIn, DriverID: res.Driver.DriverID})

	d.view.ShowDashboard(ctx, res.Driver)
	d.refreshStatus(ctx, sess)

	d.mu.Lock()
	if d.sess != sess {
		d.mu.Unlock()
		d.log.Info("login ended before polling started", logger.Int64("driver_id", res.Driver.DriverID))
		return nil, apperr.ErrLoginSuperseded
	}
	sess.setPoller(startPoller(context.WithoutCancel(ctx), d.timing.PollInterval, func(pctx context.Context) {
		d.pollOnce(pctx, sess)
	}))
	d.mu.Unlock()

	d.log.Info("driver logged in", logger.Int64("driver_id", res.Driver.DriverID))
	driver := res.Driver
	return &driver, nil
}

// Logout stops polling, forgets the session and the stored token and shows
// the logged-out view. Calling it twice is harmless.
func (d *DriverService) Logout(ctx context.Context) {
	sess := d.detach()
	if sess != nil {
		d.publish(ctx, events.Event{Type: events.DriverLoggedOut, DriverID: sess.driver.DriverID})
		d.log.Info("driver logged out", logger.Int64("driver_id", sess.driver.DriverID))
	}
	if d.tokens != nil {
		if err := d.tokens.Delete(ctx, d.chatID); err != nil {
			d.log.Warning("failed to delete driver token", logger.Error(err))
		}
	}
	d.view.ShowLoggedOut(ctx)
}

// Close stops the poller without touching the view. Used on shutdown.
func (d *DriverService) Close() {
	d.detach()
	d.enrichWG.Wait()
}

func (d *DriverService) detach() *Session {
	d.mu.Lock()
	sess := d.sess
	d.sess = nil
	d.mu.Unlock()
	if sess != nil {
		sess.close()
	}
	return sess
}

func (d *DriverService) current() *Session {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sess
}

// State returns a snapshot of the session.
func (d *DriverService) State() models.SessionSnapshot {
	sess := d.current()
	if sess == nil {
		return models.SessionSnapshot{State: models.DriverLoggedOut}
	}
	return sess.snapshot()
}

// PollNow runs one assignment poll outside the ticker. It joins a poll that
// is already in flight for the same epoch instead of issuing another.
func (d *DriverService) PollNow(ctx context.Context) error {
	sess := d.current()
	if sess == nil {
		return apperr.ErrNotLoggedIn
	}
	d.pollOnce(ctx, sess)
	return nil
}

// RefreshStatus re-reads the driver's server-side status.
func (d *DriverService) RefreshStatus(ctx context.Context) error {
	sess := d.current()
	if sess == nil {
		return apperr.ErrNotLoggedIn
	}
	d.refreshStatus(ctx, sess)
	return nil
}

func (d *DriverService) refreshStatus(ctx context.Context, sess *Session) {
	st, err := d.api.DriverStatus(ctx, sess.driver.DriverID)
	if err != nil {
		d.log.Warning("failed to fetch driver status", logger.Error(err))
		return
	}
	if d.current() != sess {
		return
	}
	d.view.ShowDriverStatus(ctx, *st)
}

type polled struct {
	ticket pollTicket
	poll   *models.AssignmentPoll
}

func (d *DriverService) pollOnce(ctx context.Context, sess *Session) {
	key := "assignment-" + strconv.FormatUint(sess.currentEpoch(), 10)
	v, err, _ := sess.flight.Do(key, func() (interface{}, error) {
		t := sess.issue()
		poll, err := d.api.Assignment(ctx, sess.driver.DriverID)
		return polled{ticket: t, poll: poll}, err
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		d.log.Warning("assignment poll failed", logger.Error(err))
		return
	}

	p := v.(polled)
	var next *models.Assignment
	if p.poll != nil && p.poll.HasAssignment {
		next = p.poll.Emergency
	}

	d.renderMu.Lock()
	defer d.renderMu.Unlock()

	prev, ok := sess.apply(p.ticket, next)
	if !ok {
		d.log.Debug("discarded stale assignment poll", logger.Uint64("seq", p.ticket.seq))
		return
	}

	if next == nil {
		d.view.ShowIdle(ctx)
		if prev != nil {
			d.publish(ctx, events.Event{Type: events.AssignmentCleared, DriverID: sess.driver.DriverID, DispatchID: prev.DispatchID})
		}
		return
	}

	d.view.ShowAssignment(ctx, *next)
	if prev == nil || prev.DispatchID != next.DispatchID {
		d.publish(ctx, events.Event{Type: events.AssignmentReceived, DriverID: sess.driver.DriverID, DispatchID: next.DispatchID})
		d.enrich(ctx, sess, *next)
	}
}

// enrich looks the assignment address up in the background. The result is
// dropped if the assignment changed in the meantime.
func (d *DriverService) enrich(ctx context.Context, sess *Session, a models.Assignment) {
	d.enrichWG.Go(func() {
		ctx, cancel := context.WithTimeout(ctx, enrichTimeout)
		defer cancel()

		text := AddressUnavailable
		if d.geocoder != nil {
			addr, err := d.geocoder.Reverse(ctx, a.Latitude.Float64(), a.Longitude.Float64())
			switch {
			case err != nil:
				d.log.Warning("reverse geocoding failed", logger.Int64("dispatch_id", a.DispatchID), logger.Error(err))
				text = AddressError
			case addr != "":
				text = addr
			}
		}

		if !sess.isCurrent(a.DispatchID) {
			return
		}
		d.view.ShowAddress(ctx, a.DispatchID, text)
	})
}

// WaitEnrichment blocks until every background address lookup has returned.
func (d *DriverService) WaitEnrichment() {
	d.enrichWG.Wait()
}

func (d *DriverService) publish(ctx context.Context, ev events.Event) {
	ev.ChatID = d.chatID
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	if err := d.publisher.Publish(ctx, ev); err != nil {
		d.log.Warning("failed to publish event", logger.String("type", string(ev.Type)), logger.Error(err))
	}
}
