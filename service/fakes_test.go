package service

import (
	"context"
	"lifeline/pkg/apperr"
	"lifeline/pkg/dispatch"
	"lifeline/pkg/events"
	"lifeline/pkg/models"
	"sync"
	"testing"
	"time"
)

type fakeAPI struct {
	mu sync.Mutex

	loginFn    func(username, password string) (*dispatch.LoginResult, error)
	bookFn     func(ctx context.Context, req models.EmergencyRequest) (*models.DispatchResult, error)
	assignment *models.Assignment
	pollErr    error
	completeFn func(req dispatch.CompletionRequest) error
	statusFn   func(ctx context.Context) (*models.DriverStatus, error)

	bookCalls     int
	pollCalls     int
	completeCalls []dispatch.CompletionRequest
}

func (f *fakeAPI) Login(_ context.Context, username, password string) (*dispatch.LoginResult, error) {
	if f.loginFn != nil {
		return f.loginFn(username, password)
	}
	return &dispatch.LoginResult{
		Driver: models.Driver{DriverID: 7, Name: "Ravi", Username: username, PlateNumber: "AMB-07"},
		Token:  "driver_7_1700000000",
	}, nil
}

func (f *fakeAPI) Book(ctx context.Context, req models.EmergencyRequest) (*models.DispatchResult, error) {
	f.mu.Lock()
	f.bookCalls++
	fn := f.bookFn
	f.mu.Unlock()
	return fn(ctx, req)
}

func (f *fakeAPI) Assignment(_ context.Context, _ int64) (*models.AssignmentPoll, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pollCalls++
	if f.pollErr != nil {
		return nil, f.pollErr
	}
	if f.assignment == nil {
		return &models.AssignmentPoll{HasAssignment: false}, nil
	}
	a := *f.assignment
	return &models.AssignmentPoll{HasAssignment: true, Emergency: &a}, nil
}

func (f *fakeAPI) Complete(_ context.Context, req dispatch.CompletionRequest) error {
	f.mu.Lock()
	f.completeCalls = append(f.completeCalls, req)
	fn := f.completeFn
	f.mu.Unlock()
	if fn != nil {
		return fn(req)
	}
	return nil
}

func (f *fakeAPI) DriverStatus(ctx context.Context, _ int64) (*models.DriverStatus, error) {
	if f.statusFn != nil {
		return f.statusFn(ctx)
	}
	return &models.DriverStatus{Status: "available", Name: "Ravi", PlateNumber: "AMB-07"}, nil
}

func (f *fakeAPI) ActiveEmergencies(context.Context) ([]models.ActiveEmergency, error) {
	return nil, nil
}

func (f *fakeAPI) setAssignment(a *models.Assignment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assignment = a
	f.pollErr = nil
}

func (f *fakeAPI) setPollErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pollErr = err
}

func (f *fakeAPI) polls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pollCalls
}

type fakePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *fakePublisher) Publish(_ context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *fakePublisher) Close() {}

func (p *fakePublisher) published() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.events...)
}

type fakeLocator struct {
	mu    sync.Mutex
	fix   models.Fix
	err   error
	calls []models.LocateOptions
}

func (l *fakeLocator) Locate(_ context.Context, opts models.LocateOptions) (models.Fix, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, opts)
	if l.err != nil {
		return models.Fix{}, l.err
	}
	return l.fix, nil
}

func (l *fakeLocator) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.calls)
}

// scriptedConfirmer answers prompts in order and records them.
type scriptedConfirmer struct {
	mu      sync.Mutex
	answers []bool
	prompts []string
}

func (c *scriptedConfirmer) Confirm(_ context.Context, prompt string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, prompt)
	if len(c.answers) == 0 {
		return false, context.DeadlineExceeded
	}
	a := c.answers[0]
	c.answers = c.answers[1:]
	return a, nil
}

type requesterView struct {
	mu       sync.Mutex
	alerts   []string
	busy     []bool
	statuses []models.Status
	metrics  []models.DispatchMetrics
	cleared  int
}

func (v *requesterView) Alert(_ context.Context, msg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.alerts = append(v.alerts, msg)
}

func (v *requesterView) SetBusy(_ context.Context, busy bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.busy = append(v.busy, busy)
}

func (v *requesterView) ShowStatus(_ context.Context, st models.Status) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.statuses = append(v.statuses, st)
}

func (v *requesterView) ShowDispatch(_ context.Context, m models.DispatchMetrics) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.metrics = append(v.metrics, m)
}

func (v *requesterView) ClearDispatch(context.Context) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cleared++
}

func (v *requesterView) statusCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.statuses)
}

func (v *requesterView) lastStatus() models.Status {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.statuses) == 0 {
		return models.Status{}
	}
	return v.statuses[len(v.statuses)-1]
}

type driverState struct {
	alerts      []string
	dashboards  int
	statuses    []models.DriverStatus
	indicator   string
	assignments []models.Assignment
	idles       int
	addresses   map[int64]string
	loggedOut   int
}

type driverView struct {
	mu sync.Mutex
	st driverState
}

func newDriverView() *driverView {
	return &driverView{st: driverState{addresses: make(map[int64]string)}}
}

func (v *driverView) Alert(_ context.Context, msg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.st.alerts = append(v.st.alerts, msg)
}

func (v *driverView) ShowDashboard(context.Context, models.Driver) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.st.dashboards++
}

func (v *driverView) ShowDriverStatus(_ context.Context, st models.DriverStatus) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.st.statuses = append(v.st.statuses, st)
}

func (v *driverView) ShowAssignment(_ context.Context, a models.Assignment) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.st.assignments = append(v.st.assignments, a)
	v.st.indicator = "busy"
}

func (v *driverView) ShowIdle(context.Context) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.st.idles++
	v.st.indicator = "available"
}

func (v *driverView) ShowAddress(_ context.Context, dispatchID int64, address string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.st.addresses[dispatchID] = address
}

func (v *driverView) ShowLoggedOut(context.Context) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.st.loggedOut++
	v.st.indicator = ""
}

func (v *driverView) snapshot() driverState {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := v.st
	out.alerts = append([]string(nil), v.st.alerts...)
	out.statuses = append([]models.DriverStatus(nil), v.st.statuses...)
	out.assignments = append([]models.Assignment(nil), v.st.assignments...)
	out.addresses = make(map[int64]string, len(v.st.addresses))
	for k, a := range v.st.addresses {
		out.addresses[k] = a
	}
	return out
}

type fakeGeocoder struct {
	mu    sync.Mutex
	addr  string
	err   error
	calls int
}

func (g *fakeGeocoder) Reverse(context.Context, float64, float64) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	return g.addr, g.err
}

func (g *fakeGeocoder) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func transportErr(op string) error {
	return &apperr.TransportError{Op: op, Err: context.DeadlineExceeded}
}
