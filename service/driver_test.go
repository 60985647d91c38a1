package service

import (
	"context"
	"errors"
	"lifeline/pkg/apperr"
	"lifeline/pkg/dispatch"
	"lifeline/pkg/models"
	"lifeline/storage/memory"
	"testing"
	"time"
)

type driverFixture struct {
	api     *fakeAPI
	loc     *fakeLocator
	confirm *scriptedConfirmer
	view    *driverView
	geo     *fakeGeocoder
	store   *memory.Store
	svc     *DriverService
}

// newDriverFixture uses a long poll interval so only the initial poll and
// explicit PollNow calls hit the fake server.
func newDriverFixture(t *testing.T) *driverFixture {
	t.Helper()
	f := &driverFixture{
		api:     &fakeAPI{},
		loc:     &fakeLocator{fix: models.Fix{Lat: 12.97, Lon: 77.59}},
		confirm: &scriptedConfirmer{},
		view:    newDriverView(),
		geo:     &fakeGeocoder{addr: "MG Road, Bengaluru"},
		store:   memory.New(),
	}
	deps := Deps{
		API:      f.api,
		Geocoder: f.geo,
		Storage:  f.store,
		Timing:   Timing{PollInterval: time.Hour},
	}
	f.svc = NewDriverService(99, deps, f.loc, f.confirm, f.view)
	t.Cleanup(f.svc.Close)
	return f
}

func (f *driverFixture) login(t *testing.T) {
	t.Helper()
	if _, err := f.svc.Login(context.Background(), "ravi", "secret"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	waitFor(t, "initial poll", func() bool { return f.view.snapshot().idles+len(f.view.snapshot().assignments) > 0 })
}

func assignment(id int64) *models.Assignment {
	return &models.Assignment{
		DispatchID:    id,
		RequestID:     id + 100,
		PatientName:   "John Doe",
		EmergencyType: models.EmergencyCardiac,
		Latitude:      12.9716,
		Longitude:     77.5946,
	}
}

func TestLoginStoresTokenAndShowsDashboard(t *testing.T) {
	f := newDriverFixture(t)
	f.login(t)

	st := f.view.snapshot()
	if st.dashboards != 1 || len(st.statuses) != 1 {
		t.Errorf("dashboards=%d statuses=%d", st.dashboards, len(st.statuses))
	}
	tok, ok, _ := f.store.Token().Get(context.Background(), 99)
	if !ok || tok != "driver_7_1700000000" {
		t.Errorf("token = %q, %v", tok, ok)
	}
	if got := f.svc.State().State; got != models.DriverIdle {
		t.Errorf("state = %s", got)
	}
}

func TestLoginFailureMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "rejected", err: &apperr.ServerError{Op: "driver_login", Message: "Invalid credentials"}, want: "Login failed: Invalid credentials"},
		{name: "unreachable", err: transportErr("driver_login"), want: "Login failed. Please try again."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newDriverFixture(t)
			f.api.loginFn = func(string, string) (*dispatch.LoginResult, error) { return nil, tt.err }

			if _, err := f.svc.Login(context.Background(), "ravi", "bad"); err == nil {
				t.Fatal("expected error")
			}
			st := f.view.snapshot()
			if len(st.alerts) != 1 || st.alerts[0] != tt.want {
				t.Errorf("alerts = %v, want %q", st.alerts, tt.want)
			}
			if f.svc.State().State != models.DriverLoggedOut {
				t.Error("session created on failed login")
			}
		})
	}
}

func TestPollSequence(t *testing.T) {
	f := newDriverFixture(t)
	f.login(t)
	ctx := context.Background()

	if got := f.view.snapshot().indicator; got != "available" {
		t.Fatalf("indicator after empty poll = %q", got)
	}

	f.api.setAssignment(assignment(1))
	if err := f.svc.PollNow(ctx); err != nil {
		t.Fatal(err)
	}
	if got := f.view.snapshot().indicator; got != "busy" {
		t.Fatalf("indicator with assignment = %q", got)
	}
	if got := f.svc.State(); got.State != models.DriverOnMission || got.Assignment.DispatchID != 1 {
		t.Fatalf("state = %+v", got)
	}

	f.api.setAssignment(nil)
	f.svc.PollNow(ctx)
	if got := f.view.snapshot().indicator; got != "available" {
		t.Fatalf("indicator after clear = %q", got)
	}
	if f.svc.State().State != models.DriverIdle {
		t.Fatal("state should be idle")
	}
}

func TestPollFailureKeepsState(t *testing.T) {
	f := newDriverFixture(t)
	f.login(t)
	ctx := context.Background()

	f.api.setAssignment(assignment(3))
	f.svc.PollNow(ctx)

	f.api.setPollErr(&apperr.ServerError{Op: "driver_assignment", Message: "database error"})
	f.svc.PollNow(ctx)

	got := f.svc.State()
	if got.State != models.DriverOnMission || got.Assignment.DispatchID != 3 {
		t.Errorf("state after failed poll = %+v", got)
	}
	if len(f.view.snapshot().alerts) != 0 {
		t.Error("poll failures must not alert")
	}
}

func TestEnrichment(t *testing.T) {
	tests := []struct {
		name string
		addr string
		err  error
		want string
	}{
		{name: "resolved", addr: "MG Road, Bengaluru", want: "MG Road, Bengaluru"},
		{name: "empty", addr: "", want: AddressUnavailable},
		{name: "failed", err: errors.New("boom"), want: AddressError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newDriverFixture(t)
			f.geo.addr, f.geo.err = tt.addr, tt.err
			f.login(t)

			f.api.setAssignment(assignment(5))
			f.svc.PollNow(context.Background())
			f.svc.PollNow(context.Background())
			f.svc.WaitEnrichment()

			if got := f.view.snapshot().addresses[5]; got != tt.want {
				t.Errorf("address = %q, want %q", got, tt.want)
			}
			if f.geo.count() != 1 {
				t.Errorf("geocoder called %d times for one dispatch", f.geo.count())
			}
		})
	}
}

func TestCompleteWithLocation(t *testing.T) {
	f := newDriverFixture(t)
	f.login(t)
	ctx := context.Background()

	f.api.setAssignment(assignment(8))
	f.svc.PollNow(ctx)

	f.confirm.answers = []bool{true}
	f.api.completeFn = func(dispatch.CompletionRequest) error {
		f.api.setAssignment(nil)
		return nil
	}

	outcome, err := f.svc.Complete(ctx)
	if err != nil || outcome != CompletionWithLocation {
		t.Fatalf("Complete() = %s, %v", outcome, err)
	}

	req := f.api.completeCalls[0]
	if req.DispatchID != 8 || req.DriverID != 7 || req.CurrentLat == nil || *req.CurrentLat != 12.97 {
		t.Errorf("completion request = %+v", req)
	}
	if opts := f.loc.calls[0]; !opts.HighAccuracy || opts.Timeout != 10*time.Second || opts.MaximumAge != 0 {
		t.Errorf("locate options = %+v", opts)
	}

	st := f.view.snapshot()
	if st.alerts[len(st.alerts)-1] != "Emergency marked as completed! Your location has been updated." {
		t.Errorf("alerts = %v", st.alerts)
	}
	if st.indicator != "available" || f.svc.State().State != models.DriverIdle {
		t.Errorf("indicator=%q state=%s", st.indicator, f.svc.State().State)
	}

	recs, _ := f.store.Completion().GetByDriver(ctx, 7, 10)
	if len(recs) != 1 || !recs[0].WithLocation || !recs[0].Success {
		t.Errorf("journal = %+v", recs)
	}
}

func TestCompleteFallbacks(t *testing.T) {
	tests := []struct {
		name        string
		answers     []bool
		locErr      error
		completeErr error
		want        CompletionOutcome
		wantCalls   int
		wantAlert   string
		wantPrompts int
	}{
		{
			name:        "first prompt declined",
			answers:     []bool{false},
			want:        CompletionSkipped,
			wantPrompts: 1,
		},
		{
			name:        "no fix and fallback accepted",
			answers:     []bool{true, true},
			locErr:      &apperr.LocationError{Reason: apperr.LocationTimeout},
			want:        CompletionWithoutLocation,
			wantCalls:   1,
			wantAlert:   "Emergency marked as completed (location not updated).",
			wantPrompts: 2,
		},
		{
			name:        "no fix and fallback declined",
			answers:     []bool{true, false},
			locErr:      &apperr.LocationError{Reason: apperr.LocationDenied},
			want:        CompletionAborted,
			wantPrompts: 2,
		},
		{
			name:        "server rejects",
			answers:     []bool{true},
			completeErr: &apperr.ServerError{Op: "complete_emergency", Message: "Dispatch not found"},
			want:        CompletionRejected,
			wantCalls:   1,
			wantAlert:   "Error: Dispatch not found",
			wantPrompts: 1,
		},
		{
			name:        "transport failure is not turned into the fallback",
			answers:     []bool{true},
			completeErr: transportErr("complete_emergency"),
			want:        CompletionFailed,
			wantCalls:   1,
			wantAlert:   "Error completing emergency. Please try again.",
			wantPrompts: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newDriverFixture(t)
			f.login(t)
			ctx := context.Background()

			f.api.setAssignment(assignment(8))
			f.svc.PollNow(ctx)

			f.confirm.answers = tt.answers
			f.loc.err = tt.locErr
			f.api.completeFn = func(dispatch.CompletionRequest) error { return tt.completeErr }

			outcome, _ := f.svc.Complete(ctx)
			if outcome != tt.want {
				t.Fatalf("outcome = %s, want %s", outcome, tt.want)
			}
			if len(f.api.completeCalls) != tt.wantCalls {
				t.Errorf("complete calls = %d, want %d", len(f.api.completeCalls), tt.wantCalls)
			}
			if tt.wantCalls == 1 && tt.locErr != nil && f.api.completeCalls[0].CurrentLat != nil {
				t.Error("fallback request must not carry coordinates")
			}
			if len(f.confirm.prompts) != tt.wantPrompts {
				t.Errorf("prompts = %v", f.confirm.prompts)
			}
			if tt.wantPrompts == 2 && f.confirm.prompts[1] != PromptNoLocation {
				t.Errorf("second prompt = %q", f.confirm.prompts[1])
			}
			st := f.view.snapshot()
			if tt.wantAlert != "" && (len(st.alerts) == 0 || st.alerts[len(st.alerts)-1] != tt.wantAlert) {
				t.Errorf("alerts = %v, want %q", st.alerts, tt.wantAlert)
			}
			if tt.want != CompletionWithoutLocation && f.svc.State().State != models.DriverOnMission {
				t.Error("assignment dropped although nothing was completed")
			}
		})
	}
}

func TestCompleteWithoutAssignment(t *testing.T) {
	f := newDriverFixture(t)
	f.login(t)

	outcome, err := f.svc.Complete(context.Background())
	if outcome != CompletionSkipped || !errors.Is(err, apperr.ErrNoAssignment) {
		t.Fatalf("Complete() = %s, %v", outcome, err)
	}
	if len(f.confirm.prompts) != 0 {
		t.Error("prompted without an assignment")
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	f := newDriverFixture(t)
	f.login(t)
	ctx := context.Background()

	f.svc.Logout(ctx)
	f.svc.Logout(ctx)

	if got := f.view.snapshot().loggedOut; got != 2 {
		t.Errorf("ShowLoggedOut called %d times", got)
	}
	if _, ok, _ := f.store.Token().Get(ctx, 99); ok {
		t.Error("token survived logout")
	}
	if f.svc.State().State != models.DriverLoggedOut {
		t.Error("state should be logged out")
	}
	if err := f.svc.PollNow(ctx); !errors.Is(err, apperr.ErrNotLoggedIn) {
		t.Errorf("PollNow after logout = %v", err)
	}
}

func TestLogoutStopsPolling(t *testing.T) {
	f := newDriverFixture(t)
	f.svc.timing.PollInterval = 2 * time.Millisecond
	f.login(t)

	waitFor(t, "ticker polls", func() bool { return f.api.polls() >= 3 })
	f.svc.Logout(context.Background())

	after := f.api.polls()
	time.Sleep(30 * time.Millisecond)
	if f.api.polls() != after {
		t.Error("polls continued after logout")
	}
}

func TestReloginReplacesPoller(t *testing.T) {
	f := newDriverFixture(t)
	f.svc.timing.PollInterval = 2 * time.Millisecond
	f.login(t)
	f.login(t)

	f.svc.Logout(context.Background())
	after := f.api.polls()
	time.Sleep(30 * time.Millisecond)
	if f.api.polls() != after {
		t.Error("an old poller outlived re-login")
	}
}

func TestLogoutDuringLoginWins(t *testing.T) {
	f := newDriverFixture(t)
	f.svc.timing.PollInterval = 2 * time.Millisecond

	entered := make(chan struct{})
	release := make(chan struct{})
	f.api.statusFn = func(context.Context) (*models.DriverStatus, error) {
		close(entered)
		<-release
		return &models.DriverStatus{Status: "available"}, nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.Login(context.Background(), "ravi", "secret")
		done <- err
	}()
	<-entered

	f.svc.Logout(context.Background())
	close(release)

	select {
	case err := <-done:
		if !errors.Is(err, apperr.ErrLoginSuperseded) {
			t.Fatalf("Login() error = %v, want ErrLoginSuperseded", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("login never returned")
	}

	time.Sleep(30 * time.Millisecond)
	if got := f.api.polls(); got != 0 {
		t.Errorf("polls after logout = %d, want 0", got)
	}
	if f.svc.State().State != models.DriverLoggedOut {
		t.Errorf("state = %s, want logged out", f.svc.State().State)
	}
	if _, ok, _ := f.store.Token().Get(context.Background(), 99); ok {
		t.Error("token survived logout")
	}
	if got := len(f.view.snapshot().statuses); got != 0 {
		t.Errorf("driver status rendered after logout %d times", got)
	}
}
