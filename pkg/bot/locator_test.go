package bot

import (
	"context"
	"errors"
	"lifeline/pkg/apperr"
	"lifeline/pkg/models"
	"testing"
	"time"
)

func waitSent(t *testing.T, f *fakeSender) {
	t.Helper()
	select {
	case <-f.notify:
	case <-time.After(2 * time.Second):
		t.Fatal("nothing was sent")
	}
}

func TestLocatorDeliversSharedLocation(t *testing.T) {
	send := newFakeSender()
	l := newChatLocator(send, 5)

	type result struct {
		fix models.Fix
		err error
	}
	done := make(chan result, 1)
	go func() {
		fix, err := l.Locate(context.Background(), models.LocateOptions{Timeout: time.Second})
		done <- result{fix, err}
	}()

	waitSent(t, send)
	if !l.deliver(models.Fix{Lat: 12.97, Lon: 77.59, Timestamp: time.Now()}) {
		t.Fatal("deliver found no pending request")
	}

	r := <-done
	if r.err != nil || r.fix.Lat != 12.97 {
		t.Fatalf("Locate() = %+v, %v", r.fix, r.err)
	}
	if l.pending() {
		t.Error("request still pending after delivery")
	}
	if l.deliver(models.Fix{}) {
		t.Error("second delivery should not be consumed")
	}
}

func TestLocatorFailures(t *testing.T) {
	tests := []struct {
		name   string
		act    func(l *chatLocator)
		opts   models.LocateOptions
		reason apperr.LocationReason
	}{
		{
			name:   "denied",
			act:    func(l *chatLocator) { l.deny() },
			opts:   models.LocateOptions{Timeout: time.Second},
			reason: apperr.LocationDenied,
		},
		{
			name:   "timeout",
			act:    func(*chatLocator) {},
			opts:   models.LocateOptions{Timeout: 10 * time.Millisecond},
			reason: apperr.LocationTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			send := newFakeSender()
			l := newChatLocator(send, 5)

			errCh := make(chan error, 1)
			go func() {
				_, err := l.Locate(context.Background(), tt.opts)
				errCh <- err
			}()
			waitSent(t, send)
			tt.act(l)

			var lerr *apperr.LocationError
			if err := <-errCh; !errors.As(err, &lerr) || lerr.Reason != tt.reason {
				t.Fatalf("Locate() error = %v, want reason %s", err, tt.reason)
			}
		})
	}
}

func TestLocatorMaximumAge(t *testing.T) {
	send := newFakeSender()
	l := newChatLocator(send, 5)
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.deliver(models.Fix{Lat: 1, Lon: 2, Timestamp: now.Add(-30 * time.Second)})

	fix, err := l.Locate(context.Background(), models.LocateOptions{MaximumAge: time.Minute})
	if err != nil || fix.Lat != 1 {
		t.Fatalf("cached Locate() = %+v, %v", fix, err)
	}
	if sent, _ := send.counts(); sent != 0 {
		t.Error("cached fix should not prompt the user")
	}

	// MaximumAge of zero always asks for a fresh fix.
	_, err = l.Locate(context.Background(), models.LocateOptions{Timeout: 5 * time.Millisecond})
	if !apperr.IsLocation(err) {
		t.Fatalf("fresh Locate() error = %v", err)
	}
	if sent, _ := send.counts(); sent != 1 {
		t.Errorf("sent %d prompts, want 1", sent)
	}
}
