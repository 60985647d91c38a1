package service

import (
	"context"
	"lifeline/pkg/models"
	"sync/atomic"
	"testing"
	"time"
)

func TestSessionDiscardsStaleResults(t *testing.T) {
	s := newSession(models.Driver{DriverID: 1}, "tok")
	a := &models.Assignment{DispatchID: 10}
	b := &models.Assignment{DispatchID: 11}

	first := s.issue()
	second := s.issue()

	if _, ok := s.apply(second, b); !ok {
		t.Fatal("newest result rejected")
	}
	if _, ok := s.apply(first, a); ok {
		t.Fatal("older result applied after a newer one")
	}
	if got := s.Assignment(); got == nil || got.DispatchID != 11 {
		t.Fatalf("assignment = %+v, want dispatch 11", got)
	}

	inFlight := s.issue()
	s.finish(11)
	if _, ok := s.apply(inFlight, b); ok {
		t.Fatal("result issued before completion re-applied the finished assignment")
	}
	if s.Assignment() != nil {
		t.Fatal("assignment should be cleared after finish")
	}

	late := s.issue()
	s.close()
	if _, ok := s.apply(late, a); ok {
		t.Fatal("result applied to a closed session")
	}
	if got := s.snapshot().State; got != models.DriverLoggedOut {
		t.Errorf("state = %s", got)
	}
}

func TestPollerStopsAndWaits(t *testing.T) {
	var calls atomic.Int32
	p := startPoller(context.Background(), time.Millisecond, func(context.Context) {
		calls.Add(1)
	})

	waitFor(t, "a few polls", func() bool { return calls.Load() >= 3 })
	p.Stop()
	p.Stop()

	after := calls.Load()
	time.Sleep(20 * time.Millisecond)
	if calls.Load() != after {
		t.Error("poller kept running after Stop")
	}
}
