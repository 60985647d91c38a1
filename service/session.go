package service

import (
	"lifeline/pkg/models"
	"sync"

	"golang.org/x/sync/singleflight"
)

// pollTicket identifies one issued assignment request.
type pollTicket struct {
	seq   uint64
	epoch uint64
}

// Session is the live state of one logged-in driver. The poller only ever
// writes to it through apply, so a result from an older epoch or an older
// request can never overwrite a newer one.
type Session struct {
	driver models.Driver
	token  string

	flight singleflight.Group

	mu         sync.Mutex
	assignment *models.Assignment
	epoch      uint64
	nextSeq    uint64
	applied    uint64
	closed     bool
	poller     *Poller
}

func newSession(driver models.Driver, token string) *Session {
	return &Session{driver: driver, token: token}
}

func (s *Session) Driver() models.Driver { return s.driver }

func (s *Session) issue() pollTicket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSeq++
	return pollTicket{seq: s.nextSeq, epoch: s.epoch}
}

func (s *Session) currentEpoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// apply stores a poll result. ok is false when the result is stale or the
// session is gone; prev is the assignment that was replaced.
func (s *Session) apply(t pollTicket, a *models.Assignment) (prev *models.Assignment, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || t.epoch != s.epoch || t.seq <= s.applied {
		return nil, false
	}
	s.applied = t.seq
	prev = s.assignment
	s.assignment = cloneAssignment(a)
	return prev, true
}

// finish drops the assignment after a completed handshake and invalidates
// every poll issued before it.
func (s *Session) finish(dispatchID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	if s.assignment != nil && s.assignment.DispatchID == dispatchID {
		s.assignment = nil
	}
}

// Assignment returns a copy of the current assignment, nil when idle.
func (s *Session) Assignment() *models.Assignment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAssignment(s.assignment)
}

func (s *Session) isCurrent(dispatchID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && s.assignment != nil && s.assignment.DispatchID == dispatchID
}

func (s *Session) setPoller(p *Poller) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.poller = p
}

// close marks the session dead and stops its poller. Safe to call twice.
func (s *Session) close() {
	s.mu.Lock()
	s.closed = true
	s.epoch++
	s.assignment = nil
	p := s.poller
	s.poller = nil
	s.mu.Unlock()

	if p != nil {
		p.Stop()
	}
}

func (s *Session) snapshot() models.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.driver
	snap := models.SessionSnapshot{State: models.DriverIdle, Driver: &d}
	if s.closed {
		return models.SessionSnapshot{State: models.DriverLoggedOut}
	}
	if s.assignment != nil {
		snap.State = models.DriverOnMission
		snap.Assignment = cloneAssignment(s.assignment)
	}
	return snap
}

func cloneAssignment(a *models.Assignment) *models.Assignment {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}
