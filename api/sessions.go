package api

import (
	"sync"
	"time"

	"github.com/cache-fest/festival-registration/registration"
	"github.com/google/uuid"
)

type formSession struct {
	controller *registration.Controller
	lastUsed   time.Time
}

// formSessions holds the open registration forms. Sessions untouched for longer than idle are
// dropped the next time a form is created.
type formSessions struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*formSession
	idle     time.Duration
	now      func() time.Time
}

func newFormSessions(idle time.Duration, now func() time.Time) *formSessions {
	return &formSessions{
		sessions: map[uuid.UUID]*formSession{},
		idle:     idle,
		now:      now,
	}
}

func (s *formSessions) create(c *registration.Controller) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked()

	id := uuid.New()
	s.sessions[id] = &formSession{controller: c, lastUsed: s.now()}
	return id
}

func (s *formSessions) get(id uuid.UUID) (*registration.Controller, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, false
	}

	now := s.now()
	if now.Sub(session.lastUsed) > s.idle {
		session.controller.Close()
		delete(s.sessions, id)
		return nil, false
	}

	session.lastUsed = now
	return session.controller, true
}

func (s *formSessions) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sessions)
}

func (s *formSessions) sweepLocked() {
	now := s.now()
	for id, session := range s.sessions {
		if now.Sub(session.lastUsed) > s.idle {
			session.controller.Close()
			delete(s.sessions, id)
		}
	}
}

// closeAll drops every session and waits for their background notifications.
func (s *formSessions) closeAll() {
	s.mu.Lock()
	closed := make([]*registration.Controller, 0, len(s.sessions))
	for id, session := range s.sessions {
		session.controller.Close()
		closed = append(closed, session.controller)
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	for _, c := range closed {
		c.Wait()
	}
}
