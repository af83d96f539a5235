package feed

import (
	"sync"
	"time"
)

// Event announces that the notification set changed. Origin names the
// component that refreshed, so a subscriber can skip events it caused.
type Event struct {
	Origin string
	At     time.Time
}

// Subject is the explicit invalidation observable owned by the feed
// controller. Components that independently learn of new notifications
// publish here instead of firing stringly-typed global events.
type Subject struct {
	mu   sync.Mutex
	subs map[int]func(Event)
	next int
}

func NewSubject() *Subject {
	return &Subject{subs: make(map[int]func(Event))}
}

// Subscribe registers fn and returns its unsubscribe func.
func (s *Subject) Subscribe(fn func(Event)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Subject) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	s.mu.Lock()
	fns := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
