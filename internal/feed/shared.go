package feed

import (
	"sync"
	"time"
)

// Source starts an upstream producer that calls publish with each new
// snapshot. The returned stop function releases the upstream.
type Source[T any] func(publish func(T)) (stop func())

// Shared runs at most one upstream Source for any number of subscribers.
// The upstream starts with the first subscriber and stops once the last one
// leaves and grace has elapsed without a new subscriber.
type Shared[T any] struct {
	mu      sync.Mutex
	source  Source[T]
	grace   time.Duration
	subject *Subject[T]
	stop    func()
	refs    int
	timer   *time.Timer
	gen     int
}

// NewShared wraps source. A grace of zero stops the upstream immediately.
func NewShared[T any](source Source[T], grace time.Duration) *Shared[T] {
	return &Shared[T]{source: source, grace: grace}
}

// Subscribe attaches a subscriber, starting the upstream if needed.
func (s *Shared[T]) Subscribe() *Subscription[T] {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++

	if s.stop == nil {
		s.subject = NewSubject[T]()
		s.stop = s.source(s.subject.Publish)
	}
	s.refs++

	return s.subject.subscribe(s.release)
}

// Active reports whether the upstream is running.
func (s *Shared[T]) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stop != nil
}

// Refs returns the number of attached subscribers.
func (s *Shared[T]) Refs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refs
}

func (s *Shared[T]) release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refs--
	if s.refs > 0 {
		return
	}
	if s.grace <= 0 {
		s.stopLocked()
		return
	}

	gen := s.gen
	s.timer = time.AfterFunc(s.grace, func() { s.expire(gen) })
}

func (s *Shared[T]) expire(gen int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen || s.refs > 0 {
		return
	}
	s.timer = nil
	s.stopLocked()
}

func (s *Shared[T]) stopLocked() {
	if s.stop != nil {
		s.stop()
		s.stop = nil
	}
	if s.subject != nil {
		s.subject.Close()
		s.subject = nil
	}
}
