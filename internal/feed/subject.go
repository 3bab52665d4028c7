// Package feed implements live feeds: push-based subscriptions that deliver
// the current value on subscribe and again after every change.
package feed

import (
	"sync"

	"github.com/google/uuid"
)

// Subject holds the latest value of a feed and pushes it to subscribers.
// Delivery never blocks the publisher: a subscriber that falls behind only
// ever sees the newest value.
type Subject[T any] struct {
	mu     sync.Mutex
	value  T
	set    bool
	subs   map[string]*Subscription[T]
	closed bool
}

// NewSubject creates a Subject with no value.
func NewSubject[T any]() *Subject[T] {
	return &Subject[T]{subs: make(map[string]*Subscription[T])}
}

// Publish stores v as the current value and offers it to every subscriber.
func (s *Subject[T]) Publish(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.value = v
	s.set = true
	for _, sub := range s.subs {
		sub.offer(v)
	}
}

// Value returns the current value and whether one has been published.
func (s *Subject[T]) Value() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.set
}

// Subscribe registers a new subscriber. The current value, if any, is
// available on the subscription's channel immediately.
func (s *Subject[T]) Subscribe() *Subscription[T] {
	return s.subscribe(nil)
}

func (s *Subject[T]) subscribe(onClose func()) *Subscription[T] {
	sub := &Subscription[T]{
		id:      uuid.New().String(),
		ch:      make(chan T, 1),
		subject: s,
		onClose: onClose,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		close(sub.ch)
		return sub
	}
	s.subs[sub.id] = sub
	if s.set {
		sub.offer(s.value)
	}
	return sub
}

// Len returns the number of active subscribers.
func (s *Subject[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Close ends the feed; all subscriber channels are closed.
func (s *Subject[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	for id, sub := range s.subs {
		close(sub.ch)
		delete(s.subs, id)
	}
}

func (s *Subject[T]) remove(sub *Subscription[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subs[sub.id]; ok {
		close(sub.ch)
		delete(s.subs, sub.id)
	}
}

// Subscription is one consumer's view of a Subject.
type Subscription[T any] struct {
	id      string
	ch      chan T
	subject *Subject[T]
	onClose func()
	once    sync.Once
}

// ID returns the subscription's unique identifier.
func (sub *Subscription[T]) ID() string {
	return sub.id
}

// C returns the channel snapshots arrive on. It is closed when the
// subscription or its subject is closed.
func (sub *Subscription[T]) C() <-chan T {
	return sub.ch
}

// Close unsubscribes. Safe to call more than once.
func (sub *Subscription[T]) Close() {
	sub.once.Do(func() {
		sub.subject.remove(sub)
		if sub.onClose != nil {
			sub.onClose()
		}
	})
}

// offer replaces any undelivered value with v. Callers hold the subject lock.
func (sub *Subscription[T]) offer(v T) {
	select {
	case sub.ch <- v:
		return
	default:
	}
	select {
	case <-sub.ch:
	default:
	}
	select {
	case sub.ch <- v:
	default:
	}
}
