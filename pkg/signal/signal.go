// Package signal provides an observable value container.
//
// A Signal holds one value and notifies subscribers after every change.
// Presentation layers subscribe and re-render; the stores that own a Signal
// never depend on how the notification is consumed.
//
//	count := signal.New(0)
//	stop := count.Subscribe(func(v int) { fmt.Println("count:", v) })
//	defer stop()
//	count.Set(1) // prints "count: 1"
package signal

import "sync"

// subscriber is one registered callback.
type subscriber[T any] struct {
	id uint64
	fn func(T)
}

// Signal is a value container with change notification.
// It is safe for concurrent use.
type Signal[T any] struct {
	// value is the current value.
	value T

	// mu protects value.
	mu sync.RWMutex

	// subs are the registered callbacks.
	subs []subscriber[T]

	// subMu protects subs and nextID.
	subMu  sync.Mutex
	nextID uint64

	// equal reports whether a Set is a no-op.
	// If nil, every Set notifies.
	equal func(a, b T) bool
}

// Option configures a Signal.
type Option[T any] func(*Signal[T])

// WithEquals suppresses notifications when the new value equals the old one.
func WithEquals[T any](equal func(a, b T) bool) Option[T] {
	return func(s *Signal[T]) {
		s.equal = equal
	}
}

// New creates a signal holding initial.
func New[T any](initial T, opts ...Option[T]) *Signal[T] {
	s := &Signal[T]{value: initial}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the current value.
func (s *Signal[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set replaces the value and notifies subscribers.
func (s *Signal[T]) Set(value T) {
	s.Stage(value)()
}

// Stage replaces the value without notifying and returns the function that
// delivers the notification. Owners holding their own lock stage under it
// and publish once it is released, so subscribers may call back in.
// The returned function is a no-op when the value is unchanged.
func (s *Signal[T]) Stage(value T) (publish func()) {
	s.mu.Lock()
	if s.equal != nil && s.equal(s.value, value) {
		s.mu.Unlock()
		return func() {}
	}
	s.value = value
	s.mu.Unlock()

	return func() { s.notify(value) }
}

// Update applies fn to the current value and stores the result.
// fn runs under the write lock and must not call back into the signal.
func (s *Signal[T]) Update(fn func(T) T) {
	s.mu.Lock()
	old := s.value
	value := fn(old)
	if s.equal != nil && s.equal(old, value) {
		s.mu.Unlock()
		return
	}
	s.value = value
	s.mu.Unlock()

	s.notify(value)
}

// Subscribe registers fn to be called with the new value after each change.
// The returned function removes the subscription; calling it twice is safe.
func (s *Signal[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}

	s.subMu.Lock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscriber[T]{id: id, fn: fn})
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { s.unsubscribe(id) })
	}
}

func (s *Signal[T]) unsubscribe(id uint64) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for i, sub := range s.subs {
		if sub.id == id {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return
		}
	}
}

// notify calls every subscriber with value.
// Subscribers are copied first so callbacks may subscribe or unsubscribe.
func (s *Signal[T]) notify(value T) {
	s.subMu.Lock()
	subs := make([]subscriber[T], len(s.subs))
	copy(subs, s.subs)
	s.subMu.Unlock()

	for _, sub := range subs {
		sub.fn(value)
	}
}

// Subscribers returns the number of active subscriptions.
func (s *Signal[T]) Subscribers() int {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	return len(s.subs)
}
