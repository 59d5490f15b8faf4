package toast

import (
	"log/slog"
	"sync"
	"time"

	"github.com/hoka-shop/storefront/internal/errors"
	"github.com/hoka-shop/storefront/pkg/signal"
)

// EventName is the event name dispatched for toasts.
// Client-side code should listen for this event.
const EventName = "storefront:toast"

// DefaultDuration is how long a toast stays visible.
const DefaultDuration = 5 * time.Second

// Type represents the toast notification type.
type Type string

const (
	TypeSuccess Type = "success"
	TypeError   Type = "error"
	TypeWarning Type = "warning"
	TypeInfo    Type = "info"
)

// Valid reports whether t is one of the four toast types.
func (t Type) Valid() bool {
	switch t {
	case TypeSuccess, TypeError, TypeWarning, TypeInfo:
		return true
	}
	return false
}

// ParseType converts external input to a Type.
func ParseType(s string) (Type, error) {
	t := Type(s)
	if !t.Valid() {
		return "", errors.New("S301").WithDetail("got " + s)
	}
	return t, nil
}

// Toast is one visible notification.
type Toast struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
	Type    Type   `json:"type"`
}

// Event actions carried in emitted event data.
const (
	ActionAdd    = "add"
	ActionRemove = "remove"
	ActionClear  = "clear"
)

// Emitter dispatches a named event to the presentation layer.
type Emitter interface {
	Emit(name string, data any)
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(name string, data any)

// Emit calls f(name, data).
func (f EmitterFunc) Emit(name string, data any) {
	f(name, data)
}

// Timer is a pending expiry that can be cancelled.
type Timer interface {
	Stop() bool
}

// Scheduler runs f after d and returns a handle to cancel it.
type Scheduler func(d time.Duration, f func()) Timer

func afterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Option configures a Store.
type Option func(*Store)

// WithDuration sets how long toasts stay visible.
func WithDuration(d time.Duration) Option {
	return func(s *Store) {
		s.duration = d
	}
}

// WithEmitter sets where toast events are dispatched.
func WithEmitter(e Emitter) Option {
	return func(s *Store) {
		s.emitter = e
	}
}

// WithScheduler replaces time.AfterFunc. Tests use it to fire expiries by hand.
func WithScheduler(fn Scheduler) Option {
	return func(s *Store) {
		s.schedule = fn
	}
}

// WithClock sets the time source used to seed toast IDs.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithLogger sets the store's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// Store holds the toasts visible to one visitor.
// It is safe for concurrent use; expiry timers run on their own goroutines.
type Store struct {
	mu       sync.Mutex
	toasts   *signal.Signal[[]Toast]
	timers   map[int64]Timer
	lastID   int64
	duration time.Duration
	schedule Scheduler
	emitter  Emitter
	now      func() time.Time
	logger   *slog.Logger
}

// NewStore creates an empty toast store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		toasts:   signal.New([]Toast{}),
		timers:   make(map[int64]Timer),
		duration: DefaultDuration,
		schedule: afterFunc,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add shows a toast and schedules its removal.
//
// IDs are the creation time in Unix milliseconds, bumped past the previous
// ID so two toasts created in the same millisecond stay distinct.
func (s *Store) Add(message string, typ Type) Toast {
	s.mu.Lock()
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id

	t := Toast{ID: id, Message: message, Type: typ}
	publish := s.toasts.Stage(append(s.snapshot(), t))
	s.timers[id] = s.schedule(s.duration, func() { s.expire(id) })
	s.mu.Unlock()

	publish()

	s.logger.Debug("toast added", "id", id, "type", string(typ))
	s.emit(map[string]any{
		"action":  ActionAdd,
		"id":      id,
		"level":   string(typ),
		"message": message,
	})
	return t
}

// Success shows a success toast.
//
//	toasts.Success("Added to cart")
func (s *Store) Success(message string) Toast {
	return s.Add(message, TypeSuccess)
}

// Error shows an error toast.
func (s *Store) Error(message string) Toast {
	return s.Add(message, TypeError)
}

// Warning shows a warning toast.
func (s *Store) Warning(message string) Toast {
	return s.Add(message, TypeWarning)
}

// Info shows an info toast.
func (s *Store) Info(message string) Toast {
	return s.Add(message, TypeInfo)
}

// Remove hides the toast with id immediately and cancels its expiry.
// It reports whether the toast was visible.
func (s *Store) Remove(id int64) bool {
	if !s.remove(id) {
		return false
	}
	s.emit(map[string]any{"action": ActionRemove, "id": id})
	return true
}

// expire is the timer callback. A toast already removed by hand is ignored.
func (s *Store) expire(id int64) {
	if !s.remove(id) {
		return
	}
	s.logger.Debug("toast expired", "id", id)
	s.emit(map[string]any{"action": ActionRemove, "id": id})
}

// remove drops the toast and its timer, notifying subscribers after the
// lock is released.
func (s *Store) remove(id int64) bool {
	s.mu.Lock()
	if timer, ok := s.timers[id]; ok {
		timer.Stop()
		delete(s.timers, id)
	}

	publish, found := func() {}, false
	items := s.snapshot()
	for i, t := range items {
		if t.ID == id {
			publish, found = s.toasts.Stage(append(items[:i], items[i+1:]...)), true
			break
		}
	}
	s.mu.Unlock()

	publish()
	return found
}

// Clear hides every toast and cancels all pending expiries.
func (s *Store) Clear() {
	s.mu.Lock()
	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
	publish, hadToasts := func() {}, len(s.toasts.Get()) > 0
	if hadToasts {
		publish = s.toasts.Stage([]Toast{})
	}
	s.mu.Unlock()

	publish()
	if hadToasts {
		s.emit(map[string]any{"action": ActionClear})
	}
}

// Close cancels all pending expiries without touching the visible toasts.
// The store is discarded afterwards.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
}

// List returns the visible toasts in creation order.
func (s *Store) List() []Toast {
	return s.snapshot()
}

// Len returns the number of visible toasts.
func (s *Store) Len() int {
	return len(s.toasts.Get())
}

// Pending returns the number of expiry timers still scheduled.
func (s *Store) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Subscribe calls fn with the visible toasts after every change. fn runs
// after the store has released its lock and may call back into it.
func (s *Store) Subscribe(fn func([]Toast)) (unsubscribe func()) {
	return s.toasts.Subscribe(func(items []Toast) {
		out := make([]Toast, len(items))
		copy(out, items)
		fn(out)
	})
}

func (s *Store) snapshot() []Toast {
	items := s.toasts.Get()
	out := make([]Toast, len(items))
	copy(out, items)
	return out
}

func (s *Store) emit(data map[string]any) {
	if s.emitter != nil {
		s.emitter.Emit(EventName, data)
	}
}
