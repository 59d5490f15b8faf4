// Package darkmode manages the visitor's dark-mode preference.
//
// The preference is a single bool persisted under the "darkMode" cookie and
// mirrored onto the page theme through a ThemeApplier:
//
//	prefs := persist.JSON[bool](cookies, darkmode.CookieName)
//	dm, err := darkmode.New(ctx, prefs, darkmode.ThemeFunc(func(on bool) {
//	    // toggle the "dark" class on <html>
//	}))
//	enabled, err := dm.Toggle(ctx)
//
// When nothing is persisted the preference is DefaultEnabled, both at
// construction and on Load.
package darkmode

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hoka-shop/storefront/pkg/persist"
	"github.com/hoka-shop/storefront/pkg/signal"
)

const (
	// CookieName is the cookie (or persistence key) holding the preference.
	CookieName = "darkMode"

	// ThemeClass is the document class switched on when dark mode is enabled.
	ThemeClass = "dark"

	// DefaultEnabled is the preference when nothing is persisted.
	DefaultEnabled = true
)

// ThemeApplier switches the presentation layer's theme class.
type ThemeApplier interface {
	SetThemeClass(enabled bool)
}

// ThemeFunc adapts a function to ThemeApplier.
type ThemeFunc func(enabled bool)

// SetThemeClass calls f(enabled).
func (f ThemeFunc) SetThemeClass(enabled bool) {
	f(enabled)
}

// Option configures a Store.
type Option func(*Store)

// WithDefault overrides DefaultEnabled for this store.
func WithDefault(enabled bool) Option {
	return func(s *Store) {
		s.defaults = enabled
	}
}

// WithLogger sets the logger used for persistence failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithObserver registers an operation observer, typically a metrics recorder.
// result is "ok" or "error".
func WithObserver(fn func(op, result string)) Option {
	return func(s *Store) {
		s.observe = fn
	}
}

// Store holds the dark-mode preference.
type Store struct {
	mu       sync.Mutex
	enabled  *signal.Signal[bool]
	defaults bool
	adapter  persist.Adapter[bool]
	theme    ThemeApplier
	logger   *slog.Logger
	observe  func(op, result string)
}

// New creates a store initialized from the persisted value, or the default
// if none is persisted. The theme is not touched until Load or Toggle.
//
// A persistence error is returned together with a usable store holding the
// default.
func New(ctx context.Context, adapter persist.Adapter[bool], theme ThemeApplier, opts ...Option) (*Store, error) {
	s := &Store{
		defaults: DefaultEnabled,
		adapter:  adapter,
		theme:    theme,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	initial, err := s.read(ctx)
	s.enabled = signal.New(initial, signal.WithEquals(func(a, b bool) bool { return a == b }))
	return s, err
}

// Load sets the preference from persistence and applies the theme.
// Subscribers and the theme are notified after the store lock is released.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	enabled, err := s.read(ctx)
	if err != nil {
		s.report("load", "error")
		s.mu.Unlock()
		return err
	}
	publish := s.enabled.Stage(enabled)
	s.report("load", "ok")
	s.mu.Unlock()

	publish()
	s.apply(enabled)
	return nil
}

// Toggle flips the preference, saves it and applies the theme once with the
// new value. The new value is returned even when the save fails.
func (s *Store) Toggle(ctx context.Context) (bool, error) {
	s.mu.Lock()
	enabled := !s.enabled.Get()
	publish := s.enabled.Stage(enabled)

	err := s.adapter.Save(ctx, enabled)
	if err != nil {
		s.logger.Error("dark mode save failed", "error", err)
		s.report("toggle", "error")
	} else {
		s.report("toggle", "ok")
	}
	s.mu.Unlock()

	publish()
	s.apply(enabled)
	return enabled, err
}

// Enabled reports whether dark mode is on.
func (s *Store) Enabled() bool {
	return s.enabled.Get()
}

// Subscribe calls fn with the new value after every change.
func (s *Store) Subscribe(fn func(enabled bool)) (unsubscribe func()) {
	return s.enabled.Subscribe(fn)
}

// read returns the persisted value or the default.
func (s *Store) read(ctx context.Context) (bool, error) {
	enabled, ok, err := s.adapter.Load(ctx)
	if err != nil {
		s.logger.Warn("dark mode load failed", "error", err)
		return s.defaults, err
	}
	if !ok {
		return s.defaults, nil
	}
	return enabled, nil
}

func (s *Store) apply(enabled bool) {
	if s.theme != nil {
		s.theme.SetThemeClass(enabled)
	}
}

func (s *Store) report(op, result string) {
	if s.observe != nil {
		s.observe(op, result)
	}
}

// Class returns ThemeClass when enabled, otherwise "".
func Class(enabled bool) string {
	if enabled {
		return ThemeClass
	}
	return ""
}
