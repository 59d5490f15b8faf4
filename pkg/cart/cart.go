package cart

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hoka-shop/storefront/pkg/persist"
	"github.com/hoka-shop/storefront/pkg/product"
	"github.com/hoka-shop/storefront/pkg/signal"
)

// CookieName is the cookie (or persistence key) holding the cart.
const CookieName = "cart"

// Operation results reported to an Observer.
const (
	ResultOK    = "ok"
	ResultMiss  = "miss"
	ResultError = "error"
)

// Observer is called after every operation with its name and result.
type Observer func(op, result string)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for persistence failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithObserver registers an operation observer, typically a metrics recorder.
func WithObserver(fn Observer) Option {
	return func(s *Store) {
		s.observe = fn
	}
}

// Store is a shopping cart.
// It is safe for concurrent use; operations are serialized.
type Store struct {
	mu      sync.Mutex
	items   *signal.Signal[[]product.Product]
	adapter persist.Adapter[[]product.Product]
	logger  *slog.Logger
	observe Observer
}

// New creates an empty cart persisted through adapter.
func New(adapter persist.Adapter[[]product.Product], opts ...Option) *Store {
	s := &Store{
		items:   signal.New([]product.Product{}),
		adapter: adapter,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the cart with the persisted one.
// Nothing persisted leaves the cart as it is.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	items, ok, err := s.adapter.Load(ctx)
	publish := func() {}
	switch {
	case err != nil:
		s.logger.Warn("cart load failed", "error", err)
		s.report("load", ResultError)
	case !ok:
		s.report("load", ResultMiss)
	default:
		publish = s.items.Stage(clone(items))
		s.report("load", ResultOK)
	}
	s.mu.Unlock()

	publish()
	return err
}

// Add puts p in the cart. If an entry with the same ID exists its quantity
// grows by p.Quantity; otherwise p is appended. A quantity below one counts
// as one. The cart is always saved.
func (s *Store) Add(ctx context.Context, p product.Product) error {
	if p.Quantity < 1 {
		p.Quantity = 1
	}
	_, err := s.mutate(ctx, "add", func(items []product.Product) ([]product.Product, bool, bool) {
		if i := indexOf(items, p.ID); i >= 0 {
			items[i].Quantity += p.Quantity
		} else {
			items = append(items, p)
		}
		return items, true, true
	})
	return err
}

// Remove deletes the entry with id and reports whether it was present.
// The cart is saved either way.
func (s *Store) Remove(ctx context.Context, id int) (bool, error) {
	return s.mutate(ctx, "remove", func(items []product.Product) ([]product.Product, bool, bool) {
		i := indexOf(items, id)
		if i >= 0 {
			items = append(items[:i], items[i+1:]...)
		}
		return items, i >= 0, true
	})
}

// IncreaseQuantity adds one to the entry with id.
// A miss changes nothing and is not saved.
func (s *Store) IncreaseQuantity(ctx context.Context, id int) (bool, error) {
	return s.mutate(ctx, "increase", func(items []product.Product) ([]product.Product, bool, bool) {
		i := indexOf(items, id)
		if i < 0 {
			return nil, false, false
		}
		items[i].Quantity++
		return items, true, true
	})
}

// DecreaseQuantity subtracts one from the entry with id while its quantity
// is above one. A miss, or an entry already at one, changes nothing and is
// not saved; the entry is never removed.
func (s *Store) DecreaseQuantity(ctx context.Context, id int) (bool, error) {
	return s.mutate(ctx, "decrease", func(items []product.Product) ([]product.Product, bool, bool) {
		i := indexOf(items, id)
		if i < 0 || items[i].Quantity <= 1 {
			return nil, false, false
		}
		items[i].Quantity--
		return items, true, true
	})
}

// Reset empties the cart and saves it.
func (s *Store) Reset(ctx context.Context) error {
	_, err := s.mutate(ctx, "reset", func([]product.Product) ([]product.Product, bool, bool) {
		return []product.Product{}, true, true
	})
	return err
}

// Items returns a copy of the cart entries in order.
func (s *Store) Items() []product.Product {
	return clone(s.items.Get())
}

// Get returns the entry with id.
func (s *Store) Get(id int) (product.Product, bool) {
	items := s.items.Get()
	if i := indexOf(items, id); i >= 0 {
		return items[i], true
	}
	return product.Product{}, false
}

// Len returns the number of distinct entries.
func (s *Store) Len() int {
	return len(s.items.Get())
}

// Count returns the sum of all quantities.
func (s *Store) Count() int {
	n := 0
	for _, p := range s.items.Get() {
		n += p.Quantity
	}
	return n
}

// Total returns the sum of all entry subtotals.
func (s *Store) Total() float64 {
	var total float64
	for _, p := range s.items.Get() {
		total += p.Subtotal()
	}
	return total
}

// Subscribe calls fn with a copy of the entries after every change.
// fn runs after the operation has released the cart and may call back into it.
func (s *Store) Subscribe(fn func([]product.Product)) (unsubscribe func()) {
	return s.items.Subscribe(func(items []product.Product) {
		fn(clone(items))
	})
}

// mutate runs fn on a private copy of the entries under the cart lock. fn
// returns the new entries, whether the id hit, and whether to save. When it
// saves, the entries are published and subscribers are notified after the
// lock is released.
func (s *Store) mutate(ctx context.Context, op string, fn func([]product.Product) ([]product.Product, bool, bool)) (bool, error) {
	s.mu.Lock()
	items, hit, write := fn(s.snapshot())
	if !write {
		s.report(op, ResultMiss)
		s.mu.Unlock()
		return false, nil
	}
	publish, err := s.commit(ctx, op, items, hit)
	s.mu.Unlock()

	publish()
	return hit, err
}

// commit stages items and saves them. In-memory state is updated even
// when the save fails; the next successful save overwrites the whole cart.
func (s *Store) commit(ctx context.Context, op string, items []product.Product, hit bool) (publish func(), err error) {
	publish = s.items.Stage(items)

	if err := s.adapter.Save(ctx, clone(items)); err != nil {
		s.logger.Error("cart save failed", "op", op, "error", err)
		s.report(op, ResultError)
		return publish, err
	}

	if hit {
		s.report(op, ResultOK)
	} else {
		s.report(op, ResultMiss)
	}
	return publish, nil
}

func (s *Store) report(op, result string) {
	if s.observe != nil {
		s.observe(op, result)
	}
}

// snapshot returns a private copy of the current entries for mutation.
func (s *Store) snapshot() []product.Product {
	return clone(s.items.Get())
}

func indexOf(items []product.Product, id int) int {
	for i, p := range items {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func clone(items []product.Product) []product.Product {
	out := make([]product.Product, len(items))
	copy(out, items)
	return out
}
