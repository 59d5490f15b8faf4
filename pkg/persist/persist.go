package persist

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/hoka-shop/storefront/internal/errors"
)

// Adapter loads and saves one whole value.
type Adapter[T any] interface {
	// Load returns the persisted value.
	// Returns (zero, false, nil) when nothing is persisted.
	Load(ctx context.Context) (T, bool, error)

	// Save overwrites the persisted value.
	Save(ctx context.Context, value T) error
}

// Blobs is a byte-level key/value backend.
// Implementations other than Cookies must be safe for concurrent use.
type Blobs interface {
	// Get returns the bytes stored under key.
	// Returns (nil, false, nil) if the key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Put stores data under key, replacing any previous value.
	Put(ctx context.Context, key string, data []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// JSON returns an Adapter that stores value as JSON under key.
func JSON[T any](blobs Blobs, key string) Adapter[T] {
	return &jsonAdapter[T]{blobs: blobs, key: key}
}

type jsonAdapter[T any] struct {
	blobs Blobs
	key   string
}

func (a *jsonAdapter[T]) Load(ctx context.Context) (T, bool, error) {
	var zero T

	data, ok, err := a.blobs.Get(ctx, a.key)
	if err != nil {
		return zero, false, errors.FromError(err, "S202").WithDetail("key " + a.key)
	}
	// An empty or null payload counts as nothing persisted.
	data = bytes.TrimSpace(data)
	if !ok || len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return zero, false, nil
	}

	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return zero, false, errors.New("S200").WithDetail("key " + a.key).Wrap(err)
	}
	return value, true, nil
}

func (a *jsonAdapter[T]) Save(ctx context.Context, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.New("S203").WithDetail("key " + a.key).Wrap(err)
	}
	if err := a.blobs.Put(ctx, a.key, data); err != nil {
		return errors.FromError(err, "S203")
	}
	return nil
}

// Prefixed scopes every key of blobs under prefix.
func Prefixed(blobs Blobs, prefix string) Blobs {
	if prefix == "" {
		return blobs
	}
	return &prefixed{blobs: blobs, prefix: prefix}
}

type prefixed struct {
	blobs  Blobs
	prefix string
}

func (p *prefixed) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return p.blobs.Get(ctx, p.prefix+key)
}

func (p *prefixed) Put(ctx context.Context, key string, data []byte) error {
	return p.blobs.Put(ctx, p.prefix+key, data)
}

func (p *prefixed) Delete(ctx context.Context, key string) error {
	return p.blobs.Delete(ctx, p.prefix+key)
}
