package persist

import (
	"context"
	"errors"
	"testing"

	serrors "github.com/hoka-shop/storefront/internal/errors"
)

type item struct {
	ID  int `json:"id"`
	Qty int `json:"quantity"`
}

func TestJSONRoundTrip(t *testing.T) {
	ctx := context.Background()
	adapter := JSON[[]item](NewMemory(), "cart")

	_, ok, err := adapter.Load(ctx)
	if err != nil || ok {
		t.Fatalf("Load() on empty backend = ok %v, err %v; want false, nil", ok, err)
	}

	want := []item{{ID: 1, Qty: 2}, {ID: 3, Qty: 1}}
	if err := adapter.Save(ctx, want); err != nil {
		t.Fatal(err)
	}

	got, ok, err := adapter.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("Load() = ok %v, err %v", ok, err)
	}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Load() = %v, want %v", got, want)
	}
}

func TestJSONNullCountsAsAbsent(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()

	for _, payload := range []string{"null", "", "  "} {
		_ = mem.Put(ctx, "darkMode", []byte(payload))
		_, ok, err := JSON[bool](mem, "darkMode").Load(ctx)
		if err != nil || ok {
			t.Errorf("Load(%q) = ok %v, err %v; want false, nil", payload, ok, err)
		}
	}
}

func TestJSONDecodeError(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	_ = mem.Put(ctx, "cart", []byte("{not json"))

	_, ok, err := JSON[[]item](mem, "cart").Load(ctx)
	if ok {
		t.Error("Load() ok = true on corrupt payload")
	}
	if serrors.Code(err) != "S200" {
		t.Errorf("Load() err = %v, want S200", err)
	}
}

type failingBlobs struct{ err error }

func (f failingBlobs) Get(context.Context, string) ([]byte, bool, error) { return nil, false, f.err }
func (f failingBlobs) Put(context.Context, string, []byte) error         { return f.err }
func (f failingBlobs) Delete(context.Context, string) error              { return f.err }

func TestJSONWrapsBackendErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	adapter := JSON[bool](failingBlobs{err: boom}, "darkMode")

	_, _, err := adapter.Load(ctx)
	if serrors.Code(err) != "S202" || !errors.Is(err, boom) {
		t.Errorf("Load() err = %v, want S202 wrapping boom", err)
	}

	err = adapter.Save(ctx, true)
	if serrors.Code(err) != "S203" || !errors.Is(err, boom) {
		t.Errorf("Save() err = %v, want S203 wrapping boom", err)
	}
}

func TestPrefixed(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()

	a := Prefixed(mem, "visitor-a:")
	b := Prefixed(mem, "visitor-b:")

	_ = a.Put(ctx, "cart", []byte("[1]"))
	_ = b.Put(ctx, "cart", []byte("[2]"))

	got, ok, _ := mem.Get(ctx, "visitor-a:cart")
	if !ok || string(got) != "[1]" {
		t.Errorf("visitor-a:cart = %q, %v", got, ok)
	}
	got, _, _ = b.Get(ctx, "cart")
	if string(got) != "[2]" {
		t.Errorf("b.Get(cart) = %q", got)
	}

	_ = a.Delete(ctx, "cart")
	if mem.Len() != 1 {
		t.Errorf("Len() = %d, want 1", mem.Len())
	}

	if Prefixed(mem, "") != Blobs(mem) {
		t.Error("empty prefix should return the backend unchanged")
	}
}

func TestMemoryCopiesData(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()

	data := []byte("abc")
	_ = mem.Put(ctx, "k", data)
	data[0] = 'x'

	got, _, _ := mem.Get(ctx, "k")
	if string(got) != "abc" {
		t.Errorf("Get() = %q, want abc", got)
	}
	got[0] = 'y'
	again, _, _ := mem.Get(ctx, "k")
	if string(again) != "abc" {
		t.Errorf("Get() after mutation = %q, want abc", again)
	}
}
