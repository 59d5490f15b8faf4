package persist

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestDir(t *testing.T) {
	ctx := context.Background()
	root := filepath.Join(t.TempDir(), "state")

	dir, err := NewDir(root)
	if err != nil {
		t.Fatal(err)
	}

	if _, ok, err := dir.Get(ctx, "cart"); ok || err != nil {
		t.Fatalf("Get() on empty dir = %v, %v", ok, err)
	}

	if err := dir.Put(ctx, "cart", []byte(`[{"id":1}]`)); err != nil {
		t.Fatal(err)
	}
	if err := dir.Put(ctx, "cart", []byte(`[{"id":2}]`)); err != nil {
		t.Fatal(err)
	}

	got, ok, err := dir.Get(ctx, "cart")
	if err != nil || !ok || string(got) != `[{"id":2}]` {
		t.Errorf("Get() = %q, %v, %v", got, ok, err)
	}

	entries, _ := os.ReadDir(root)
	if len(entries) != 1 || entries[0].Name() != "cart.json" {
		t.Errorf("dir entries = %v, want only cart.json", entries)
	}

	if err := dir.Delete(ctx, "cart"); err != nil {
		t.Fatal(err)
	}
	if err := dir.Delete(ctx, "cart"); err != nil {
		t.Errorf("second Delete() = %v, want nil", err)
	}
}

func TestDirEscapesKeys(t *testing.T) {
	ctx := context.Background()
	dir, err := NewDir(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := dir.Put(ctx, "../escape/cart", []byte("[]")); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir.Root(), "..%2Fescape%2Fcart.json")); err != nil {
		t.Errorf("expected escaped file name: %v", err)
	}
}
