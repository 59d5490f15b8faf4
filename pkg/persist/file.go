package persist

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
)

// Dir is a Blobs backend storing one file per key in a directory.
// Writes go to a temporary file first and are renamed into place.
type Dir struct {
	root string
}

// NewDir creates a directory backend rooted at root, creating it if needed.
func NewDir(root string) (*Dir, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Dir{root: root}, nil
}

// Root returns the backing directory.
func (d *Dir) Root() string {
	return d.root
}

func (d *Dir) path(key string) string {
	return filepath.Join(d.root, url.PathEscape(key)+".json")
}

// Get reads the file for key.
func (d *Dir) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(d.path(key))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Put replaces the file for key.
func (d *Dir) Put(ctx context.Context, key string, data []byte) error {
	tmp, err := os.CreateTemp(d.root, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, d.path(key)); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// Delete removes the file for key.
func (d *Dir) Delete(ctx context.Context, key string) error {
	err := os.Remove(d.path(key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
