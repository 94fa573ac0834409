package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Local stores objects as files under a root directory.
type Local struct {
	root string
}

// NewLocal creates the root directory if needed.
func NewLocal(root string) (*Local, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &Local{root: root}, nil
}

// Put writes data to key atomically (temp file + rename).
func (l *Local) Put(_ context.Context, key, _ string, data []byte) error {
	k, err := cleanKey(key)
	if err != nil {
		return err
	}

	dst := filepath.Join(l.root, filepath.FromSlash(k))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", k, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", k, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("rename %s: %w", k, err)
	}
	return nil
}

// Open returns a reader for key. The caller closes it.
func (l *Local) Open(_ context.Context, key string) (io.ReadCloser, Info, error) {
	k, err := cleanKey(key)
	if err != nil {
		return nil, Info{}, err
	}

	f, err := os.Open(filepath.Join(l.root, filepath.FromSlash(k)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, Info{}, notFound(k)
		}
		return nil, Info{}, fmt.Errorf("open %s: %w", k, err)
	}

	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, Info{}, fmt.Errorf("stat %s: %w", k, err)
	}
	if st.IsDir() {
		f.Close()
		return nil, Info{}, notFound(k)
	}

	return f, Info{ContentType: contentTypeFor(k), Size: st.Size()}, nil
}

// Ping checks that the root is still accessible.
func (l *Local) Ping(context.Context) error {
	_, err := os.Stat(l.root)
	return err
}
