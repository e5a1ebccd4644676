package tensorstore

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hupe1980/permgo/resource"
)

// LocalOptions configures a LocalStore.
type LocalOptions struct {
	// Controller, if set, throttles reads and writes against its IO limit.
	Controller *resource.Controller
}

// WithController sets the resource controller used to rate limit transfers.
func WithController(rc *resource.Controller) func(o *LocalOptions) {
	return func(o *LocalOptions) {
		o.Controller = rc
	}
}

// LocalStore implements Store on the local file system.
// Puts write to a temp file and rename into place, so readers never observe
// partial objects.
type LocalStore struct {
	root string
	rc   *resource.Controller
}

// NewLocalStore creates a LocalStore rooted at the given directory,
// creating it if needed.
func NewLocalStore(root string, optFns ...func(o *LocalOptions)) (*LocalStore, error) {
	opts := LocalOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &LocalStore{root: root, rc: opts.Controller}, nil
}

func (s *LocalStore) path(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

// Get reads the full object.
func (s *LocalStore) Get(ctx context.Context, name string) ([]byte, error) {
	f, err := os.Open(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if s.rc != nil {
		r = resource.NewRateLimitedReader(ctx, f, s.rc)
	}
	return io.ReadAll(r)
}

// Put writes an object atomically via rename.
func (s *LocalStore) Put(ctx context.Context, name string, data []byte) error {
	path := s.path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	var w io.Writer = tmp
	if s.rc != nil {
		w = resource.NewRateLimitedWriter(ctx, tmp, s.rc)
	}

	if _, err := w.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}

// Delete removes an object.
func (s *LocalStore) Delete(_ context.Context, name string) error {
	err := os.Remove(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// List returns all object names with the given prefix, sorted.
func (s *LocalStore) List(_ context.Context, prefix string) ([]string, error) {
	var names []string

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".tmp-") {
			return nil
		}

		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(names)
	return names, nil
}
