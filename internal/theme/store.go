package theme

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"
)

const lockRetryDelay = 50 * time.Millisecond

// File is the on-disk layout of the theme file. Built-in themes are never
// written to it.
type File struct {
	CurrentTheme string           `yaml:"current_theme"`
	CustomThemes map[string]Theme `yaml:"custom_themes"`
}

func (f *File) init() {
	if f.CustomThemes == nil {
		f.CustomThemes = make(map[string]Theme)
	}
}

// Store gives flock-protected read/modify/write access to the theme file,
// so two vmm processes never interleave writes.
type Store struct {
	path     string
	lockPath string
}

// NewStore creates a store for the YAML file at path. The lock file sits
// next to it.
func NewStore(path string) *Store {
	return &Store{path: path, lockPath: path + ".lock"}
}

// Path returns the theme file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the file under a shared lock. A missing file yields an empty File.
func (s *Store) Load(ctx context.Context) (*File, error) {
	var out *File
	err := s.withLock(ctx, false, func() error {
		f, err := s.read()
		out = f
		return err
	})
	return out, err
}

// Update reads the file under an exclusive lock, applies fn, and atomically
// writes the result back when fn succeeds.
func (s *Store) Update(ctx context.Context, fn func(*File) error) error {
	return s.withLock(ctx, true, func() error {
		f, err := s.read()
		if err != nil {
			return err
		}
		if err := fn(f); err != nil {
			return err
		}
		return s.write(f)
	})
}

func (s *Store) withLock(ctx context.Context, exclusive bool, fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create theme dir: %w", err)
	}

	fl := flock.New(s.lockPath)
	var ok bool
	var err error
	if exclusive {
		ok, err = fl.TryLockContext(ctx, lockRetryDelay)
	} else {
		ok, err = fl.TryRLockContext(ctx, lockRetryDelay)
	}
	if err != nil {
		return fmt.Errorf("lock %s: %w", s.lockPath, err)
	}
	if !ok {
		return fmt.Errorf("lock %s: %w", s.lockPath, ctx.Err())
	}
	defer fl.Unlock() //nolint:errcheck

	return fn()
}

func (s *Store) read() (*File, error) {
	f := &File{}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			f.init()
			return f, nil
		}
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	if err := yaml.Unmarshal(raw, f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	f.init()
	return f, nil
}

// write replaces the file via a temp file and rename so readers never see
// a half-written document.
func (s *Store) write(f *File) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode themes: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".themes-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck,gosec
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}
