// Package cache stores the last fetched leaderboard documents.
package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

var (
	// ErrNotFound is returned when no entry exists for a key.
	ErrNotFound = errors.New("cache entry not found")

	// ErrIO wraps failures of the underlying storage.
	ErrIO = errors.New("cache i/o error")
)

// Entry is a cached document and the time it was last written.
type Entry struct {
	Data    []byte
	ModTime time.Time
}

// Store is the storage used by the fetcher. Put replaces any previous entry
// and stamps it with the current time.
type Store interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Put(ctx context.Context, key string, data []byte) error
}

// Key names the cache entry of a leaderboard.
func Key(year, id int) string {
	return fmt.Sprintf("aoc-leaderboard-%d-%d.json", year, id)
}

// FileStore keeps one file per key in a directory. The file modification time
// is the entry time.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create cache dir: %w", ErrIO, err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the cache directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Get reads the entry for key.
func (s *FileStore) Get(_ context.Context, key string) (*Entry, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %w", ErrIO, key, err)
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrIO, key, err)
	}

	return &Entry{Data: data, ModTime: info.ModTime()}, nil
}

// Put atomically replaces the entry for key.
func (s *FileStore) Put(_ context.Context, key string, data []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, "."+key+".*")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %w", ErrIO, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write %s: %w", ErrIO, key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrIO, key, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: rename %s: %w", ErrIO, key, err)
	}
	return nil
}

func (s *FileStore) path(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || key[0] == '.' {
		return "", fmt.Errorf("%w: invalid key %q", ErrIO, key)
	}
	return filepath.Join(s.dir, key), nil
}
